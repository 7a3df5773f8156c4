package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/mail"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"

	echoapi "github.com/minumate/backend/apps/api/echo"
	"github.com/minumate/backend/core/user"
	emailsvc "github.com/minumate/backend/services/email"
	testutil "github.com/minumate/backend/tests"
)

const reqMsg = "this field is required"

func Test_userApi_register(t *testing.T) {
	db.Reset()

	existing := testutil.CreateUser(t, usrRepo, "Jane Smith", "jane", "jane@test.com", "LolC@t123", user.RoleUser, true)
	provisioned, err := usrSvc.CreateFromEmail("bob@test.com", "Bob Brown")
	if err != nil {
		t.Fatalf("CreateFromEmail(): %v", err)
	}

	type extraTest struct {
		checkAuth bool
		promoted  bool
	}
	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"username":  reqMsg,
				"email":     reqMsg,
				"full_name": reqMsg,
				"password":  "password must contain at least 8 characters",
			}),
		},
		{
			name:     "invalid username", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.RegisterUser{Username: "l o l", Email: "lol@test.com", Password: "LolC@t123", FullName: "Lol"}),
			wantData: marchallObj(t, map[string]string{"username": "only alphanumeric characters and underscores are allowed"}),
		},
		{
			name:     "weak password", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.RegisterUser{Username: "lol", Email: "lol@test.com", Password: "lol12345", FullName: "Lol"}),
			wantData: marchallObj(t, map[string]string{"password": "password must contain at least 1 uppercase character, 1 lowercase character, 1 digit and 1 special character"}),
		},
		{
			name:     "username taken", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.RegisterUser{Username: existing.Username, Email: "new@test.com", Password: "LolC@t123", FullName: "New Guy"}),
			wantData: marchallObj(t, map[string]string{"username": user.ErrUsernameExists.Error()}),
		},
		{
			name:     "email taken", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.RegisterUser{Username: "newguy", Email: existing.Email, Password: "LolC@t123", FullName: "New Guy"}),
			wantData: marchallObj(t, map[string]string{"email": user.ErrEmailExists.Error()}),
		},
		{
			name:  "registered", wantCode: http.StatusCreated,
			body:  marchallObj(t, user.RegisterUser{Username: "newguy", Email: "newguy@test.com", Password: "LolC@t123", FullName: "New Guy"}),
			extra: extraTest{checkAuth: true},
		},
		{
			name:  "provisioned account claimed", wantCode: http.StatusCreated,
			body:  marchallObj(t, user.RegisterUser{Username: "bobby", Email: provisioned.Email, Password: "LolC@t123", FullName: "Bob Brown"}),
			extra: extraTest{checkAuth: true, promoted: true},
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/api/auth/register"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if extra, ok := tt.extra.(extraTest); ok && extra.checkAuth {
				var respData echoapi.AuthResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Token == "" {
					t.Error("failed! empty token")
				}
				if !respData.User.IsRegistered() || !respData.User.IsActive {
					t.Errorf("failed! user not activated: %+v", respData.User)
				}
				if extra.promoted && respData.User.ID != provisioned.ID {
					t.Errorf("failed! new row inserted instead of claiming; ID = %d; want %d", respData.User.ID, provisioned.ID)
				}
			}
		})
	}
}

func Test_userApi_login(t *testing.T) {
	db.Reset()

	usr := testutil.CreateUser(t, usrRepo, "Jane Smith", "jane", "jane@test.com", "LolC@t123", user.RoleUser, true)
	naughty := testutil.CreateUser(t, usrRepo, "N Dog", "ndog", "ndog@test.com", "LolC@t123", user.RoleUser, false)
	provisioned, err := usrSvc.CreateFromEmail("bob@test.com", "Bob Brown")
	if err != nil {
		t.Fatalf("CreateFromEmail(): %v", err)
	}

	tests := []httpTest{
		{
			name:     "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": reqMsg, "password": reqMsg}),
		},
		{
			name:     "unknown user", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, echoapi.LoginRequest{Username: "ghost", Password: "LolC@t123"}),
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "wrong password", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, echoapi.LoginRequest{Username: usr.Username, Password: "nope"}),
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "provisioned account cannot log in", wantCode: http.StatusForbidden,
			body:     marchallObj(t, echoapi.LoginRequest{Username: provisioned.Email, Password: "LolC@t123"}),
			wantData: marchallObj(t, httpErr{Error: "account not activated, complete registration first"}),
		},
		{
			name:     "deactivated account", wantCode: http.StatusForbidden,
			body:     marchallObj(t, echoapi.LoginRequest{Username: naughty.Username, Password: "LolC@t123"}),
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "login by username", wantCode: http.StatusOK,
			body: marchallObj(t, echoapi.LoginRequest{Username: usr.Username, Password: "LolC@t123"}),
		},
		{
			name: "login by email", wantCode: http.StatusOK,
			body: marchallObj(t, echoapi.LoginRequest{Username: usr.Email, Password: "LolC@t123"}),
		},
		{
			name: "username is case-insensitive", wantCode: http.StatusOK,
			body: marchallObj(t, echoapi.LoginRequest{Username: strings.ToUpper(usr.Username), Password: "LolC@t123"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/api/auth/login"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var respData echoapi.AuthResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Token == "" {
					t.Error("failed! empty token")
				}
				if respData.User.ID != usr.ID {
					t.Errorf("failed! user ID = %d; want %d", respData.User.ID, usr.ID)
				}
				refreshed, err := usrRepo.GetUser(user.GetFilter{ID: usr.ID})
				if err != nil {
					t.Fatalf("GetUser() failed: %v", err)
				}
				if refreshed.LastLogin.IsZero() {
					t.Error("failed! LastLogin not set")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_me(t *testing.T) {
	db.Reset()

	usr := testutil.CreateUser(t, usrRepo, "Jane Smith", "jane", "jane@test.com", "LolC@t123", user.RoleUser, true)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Get me", token: getToken(t, usr), wantCode: http.StatusOK, wantData: marchallObj(t, usr)},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		tt.path = "/api/auth/me"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_refreshToken(t *testing.T) {
	db.Reset()

	usr := testutil.CreateUser(t, usrRepo, "Jane Smith", "jane", "jane@test.com", "LolC@t123", user.RoleUser, true)
	naughty := testutil.CreateUser(t, usrRepo, "N Dog", "ndog", "ndog@test.com", "LolC@t123", user.RoleUser, false)

	now := time.Now()
	unrefreshableClaims := &echoapi.Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   strconv.Itoa(usr.ID),
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		OrigIssuedAt: now.Add(-2 * conf.Server.JWTRefreshExpirationDelta).Unix(), // older than threshold
		Username:     usr.Username,
		Email:        usr.Email,
		Role:         usr.Role,
	}
	unrefreshableToken, err := echoapi.GenerateToken(unrefreshableClaims)
	if err != nil {
		t.Fatalf("GenerateToken(): %v", err)
	}

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Inactive user not allowed", token: getToken(t, naughty), wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"})},
		{name: "Refresh period expired", token: unrefreshableToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"})},
		{name: "Token refreshed", token: getToken(t, usr), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/api/auth/token-refresh"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			// cannot guess new token.. just check that it's not empty
			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData echoapi.TokenResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Errorf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Token == "" {
					t.Error("failed! empty token")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_resetPassword(t *testing.T) {
	db.Reset()

	usr := testutil.CreateUser(t, usrRepo, "Jane Smith", "jane", "jane@test.com", "LolC@t123", user.RoleUser, true)
	provisioned, err := usrSvc.CreateFromEmail("bob@test.com", "Bob Brown")
	if err != nil {
		t.Fatalf("CreateFromEmail(): %v", err)
	}
	successData := marchallObj(t, echoapi.SuccessResponse{Success: "If the email address supplied is associated with an active account on this system, " +
		"an email will arrive in your inbox shortly with instructions to reset your password."})

	linkRegex, err := regexp.Compile(`/password-reset-confirm\?uid=.+&token=.+`)
	if err != nil {
		t.Fatalf("regexp.Compile(): %v", err)
	}

	type extraTest struct {
		emailSent bool
		to        mail.Address
	}
	tests := []httpTest{
		{name: "required fields", wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"email": reqMsg})},
		{
			name:     "invalid email", wantCode: http.StatusBadRequest, body: marchallObj(t, echoapi.PasswordResetRequest{Email: "lol"}),
			wantData: marchallObj(t, map[string]string{"email": "email must be a valid email address"}),
		},
		{
			name: "unknown email", wantCode: http.StatusOK, body: marchallObj(t, echoapi.PasswordResetRequest{Email: "lol@test.com"}),
			wantData: successData, extra: extraTest{emailSent: false},
		},
		{
			name: "provisioned account", wantCode: http.StatusOK, body: marchallObj(t, echoapi.PasswordResetRequest{Email: provisioned.Email}),
			wantData: successData, extra: extraTest{emailSent: false},
		},
		{
			name: "known email", wantCode: http.StatusOK, body: marchallObj(t, echoapi.PasswordResetRequest{Email: usr.Email}),
			wantData: successData, extra: extraTest{emailSent: true, to: mail.Address{Name: usr.FullName, Address: usr.Email}},
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/api/auth/password-reset"

		t.Run(tt.name, func(t *testing.T) {
			emailsvc.ClearSentMessages()

			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if extra, ok := tt.extra.(extraTest); ok {
				if extra.emailSent {
					if len(emailsvc.SentMessages) != 1 {
						t.Fatalf("failed! len(SentMessages) = %d; want 1", len(emailsvc.SentMessages))
					}
					msg := emailsvc.SentMessages[0]
					if msg.To[0] != extra.to {
						t.Errorf("failed! To = %v; want %v", msg.To[0], extra.to)
					}
					if !strings.Contains(msg.TextContent, extra.to.Name) {
						t.Errorf("failed! text content does not contain recipient's name %q", extra.to.Name)
					}
					if !strings.Contains(msg.HTMLContent, extra.to.Name) {
						t.Errorf("failed! HTML content does not contain recipient's name %q", extra.to.Name)
					}
					if !linkRegex.MatchString(msg.TextContent) {
						t.Errorf("failed! text content does not match linkRegex %v", linkRegex)
					}
					if !linkRegex.MatchString(msg.HTMLContent) {
						t.Errorf("failed! HTML content does not match linkRegex %v", linkRegex)
					}
				} else {
					if len(emailsvc.SentMessages) > 0 {
						t.Errorf("failed! len(SentMessages) = %d; want 0", len(emailsvc.SentMessages))
					}
				}
			}
		})
	}
}

func Test_userApi_confirmPasswordReset(t *testing.T) {
	db.Reset()
	emailsvc.ClearSentMessages()

	usr := testutil.CreateUser(t, usrRepo, "Jane Smith", "jane", "jane@test.com", "LolC@t123", user.RoleUser, true)

	// request a reset and pull uid & token out of the sent mail
	req, rec := newRequest(http.MethodPost, "/api/auth/password-reset", marchallObj(t, echoapi.PasswordResetRequest{Email: usr.Email}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("password reset request failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	if len(emailsvc.SentMessages) != 1 {
		t.Fatalf("failed! len(SentMessages) = %d; want 1", len(emailsvc.SentMessages))
	}
	linkRegex := regexp.MustCompile(`uid=([^&\s]+)&token=([^&\s]+)`)
	match := linkRegex.FindStringSubmatch(emailsvc.SentMessages[0].TextContent)
	if match == nil {
		t.Fatalf("failed! no reset link in:\n%s", emailsvc.SentMessages[0].TextContent)
	}
	validUID, validToken := match[1], match[2]

	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, user.ResetUserPassword{Token: reqMsg, UID: reqMsg, Password: "password must contain at least 8 characters", PasswordConfirm: reqMsg}),
		},
		{
			name:     "PasswordConfirm must = Password", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "lol", Password: "LolC@t123", PasswordConfirm: "lol"}),
			wantData: marchallObj(t, user.ResetUserPassword{PasswordConfirm: "password_confirm must be equal to Password"}),
		},
		{
			name:     "invalid uid", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: validToken, UID: "bG9s", Password: "NewC@t456", PasswordConfirm: "NewC@t456"}),
			wantData: marchallObj(t, httpErr{Error: "invalid token"}),
		},
		{
			name:     "user not found", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: validToken, UID: user.EncodeUID(user.User{ID: 999}), Password: "NewC@t456", PasswordConfirm: "NewC@t456"}),
			wantData: marchallObj(t, httpErr{Error: "invalid token"}),
		},
		{
			name:     "invalid token", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "HE4TS-sigsig-sig", UID: validUID, Password: "NewC@t456", PasswordConfirm: "NewC@t456"}),
			wantData: marchallObj(t, httpErr{Error: "invalid token"}),
		},
		{
			name:     "valid token", wantCode: http.StatusOK,
			body:     marchallObj(t, user.ResetUserPassword{Token: validToken, UID: validUID, Password: "NewC@t456", PasswordConfirm: "NewC@t456"}),
			wantData: marchallObj(t, echoapi.SuccessResponse{Success: "Password has been reset with the new password."}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/api/auth/password-reset-confirm"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				refreshed, err := usrRepo.GetUser(user.GetFilter{ID: usr.ID})
				if err != nil {
					t.Fatalf("GetUser() failed: %v", err)
				}
				if bytes.Equal(refreshed.PasswordHash, usr.PasswordHash) {
					t.Fatal("failed to update new password")
				}
			}
		})
	}
}

func Test_userApi_userQuery(t *testing.T) {
	db.Reset()

	path := func(search, role string, isActive *bool) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if role != "" {
			v.Add("role", role)
		}
		if isActive != nil {
			v.Add("is_active", strconv.FormatBool(*isActive))
		}
		return "/api/admin/users?" + v.Encode()
	}
	bPtr := func(b bool) *bool { return &b }

	usr1 := testutil.CreateUser(t, usrRepo, "Jane Smith", "jane", "jane@test.com", "", user.RoleUser, true)
	usr2 := testutil.CreateUser(t, usrRepo, "Bob Brown", "bob", "bob@test.com", "", user.RoleUser, true)
	manager := testutil.CreateUser(t, usrRepo, "Mary Manager", "mary", "mary@test.com", "", user.RoleManager, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.com", "", user.RoleAdmin, true)
	naughty := testutil.CreateUser(t, usrRepo, "N Dog", "ndog", "ndog@test.com", "", user.RoleUser, false)

	adminToken := getToken(t, admin)
	empty := marchallList(t)

	tests := []httpTest{
		{name: "Auth required", path: "/api/admin/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", path: "/api/admin/users", token: getToken(t, usr1), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "Get all", path: "/api/admin/users", token: adminToken, wantData: marchallList(t, usr1, usr2, manager, admin, naughty)},
		// filtering
		{name: "search (unknown)", path: path("lol", "", nil), token: adminToken, wantData: empty},
		{name: "search by name", path: path("smith", "", nil), token: adminToken, wantData: marchallList(t, usr1)},
		{name: "search by email", path: path("bob@", "", nil), token: adminToken, wantData: marchallList(t, usr2)},
		{name: "role (unknown)", path: path("", "lol", nil), token: adminToken, wantData: empty},
		{name: "role=manager", path: path("", user.RoleManager, nil), token: adminToken, wantData: marchallList(t, manager)},
		{name: "role=user", path: path("", user.RoleUser, nil), token: adminToken, wantData: marchallList(t, usr1, usr2, naughty)},
		{name: "is_active=false", path: path("", "", bPtr(false)), token: adminToken, wantData: marchallList(t, naughty)},
		{name: "all combo (empty)", path: path("dog", user.RoleUser, bPtr(true)), token: adminToken, wantData: empty},
		{name: "all combo (found)", path: path("dog", user.RoleUser, bPtr(false)), token: adminToken, wantData: marchallList(t, naughty)},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_userUpdate(t *testing.T) {
	db.Reset()

	usr := testutil.CreateUser(t, usrRepo, "Jane Smith", "jane", "jane@test.com", "LolC@t123", user.RoleUser, true)
	other := testutil.CreateUser(t, usrRepo, "Bob Brown", "bob", "bob@test.com", "LolC@t123", user.RoleUser, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.com", "LolC@t123", user.RoleAdmin, true)
	adminToken := getToken(t, admin)

	path := func(id interface{}) string { return "/api/admin/users/" + stringify(id) }
	bPtr := func(b bool) *bool { return &b }

	type extraTest struct {
		wantRole     string
		wantInactive bool
	}
	tests := []httpTest{
		{name: "Auth required", path: path(usr.ID), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", path: path(usr.ID), token: getToken(t, usr), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Not found", path: path(999), token: adminToken, wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "Invalid ID", path: path("lol"), token: adminToken, wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "username taken", path: path(usr.ID), token: adminToken, wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.UpdateUser{Username: other.Username}),
			wantData: marchallObj(t, map[string]string{"username": user.ErrUsernameExists.Error()}),
		},
		{
			name: "invalid role", path: path(usr.ID), token: adminToken, wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.UpdateUser{Role: "overlord"}),
			wantData: marchallObj(t, map[string]string{"role": "invalid role"}),
		},
		{
			name: "promote to manager", path: path(usr.ID), token: adminToken, wantCode: http.StatusOK,
			body:  marchallObj(t, user.UpdateUser{Role: user.RoleManager}),
			extra: extraTest{wantRole: user.RoleManager},
		},
		{
			name: "deactivate", path: path(usr.ID), token: adminToken, wantCode: http.StatusOK,
			body:  marchallObj(t, user.UpdateUser{IsActive: bPtr(false)}),
			extra: extraTest{wantRole: user.RoleManager, wantInactive: true},
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPut

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if extra, ok := tt.extra.(extraTest); ok && tt.wantCode == http.StatusOK {
				refreshed, err := usrRepo.GetUser(user.GetFilter{ID: usr.ID})
				if err != nil {
					t.Fatalf("GetUser() failed: %v", err)
				}
				if refreshed.Role != extra.wantRole {
					t.Errorf("failed! Role = %q; want %q", refreshed.Role, extra.wantRole)
				}
				if refreshed.IsActive == extra.wantInactive {
					t.Errorf("failed! IsActive = %v; want %v", refreshed.IsActive, !extra.wantInactive)
				}
			}
		})
	}
}

func Test_userApi_userDestroy(t *testing.T) {
	db.Reset()

	usr := testutil.CreateUser(t, usrRepo, "Jane Smith", "jane", "jane@test.com", "LolC@t123", user.RoleUser, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.com", "LolC@t123", user.RoleAdmin, true)
	adminToken := getToken(t, admin)

	path := func(id interface{}) string { return "/api/admin/users/" + stringify(id) }

	tests := []httpTest{
		{name: "Auth required", path: path(usr.ID), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", path: path(usr.ID), token: getToken(t, usr), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Not found", path: path(999), token: adminToken, wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "admins cannot delete themselves", path: path(admin.ID), token: adminToken, wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "Deleted", path: path(usr.ID), token: adminToken, wantCode: http.StatusNoContent},
	}
	for _, tt := range tests {
		tt.method = http.MethodDelete

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusNoContent {
				if _, err := usrRepo.GetUser(user.GetFilter{ID: usr.ID}); err != user.ErrNotFound {
					t.Errorf("failed! err = %v; want ErrNotFound", err)
				}
			}
		})
	}
}
