package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	echoapi "github.com/minumate/backend/apps/api/echo"
	"github.com/minumate/backend/core/meeting"
	"github.com/minumate/backend/core/tracking"
	"github.com/minumate/backend/core/user"
	testutil "github.com/minumate/backend/tests"
)

func sendTrackedEmail(t *testing.T, data echoapi.SendEmailRequest) echoapi.SendEmailResponse {
	req, rec := newRequest(http.MethodPost, "/send_email", marchallObj(t, data))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("send_email failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	var respData echoapi.SendEmailResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	return respData
}

func Test_trackingApi_sendEmail(t *testing.T) {
	db.Reset()

	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"recipient_email": reqMsg,
				"recipient_name":  reqMsg,
				"subject":         reqMsg,
				"body":            reqMsg,
			}),
		},
		{
			name:     "invalid email", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, echoapi.SendEmailRequest{RecipientEmail: "lol", RecipientName: "Lol", Subject: "Hi", Body: "<p>Hi</p>"}),
			wantData: marchallObj(t, map[string]string{"recipient_email": "recipient_email must be a valid email address"}),
		},
		{
			name: "sent without tracking", wantCode: http.StatusOK,
			body: marchallObj(t, echoapi.SendEmailRequest{RecipientEmail: "jane@test.com", RecipientName: "Jane Smith", Subject: "Hi", Body: "<p>Hi Jane</p>"}),
		},
		{
			name: "sent with tracking", wantCode: http.StatusOK,
			body: marchallObj(t, echoapi.SendEmailRequest{RecipientEmail: "bob@test.com", RecipientName: "Bob Brown", Subject: "Hi", Body: "<p>Hi Bob</p>", TrackingEnabled: true}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/send_email"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var respData echoapi.SendEmailResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if respData.TrackingID == "" {
					t.Fatal("failed! empty tracking ID")
				}
				if respData.Status != tracking.StatusSent {
					t.Errorf("failed! Status = %q; want %q", respData.Status, tracking.StatusSent)
				}

				em, err := trackingSvc.GetByTrackingID(respData.TrackingID)
				if err != nil {
					t.Fatalf("GetByTrackingID() failed: %v", err)
				}
				pixel := "/track/open/" + respData.TrackingID
				if em.TrackingEnabled && !strings.Contains(em.Content, pixel) {
					t.Errorf("failed! tracked content missing pixel %q", pixel)
				}
				if !em.TrackingEnabled && strings.Contains(em.Content, pixel) {
					t.Error("failed! untracked content has a pixel")
				}
				if em.SenderEmail != conf.DefaultFromEmail.Address {
					t.Errorf("failed! SenderEmail = %q; want %q", em.SenderEmail, conf.DefaultFromEmail.Address)
				}

				// the recipient is provisioned
				usr, err := usrRepo.GetUser(user.GetFilter{Email: em.RecipientEmail})
				if err != nil {
					t.Fatalf("GetUser() failed: %v", err)
				}
				if usr.IsRegistered() {
					t.Errorf("failed! Status = %q; want %q", usr.Status, user.StatusCreated)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_trackingApi_sendEmail_assignsIntendedTasks(t *testing.T) {
	db.Reset()

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.com", "LolC@t123", user.RoleAdmin, true)
	mtg := testutil.CreateMeeting(t, meetingRepo, "Sprint Planning", "we planned the sprint", admin.ID)
	intended := testutil.CreateTask(t, taskRepo, mtg.ID, "Prepare release notes", "Jane Smith", nil)
	testutil.CreateTask(t, taskRepo, mtg.ID, "Set up staging", "Bob", nil)

	respData := sendTrackedEmail(t, echoapi.SendEmailRequest{
		RecipientEmail: "jane@test.com",
		RecipientName:  "Jane Smith",
		Subject:        "Your action items",
		Body:           "<p>Hi Jane</p>",
		MeetingID:      &mtg.ID,
	})

	if len(respData.AssignedTasks) != 1 || respData.AssignedTasks[0] != intended.ID {
		t.Fatalf("failed! AssignedTasks = %v; want [%d]", respData.AssignedTasks, intended.ID)
	}

	usr, err := usrRepo.GetUser(user.GetFilter{Email: "jane@test.com"})
	if err != nil {
		t.Fatalf("GetUser() failed: %v", err)
	}
	tsk, err := taskRepo.GetTaskByID(intended.ID)
	if err != nil {
		t.Fatalf("GetTaskByID() failed: %v", err)
	}
	if !tsk.IsAssignedTo(usr.ID) {
		t.Errorf("failed! AssignedTo = %v; want %d", tsk.AssignedTo, usr.ID)
	}

	// the recipient joined the meeting as a regular participant
	p, err := meetingRepo.GetParticipant(mtg.ID, usr.ID)
	if err != nil {
		t.Fatalf("GetParticipant() failed: %v", err)
	}
	if p.Role != meeting.RoleParticipant {
		t.Errorf("failed! Role = %q; want %q", p.Role, meeting.RoleParticipant)
	}

	// sending again must not blow up on the existing participant
	again := sendTrackedEmail(t, echoapi.SendEmailRequest{
		RecipientEmail: "jane@test.com",
		RecipientName:  "Jane Smith",
		Subject:        "Reminder",
		Body:           "<p>Hi again</p>",
		MeetingID:      &mtg.ID,
	})
	if len(again.AssignedTasks) != 0 {
		t.Errorf("failed! AssignedTasks = %v; want none", again.AssignedTasks)
	}
}

func Test_trackingApi_trackOpen(t *testing.T) {
	db.Reset()

	respData := sendTrackedEmail(t, echoapi.SendEmailRequest{
		RecipientEmail:  "jane@test.com",
		RecipientName:   "Jane Smith",
		Subject:         "Hi",
		Body:            "<p>Hi Jane</p>",
		TrackingEnabled: true,
	})

	tests := []httpTest{
		{name: "unknown ID still serves the pixel", path: "/track/open/nope", wantCode: http.StatusOK},
		{name: "open recorded", path: "/track/open/" + respData.TrackingID, wantCode: http.StatusOK},
		{name: "second open recorded", path: "/track/open/" + respData.TrackingID, wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
				t.Errorf("failed! Content-Type = %q; want image/png", ct)
			}
			if !bytes.Equal(rec.Body.Bytes(), tracking.Pixel()) {
				t.Error("failed! body is not the tracking pixel")
			}
		})
	}

	em, err := trackingSvc.GetByTrackingID(respData.TrackingID)
	if err != nil {
		t.Fatalf("GetByTrackingID() failed: %v", err)
	}
	if !em.Opened || em.OpenCount != 2 {
		t.Errorf("failed! Opened = %v, OpenCount = %d; want true, 2", em.Opened, em.OpenCount)
	}
	if em.OpenedAt == nil {
		t.Error("failed! OpenedAt not set")
	}
	if len(em.Events) != 2 {
		t.Errorf("failed! len(Events) = %d; want 2", len(em.Events))
	}
}

func Test_trackingApi_emailStatus(t *testing.T) {
	db.Reset()

	respData := sendTrackedEmail(t, echoapi.SendEmailRequest{
		RecipientEmail:  "jane@test.com",
		RecipientName:   "Jane Smith",
		Subject:         "Hi",
		Body:            "<p>Hi Jane</p>",
		TrackingEnabled: true,
	})
	expected, err := trackingSvc.GetByTrackingID(respData.TrackingID)
	if err != nil {
		t.Fatalf("GetByTrackingID() failed: %v", err)
	}

	tests := []httpTest{
		{name: "Not found", path: "/email_status/nope", wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})},
		{name: "Found", path: "/email_status/" + respData.TrackingID, wantCode: http.StatusOK, wantData: marchallObj(t, expected)},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_trackingApi_adminQuery(t *testing.T) {
	db.Reset()

	usr := testutil.CreateUser(t, usrRepo, "Jane Smith", "jane", "jane@test.com", "LolC@t123", user.RoleUser, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.com", "LolC@t123", user.RoleAdmin, true)
	adminToken := getToken(t, admin)

	sendTrackedEmail(t, echoapi.SendEmailRequest{
		RecipientEmail: "bob@test.com", RecipientName: "Bob Brown", Subject: "Hi", Body: "<p>Hi Bob</p>", TrackingEnabled: true,
	})
	opened := sendTrackedEmail(t, echoapi.SendEmailRequest{
		RecipientEmail: "carl@test.com", RecipientName: "Carl Gray", Subject: "Hi", Body: "<p>Hi Carl</p>", TrackingEnabled: true,
	})
	req, rec := newRequest(http.MethodGet, "/track/open/"+opened.TrackingID)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("track open failed! code = %v", rec.Code)
	}

	type extraTest struct {
		wantEmails int
	}
	tests := []httpTest{
		{name: "Auth required", path: "/admin/api/emails", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", path: "/admin/api/emails", token: getToken(t, usr), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "invalid status filter", path: "/admin/api/emails?status=lost", token: adminToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"status": "status must be one of [opened sent clicked]"}),
		},
		{name: "Get all", path: "/admin/api/emails", token: adminToken, wantCode: http.StatusOK, extra: extraTest{wantEmails: 2}},
		{name: "search", path: "/admin/api/emails?search=carl", token: adminToken, wantCode: http.StatusOK, extra: extraTest{wantEmails: 1}},
		{name: "status=opened", path: "/admin/api/emails?status=opened", token: adminToken, wantCode: http.StatusOK, extra: extraTest{wantEmails: 1}},
		{name: "status filter is case-insensitive", path: "/admin/api/emails?status=Opened", token: adminToken, wantCode: http.StatusOK, extra: extraTest{wantEmails: 1}},
		{name: "status=sent", path: "/admin/api/emails?status=sent", token: adminToken, wantCode: http.StatusOK, extra: extraTest{wantEmails: 1}},
		{name: "status=clicked", path: "/admin/api/emails?status=clicked", token: adminToken, wantCode: http.StatusOK, extra: extraTest{wantEmails: 0}},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if extra, ok := tt.extra.(extraTest); ok {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var page tracking.EmailPage
				if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if len(page.Emails) != extra.wantEmails {
					t.Errorf("failed! len(Emails) = %d; want %d", len(page.Emails), extra.wantEmails)
				}
				if page.Page != 1 {
					t.Errorf("failed! Page = %d; want 1", page.Page)
				}
				if page.Stats.TotalEmails != 2 || page.Stats.OpenedEmails != 1 {
					t.Errorf("failed! Stats = %+v", page.Stats)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_trackingApi_adminRetrieve(t *testing.T) {
	db.Reset()

	usr := testutil.CreateUser(t, usrRepo, "Jane Smith", "jane", "jane@test.com", "LolC@t123", user.RoleUser, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.com", "LolC@t123", user.RoleAdmin, true)
	adminToken := getToken(t, admin)

	respData := sendTrackedEmail(t, echoapi.SendEmailRequest{
		RecipientEmail: "bob@test.com", RecipientName: "Bob Brown", Subject: "Hi", Body: "<p>Hi Bob</p>", TrackingEnabled: true,
	})
	expected, err := trackingSvc.GetByTrackingID(respData.TrackingID)
	if err != nil {
		t.Fatalf("GetByTrackingID() failed: %v", err)
	}

	tests := []httpTest{
		{name: "Auth required", path: "/admin/api/email/" + respData.TrackingID, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", path: "/admin/api/email/" + respData.TrackingID, token: getToken(t, usr),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "Not found", path: "/admin/api/email/nope", token: adminToken, wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})},
		{name: "Found", path: "/admin/api/email/" + respData.TrackingID, token: adminToken, wantCode: http.StatusOK, wantData: marchallObj(t, expected)},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_trackingApi_cleanup(t *testing.T) {
	db.Reset()

	usr := testutil.CreateUser(t, usrRepo, "Jane Smith", "jane", "jane@test.com", "LolC@t123", user.RoleUser, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.com", "LolC@t123", user.RoleAdmin, true)
	adminToken := getToken(t, admin)

	sendTrackedEmail(t, echoapi.SendEmailRequest{
		RecipientEmail: "bob@test.com", RecipientName: "Bob Brown", Subject: "Hi", Body: "<p>Hi Bob</p>",
	})

	tests := []httpTest{
		{name: "Auth required", path: "/admin/api/cleanup/30", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", path: "/admin/api/cleanup/30", token: getToken(t, usr), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "Invalid days", path: "/admin/api/cleanup/lol", token: adminToken, wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})},
		{
			name: "retention too short", path: "/admin/api/cleanup/3", token: adminToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: tracking.ErrRetentionTooShort.Error()}),
		},
		{
			name: "nothing old enough", path: "/admin/api/cleanup/30", token: adminToken, wantCode: http.StatusOK,
			wantData: marchallObj(t, echoapi.CleanupResponse{Deleted: 0}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodDelete

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
