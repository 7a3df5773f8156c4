package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/minumate/backend/core/project"
	"github.com/minumate/backend/core/user"
	testutil "github.com/minumate/backend/tests"
)

func createProject(t *testing.T, name string, createdBy int) project.Project {
	prj, err := projectSvc.Create(project.NewProject{Name: name, Status: project.StatusActive}, createdBy)
	if err != nil {
		t.Fatalf("projectSvc.Create() failed: %v", err)
	}
	return prj
}

func Test_projectApi_query(t *testing.T) {
	db.Reset()

	usr := testutil.CreateUser(t, usrRepo, "Jane Smith", "jane", "jane@test.com", "LolC@t123", user.RoleUser, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.com", "LolC@t123", user.RoleAdmin, true)
	adminToken := getToken(t, admin)

	createProject(t, "Beta Launch", admin.ID)
	createProject(t, "Website Redesign", admin.ID)

	expected, err := projectSvc.QueryAll() // meeting counts joined in
	if err != nil {
		t.Fatalf("QueryAll() failed: %v", err)
	}

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", token: getToken(t, usr), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "Get all", token: adminToken, wantCode: http.StatusOK, wantData: marchallObj(t, expected)},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		tt.path = "/api/admin/projects"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_projectApi_create(t *testing.T) {
	db.Reset()

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.com", "LolC@t123", user.RoleAdmin, true)
	adminToken := getToken(t, admin)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "required fields", token: adminToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"name": reqMsg}),
		},
		{
			name: "invalid status", token: adminToken, wantCode: http.StatusBadRequest,
			body:     marchallObj(t, project.NewProject{Name: "Beta Launch", Status: "paused"}),
			wantData: marchallObj(t, map[string]string{"status": "invalid project status"}),
		},
		{
			name: "Created", token: adminToken, wantCode: http.StatusCreated,
			body: marchallObj(t, project.NewProject{Name: "Beta Launch", Description: "ship the beta"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/api/admin/projects"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusCreated {
				var prj project.Project
				if err := json.Unmarshal(rec.Body.Bytes(), &prj); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				// status defaults to active
				if prj.Status != project.StatusActive {
					t.Errorf("failed! Status = %q; want %q", prj.Status, project.StatusActive)
				}
				if prj.CreatedBy != admin.ID {
					t.Errorf("failed! CreatedBy = %d; want %d", prj.CreatedBy, admin.ID)
				}
			}
		})
	}
}

func Test_projectApi_retrieveUpdateDestroy(t *testing.T) {
	db.Reset()

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.com", "LolC@t123", user.RoleAdmin, true)
	adminToken := getToken(t, admin)

	prj := createProject(t, "Beta Launch", admin.ID)
	expected, err := projectSvc.GetByID(prj.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}

	path := func(id interface{}) string { return "/api/admin/projects/" + stringify(id) }
	tests := []httpTest{
		{name: "retrieve: not found", method: http.MethodGet, path: path(999), token: adminToken, wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})},
		{name: "retrieve: found", method: http.MethodGet, path: path(prj.ID), token: adminToken, wantCode: http.StatusOK, wantData: marchallObj(t, expected)},
		{name: "update: not found", method: http.MethodPut, path: path(999), token: adminToken, wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})},
		{
			name: "update: updated", method: http.MethodPut, path: path(prj.ID), token: adminToken, wantCode: http.StatusOK,
			body: marchallObj(t, project.UpdateProject{Status: project.StatusCompleted}),
		},
		{name: "destroy: not found", method: http.MethodDelete, path: path(999), token: adminToken, wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})},
		{name: "destroy: deleted", method: http.MethodDelete, path: path(prj.ID), token: adminToken, wantCode: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.name == "update: updated" && rec.Code == http.StatusOK {
				refreshed, err := projectSvc.GetByID(prj.ID)
				if err != nil {
					t.Fatalf("GetByID() failed: %v", err)
				}
				if refreshed.Status != project.StatusCompleted {
					t.Errorf("failed! Status = %q; want %q", refreshed.Status, project.StatusCompleted)
				}
				// omitted fields keep their values
				if refreshed.Name != prj.Name {
					t.Errorf("failed! Name = %q; want %q", refreshed.Name, prj.Name)
				}
			}
		})
	}

	if _, err := projectSvc.GetByID(prj.ID); err != project.ErrNotFound {
		t.Errorf("failed! err = %v; want ErrNotFound", err)
	}
}

func Test_projectApi_meetingLinks(t *testing.T) {
	db.Reset()

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.com", "LolC@t123", user.RoleAdmin, true)
	adminToken := getToken(t, admin)

	prj := createProject(t, "Beta Launch", admin.ID)
	mtg1 := testutil.CreateMeeting(t, meetingRepo, "Sprint Planning", "we planned the sprint", admin.ID)
	mtg2 := testutil.CreateMeeting(t, meetingRepo, "Retro", "we looked back", admin.ID)

	linkPath := func(projectID, meetingID interface{}) string {
		return "/api/admin/projects/" + stringify(projectID) + "/meetings/" + stringify(meetingID)
	}

	tests := []httpTest{
		{
			name: "link: linked", method: http.MethodPost, path: linkPath(prj.ID, mtg1.ID), token: adminToken,
			wantCode: http.StatusCreated,
		},
		{
			name: "link: already linked", method: http.MethodPost, path: linkPath(prj.ID, mtg1.ID), token: adminToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: project.ErrAlreadyLinked.Error()}),
		},
		{
			name: "project meetings", method: http.MethodGet, path: "/api/admin/projects/" + stringify(prj.ID) + "/meetings",
			token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, mtg1),
		},
		{
			name: "project meetings: unknown project", method: http.MethodGet, path: "/api/admin/projects/999/meetings",
			token: adminToken, wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "unlinked meetings", method: http.MethodGet, path: "/api/admin/meetings/unlinked",
			token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, mtg2),
		},
		{
			name: "meeting projects", method: http.MethodGet, path: "/api/admin/meetings/" + stringify(mtg1.ID) + "/projects",
			token: adminToken, wantCode: http.StatusOK,
		},
		{
			name: "unlink: not linked", method: http.MethodDelete, path: linkPath(prj.ID, mtg2.ID), token: adminToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "unlink: unlinked", method: http.MethodDelete, path: linkPath(prj.ID, mtg1.ID), token: adminToken,
			wantCode: http.StatusNoContent,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.name == "meeting projects" && rec.Code == http.StatusOK {
				var projects []project.Project
				if err := json.Unmarshal(rec.Body.Bytes(), &projects); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if len(projects) != 1 || projects[0].ID != prj.ID {
					t.Errorf("failed! projects = %+v; want just project %d", projects, prj.ID)
				}
			}
		})
	}

	// everything is unlinked again
	unlinked, err := projectSvc.QueryUnlinkedMeetings()
	if err != nil {
		t.Fatalf("QueryUnlinkedMeetings() failed: %v", err)
	}
	if len(unlinked) != 2 {
		t.Errorf("failed! len(unlinked) = %d; want 2", len(unlinked))
	}
}
