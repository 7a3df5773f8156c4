package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/minumate/backend/apps/api/echo"
	"github.com/minumate/backend/core"
	"github.com/minumate/backend/core/meeting"
	"github.com/minumate/backend/core/project"
	"github.com/minumate/backend/core/task"
	"github.com/minumate/backend/core/tracking"
	"github.com/minumate/backend/core/user"
	"github.com/minumate/backend/services/analyzer"
	emailsvc "github.com/minumate/backend/services/email"
	logsvc "github.com/minumate/backend/services/logger"
	dummydb "github.com/minumate/backend/storage/database/dummy"
)

var (
	app  Server
	conf *core.Config
	db   *dummydb.DB

	usrRepo      user.Repository
	meetingRepo  meeting.Repository
	taskRepo     task.Repository
	projectRepo  project.Repository
	trackingRepo tracking.Repository

	usrSvc      user.Service
	meetingSvc  meeting.Service
	taskSvc     task.Service
	projectSvc  project.Service
	trackingSvc tracking.Service

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

func TestMain(m *testing.M) {
	conf = core.NewConfig()
	conf.TestMode = true
	conf.Debug = false
	// assets live at the repository root
	conf.WorkDir = filepath.Join(conf.WorkDir, "..", "..", "..", "..")

	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "TEST : ", log.LstdFlags), conf)
	logger.Enable(false)

	// set up DB & repos
	var err error
	db, err = dummydb.Open()
	if err != nil {
		fmt.Printf("dummydb.Open(): %v", err)
		os.Exit(1)
	}
	usrRepo = dummydb.NewUserRepository(db)
	meetingRepo = dummydb.NewMeetingRepository(db)
	taskRepo = dummydb.NewTaskRepository(db)
	projectRepo = dummydb.NewProjectRepository(db)
	trackingRepo = dummydb.NewTrackingRepository(db)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc = user.NewServiceMock(usrRepo, mailSvc, conf)
	meetingSvc = meeting.NewService(meetingRepo)
	taskSvc = task.NewService(taskRepo)
	projectSvc = project.NewService(projectRepo)
	trackingSvc = tracking.NewService(trackingRepo)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	meeting.InitValidators(validate, translator)
	task.InitValidators(validate, translator)
	project.InitValidators(validate, translator)

	core.ParseEmailTemplates(conf, logger)
	user.LoadCommonPasswords(conf, logger)

	// set up server
	app = NewServer(
		ServerDeps{
			Conf:           conf,
			Logger:         logger,
			DisableReqLogs: true,
			UserSvc:        usrSvc,
			MeetingSvc:     meetingSvc,
			TaskSvc:        taskSvc,
			ProjectSvc:     projectSvc,
			TrackingSvc:    trackingSvc,
			AnalyzerSvc:    &analyzerStub{},
			MailSvc:        mailSvc,
			TrackedSender:  mailSvc,
			Validate:       validate,
			Translator:     translator,
		},
	)

	os.Exit(m.Run())
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

// analyzerStub returns a canned summary without hitting the API.
type analyzerStub struct{}

var _ analyzer.Service = (*analyzerStub)(nil)

var stubSummary = analyzer.Summary{
	ExecutiveSummary: "The team agreed to ship the beta next month.",
	KeyDecisions:     []string{"Ship the beta in four weeks"},
	ActionItems: []analyzer.ActionItem{
		{Task: "Prepare release notes", Owner: "Jane Smith", Priority: "high", Status: "pending"},
		{Task: "Set up staging environment", Owner: "Bob", Priority: "medium", Status: "pending"},
	},
	NextSteps: []string{"Weekly check-in on beta readiness"},
}

func (s *analyzerStub) ExtractMetadata(_ context.Context, _ string) (analyzer.Metadata, error) {
	return analyzer.Metadata{Title: "Team Meeting"}, nil
}

func (s *analyzerStub) Analyze(_ context.Context, md *analyzer.MeetingData) (analyzer.Summary, error) {
	if md.Title == "" {
		md.Title = "Team Meeting"
	}
	return stubSummary, nil
}

func (s *analyzerStub) GeneratePersonalizedEmails(sum analyzer.Summary, md analyzer.MeetingData) map[string]analyzer.DraftEmail {
	emails := make(map[string]analyzer.DraftEmail, len(md.Participants))
	for _, p := range md.Participants {
		emails[p.Name] = analyzer.DraftEmail{
			Subject:   "Meeting Summary: " + md.Title,
			Content:   "Hi " + p.Name + ",\n\n" + sum.ExecutiveSummary,
			Role:      p.Role,
			EmailType: p.EmailPreference,
		}
	}
	return emails
}

func (s *analyzerStub) GenerateStakeholderEmail(_ context.Context, sum analyzer.Summary, _ analyzer.EmailType, _ []string) (string, error) {
	return "Subject: Update\n\n" + sum.ExecutiveSummary, nil
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func stringify(v interface{}) string {
	return fmt.Sprintf("%v", v)
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	return marchallObj(t, objs)
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
