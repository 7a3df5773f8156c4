package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/minumate/backend/apps/api/echo"
	"github.com/minumate/backend/core"
	"github.com/minumate/backend/core/meeting"
	"github.com/minumate/backend/core/project"
	"github.com/minumate/backend/core/task"
	"github.com/minumate/backend/core/tracking"
	"github.com/minumate/backend/core/user"
	"github.com/minumate/backend/services/analyzer"
	emailsvc "github.com/minumate/backend/services/email"
	logsvc "github.com/minumate/backend/services/logger"
	"github.com/minumate/backend/storage/database"
	sqliterepos "github.com/minumate/backend/storage/database/sqlite"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	var trackedSender core.TrackedEmailSender
	if conf.Debug {
		consoleSvc := emailsvc.NewConsoleService(conf)
		mailSvc, trackedSender = consoleSvc, consoleSvc
	} else {
		sendgridSvc := emailsvc.NewSendgridService(conf, logger)
		mailSvc, trackedSender = sendgridSvc, sendgridSvc
	}

	usrSvc := user.NewService(sqliterepos.NewUserRepository(db), mailSvc, conf)
	meetingSvc := meeting.NewService(sqliterepos.NewMeetingRepository(db))
	taskSvc := task.NewService(sqliterepos.NewTaskRepository(db))
	projectSvc := project.NewService(sqliterepos.NewProjectRepository(db))
	trackingSvc := tracking.NewService(sqliterepos.NewTrackingRepository(db))
	analyzerSvc := analyzer.NewService(conf, logger)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	meeting.InitValidators(validate, translator)
	task.InitValidators(validate, translator)
	project.InitValidators(validate, translator)

	core.ParseEmailTemplates(conf, logger)

	user.LoadCommonPasswords(conf, logger)

	if err = seedDefaultAdmin(usrSvc); err != nil {
		logger.Fatal(fmt.Sprintf("seeding default admin: %v", err), err)
	}

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err = http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			UserSvc:       usrSvc,
			MeetingSvc:    meetingSvc,
			TaskSvc:       taskSvc,
			ProjectSvc:    projectSvc,
			TrackingSvc:   trackingSvc,
			AnalyzerSvc:   analyzerSvc,
			MailSvc:       mailSvc,
			TrackedSender: trackedSender,
			Validate:      validate,
			Translator:    translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}
	if err = database.Migrate(db.DB); err != nil {
		return nil, err
	}
	return db, nil
}

// seedDefaultAdmin creates the default admin account on an empty users table.
func seedDefaultAdmin(svc user.Service) error {
	users, err := svc.QueryAll()
	if err != nil {
		return err
	}
	if len(users) > 0 {
		return nil
	}
	_, err = svc.Register(user.RegisterUser{
		Username: "admin",
		Email:    "admin@minumate.com",
		Password: "admin123", // change on first login
		FullName: "Administrator",
		Role:     user.RoleAdmin,
	})
	return err
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
