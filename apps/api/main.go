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
	"github.com/robfig/cron/v3"

	echoapi "github.com/nkashama/duetrack/apps/api/echo"
	"github.com/nkashama/duetrack/core"
	"github.com/nkashama/duetrack/core/alert"
	"github.com/nkashama/duetrack/core/course"
	"github.com/nkashama/duetrack/core/group"
	"github.com/nkashama/duetrack/core/task"
	"github.com/nkashama/duetrack/core/user"
	emailsvc "github.com/nkashama/duetrack/services/email"
	logsvc "github.com/nkashama/duetrack/services/logger"
	mongodb "github.com/nkashama/duetrack/storage/mongo"
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

	scanLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "SCAN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	scanLogger.Enable(!conf.Debug)

	// set up DB
	db, err := mongodb.Open(conf.Database)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	if err = mongodb.EnsureIndexes(db); err != nil {
		logger.Fatal(fmt.Sprintf("creating indexes: %v", err), err)
	}
	defer func() {
		if err = db.Client().Disconnect(context.Background()); err != nil {
			logger.Error("failed to disconnect from database", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	usrSvc := user.NewService(mongodb.NewUserRepository(db), mailSvc, conf)
	crsSvc := course.NewService(mongodb.NewCourseRepository(db))
	tskSvc := task.NewService(mongodb.NewTaskRepository(db), mongodb.NewCourseDirectory(db))
	grpSvc := group.NewService(mongodb.NewGroupRepository(db), mongodb.NewUserDirectory(db))

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	task.InitValidators(validate, translator)

	// =========================================================================
	// Start Deadline Scanner

	registry := alert.NewRegistry()
	ledger := alert.NewLedger()
	dispatcher := alert.NewDispatcher(registry, scanLogger)
	scanner := alert.NewScanner(tskSvc, registry, ledger, dispatcher, scanLogger, conf.Alert)

	cronLogger := logsvc.NewCronLogger(scanLogger)
	sched := cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger)))
	if _, err = sched.AddJob(fmt.Sprintf("@every %s", conf.Alert.ScanInterval), scanner); err != nil {
		logger.Fatal(fmt.Sprintf("scheduling deadline scanner: %v", err), err)
	}
	sched.Start()
	defer sched.Stop()

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:           conf,
			Logger:         logger,
			UserSvc:        usrSvc,
			CourseSvc:      crsSvc,
			TaskSvc:        tskSvc,
			GroupSvc:       grpSvc,
			Registry:       registry,
			Dispatcher:     dispatcher,
			GoogleVerifier: echoapi.NewGoogleVerifier(),
			Validate:       validate,
			Translator:     translator,
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

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
