package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	echoapi "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/notify"
	"github.com/trezcool/darasa/scheduler"
	"github.com/trezcool/darasa/services/docgen"
	emailsvc "github.com/trezcool/darasa/services/email"
	logsvc "github.com/trezcool/darasa/services/logger"
	"github.com/trezcool/darasa/services/progress"
	"github.com/trezcool/darasa/services/textapi"
	"github.com/trezcool/darasa/storage/coursecfg"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf, err := core.NewConfig()
	if err != nil {
		log.Fatalf("loading config: %+v", err)
	}

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	jobLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "JOBS : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	jobLogger.Enable(!conf.Debug)

	// set up storage
	repo, err := coursecfg.NewStore(conf.DataDir, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up course store: %v", err), err)
	}

	// set up services
	var mailSvc core.EmailService
	switch {
	case conf.Debug:
		mailSvc = emailsvc.NewConsoleService(conf)
	case conf.SendgridAPIKey != "":
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	default:
		mailSvc = emailsvc.NewSMTPService(conf, logger)
	}

	textClient := textapi.NewClient(conf)
	progressClient := progress.NewClient(conf)
	courseSvc := course.NewService(repo, textClient, docgen.NewRenderer(), mailSvc, conf, logger)
	issuer := course.NewTokenIssuer(conf)
	dispatcher := notify.NewDispatcher(repo, issuer, mailSvc, progressClient, conf, jobLogger)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	core.InitValidators()
	course.InitValidators()

	core.ParseEmailTemplates(conf, logger)

	// =========================================================================
	// Start Scheduler

	sched := scheduler.New(jobLogger)
	if err = sched.Schedule("lesson-reminders", conf.Jobs.ReminderSpec, dispatcher.RunReminders); err != nil {
		logger.Fatal(fmt.Sprintf("scheduling reminders: %v", err), err)
	}
	if err = sched.Schedule("progress-checks", conf.Jobs.ProgressSpec, dispatcher.RunProgressChecks); err != nil {
		logger.Fatal(fmt.Sprintf("scheduling progress checks: %v", err), err)
	}
	sched.Start()

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
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
			Conf:      conf,
			Logger:    logger,
			CourseSvc: courseSvc,
			Sched:     sched,
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

		// give outstanding requests and in-flight jobs a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err = sched.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop scheduler gracefully: %v", err), err)
		}

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
