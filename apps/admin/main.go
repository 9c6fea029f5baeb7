package main

import (
	"context"
	"log"
	"os"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/notify"
	"github.com/trezcool/darasa/services/docgen"
	emailsvc "github.com/trezcool/darasa/services/email"
	logsvc "github.com/trezcool/darasa/services/logger"
	"github.com/trezcool/darasa/services/progress"
	"github.com/trezcool/darasa/services/textapi"
	"github.com/trezcool/darasa/storage/coursecfg"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := core.NewConfig()
	errAndDie(err)

	appLogger := logsvc.NewRollbarLogger(logger, conf)
	appLogger.Enable(!conf.Debug)

	core.InitValidators()
	course.InitValidators()
	core.ParseEmailTemplates(conf, appLogger)

	repo, err := coursecfg.NewStore(conf.DataDir, appLogger)
	errAndDie(err)

	var mailSvc core.EmailService
	switch {
	case conf.Debug:
		mailSvc = emailsvc.NewConsoleService(conf)
	case conf.SendgridAPIKey != "":
		mailSvc = emailsvc.NewSendgridService(conf, appLogger)
	default:
		mailSvc = emailsvc.NewSMTPService(conf, appLogger)
	}

	courseSvc := course.NewService(
		repo, textapi.NewClient(conf), docgen.NewRenderer(), mailSvc, conf, appLogger)
	dispatcher := notify.NewDispatcher(
		repo, course.NewTokenIssuer(conf), mailSvc, progress.NewClient(conf), conf, appLogger)

	// start CLI
	cli := commandLine{
		ctx:        context.Background(),
		svc:        courseSvc,
		dispatcher: dispatcher,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
