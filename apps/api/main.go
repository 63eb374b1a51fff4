package main

import (
	"log"
	"net/http"
	"os"

	echoapi "github.com/certiko/backoffice/apps/api/echo"
	"github.com/certiko/backoffice/core"
	"github.com/certiko/backoffice/core/auth"
	"github.com/certiko/backoffice/core/certificate"
	"github.com/certiko/backoffice/core/company"
	"github.com/certiko/backoffice/core/report"
	"github.com/certiko/backoffice/core/session"
	"github.com/certiko/backoffice/core/stats"
	backendsvc "github.com/certiko/backoffice/services/backend"
	emailsvc "github.com/certiko/backoffice/services/email"
	logsvc "github.com/certiko/backoffice/services/logger"
	"github.com/certiko/backoffice/storage/state"
)

func main() {
	std := log.New(os.Stdout, core.Conf.AppName+" : ", log.LstdFlags|log.Lshortfile)

	// set up logging
	var logger core.Logger
	if core.Conf.Debug || core.Conf.RollbarToken == "" {
		logger = logsvc.NewStdLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, core.Conf)
	}
	logger.Enable(!core.Conf.TestMode)

	// set up the persisted client state
	store, err := state.OpenFile(core.Conf.StatePath)
	errAndDie(err)

	sessions := session.NewManager(store)

	// set up the upstream API layer
	tokens := backendsvc.NewTokenManager(core.Conf.Backend, store, http.DefaultClient)
	client := backendsvc.NewClient(core.Conf.Backend, tokens, sessions, http.DefaultClient)

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	// start API server
	app := echoapi.NewServer(
		&echoapi.Options{
			Address:    core.Conf.Server.Addr,
			Logger:     logger,
			Sessions:   sessions,
			AuthSvc:    auth.NewService(client, sessions),
			CertSvc:    certificate.NewService(client),
			ReportSvc:  report.NewService(client),
			CompanySvc: company.NewService(client),
			StatsSvc:   stats.NewService(client),
			EmailSvc:   mailSvc,
		},
	)
	app.Start()
}

func errAndDie(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
