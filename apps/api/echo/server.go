package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/certiko/backoffice/core"
	"github.com/certiko/backoffice/core/auth"
	"github.com/certiko/backoffice/core/certificate"
	"github.com/certiko/backoffice/core/company"
	"github.com/certiko/backoffice/core/form"
	"github.com/certiko/backoffice/core/report"
	"github.com/certiko/backoffice/core/session"
	"github.com/certiko/backoffice/core/stats"
	"github.com/certiko/backoffice/services/moodle"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool

		Logger   core.Logger
		Sessions *session.Manager

		AuthSvc    *auth.Service
		CertSvc    *certificate.Service
		ReportSvc  *report.Service
		CompanySvc *company.Service
		StatsSvc   *stats.Service
		EmailSvc   core.EmailService

		// NewMoodleService builds the per-tenant catalog client; the
		// default uses the configured timeouts. Overridable in tests.
		NewMoodleService func(settings form.MoodleSettings) *moodle.Service
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	if opts.NewMoodleService == nil {
		logger := opts.Logger
		opts.NewMoodleService = func(settings form.MoodleSettings) *moodle.Service {
			conf := moodle.Config{
				BaseURL:     settings.BaseURL,
				Token:       settings.Token,
				ServiceName: settings.ServiceName,
			}
			return moodle.NewService(conf, core.Conf.Moodle, logger)
		}
	}
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(core.Conf.Debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.signalShutdown)
	s.app.Debug = core.Conf.Debug

	s.app.GET("/", home)
	registerPages(s.app)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerAuthAPI(v1, s.opts.AuthSvc)
	registerCertificateAPI(v1, jwt, s.opts.CertSvc, s.opts.Sessions, s.opts.NewMoodleService)
	registerReportAPI(v1, jwt, s.opts.ReportSvc)
	registerCompanyAPI(v1, jwt, s.opts.CompanySvc)
	registerStatsAPI(v1, jwt, s.opts.StatsSvc)
	registerMoodleAPI(v1, jwt, s.opts.CertSvc, s.opts.NewMoodleService, s.opts.EmailSvc, s.opts.Logger)
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Address))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) signalShutdown() {
	go func() {
		_ = s.Stop(context.Background())
	}()
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+core.Conf.AppName+"!")
}
