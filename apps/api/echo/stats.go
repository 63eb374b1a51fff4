package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/certiko/backoffice/core/stats"
)

type statsApi struct {
	svc *stats.Service
}

func registerStatsAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *stats.Service) {
	api := statsApi{svc: svc}

	kg := g.Group("/kpi", jwt)
	kg.GET("/certificadosDia", api.metric(api.svc.CertificatesTodayByUser, api.svc.CertificatesTodayByCompany))
	kg.GET("/totalTipoDia", api.metric(api.svc.TotalsByTypeTodayByUser, api.svc.TotalsByTypeTodayByCompany))
	kg.GET("/mediosPagoDia", api.metric(api.svc.PaymentMethodsTodayByUser, api.svc.PaymentMethodsTodayByCompany))
	kg.GET("/historicoSemana", api.metric(api.svc.WeeklyHistoryByUser, api.svc.WeeklyHistoryByCompany))
	kg.GET("/ultimosCertificados", api.latestCertificates)
	kg.GET("/empresas", api.activeCompanies)
	kg.GET("/opciones", api.options)
}

// metric dispatches a kpi to its per-user or per-company variant based
// on the query: empresa switches to the company scope, otherwise the
// acting operator from the JWT claims is used.
func (api *statsApi) metric(
	byUser func(ctx context.Context, usuario string) ([]stats.Metric, error),
	byCompany func(ctx context.Context, empresa int) ([]stats.Metric, error),
) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		var metrics []stats.Metric
		var err error
		if ctx.QueryParam("empresa") != "" {
			var empresa int
			if empresa, err = intQueryParam(ctx, "empresa"); err != nil {
				return err
			}
			metrics, err = byCompany(ctx.Request().Context(), empresa)
		} else {
			claims, cErr := getContextClaims(ctx)
			if cErr != nil {
				return cErr
			}
			metrics, err = byUser(ctx.Request().Context(), claims.Usuario)
		}
		if err != nil {
			return errors.Wrap(err, "fetching kpi")
		}
		if metrics == nil {
			metrics = []stats.Metric{}
		}
		return ctx.JSON(http.StatusOK, metrics)
	}
}

func (api *statsApi) latestCertificates(ctx echo.Context) error {
	var certs []stats.Certificate
	var err error
	if ctx.QueryParam("empresa") != "" {
		var empresa int
		if empresa, err = intQueryParam(ctx, "empresa"); err != nil {
			return err
		}
		certs, err = api.svc.LatestCertificatesByCompany(ctx.Request().Context(), empresa)
	} else {
		claims, cErr := getContextClaims(ctx)
		if cErr != nil {
			return cErr
		}
		certs, err = api.svc.LatestCertificatesByUser(ctx.Request().Context(), claims.Usuario)
	}
	if err != nil {
		return errors.Wrap(err, "fetching latest certificates")
	}
	if certs == nil {
		certs = []stats.Certificate{}
	}
	return ctx.JSON(http.StatusOK, certs)
}

func (api *statsApi) activeCompanies(ctx echo.Context) error {
	companies, err := api.svc.ActiveCompanies(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing active companies")
	}
	return ctx.JSON(http.StatusOK, companies)
}

func (api *statsApi) options(ctx echo.Context) error {
	empresa, err := intQueryParam(ctx, "empresa")
	if err != nil {
		return err
	}
	options, err := api.svc.Options(ctx.Request().Context(), empresa)
	if err != nil {
		return errors.Wrap(err, "listing kpi options")
	}
	return ctx.JSON(http.StatusOK, options)
}
