package echoapi

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/certiko/backoffice/core/report"
)

type reportApi struct {
	svc *report.Service
}

func registerReportAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *report.Service) {
	api := reportApi{svc: svc}

	rg := g.Group("/reporte", jwt)
	rg.GET("/tipos", api.serviceTypes)
	rg.GET("/empresas", api.activeCompanies)
	rg.GET("/configuracion", api.getConfig)
	rg.POST("/generar", api.generate)
}

func (api *reportApi) serviceTypes(ctx echo.Context) error {
	empresa, err := intQueryParam(ctx, "empresa")
	if err != nil {
		return err
	}
	types, err := api.svc.ServiceTypes(ctx.Request().Context(), empresa)
	if err != nil {
		return errors.Wrap(err, "listing service types")
	}
	if types == nil {
		types = []report.ServiceType{}
	}
	return ctx.JSON(http.StatusOK, types)
}

func (api *reportApi) activeCompanies(ctx echo.Context) error {
	companies, err := api.svc.ActiveCompanies(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing active companies")
	}
	if companies == nil {
		companies = []report.Company{}
	}
	return ctx.JSON(http.StatusOK, companies)
}

func (api *reportApi) getConfig(ctx echo.Context) error {
	secuencia, err := intQueryParam(ctx, "secuencia")
	if err != nil {
		return err
	}
	schema, err := api.svc.Config(ctx.Request().Context(), secuencia)
	if err != nil {
		return errors.Wrap(err, "fetching report configuration")
	}
	return ctx.JSON(http.StatusOK, schema)
}

func (api *reportApi) generate(ctx echo.Context) error {
	var data map[string]interface{}
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding report parameters")
	}
	var out json.RawMessage
	if err := api.svc.Generate(ctx.Request().Context(), data, &out); err != nil {
		return errors.Wrap(err, "generating report")
	}
	return ctx.JSONBlob(http.StatusOK, out)
}
