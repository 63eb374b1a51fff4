// Package report exposes the dynamic report builder: service types per
// company, active companies, configuration and generation.
package report

import (
	"context"
	"net/url"
	"strconv"

	"github.com/certiko/backoffice/core/form"
)

type apiClient interface {
	Get(ctx context.Context, path string, query url.Values, out interface{}) error
	Post(ctx context.Context, path string, body, out interface{}) error
	Put(ctx context.Context, path string, body, out interface{}) error
}

type Service struct {
	api apiClient
}

func NewService(api apiClient) *Service {
	return &Service{api: api}
}

// ServiceType is a list-of-values entry of the event types a company
// can report on.
type ServiceType struct {
	Secuencia int    `json:"secuencia"`
	Nombre    string `json:"nombre"`
}

// Company is an active tenant as listed for report filters.
type Company struct {
	Secuencia int    `json:"secuencia"`
	Nombre    string `json:"nombre"`
	Estado    string `json:"estado,omitempty"`
}

// ServiceTypes lists the event types available to a company.
func (svc *Service) ServiceTypes(ctx context.Context, empresa int) ([]ServiceType, error) {
	query := url.Values{"empresa": {strconv.Itoa(empresa)}}
	var types []ServiceType
	err := svc.api.Get(ctx, "/tipo_evento/lov", query, &types)
	return types, err
}

// ActiveCompanies lists the tenants a report can span.
func (svc *Service) ActiveCompanies(ctx context.Context) ([]Company, error) {
	var companies []Company
	err := svc.api.Get(ctx, "/empresa/activa", nil, &companies)
	return companies, err
}

// Generate produces a report document from the grouped parameters.
func (svc *Service) Generate(ctx context.Context, parametros interface{}, out interface{}) error {
	return svc.api.Post(ctx, "/reporte", parametros, out)
}

// Config fetches the dynamic report configuration for a service type.
func (svc *Service) Config(ctx context.Context, secuencia int) (*form.Schema, error) {
	query := url.Values{"secuencia": {strconv.Itoa(secuencia)}}
	var schema form.Schema
	if err := svc.api.Get(ctx, "/tipo_evento/configuracion", query, &schema); err != nil {
		return nil, err
	}
	return &schema, nil
}
