// Package stats surfaces the kpi endpoints feeding the dashboard,
// scoped either to the acting operator or to their whole company.
package stats

import (
	"context"
	"net/url"
	"strconv"

	"github.com/certiko/backoffice/core/report"
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

// Metric is a single kpi bucket: a label with its count or amount.
type Metric struct {
	Nombre string  `json:"nombre"`
	Valor  float64 `json:"valor"`
}

// Certificate is a recently issued certificate for the dashboard feed.
type Certificate struct {
	Documento   string `json:"documento"`
	Nombre      string `json:"nombre,omitempty"`
	TipoEvento  string `json:"tipo_evento,omitempty"`
	FechaEvento string `json:"fecha_evento,omitempty"`
	Usuario     string `json:"usuario,omitempty"`
}

func (svc *Service) byUser(ctx context.Context, path, usuario string, out interface{}) error {
	return svc.api.Get(ctx, path, url.Values{"usuario": {usuario}}, out)
}

func (svc *Service) byCompany(ctx context.Context, path string, empresa int, out interface{}) error {
	return svc.api.Get(ctx, path, url.Values{"empresa": {strconv.Itoa(empresa)}}, out)
}

func (svc *Service) CertificatesTodayByUser(ctx context.Context, usuario string) ([]Metric, error) {
	var metrics []Metric
	err := svc.byUser(ctx, "/kpi/certificadosDiaUsuario", usuario, &metrics)
	return metrics, err
}

func (svc *Service) CertificatesTodayByCompany(ctx context.Context, empresa int) ([]Metric, error) {
	var metrics []Metric
	err := svc.byCompany(ctx, "/kpi/certificadosDiaEmpresa", empresa, &metrics)
	return metrics, err
}

func (svc *Service) TotalsByTypeTodayByUser(ctx context.Context, usuario string) ([]Metric, error) {
	var metrics []Metric
	err := svc.byUser(ctx, "/kpi/totalTipoDiaUsuario", usuario, &metrics)
	return metrics, err
}

func (svc *Service) TotalsByTypeTodayByCompany(ctx context.Context, empresa int) ([]Metric, error) {
	var metrics []Metric
	err := svc.byCompany(ctx, "/kpi/totalTipoDiaEmpresa", empresa, &metrics)
	return metrics, err
}

func (svc *Service) PaymentMethodsTodayByUser(ctx context.Context, usuario string) ([]Metric, error) {
	var metrics []Metric
	err := svc.byUser(ctx, "/kpi/mediosPagoDiaUsuario", usuario, &metrics)
	return metrics, err
}

func (svc *Service) PaymentMethodsTodayByCompany(ctx context.Context, empresa int) ([]Metric, error) {
	var metrics []Metric
	err := svc.byCompany(ctx, "/kpi/mediosPagoDiaEmpresa", empresa, &metrics)
	return metrics, err
}

func (svc *Service) WeeklyHistoryByUser(ctx context.Context, usuario string) ([]Metric, error) {
	var metrics []Metric
	err := svc.byUser(ctx, "/kpi/historicoSemanaUsuario", usuario, &metrics)
	return metrics, err
}

func (svc *Service) WeeklyHistoryByCompany(ctx context.Context, empresa int) ([]Metric, error) {
	var metrics []Metric
	err := svc.byCompany(ctx, "/kpi/historicoSemanaEmpresa", empresa, &metrics)
	return metrics, err
}

func (svc *Service) LatestCertificatesByUser(ctx context.Context, usuario string) ([]Certificate, error) {
	var certs []Certificate
	err := svc.byUser(ctx, "/kpi/ultimosCertificadosUsuario", usuario, &certs)
	return certs, err
}

func (svc *Service) LatestCertificatesByCompany(ctx context.Context, empresa int) ([]Certificate, error) {
	var certs []Certificate
	err := svc.byCompany(ctx, "/kpi/ultimosCertificadosEmpresa", empresa, &certs)
	return certs, err
}

// ActiveCompanies lists the tenants the dashboard can switch between.
func (svc *Service) ActiveCompanies(ctx context.Context) ([]report.Company, error) {
	var companies []report.Company
	err := svc.api.Get(ctx, "/empresa/activa", nil, &companies)
	return companies, err
}

// Options lists the event-type options for the company's kpi filters.
func (svc *Service) Options(ctx context.Context, empresa int) ([]report.ServiceType, error) {
	var options []report.ServiceType
	err := svc.byCompany(ctx, "/tipo_evento/opcion", empresa, &options)
	return options, err
}
