// Package company administers tenants, their managers (responsables)
// and their operator accounts.
package company

import (
	"context"
	"net/url"
	"strconv"
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

type Company struct {
	Secuencia int    `json:"secuencia,omitempty"`
	Nombre    string `json:"nombre"`
	Estado    string `json:"estado,omitempty"`
}

type Manager struct {
	Secuencia int    `json:"secuencia,omitempty"`
	Documento string `json:"documento"`
	Nombre    string `json:"nombre,omitempty"`
	Correo    string `json:"correo,omitempty"`
	Telefono  string `json:"telefono,omitempty"`
	Empresa   int    `json:"empresa,omitempty"`
	Estado    string `json:"estado,omitempty"`
}

type User struct {
	Usuario string `json:"usuario"`
	Nombre  string `json:"nombre,omitempty"`
	Correo  string `json:"correo,omitempty"`
	Clave   string `json:"clave,omitempty"`
	Rol     string `json:"rol,omitempty"`
	Empresa int    `json:"empresa,omitempty"`
	Estado  string `json:"estado,omitempty"`
}

type Role struct {
	Secuencia int    `json:"secuencia"`
	Nombre    string `json:"nombre"`
}

// Companies lists every tenant regardless of state.
func (svc *Service) Companies(ctx context.Context) ([]Company, error) {
	var companies []Company
	err := svc.api.Get(ctx, "/empresa", nil, &companies)
	return companies, err
}

// ActiveCompanies lists only the tenants currently enabled.
func (svc *Service) ActiveCompanies(ctx context.Context) ([]Company, error) {
	var companies []Company
	err := svc.api.Get(ctx, "/empresa/activa", nil, &companies)
	return companies, err
}

func (svc *Service) CreateCompany(ctx context.Context, c Company) error {
	return svc.api.Post(ctx, "/empresa", c, nil)
}

// ToggleCompany flips the tenant's enabled state.
func (svc *Service) ToggleCompany(ctx context.Context, c Company) error {
	return svc.api.Put(ctx, "/empresa/estado", c, nil)
}

func (svc *Service) RenameCompany(ctx context.Context, c Company) error {
	return svc.api.Put(ctx, "/empresa/nombre", c, nil)
}

// Managers lists responsables, company-wide when empresa is zero.
func (svc *Service) Managers(ctx context.Context, empresa int) ([]Manager, error) {
	var query url.Values
	if empresa != 0 {
		query = url.Values{"empresa": {strconv.Itoa(empresa)}}
	}
	var managers []Manager
	err := svc.api.Get(ctx, "/responsable", query, &managers)
	return managers, err
}

// UnassignedManagers lists responsables not yet attached to the
// company.
func (svc *Service) UnassignedManagers(ctx context.Context, empresa int) ([]Manager, error) {
	query := url.Values{"empresa": {strconv.Itoa(empresa)}}
	var managers []Manager
	err := svc.api.Get(ctx, "/responsable/sinAsignar", query, &managers)
	return managers, err
}

func (svc *Service) CreateManager(ctx context.Context, m Manager) error {
	return svc.api.Post(ctx, "/responsable", m, nil)
}

func (svc *Service) UpdateManager(ctx context.Context, m Manager) error {
	return svc.api.Put(ctx, "/responsable", m, nil)
}

func (svc *Service) ToggleManager(ctx context.Context, m Manager) error {
	return svc.api.Put(ctx, "/responsable/estado", m, nil)
}

// Users lists operator accounts, company-wide when empresa is zero.
func (svc *Service) Users(ctx context.Context, empresa int) ([]User, error) {
	var query url.Values
	if empresa != 0 {
		query = url.Values{"empresa": {strconv.Itoa(empresa)}}
	}
	var users []User
	err := svc.api.Get(ctx, "/usuario", query, &users)
	return users, err
}

func (svc *Service) CreateUser(ctx context.Context, u User) error {
	return svc.api.Post(ctx, "/usuario", u, nil)
}

func (svc *Service) UpdateUser(ctx context.Context, u User) error {
	return svc.api.Put(ctx, "/usuario", u, nil)
}

// ChangeUserPassword resets an operator's credential.
func (svc *Service) ChangeUserPassword(ctx context.Context, u User) error {
	return svc.api.Put(ctx, "/usuario/clave", u, nil)
}

// Roles lists the assignable roles; admin widens the listing to the
// administrative ones.
func (svc *Service) Roles(ctx context.Context, admin bool) ([]Role, error) {
	query := url.Values{"admin": {strconv.FormatBool(admin)}}
	var roles []Role
	err := svc.api.Get(ctx, "/rol", query, &roles)
	return roles, err
}
