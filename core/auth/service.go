// Package auth authenticates operators against the upstream user API
// and owns the resulting session.
package auth

import (
	"context"
	"net/url"

	"github.com/pkg/errors"

	"github.com/certiko/backoffice/core"
	"github.com/certiko/backoffice/core/session"
)

var (
	ErrBadCredentials = errors.New("usuario y/o contrasena invalida")
	ErrInactiveUser   = errors.New("el usuario se encuentra inactivo")
)

type apiClient interface {
	Get(ctx context.Context, path string, query url.Values, out interface{}) error
	Post(ctx context.Context, path string, body, out interface{}) error
	Put(ctx context.Context, path string, body, out interface{}) error
}

type Service struct {
	api      apiClient
	sessions *session.Manager
}

func NewService(api apiClient, sessions *session.Manager) *Service {
	return &Service{api: api, sessions: sessions}
}

type loginResponse struct {
	Autenticar bool         `json:"autenticar"`
	Usuario    session.User `json:"usuario"`
}

// StatusResponse is the upstream's generic operation outcome. Codigo 0
// means success; Detalle carries the user-facing explanation.
type StatusResponse struct {
	Codigo  int    `json:"codigo"`
	Mensaje string `json:"mensaje"`
	Detalle string `json:"detalle"`
}

// Authenticate verifies the credentials upstream and, when the account
// is valid and active, logs the profile into the session. The remember
// flag controls whether the username is kept for the next login form.
func (svc *Service) Authenticate(ctx context.Context, usuario, clave string, remember bool) (session.User, error) {
	usuario = core.CleanString(usuario)

	var resp loginResponse
	body := map[string]string{"usuario": usuario, "clave": clave}
	if err := svc.api.Post(ctx, "/usuario/autenticar", body, &resp); err != nil {
		return session.User{}, err
	}
	if !resp.Autenticar {
		return session.User{}, ErrBadCredentials
	}
	if !resp.Usuario.Estado {
		return session.User{}, ErrInactiveUser
	}
	if err := svc.sessions.Login(resp.Usuario); err != nil {
		return session.User{}, err
	}
	remembered := ""
	if remember {
		remembered = usuario
	}
	if err := svc.sessions.RememberUsername(remembered); err != nil {
		return session.User{}, err
	}
	return resp.Usuario, nil
}

// ForgotPassword starts the password recovery flow for the account.
func (svc *Service) ForgotPassword(ctx context.Context, usuario, correo string) (StatusResponse, error) {
	var resp StatusResponse
	body := map[string]string{"usuario": usuario, "correo": correo}
	err := svc.api.Post(ctx, "/usuario/olvido", body, &resp)
	return resp, err
}

// RestorePassword redeems a recovery token for a new password.
func (svc *Service) RestorePassword(ctx context.Context, token, clave string) (StatusResponse, error) {
	var resp StatusResponse
	body := map[string]string{"token": token, "clave": clave}
	err := svc.api.Post(ctx, "/usuario/restaurar", body, &resp)
	return resp, err
}

// Logout destroys the session. The remembered username survives.
func (svc *Service) Logout() error {
	return svc.sessions.Logout()
}

// RememberedUsername pre-fills the login form.
func (svc *Service) RememberedUsername() string {
	return svc.sessions.RememberedUsername()
}
