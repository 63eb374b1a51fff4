package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/certiko/backoffice/core/session"
)

func TestLogin(t *testing.T) {
	backend := newTestBackend(t)
	backend.respondJSON(http.MethodPost, "/usuario/autenticar", map[string]interface{}{
		"autenticar": true,
		"usuario": session.User{
			Usuario:       "jperez",
			Nombre:        "Juan Perez",
			NombreEmpresa: "Acme",
			Rol:           "asesor",
			Estado:        true,
		},
	})
	app := newTestApp(t, backend)

	body := marchallObj(t, LoginRequest{Usuario: "jperez", Clave: "s3cret", Recordar: true})
	req, rec := newRequest(http.MethodPost, "/v1/usuarios/autenticar", body)
	app.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp LoginResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "jperez", resp.Usuario.Usuario)

	cookies := rec.Result().Cookies()
	var found bool
	for _, c := range cookies {
		if c.Name == sessionCookieName && c.Value == resp.Token {
			found = true
		}
	}
	assert.True(t, found, "session cookie must carry the gateway token")

	current, ok := app.sessions.Current()
	assert.True(t, ok)
	assert.Equal(t, "Acme", current.NombreEmpresa)
	assert.Equal(t, "jperez", app.sessions.RememberedUsername())
}

func TestLoginBadCredentials(t *testing.T) {
	backend := newTestBackend(t)
	backend.respondJSON(http.MethodPost, "/usuario/autenticar", map[string]interface{}{"autenticar": false})
	app := newTestApp(t, backend)

	body := marchallObj(t, LoginRequest{Usuario: "jperez", Clave: "wrong"})
	req, rec := newRequest(http.MethodPost, "/v1/usuarios/autenticar", body)
	app.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	_, ok := app.sessions.Current()
	assert.False(t, ok)
}

func TestLoginValidation(t *testing.T) {
	app := newTestApp(t, newTestBackend(t))

	body := marchallObj(t, LoginRequest{Usuario: "jperez"}) // missing clave
	req, rec := newRequest(http.MethodPost, "/v1/usuarios/autenticar", body)
	app.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var fields map[string]string
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fields))
	assert.Contains(t, fields, "clave")
}

func TestLogoutClearsSessionKeepsRememberedUser(t *testing.T) {
	app := newTestApp(t, newTestBackend(t))
	assert.NoError(t, app.sessions.Login(session.User{Usuario: "jperez"}))
	assert.NoError(t, app.sessions.RememberUsername("jperez"))

	req, rec := newRequest(http.MethodPost, "/v1/usuarios/salir")
	app.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, ok := app.sessions.Current()
	assert.False(t, ok)
	assert.Equal(t, "jperez", app.sessions.RememberedUsername())
}

func TestRememberedUsername(t *testing.T) {
	app := newTestApp(t, newTestBackend(t))
	assert.NoError(t, app.sessions.RememberUsername("1037612345"))

	tt := httpTest{
		method:   http.MethodGet,
		path:     "/v1/usuarios/recordado",
		wantCode: http.StatusOK,
		wantData: []byte(`{"usuario":"1037612345"}`),
	}
	req, rec := newRequest(tt.method, tt.path)
	app.server.ServeHTTP(rec, req)
	checkCodeAndData(t, tt, rec)
}
