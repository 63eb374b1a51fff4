package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/certiko/backoffice/core/session"
)

func TestRouteGuardRedirectsAnonymousNavigation(t *testing.T) {
	app := newTestApp(t, newTestBackend(t))

	tests := []struct {
		name     string
		path     string
		wantCode int
		wantLoc  string
	}{
		{"administrar", "/administrar", http.StatusFound, loginPath},
		{"certificado subpage", "/certificado/consultar", http.StatusFound, loginPath},
		{"inicio", "/inicio", http.StatusFound, loginPath},
		{"reporte", "/reporte", http.StatusFound, loginPath},
		{"login page passes", "/autenticar", http.StatusOK, ""},
		{"home passes", "/", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodGet, tt.path)
			app.server.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantLoc != "" {
				assert.Equal(t, tt.wantLoc, rec.Header().Get(echoLocationHeader))
			}
		})
	}
}

const echoLocationHeader = "Location"

func TestRouteGuardAllowsAuthenticatedNavigation(t *testing.T) {
	app := newTestApp(t, newTestBackend(t))
	token := getToken(t, session.User{Usuario: "jperez", NombreEmpresa: "Acme", Rol: "asesor"})

	req, rec := newRequest(http.MethodGet, "/certificado")
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: token})
	app.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouteGuardRejectsTamperedCookie(t *testing.T) {
	app := newTestApp(t, newTestBackend(t))

	req, rec := newRequest(http.MethodGet, "/inicio")
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "not-a-jwt"})
	app.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, loginPath, rec.Header().Get(echoLocationHeader))
}
