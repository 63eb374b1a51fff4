package echoapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/certiko/backoffice/core/form"
	"github.com/certiko/backoffice/core/session"
)

func operatorToken(t *testing.T) string {
	return getToken(t, session.User{Usuario: "jperez", NombreEmpresa: "Acme", Rol: "asesor"})
}

// fakeMoodle serves the catalog course listing for every wsfunction.
func fakeMoodle(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/webservice/rest/server.php" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCertificateAPIRequiresToken(t *testing.T) {
	app := newTestApp(t, newTestBackend(t))

	req, rec := newRequest(http.MethodGet, "/v1/certificado/carnet?documento=123&empresa=4")
	app.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetConfigInjectsCourseField(t *testing.T) {
	future := time.Now().Add(24 * time.Hour).Unix()
	moodleSrv := fakeMoodle(t, `[`+
		`{"id":1,"fullname":"Sitio","visible":1},`+
		`{"id":7,"fullname":"Alturas","visible":1,"enddate":`+jsonInt(future)+`}`+
		`]`)

	backend := newTestBackend(t)
	backend.respondJSON(http.MethodGet, "/tipo_evento/configuracion", map[string]interface{}{
		"title":                   "Certificado de alturas",
		"context":                 "certificado",
		"enableMoodleIntegration": true,
		"moodle":                  map[string]string{"baseUrl": moodleSrv.URL, "token": "ws-token"},
		"fields": []map[string]interface{}{
			{"id": "documento", "type": "input", "label": "Documento", "validation": "numeric", "required": true},
		},
	})
	app := newTestApp(t, backend)

	req, rec := newAuthRequest(http.MethodGet, "/v1/certificado/configuracion?secuencia=9&empresa=4", operatorToken(t))
	app.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ConfigResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.CursosError)

	fld := resp.Schema.Field(form.CourseFieldID)
	if assert.NotNil(t, fld, "course dropdown must be injected") {
		assert.Equal(t, form.KindDropdown, fld.Kind)
		assert.Equal(t, "moodle", fld.Group)
		assert.True(t, fld.Required)
		if assert.Len(t, fld.Options, 1, "site course must be excluded") {
			assert.Equal(t, "7", fld.Options[0].Code)
		}
	}
}

func TestGetConfigRetriesMoodleConfigFetch(t *testing.T) {
	future := time.Now().Add(24 * time.Hour).Unix()
	moodleSrv := fakeMoodle(t, `[{"id":7,"fullname":"Alturas","visible":1,"enddate":`+jsonInt(future)+`}]`)

	backend := newTestBackend(t)
	backend.respondJSON(http.MethodGet, "/tipo_evento/configuracion", map[string]interface{}{
		"title":                   "Certificado de alturas",
		"context":                 "certificado",
		"enableMoodleIntegration": true,
		"fields":                  []map[string]interface{}{},
	})
	configDown := true
	backend.handle(http.MethodGet, "/moodle/configuracion", func(w http.ResponseWriter, r *http.Request) {
		if configDown {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"detalle":"configuracion no disponible"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"baseUrl":"` + moodleSrv.URL + `","token":"ws-token"}`))
	})
	app := newTestApp(t, backend)

	req, rec := newAuthRequest(http.MethodGet, "/v1/certificado/configuracion?secuencia=9&empresa=4", operatorToken(t))
	app.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, "a degraded catalog still renders the form")
	var resp ConfigResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.CursosError)

	// once the configuration endpoint recovers the next load must reach
	// the catalog instead of reusing a loader built from empty settings
	configDown = false
	req, rec = newAuthRequest(http.MethodGet, "/v1/certificado/configuracion?secuencia=9&empresa=4", operatorToken(t))
	app.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp = ConfigResponse{}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.CursosError)
	fld := resp.Schema.Field(form.CourseFieldID)
	if assert.NotNil(t, fld) {
		if assert.Len(t, fld.Options, 1) {
			assert.Equal(t, "7", fld.Options[0].Code)
		}
	}
}

func jsonInt(n int64) string {
	data, _ := json.Marshal(n)
	return string(data)
}

func TestSubmitTransformsAndGenerates(t *testing.T) {
	backend := newTestBackend(t)
	backend.respondJSON(http.MethodGet, "/tipo_evento/configuracion", map[string]interface{}{
		"title":   "Certificado",
		"context": "certificado",
		"fields": []map[string]interface{}{
			{"id": "documento", "type": "input", "validation": "numeric", "required": true, "group": "cliente", "concat": true},
			{"id": "tipo", "type": "dropdown", "required": true, "group": "evento",
				"options": []map[string]string{{"name": "Alturas", "code": "ALT"}}},
			{"id": "fecha", "type": "calendar", "required": true, "group": "evento", "concat": true},
		},
	})

	var generated map[string]map[string]string
	backend.handle(http.MethodPost, "/reporte", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&generated)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"reporte":"ok"}`))
	})
	app := newTestApp(t, backend)

	body := []byte(`{
		"secuencia": 9,
		"campos": {
			"documento": "123",
			"tipo": {"name": "Alturas", "code": "ALT"},
			"fecha": "2024-05-01"
		}
	}`)
	req, rec := newAuthRequest(http.MethodPost, "/v1/certificado/emitir", operatorToken(t), body)
	app.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp SubmitResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "123_2024-05-01", resp.Clave)
	assert.Equal(t, "ALT", resp.Payload["evento"]["tipo"])
	assert.Equal(t, "123", resp.Payload["cliente"]["documento"])

	// upstream received the grouped payload
	assert.Equal(t, "ALT", generated["evento"]["tipo"])
}

func TestSubmitRejectsInvalidForm(t *testing.T) {
	backend := newTestBackend(t)
	backend.respondJSON(http.MethodGet, "/tipo_evento/configuracion", map[string]interface{}{
		"title":   "Certificado",
		"context": "certificado",
		"fields": []map[string]interface{}{
			{"id": "documento", "type": "input", "validation": "numeric", "required": true, "group": "cliente"},
		},
	})
	app := newTestApp(t, backend)

	body := []byte(`{"secuencia": 9, "campos": {}}`)
	req, rec := newAuthRequest(http.MethodPost, "/v1/certificado/emitir", operatorToken(t), body)
	app.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var fields map[string]string
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fields))
	assert.Contains(t, fields, "documento")
}

func TestUpstreamErrorPassesThrough(t *testing.T) {
	backend := newTestBackend(t)
	backend.handle(http.MethodGet, "/carnet/cliente", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detalle":"documento desconocido"}`))
	})
	app := newTestApp(t, backend)

	req, rec := newAuthRequest(http.MethodGet, "/v1/certificado/carnet?documento=123&empresa=4", operatorToken(t))
	app.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "documento desconocido")
}
