package echoapi

import (
	"bytes"
	"encoding/json"
	stdlog "log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/certiko/backoffice/core"
	"github.com/certiko/backoffice/core/auth"
	"github.com/certiko/backoffice/core/certificate"
	"github.com/certiko/backoffice/core/company"
	"github.com/certiko/backoffice/core/form"
	"github.com/certiko/backoffice/core/report"
	"github.com/certiko/backoffice/core/session"
	"github.com/certiko/backoffice/core/stats"
	backendsvc "github.com/certiko/backoffice/services/backend"
	emailsvc "github.com/certiko/backoffice/services/email"
	logsvc "github.com/certiko/backoffice/services/logger"
	"github.com/certiko/backoffice/services/moodle"
	"github.com/certiko/backoffice/storage/state"
)

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

// testBackend fakes the upstream business API, including the oauth
// token endpoint; handlers are registered per "METHOD /path".
type testBackend struct {
	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	server   *httptest.Server
}

func newTestBackend(t *testing.T) *testBackend {
	t.Helper()
	backend := &testBackend{handlers: make(map[string]http.HandlerFunc)}
	backend.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/oauth2/token" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"test-token","token_type":"Bearer","expires_in":3600}`))
			return
		}
		backend.mu.Lock()
		handler := backend.handlers[r.Method+" "+r.URL.Path]
		backend.mu.Unlock()
		if handler == nil {
			t.Errorf("unexpected backend call: %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
			return
		}
		handler(w, r)
	}))
	t.Cleanup(backend.server.Close)
	return backend
}

func (b *testBackend) handle(method, path string, handler http.HandlerFunc) {
	b.mu.Lock()
	b.handlers[method+" "+path] = handler
	b.mu.Unlock()
}

func (b *testBackend) respondJSON(method, path string, v interface{}) {
	b.handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	})
}

type testApp struct {
	server   Server
	sessions *session.Manager
	store    state.Store
	backend  *testBackend
}

func newTestApp(t *testing.T, backend *testBackend) *testApp {
	t.Helper()

	// error responses must use the production shape, not debug echoes
	core.Conf.Debug = false
	core.Conf.TestMode = true

	store := state.OpenMem()
	sessions := session.NewManager(store)
	conf := core.BackendConfig{
		BaseURL:      backend.server.URL,
		ClientID:     "test-client",
		ClientSecret: "test-secret",
	}
	tokens := backendsvc.NewTokenManager(conf, store, http.DefaultClient)
	client := backendsvc.NewClient(conf, tokens, sessions, http.DefaultClient)

	logger := logsvc.NewStdLogger(stdlog.New(testWriter{t}, "", 0))

	opts := &Options{
		DisableReqLogs: true,
		Logger:         logger,
		Sessions:       sessions,
		AuthSvc:        auth.NewService(client, sessions),
		CertSvc:        certificate.NewService(client),
		ReportSvc:      report.NewService(client),
		CompanySvc:     company.NewService(client),
		StatsSvc:       stats.NewService(client),
		EmailSvc:       emailsvc.NewConsoleServiceMock(),
		NewMoodleService: func(settings form.MoodleSettings) *moodle.Service {
			return moodle.NewService(moodle.Config{
				BaseURL: settings.BaseURL,
				Token:   settings.Token,
			}, core.Conf.Moodle, logger)
		},
	}
	return &testApp{
		server:   NewServer(opts),
		sessions: sessions,
		store:    store,
		backend:  backend,
	}
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr session.User) string {
	token, err := GenerateToken(GetSessionClaims(usr))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	return assert.ObjectsAreEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
