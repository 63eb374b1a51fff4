package auth

import (
	"context"
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/certiko/backoffice/core/session"
	"github.com/certiko/backoffice/storage/state"
)

type fakeAPI struct {
	lastPath string
	lastBody interface{}
	respond  func(out interface{}) error
	err      error
}

func (f *fakeAPI) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	f.lastPath = path
	if f.err != nil {
		return f.err
	}
	return f.respond(out)
}

func (f *fakeAPI) Post(ctx context.Context, path string, body, out interface{}) error {
	f.lastPath = path
	f.lastBody = body
	if f.err != nil {
		return f.err
	}
	return f.respond(out)
}

func (f *fakeAPI) Put(ctx context.Context, path string, body, out interface{}) error {
	return f.Post(ctx, path, body, out)
}

func respondJSON(t *testing.T, v interface{}) func(out interface{}) error {
	t.Helper()
	return func(out interface{}) error {
		if out == nil {
			return nil
		}
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("encoding fake response: %v", err)
		}
		return json.Unmarshal(data, out)
	}
}

func TestAuthenticateLogsInAndRemembers(t *testing.T) {
	api := &fakeAPI{respond: respondJSON(t, loginResponse{
		Autenticar: true,
		Usuario:    session.User{Usuario: "jperez", NombreEmpresa: "Acme", Estado: true},
	})}
	sessions := session.NewManager(state.OpenMem())
	svc := NewService(api, sessions)

	usr, err := svc.Authenticate(context.Background(), "jperez", "s3cret", true)
	assert.NoError(t, err)
	assert.Equal(t, "jperez", usr.Usuario)
	assert.Equal(t, "/usuario/autenticar", api.lastPath)

	current, ok := sessions.Current()
	assert.True(t, ok)
	assert.Equal(t, "Acme", current.NombreEmpresa)
	assert.Equal(t, "jperez", svc.RememberedUsername())
}

func TestAuthenticateTrimsUsername(t *testing.T) {
	api := &fakeAPI{respond: respondJSON(t, loginResponse{
		Autenticar: true,
		Usuario:    session.User{Usuario: "jperez", Estado: true},
	})}
	sessions := session.NewManager(state.OpenMem())
	svc := NewService(api, sessions)

	_, err := svc.Authenticate(context.Background(), "  jperez\t", "s3cret", true)
	assert.NoError(t, err)

	body, ok := api.lastBody.(map[string]string)
	if assert.True(t, ok) {
		assert.Equal(t, "jperez", body["usuario"])
	}
	assert.Equal(t, "jperez", svc.RememberedUsername())
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	api := &fakeAPI{respond: respondJSON(t, loginResponse{Autenticar: false})}
	sessions := session.NewManager(state.OpenMem())
	svc := NewService(api, sessions)

	_, err := svc.Authenticate(context.Background(), "jperez", "wrong", false)
	assert.Equal(t, ErrBadCredentials, err)
	_, ok := sessions.Current()
	assert.False(t, ok, "no session may be created")
}

func TestAuthenticateRejectsInactiveUser(t *testing.T) {
	api := &fakeAPI{respond: respondJSON(t, loginResponse{
		Autenticar: true,
		Usuario:    session.User{Usuario: "jperez", Estado: false},
	})}
	sessions := session.NewManager(state.OpenMem())
	svc := NewService(api, sessions)

	_, err := svc.Authenticate(context.Background(), "jperez", "s3cret", false)
	assert.Equal(t, ErrInactiveUser, err)
	_, ok := sessions.Current()
	assert.False(t, ok)
}

func TestAuthenticateWithoutRememberClearsStoredUsername(t *testing.T) {
	sessions := session.NewManager(state.OpenMem())
	assert.NoError(t, sessions.RememberUsername("old-user"))

	api := &fakeAPI{respond: respondJSON(t, loginResponse{
		Autenticar: true,
		Usuario:    session.User{Usuario: "jperez", Estado: true},
	})}
	svc := NewService(api, sessions)

	_, err := svc.Authenticate(context.Background(), "jperez", "s3cret", false)
	assert.NoError(t, err)
	assert.Empty(t, svc.RememberedUsername())
}

func TestLogoutKeepsRememberedUsername(t *testing.T) {
	sessions := session.NewManager(state.OpenMem())
	svc := NewService(&fakeAPI{}, sessions)

	assert.NoError(t, sessions.Login(session.User{Usuario: "jperez"}))
	assert.NoError(t, sessions.RememberUsername("jperez"))

	assert.NoError(t, svc.Logout())
	_, ok := sessions.Current()
	assert.False(t, ok)
	assert.Equal(t, "jperez", svc.RememberedUsername())
}
