package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/certiko/backoffice/core"
	"github.com/certiko/backoffice/storage/state"
)

func newTestTokenManager(baseURL string, store state.Store) *TokenManager {
	return NewTokenManager(core.BackendConfig{
		BaseURL:      baseURL,
		ClientID:     "cid",
		ClientSecret: "secret",
	}, store, nil)
}

func TestTokenManager_Valid(t *testing.T) {
	now := time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)
	nowMs := now.UnixNano() / int64(time.Millisecond)

	tests := []struct {
		name      string
		token     string
		expiresAt string
		want      bool
	}{
		{name: "no token", want: false},
		{name: "no expiry", token: "tok", want: false},
		{name: "garbage expiry", token: "tok", expiresAt: "soon", want: false},
		{name: "expired", token: "tok", expiresAt: strconv.FormatInt(nowMs-1, 10), want: false},
		{name: "expires exactly now", token: "tok", expiresAt: strconv.FormatInt(nowMs, 10), want: false},
		{name: "expires later", token: "tok", expiresAt: strconv.FormatInt(nowMs+1, 10), want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := state.OpenMem()
			if tt.token != "" {
				_ = store.Set(state.KeyAccessToken, tt.token)
			}
			if tt.expiresAt != "" {
				_ = store.Set(state.KeyTokenExpiration, tt.expiresAt)
			}
			tm := newTestTokenManager("http://localhost", store)
			tm.now = func() time.Time { return now }

			if got := tm.Valid(); got != tt.want {
				t.Errorf("Valid() = %v; want %v", got, tt.want)
			}
		})
	}
}

func TestTokenManager_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != tokenPath {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("grant_type") != "client_credentials" ||
			r.PostForm.Get("client_id") != "cid" ||
			r.PostForm.Get("client_secret") != "secret" {
			http.Error(w, "bad grant", http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, `{"access_token": "tok-abc", "expires_in": 3600}`)
	}))
	defer srv.Close()

	store := state.OpenMem()
	tm := newTestTokenManager(srv.URL, store)
	now := time.Now()
	tm.now = func() time.Time { return now }

	if err := tm.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if got := tm.Read(); got != "tok-abc" {
		t.Errorf("Read() = %q; want %q", got, "tok-abc")
	}
	raw, err := store.Get(state.KeyTokenExpiration)
	if err != nil {
		t.Fatalf("expiry not persisted: %v", err)
	}
	wantExp := now.Add(time.Hour).UnixNano() / int64(time.Millisecond)
	if got, _ := strconv.ParseInt(raw, 10, 64); got != wantExp {
		t.Errorf("persisted expiry = %d; want %d", got, wantExp)
	}
	if !tm.Valid() {
		t.Error("Valid() = false right after a successful fetch")
	}
}

func TestTokenManager_FetchFailureKeepsPriorState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	store := state.OpenMem()
	_ = store.Set(state.KeyAccessToken, "old-token")
	_ = store.Set(state.KeyTokenExpiration, "12345")

	tm := newTestTokenManager(srv.URL, store)
	err := tm.Fetch(context.Background())
	if err == nil {
		t.Fatal("Fetch() error = nil; want auth error")
	}
	if !core.IsAuthError(err) {
		t.Errorf("Fetch() error = %v; want an AuthError", err)
	}
	if got := tm.Read(); got != "old-token" {
		t.Errorf("Read() = %q after failed fetch; want prior token untouched", got)
	}
}
