package backend

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/certiko/backoffice/core"
	"github.com/certiko/backoffice/storage/state"
)

const tokenPath = "/oauth2/token"

// TokenManager exchanges the fixed client credentials for access tokens
// and keeps the current token and its expiry in the persisted client
// state. Concurrent fetches may race; the last write wins, which is
// acceptable because the credential grant is idempotent.
type TokenManager struct {
	baseURL      string
	clientID     string
	clientSecret string
	store        state.Store
	httpClient   *http.Client

	now func() time.Time // mockable
}

func NewTokenManager(conf core.BackendConfig, store state.Store, httpClient *http.Client) *TokenManager {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &TokenManager{
		baseURL:      strings.TrimSuffix(conf.BaseURL, "/"),
		clientID:     conf.ClientID,
		clientSecret: conf.ClientSecret,
		store:        store,
		httpClient:   httpClient,
		now:          time.Now,
	}
}

// Valid reports whether a token and expiry exist and the current time
// is strictly before the expiry.
func (tm *TokenManager) Valid() bool {
	if tok, err := tm.store.Get(state.KeyAccessToken); err != nil || tok == "" {
		return false
	}
	raw, err := tm.store.Get(state.KeyTokenExpiration)
	if err != nil {
		return false
	}
	expiresAt, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false
	}
	return tm.now().UnixNano()/int64(time.Millisecond) < expiresAt
}

// Read returns the persisted token value without checking validity.
func (tm *TokenManager) Read() string {
	tok, err := tm.store.Get(state.KeyAccessToken)
	if err != nil {
		return ""
	}
	return tok
}

// Fetch exchanges the client credentials for a new token and persists
// it with its computed expiry. On any transport or non-2xx failure the
// previously stored token is left untouched.
func (tm *TokenManager) Fetch(ctx context.Context) error {
	body := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {tm.clientID},
		"client_secret": {tm.clientSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tm.baseURL+tokenPath, strings.NewReader(body.Encode()))
	if err != nil {
		return core.NewAuthError(errors.Wrap(err, "creating token request"))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := tm.httpClient.Do(req)
	if err != nil {
		return core.NewAuthError(errors.Wrap(err, "requesting token"))
	}
	defer resp.Body.Close()

	data, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return core.NewAuthError(errors.Wrap(err, "reading token response"))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return core.NewAuthError(errors.Errorf("token endpoint status %d: %s", resp.StatusCode, data))
	}

	var grant struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"` // seconds
	}
	if err := json.Unmarshal(data, &grant); err != nil {
		return core.NewAuthError(errors.Wrap(err, "decoding token response"))
	}

	expiresAt := tm.now().Add(time.Duration(grant.ExpiresIn)*time.Second).UnixNano() / int64(time.Millisecond)
	if err := tm.store.Set(state.KeyAccessToken, grant.AccessToken); err != nil {
		return errors.Wrap(err, "persisting token")
	}
	return errors.Wrap(
		tm.store.Set(state.KeyTokenExpiration, strconv.FormatInt(expiresAt, 10)),
		"persisting token expiry",
	)
}

// Clear removes the persisted token and expiry.
func (tm *TokenManager) Clear() {
	_ = tm.store.Delete(state.KeyAccessToken)
	_ = tm.store.Delete(state.KeyTokenExpiration)
}
