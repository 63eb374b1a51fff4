// Package backend is the REST client for the upstream business API.
// Every call carries a bearer token and the audit headers identifying
// the acting user and tenant; an expired token is refreshed and the
// call retried exactly once.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/certiko/backoffice/core"
	"github.com/certiko/backoffice/core/session"
)

// audit headers expected by the backend's server-side logging
const (
	headerAuditUser    = "usuario"
	headerAuditCompany = "nombre_empresa"
	headerRequestID    = "X-Request-ID"
)

var errTokenRejected = errors.New("token rejected after refresh")

type Client struct {
	baseURL    string
	tokens     *TokenManager
	session    *session.Manager
	httpClient *http.Client
}

func NewClient(conf core.BackendConfig, tokens *TokenManager, sess *session.Manager, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimSuffix(conf.BaseURL, "/"),
		tokens:     tokens,
		session:    sess,
		httpClient: httpClient,
	}
}

// Get issues a GET with parameters encoded as a query string,
// decoding the JSON response into out when out is non-nil.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.request(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.request(ctx, http.MethodPost, path, nil, body, out)
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out interface{}) error {
	return c.request(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) request(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	if !c.tokens.Valid() {
		if err := c.tokens.Fetch(ctx); err != nil {
			return err
		}
	}

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return errors.Wrap(err, "encoding request body")
		}
	}

	status, data, err := c.do(ctx, method, path, query, payload)
	if err != nil {
		return err
	}

	// one refresh + one retry; a second 401 propagates as an auth error
	if status == http.StatusUnauthorized {
		if err := c.tokens.Fetch(ctx); err != nil {
			return err
		}
		if status, data, err = c.do(ctx, method, path, query, payload); err != nil {
			return err
		}
		if status == http.StatusUnauthorized {
			return core.NewAuthError(errTokenRejected)
		}
	}

	if status < 200 || status > 299 {
		return core.NewAPIError(status, data)
	}
	if out != nil && len(data) > 0 {
		return errors.Wrap(json.Unmarshal(data, out), "decoding response")
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload []byte) (int, []byte, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var body *bytes.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	} else {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return 0, nil, errors.Wrap(err, "creating request")
	}
	c.setHeaders(req, payload != nil)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// network-level failures propagate immediately, never retried
		return 0, nil, core.NewTransportError(err)
	}
	defer resp.Body.Close()

	data, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, core.NewTransportError(err)
	}
	return resp.StatusCode, data, nil
}

func (c *Client) setHeaders(req *http.Request, hasBody bool) {
	req.Header.Set("Authorization", "Bearer "+c.tokens.Read())
	usuario, nombreEmpresa := c.session.Audit()
	req.Header.Set(headerAuditUser, usuario)
	req.Header.Set(headerAuditCompany, nombreEmpresa)
	req.Header.Set(headerRequestID, uuid.New().String())
	req.Header.Set("Accept", "application/json")
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
}
