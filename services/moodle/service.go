// Package moodle is the client for the external course-catalog service.
// Calls are form-encoded function invocations against the Moodle web
// service endpoint; failures surface as core.IntegrationError and are
// retried independently of the primary API layer.
package moodle

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/certiko/backoffice/core"
)

const wsPath = "/webservice/rest/server.php"

// Config is the per-tenant connection delivered with a form schema.
type Config struct {
	BaseURL     string
	Token       string
	ServiceName string
}

type Service struct {
	conf Config
	log  core.Logger

	// the catalog is a slower third-party dependency; both clients
	// carry explicit timeouts
	httpClient   *http.Client // regular calls
	lookupClient *http.Client // per-course progress lookups
}

func NewService(conf Config, opts core.MoodleConfig, logger core.Logger) *Service {
	requestTimeout := opts.RequestTimeout
	if requestTimeout == 0 {
		requestTimeout = 15 * time.Second
	}
	lookupTimeout := opts.LookupTimeout
	if lookupTimeout == 0 {
		lookupTimeout = 10 * time.Second
	}
	return &Service{
		conf:         Config{BaseURL: strings.TrimSuffix(conf.BaseURL, "/"), Token: conf.Token, ServiceName: conf.ServiceName},
		log:          logger,
		httpClient:   &http.Client{Timeout: requestTimeout},
		lookupClient: &http.Client{Timeout: lookupTimeout},
	}
}

// call invokes a Moodle web service function and decodes the response
// into out when out is non-nil.
func (svc *Service) call(ctx context.Context, client *http.Client, fn string, params url.Values, out interface{}) error {
	form := url.Values{
		"wstoken":            {svc.conf.Token},
		"wsfunction":         {fn},
		"moodlewsrestformat": {"json"},
	}
	for key, vals := range params {
		form[key] = vals
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, svc.conf.BaseURL+wsPath, strings.NewReader(form.Encode()))
	if err != nil {
		return core.NewIntegrationError(fn, err.Error())
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return core.NewIntegrationError(fn, err.Error())
	}
	defer resp.Body.Close()

	data, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return core.NewIntegrationError(fn, err.Error())
	}
	if resp.StatusCode != http.StatusOK {
		return core.NewIntegrationError(fn, resp.Status)
	}
	if msg, ok := exceptionMessage(data); ok {
		return core.NewIntegrationError(fn, msg)
	}
	if trimmed := strings.TrimSpace(string(data)); out != nil && trimmed != "" && trimmed != "null" {
		if err := json.Unmarshal(data, out); err != nil {
			return errors.Wrapf(err, "decoding %s response", fn)
		}
	}
	return nil
}

// exceptionMessage detects Moodle's in-band error envelope. Successful
// responses may be arrays or null; errors are always objects carrying
// an "exception" field.
func exceptionMessage(data []byte) (string, bool) {
	trimmed := strings.TrimSpace(string(data))
	if !strings.HasPrefix(trimmed, "{") {
		return "", false
	}
	var envelope struct {
		Exception string `json:"exception"`
		ErrorCode string `json:"errorcode"`
		Message   string `json:"message"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil || envelope.Exception == "" {
		return "", false
	}
	if envelope.Message != "" {
		return envelope.Message, true
	}
	return envelope.ErrorCode, true
}
