package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific form or struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

func AsValidationError(err error) (*ValidationError, bool) {
	verr, ok := errors.Cause(err).(*ValidationError)
	return verr, ok
}

// TransportError is a network-level failure (timeout, DNS, refused connection)
// while reaching the business API. It is never retried by the API layer.
type TransportError struct {
	Err error
}

func (e TransportError) Error() string { return "transport: " + e.Err.Error() }
func (e TransportError) Unwrap() error { return e.Err }

func NewTransportError(err error) error {
	return &TransportError{Err: err}
}

func IsTransportError(err error) bool {
	_, ok := errors.Cause(err).(*TransportError)
	return ok
}

// AuthError indicates the token was rejected even after a refresh attempt,
// or that the token endpoint itself failed.
type AuthError struct {
	Err error
}

func (e AuthError) Error() string {
	if e.Err == nil {
		return "authentication failed"
	}
	return "auth: " + e.Err.Error()
}

func (e AuthError) Unwrap() error { return e.Err }

func NewAuthError(err error) error {
	return &AuthError{Err: err}
}

func IsAuthError(err error) bool {
	_, ok := errors.Cause(err).(*AuthError)
	return ok
}

// APIError is a non-401, non-2xx response from the business API.
// It carries the status code and raw body verbatim.
type APIError struct {
	Status int
	Body   []byte
}

func (e APIError) Error() string {
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Body)
}

func NewAPIError(status int, body []byte) error {
	return &APIError{Status: status, Body: body}
}

func AsAPIError(err error) (*APIError, bool) {
	apiErr, ok := errors.Cause(err).(*APIError)
	return apiErr, ok
}

// IntegrationError is a failure reported by the external course-catalog
// service; it is retried independently of the API layer.
type IntegrationError struct {
	Function string
	Message  string
}

func (e IntegrationError) Error() string {
	if e.Function == "" {
		return "integration: " + e.Message
	}
	return "integration: " + e.Function + ": " + e.Message
}

func NewIntegrationError(function, message string) error {
	return &IntegrationError{Function: function, Message: message}
}

func IsIntegrationError(err error) bool {
	_, ok := errors.Cause(err).(*IntegrationError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
