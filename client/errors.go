package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/eleave/leave-engine/quota"
)

// NetworkError is a request that got no HTTP response.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return "network: " + e.Err.Error() }
func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError is a non-2xx response. Code and Message come from the error
// envelope when the server sent one.
type HTTPError struct {
	Status  int
	Code    string
	Message string
}

func (e *HTTPError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("http %d", e.Status)
	}
	return fmt.Sprintf("http %d %s: %s", e.Status, e.Code, e.Message)
}

// Retryable reports whether the request may succeed when repeated.
func (e *HTTPError) Retryable() bool { return e.Status >= 500 && e.Status < 600 }

func newHTTPError(status int, body []byte) *HTTPError {
	he := &HTTPError{Status: status}
	var env struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &env) == nil {
		he.Code, he.Message = env.Error.Code, env.Error.Message
	}
	return he
}

// ErrorType classifies err with the error types of quota.Degraded.
func ErrorType(err error) string {
	var he *HTTPError
	if errors.As(err, &he) {
		switch {
		case he.Status == http.StatusUnauthorized:
			return quota.ErrorTypeUnauthorized
		case he.Status == http.StatusForbidden:
			return quota.ErrorTypeForbidden
		case he.Status == http.StatusNotFound:
			return quota.ErrorTypeNotFound
		case he.Status == http.StatusServiceUnavailable && he.Code == quota.ErrorTypeDataUnavailable:
			return quota.ErrorTypeDataUnavailable
		case he.Status >= 500:
			return quota.ErrorTypeServer
		}
		return quota.ErrorTypeUnknown
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return quota.ErrorTypeNetwork
	}
	return quota.ErrorTypeUnknown
}

// asServerValidation converts a 400 with an error code into the
// corresponding validation error.
func asServerValidation(err error) (*quota.ValidationError, bool) {
	var he *HTTPError
	if !errors.As(err, &he) || he.Status != http.StatusBadRequest || he.Code == "" {
		return nil, false
	}
	return &quota.ValidationError{Code: he.Code, Message: he.Message}, true
}
