package github

import (
	"errors"
	"fmt"
	"net/http"
)

// Upstream failure classes. Every error returned by Client unwraps to exactly
// one of ErrNotFound, ErrUnauthorized, ErrUnavailable or ErrStatsPending.
var (
	ErrNotFound     = errors.New("upstream resource not found")
	ErrUnauthorized = errors.New("upstream rejected credential")
	ErrUnavailable  = errors.New("upstream unavailable")

	// ErrStatsPending means GitHub accepted a statistics request but is still
	// computing the result (HTTP 202).
	ErrStatsPending = errors.New("upstream statistics are being computed")

	// ErrMalformedResponse is wrapped together with ErrUnavailable when a body
	// does not decode into the expected record shape.
	ErrMalformedResponse = errors.New("malformed upstream response")
)

// Error describes a failed GitHub API call.
type Error struct {
	Kind       error
	StatusCode int
	Method     string
	Path       string
	Message    string
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("github %s %s", e.Method, e.Path)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the classification sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// classifyStatus maps a non-2xx (or 202) response to a failure class.
// A 403 with an exhausted rate-limit budget is an availability problem, not a
// credential problem.
func classifyStatus(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusAccepted:
		return ErrStatsPending
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		if resp.Header.Get("X-RateLimit-Remaining") == "0" {
			return ErrUnavailable
		}
		return ErrUnauthorized
	default:
		return ErrUnavailable
	}
}
