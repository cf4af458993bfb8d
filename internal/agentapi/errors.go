package agentapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// DefaultErrorMessage is shown when a failure carries no usable text.
const DefaultErrorMessage = "An error occurred"

// ErrorKind classifies a client failure for display and metrics.
type ErrorKind string

const (
	KindNetwork  ErrorKind = "network_error" // connection refused, DNS, reset
	KindTimeout  ErrorKind = "timeout"       // client timeout or context deadline
	KindCanceled ErrorKind = "canceled"      // caller cancelled the context
	KindBackend  ErrorKind = "backend_error" // non-2xx or undecodable body
	KindUnknown  ErrorKind = "unknown"
)

// NetworkError means the call did not complete: the request never got a
// response within the timeout, or the connection failed.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *NetworkError) Unwrap() error { return e.Err }

// Timeout reports whether the call ran out of time.
func (e *NetworkError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(e.Err, &te) && te.Timeout()
}

// BackendError is a response with a non-success status, or a success
// status whose body could not be decoded. Detail holds the server-supplied
// "detail" message when there was one.
type BackendError struct {
	Op         string
	StatusCode int
	Detail     string
}

func (e *BackendError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s status %d: %s", e.Op, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s status %d: %s", e.Op, e.StatusCode, http.StatusText(e.StatusCode))
}

// Classify maps an error returned by Client into an ErrorKind.
func Classify(err error) ErrorKind {
	var ne *NetworkError
	var be *BackendError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &be):
		return KindBackend
	case errors.As(err, &ne) && ne.Timeout():
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.As(err, &ne):
		return KindNetwork
	default:
		return KindUnknown
	}
}

// ErrorMessage returns the best human-readable text for err: the backend's
// detail when present, otherwise a message derived from the failure, and
// DefaultErrorMessage as the last resort.
func ErrorMessage(err error) string {
	if err == nil {
		return DefaultErrorMessage
	}

	var be *BackendError
	if errors.As(err, &be) {
		if be.Detail != "" {
			return be.Detail
		}
		return fmt.Sprintf("Request failed with status code %d", be.StatusCode)
	}

	var ne *NetworkError
	if errors.As(err, &ne) {
		switch Classify(err) {
		case KindTimeout:
			return fmt.Sprintf("%s timed out", ne.Op)
		case KindCanceled:
			return fmt.Sprintf("%s was cancelled", ne.Op)
		}
		if ne.Err != nil && ne.Err.Error() != "" {
			return "Network error: " + ne.Err.Error()
		}
		return DefaultErrorMessage
	}

	if msg := err.Error(); msg != "" {
		return msg
	}
	return DefaultErrorMessage
}
