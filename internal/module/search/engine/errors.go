package engine

import (
	"errors"
	"fmt"
)

// Errors an engine call can produce. All of them are local to a single
// provider invocation; the selection layer catches them to decide fallback.
var (
	// ErrMissingCredential means the engine's credential env var is absent
	// or empty. Raised before any network call.
	ErrMissingCredential = errors.New("missing credential")

	// ErrTransport means a network-level failure (connection refused,
	// timeout, DNS). Wraps the underlying cause.
	ErrTransport = errors.New("transport error")

	// ErrMalformedResponse means the backend body could not be parsed as
	// the expected structure.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrEmptyResult means a structurally valid response carried zero
	// usable result entries.
	ErrEmptyResult = errors.New("empty result")

	// ErrUnknownEngineType means configuration referenced an engine type
	// with no implementation.
	ErrUnknownEngineType = errors.New("unknown engine type")
)

// BackendError is a non-2xx HTTP response from a backend.
type BackendError struct {
	StatusCode int
	Reason     string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend returned %d %s", e.StatusCode, e.Reason)
}
