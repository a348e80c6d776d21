package generation

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyReply is returned when the provider answered with blank text.
	ErrEmptyReply = errors.New("model returned an empty reply")
	// ErrNoProvider is returned when a Generator was built without a provider.
	ErrNoProvider = errors.New("no generation provider configured")
)

// RequestError wraps any failure of a generation call: rate limiting, transport,
// quota, or a malformed or empty response. Callers recover from it and keep going.
type RequestError struct {
	Provider string
	Model    string
	Err      error
}

func (e *RequestError) Error() string {
	if e.Provider == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s (%s): %v", e.Provider, e.Model, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }
