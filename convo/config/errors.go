package config

import (
	"errors"
	"fmt"
)

// ErrMissingAPIKey is wrapped by the ConfigurationError returned when no credential
// is configured.
var ErrMissingAPIKey = errors.New("api key not configured")

// ConfigurationError reports a setting that prevents the application from starting.
type ConfigurationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration: %s", e.Reason)
	}
	return fmt.Sprintf("configuration: %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }
