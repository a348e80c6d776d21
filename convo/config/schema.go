package config

import (
	"errors"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// configSchema constrains the decoded Config. Durations are encoded as nanoseconds.
const configSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["chat", "llm"],
  "properties": {
    "chat": {
      "type": "object",
      "properties": {
        "max_history_items": {"type": "integer", "minimum": 1},
        "prompt_window": {"type": "integer", "minimum": 1},
        "system_instruction": {"type": "string", "minLength": 1}
      }
    },
    "llm": {
      "type": "object",
      "properties": {
        "provider": {"enum": ["gemini", "openai"]},
        "model": {"type": "string", "minLength": 1},
        "api_key_env": {"type": "string"},
        "base_url": {"type": "string"},
        "max_new_tokens": {"type": "integer", "minimum": 0},
        "temperature": {"type": "number", "minimum": 0, "maximum": 2},
        "top_p": {"type": "number", "minimum": 0, "maximum": 1},
        "timeout": {"type": "integer", "minimum": 0}
      }
    },
    "harness": {
      "type": "object",
      "properties": {
        "cache_capacity": {"type": "integer", "minimum": 0},
        "cache_ttl_seconds": {"type": "integer", "minimum": 0},
        "rate_limit_capacity": {"type": "integer", "minimum": 0},
        "rate_limit_refill_rate": {"type": "integer", "minimum": 0}
      }
    },
    "log": {
      "type": "object",
      "properties": {
        "level": {"enum": ["trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled"]},
        "format": {"enum": ["auto", "console", "json"]}
      }
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(configSchema)

// Validate checks c against the embedded schema and a few cross-field rules. Every
// violation is reported as a *ConfigurationError; several are joined.
func (c *Config) Validate() error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(c))
	if err != nil {
		return &ConfigurationError{Reason: "schema validation failed", Err: err}
	}

	var errs []error
	for _, re := range result.Errors() {
		errs = append(errs, &ConfigurationError{Field: re.Field(), Reason: re.Description()})
	}

	if c.Harness.RateLimitEnabled && c.Harness.RateLimitCapacity > 0 && c.Harness.RateLimitRefillRate <= 0 {
		errs = append(errs, &ConfigurationError{
			Field:  "harness.rate_limit_refill_rate",
			Reason: fmt.Sprintf("must be positive when rate limiting is enabled, got %s", c.Harness.RateLimitRefillRate),
		})
	}

	return errors.Join(errs...)
}
