package config

import (
	"errors"
	"fmt"
)

// Error codes for configuration operations.
const (
	ErrCodeInvalidConfig   = "invalid_config"
	ErrCodeFileNotFound    = "file_not_found"
	ErrCodeParseFailed     = "parse_failed"
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeSealedViolation = "sealed_violation"
)

// ConfigError represents an error encountered while loading or validating a
// BenchmarkConfig or ProviderConfig.
type ConfigError struct {
	Op      string
	Code    string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("config %s: %s (code: %s)", e.Op, e.Message, e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("config %s: %v (code: %s)", e.Op, e.Err, e.Code)
	}
	return fmt.Sprintf("config %s: unknown error (code: %s)", e.Op, e.Code)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func newConfigError(op, code, message string, err error) *ConfigError {
	return &ConfigError{Op: op, Code: code, Message: message, Err: err}
}

// IsConfigError reports whether err is a *ConfigError.
func IsConfigError(err error) bool {
	var cerr *ConfigError
	return errors.As(err, &cerr)
}

// ViolationList is a collection of human-readable validation failures,
// surfaced together rather than one at a time so an operator can fix a
// config in a single pass.
type ViolationList []string

func (v ViolationList) Error() string {
	if len(v) == 0 {
		return "no violations"
	}
	msg := fmt.Sprintf("%d validation violation(s):", len(v))
	for _, item := range v {
		msg += "\n  - " + item
	}
	return msg
}
