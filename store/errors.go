package store

import (
	"errors"
	"fmt"
)

const (
	ErrCodeConnectionFailed = "connection_failed"
	ErrCodeSchemaFailed     = "schema_failed"
	ErrCodeQueryFailed      = "query_failed"
	ErrCodeNotFound         = "not_found"
	ErrCodeMarshalFailed    = "marshal_failed"
)

// StoreError represents an error encountered persisting or querying run
// results.
type StoreError struct {
	Op      string
	Code    string
	Message string
	Err     error
}

func (e *StoreError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("store %s: %s (code: %s)", e.Op, e.Message, e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("store %s: %v (code: %s)", e.Op, e.Err, e.Code)
	}
	return fmt.Sprintf("store %s: unknown error (code: %s)", e.Op, e.Code)
}

func (e *StoreError) Unwrap() error { return e.Err }

func newStoreError(op, code, message string, err error) *StoreError {
	return &StoreError{Op: op, Code: code, Message: message, Err: err}
}

// IsStoreError reports whether err is a *StoreError.
func IsStoreError(err error) bool {
	var serr *StoreError
	return errors.As(err, &serr)
}

// IsNotFound reports whether err is a *StoreError carrying ErrCodeNotFound.
func IsNotFound(err error) bool {
	var serr *StoreError
	return errors.As(err, &serr) && serr.Code == ErrCodeNotFound
}
