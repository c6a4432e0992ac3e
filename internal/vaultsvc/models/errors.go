package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers both "does not exist" and "exists but is not yours".
	ErrNotFound = errors.New("not found")

	// ErrConflict reports a violated uniqueness constraint, e.g. two cards in one cell.
	ErrConflict = errors.New("conflict")

	// ErrSyncInProgress is returned when a catalog sync is requested while one is running.
	ErrSyncInProgress = errors.New("catalog sync already in progress")
)

// ValidationError rejects a request before any storage access.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Invalid builds a *ValidationError.
func Invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// TransactionError wraps any failure inside an all-or-nothing batch. The batch
// has been rolled back when this error is returned.
type TransactionError struct {
	Op  string
	Err error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("%s: transaction rolled back: %v", e.Op, e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }

// ProviderError aborts a whole catalog sync run: the provider could not be
// reached or returned data that could not be parsed.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("catalog provider: %v", e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// RecordError is a transient, single record failure during a catalog sync.
// The run records it and moves on.
type RecordError struct {
	ExternalID int64  `json:"external_id"`
	Reason     string `json:"reason"`
	Err        error  `json:"-"`
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("card %d: %s", e.ExternalID, e.Reason)
}

func (e *RecordError) Unwrap() error { return e.Err }
