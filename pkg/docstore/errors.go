package docstore

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by Store implementations. Drivers translate their
// backend-specific errors into these so callers can match with errors.Is.
var (
	// ErrNotFound indicates no document matched the filter.
	ErrNotFound = errors.New("document not found")

	// ErrStoreClosed indicates an operation on a closed store.
	ErrStoreClosed = errors.New("store is closed")
)

// Error wraps a driver error with the operation and collection it occurred in.
type Error struct {
	Op         string // "insert", "find", "delete", "count", "drop"
	Collection string
	Err        error
}

func (e *Error) Error() string {
	if e.Collection == "" {
		return fmt.Sprintf("docstore: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("docstore: %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WrapErr attaches op/collection context unless err is nil or already a
// sentinel the caller should match directly. Drivers use it so every error
// they surface carries the same shape.
func WrapErr(op, collection string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return err
	}
	return &Error{Op: op, Collection: collection, Err: err}
}
