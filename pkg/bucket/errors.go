package bucket

import (
	"errors"
	"fmt"
)

// Sentinel errors for stream and bucket operations. Structured errors below
// unwrap to these so callers can match with errors.Is.
var (
	// ErrStreamClosed indicates an operation on a closed stream.
	ErrStreamClosed = errors.New("stream is closed")

	// ErrStreamAborted indicates a write on an aborted upload stream.
	ErrStreamAborted = errors.New("stream is aborted")

	// ErrFileNotFound indicates no file document exists for the requested
	// id or filename.
	ErrFileNotFound = errors.New("file not found")

	// ErrInvalidChunkSize indicates a non-positive chunk size.
	ErrInvalidChunkSize = errors.New("chunk size must be positive")

	// ErrChunkSequence indicates a chunk arrived with an index other than
	// the expected next one: a chunk is missing, duplicated, or out of
	// order.
	ErrChunkSequence = errors.New("unexpected chunk sequence number")

	// ErrChunkSize indicates a chunk's data length does not match the
	// length implied by the file document.
	ErrChunkSize = errors.New("unexpected chunk data length")
)

// StoreError wraps a document store failure with the bucket, file and phase
// it occurred in. Store failures are never retried by the streams; the
// caller decides whether to retry or abort.
type StoreError struct {
	Phase  string // "flush", "finalize", "abort", "open", "read", "delete", "drop"
	Bucket string
	FileID any
	Err    error
}

func (e *StoreError) Error() string {
	if e.FileID == nil {
		return fmt.Sprintf("bucket %s: %s: %v", e.Bucket, e.Phase, e.Err)
	}
	return fmt.Sprintf("bucket %s: %s for file %v: %v", e.Bucket, e.Phase, e.FileID, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IntegrityError reports a chunk that failed validation during download.
// These errors are fatal for the stream: they indicate storage corruption or
// concurrent mutation, and reads must not be retried.
//
// Kind is one of ErrChunkSequence and ErrChunkSize; Got and Want carry the
// mismatching index or byte length respectively.
type IntegrityError struct {
	Kind   error
	Bucket string
	FileID any
	Got    int64
	Want   int64
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("bucket %s: file %v: %v (got %d, want %d)",
		e.Bucket, e.FileID, e.Kind, e.Got, e.Want)
}

func (e *IntegrityError) Unwrap() error {
	return e.Kind
}
