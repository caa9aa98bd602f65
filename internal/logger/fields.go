package logger

import (
	"fmt"
	"log/slog"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements so that log
// aggregation and querying stay uniform across the bucket, store, and API
// layers.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Bucket Operations
	// ========================================================================
	KeyOperation = "operation" // Operation name: upload, download, abort, delete, etc.
	KeyBucket    = "bucket"    // Bucket name (collection prefix)
	KeyFileID    = "file_id"   // File document identifier
	KeyFilename  = "filename"  // Display name of the stored object
	KeyLength    = "length"    // Total object length in bytes
	KeyChunk     = "chunk"     // Chunk sequence index (n)
	KeyChunks    = "chunks"    // Number of chunks in an operation
	KeyChunkSize = "chunk_size" // Bytes per chunk for a file

	// ========================================================================
	// I/O
	// ========================================================================
	KeyBytesRead    = "bytes_read"    // Actual bytes read
	KeyBytesWritten = "bytes_written" // Actual bytes written
	KeyEOF          = "eof"           // End of stream indicator

	// ========================================================================
	// Document Store
	// ========================================================================
	KeyCollection = "collection" // Collection name the operation targets
	KeyStoreType  = "store_type" // Store driver: mongo, memory, badger, sqlite, postgres
	KeyDeleted    = "deleted"    // Number of documents deleted

	// ========================================================================
	// Client Identification (API layer)
	// ========================================================================
	KeyClientIP  = "client_ip"  // Client IP address
	KeyUsername  = "username"   // Authenticated username
	KeyRequestID = "request_id" // HTTP request identifier

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
)

// ============================================================================
// Field constructors for type safety
// ============================================================================

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// Operation returns a slog.Attr for the operation name
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Bucket returns a slog.Attr for the bucket name
func Bucket(name string) slog.Attr {
	return slog.String(KeyBucket, name)
}

// FileID returns a slog.Attr for a file document identifier.
// The id may be any BSON-compatible value (ObjectID, string, ...).
func FileID(id any) slog.Attr {
	return slog.String(KeyFileID, fmt.Sprintf("%v", id))
}

// Filename returns a slog.Attr for the stored object's display name
func Filename(name string) slog.Attr {
	return slog.String(KeyFilename, name)
}

// Length returns a slog.Attr for the total object length
func Length(n int64) slog.Attr {
	return slog.Int64(KeyLength, n)
}

// Chunk returns a slog.Attr for a chunk sequence index
func Chunk(n int32) slog.Attr {
	return slog.Int(KeyChunk, int(n))
}

// Chunks returns a slog.Attr for a chunk count
func Chunks(n int) slog.Attr {
	return slog.Int(KeyChunks, n)
}

// ChunkSize returns a slog.Attr for bytes per chunk
func ChunkSize(size int32) slog.Attr {
	return slog.Int(KeyChunkSize, int(size))
}

// BytesRead returns a slog.Attr for actual bytes read
func BytesRead(n int) slog.Attr {
	return slog.Int(KeyBytesRead, n)
}

// BytesWritten returns a slog.Attr for actual bytes written
func BytesWritten(n int) slog.Attr {
	return slog.Int(KeyBytesWritten, n)
}

// EOF returns a slog.Attr for end-of-stream indicator
func EOF(eof bool) slog.Attr {
	return slog.Bool(KeyEOF, eof)
}

// Collection returns a slog.Attr for a collection name
func Collection(name string) slog.Attr {
	return slog.String(KeyCollection, name)
}

// StoreType returns a slog.Attr for the store driver type
func StoreType(t string) slog.Attr {
	return slog.String(KeyStoreType, t)
}

// Deleted returns a slog.Attr for number of documents deleted
func Deleted(n int64) slog.Attr {
	return slog.Int64(KeyDeleted, n)
}

// ClientIP returns a slog.Attr for client IP address
func ClientIP(addr string) slog.Attr {
	return slog.String(KeyClientIP, addr)
}

// Username returns a slog.Attr for the authenticated username
func Username(name string) slog.Attr {
	return slog.String(KeyUsername, name)
}

// RequestID returns a slog.Attr for an HTTP request identifier
func RequestID(id string) slog.Attr {
	return slog.String(KeyRequestID, id)
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
