package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for bucket and store operations.
// These follow OpenTelemetry semantic conventions where applicable.
const (
	// ========================================================================
	// Client attributes
	// ========================================================================
	AttrClientIP   = "client.ip"
	AttrClientAddr = "client.address"

	// ========================================================================
	// Bucket attributes
	// ========================================================================
	AttrOperation   = "bucket.operation" // upload, download, delete, drop
	AttrBucket      = "bucket.name"      // Bucket name (collection prefix)
	AttrFileID      = "file.id"          // File document identifier
	AttrFilename    = "file.name"        // Display name of the stored object
	AttrLength      = "file.length"      // Total object length in bytes
	AttrContentType = "file.content_type"
	AttrChunk       = "chunk.n"          // Chunk sequence index
	AttrChunks      = "chunk.count"      // Number of chunks in an operation
	AttrChunkSize   = "chunk.size"       // Bytes per chunk for a file
	AttrBytesRead   = "io.bytes_read"    // Actual bytes read
	AttrBytesWrite  = "io.bytes_written" // Actual bytes written
	AttrEOF         = "io.eof"           // End of stream indicator

	// ========================================================================
	// Document store attributes
	// ========================================================================
	AttrCollection = "store.collection"
	AttrStoreType  = "store.type"

	// ========================================================================
	// User/Auth attributes
	// ========================================================================
	AttrUsername = "user.name"
	AttrRole     = "user.role"
)

// Span names for operations.
// Format: <component>.<operation>
const (
	SpanUpload      = "bucket.upload"
	SpanUploadFlush = "bucket.upload.flush"
	SpanUploadClose = "bucket.upload.close"
	SpanUploadAbort = "bucket.upload.abort"
	SpanDownload    = "bucket.download"
	SpanDelete      = "bucket.delete"
	SpanDrop        = "bucket.drop"
	SpanStat        = "bucket.stat"
	SpanFind        = "bucket.find"

	SpanStoreInsert = "store.insert"
	SpanStoreFind   = "store.find"
	SpanStoreDelete = "store.delete"
	SpanStoreCount  = "store.count"
)

// ClientIP returns an attribute for client IP address
func ClientIP(ip string) attribute.KeyValue {
	return attribute.String(AttrClientIP, ip)
}

// ClientAddr returns an attribute for full client address
func ClientAddr(addr string) attribute.KeyValue {
	return attribute.String(AttrClientAddr, addr)
}

// Operation returns an attribute for the bucket operation name
func Operation(op string) attribute.KeyValue {
	return attribute.String(AttrOperation, op)
}

// Bucket returns an attribute for the bucket name
func Bucket(name string) attribute.KeyValue {
	return attribute.String(AttrBucket, name)
}

// FileID returns an attribute for a file document identifier.
// The id may be any BSON-compatible value (ObjectID, string, ...).
func FileID(id any) attribute.KeyValue {
	return attribute.String(AttrFileID, fmt.Sprintf("%v", id))
}

// Filename returns an attribute for the stored object's display name
func Filename(name string) attribute.KeyValue {
	return attribute.String(AttrFilename, name)
}

// Length returns an attribute for the total object length
func Length(n int64) attribute.KeyValue {
	return attribute.Int64(AttrLength, n)
}

// ContentType returns an attribute for the object's media type
func ContentType(ct string) attribute.KeyValue {
	return attribute.String(AttrContentType, ct)
}

// Chunk returns an attribute for a chunk sequence index
func Chunk(n int32) attribute.KeyValue {
	return attribute.Int(AttrChunk, int(n))
}

// Chunks returns an attribute for a chunk count
func Chunks(n int) attribute.KeyValue {
	return attribute.Int(AttrChunks, n)
}

// ChunkSize returns an attribute for bytes per chunk
func ChunkSize(size int32) attribute.KeyValue {
	return attribute.Int(AttrChunkSize, int(size))
}

// BytesRead returns an attribute for actual bytes read
func BytesRead(n int) attribute.KeyValue {
	return attribute.Int(AttrBytesRead, n)
}

// BytesWritten returns an attribute for actual bytes written
func BytesWritten(n int) attribute.KeyValue {
	return attribute.Int(AttrBytesWrite, n)
}

// EOF returns an attribute for end-of-stream indicator
func EOF(eof bool) attribute.KeyValue {
	return attribute.Bool(AttrEOF, eof)
}

// Collection returns an attribute for a collection name
func Collection(name string) attribute.KeyValue {
	return attribute.String(AttrCollection, name)
}

// StoreType returns an attribute for the store driver type
func StoreType(t string) attribute.KeyValue {
	return attribute.String(AttrStoreType, t)
}

// Username returns an attribute for the authenticated username
func Username(name string) attribute.KeyValue {
	return attribute.String(AttrUsername, name)
}

// Role returns an attribute for the authenticated role
func Role(role string) attribute.KeyValue {
	return attribute.String(AttrRole, role)
}

// StartBucketSpan starts a span for a bucket operation.
// This is a convenience function that sets common attributes.
func StartBucketSpan(ctx context.Context, operation, bucket string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		Operation(operation),
		Bucket(bucket),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, "bucket."+operation, trace.WithAttributes(allAttrs...))
}

// StartStoreSpan starts a span for a document store operation.
func StartStoreSpan(ctx context.Context, operation, collection string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		Collection(collection),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, "store."+operation, trace.WithAttributes(allAttrs...))
}
