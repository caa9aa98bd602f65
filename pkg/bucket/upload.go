package bucket

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"hash"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/marmos91/gridstore/internal/logger"
	"github.com/marmos91/gridstore/pkg/docstore"
	"github.com/marmos91/gridstore/pkg/metrics"
)

type streamState int

const (
	stateOpen streamState = iota
	stateClosed
	stateAborted
)

// uploadConfig collects per-stream upload options.
type uploadConfig struct {
	chunkSize   int32
	batchBudget int
	contentType string
	aliases     []string
	metadata    any
}

// UploadOption configures an upload stream.
type UploadOption func(*uploadConfig)

// WithUploadChunkSize overrides the bucket default chunk size for this file.
func WithUploadChunkSize(size int32) UploadOption {
	return func(c *uploadConfig) { c.chunkSize = size }
}

// WithBatchBudget caps the data bytes per chunk batch insert for this
// stream. The flush threshold becomes the largest multiple of the chunk size
// not exceeding it, and at least one chunk. Varying the budget changes how
// many insert calls an upload performs, never the resulting documents.
// Non-positive values keep the default.
func WithBatchBudget(bytes int) UploadOption {
	return func(c *uploadConfig) { c.batchBudget = bytes }
}

// WithContentType records a MIME type on the file document.
func WithContentType(ct string) UploadOption {
	return func(c *uploadConfig) { c.contentType = ct }
}

// WithAliases records alternative names on the file document.
func WithAliases(aliases []string) UploadOption {
	return func(c *uploadConfig) { c.aliases = aliases }
}

// WithMetadata attaches arbitrary caller data to the file document. The
// value must be BSON-marshalable; it is stored as-is and never interpreted.
func WithMetadata(md any) UploadOption {
	return func(c *uploadConfig) { c.metadata = md }
}

// UploadStream accepts bytes through Write, slices them into chunks and
// persists chunk batches as the buffer fills. Close flushes the remainder
// and writes the file document, making the file visible; Abort removes every
// chunk written so far and never writes a file document.
//
// The stream is not safe for concurrent use.
type UploadStream struct {
	// FileID is the id the file document will carry. Available from open so
	// callers can correlate before the upload completes.
	FileID any

	bucket    *Bucket
	ctx       context.Context
	chunkSize int32
	threshold int
	filename  string
	cfg       uploadConfig

	buf       []byte
	nextChunk int32
	length    int64
	digest    hash.Hash
	state     streamState
}

func newUploadStream(ctx context.Context, b *Bucket, fileID any, filename string, cfg uploadConfig) *UploadStream {
	budget := cfg.batchBudget
	if budget <= 0 {
		budget = maxBatchBytes
	}
	threshold := flushThreshold(cfg.chunkSize, budget)

	return &UploadStream{
		FileID:    fileID,
		bucket:    b,
		ctx:       ctx,
		chunkSize: cfg.chunkSize,
		threshold: threshold,
		filename:  filename,
		cfg:       cfg,
		buf:       make([]byte, 0, threshold),
		digest:    md5.New(),
	}
}

// Write implements io.Writer. Bytes are buffered and flushed as full-size
// chunk batches once the buffer reaches the flush threshold; a remainder
// below one chunk stays buffered for the next Write or for Close.
func (u *UploadStream) Write(p []byte) (int, error) {
	switch u.state {
	case stateClosed:
		return 0, ErrStreamClosed
	case stateAborted:
		return 0, ErrStreamAborted
	}

	u.buf = append(u.buf, p...)
	u.length += int64(len(p))
	u.digest.Write(p)

	// p is folded into the buffer, length and digest before any flush, so it
	// is reported consumed even when a flush fails; resubmitting it would
	// double-count the bytes.
	for len(u.buf) >= u.threshold {
		if err := u.flush(u.buf[:u.threshold]); err != nil {
			return len(p), err
		}
		u.buf = u.buf[:copy(u.buf, u.buf[u.threshold:])]
	}

	return len(p), nil
}

// flush persists data, which must be a multiple of the chunk size, as one
// batch of chunk documents numbered from the stream's next index.
func (u *UploadStream) flush(data []byte) error {
	count := len(data) / int(u.chunkSize)
	docs := make([]any, 0, count)
	for i := 0; i < count; i++ {
		piece := data[i*int(u.chunkSize) : (i+1)*int(u.chunkSize)]
		docs = append(docs, chunkDoc{
			ID:      primitive.NewObjectID(),
			FilesID: u.FileID,
			N:       u.nextChunk + int32(i),
			Data:    primitive.Binary{Data: append([]byte(nil), piece...)},
		})
	}

	if err := u.bucket.chunks.Insert(u.ctx, docs...); err != nil {
		metrics.StoreErrors.WithLabelValues(u.bucket.name, "flush").Inc()
		return u.bucket.storeErr("flush", u.FileID, err)
	}

	u.nextChunk += int32(count)
	metrics.ChunksWritten.WithLabelValues(u.bucket.name).Add(float64(count))
	metrics.FlushBatches.WithLabelValues(u.bucket.name).Inc()

	logger.DebugCtx(u.ctx, "chunk batch flushed",
		logger.KeyFileID, u.FileID,
		logger.KeyChunks, count,
		logger.KeyChunk, u.nextChunk-1)
	return nil
}

// flushFinal persists whatever remains in the buffer as a last, possibly
// short, chunk. A zero-length buffer produces no chunk: a zero-length file
// has zero chunks.
func (u *UploadStream) flushFinal() error {
	if len(u.buf) == 0 {
		return nil
	}

	doc := chunkDoc{
		ID:      primitive.NewObjectID(),
		FilesID: u.FileID,
		N:       u.nextChunk,
		Data:    primitive.Binary{Data: u.buf},
	}
	if err := u.bucket.chunks.Insert(u.ctx, doc); err != nil {
		metrics.StoreErrors.WithLabelValues(u.bucket.name, "flush").Inc()
		return u.bucket.storeErr("flush", u.FileID, err)
	}

	u.nextChunk++
	u.buf = nil
	metrics.ChunksWritten.WithLabelValues(u.bucket.name).Inc()
	metrics.FlushBatches.WithLabelValues(u.bucket.name).Inc()
	return nil
}

// Close flushes remaining buffered bytes and inserts the file document,
// making the file visible. Closing an already-terminal stream logs a warning
// and returns nil.
//
// When the file document insert itself fails the chunks already written stay
// in place and the stream remains open: there is deliberately no automatic
// rollback here. Callers wanting cleanup after a failed Close call Abort.
func (u *UploadStream) Close() error {
	switch u.state {
	case stateClosed:
		logger.WarnCtx(u.ctx, "close on closed upload stream", logger.KeyFileID, u.FileID)
		return nil
	case stateAborted:
		logger.WarnCtx(u.ctx, "close on aborted upload stream", logger.KeyFileID, u.FileID)
		return nil
	}

	// Full-size chunks may still be buffered when Close is called before
	// the threshold was ever reached.
	for len(u.buf) > int(u.chunkSize) {
		full := (len(u.buf) / int(u.chunkSize)) * int(u.chunkSize)
		if full == len(u.buf) {
			full -= int(u.chunkSize)
		}
		if err := u.flush(u.buf[:full]); err != nil {
			return err
		}
		u.buf = u.buf[:copy(u.buf, u.buf[full:])]
	}
	if err := u.flushFinal(); err != nil {
		return err
	}

	file := File{
		ID:          u.FileID,
		Length:      u.length,
		ChunkSize:   u.chunkSize,
		UploadDate:  time.Now().UTC(),
		MD5:         hex.EncodeToString(u.digest.Sum(nil)),
		Filename:    u.filename,
		ContentType: u.cfg.contentType,
		Aliases:     u.cfg.aliases,
		Metadata:    u.cfg.metadata,
	}

	if err := u.bucket.files.Insert(u.ctx, file); err != nil {
		metrics.StoreErrors.WithLabelValues(u.bucket.name, "finalize").Inc()
		return u.bucket.storeErr("finalize", u.FileID, err)
	}

	u.state = stateClosed
	metrics.UploadedBytes.WithLabelValues(u.bucket.name).Add(float64(u.length))
	metrics.FilesCompleted.WithLabelValues(u.bucket.name).Inc()

	logger.InfoCtx(u.ctx, "upload complete",
		logger.KeyFileID, u.FileID,
		logger.KeyFilename, u.filename,
		logger.KeyLength, u.length,
		logger.KeyChunks, u.nextChunk)
	return nil
}

// Abort deletes every chunk written for this stream's file id and marks the
// stream aborted; no file document is ever written. Aborting an
// already-terminal stream logs a warning and returns nil.
func (u *UploadStream) Abort() error {
	switch u.state {
	case stateClosed:
		logger.WarnCtx(u.ctx, "abort on closed upload stream", logger.KeyFileID, u.FileID)
		return nil
	case stateAborted:
		logger.WarnCtx(u.ctx, "abort on aborted upload stream", logger.KeyFileID, u.FileID)
		return nil
	}

	deleted, err := u.bucket.chunks.Delete(u.ctx, docstore.Filter{"files_id": u.FileID})
	if err != nil {
		metrics.StoreErrors.WithLabelValues(u.bucket.name, "abort").Inc()
		return u.bucket.storeErr("abort", u.FileID, err)
	}

	u.state = stateAborted
	u.buf = nil
	metrics.FilesAborted.WithLabelValues(u.bucket.name).Inc()

	logger.InfoCtx(u.ctx, "upload aborted",
		logger.KeyFileID, u.FileID,
		logger.KeyDeleted, deleted)
	return nil
}

// Length reports the number of bytes written so far.
func (u *UploadStream) Length() int64 { return u.length }
