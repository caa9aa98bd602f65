// Package bucket implements chunked large-object storage over a document
// store. An object is persisted as many fixed-size chunk documents in
// "<bucket>.chunks" plus a single metadata document in "<bucket>.files"
// written only after every chunk is durable, so a file is visible iff its
// upload completed.
//
// Upload and download streams are sequential and single-owner: operations on
// one stream must not be called concurrently. Independent streams, for the
// same or different files, are safe to run in parallel.
package bucket

import (
	"context"
	"errors"
	"io"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/marmos91/gridstore/internal/logger"
	"github.com/marmos91/gridstore/internal/telemetry"
	"github.com/marmos91/gridstore/pkg/bufpool"
	"github.com/marmos91/gridstore/pkg/docstore"
	"github.com/marmos91/gridstore/pkg/metrics"
)

// DefaultName is the collection prefix used when none is configured.
const DefaultName = "fs"

// Bucket groups a files collection and a chunks collection and is the
// factory for upload and download streams. Buckets are cheap; create one per
// logical namespace.
type Bucket struct {
	name      string
	store     docstore.Store
	chunkSize int32
	files     docstore.Collection
	chunks    docstore.Collection
}

// Option configures a Bucket.
type Option func(*Bucket)

// WithChunkSize sets the default chunk size for streams opened through this
// bucket. Individual uploads may still override it.
func WithChunkSize(size int32) Option {
	return func(b *Bucket) { b.chunkSize = size }
}

// New creates a bucket named name over store. An empty name means
// DefaultName.
func New(store docstore.Store, name string, opts ...Option) (*Bucket, error) {
	if name == "" {
		name = DefaultName
	}

	b := &Bucket{
		name:      name,
		store:     store,
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(b)
	}

	if b.chunkSize <= 0 {
		return nil, ErrInvalidChunkSize
	}

	b.files = store.Collection(name + ".files")
	b.chunks = store.Collection(name + ".chunks")
	return b, nil
}

// Name returns the bucket's collection prefix.
func (b *Bucket) Name() string { return b.name }

// ChunkSize returns the bucket's default chunk size.
func (b *Bucket) ChunkSize() int32 { return b.chunkSize }

// OpenUploadStream begins an upload under a freshly generated file id.
// The context is retained for the life of the stream and applies to every
// store operation the stream performs.
func (b *Bucket) OpenUploadStream(ctx context.Context, filename string, opts ...UploadOption) (*UploadStream, error) {
	return b.OpenUploadStreamWithID(ctx, primitive.NewObjectID(), filename, opts...)
}

// OpenUploadStreamWithID begins an upload under a caller-chosen file id.
// Reusing an id already present in the files collection is not supported.
func (b *Bucket) OpenUploadStreamWithID(ctx context.Context, fileID any, filename string, opts ...UploadOption) (*UploadStream, error) {
	cfg := uploadConfig{chunkSize: b.chunkSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.chunkSize <= 0 {
		return nil, ErrInvalidChunkSize
	}

	ctx = logger.WithContext(ctx, logger.NewLogContext(b.name, "upload"))
	logger.DebugCtx(ctx, "upload stream opened",
		logger.KeyFileID, fileID,
		logger.KeyFilename, filename,
		logger.KeyChunkSize, cfg.chunkSize)

	return newUploadStream(ctx, b, fileID, filename, cfg), nil
}

// OpenDownloadStream opens the file with the given id for reading. Returns
// ErrFileNotFound when no file document exists.
func (b *Bucket) OpenDownloadStream(ctx context.Context, fileID any) (*DownloadStream, error) {
	ctx = logger.WithContext(ctx, logger.NewLogContext(b.name, "download"))

	var file File
	err := b.files.FindOne(ctx, docstore.Filter{"_id": fileID}, nil, &file)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, b.storeErr("open", fileID, err)
	}

	return b.openDownload(ctx, &file)
}

// OpenDownloadStreamByName opens the most recently uploaded file with the
// given filename. Returns ErrFileNotFound when no revision exists.
func (b *Bucket) OpenDownloadStreamByName(ctx context.Context, filename string) (*DownloadStream, error) {
	ctx = logger.WithContext(ctx, logger.NewLogContext(b.name, "download"))

	var file File
	err := b.files.FindOne(ctx,
		docstore.Filter{"filename": filename},
		docstore.Descending("uploadDate"),
		&file)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, b.storeErr("open", nil, err)
	}

	return b.openDownload(ctx, &file)
}

func (b *Bucket) openDownload(ctx context.Context, file *File) (*DownloadStream, error) {
	if file.ChunkSize <= 0 {
		return nil, ErrInvalidChunkSize
	}

	cursor, err := b.chunks.Find(ctx,
		docstore.Filter{"files_id": file.ID},
		docstore.Ascending("n"))
	if err != nil {
		return nil, b.storeErr("open", file.ID, err)
	}

	logger.DebugCtx(ctx, "download stream opened",
		logger.KeyFileID, file.ID,
		logger.KeyFilename, file.Filename,
		logger.KeyLength, file.Length,
		logger.KeyChunkSize, file.ChunkSize)

	return newDownloadStream(ctx, b, file, cursor), nil
}

// Stat returns the file document for the given id without opening a stream.
func (b *Bucket) Stat(ctx context.Context, fileID any) (*File, error) {
	var file File
	err := b.files.FindOne(ctx, docstore.Filter{"_id": fileID}, nil, &file)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, b.storeErr("open", fileID, err)
	}
	return &file, nil
}

// Find returns a cursor over file documents matching filter, newest first.
// Decode into File.
func (b *Bucket) Find(ctx context.Context, filter docstore.Filter) (docstore.Cursor, error) {
	cur, err := b.files.Find(ctx, filter, docstore.Descending("uploadDate"))
	if err != nil {
		return nil, b.storeErr("read", nil, err)
	}
	return cur, nil
}

// Delete removes the file document and all chunk documents for the given
// id. Chunks are removed even when the file document is absent, so a Delete
// after a failed Close reclaims orphaned chunks; in that case Delete still
// returns ErrFileNotFound.
func (b *Bucket) Delete(ctx context.Context, fileID any) error {
	ctx, span := telemetry.StartBucketSpan(ctx, "delete", b.name, telemetry.FileID(fileID))
	defer span.End()

	ctx = logger.WithContext(ctx, logger.NewLogContext(b.name, "delete"))

	filesDeleted, err := b.files.Delete(ctx, docstore.Filter{"_id": fileID})
	if err != nil {
		metrics.StoreErrors.WithLabelValues(b.name, "delete").Inc()
		return b.storeErr("delete", fileID, err)
	}

	chunksDeleted, err := b.chunks.Delete(ctx, docstore.Filter{"files_id": fileID})
	if err != nil {
		metrics.StoreErrors.WithLabelValues(b.name, "delete").Inc()
		return b.storeErr("delete", fileID, err)
	}

	logger.InfoCtx(ctx, "file deleted",
		logger.KeyFileID, fileID,
		logger.KeyChunks, chunksDeleted)

	if filesDeleted == 0 {
		return ErrFileNotFound
	}
	return nil
}

// Drop removes both bucket collections and everything in them.
func (b *Bucket) Drop(ctx context.Context) error {
	ctx, span := telemetry.StartBucketSpan(ctx, "drop", b.name)
	defer span.End()

	if err := b.store.DropCollection(ctx, b.name+".files"); err != nil {
		metrics.StoreErrors.WithLabelValues(b.name, "drop").Inc()
		return b.storeErr("drop", nil, err)
	}
	if err := b.store.DropCollection(ctx, b.name+".chunks"); err != nil {
		metrics.StoreErrors.WithLabelValues(b.name, "drop").Inc()
		return b.storeErr("drop", nil, err)
	}
	logger.Info("bucket dropped", logger.KeyBucket, b.name)
	return nil
}

// UploadFromStream uploads everything readable from r as a new file and
// returns its generated id. On a read failure the upload is aborted and no
// documents remain.
func (b *Bucket) UploadFromStream(ctx context.Context, filename string, r io.Reader, opts ...UploadOption) (any, error) {
	ctx, span := telemetry.StartBucketSpan(ctx, "upload", b.name, telemetry.Filename(filename))
	defer span.End()

	us, err := b.OpenUploadStream(ctx, filename, opts...)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, err
	}
	telemetry.SetAttributes(ctx, telemetry.FileID(us.FileID))

	buf := bufpool.Get(int(us.chunkSize))
	defer bufpool.Put(buf)

	if _, err := io.CopyBuffer(us, r, buf); err != nil {
		if abortErr := us.Abort(); abortErr != nil {
			logger.Warn("abort after failed upload copy",
				logger.KeyFileID, us.FileID,
				logger.KeyError, abortErr.Error())
		}
		telemetry.RecordError(ctx, err)
		return nil, err
	}

	if err := us.Close(); err != nil {
		telemetry.RecordError(ctx, err)
		return nil, err
	}
	telemetry.SetAttributes(ctx, telemetry.Length(us.Length()))
	return us.FileID, nil
}

// DownloadToStream copies the file with the given id into w and returns the
// number of bytes written.
func (b *Bucket) DownloadToStream(ctx context.Context, fileID any, w io.Writer) (int64, error) {
	ctx, span := telemetry.StartBucketSpan(ctx, "download", b.name, telemetry.FileID(fileID))
	defer span.End()

	ds, err := b.OpenDownloadStream(ctx, fileID)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return 0, err
	}
	defer func() {
		if err := ds.Close(); err != nil {
			logger.Warn("close download stream",
				logger.KeyFileID, fileID,
				logger.KeyError, err.Error())
		}
	}()

	buf := bufpool.Get(int(ds.File().ChunkSize))
	defer bufpool.Put(buf)

	written, err := io.CopyBuffer(w, ds, buf)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return written, err
	}
	telemetry.SetAttributes(ctx, telemetry.BytesWritten(int(written)))
	return written, nil
}

func (b *Bucket) storeErr(phase string, fileID any, err error) error {
	return &StoreError{Phase: phase, Bucket: b.name, FileID: fileID, Err: err}
}
