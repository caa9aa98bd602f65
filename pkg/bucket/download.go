package bucket

import (
	"context"
	"io"

	"github.com/marmos91/gridstore/internal/logger"
	"github.com/marmos91/gridstore/pkg/docstore"
	"github.com/marmos91/gridstore/pkg/metrics"
)

// DownloadStream reconstructs a stored object from its chunk documents,
// validating every chunk's sequence number and size against the file
// document before exposing its bytes. Validation failures are fatal: they
// mean the stored chunks are corrupt or were mutated concurrently.
//
// The stream reads forward only and is not safe for concurrent use.
type DownloadStream struct {
	bucket *Bucket
	ctx    context.Context
	file   *File
	cursor docstore.Cursor

	buf       []byte
	bufPos    int
	nextChunk int32
	numChunks int32
	state     streamState
}

func newDownloadStream(ctx context.Context, b *Bucket, file *File, cursor docstore.Cursor) *DownloadStream {
	return &DownloadStream{
		bucket:    b,
		ctx:       ctx,
		file:      file,
		cursor:    cursor,
		numChunks: numChunks(file.Length, file.ChunkSize),
	}
}

// File returns the file document this stream was opened from.
func (d *DownloadStream) File() *File { return d.file }

// buffered reports how many validated bytes are ready without pulling
// another chunk.
func (d *DownloadStream) buffered() int { return len(d.buf) - d.bufPos }

// pullChunk advances the cursor by one chunk, validates it, and loads its
// bytes into the buffer. Returns io.EOF when every expected chunk has been
// consumed and the cursor is exhausted.
func (d *DownloadStream) pullChunk() error {
	if !d.cursor.Next(d.ctx) {
		if err := d.cursor.Err(); err != nil {
			metrics.StoreErrors.WithLabelValues(d.bucket.name, "read").Inc()
			return d.bucket.storeErr("read", d.file.ID, err)
		}
		if d.nextChunk < d.numChunks {
			// The store ran out of chunks before the file document says it
			// should: trailing chunks are missing.
			metrics.IntegrityFailures.WithLabelValues(d.bucket.name, "sequence").Inc()
			return &IntegrityError{
				Kind:   ErrChunkSequence,
				Bucket: d.bucket.name,
				FileID: d.file.ID,
				Got:    -1,
				Want:   int64(d.nextChunk),
			}
		}
		return io.EOF
	}

	var chunk chunkDoc
	if err := d.cursor.Decode(&chunk); err != nil {
		metrics.StoreErrors.WithLabelValues(d.bucket.name, "read").Inc()
		return d.bucket.storeErr("read", d.file.ID, err)
	}

	if chunk.N != d.nextChunk || chunk.N >= d.numChunks {
		metrics.IntegrityFailures.WithLabelValues(d.bucket.name, "sequence").Inc()
		return &IntegrityError{
			Kind:   ErrChunkSequence,
			Bucket: d.bucket.name,
			FileID: d.file.ID,
			Got:    int64(chunk.N),
			Want:   int64(d.nextChunk),
		}
	}

	want := expectedChunkLen(d.file.Length, d.file.ChunkSize, chunk.N)
	if int64(len(chunk.Data.Data)) != want {
		metrics.IntegrityFailures.WithLabelValues(d.bucket.name, "size").Inc()
		return &IntegrityError{
			Kind:   ErrChunkSize,
			Bucket: d.bucket.name,
			FileID: d.file.ID,
			Got:    int64(len(chunk.Data.Data)),
			Want:   want,
		}
	}

	d.buf = chunk.Data.Data
	d.bufPos = 0
	d.nextChunk++
	metrics.ChunksRead.WithLabelValues(d.bucket.name).Inc()

	logger.DebugCtx(d.ctx, "chunk validated",
		logger.KeyFileID, d.file.ID,
		logger.KeyChunk, chunk.N,
		logger.KeyBytesRead, len(chunk.Data.Data))
	return nil
}

// Read implements io.Reader. It drains the buffer first and pulls further
// chunks only when the buffer is empty; it returns fewer bytes than len(p)
// only at end of stream, where it returns 0, io.EOF.
func (d *DownloadStream) Read(p []byte) (int, error) {
	if d.state == stateClosed {
		return 0, ErrStreamClosed
	}
	if len(p) == 0 {
		return 0, nil
	}

	read := 0
	for read < len(p) {
		if d.buffered() == 0 {
			err := d.pullChunk()
			if err == io.EOF {
				if read == 0 {
					return 0, io.EOF
				}
				break
			}
			if err != nil {
				return read, err
			}
		}

		n := copy(p[read:], d.buf[d.bufPos:])
		d.bufPos += n
		read += n
	}

	metrics.DownloadedBytes.WithLabelValues(d.bucket.name).Add(float64(read))
	return read, nil
}

// ReadByte returns the next single byte, or io.EOF at end of stream.
func (d *DownloadStream) ReadByte() (byte, error) {
	var b [1]byte
	if _, err := d.Read(b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadBytes reads until the first occurrence of delim, returning the bytes
// up to and including it. At end of stream it returns whatever remains
// (possibly nothing) together with io.EOF, so a trailing unterminated line
// is delivered exactly once.
func (d *DownloadStream) ReadBytes(delim byte) ([]byte, error) {
	if d.state == stateClosed {
		return nil, ErrStreamClosed
	}

	var line []byte
	for {
		if d.buffered() == 0 {
			err := d.pullChunk()
			if err == io.EOF {
				metrics.DownloadedBytes.WithLabelValues(d.bucket.name).Add(float64(len(line)))
				return line, io.EOF
			}
			if err != nil {
				return line, err
			}
		}

		window := d.buf[d.bufPos:]
		for i, b := range window {
			if b == delim {
				line = append(line, window[:i+1]...)
				d.bufPos += i + 1
				metrics.DownloadedBytes.WithLabelValues(d.bucket.name).Add(float64(len(line)))
				return line, nil
			}
		}
		line = append(line, window...)
		d.bufPos = len(d.buf)
	}
}

// ReadAll validates and concatenates every remaining chunk and returns the
// rest of the object in one call. Reaching the natural end of the stream is
// not an error.
func (d *DownloadStream) ReadAll() ([]byte, error) {
	if d.state == stateClosed {
		return nil, ErrStreamClosed
	}

	remaining := d.file.Length - int64(d.nextChunk)*int64(d.file.ChunkSize) + int64(d.buffered())
	if remaining < 0 {
		remaining = 0
	}
	out := make([]byte, 0, remaining)
	out = append(out, d.buf[d.bufPos:]...)
	d.bufPos = len(d.buf)

	for {
		err := d.pullChunk()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, d.buf...)
		d.bufPos = len(d.buf)
	}

	metrics.DownloadedBytes.WithLabelValues(d.bucket.name).Add(float64(len(out)))
	return out, nil
}

// EOF reports whether the buffer is drained and no further chunks remain.
func (d *DownloadStream) EOF() bool {
	return d.buffered() == 0 && d.nextChunk >= d.numChunks
}

// Close releases the chunk cursor. Reads after Close fail with
// ErrStreamClosed; a second Close logs a warning and returns nil.
func (d *DownloadStream) Close() error {
	if d.state == stateClosed {
		logger.WarnCtx(d.ctx, "close on closed download stream", logger.KeyFileID, d.file.ID)
		return nil
	}

	d.state = stateClosed
	d.buf = nil
	d.bufPos = 0

	if err := d.cursor.Close(d.ctx); err != nil {
		return d.bucket.storeErr("read", d.file.ID, err)
	}

	logger.DebugCtx(d.ctx, "download stream closed", logger.KeyFileID, d.file.ID)
	return nil
}
