package bucket

import (
	"runtime"
	"sync"

	"github.com/marmos91/gridstore/internal/logger"
)

// Adapter handles wrap the streams as plain io.ReadCloser/io.WriteCloser so
// they compose with generic I/O consumers. Handles add no buffering of their
// own. Several handles may share one stream (via Clone); the underlying
// close runs exactly once no matter which handle closes first, and later
// closes are no-ops.
//
// As a safety net a handle left unreferenced without Close is closed by a
// finalizer, which logs the leak instead of failing. Callers should still
// close explicitly; the finalizer is best-effort only.

// sharedCloser runs a close function exactly once and remembers its result.
type sharedCloser struct {
	once  sync.Once
	close func() error
	err   error
}

func (s *sharedCloser) Close() error {
	s.once.Do(func() {
		s.err = s.close()
	})
	return s.err
}

// ReaderHandle exposes a DownloadStream as an io.ReadCloser.
type ReaderHandle struct {
	stream *DownloadStream
	shared *sharedCloser
}

// NewReaderHandle wraps a download stream. The handle owns closing the
// stream; do not call stream.Close directly once a handle exists.
func NewReaderHandle(ds *DownloadStream) *ReaderHandle {
	shared := &sharedCloser{close: ds.Close}
	h := &ReaderHandle{stream: ds, shared: shared}
	runtime.SetFinalizer(shared, finalizeClose)
	return h
}

// Read implements io.Reader by forwarding to the underlying stream.
func (h *ReaderHandle) Read(p []byte) (int, error) {
	return h.stream.Read(p)
}

// Close closes the underlying stream exactly once across all handles
// sharing it; subsequent calls on any handle return the first result.
func (h *ReaderHandle) Close() error {
	runtime.SetFinalizer(h.shared, nil)
	return h.shared.Close()
}

// Clone returns a second handle over the same stream and the same shared
// close state.
func (h *ReaderHandle) Clone() *ReaderHandle {
	return &ReaderHandle{stream: h.stream, shared: h.shared}
}

// Stream returns the wrapped download stream for callers needing the richer
// read modes (ReadBytes, ReadAll, EOF).
func (h *ReaderHandle) Stream() *DownloadStream { return h.stream }

// WriterHandle exposes an UploadStream as an io.WriteCloser.
type WriterHandle struct {
	stream *UploadStream
	shared *sharedCloser
}

// NewWriterHandle wraps an upload stream. The handle owns closing the
// stream; do not call stream.Close directly once a handle exists.
func NewWriterHandle(us *UploadStream) *WriterHandle {
	shared := &sharedCloser{close: us.Close}
	h := &WriterHandle{stream: us, shared: shared}
	runtime.SetFinalizer(shared, finalizeClose)
	return h
}

// Write implements io.Writer by forwarding to the underlying stream.
func (h *WriterHandle) Write(p []byte) (int, error) {
	return h.stream.Write(p)
}

// Close finalizes the upload exactly once across all handles sharing the
// stream; subsequent calls on any handle return the first result.
func (h *WriterHandle) Close() error {
	runtime.SetFinalizer(h.shared, nil)
	return h.shared.Close()
}

// Abort abandons the upload, discarding written chunks. The shared close
// state is marked done so later Close calls stay no-ops.
func (h *WriterHandle) Abort() error {
	var err error
	h.shared.once.Do(func() {
		err = h.stream.Abort()
		h.shared.err = err
	})
	runtime.SetFinalizer(h.shared, nil)
	return err
}

// Clone returns a second handle over the same stream and the same shared
// close state.
func (h *WriterHandle) Clone() *WriterHandle {
	return &WriterHandle{stream: h.stream, shared: h.shared}
}

// Stream returns the wrapped upload stream.
func (h *WriterHandle) Stream() *UploadStream { return h.stream }

// finalizeClose is the GC safety net for handles abandoned without Close.
func finalizeClose(s *sharedCloser) {
	s.once.Do(func() {
		logger.Warn("stream handle finalized without explicit close")
		s.err = s.close()
		if s.err != nil {
			logger.Warn("close during finalization", logger.KeyError, s.err.Error())
		}
	})
}
