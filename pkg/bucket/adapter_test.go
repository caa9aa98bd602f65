package bucket

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterHandleCopy(t *testing.T) {
	b, _ := newTestBucket(t, WithChunkSize(4))
	ctx := context.Background()

	us, err := b.OpenUploadStream(ctx, "copied.txt")
	require.NoError(t, err)

	h := NewWriterHandle(us)
	n, err := io.Copy(h, strings.NewReader("copy me through a generic writer"))
	require.NoError(t, err)
	require.NoError(t, h.Close())

	assert.Equal(t, int64(32), n)
	assert.Equal(t, []byte("copy me through a generic writer"), download(t, b, us.FileID))
}

func TestReaderHandleCopy(t *testing.T) {
	b, _ := newTestBucket(t, WithChunkSize(4))
	ctx := context.Background()

	id := upload(t, b, "piped.txt", []byte("pipe me through a generic reader"))

	ds, err := b.OpenDownloadStream(ctx, id)
	require.NoError(t, err)

	h := NewReaderHandle(ds)
	var out bytes.Buffer
	_, err = io.Copy(&out, h)
	require.NoError(t, err)
	require.NoError(t, h.Close())

	assert.Equal(t, "pipe me through a generic reader", out.String())
}

func TestClonedHandlesShareClose(t *testing.T) {
	b, _ := newTestBucket(t, WithChunkSize(4))
	ctx := context.Background()

	id := upload(t, b, "shared.txt", []byte("shared"))

	ds, err := b.OpenDownloadStream(ctx, id)
	require.NoError(t, err)

	h1 := NewReaderHandle(ds)
	h2 := h1.Clone()

	require.NoError(t, h1.Close())

	// Closing one handle closed the shared stream
	_, err = h2.Stream().Read(make([]byte, 1))
	assert.ErrorIs(t, err, ErrStreamClosed)

	// The second handle's close is a no-op returning the first result
	assert.NoError(t, h2.Close())
	assert.NoError(t, h1.Close())
}

func TestClonedWriterHandlesShareClose(t *testing.T) {
	b, store := newTestBucket(t, WithChunkSize(4))
	ctx := context.Background()

	us, err := b.OpenUploadStream(ctx, "cloned.txt")
	require.NoError(t, err)

	h1 := NewWriterHandle(us)
	h2 := h1.Clone()

	_, err = h1.Write([]byte("written via handle one"))
	require.NoError(t, err)
	require.NoError(t, h2.Close())
	assert.NoError(t, h1.Close())

	// Exactly one file document was written
	assert.Equal(t, 1, store.Len("fs.files"))
	assert.Equal(t, []byte("written via handle one"), download(t, b, us.FileID))
}

func TestWriterHandleAbort(t *testing.T) {
	b, store := newTestBucket(t, WithChunkSize(4))
	ctx := context.Background()

	us, err := b.OpenUploadStream(ctx, "discarded.txt")
	require.NoError(t, err)

	h := NewWriterHandle(us)
	_, err = h.Write([]byte("to be discarded"))
	require.NoError(t, err)
	require.NoError(t, h.Abort())

	// Close after Abort is a no-op; nothing was persisted
	assert.NoError(t, h.Close())
	assert.Zero(t, store.Len("fs.files"))
	assert.Zero(t, store.Len("fs.chunks"))
}
