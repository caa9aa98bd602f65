package bucket

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/gridstore/pkg/docstore"
)

func TestDelete(t *testing.T) {
	b, store := newTestBucket(t, WithChunkSize(4))
	ctx := context.Background()

	id := upload(t, b, "doomed.bin", []byte("abcdefghij"))
	keep := upload(t, b, "kept.bin", []byte("stays"))

	require.NoError(t, b.Delete(ctx, id))

	chunks, err := store.Collection("fs.chunks").Count(ctx, docstore.Filter{"files_id": id})
	require.NoError(t, err)
	assert.Zero(t, chunks)

	_, err = b.Stat(ctx, id)
	assert.ErrorIs(t, err, ErrFileNotFound)

	// Unrelated file untouched
	assert.Equal(t, []byte("stays"), download(t, b, keep))
}

func TestDeleteNotFound(t *testing.T) {
	b, _ := newTestBucket(t)
	err := b.Delete(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestDeleteReclaimsOrphanedChunks(t *testing.T) {
	// Delete removes chunks even when no file document exists, which is the
	// cleanup path after a failed Close.
	b, store := newTestBucket(t, WithChunkSize(4))
	ctx := context.Background()

	us, err := b.OpenUploadStream(ctx, "orphan.bin")
	require.NoError(t, err)
	_, err = us.Write([]byte("abcdefgh"))
	require.NoError(t, err)

	injected := errors.New("boom")
	store.ErrHook = func(op, collection string) error {
		if op == "insert" && collection == "fs.files" {
			return injected
		}
		return nil
	}
	require.Error(t, us.Close())
	store.ErrHook = nil

	err = b.Delete(ctx, us.FileID)
	assert.ErrorIs(t, err, ErrFileNotFound)

	chunks, err := store.Collection("fs.chunks").Count(ctx, docstore.Filter{"files_id": us.FileID})
	require.NoError(t, err)
	assert.Zero(t, chunks)
}

func TestDrop(t *testing.T) {
	b, store := newTestBucket(t, WithChunkSize(4))
	ctx := context.Background()

	upload(t, b, "one.bin", []byte("abcdefghij"))
	upload(t, b, "two.bin", []byte("klmnop"))

	require.NoError(t, b.Drop(ctx))

	assert.Zero(t, store.Len("fs.files"))
	assert.Zero(t, store.Len("fs.chunks"))
}

func TestFind(t *testing.T) {
	b, _ := newTestBucket(t, WithChunkSize(4))
	ctx := context.Background()

	upload(t, b, "a.txt", []byte("aaa"))
	time.Sleep(5 * time.Millisecond)
	upload(t, b, "b.txt", []byte("bbb"))

	cur, err := b.Find(ctx, nil)
	require.NoError(t, err)
	defer cur.Close(ctx)

	var names []string
	for cur.Next(ctx) {
		var f File
		require.NoError(t, cur.Decode(&f))
		names = append(names, f.Filename)
	}
	require.NoError(t, cur.Err())

	// Newest first
	assert.Equal(t, []string{"b.txt", "a.txt"}, names)

	cur, err = b.Find(ctx, docstore.Filter{"filename": "a.txt"})
	require.NoError(t, err)
	defer cur.Close(ctx)

	var count int
	for cur.Next(ctx) {
		count++
	}
	assert.Equal(t, 1, count)
}

func TestUploadFromStream(t *testing.T) {
	b, _ := newTestBucket(t, WithChunkSize(8))
	ctx := context.Background()

	id, err := b.UploadFromStream(ctx, "streamed.txt", strings.NewReader("streamed content"))
	require.NoError(t, err)

	assert.Equal(t, []byte("streamed content"), download(t, b, id))
}

// errReader fails after yielding its prefix.
type errReader struct {
	prefix []byte
	err    error
	done   bool
}

func (r *errReader) Read(p []byte) (int, error) {
	if r.done {
		return 0, r.err
	}
	r.done = true
	return copy(p, r.prefix), nil
}

func TestUploadFromStreamAbortsOnReadError(t *testing.T) {
	b, store := newTestBucket(t, WithChunkSize(4))
	ctx := context.Background()

	boom := errors.New("source truncated")
	_, err := b.UploadFromStream(ctx, "failed.bin", &errReader{
		prefix: bytes.Repeat([]byte{0x7F}, 64),
		err:    boom,
	})
	require.ErrorIs(t, err, boom)

	// Nothing leaked
	assert.Zero(t, store.Len("fs.files"))
	assert.Zero(t, store.Len("fs.chunks"))
}

func TestDownloadToStream(t *testing.T) {
	b, _ := newTestBucket(t, WithChunkSize(4))
	ctx := context.Background()

	id := upload(t, b, "sink.txt", []byte("into the sink"))

	var out bytes.Buffer
	n, err := b.DownloadToStream(ctx, id, &out)
	require.NoError(t, err)
	assert.Equal(t, int64(13), n)
	assert.Equal(t, "into the sink", out.String())

	_, err = b.DownloadToStream(ctx, "missing", &out)
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestBucketDefaults(t *testing.T) {
	b, store := newTestBucket(t)
	assert.Equal(t, "fs", b.Name())
	assert.Equal(t, DefaultChunkSize, b.ChunkSize())

	named, err := New(store, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultName, named.Name())
}

func TestExpectedChunkLen(t *testing.T) {
	tests := []struct {
		length    int64
		chunkSize int32
		n         int32
		want      int64
	}{
		{10, 4, 0, 4},
		{10, 4, 1, 4},
		{10, 4, 2, 2},
		{8, 4, 1, 4}, // exact multiple: last chunk is full
		{3, 4, 0, 3},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, expectedChunkLen(tt.length, tt.chunkSize, tt.n),
			"length=%d chunkSize=%d n=%d", tt.length, tt.chunkSize, tt.n)
	}

	assert.Equal(t, int32(0), numChunks(0, 4))
	assert.Equal(t, int32(3), numChunks(10, 4))
	assert.Equal(t, int32(2), numChunks(8, 4))
}
