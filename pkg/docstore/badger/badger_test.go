package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/marmos91/gridstore/pkg/docstore"
	"github.com/marmos91/gridstore/pkg/docstore/storetest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) docstore.Store {
		return newTestStore(t)
	})
}

func TestReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, store.Collection("fs.files").Insert(ctx, bson.M{"filename": "persisted"}))
	require.NoError(t, store.Close())

	store, err = Open(dir)
	require.NoError(t, err)
	defer store.Close()

	n, err := store.Collection("fs.files").Count(ctx, docstore.Filter{"filename": "persisted"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestPrefixIsolation(t *testing.T) {
	// Collection names that are prefixes of each other must not collide
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Collection("fs").Insert(ctx, bson.M{"a": 1}))
	require.NoError(t, store.Collection("fs.files").Insert(ctx, bson.M{"b": 2}))

	n, err := store.Collection("fs").Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
