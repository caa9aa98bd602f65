package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/marmos91/gridstore/pkg/docstore"
	"github.com/marmos91/gridstore/pkg/docstore/storetest"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) docstore.Store {
		store := New()
		t.Cleanup(func() { _ = store.Close() })
		return store
	})
}

func TestErrHook(t *testing.T) {
	store := New()
	ctx := context.Background()
	coll := store.Collection("fs.files")

	require.NoError(t, coll.Insert(ctx, bson.M{"filename": "a"}))

	injected := errors.New("disk on fire")
	store.ErrHook = func(op, collection string) error {
		if op == "insert" && collection == "fs.files" {
			return injected
		}
		return nil
	}

	err := coll.Insert(ctx, bson.M{"filename": "b"})
	assert.ErrorIs(t, err, injected)

	// Other operations and collections are unaffected
	n, err := coll.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NoError(t, store.Collection("fs.chunks").Insert(ctx, bson.M{"n": int32(0)}))
}

func TestMutateDoc(t *testing.T) {
	store := New()
	ctx := context.Background()
	coll := store.Collection("fs.chunks")

	require.NoError(t, coll.Insert(ctx, bson.M{"n": int32(0), "data": []byte("abcd")}))

	err := store.MutateDoc("fs.chunks", docstore.Filter{"n": int32(0)}, func(doc bson.M) bson.M {
		doc["n"] = int32(7)
		return doc
	})
	require.NoError(t, err)

	n, err := coll.Count(ctx, docstore.Filter{"n": int32(7)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	err = store.MutateDoc("fs.chunks", docstore.Filter{"n": int32(99)}, func(doc bson.M) bson.M { return doc })
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestClosedStore(t *testing.T) {
	store := New()
	require.NoError(t, store.Close())

	err := store.Collection("fs.files").Insert(context.Background(), bson.M{})
	assert.ErrorIs(t, err, docstore.ErrStoreClosed)
}
