// Package storetest provides a conformance suite that every docstore driver
// must pass. Driver packages call Run with a factory producing a fresh,
// empty store per subtest.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/marmos91/gridstore/pkg/docstore"
)

// Factory creates a fresh, empty store. Cleanup is registered on t, so the
// factory should use t.Cleanup for teardown.
type Factory func(t *testing.T) docstore.Store

type testDoc struct {
	ID       primitive.ObjectID `bson:"_id"`
	Filename string             `bson:"filename"`
	Length   int64              `bson:"length"`
	N        int32              `bson:"n"`
	Data     []byte             `bson:"data,omitempty"`
}

// Run executes the conformance suite against stores produced by factory.
func Run(t *testing.T, factory Factory) {
	t.Run("InsertAndFindOne", func(t *testing.T) { testInsertAndFindOne(t, factory) })
	t.Run("FindOneNotFound", func(t *testing.T) { testFindOneNotFound(t, factory) })
	t.Run("FindOneSorted", func(t *testing.T) { testFindOneSorted(t, factory) })
	t.Run("FindSortedCursor", func(t *testing.T) { testFindSortedCursor(t, factory) })
	t.Run("FindEmptyFilter", func(t *testing.T) { testFindEmptyFilter(t, factory) })
	t.Run("NumericWidening", func(t *testing.T) { testNumericWidening(t, factory) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, factory) })
	t.Run("DeleteNoMatch", func(t *testing.T) { testDeleteNoMatch(t, factory) })
	t.Run("Count", func(t *testing.T) { testCount(t, factory) })
	t.Run("DropCollection", func(t *testing.T) { testDropCollection(t, factory) })
	t.Run("CollectionIsolation", func(t *testing.T) { testCollectionIsolation(t, factory) })
}

func testInsertAndFindOne(t *testing.T, factory Factory) {
	store := factory(t)
	ctx := context.Background()
	coll := store.Collection("fs.files")

	id := primitive.NewObjectID()
	require.NoError(t, coll.Insert(ctx, testDoc{ID: id, Filename: "hello.txt", Length: 11}))

	var got testDoc
	require.NoError(t, coll.FindOne(ctx, docstore.Filter{"_id": id}, nil, &got))
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "hello.txt", got.Filename)
	assert.Equal(t, int64(11), got.Length)
}

func testFindOneNotFound(t *testing.T, factory Factory) {
	store := factory(t)
	ctx := context.Background()

	var got testDoc
	err := store.Collection("fs.files").FindOne(ctx, docstore.Filter{"filename": "missing"}, nil, &got)
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func testFindOneSorted(t *testing.T, factory Factory) {
	store := factory(t)
	ctx := context.Background()
	coll := store.Collection("fs.files")

	for i, name := range []string{"dup", "dup", "dup"} {
		require.NoError(t, coll.Insert(ctx, testDoc{
			ID:       primitive.NewObjectID(),
			Filename: name,
			N:        int32(i),
		}))
	}

	var newest testDoc
	require.NoError(t, coll.FindOne(ctx,
		docstore.Filter{"filename": "dup"},
		docstore.Descending("n"),
		&newest))
	assert.Equal(t, int32(2), newest.N)

	var oldest testDoc
	require.NoError(t, coll.FindOne(ctx,
		docstore.Filter{"filename": "dup"},
		docstore.Ascending("n"),
		&oldest))
	assert.Equal(t, int32(0), oldest.N)
}

func testFindSortedCursor(t *testing.T, factory Factory) {
	store := factory(t)
	ctx := context.Background()
	coll := store.Collection("fs.chunks")

	filesID := primitive.NewObjectID()
	// Insert out of order so sorting is actually exercised
	for _, n := range []int32{2, 0, 1} {
		require.NoError(t, coll.Insert(ctx, bson.M{
			"_id":      primitive.NewObjectID(),
			"files_id": filesID,
			"n":        n,
			"data":     primitive.Binary{Data: []byte{byte(n)}},
		}))
	}

	cur, err := coll.Find(ctx, docstore.Filter{"files_id": filesID}, docstore.Ascending("n"))
	require.NoError(t, err)
	defer cur.Close(ctx)

	var order []int32
	for cur.Next(ctx) {
		var doc struct {
			N int32 `bson:"n"`
		}
		require.NoError(t, cur.Decode(&doc))
		order = append(order, doc.N)
	}
	require.NoError(t, cur.Err())
	assert.Equal(t, []int32{0, 1, 2}, order)
}

func testFindEmptyFilter(t *testing.T, factory Factory) {
	store := factory(t)
	ctx := context.Background()
	coll := store.Collection("fs.files")

	for i := 0; i < 3; i++ {
		require.NoError(t, coll.Insert(ctx, testDoc{ID: primitive.NewObjectID(), N: int32(i)}))
	}

	cur, err := coll.Find(ctx, nil, nil)
	require.NoError(t, err)
	defer cur.Close(ctx)

	var count int
	for cur.Next(ctx) {
		count++
	}
	require.NoError(t, cur.Err())
	assert.Equal(t, 3, count)
}

func testNumericWidening(t *testing.T, factory Factory) {
	store := factory(t)
	ctx := context.Background()
	coll := store.Collection("fs.chunks")

	require.NoError(t, coll.Insert(ctx, bson.M{"n": int64(5)}))

	// An int32 filter value must match the stored int64
	n, err := coll.Count(ctx, docstore.Filter{"n": int32(5)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func testDelete(t *testing.T, factory Factory) {
	store := factory(t)
	ctx := context.Background()
	coll := store.Collection("fs.chunks")

	filesID := primitive.NewObjectID()
	other := primitive.NewObjectID()
	for n := int32(0); n < 4; n++ {
		require.NoError(t, coll.Insert(ctx, bson.M{"files_id": filesID, "n": n}))
	}
	require.NoError(t, coll.Insert(ctx, bson.M{"files_id": other, "n": int32(0)}))

	deleted, err := coll.Delete(ctx, docstore.Filter{"files_id": filesID})
	require.NoError(t, err)
	assert.Equal(t, int64(4), deleted)

	remaining, err := coll.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), remaining)
}

func testDeleteNoMatch(t *testing.T, factory Factory) {
	store := factory(t)
	ctx := context.Background()

	deleted, err := store.Collection("fs.chunks").Delete(ctx, docstore.Filter{"files_id": primitive.NewObjectID()})
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func testCount(t *testing.T, factory Factory) {
	store := factory(t)
	ctx := context.Background()
	coll := store.Collection("fs.files")

	for i := 0; i < 5; i++ {
		require.NoError(t, coll.Insert(ctx, testDoc{
			ID:       primitive.NewObjectID(),
			Filename: "batch",
			N:        int32(i % 2),
		}))
	}

	n, err := coll.Count(ctx, docstore.Filter{"filename": "batch", "n": int32(0)})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func testDropCollection(t *testing.T, factory Factory) {
	store := factory(t)
	ctx := context.Background()

	require.NoError(t, store.Collection("fs.files").Insert(ctx, testDoc{ID: primitive.NewObjectID()}))
	require.NoError(t, store.DropCollection(ctx, "fs.files"))

	n, err := store.Collection("fs.files").Count(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	// Dropping an absent collection is not an error
	require.NoError(t, store.DropCollection(ctx, "fs.files"))
}

func testCollectionIsolation(t *testing.T, factory Factory) {
	store := factory(t)
	ctx := context.Background()

	require.NoError(t, store.Collection("a.files").Insert(ctx, testDoc{ID: primitive.NewObjectID()}))
	require.NoError(t, store.Collection("b.files").Insert(ctx, testDoc{ID: primitive.NewObjectID()}))

	require.NoError(t, store.DropCollection(ctx, "a.files"))

	n, err := store.Collection("b.files").Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
