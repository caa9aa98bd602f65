// Package docstore defines the document store abstraction that file and chunk
// documents are persisted through. A Store exposes named collections of BSON
// documents supporting insert, equality-filtered queries with single-key
// sorting, and bulk delete.
//
// Four drivers implement the interface: mongo (backed by a MongoDB database),
// memory (in-process, for tests and ephemeral use), badger (embedded
// key-value), and sql (SQLite or PostgreSQL through GORM).
package docstore

import "context"

// Filter selects documents by exact equality on field values.
// Keys are BSON field names; values are compared after BSON normalization,
// so int(5) matches a stored int64(5).
//
// An empty or nil Filter matches every document.
type Filter map[string]any

// Sort orders query results by a single field.
type Sort struct {
	Key  string
	Desc bool
}

// Ascending returns a Sort on key in ascending order.
func Ascending(key string) *Sort {
	return &Sort{Key: key}
}

// Descending returns a Sort on key in descending order.
func Descending(key string) *Sort {
	return &Sort{Key: key, Desc: true}
}

// Store is a handle to a document database. Implementations must be safe for
// concurrent use.
type Store interface {
	// Collection returns a handle to the named collection. Collections come
	// into existence on first insert; asking for a handle never fails.
	Collection(name string) Collection

	// DropCollection removes the named collection and all its documents.
	// Dropping a collection that does not exist is not an error.
	DropCollection(ctx context.Context, name string) error

	// Type identifies the driver: "mongo", "memory", "badger", "sqlite"
	// or "postgres".
	Type() string

	// Close releases resources held by the store.
	Close() error
}

// Collection is a named set of BSON documents.
type Collection interface {
	// Name returns the collection name.
	Name() string

	// Insert stores one or more documents. Documents are any value that
	// bson.Marshal accepts.
	Insert(ctx context.Context, docs ...any) error

	// FindOne decodes the first document matching filter into out, honoring
	// sort if non-nil. Returns ErrNotFound when nothing matches.
	FindOne(ctx context.Context, filter Filter, sort *Sort, out any) error

	// Find returns a cursor over all documents matching filter, ordered by
	// sort if non-nil. The caller must close the cursor.
	Find(ctx context.Context, filter Filter, sort *Sort) (Cursor, error)

	// Delete removes all documents matching filter and reports how many
	// were removed. Deleting with a filter that matches nothing is not an
	// error and reports zero.
	Delete(ctx context.Context, filter Filter) (int64, error)

	// Count reports how many documents match filter.
	Count(ctx context.Context, filter Filter) (int64, error)
}

// Cursor iterates over a query result set.
//
//	cur, err := coll.Find(ctx, filter, sort)
//	if err != nil { ... }
//	defer cur.Close(ctx)
//	for cur.Next(ctx) {
//	    var doc chunkDoc
//	    if err := cur.Decode(&doc); err != nil { ... }
//	}
//	if err := cur.Err(); err != nil { ... }
type Cursor interface {
	// Next advances to the next document, reporting false at the end of the
	// result set or on error.
	Next(ctx context.Context) bool

	// Decode unmarshals the current document into out.
	Decode(out any) error

	// Err returns the error that terminated iteration, if any.
	Err() error

	// Close releases resources held by the cursor.
	Close(ctx context.Context) error
}
