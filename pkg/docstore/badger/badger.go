// Package badger implements docstore.Store on an embedded Badger key-value
// database. Documents are stored as raw BSON under collection-prefixed keys,
// so a single-node deployment gets durable storage without running a
// database server.
package badger

import (
	"context"
	"encoding/binary"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/marmos91/gridstore/pkg/docstore"
)

// Key layout: "d:<collection>:<8-byte big-endian sequence>". The sequence
// preserves insertion order within a collection, which keeps unsorted scans
// deterministic.
const keyPrefix = "d:"

// seqKey is the internal key backing the document sequence. The "!" prefix
// keeps it outside every collection prefix.
var seqKey = []byte("!gridstore:docseq")

// Store is a Badger-backed document store.
type Store struct {
	db  *badger.DB
	seq *badger.Sequence
}

// Open opens (creating if needed) a Badger database at path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", path, err)
	}

	seq, err := db.GetSequence(seqKey, 128)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open document sequence: %w", err)
	}

	return &Store{db: db, seq: seq}, nil
}

// Type implements docstore.Store.
func (s *Store) Type() string { return "badger" }

// Collection implements docstore.Store.
func (s *Store) Collection(name string) docstore.Collection {
	return &collection{store: s, name: name}
}

// DropCollection implements docstore.Store.
func (s *Store) DropCollection(_ context.Context, name string) error {
	if err := s.db.DropPrefix(collPrefix(name)); err != nil {
		return docstore.WrapErr("drop", name, err)
	}
	return nil
}

// Close implements docstore.Store.
func (s *Store) Close() error {
	if err := s.seq.Release(); err != nil {
		_ = s.db.Close()
		return err
	}
	return s.db.Close()
}

func collPrefix(name string) []byte {
	return []byte(keyPrefix + name + ":")
}

type collection struct {
	store *Store
	name  string
}

func (c *collection) Name() string { return c.name }

// nextKey allocates the next document key for this collection.
func (c *collection) nextKey() ([]byte, error) {
	n, err := c.store.seq.Next()
	if err != nil {
		return nil, fmt.Errorf("next document sequence: %w", err)
	}
	prefix := collPrefix(c.name)
	key := make([]byte, len(prefix)+8)
	copy(key, prefix)
	binary.BigEndian.PutUint64(key[len(prefix):], n)
	return key, nil
}

func (c *collection) Insert(ctx context.Context, docs ...any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	wb := c.store.db.NewWriteBatch()
	defer wb.Cancel()

	for _, doc := range docs {
		raw, err := docstore.MarshalDoc(doc)
		if err != nil {
			return docstore.WrapErr("insert", c.name, err)
		}
		key, err := c.nextKey()
		if err != nil {
			return docstore.WrapErr("insert", c.name, err)
		}
		if err := wb.Set(key, raw); err != nil {
			return docstore.WrapErr("insert", c.name, err)
		}
	}

	if err := wb.Flush(); err != nil {
		return docstore.WrapErr("insert", c.name, err)
	}
	return nil
}

// scan walks the collection prefix and calls fn with each matching key and
// document. fn returns false to stop early.
func (c *collection) scan(filter docstore.Filter, fn func(key []byte, raw bson.Raw) bool) error {
	prefix := collPrefix(c.name)

	return c.store.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var matched bool
			var raw bson.Raw
			err := item.Value(func(val []byte) error {
				doc := bson.Raw(val)
				ok, merr := docstore.Match(doc, filter)
				if merr != nil {
					return merr
				}
				if ok {
					matched = true
					raw = bson.Raw(append([]byte(nil), val...))
				}
				return nil
			})
			if err != nil {
				return err
			}
			if matched && !fn(item.KeyCopy(nil), raw) {
				return nil
			}
		}
		return nil
	})
}

func (c *collection) FindOne(ctx context.Context, filter docstore.Filter, sort *docstore.Sort, out any) error {
	cur, err := c.Find(ctx, filter, sort)
	if err != nil {
		return err
	}
	defer cur.Close(ctx)

	if !cur.Next(ctx) {
		if err := cur.Err(); err != nil {
			return err
		}
		return docstore.ErrNotFound
	}
	return cur.Decode(out)
}

func (c *collection) Find(ctx context.Context, filter docstore.Filter, sort *docstore.Sort) (docstore.Cursor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var docs []bson.Raw
	err := c.scan(filter, func(_ []byte, raw bson.Raw) bool {
		docs = append(docs, raw)
		return true
	})
	if err != nil {
		return nil, docstore.WrapErr("find", c.name, err)
	}

	docstore.SortRaw(docs, sort)
	return docstore.NewRawCursor(docs), nil
}

func (c *collection) Delete(ctx context.Context, filter docstore.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var keys [][]byte
	err := c.scan(filter, func(key []byte, _ bson.Raw) bool {
		keys = append(keys, key)
		return true
	})
	if err != nil {
		return 0, docstore.WrapErr("delete", c.name, err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	wb := c.store.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range keys {
		if err := wb.Delete(key); err != nil {
			return 0, docstore.WrapErr("delete", c.name, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, docstore.WrapErr("delete", c.name, err)
	}
	return int64(len(keys)), nil
}

func (c *collection) Count(ctx context.Context, filter docstore.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var n int64
	err := c.scan(filter, func(_ []byte, _ bson.Raw) bool {
		n++
		return true
	})
	if err != nil {
		return 0, docstore.WrapErr("count", c.name, err)
	}
	return n, nil
}
