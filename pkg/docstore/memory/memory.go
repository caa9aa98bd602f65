// Package memory provides an in-process docstore.Store backed by plain
// slices of raw BSON documents. It exists for tests and for ephemeral
// single-process deployments where durability does not matter.
package memory

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/marmos91/gridstore/pkg/docstore"
)

// Store is an in-memory document store. The zero value is not usable; call
// New.
type Store struct {
	mu          sync.RWMutex
	collections map[string][]bson.Raw
	closed      bool

	// ErrHook, when set, is consulted before every collection operation with
	// the operation name ("insert", "find", "delete", "count") and the
	// collection name. A non-nil return aborts the operation with that
	// error. Tests use this to inject failures at precise points.
	ErrHook func(op, collection string) error
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{collections: make(map[string][]bson.Raw)}
}

// Type implements docstore.Store.
func (s *Store) Type() string { return "memory" }

// Collection implements docstore.Store.
func (s *Store) Collection(name string) docstore.Collection {
	return &collection{store: s, name: name}
}

// DropCollection implements docstore.Store.
func (s *Store) DropCollection(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return docstore.ErrStoreClosed
	}
	delete(s.collections, name)
	return nil
}

// Close implements docstore.Store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.collections = nil
	return nil
}

// Len reports the number of documents currently held in a collection.
// Intended for assertions in tests.
func (s *Store) Len(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[name])
}

// MutateDoc applies fn to the first document in the collection matching
// filter, replacing it with the returned document. It exists so tests can
// corrupt stored documents and exercise integrity checks.
func (s *Store) MutateDoc(name string, filter docstore.Filter, fn func(doc bson.M) bson.M) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.collections[name]
	for i, raw := range docs {
		ok, err := docstore.Match(raw, filter)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		var doc bson.M
		if err := bson.Unmarshal(raw, &doc); err != nil {
			return err
		}
		mutated, err := docstore.MarshalDoc(fn(doc))
		if err != nil {
			return err
		}
		docs[i] = mutated
		return nil
	}
	return docstore.ErrNotFound
}

type collection struct {
	store *Store
	name  string
}

func (c *collection) Name() string { return c.name }

// hook runs the store's ErrHook and checks for closure. Callers must not
// hold the store lock.
func (c *collection) hook(op string) error {
	c.store.mu.RLock()
	closed := c.store.closed
	c.store.mu.RUnlock()
	if closed {
		return docstore.ErrStoreClosed
	}
	if c.store.ErrHook != nil {
		if err := c.store.ErrHook(op, c.name); err != nil {
			return docstore.WrapErr(op, c.name, err)
		}
	}
	return nil
}

func (c *collection) Insert(ctx context.Context, docs ...any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.hook("insert"); err != nil {
		return err
	}

	raws := make([]bson.Raw, 0, len(docs))
	for _, doc := range docs {
		raw, err := docstore.MarshalDoc(doc)
		if err != nil {
			return docstore.WrapErr("insert", c.name, err)
		}
		raws = append(raws, raw)
	}

	c.store.mu.Lock()
	c.store.collections[c.name] = append(c.store.collections[c.name], raws...)
	c.store.mu.Unlock()
	return nil
}

// match returns copies of all raw documents matching filter, in insertion
// order.
func (c *collection) match(filter docstore.Filter) ([]bson.Raw, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	var out []bson.Raw
	for _, raw := range c.store.collections[c.name] {
		ok, err := docstore.Match(raw, filter)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, raw)
		}
	}
	return out, nil
}

func (c *collection) FindOne(ctx context.Context, filter docstore.Filter, sort *docstore.Sort, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.hook("find"); err != nil {
		return err
	}

	docs, err := c.match(filter)
	if err != nil {
		return docstore.WrapErr("find", c.name, err)
	}
	if len(docs) == 0 {
		return docstore.ErrNotFound
	}
	docstore.SortRaw(docs, sort)
	return bson.Unmarshal(docs[0], out)
}

func (c *collection) Find(ctx context.Context, filter docstore.Filter, sort *docstore.Sort) (docstore.Cursor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.hook("find"); err != nil {
		return nil, err
	}

	docs, err := c.match(filter)
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
	if err := c.hook("delete"); err != nil {
		return 0, err
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	docs := c.store.collections[c.name]
	kept := docs[:0]
	var deleted int64
	for _, raw := range docs {
		ok, err := docstore.Match(raw, filter)
		if err != nil {
			return deleted, docstore.WrapErr("delete", c.name, err)
		}
		if ok {
			deleted++
			continue
		}
		kept = append(kept, raw)
	}
	c.store.collections[c.name] = kept
	return deleted, nil
}

func (c *collection) Count(ctx context.Context, filter docstore.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := c.hook("count"); err != nil {
		return 0, err
	}

	docs, err := c.match(filter)
	if err != nil {
		return 0, docstore.WrapErr("count", c.name, err)
	}
	return int64(len(docs)), nil
}
