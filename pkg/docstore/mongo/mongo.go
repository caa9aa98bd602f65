// Package mongo implements docstore.Store on top of a MongoDB database using
// the official driver. This is the production driver: file and chunk
// documents map one-to-one onto MongoDB collections, so buckets written
// through it are readable by any GridFS-compatible client.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/marmos91/gridstore/pkg/docstore"
)

// Store adapts a mongo.Database to the docstore interface.
type Store struct {
	client     *mongo.Client
	db         *mongo.Database
	ownsClient bool
}

// Connect dials the MongoDB deployment at uri and returns a store over the
// named database. Close disconnects the underlying client.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return &Store{
		client:     client,
		db:         client.Database(database),
		ownsClient: true,
	}, nil
}

// NewFromDatabase wraps an existing database handle. Close does not
// disconnect the client; the caller keeps ownership.
func NewFromDatabase(db *mongo.Database) *Store {
	return &Store{client: db.Client(), db: db}
}

// Type implements docstore.Store.
func (s *Store) Type() string { return "mongo" }

// Collection implements docstore.Store.
func (s *Store) Collection(name string) docstore.Collection {
	return &collection{coll: s.db.Collection(name)}
}

// DropCollection implements docstore.Store.
func (s *Store) DropCollection(ctx context.Context, name string) error {
	if err := s.db.Collection(name).Drop(ctx); err != nil {
		return docstore.WrapErr("drop", name, err)
	}
	return nil
}

// Close implements docstore.Store.
func (s *Store) Close() error {
	if !s.ownsClient {
		return nil
	}
	return s.client.Disconnect(context.Background())
}

type collection struct {
	coll *mongo.Collection
}

func (c *collection) Name() string { return c.coll.Name() }

// toBSON converts an equality filter into driver filter syntax.
func toBSON(filter docstore.Filter) bson.D {
	if len(filter) == 0 {
		return bson.D{}
	}
	d := make(bson.D, 0, len(filter))
	for key, val := range filter {
		d = append(d, bson.E{Key: key, Value: val})
	}
	return d
}

// toSortDoc converts a Sort into driver sort syntax.
func toSortDoc(sort *docstore.Sort) bson.D {
	if sort == nil || sort.Key == "" {
		return nil
	}
	dir := 1
	if sort.Desc {
		dir = -1
	}
	return bson.D{{Key: sort.Key, Value: dir}}
}

func (c *collection) Insert(ctx context.Context, docs ...any) error {
	var err error
	if len(docs) == 1 {
		_, err = c.coll.InsertOne(ctx, docs[0])
	} else {
		_, err = c.coll.InsertMany(ctx, docs)
	}
	return docstore.WrapErr("insert", c.coll.Name(), err)
}

func (c *collection) FindOne(ctx context.Context, filter docstore.Filter, sort *docstore.Sort, out any) error {
	opts := options.FindOne()
	if s := toSortDoc(sort); s != nil {
		opts.SetSort(s)
	}

	err := c.coll.FindOne(ctx, toBSON(filter), opts).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return docstore.ErrNotFound
	}
	return docstore.WrapErr("find", c.coll.Name(), err)
}

func (c *collection) Find(ctx context.Context, filter docstore.Filter, sort *docstore.Sort) (docstore.Cursor, error) {
	opts := options.Find()
	if s := toSortDoc(sort); s != nil {
		opts.SetSort(s)
	}

	cur, err := c.coll.Find(ctx, toBSON(filter), opts)
	if err != nil {
		return nil, docstore.WrapErr("find", c.coll.Name(), err)
	}
	return &cursor{cur: cur}, nil
}

func (c *collection) Delete(ctx context.Context, filter docstore.Filter) (int64, error) {
	res, err := c.coll.DeleteMany(ctx, toBSON(filter))
	if err != nil {
		return 0, docstore.WrapErr("delete", c.coll.Name(), err)
	}
	return res.DeletedCount, nil
}

func (c *collection) Count(ctx context.Context, filter docstore.Filter) (int64, error) {
	n, err := c.coll.CountDocuments(ctx, toBSON(filter))
	if err != nil {
		return 0, docstore.WrapErr("count", c.coll.Name(), err)
	}
	return n, nil
}

type cursor struct {
	cur *mongo.Cursor
}

func (c *cursor) Next(ctx context.Context) bool  { return c.cur.Next(ctx) }
func (c *cursor) Decode(out any) error           { return c.cur.Decode(out) }
func (c *cursor) Err() error                     { return c.cur.Err() }
func (c *cursor) Close(ctx context.Context) error { return c.cur.Close(ctx) }
