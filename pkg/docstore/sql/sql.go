// Package sql implements docstore.Store on a relational database through
// GORM. SQLite serves single-node deployments without external services;
// PostgreSQL serves deployments that already run one.
//
// Documents live in a single "documents" table as raw BSON blobs. The fields
// the bucket layer filters and sorts on (_id, files_id, n, filename) are
// extracted into indexed columns at insert time so chunk scans stay on an
// index; everything else is matched against the BSON after fetch.
package sql

import (
	"context"
	"fmt"

	"github.com/glebarez/sqlite"
	"go.mongodb.org/mongo-driver/bson"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/marmos91/gridstore/internal/logger"
	"github.com/marmos91/gridstore/pkg/docstore"
)

// DatabaseType identifies the SQL backend.
type DatabaseType string

const (
	DatabaseSQLite   DatabaseType = "sqlite"
	DatabasePostgres DatabaseType = "postgres"
)

// Config holds SQL store configuration.
type Config struct {
	// Type selects the backend: "sqlite" or "postgres".
	Type DatabaseType `mapstructure:"type" yaml:"type" validate:"required,oneof=sqlite postgres"`

	// DSN is the data source name. For SQLite this is a file path (or
	// ":memory:"); for PostgreSQL a connection string.
	DSN string `mapstructure:"dsn" yaml:"dsn" validate:"required"`
}

// document is the table row wrapping one BSON document.
type document struct {
	ID         uint64  `gorm:"primaryKey;autoIncrement"`
	Collection string  `gorm:"size:255;not null;index:idx_documents_collection;index:idx_documents_doc_id,priority:1;index:idx_documents_chunk,priority:1;index:idx_documents_filename,priority:1"`
	DocID      *string `gorm:"column:doc_id;size:191;index:idx_documents_doc_id,priority:2"`
	FilesID    *string `gorm:"column:files_id;size:191;index:idx_documents_chunk,priority:2"`
	N          *int32  `gorm:"index:idx_documents_chunk,priority:3"`
	Filename   *string `gorm:"size:1024;index:idx_documents_filename,priority:2"`
	Doc        []byte  `gorm:"not null"`
}

func (document) TableName() string { return "documents" }

// Store is a SQL-backed document store.
type Store struct {
	db     *gorm.DB
	dbType DatabaseType
}

// Open connects to the configured database and brings the schema up to date.
// SQLite uses GORM auto-migration; PostgreSQL runs the embedded versioned
// migrations.
func Open(cfg Config) (*Store, error) {
	var dialector gorm.Dialector
	switch cfg.Type {
	case DatabaseSQLite:
		dialector = sqlite.Open(cfg.DSN)
	case DatabasePostgres:
		if err := runPostgresMigrations(cfg.DSN); err != nil {
			return nil, err
		}
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Type, err)
	}

	if cfg.Type == DatabaseSQLite {
		if err := db.AutoMigrate(&document{}); err != nil {
			return nil, fmt.Errorf("migrate sqlite schema: %w", err)
		}
	}

	logger.Debug("sql document store opened",
		logger.KeyStoreType, string(cfg.Type))

	return &Store{db: db, dbType: cfg.Type}, nil
}

// Type implements docstore.Store.
func (s *Store) Type() string { return string(s.dbType) }

// Collection implements docstore.Store.
func (s *Store) Collection(name string) docstore.Collection {
	return &collection{store: s, name: name}
}

// DropCollection implements docstore.Store.
func (s *Store) DropCollection(ctx context.Context, name string) error {
	res := s.db.WithContext(ctx).Where("collection = ?", name).Delete(&document{})
	if res.Error != nil {
		return docstore.WrapErr("drop", name, res.Error)
	}
	return nil
}

// Close implements docstore.Store.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type collection struct {
	store *Store
	name  string
}

func (c *collection) Name() string { return c.name }

// indexedString extracts a filterable field from a raw document as its
// canonical key string, or nil when the field is absent.
func indexedString(raw bson.Raw, field string) *string {
	val, ok := docstore.LookupValue(raw, field)
	if !ok {
		return nil
	}
	s := docstore.KeyString(val)
	return &s
}

// indexedN extracts the chunk sequence number, or nil when absent.
func indexedN(raw bson.Raw) *int32 {
	val, ok := docstore.LookupValue(raw, "n")
	if !ok {
		return nil
	}
	if n, ok := val.Int32OK(); ok {
		return &n
	}
	if n, ok := val.Int64OK(); ok {
		n32 := int32(n)
		return &n32
	}
	return nil
}

// indexedFilename extracts the filename as plain text, or nil when absent.
func indexedFilename(raw bson.Raw) *string {
	val, ok := docstore.LookupValue(raw, "filename")
	if !ok {
		return nil
	}
	if s, ok := val.StringValueOK(); ok {
		return &s
	}
	return nil
}

func (c *collection) Insert(ctx context.Context, docs ...any) error {
	rows := make([]document, 0, len(docs))
	for _, doc := range docs {
		raw, err := docstore.MarshalDoc(doc)
		if err != nil {
			return docstore.WrapErr("insert", c.name, err)
		}
		rows = append(rows, document{
			Collection: c.name,
			DocID:      indexedString(raw, "_id"),
			FilesID:    indexedString(raw, "files_id"),
			N:          indexedN(raw),
			Filename:   indexedFilename(raw),
			Doc:        raw,
		})
	}

	if err := c.store.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return docstore.WrapErr("insert", c.name, err)
	}
	return nil
}

// query builds the narrowed SQL query for filter: indexed fields become
// WHERE clauses, the rest is matched in memory by the caller.
func (c *collection) query(ctx context.Context, filter docstore.Filter) (*gorm.DB, error) {
	q := c.store.db.WithContext(ctx).
		Model(&document{}).
		Where("collection = ?", c.name)

	for key, val := range filter {
		switch key {
		case "_id", "files_id":
			col := "doc_id"
			if key == "files_id" {
				col = "files_id"
			}
			typ, data, err := bson.MarshalValue(val)
			if err != nil {
				return nil, fmt.Errorf("marshal filter value for %q: %w", key, err)
			}
			q = q.Where(col+" = ?", docstore.KeyString(bson.RawValue{Type: typ, Value: data}))
		case "n":
			q = q.Where("n = ?", val)
		case "filename":
			q = q.Where("filename = ?", val)
		}
	}
	return q, nil
}

// fetch loads all documents matching filter, fully matched and sorted.
func (c *collection) fetch(ctx context.Context, filter docstore.Filter, sort *docstore.Sort) ([]bson.Raw, error) {
	q, err := c.query(ctx, filter)
	if err != nil {
		return nil, err
	}

	var rows []document
	if err := q.Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}

	docs := make([]bson.Raw, 0, len(rows))
	for _, row := range rows {
		raw := bson.Raw(row.Doc)
		ok, err := docstore.Match(raw, filter)
		if err != nil {
			return nil, err
		}
		if ok {
			docs = append(docs, raw)
		}
	}

	docstore.SortRaw(docs, sort)
	return docs, nil
}

func (c *collection) FindOne(ctx context.Context, filter docstore.Filter, sort *docstore.Sort, out any) error {
	docs, err := c.fetch(ctx, filter, sort)
	if err != nil {
		return docstore.WrapErr("find", c.name, err)
	}
	if len(docs) == 0 {
		return docstore.ErrNotFound
	}
	return bson.Unmarshal(docs[0], out)
}

func (c *collection) Find(ctx context.Context, filter docstore.Filter, sort *docstore.Sort) (docstore.Cursor, error) {
	docs, err := c.fetch(ctx, filter, sort)
	if err != nil {
		return nil, docstore.WrapErr("find", c.name, err)
	}
	return docstore.NewRawCursor(docs), nil
}

func (c *collection) Delete(ctx context.Context, filter docstore.Filter) (int64, error) {
	// Fast path: every filter key is indexed, delete directly in SQL.
	allIndexed := true
	for key := range filter {
		switch key {
		case "_id", "files_id", "n", "filename":
		default:
			allIndexed = false
		}
	}

	if allIndexed {
		q, err := c.query(ctx, filter)
		if err != nil {
			return 0, docstore.WrapErr("delete", c.name, err)
		}
		res := q.Delete(&document{})
		if res.Error != nil {
			return 0, docstore.WrapErr("delete", c.name, res.Error)
		}
		return res.RowsAffected, nil
	}

	// Slow path: match in memory, delete by row id.
	q, err := c.query(ctx, filter)
	if err != nil {
		return 0, docstore.WrapErr("delete", c.name, err)
	}
	var rows []document
	if err := q.Find(&rows).Error; err != nil {
		return 0, docstore.WrapErr("delete", c.name, err)
	}

	var ids []uint64
	for _, row := range rows {
		ok, err := docstore.Match(bson.Raw(row.Doc), filter)
		if err != nil {
			return 0, docstore.WrapErr("delete", c.name, err)
		}
		if ok {
			ids = append(ids, row.ID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}

	res := c.store.db.WithContext(ctx).Where("id IN ?", ids).Delete(&document{})
	if res.Error != nil {
		return 0, docstore.WrapErr("delete", c.name, res.Error)
	}
	return res.RowsAffected, nil
}

func (c *collection) Count(ctx context.Context, filter docstore.Filter) (int64, error) {
	docs, err := c.fetch(ctx, filter, nil)
	if err != nil {
		return 0, docstore.WrapErr("count", c.name, err)
	}
	return int64(len(docs)), nil
}
