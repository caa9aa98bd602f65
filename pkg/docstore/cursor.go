package docstore

import (
	"context"
	"io"

	"go.mongodb.org/mongo-driver/bson"
)

// RawCursor is a Cursor over an in-memory slice of raw documents. The
// embedded drivers materialize their result sets up front and hand them out
// through this type.
type RawCursor struct {
	docs   []bson.Raw
	pos    int
	err    error
	closed bool
}

// NewRawCursor returns a cursor positioned before the first document.
func NewRawCursor(docs []bson.Raw) *RawCursor {
	return &RawCursor{docs: docs, pos: -1}
}

// Next advances to the next document.
func (c *RawCursor) Next(ctx context.Context) bool {
	if c.closed || c.err != nil {
		return false
	}
	if err := ctx.Err(); err != nil {
		c.err = err
		return false
	}
	if c.pos+1 >= len(c.docs) {
		return false
	}
	c.pos++
	return true
}

// Decode unmarshals the current document into out.
func (c *RawCursor) Decode(out any) error {
	if c.closed {
		return io.ErrClosedPipe
	}
	if c.pos < 0 || c.pos >= len(c.docs) {
		return ErrNotFound
	}
	return bson.Unmarshal(c.docs[c.pos], out)
}

// Err returns the error that stopped iteration, if any.
func (c *RawCursor) Err() error {
	return c.err
}

// Close marks the cursor exhausted.
func (c *RawCursor) Close(_ context.Context) error {
	c.closed = true
	c.docs = nil
	return nil
}
