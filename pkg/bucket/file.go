package bucket

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultChunkSize is the number of data bytes per chunk when a stream does
// not specify one: 256 KiB.
const DefaultChunkSize int32 = 256 * 1024

// maxBatchBytes bounds the data carried by a single chunk batch insert. The
// flush threshold is the largest multiple of the chunk size that fits under
// it; changing it affects how many insert calls an upload performs, never
// the resulting documents.
const maxBatchBytes = 16 * 1024 * 1024

// File is the metadata document that makes a stored object visible. It is
// written exactly once, by UploadStream.Close, after every chunk is durably
// stored; it is never updated in place.
type File struct {
	// ID uniquely identifies the file. Generated client-side before any
	// chunk is written; may be any BSON-compatible value.
	ID any `bson:"_id"`

	// Length is the total byte length of the object.
	Length int64 `bson:"length"`

	// ChunkSize is the number of data bytes per chunk for this file. Fixed
	// at stream creation; files within one bucket may differ.
	ChunkSize int32 `bson:"chunkSize"`

	// UploadDate is set when the upload is finalized.
	UploadDate time.Time `bson:"uploadDate"`

	// MD5 is the hex digest of the full byte sequence, computed
	// incrementally during upload.
	MD5 string `bson:"md5,omitempty"`

	// Filename is the display name. Not unique; several revisions of one
	// name may coexist.
	Filename string `bson:"filename,omitempty"`

	// Optional legacy fields, preserved when supplied but not interpreted.
	ContentType string   `bson:"contentType,omitempty"`
	Aliases     []string `bson:"aliases,omitempty"`
	Metadata    any      `bson:"metadata,omitempty"`
}

// chunkDoc is one binary slice of a stored object. Every chunk holds exactly
// ChunkSize bytes except the last, which holds the remainder.
type chunkDoc struct {
	ID      primitive.ObjectID `bson:"_id"`
	FilesID any                `bson:"files_id"`
	N       int32              `bson:"n"`
	Data    primitive.Binary   `bson:"data"`
}

// numChunks returns how many chunks a file of the given length has.
func numChunks(length int64, chunkSize int32) int32 {
	if length == 0 {
		return 0
	}
	return int32((length + int64(chunkSize) - 1) / int64(chunkSize))
}

// expectedChunkLen returns the byte length chunk n of a file must have.
func expectedChunkLen(length int64, chunkSize int32, n int32) int64 {
	last := numChunks(length, chunkSize) - 1
	if n < last {
		return int64(chunkSize)
	}
	rem := length % int64(chunkSize)
	if rem == 0 {
		return int64(chunkSize)
	}
	return rem
}

// flushThreshold returns the buffer size that triggers a chunk batch flush
// for the given chunk size: the largest multiple of chunkSize not exceeding
// the batch budget, and at least one chunk.
func flushThreshold(chunkSize int32, budget int) int {
	perBatch := budget / int(chunkSize)
	if perBatch < 1 {
		perBatch = 1
	}
	return perBatch * int(chunkSize)
}
