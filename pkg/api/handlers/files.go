package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/marmos91/gridstore/internal/logger"
	"github.com/marmos91/gridstore/pkg/bucket"
	"github.com/marmos91/gridstore/pkg/bufpool"
)

// FilesHandler exposes bucket operations over HTTP.
//
// Uploads stream the raw request body into an upload stream; downloads
// stream chunks straight into the response. Neither endpoint buffers whole
// objects in memory.
type FilesHandler struct {
	bucket *bucket.Bucket
}

// NewFilesHandler creates a files handler over the given bucket.
func NewFilesHandler(b *bucket.Bucket) *FilesHandler {
	return &FilesHandler{bucket: b}
}

// fileInfo is the JSON rendering of a file document.
type fileInfo struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	Length      int64     `json:"length"`
	ChunkSize   int32     `json:"chunk_size"`
	UploadDate  time.Time `json:"upload_date"`
	MD5         string    `json:"md5,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
}

func toFileInfo(f *bucket.File) fileInfo {
	return fileInfo{
		ID:          renderFileID(f.ID),
		Filename:    f.Filename,
		Length:      f.Length,
		ChunkSize:   f.ChunkSize,
		UploadDate:  f.UploadDate,
		MD5:         f.MD5,
		ContentType: f.ContentType,
	}
}

// renderFileID formats a file id for URLs and JSON.
func renderFileID(id any) string {
	if oid, ok := id.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return fmt.Sprintf("%v", id)
}

// parseFileID converts a path parameter back into a file id: a 24-char hex
// string becomes an ObjectID, anything else stays a plain string.
func parseFileID(s string) any {
	if oid, err := primitive.ObjectIDFromHex(s); err == nil {
		return oid
	}
	return s
}

// Upload handles POST /files?filename=NAME.
//
// The request body is the file content. Optional query parameters:
// chunk_size (bytes). The Content-Type header is recorded on the file
// document when set.
func (h *FilesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	filename := r.URL.Query().Get("filename")
	if filename == "" {
		badRequest(w, "filename query parameter is required")
		return
	}

	var opts []bucket.UploadOption
	if ct := r.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		opts = append(opts, bucket.WithContentType(ct))
	}
	if cs := r.URL.Query().Get("chunk_size"); cs != "" {
		var chunkSize int32
		if _, err := fmt.Sscanf(cs, "%d", &chunkSize); err != nil || chunkSize <= 0 {
			badRequest(w, "chunk_size must be a positive integer")
			return
		}
		opts = append(opts, bucket.WithUploadChunkSize(chunkSize))
	}

	id, err := h.bucket.UploadFromStream(r.Context(), filename, r.Body, opts...)
	if err != nil {
		logger.Error("upload failed",
			logger.KeyFilename, filename,
			logger.KeyError, err.Error())
		internalError(w, "upload failed")
		return
	}

	file, err := h.bucket.Stat(r.Context(), id)
	if err != nil {
		internalError(w, "upload succeeded but file lookup failed")
		return
	}

	writeJSON(w, http.StatusCreated, okResponse(toFileInfo(file)))
}

// Download handles GET /files/{id}.
//
// Streams the file content with its recorded content type and an ETag
// carrying the MD5 digest.
func (h *FilesHandler) Download(w http.ResponseWriter, r *http.Request) {
	id := parseFileID(chi.URLParam(r, "id"))

	ds, err := h.bucket.OpenDownloadStream(r.Context(), id)
	if errors.Is(err, bucket.ErrFileNotFound) {
		notFound(w, "file not found")
		return
	}
	if err != nil {
		internalError(w, "open download stream failed")
		return
	}
	defer func() {
		if err := ds.Close(); err != nil {
			logger.Warn("close download stream", logger.KeyError, err.Error())
		}
	}()

	file := ds.File()
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", file.Length))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	if file.MD5 != "" {
		w.Header().Set("ETag", fmt.Sprintf("%q", file.MD5))
	}

	buf := bufpool.Get(int(file.ChunkSize))
	defer bufpool.Put(buf)

	if _, err := io.CopyBuffer(w, ds, buf); err != nil {
		// Headers are out; all we can do is log
		logger.Error("download stream interrupted",
			logger.KeyFileID, file.ID,
			logger.KeyError, err.Error())
	}
}

// Info handles GET /files/{id}/info - file metadata without content.
func (h *FilesHandler) Info(w http.ResponseWriter, r *http.Request) {
	id := parseFileID(chi.URLParam(r, "id"))

	file, err := h.bucket.Stat(r.Context(), id)
	if errors.Is(err, bucket.ErrFileNotFound) {
		notFound(w, "file not found")
		return
	}
	if err != nil {
		internalError(w, "file lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, okResponse(toFileInfo(file)))
}

// List handles GET /files - all file documents, newest first.
func (h *FilesHandler) List(w http.ResponseWriter, r *http.Request) {
	cur, err := h.bucket.Find(r.Context(), nil)
	if err != nil {
		internalError(w, "list files failed")
		return
	}
	defer cur.Close(r.Context())

	infos := make([]fileInfo, 0)
	for cur.Next(r.Context()) {
		var f bucket.File
		if err := cur.Decode(&f); err != nil {
			internalError(w, "decode file document failed")
			return
		}
		infos = append(infos, toFileInfo(&f))
	}
	if err := cur.Err(); err != nil {
		internalError(w, "list files failed")
		return
	}

	writeJSON(w, http.StatusOK, okResponse(map[string]any{
		"files": infos,
		"count": len(infos),
	}))
}

// Delete handles DELETE /files/{id}.
func (h *FilesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := parseFileID(chi.URLParam(r, "id"))

	err := h.bucket.Delete(r.Context(), id)
	if errors.Is(err, bucket.ErrFileNotFound) {
		notFound(w, "file not found")
		return
	}
	if err != nil {
		internalError(w, "delete failed")
		return
	}

	writeJSON(w, http.StatusOK, okResponse(map[string]string{
		"deleted": renderFileID(id),
	}))
}
