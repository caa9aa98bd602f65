package apiclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// FileInfo is the metadata the server returns for a stored file.
type FileInfo struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	Length      int64     `json:"length"`
	ChunkSize   int32     `json:"chunk_size"`
	UploadDate  time.Time `json:"upload_date"`
	MD5         string    `json:"md5,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
}

// UploadOption adjusts an upload request.
type UploadOption func(*uploadParams)

type uploadParams struct {
	contentType string
	chunkSize   int32
}

// WithContentType sets the Content-Type recorded on the file.
func WithContentType(ct string) UploadOption {
	return func(p *uploadParams) { p.contentType = ct }
}

// WithChunkSize sets the chunk size for this upload, in bytes.
func WithChunkSize(size int32) UploadOption {
	return func(p *uploadParams) { p.chunkSize = size }
}

// Upload streams r to the server as a new file and returns its metadata.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader, opts ...UploadOption) (*FileInfo, error) {
	var params uploadParams
	for _, opt := range opts {
		opt(&params)
	}

	q := url.Values{}
	q.Set("filename", filename)
	if params.chunkSize > 0 {
		q.Set("chunk_size", fmt.Sprintf("%d", params.chunkSize))
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/files?"+q.Encode(), r)
	if err != nil {
		return nil, err
	}
	contentType := params.contentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var info FileInfo
	if err := decodeEnvelope(resp, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Download opens a stream over the file's content. The caller must close
// the returned reader; info carries the metadata from the response headers.
func (c *Client) Download(ctx context.Context, id string) (io.ReadCloser, *FileInfo, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/files/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("download failed: %w", err)
	}

	if resp.StatusCode >= 400 {
		defer func() { _ = resp.Body.Close() }()
		return nil, nil, decodeEnvelope(resp, nil)
	}

	info := &FileInfo{
		ID:          id,
		Length:      resp.ContentLength,
		ContentType: resp.Header.Get("Content-Type"),
	}
	if etag := resp.Header.Get("ETag"); len(etag) >= 2 && etag[0] == '"' {
		info.MD5 = etag[1 : len(etag)-1]
	}
	return resp.Body, info, nil
}

// DownloadTo copies the file's content into w and returns the number of
// bytes written.
func (c *Client) DownloadTo(ctx context.Context, id string, w io.Writer) (int64, error) {
	body, _, err := c.Download(ctx, id)
	if err != nil {
		return 0, err
	}
	defer func() { _ = body.Close() }()
	return io.Copy(w, body)
}

// Info fetches a file's metadata without its content.
func (c *Client) Info(ctx context.Context, id string) (*FileInfo, error) {
	var info FileInfo
	if err := c.doJSON(ctx, http.MethodGet, "/files/"+url.PathEscape(id)+"/info", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// listResponse is the data payload of GET /files.
type listResponse struct {
	Files []FileInfo `json:"files"`
	Count int        `json:"count"`
}

// List returns every file in the bucket, newest first.
func (c *Client) List(ctx context.Context) ([]FileInfo, error) {
	var out listResponse
	if err := c.doJSON(ctx, http.MethodGet, "/files", nil, &out); err != nil {
		return nil, err
	}
	return out.Files, nil
}

// Delete removes a file and its chunks. Requires an admin token when the
// server has authentication enabled.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/files/"+url.PathEscape(id), nil, nil)
}

// HealthStatus is the data payload of the readiness endpoint.
type HealthStatus struct {
	StoreType string `json:"store_type"`
	Bucket    string `json:"bucket"`
	Files     int64  `json:"files"`
}

// Health checks the server's liveness endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/health", nil, nil)
}

// Ready checks the server's readiness endpoint and returns what it reports
// about the store.
func (c *Client) Ready(ctx context.Context) (*HealthStatus, error) {
	var status HealthStatus
	if err := c.doJSON(ctx, http.MethodGet, "/health/ready", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}
