package api

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/gridstore/pkg/api/auth"
	"github.com/marmos91/gridstore/pkg/bucket"
	"github.com/marmos91/gridstore/pkg/docstore/memory"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestServer(t *testing.T, withAuth bool) (*httptest.Server, *auth.JWTService) {
	t.Helper()

	store := memory.New()
	t.Cleanup(func() { _ = store.Close() })

	b, err := bucket.New(store, "fs")
	require.NoError(t, err)

	var jwtService *auth.JWTService
	if withAuth {
		jwtService, err = auth.NewJWTService(auth.JWTConfig{Secret: testSecret})
		require.NoError(t, err)
	}

	srv := httptest.NewServer(NewRouter(store, b, jwtService))
	t.Cleanup(srv.Close)
	return srv, jwtService
}

func decodeResponse(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	var body struct {
		Status string         `json:"status"`
		Data   map[string]any `json:"data"`
		Error  string         `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	out := body.Data
	if out == nil {
		out = map[string]any{}
	}
	out["status"] = body.Status
	out["error"] = body.Error
	return out
}

func uploadFile(t *testing.T, srv *httptest.Server, filename string, content []byte) string {
	t.Helper()

	resp, err := http.Post(
		srv.URL+"/files?filename="+url.QueryEscape(filename),
		"text/plain",
		bytes.NewReader(content))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	data := decodeResponse(t, resp)
	id, ok := data["id"].(string)
	require.True(t, ok, "upload response should carry a file id")
	return id
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, false)

	t.Run("liveness", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/health")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		data := decodeResponse(t, resp)
		assert.Equal(t, "healthy", data["status"])
		assert.Equal(t, "gridstore", data["service"])
	})

	t.Run("readiness", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/health/ready")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		data := decodeResponse(t, resp)
		assert.Equal(t, "healthy", data["status"])
		assert.Equal(t, "memory", data["store_type"])
		assert.Equal(t, "fs", data["bucket"])
	})
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, false)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestUploadDownloadRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t, false)

	content := bytes.Repeat([]byte("gridstore round trip "), 100)
	id := uploadFile(t, srv, "roundtrip.txt", content)

	resp, err := http.Get(srv.URL + "/files/" + id)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "text/plain", resp.Header.Get("Content-Type"))
	assert.Equal(t, fmt.Sprintf("%d", len(content)), resp.Header.Get("Content-Length"))

	sum := md5.Sum(content)
	assert.Equal(t, fmt.Sprintf("%q", hex.EncodeToString(sum[:])), resp.Header.Get("ETag"))

	got, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestUploadRequiresFilename(t *testing.T) {
	srv, _ := newTestServer(t, false)

	resp, err := http.Post(srv.URL+"/files", "text/plain", strings.NewReader("data"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	data := decodeResponse(t, resp)
	assert.Equal(t, "error", data["status"])
}

func TestUploadRejectsInvalidChunkSize(t *testing.T) {
	srv, _ := newTestServer(t, false)

	for _, cs := range []string{"0", "-5", "abc"} {
		resp, err := http.Post(
			srv.URL+"/files?filename=x&chunk_size="+cs,
			"text/plain", strings.NewReader("data"))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "chunk_size=%s", cs)
	}
}

func TestFileInfo(t *testing.T) {
	srv, _ := newTestServer(t, false)

	content := []byte("info endpoint content")
	id := uploadFile(t, srv, "info.txt", content)

	resp, err := http.Get(srv.URL + "/files/" + id + "/info")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := decodeResponse(t, resp)
	assert.Equal(t, "info.txt", data["filename"])
	assert.Equal(t, float64(len(content)), data["length"])
	assert.Equal(t, float64(bucket.DefaultChunkSize), data["chunk_size"])
	assert.NotEmpty(t, data["md5"])
}

func TestListFiles(t *testing.T) {
	srv, _ := newTestServer(t, false)

	resp, err := http.Get(srv.URL + "/files")
	require.NoError(t, err)
	data := decodeResponse(t, resp)
	assert.Equal(t, float64(0), data["count"])

	uploadFile(t, srv, "a.txt", []byte("aaa"))
	uploadFile(t, srv, "b.txt", []byte("bbb"))

	resp, err = http.Get(srv.URL + "/files")
	require.NoError(t, err)
	data = decodeResponse(t, resp)
	assert.Equal(t, float64(2), data["count"])

	files, ok := data["files"].([]any)
	require.True(t, ok)
	require.Len(t, files, 2)
}

func TestDeleteFile(t *testing.T) {
	srv, _ := newTestServer(t, false)

	id := uploadFile(t, srv, "doomed.txt", []byte("short lived"))

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/files/"+id, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/files/" + id)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNotFoundResponses(t *testing.T) {
	srv, _ := newTestServer(t, false)

	missing := "aaaaaaaaaaaaaaaaaaaaaaaa"
	for _, path := range []string{
		"/files/" + missing,
		"/files/" + missing + "/info",
	} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/files/"+missing, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAuthRequiredWhenEnabled(t *testing.T) {
	srv, jwtService := newTestServer(t, true)

	// No token
	resp, err := http.Get(srv.URL + "/files")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Health stays public
	resp, err = http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Garbage token
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/files", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Valid token
	token, _, err := jwtService.GenerateToken("alice", auth.RoleUser)
	require.NoError(t, err)

	req, err = http.NewRequest(http.MethodGet, srv.URL+"/files", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDeleteRequiresAdmin(t *testing.T) {
	srv, jwtService := newTestServer(t, true)

	adminToken, _, err := jwtService.GenerateToken("root", auth.RoleAdmin)
	require.NoError(t, err)
	userToken, _, err := jwtService.GenerateToken("alice", auth.RoleUser)
	require.NoError(t, err)

	// Upload as regular user
	req, err := http.NewRequest(http.MethodPost,
		srv.URL+"/files?filename=guarded.txt",
		strings.NewReader("admin only deletion"))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+userToken)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	data := decodeResponse(t, resp)
	id := data["id"].(string)

	// User cannot delete
	req, err = http.NewRequest(http.MethodDelete, srv.URL+"/files/"+id, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+userToken)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Admin can
	req, err = http.NewRequest(http.MethodDelete, srv.URL+"/files/"+id, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServerStartStop(t *testing.T) {
	store := memory.New()
	defer store.Close()

	b, err := bucket.New(store, "fs")
	require.NoError(t, err)

	srv, err := NewServer(APIConfig{Port: 0}, store, b)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)
	go func() { errChan <- srv.Start(ctx) }()

	// Wait for the listener to come up
	var resp *http.Response
	require.Eventually(t, func() bool {
		if srv.Port() == 0 {
			return false
		}
		var err error
		resp, err = http.Get(fmt.Sprintf("http://127.0.0.1:%d/health", srv.Port()))
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	require.NoError(t, <-errChan)
}

func TestConfigDefaults(t *testing.T) {
	var cfg APIConfig
	cfg.ApplyDefaults()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "gridstore", cfg.JWT.Issuer)
	assert.False(t, cfg.HasJWTSecret())

	t.Setenv(EnvAPISecret, testSecret)
	assert.True(t, cfg.HasJWTSecret())
	assert.Equal(t, testSecret, cfg.GetJWTSecret())
}
