package handlers

import (
	"net/http"

	"github.com/marmos91/gridstore/pkg/bucket"
	"github.com/marmos91/gridstore/pkg/docstore"
)

// HealthHandler handles health check endpoints.
//
// Health endpoints are unauthenticated and provide:
//   - Liveness probe: Is the server process running?
//   - Readiness probe: Can the document store serve queries?
type HealthHandler struct {
	store  docstore.Store
	bucket *bucket.Bucket
}

// NewHealthHandler creates a new health handler. Both parameters may be nil,
// in which case readiness reports unhealthy.
func NewHealthHandler(store docstore.Store, b *bucket.Bucket) *HealthHandler {
	return &HealthHandler{store: store, bucket: b}
}

// Liveness handles GET /health - simple liveness probe.
//
// Returns 200 OK whenever the server process is responsive; suitable for
// Kubernetes liveness probes.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthyResponse(map[string]string{
		"service": "gridstore",
	}))
}

// Readiness handles GET /health/ready - readiness probe.
//
// Runs a cheap count against the files collection to verify the document
// store answers queries. Returns 503 when it does not.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.store == nil || h.bucket == nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("store not initialized"))
		return
	}

	files, err := h.store.Collection(h.bucket.Name()+".files").Count(r.Context(), nil)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("store not reachable: "+err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, healthyResponse(map[string]any{
		"store_type": h.store.Type(),
		"bucket":     h.bucket.Name(),
		"files":      files,
	}))
}
