package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/housecup/pkg/metrics"
)

type healthResponse struct {
	Status  string `json:"status"`
	Version uint64 `json:"version"`
	Stale   bool   `json:"stale"`
	Error   string `json:"error,omitempty"`
}

// HealthHandler serves liveness and the Prometheus exposition.
type HealthHandler struct {
	reader  Reader
	metrics http.Handler
}

// NewHealthHandler creates a health handler reporting on reader's view.
func NewHealthHandler(reader Reader) *HealthHandler {
	return &HealthHandler{
		reader:  reader,
		metrics: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

// HandleHealth handles GET /healthz. The process is live while it answers;
// a stale view is reported as "degraded" with status 200.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	v := h.reader.View()
	resp := healthResponse{Status: "ok", Version: v.Version, Stale: v.Stale, Error: errString(v.Err)}
	if v.Stale {
		resp.Status = "degraded"
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleMetrics handles GET /metrics.
func (h *HealthHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}
