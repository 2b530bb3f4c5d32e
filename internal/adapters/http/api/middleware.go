package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/housecup/pkg/logger"
	"github.com/okian/housecup/pkg/metrics"
)

// instrument records request counters and latency for endpoint, classifies
// failed responses and turns a handler panic into a 500.
func instrument(endpoint string, l logger.Logger, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			if p := recover(); p != nil {
				l.Error(r.Context(), "handler panicked",
					logger.String("endpoint", endpoint),
					logger.String("panic", fmt.Sprint(p)),
				)
				if !rec.wrote {
					writeError(rec, http.StatusInternalServerError, "internal", nil)
				}
				rec.status = http.StatusInternalServerError
			}
			observe(r.Context(), l, endpoint, r.Method, rec.status, time.Since(start))
		}()

		next.ServeHTTP(rec, r)
	}
}

func observe(ctx context.Context, l logger.Logger, endpoint, method string, status int, took time.Duration) {
	ms := float64(took.Microseconds()) / 1000
	code := strconv.Itoa(status)
	metrics.RecordHTTPRequest(endpoint, method, code)
	metrics.RecordHTTPRequestDuration(endpoint, method, code, ms)

	if status < http.StatusBadRequest {
		return
	}
	kind, severity := classify(status)
	metrics.RecordErrorByEndpoint(endpoint, method, kind)
	metrics.RecordErrorByType(kind, severity)
	metrics.RecordErrorLatency("http", kind, ms)
	l.Debug(ctx, "request failed",
		logger.String("endpoint", endpoint),
		logger.String("method", method),
		logger.Int("status", status),
		logger.String("kind", kind),
	)
}

// classify maps a failed status to the error kind and severity labels.
func classify(status int) (kind, severity string) {
	switch {
	case status == http.StatusServiceUnavailable:
		return "store_unavailable", "high"
	case status >= http.StatusInternalServerError:
		return "server_error", "high"
	case status == http.StatusConflict:
		return "conflict", "medium"
	case status == http.StatusNotFound:
		return "not_found", "low"
	case status == http.StatusMethodNotAllowed:
		return "method_not_allowed", "low"
	default:
		return "client_error", "medium"
	}
}

// statusRecorder remembers the status written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (rw *statusRecorder) WriteHeader(code int) {
	if !rw.wrote {
		rw.status, rw.wrote = code, true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	rw.wrote = true
	return rw.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *statusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
