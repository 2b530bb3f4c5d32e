// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/housecup/internal/adapters/cache"
	"github.com/okian/housecup/internal/domain/dedupe"
	model "github.com/okian/housecup/internal/domain/model"
	"github.com/okian/housecup/internal/domain/types"
	"github.com/okian/housecup/pkg/logger"
)

// Reader exposes the cached collection.
type Reader interface {
	View() cache.View
	Standings() ([]types.Standing, cache.View)
	Watch(ctx context.Context) <-chan cache.View
}

// Mutator forwards writes to the store.
type Mutator interface {
	AddEvent(ctx context.Context, draft model.EventDraft) (string, error)
	UpdateEvent(ctx context.Context, update model.EventUpdate) error
	DeleteEvent(ctx context.Context, id string) error
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Reader
	Mutator
	dedupe.Deduper
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	eventsHandler    *EventsHandler
	standingsHandler *StandingsHandler
	exportHandler    *ExportHandler
	logger           logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	o := options{logger: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{
		healthHandler:    NewHealthHandler(deps),
		statsHandler:     NewStatsHandler(statsProvider),
		eventsHandler:    NewEventsHandler(deps, deps, deps, o.logger),
		standingsHandler: NewStandingsHandler(deps, o.logger),
		exportHandler:    NewExportHandler(deps),
		logger:           o.logger,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	routes := []struct {
		pattern  string
		endpoint string
		handler  http.HandlerFunc
	}{
		{"/healthz", "healthz", s.healthHandler.HandleHealth},
		{"/metrics", "metrics", s.healthHandler.HandleMetrics},
		{"/stats", "stats", s.statsHandler.HandleStats},
		{"/events", "events", s.eventsHandler.HandleCollection},
		{"/events/", "event", s.eventsHandler.HandleItem},
		{"/standings", "standings", s.standingsHandler.HandleGetStandings},
		{"/standings/stream", "standings_stream", s.standingsHandler.HandleStream},
		{"/export/results.csv", "export_csv", s.exportHandler.HandleCSV},
		{"/export/results.xlsx", "export_xlsx", s.exportHandler.HandleXLSX},
	}
	for _, rt := range routes {
		mux.HandleFunc(rt.pattern, instrument(rt.endpoint, s.logger, rt.handler))
	}
}

type errorResponse struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	resp := errorResponse{Code: code, Message: msg}
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		resp.Details = verr.Problems
	}
	writeJSON(w, status, resp)
}

// writeMutationError maps gateway errors onto the public error codes.
func writeMutationError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, model.ErrValidation):
		writeError(w, http.StatusBadRequest, "invalid_input", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	default:
		writeError(w, http.StatusServiceUnavailable, "could_not_save", Wrap(op, err))
	}
}
