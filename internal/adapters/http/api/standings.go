package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/housecup/internal/adapters/cache"
	"github.com/okian/housecup/internal/domain/standings"
	"github.com/okian/housecup/internal/domain/types"
	"github.com/okian/housecup/pkg/logger"
)

const keepAliveInterval = 25 * time.Second

// StandingsHandler serves the house table and its live stream.
type StandingsHandler struct {
	reader Reader
	logger logger.Logger
}

// NewStandingsHandler creates a new standings handler.
func NewStandingsHandler(reader Reader, l logger.Logger) *StandingsHandler {
	if l == nil {
		l = logger.Nop()
	}
	return &StandingsHandler{reader: reader, logger: l}
}

type standingsResponse struct {
	Standings []types.Standing `json:"standings"`
	Leader    *types.Standing  `json:"leader,omitempty"`
	Version   uint64           `json:"version"`
	Stale     bool             `json:"stale"`
	Error     string           `json:"error,omitempty"`
}

func newStandingsResponse(rows []types.Standing, v cache.View) standingsResponse {
	resp := standingsResponse{
		Standings: rows,
		Version:   v.Version,
		Stale:     v.Stale,
		Error:     errString(v.Err),
	}
	if leader, ok := types.Leader(rows); ok {
		resp.Leader = &leader
	}
	return resp
}

// HandleGetStandings handles GET /standings.
func (h *StandingsHandler) HandleGetStandings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	rows, v := h.reader.Standings()
	writeJSON(w, http.StatusOK, newStandingsResponse(rows, v))
}

// HandleStream handles GET /standings/stream as Server-Sent Events. Each
// cache view becomes one "standings" event; a slow client skips
// intermediate views and always receives the latest.
func (h *StandingsHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	const op = "api.standings_stream"
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	rc := http.NewResponseController(w)
	ctx := r.Context()
	// Subscribe before the headers go out so no view committed after the
	// client sees 200 can be missed.
	views := h.reader.Watch(ctx)
	// The stream outlives the server write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		h.logger.Warn(ctx, "stream flush unsupported", logger.Error(WrapKind(op, ErrStream, err)))
		return
	}

	memo := &standings.Memo{}
	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		case v, ok := <-views:
			if !ok {
				return
			}
			rows, _ := memo.Get(v.Version, v.Events)
			payload, err := json.Marshal(newStandingsResponse(rows, v))
			if err != nil {
				h.logger.Error(ctx, "encode standings", logger.Error(Wrap(op, err)))
				return
			}
			if _, err := fmt.Fprintf(w, "id: %d\nevent: standings\ndata: %s\n\n", v.Version, payload); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
