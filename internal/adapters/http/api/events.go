package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/housecup/internal/domain/dedupe"
	model "github.com/okian/housecup/internal/domain/model"
	"github.com/okian/housecup/internal/domain/standings"
	"github.com/okian/housecup/pkg/logger"
)

// IdempotencyHeader carries the client key that makes POST /events safe to retry.
const IdempotencyHeader = "Idempotency-Key"

// maxBodyBytes bounds request bodies. Winner photos may be inline data URLs.
const maxBodyBytes = 8 << 20

// EventsHandler handles the event collection and single events.
type EventsHandler struct {
	reader  Reader
	mutator Mutator
	keys    dedupe.Deduper
	logger  logger.Logger
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(reader Reader, mutator Mutator, keys dedupe.Deduper, l logger.Logger) *EventsHandler {
	if l == nil {
		l = logger.Nop()
	}
	return &EventsHandler{reader: reader, mutator: mutator, keys: keys, logger: l}
}

type eventsResponse struct {
	Events  []model.Event `json:"events"`
	Summary model.Summary `json:"summary"`
	Version uint64        `json:"version"`
	Stale   bool          `json:"stale"`
	Error   string        `json:"error,omitempty"`
}

type createResponse struct {
	ID        string `json:"id"`
	Duplicate bool   `json:"duplicate"`
}

// HandleCollection serves GET and POST /events.
func (h *EventsHandler) HandleCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

// HandleItem serves PUT and DELETE /events/{id}.
func (h *EventsHandler) HandleItem(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/events/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "not_found", NewKind("api.event", ErrNotFound))
		return
	}
	switch r.Method {
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		methodNotAllowed(w, http.MethodPut, http.MethodDelete)
	}
}

func (h *EventsHandler) list(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_events"
	q := r.URL.Query()
	f := model.Filter{
		Query:      q.Get("q"),
		Category:   model.Category(q.Get("category")),
		GradeLevel: model.GradeLevel(q.Get("grade")),
	}
	if f.Category != "" && !f.Category.Valid() {
		writeError(w, http.StatusBadRequest, "invalid_input",
			WrapKind(op, ErrBadRequest, fmt.Errorf("unknown category %q", f.Category)))
		return
	}
	if f.GradeLevel != "" && !f.GradeLevel.Valid() {
		writeError(w, http.StatusBadRequest, "invalid_input",
			WrapKind(op, ErrBadRequest, fmt.Errorf("unknown grade %q", f.GradeLevel)))
		return
	}

	v := h.reader.View()
	events := f.Apply(v.Events)
	writeJSON(w, http.StatusOK, eventsResponse{
		Events:  events,
		Summary: standings.Summarize(events),
		Version: v.Version,
		Stale:   v.Stale,
		Error:   errString(v.Err),
	})
}

func (h *EventsHandler) create(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_event"
	var draft model.EventDraft
	if err := decodeBody(w, r, &draft); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", WrapKind(op, ErrBadRequest, err))
		return
	}

	key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
	if key != "" {
		if id, seen := h.keys.SeenAndRecord(r.Context(), key); seen {
			if id == "" {
				writeError(w, http.StatusConflict, "in_progress",
					WrapKind(op, ErrConflict, errors.New("a request with this idempotency key is in progress")))
				return
			}
			writeJSON(w, http.StatusOK, createResponse{ID: id, Duplicate: true})
			return
		}
	}

	id, err := h.mutator.AddEvent(r.Context(), draft)
	if err != nil {
		if key != "" {
			// Let the client retry with the same key.
			h.keys.Unrecord(r.Context(), key)
		}
		writeMutationError(w, op, err)
		return
	}
	if key != "" {
		h.keys.Complete(r.Context(), key, id)
	}
	w.Header().Set("Location", "/events/"+id)
	writeJSON(w, http.StatusCreated, createResponse{ID: id})
}

func (h *EventsHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.update_event"
	var u model.EventUpdate
	if err := decodeBody(w, r, &u); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", WrapKind(op, ErrBadRequest, err))
		return
	}
	if u.ID != "" && u.ID != id {
		writeError(w, http.StatusBadRequest, "invalid_input",
			WrapKind(op, ErrBadRequest, fmt.Errorf("body id %q does not match path id %q", u.ID, id)))
		return
	}
	u.ID = id
	if err := h.mutator.UpdateEvent(r.Context(), u); err != nil {
		writeMutationError(w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *EventsHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.mutator.DeleteEvent(r.Context(), id); err != nil {
		writeMutationError(w, "api.delete_event", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
