// Package gateway validates mutations and forwards them to the event store.
// It never touches the cache: a write becomes visible only through the next
// snapshot the store delivers.
package gateway

import (
	"context"
	"strings"
	"time"

	model "github.com/okian/housecup/internal/domain/model"
	"github.com/okian/housecup/internal/domain/points"
	"github.com/okian/housecup/pkg/logger"
	"github.com/okian/housecup/pkg/metrics"
)

// Operation names used in errors, logs and metrics.
const (
	OpAdd    = "add"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Writer is the write half of the event store.
type Writer interface {
	Create(ctx context.Context, e model.Event) (string, error)
	Replace(ctx context.Context, id string, e model.Event) error
	Remove(ctx context.Context, id string) error
}

// Gateway applies validation and the points policy before every write.
type Gateway struct {
	store  Writer
	policy *points.Policy
	logger logger.Logger
}

// New creates a Gateway.
func New(store Writer, opts ...Option) *Gateway {
	g := &Gateway{
		store:  store,
		policy: points.New(),
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AddEvent creates an event and returns the id the store assigned. It does
// not wait for the resulting snapshot.
func (g *Gateway) AddEvent(ctx context.Context, draft model.EventDraft) (id string, err error) {
	start := time.Now()
	defer func() { g.record(ctx, OpAdd, id, start, err) }()

	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		return "", err
	}
	e, err := g.build("", draft)
	if err != nil {
		return "", err
	}
	id, err = g.store.Create(ctx, e)
	if err != nil {
		return "", &StoreError{Op: OpAdd, Err: err}
	}
	return id, nil
}

// UpdateEvent replaces the whole document. Fields left out of the update
// are absent afterwards; an omitted winner list clears the winners.
func (g *Gateway) UpdateEvent(ctx context.Context, update model.EventUpdate) (err error) {
	start := time.Now()
	update.ID = strings.TrimSpace(update.ID)
	defer func() { g.record(ctx, OpUpdate, update.ID, start, err) }()

	update.EventDraft = update.EventDraft.Normalize()
	if err := update.Validate(); err != nil {
		return err
	}
	e, err := g.build(update.ID, update.EventDraft)
	if err != nil {
		return err
	}
	if err := g.store.Replace(ctx, update.ID, e); err != nil {
		return &StoreError{Op: OpUpdate, ID: update.ID, Err: err}
	}
	return nil
}

// DeleteEvent removes an event. A missing id is reported by the store as a
// failure, not ignored.
func (g *Gateway) DeleteEvent(ctx context.Context, id string) (err error) {
	start := time.Now()
	id = strings.TrimSpace(id)
	defer func() { g.record(ctx, OpDelete, id, start, err) }()

	if id == "" {
		return model.Invalid("id is required")
	}
	if err := g.store.Remove(ctx, id); err != nil {
		return &StoreError{Op: OpDelete, ID: id, Err: err}
	}
	return nil
}

// Policy returns the points policy in use.
func (g *Gateway) Policy() *points.Policy { return g.policy }

func (g *Gateway) build(id string, d model.EventDraft) (model.Event, error) {
	winners, err := g.policy.Resolve(d.Category, d.Winners)
	if err != nil {
		return model.Event{}, err
	}
	return model.Event{
		ID:          id,
		Name:        d.Name,
		Date:        d.Date,
		Description: d.Description,
		Category:    d.Category,
		GradeLevel:  d.GradeLevel,
		Venue:       d.Venue,
		Winners:     winners,
	}, nil
}

func (g *Gateway) record(ctx context.Context, op, id string, start time.Time, err error) {
	outcome := Outcome(err)
	metrics.RecordMutation(op, outcome, float64(time.Since(start).Microseconds())/1000)
	if err == nil {
		g.logger.Debug(ctx, "mutation forwarded", logger.String("op", op), logger.String("id", id))
		return
	}
	metrics.RecordErrorByComponent("gateway", outcome)
	g.logger.Warn(ctx, "mutation failed",
		logger.String("op", op),
		logger.String("id", id),
		logger.String("outcome", outcome),
		logger.Error(err),
	)
}
