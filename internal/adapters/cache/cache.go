// Package cache holds the latest event snapshot for every reader in the
// process. The snapshot is swapped through a single atomic pointer, so a
// reader sees either the old collection or the new one, never a mix.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/okian/housecup/internal/adapters/mq/feed"
	"github.com/okian/housecup/internal/adapters/repository"
	model "github.com/okian/housecup/internal/domain/model"
	"github.com/okian/housecup/internal/domain/standings"
	types "github.com/okian/housecup/internal/domain/types"
	"github.com/okian/housecup/pkg/logger"
	"github.com/okian/housecup/pkg/metrics"
)

// ErrNotSynced marks a cache that has not received its first snapshot.
var ErrNotSynced = errors.New("no snapshot received yet")

// View is an immutable picture of the collection. Events must be treated as
// read-only.
type View struct {
	Events    []model.Event
	Version   uint64
	Stale     bool
	Err       error
	UpdatedAt time.Time
}

// Cache implements repository.Observer.
type Cache struct {
	view   atomic.Pointer[View]
	memo   standings.Memo
	feed   *feed.Feed[View]
	logger logger.Logger
	now    func() time.Time
	report func(ctx context.Context, err error)
}

var _ repository.Observer = (*Cache)(nil)

// New creates a cache that reports itself stale until the first snapshot.
func New(opts ...Option) *Cache {
	c := &Cache{
		logger: logger.Nop(),
		now:    time.Now,
		report: func(context.Context, error) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	initial := &View{Events: []model.Event{}, Stale: true, Err: ErrNotSynced}
	c.view.Store(initial)
	c.feed = feed.New[View](feed.WithInitial(*initial))
	return c
}

// Sync subscribes the cache to a store. The first snapshot has been applied
// by the time Sync returns without error.
func (c *Cache) Sync(ctx context.Context, store repository.Store) (repository.Unsubscribe, error) {
	unsub, err := store.Subscribe(ctx, c)
	if err != nil {
		c.Fail(err)
		return nil, fmt.Errorf("subscribe cache: %w", err)
	}
	return unsub, nil
}

// Snapshot replaces the whole collection and clears any stale flag.
func (c *Cache) Snapshot(events []model.Event) {
	if events == nil {
		events = []model.Event{}
	}
	next := c.swap(func(old *View) View {
		return View{Events: events, Version: old.Version + 1, UpdatedAt: c.now()}
	})
	metrics.RecordSnapshotApplied(next.Version, len(next.Events))
	c.logger.Debug(context.Background(), "snapshot applied",
		logger.Uint64("version", next.Version),
		logger.Int("events", len(next.Events)),
	)
}

// Fail keeps the last collection but marks it stale. The failure reporter
// runs once per transition from a synced view to a stale one.
func (c *Cache) Fail(err error) {
	var turned bool
	next := c.swap(func(old *View) View {
		turned = !old.Stale
		v := *old
		v.Stale, v.Err = true, err
		return v
	})
	metrics.RecordSnapshotFailure()
	c.logger.Warn(context.Background(), "cache is stale",
		logger.Uint64("version", next.Version),
		logger.Error(err),
	)
	if turned && err != nil {
		c.report(context.Background(), err)
	}
}

func (c *Cache) swap(build func(old *View) View) View {
	for {
		old := c.view.Load()
		next := build(old)
		if c.view.CompareAndSwap(old, &next) {
			c.feed.Publish(next)
			return next
		}
	}
}

// View returns the current picture of the collection.
func (c *Cache) View() View {
	return *c.view.Load()
}

// Current returns a private copy of the latest collection.
func (c *Cache) Current() []model.Event {
	return model.CloneEvents(c.view.Load().Events)
}

// Standings returns the house table for the current view together with the
// view it was derived from.
func (c *Cache) Standings() ([]types.Standing, View) {
	v := c.view.Load()
	start := time.Now()
	rows, hit := c.memo.Get(v.Version, v.Events)
	if !hit {
		metrics.RecordStandingsComputed(float64(time.Since(start).Microseconds()) / 1000)
	}
	return rows, *v
}

// Watch returns a channel yielding the current view and then each newer one
// the reader keeps up with. It is closed when ctx is done or the cache is
// closed.
func (c *Cache) Watch(ctx context.Context) <-chan View {
	return c.feed.Subscribe(ctx)
}

// Watchers returns the number of active watchers.
func (c *Cache) Watchers() int {
	return c.feed.Len()
}

// Close ends every watch.
func (c *Cache) Close() error {
	return c.feed.Close()
}
