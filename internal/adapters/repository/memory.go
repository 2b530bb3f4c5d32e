package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	model "github.com/okian/housecup/internal/domain/model"
	"github.com/okian/housecup/pkg/logger"
	"github.com/okian/housecup/pkg/metrics"
)

// MemoryStore is an in-process Store. Documents keep insertion order and
// every subscriber sees snapshots in commit order.
type MemoryStore struct {
	mu     sync.RWMutex
	order  []string
	docs   map[string]model.Event
	broken error
	closed bool

	// notifyMu serialises fan-out so deliveries never overtake each other.
	notifyMu sync.Mutex
	subs     map[uint64]Observer
	nextSub  uint64

	logger logger.Logger
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	cfg := newSettings("memory-store", opts)
	return &MemoryStore{
		docs:   make(map[string]model.Event),
		subs:   make(map[uint64]Observer),
		logger: cfg.logger,
	}
}

// Create implements Store.
func (s *MemoryStore) Create(ctx context.Context, e model.Event) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	if err := s.writableLocked(); err != nil {
		s.mu.Unlock()
		return "", err
	}
	id := uuid.NewString()
	e = e.Clone()
	e.ID = id
	s.docs[id] = e
	s.order = append(s.order, id)
	s.mu.Unlock()

	s.notify()
	return id, nil
}

// Replace implements Store.
func (s *MemoryStore) Replace(ctx context.Context, id string, e model.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	if err := s.writableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if _, ok := s.docs[id]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("replace %s: %w", id, ErrNotFound)
	}
	e = e.Clone()
	e.ID = id
	s.docs[id] = e
	s.mu.Unlock()

	s.notify()
	return nil
}

// Remove implements Store.
func (s *MemoryStore) Remove(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	if err := s.writableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if _, ok := s.docs[id]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("remove %s: %w", id, ErrNotFound)
	}
	delete(s.docs, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.notify()
	return nil
}

// Subscribe implements Store.
func (s *MemoryStore) Subscribe(ctx context.Context, obs Observer) (Unsubscribe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.RLock()
	closed, broken := s.closed, s.broken
	s.mu.RUnlock()
	if closed {
		return nil, fmt.Errorf("%w: %w", ErrSubscription, ErrClosed)
	}
	if broken != nil {
		return nil, fmt.Errorf("%w: %w", ErrSubscription, broken)
	}

	id := s.nextSub
	s.nextSub++
	s.subs[id] = obs
	metrics.UpdateSubscribers(len(s.subs))
	obs.Snapshot(s.collection())

	return bindContext(ctx, func() {
		s.notifyMu.Lock()
		delete(s.subs, id)
		metrics.UpdateSubscribers(len(s.subs))
		s.notifyMu.Unlock()
	}), nil
}

// Len returns the number of stored events.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Break makes the store unavailable: writes fail with ErrUnavailable and
// subscribers are told their view is no longer current.
func (s *MemoryStore) Break(cause error) {
	err := fmt.Errorf("%w: %w", ErrUnavailable, cause)
	s.mu.Lock()
	s.broken = err
	s.mu.Unlock()

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	for _, obs := range s.subs {
		obs.Fail(fmt.Errorf("%w: %w", ErrSubscription, err))
	}
	s.logger.Warn(context.Background(), "memory store broken", logger.Error(cause))
}

// Heal restores a broken store and sends every subscriber a fresh snapshot.
func (s *MemoryStore) Heal() {
	s.mu.Lock()
	s.broken = nil
	s.mu.Unlock()
	s.notify()
}

// Close ends every subscription and rejects further calls.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	for id, obs := range s.subs {
		obs.Fail(fmt.Errorf("%w: %w", ErrSubscription, ErrClosed))
		delete(s.subs, id)
	}
	metrics.UpdateSubscribers(0)
	return nil
}

func (s *MemoryStore) writableLocked() error {
	if s.closed {
		return ErrClosed
	}
	return s.broken
}

// notify pushes the state as of now to every subscriber. Holding notifyMu
// while reading the state keeps deliveries in commit order.
func (s *MemoryStore) notify() {
	start := time.Now()
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.RLock()
	broken := s.broken != nil || s.closed
	s.mu.RUnlock()
	if broken {
		return
	}
	for _, obs := range s.subs {
		obs.Snapshot(s.collection())
	}
	s.logger.Debug(context.Background(), "snapshot fanned out",
		logger.Int("subscribers", len(s.subs)),
		logger.Int64("latencyMicros", time.Since(start).Microseconds()),
	)
}

// collection returns a private copy of the ordered documents.
func (s *MemoryStore) collection() []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Event, len(s.order))
	for i, id := range s.order {
		out[i] = s.docs[id].Clone()
	}
	return out
}
