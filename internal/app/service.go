// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/okian/housecup/internal/adapters/cache"
	"github.com/okian/housecup/internal/adapters/mq/relay"
	"github.com/okian/housecup/internal/adapters/repository"
	"github.com/okian/housecup/internal/config"
	"github.com/okian/housecup/internal/domain/dedupe"
	"github.com/okian/housecup/internal/domain/gateway"
	model "github.com/okian/housecup/internal/domain/model"
	"github.com/okian/housecup/internal/domain/points"
	"github.com/okian/housecup/internal/domain/standings"
	"github.com/okian/housecup/internal/domain/types"
	"github.com/okian/housecup/pkg/logger"
)

// ErrNotStarted is returned by mutations issued before Start.
var ErrNotStarted = errors.New("service not started")

const stopTimeout = 5 * time.Second

// Service wires the store, cache, gateway and relay together and implements
// the API dependencies. Reads and mutations are valid between Start and Stop.
type Service struct {
	mu sync.RWMutex

	// Core components
	store       repository.Store
	closers     []io.Closer
	cache       *cache.Cache
	gateway     *gateway.Gateway
	deduper     dedupe.Deduper
	relay       *relay.Relay
	unsubscribe repository.Unsubscribe
	cancel      context.CancelFunc

	// Configuration
	storeKind       string
	injected        repository.Store
	sqlitePath      string
	pollInterval    time.Duration
	redisAddr       string
	redisPassword   string
	redisDB         int
	redisPrefix     string
	idempotencySize int
	individualScale []int
	groupScale      []int
	seedDemo        bool
	report          func(ctx context.Context, err error)

	// State
	started   bool
	startedAt time.Time

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		storeKind:       config.StoreMemory,
		sqlitePath:      "housecup.db",
		pollInterval:    time.Second,
		redisAddr:       "localhost:6379",
		redisPrefix:     "housecup:",
		idempotencySize: 10_000,
		report:          func(context.Context, error) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the store, subscribes the cache and starts the relay. ctx
// bounds startup only; the subscription lives until Stop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger.Info(ctx, "starting housecup service...", logger.String("store", s.storeKind))

	store, closers, err := s.openStore(ctx)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c := cache.New(
		cache.WithLogger(s.logger.Named("cache")),
		cache.WithFailureReporter(s.report),
	)
	unsubscribe, err := c.Sync(runCtx, store)
	if err != nil {
		cancel()
		closeAll(closers)
		return fmt.Errorf("subscribe to store: %w", err)
	}

	s.store, s.closers, s.cache, s.unsubscribe, s.cancel = store, closers, c, unsubscribe, cancel
	s.gateway = gateway.New(store,
		gateway.WithPolicy(s.policy()),
		gateway.WithLogger(s.logger.Named("gateway")),
	)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.idempotencySize))

	if s.seedDemo {
		if err := s.seed(ctx); err != nil {
			s.logger.Error(ctx, "demo seed failed", logger.Error(err))
		}
	}

	s.relay = relay.New(c, []relay.Sink{
		relay.HouseMetrics(),
		relay.LeaderLog(s.logger),
	}, relay.WithName("standings-relay"), relay.WithLogger(s.logger))
	go s.relay.Run(runCtx)

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "housecup service started",
		logger.String("store", s.storeKind),
		logger.Int("events", len(c.View().Events)),
		logger.Int("idempotencySize", s.idempotencySize),
	)
	return nil
}

func (s *Service) openStore(ctx context.Context) (repository.Store, []io.Closer, error) {
	if s.injected != nil {
		return s.injected, nil, nil
	}
	l := repository.WithLogger(s.logger.Named("store"))
	switch s.storeKind {
	case config.StoreSQLite:
		st, err := repository.OpenSQLite(ctx, s.sqlitePath, l, repository.WithPollInterval(s.pollInterval))
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return st, []io.Closer{st}, nil
	case config.StoreRedis:
		client, err := repository.DialRedis(ctx, s.redisAddr, s.redisPassword, s.redisDB)
		if err != nil {
			return nil, nil, fmt.Errorf("open redis store: %w", err)
		}
		st := repository.NewRedisStore(client, l, repository.WithKeyPrefix(s.redisPrefix))
		return st, []io.Closer{st, client}, nil
	case config.StoreMemory:
		st := repository.NewMemoryStore(l)
		return st, []io.Closer{st}, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown store %q", config.ErrInvalidConfig, s.storeKind)
	}
}

func (s *Service) policy() *points.Policy {
	var opts []points.Option
	if len(s.individualScale) > 0 {
		opts = append(opts, points.WithScale(model.Individual, s.individualScale...))
	}
	if len(s.groupScale) > 0 {
		opts = append(opts, points.WithScale(model.Group, s.groupScale...))
	}
	return points.New(opts...)
}

// seed adds the demo events when the store is empty.
func (s *Service) seed(ctx context.Context) error {
	if n := len(s.cache.View().Events); n > 0 {
		s.logger.Info(ctx, "store not empty, skipping demo seed", logger.Int("events", n))
		return nil
	}
	var errs []error
	for _, d := range DemoEvents() {
		if _, err := s.gateway.AddEvent(ctx, d); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	s.logger.Info(ctx, "stopping housecup service...")

	if err := s.relay.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "relay shutdown", logger.Error(err))
	}
	s.unsubscribe()
	s.cancel()
	_ = s.cache.Close()
	closeAll(s.closers)

	s.started = false
	s.logger.Info(ctx, "housecup service stopped")
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		_ = c.Close()
	}
}

func (s *Service) mutable() (*gateway.Gateway, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.gateway, nil
}

// AddEvent validates and stores a new event.
func (s *Service) AddEvent(ctx context.Context, draft model.EventDraft) (string, error) {
	g, err := s.mutable()
	if err != nil {
		return "", err
	}
	id, err := g.AddEvent(ctx, draft)
	s.reportStoreError(ctx, err)
	return id, err
}

// UpdateEvent replaces an existing event.
func (s *Service) UpdateEvent(ctx context.Context, update model.EventUpdate) error {
	g, err := s.mutable()
	if err != nil {
		return err
	}
	err = g.UpdateEvent(ctx, update)
	s.reportStoreError(ctx, err)
	return err
}

// DeleteEvent removes an event.
func (s *Service) DeleteEvent(ctx context.Context, id string) error {
	g, err := s.mutable()
	if err != nil {
		return err
	}
	err = g.DeleteEvent(ctx, id)
	s.reportStoreError(ctx, err)
	return err
}

// reportStoreError forwards store outages. Missing ids are caller errors.
func (s *Service) reportStoreError(ctx context.Context, err error) {
	if errors.Is(err, gateway.ErrStore) && !errors.Is(err, model.ErrNotFound) {
		s.report(ctx, err)
	}
}

// View returns the current cached view.
func (s *Service) View() cache.View { return s.cache.View() }

// Standings returns the house table of the current view.
func (s *Service) Standings() ([]types.Standing, cache.View) { return s.cache.Standings() }

// Watch streams cache views until ctx is done or the service stops.
func (s *Service) Watch(ctx context.Context) <-chan cache.View { return s.cache.Watch(ctx) }

// SeenAndRecord atomically checks if an idempotency key was seen and records
// it if not.
func (s *Service) SeenAndRecord(ctx context.Context, key string) (string, bool) {
	return s.deduper.SeenAndRecord(ctx, key)
}

// Complete attaches the created event id to an idempotency key.
func (s *Service) Complete(ctx context.Context, key, id string) {
	s.deduper.Complete(ctx, key, id)
}

// Unrecord releases an idempotency key so the request can be retried.
func (s *Service) Unrecord(ctx context.Context, key string) {
	s.deduper.Unrecord(ctx, key)
}

// Size returns the current number of remembered idempotency keys.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started": s.started,
		"store":   s.storeKind,
	}
	if !s.started {
		return stats
	}

	v := s.cache.View()
	summary := standings.Summarize(v.Events)
	stats["version"] = v.Version
	stats["stale"] = v.Stale
	stats["totalEvents"] = summary.TotalEvents
	stats["participants"] = summary.Participants
	stats["awards"] = summary.Awards
	stats["avgScore"] = summary.AvgScore
	stats["watchers"] = s.cache.Watchers()
	stats["idempotencyKeys"] = s.deduper.Size()
	stats["uptimeSeconds"] = int64(time.Since(s.startedAt).Seconds())
	if !v.UpdatedAt.IsZero() {
		stats["updatedAt"] = v.UpdatedAt.UTC().Format(time.RFC3339)
	}
	if v.Err != nil {
		stats["error"] = v.Err.Error()
	}
	return stats
}
