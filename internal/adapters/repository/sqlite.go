package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/okian/housecup/internal/adapters/repository/migrations"
	model "github.com/okian/housecup/internal/domain/model"
	"github.com/okian/housecup/pkg/logger"
	"github.com/okian/housecup/pkg/metrics"
)

// SQLiteStore keeps one row per event with the document stored as JSON.
// Triggers bump a collection revision on every change; subscribers poll it
// and are poked right after writes made through this store.
type SQLiteStore struct {
	db           *sql.DB
	pollInterval time.Duration
	logger       logger.Logger

	mu      sync.Mutex
	pokes   map[uint64]chan struct{}
	nextSub uint64
	closed  chan struct{}
	wg      sync.WaitGroup
}

// OpenSQLite opens (or creates) the database at path and applies migrations.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	// One writer keeps SQLITE_BUSY out of the write path.
	db.SetMaxOpenConns(1)

	cfg := newSettings("sqlite-store", opts)
	return &SQLiteStore{
		db:           db,
		pollInterval: cfg.pollInterval,
		logger:       cfg.logger,
		pokes:        make(map[uint64]chan struct{}),
		closed:       make(chan struct{}),
	}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Create implements Store.
func (s *SQLiteStore) Create(ctx context.Context, e model.Event) (string, error) {
	if err := s.usable(ctx); err != nil {
		return "", err
	}
	e.ID = uuid.NewString()
	doc, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("encode event: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO events (id, doc, updated_at) VALUES (?, ?, ?)`,
		e.ID, string(doc), time.Now().UTC().UnixMilli(),
	); err != nil {
		return "", fmt.Errorf("%w: insert event: %w", ErrUnavailable, err)
	}
	s.poke()
	return e.ID, nil
}

// Replace implements Store.
func (s *SQLiteStore) Replace(ctx context.Context, id string, e model.Event) error {
	if err := s.usable(ctx); err != nil {
		return err
	}
	e.ID = id
	doc, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE events SET doc = ?, updated_at = ? WHERE id = ?`,
		string(doc), time.Now().UTC().UnixMilli(), id,
	)
	if err := affected(res, err, "replace", id); err != nil {
		return err
	}
	s.poke()
	return nil
}

// Remove implements Store.
func (s *SQLiteStore) Remove(ctx context.Context, id string) error {
	if err := s.usable(ctx); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err := affected(res, err, "remove", id); err != nil {
		return err
	}
	s.poke()
	return nil
}

func affected(res sql.Result, err error, op, id string) error {
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrUnavailable, op, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrUnavailable, op, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", op, id, ErrNotFound)
	}
	return nil
}

// Subscribe implements Store. The initial snapshot is delivered before
// Subscribe returns; later ones come from a polling goroutine.
func (s *SQLiteStore) Subscribe(ctx context.Context, obs Observer) (Unsubscribe, error) {
	if err := s.usable(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSubscription, err)
	}
	rev, events, err := s.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSubscription, err)
	}

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	poke := make(chan struct{}, 1)
	s.pokes[id] = poke
	metrics.UpdateSubscribers(len(s.pokes))
	s.mu.Unlock()

	obs.Snapshot(events)

	done := make(chan struct{})
	exited := make(chan struct{})
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(exited)
		s.watch(obs, rev, poke, done)
	}()

	return bindContext(ctx, func() {
		s.mu.Lock()
		delete(s.pokes, id)
		metrics.UpdateSubscribers(len(s.pokes))
		s.mu.Unlock()
		close(done)
		<-exited
	}), nil
}

// watch polls the collection revision until done or the store is closed.
// A failed poll reports Fail once per outage; the first successful poll
// afterwards delivers a fresh snapshot even if nothing changed.
func (s *SQLiteStore) watch(obs Observer, last int64, poke <-chan struct{}, done <-chan struct{}) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	failing := false

	for {
		select {
		case <-done:
			return
		case <-s.closed:
			obs.Fail(fmt.Errorf("%w: %w", ErrSubscription, ErrClosed))
			return
		case <-ticker.C:
		case <-poke:
		}
		select {
		case <-done:
			return
		default:
		}

		ctx, cancel := context.WithTimeout(context.Background(), s.pollInterval+time.Second)
		rev, err := s.revision(ctx)
		if err == nil && (rev != last || failing) {
			var events []model.Event
			rev, events, err = s.load(ctx)
			if err == nil {
				last, failing = rev, false
				obs.Snapshot(events)
			}
		}
		cancel()

		if err != nil && !failing {
			failing = true
			metrics.RecordErrorByComponent("repository", "poll_failed")
			s.logger.Warn(context.Background(), "sqlite poll failed", logger.Error(err))
			obs.Fail(fmt.Errorf("%w: %w", ErrSubscription, err))
		}
	}
}

func (s *SQLiteStore) revision(ctx context.Context) (int64, error) {
	var rev int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT revision FROM collection_meta WHERE singleton = 1`,
	).Scan(&rev); err != nil {
		return 0, fmt.Errorf("%w: read revision: %w", ErrUnavailable, err)
	}
	return rev, nil
}

// load reads the revision and every document in one transaction.
func (s *SQLiteStore) load(ctx context.Context) (rev int64, events []model.Event, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: begin load: %w", ErrUnavailable, err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.QueryRowContext(ctx,
		`SELECT revision FROM collection_meta WHERE singleton = 1`,
	).Scan(&rev); err != nil {
		return 0, nil, fmt.Errorf("%w: read revision: %w", ErrUnavailable, err)
	}
	rows, err := tx.QueryContext(ctx, `SELECT doc FROM events ORDER BY seq`)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: list events: %w", ErrUnavailable, err)
	}
	defer rows.Close()

	events = make([]model.Event, 0)
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return 0, nil, fmt.Errorf("%w: scan event: %w", ErrUnavailable, err)
		}
		var e model.Event
		if err := json.Unmarshal([]byte(doc), &e); err != nil {
			return 0, nil, fmt.Errorf("decode event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return 0, nil, fmt.Errorf("%w: list events: %w", ErrUnavailable, err)
	}
	return rev, events, nil
}

// poke wakes every subscriber so local writes show up without waiting for
// the next tick.
func (s *SQLiteStore) poke() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.pokes {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *SQLiteStore) usable(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-s.closed:
		return ErrClosed
	default:
		return nil
	}
}

// Close stops every subscription and closes the database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	select {
	case <-s.closed:
		s.mu.Unlock()
		return nil
	default:
	}
	close(s.closed)
	s.pokes = make(map[uint64]chan struct{})
	s.mu.Unlock()

	s.wg.Wait()
	metrics.UpdateSubscribers(0)
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close sqlite db: %w", err)
	}
	return nil
}
