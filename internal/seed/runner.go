package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/housecup/internal/domain/standings"
	"github.com/okian/housecup/pkg/logger"
)

const (
	directoryPermission = 0o750
	filePermission      = 0o600
	settlePoll          = 50 * time.Millisecond
	progressEvery       = time.Second
)

// Run executes a complete seeding run: health check, generation, concurrent
// submission, settle wait and verification.
func Run(ctx context.Context, cfg *Config, l logger.Logger) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	client := NewClient(cfg.BaseURL, cfg.Timeout)

	l.Info(ctx, "starting housecup seed run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("events", cfg.NumEvents),
		logger.Int("workers", cfg.Workers),
		logger.Float64("retryRate", cfg.RetryRate),
	)

	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	before, err := client.Events(ctx)
	if err != nil {
		return stats, fmt.Errorf("read initial events: %w", err)
	}

	items := Generate(cfg.NumEvents, nil)
	stats.Generated = len(items)

	Submit(ctx, client, items, cfg, stats, l)

	want := len(before.Events) + stats.Created
	if err := settle(ctx, client, want, cfg.SettleWait); err != nil {
		return stats, err
	}
	if err := Verify(ctx, client); err != nil {
		return stats, err
	}

	served, err := client.Events(ctx)
	if err == nil {
		stats.Served = len(served.Events)
	}
	if cfg.OutputFile != "" {
		if err := save(cfg.OutputFile, items); err != nil {
			l.Warn(ctx, "failed to save events to file", logger.Error(err))
		} else {
			l.Info(ctx, "events saved to file", logger.String("filename", cfg.OutputFile))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, l, stats)
	return stats, nil
}

// Submit posts items with cfg.Workers concurrent submitters. A RetryRate
// share of items is posted a second time with the same key, which the
// service must answer as a duplicate.
func Submit(ctx context.Context, client *Client, items []Item, cfg *Config, stats *Stats, l logger.Logger) {
	var submitted, created, duplicate, failed atomic.Int64
	var lastReport atomic.Int64

	workers := max(1, min(cfg.Workers, len(items)))
	jobs := make(chan Item, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for it := range jobs {
				id, outcome, err := client.Submit(ctx, it)
				submitted.Add(1)
				switch outcome {
				case Created:
					created.Add(1)
				case Duplicate:
					duplicate.Add(1)
				case Failed:
					failed.Add(1)
				}
				if cfg.Verbose {
					l.Debug(ctx, "submitted event",
						logger.String("key", it.Key),
						logger.String("id", id),
						logger.Int("outcome", int(outcome)),
						logger.Error(err),
					)
				}
				now := time.Now().UnixNano()
				last := lastReport.Load()
				if now-last >= int64(progressEvery) && lastReport.CompareAndSwap(last, now) {
					l.Info(ctx, "progress",
						logger.Int64("submitted", submitted.Load()),
						logger.Int64("created", created.Load()),
						logger.Int64("duplicates", duplicate.Load()),
						logger.Int64("failed", failed.Load()),
					)
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		send := func(it Item) bool {
			select {
			case <-ctx.Done():
				return false
			case jobs <- it:
				return true
			}
		}
		// Retries go out only after every original, so each key is already
		// completed and the retry is answered as a duplicate.
		var retries []Item
		for _, it := range items {
			if !send(it) {
				return
			}
			if cfg.RetryRate > 0 && rand.Float64() < cfg.RetryRate {
				retries = append(retries, it)
			}
		}
		for _, it := range retries {
			if !send(it) {
				return
			}
		}
	}()

	wg.Wait()

	stats.Submitted = int(submitted.Load())
	stats.Created = int(created.Load())
	stats.Duplicates = int(duplicate.Load())
	stats.Failed = int(failed.Load())
}

// settle waits until the served collection holds at least want events.
func settle(ctx context.Context, client *Client, want int, wait time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	ticker := time.NewTicker(settlePoll)
	defer ticker.Stop()
	for {
		if ev, err := client.Events(ctx); err == nil && len(ev.Events) >= want && !ev.Stale {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: want %d events", ErrNotSettled, want)
		case <-ticker.C:
		}
	}
}

// Verify recomputes standings from the served events and compares them with
// the served standings. Both reads must come from the same view version.
func Verify(ctx context.Context, client *Client) error {
	for attempt := 0; attempt < 5; attempt++ {
		ev, err := client.Events(ctx)
		if err != nil {
			return err
		}
		st, err := client.Standings(ctx)
		if err != nil {
			return err
		}
		if ev.Version != st.Version {
			continue
		}
		want := standings.Compute(ev.Events)
		if len(want) != len(st.Standings) {
			return fmt.Errorf("%w: %d rows served, %d expected", ErrMismatch, len(st.Standings), len(want))
		}
		for i := range want {
			if want[i] != st.Standings[i] {
				return fmt.Errorf("%w: row %d served %+v, expected %+v", ErrMismatch, i, st.Standings[i], want[i])
			}
		}
		return nil
	}
	return fmt.Errorf("%w: view kept changing while verifying", ErrMismatch)
}

func save(filename string, items []Item) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal events: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("write events: %w", err)
	}
	return nil
}

func displayFinalStats(ctx context.Context, l logger.Logger, stats *Stats) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}
	l.Info(ctx, "final statistics",
		logger.Int("generated", stats.Generated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("created", stats.Created),
		logger.Int("duplicates", stats.Duplicates),
		logger.Int("failed", stats.Failed),
		logger.Int("served", stats.Served),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("eventsPerSecond", perSecond),
	)
}
