// Package relay drives long-running consumers of cache views: metrics
// export, leader-change logging and stale alerts.
package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/housecup/internal/adapters/cache"
	"github.com/okian/housecup/pkg/logger"
	"github.com/okian/housecup/pkg/metrics"
)

// Source hands out cache views.
type Source interface {
	Watch(ctx context.Context) <-chan cache.View
}

// Sink consumes one view. Sinks run sequentially on the relay goroutine.
type Sink interface {
	Handle(ctx context.Context, v cache.View) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, v cache.View) error

// Handle implements Sink.
func (f SinkFunc) Handle(ctx context.Context, v cache.View) error { return f(ctx, v) }

// Relay reads views from a source and passes each one to its sinks.
type Relay struct {
	source Source
	sinks  []Sink
	name   string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// New creates a relay. Run must be called to start it.
func New(source Source, sinks []Sink, opts ...Option) *Relay {
	r := &Relay{
		source:   source,
		sinks:    sinks,
		name:     "relay",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.Named(r.name)
	return r
}

// Run consumes views until ctx is canceled, Shutdown is called or the
// source closes the channel.
func (r *Relay) Run(ctx context.Context) {
	defer close(r.done)

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	views := r.source.Watch(watchCtx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.shutdown:
			return
		case v, ok := <-views:
			if !ok {
				return
			}
			if err := r.handle(ctx, v); err != nil {
				r.logger.Error(ctx, "error relaying view",
					logger.Uint64("version", v.Version),
					logger.Error(err),
				)
			}
		}
	}
}

func (r *Relay) handle(ctx context.Context, v cache.View) error {
	start := time.Now()
	var errs []error
	for _, s := range r.sinks {
		if err := s.Handle(ctx, v); err != nil {
			metrics.RecordRelayError()
			metrics.RecordErrorByComponent("relay", "sink_error")
			errs = append(errs, err)
		}
	}
	metrics.RecordRelayHandled()
	if len(errs) > 0 {
		metrics.RecordErrorLatency("relay", "sink_error", float64(time.Since(start).Milliseconds()))
		return errors.Join(errs...)
	}
	return nil
}

// Shutdown stops the relay and waits for the current view to finish.
func (r *Relay) Shutdown(ctx context.Context) error {
	select {
	case <-r.shutdown:
	default:
		close(r.shutdown)
	}

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		r.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}
