// Package feed fans a stream of values out to any number of readers. Each
// reader only ever sees the most recent value it has not yet consumed: a
// slow reader skips intermediate values instead of holding up the writer.
package feed

import (
	"context"
	"sync"

	"github.com/okian/housecup/pkg/metrics"
)

// Feed is a latest-wins broadcast channel. The zero value is not usable;
// call New.
type Feed[T any] struct {
	mu     sync.Mutex
	subs   map[uint64]chan T
	next   uint64
	latest T
	has    bool
	closed bool
}

// New creates an empty Feed.
func New[T any](opts ...Option) *Feed[T] {
	f := &Feed[T]{subs: make(map[uint64]chan T)}
	cfg := options{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.hasInitial {
		if v, ok := cfg.initial.(T); ok {
			f.latest, f.has = v, true
		}
	}
	return f
}

// Publish makes v the latest value and hands it to every reader. Publish
// never blocks on readers. It returns false once the feed is closed.
func (f *Feed[T]) Publish(v T) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		metrics.RecordFeedDropped()
		return false
	}
	f.latest, f.has = v, true
	for _, ch := range f.subs {
		offer(ch, v)
	}
	metrics.RecordFeedPublish()
	return true
}

// offer puts v in a one-slot channel, replacing an unread value.
func offer[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
		metrics.RecordFeedCoalesced()
	default:
	}
	select {
	case ch <- v:
	default:
		metrics.RecordFeedDropped()
	}
}

// Subscribe returns a channel that first yields the latest value, if any,
// and then every later one a reader keeps up with. The channel is closed
// when ctx is done or the feed is closed.
func (f *Feed[T]) Subscribe(ctx context.Context) <-chan T {
	ch := make(chan T, 1)
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		close(ch)
		return ch
	}
	id := f.next
	f.next++
	f.subs[id] = ch
	if f.has {
		ch <- f.latest
	}
	f.mu.Unlock()

	context.AfterFunc(ctx, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if c, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(c)
		}
	})
	return ch
}

// Latest returns the most recently published value.
func (f *Feed[T]) Latest() (T, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest, f.has
}

// Len returns the number of active readers.
func (f *Feed[T]) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Close closes every reader channel. Later publishes are dropped.
func (f *Feed[T]) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	for id, ch := range f.subs {
		close(ch)
		delete(f.subs, id)
	}
	return nil
}

// IsClosed returns true if the feed has been closed.
func (f *Feed[T]) IsClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
