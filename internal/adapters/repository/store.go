// Package repository defines the event store contract and its backends.
package repository

import (
	"context"
	"sync"

	model "github.com/okian/housecup/internal/domain/model"
)

// Observer receives the full event collection after every change. Fail is
// called when the subscription can no longer guarantee fresh snapshots; a
// later Snapshot means it has recovered. Callbacks for one observer are never
// concurrent, must not block for long and must not call back into the store.
type Observer interface {
	Snapshot(events []model.Event)
	Fail(err error)
}

// ObserverFuncs adapts a pair of functions to Observer. Nil functions are
// skipped.
type ObserverFuncs struct {
	OnSnapshot func(events []model.Event)
	OnFail     func(err error)
}

// Snapshot implements Observer.
func (o ObserverFuncs) Snapshot(events []model.Event) {
	if o.OnSnapshot != nil {
		o.OnSnapshot(events)
	}
}

// Fail implements Observer.
func (o ObserverFuncs) Fail(err error) {
	if o.OnFail != nil {
		o.OnFail(err)
	}
}

// Unsubscribe stops delivery to an observer. No callback runs after it
// returns. Calling it more than once is a no-op.
type Unsubscribe func()

// Store persists events and pushes full snapshots to subscribers.
type Store interface {
	// Create stores a new event and returns the id assigned to it. Any id set
	// on the argument is ignored.
	Create(ctx context.Context, e model.Event) (string, error)

	// Replace overwrites the whole document. Returns ErrNotFound if id is
	// unknown.
	Replace(ctx context.Context, id string, e model.Event) error

	// Remove deletes the document. Returns ErrNotFound if id is unknown.
	Remove(ctx context.Context, id string) error

	// Subscribe delivers the current collection before returning and again
	// after every change until ctx is done or Unsubscribe is called.
	Subscribe(ctx context.Context, obs Observer) (Unsubscribe, error)
}

// bindContext ties an unsubscribe function to ctx and makes it idempotent.
func bindContext(ctx context.Context, stop func()) Unsubscribe {
	var once sync.Once
	unsub := func() { once.Do(stop) }
	release := context.AfterFunc(ctx, unsub)
	return func() {
		release()
		unsub()
	}
}
