package gateway

import (
	"errors"
	"fmt"
)

// ErrStore is matched by every failure the store reported for a mutation.
var ErrStore = errors.New("store rejected the mutation")

// StoreError wraps a store failure with the operation that hit it.
type StoreError struct {
	Op  string
	ID  string
	Err error
}

func (e *StoreError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Err)
}

// Is makes errors.Is(err, ErrStore) succeed.
func (e *StoreError) Is(target error) bool { return target == ErrStore }

// Unwrap exposes the store's own error.
func (e *StoreError) Unwrap() error { return e.Err }
