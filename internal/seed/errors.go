package seed

import "errors"

// Sentinel error kinds for this package.
var (
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrNotSettled       = errors.New("served view did not include every write in time")
	ErrMismatch         = errors.New("served standings differ from recomputation")
)
