package repository

import (
	"errors"

	model "github.com/okian/housecup/internal/domain/model"
)

// Sentinel kinds for store errors.
var (
	ErrNotFound     = model.ErrNotFound
	ErrUnavailable  = errors.New("store unavailable")
	ErrClosed       = errors.New("store closed")
	ErrSubscription = errors.New("subscription failed")
)
