package model

import (
	"errors"
	"strings"
)

// Sentinel kinds shared by every layer.
var (
	// ErrValidation is the kind matched by every *ValidationError.
	ErrValidation = errors.New("invalid input")
	// ErrNotFound means no event has the requested id.
	ErrNotFound = errors.New("event not found")
)

// ValidationError lists everything wrong with a submitted document.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid input: " + strings.Join(e.Problems, "; ")
}

// Is makes errors.Is(err, ErrValidation) succeed.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a ValidationError from problem strings.
func Invalid(problems ...string) error {
	return &ValidationError{Problems: problems}
}
