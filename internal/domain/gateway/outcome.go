package gateway

import (
	"errors"

	model "github.com/okian/housecup/internal/domain/model"
)

// Outcome labels a mutation result: "ok", "invalid", "not_found" or
// "store_error".
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, model.ErrValidation):
		return "invalid"
	case errors.Is(err, model.ErrNotFound):
		return "not_found"
	default:
		return "store_error"
	}
}
