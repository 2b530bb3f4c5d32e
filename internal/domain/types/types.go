// Package types contains read shapes shared between the domain and the
// HTTP layer.
package types

import model "github.com/okian/housecup/internal/domain/model"

// Standing is one row of the house table.
type Standing struct {
	Rank    int         `json:"rank"`
	House   model.House `json:"house"`
	Score   int         `json:"score"`
	Leading bool        `json:"leading"`
}

// Leader returns the leading row, if any.
func Leader(rows []Standing) (Standing, bool) {
	for _, r := range rows {
		if r.Leading {
			return r, true
		}
	}
	return Standing{}, false
}
