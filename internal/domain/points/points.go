// Package points resolves the points each winner of an event is awarded.
package points

import (
	"fmt"

	model "github.com/okian/housecup/internal/domain/model"
)

// Default point scales, indexed by position-1.
var (
	defaultIndividual = []int{10, 7, 5}
	defaultGroup      = []int{20, 15, 10}
)

// Option applies a configuration option to the Policy.
type Option func(*Policy)

// WithScale replaces the default scale of a category. Empty scales and
// negative values are ignored.
func WithScale(category model.Category, pts ...int) Option {
	return func(p *Policy) {
		if !category.Valid() || len(pts) == 0 {
			return
		}
		for _, v := range pts {
			if v < 0 {
				return
			}
		}
		p.scales[category] = append([]int(nil), pts...)
	}
}

// Policy maps (category, position) to default points. It is immutable after
// construction and safe for concurrent use.
type Policy struct {
	scales map[model.Category][]int
}

// New creates a Policy with the standard scales unless overridden.
func New(opts ...Option) *Policy {
	p := &Policy{scales: map[model.Category][]int{
		model.Individual: append([]int(nil), defaultIndividual...),
		model.Group:      append([]int(nil), defaultGroup...),
	}}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Scale returns a copy of the scale for a category.
func (p *Policy) Scale(category model.Category) []int {
	return append([]int(nil), p.scales[category]...)
}

// Default returns the default points for a position. There is no default
// beyond the end of the scale or for an unknown category.
func (p *Policy) Default(category model.Category, position int) (int, bool) {
	scale, ok := p.scales[category]
	if !ok || position < 1 || position > len(scale) {
		return 0, false
	}
	return scale[position-1], true
}

// Resolve turns drafts into stored winners. Explicit points always win;
// unset points take the category default. A winner with neither is
// rejected. The result is never nil.
func (p *Policy) Resolve(category model.Category, drafts []model.WinnerDraft) ([]model.Winner, error) {
	out := make([]model.Winner, 0, len(drafts))
	var problems []string
	for i, d := range drafts {
		w := model.Winner{Position: d.Position, House: d.House, Name: d.Name}
		if d.Photo != nil {
			photo := *d.Photo
			w.Photo = &photo
		}
		switch {
		case d.Points != nil:
			w.Points = *d.Points
		default:
			v, ok := p.Default(category, d.Position)
			if !ok {
				problems = append(problems, fmt.Sprintf(
					"winners[%d]: no default points for position %d in %s events; points must be given", i, d.Position, category))
				continue
			}
			w.Points = v
		}
		out = append(out, w)
	}
	if len(problems) > 0 {
		return nil, model.Invalid(problems...)
	}
	return out, nil
}

// NextPosition is the position offered to a newly added winner: one past the
// highest position in use, or 1 for an empty list.
func NextPosition(winners []model.WinnerDraft) int {
	high := 0
	for _, w := range winners {
		if w.Position > high {
			high = w.Position
		}
	}
	return high + 1
}
