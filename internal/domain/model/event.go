// Package model contains domain models passed between layers.
package model

import (
	"strings"
)

// House is one of the four competing teams.
type House string

// Houses in their fixed enumeration order. The order doubles as the
// tie-break order in standings.
const (
	Delany   House = "Delany"
	Gandhi   House = "Gandhi"
	Tagore   House = "Tagore"
	Aloysius House = "Aloysius"
)

// Houses returns the four houses in enumeration order.
func Houses() []House {
	return []House{Delany, Gandhi, Tagore, Aloysius}
}

// Valid reports whether h is one of the four fixed houses.
func (h House) Valid() bool {
	switch h {
	case Delany, Gandhi, Tagore, Aloysius:
		return true
	}
	return false
}

// Category selects the default point scale of an event.
type Category string

// Event categories.
const (
	Individual Category = "Individual"
	Group      Category = "Group"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return c == Individual || c == Group
}

// GradeLevel is the school section an event was held for.
type GradeLevel string

// Grade levels.
const (
	Junior GradeLevel = "Junior"
	Middle GradeLevel = "Middle"
	Senior GradeLevel = "Senior"
)

// Valid reports whether g is a known grade level.
func (g GradeLevel) Valid() bool {
	switch g {
	case Junior, Middle, Senior:
		return true
	}
	return false
}

// Winner is one placement within an event. Position is a display ordinal;
// it is neither unique nor contiguous within an event.
type Winner struct {
	Position int     `json:"position"`
	House    House   `json:"house"`
	Name     string  `json:"name"`
	Points   int     `json:"points"`
	Photo    *string `json:"photo,omitempty"` // encoded image or URL
}

// Event is one scored competition, stored as a single document.
type Event struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Date        Date       `json:"date"`
	Description string     `json:"description,omitempty"`
	Category    Category   `json:"category"`
	GradeLevel  GradeLevel `json:"gradeLevel"`
	Venue       string     `json:"venue,omitempty"`
	Winners     []Winner   `json:"winners"`
}

// Clone returns a deep copy so callers can never alias cached state.
func (e Event) Clone() Event {
	out := e
	if e.Winners != nil {
		out.Winners = make([]Winner, len(e.Winners))
		for i, w := range e.Winners {
			if w.Photo != nil {
				p := *w.Photo
				w.Photo = &p
			}
			out.Winners[i] = w
		}
	}
	return out
}

// CloneEvents deep-copies a collection.
func CloneEvents(events []Event) []Event {
	if events == nil {
		return nil
	}
	out := make([]Event, len(events))
	for i, e := range events {
		out[i] = e.Clone()
	}
	return out
}

// Filter selects events the way the public results page does. Empty fields
// match everything.
type Filter struct {
	Query      string
	Category   Category
	GradeLevel GradeLevel
}

// Match reports whether e satisfies the filter.
func (f Filter) Match(e Event) bool {
	if q := strings.TrimSpace(f.Query); q != "" &&
		!strings.Contains(strings.ToLower(e.Name), strings.ToLower(q)) {
		return false
	}
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	if f.GradeLevel != "" && e.GradeLevel != f.GradeLevel {
		return false
	}
	return true
}

// Apply returns the events matching f, preserving order.
func (f Filter) Apply(events []Event) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}

// Summary holds the headline figures of the results dashboard.
type Summary struct {
	TotalEvents int `json:"totalEvents"`
	// Participants counts distinct winner names across all events.
	Participants int `json:"participants"`
	Awards       int `json:"awards"`
	// AvgScore is the rounded mean total of the houses that have at least
	// one winner; 0 when no house has.
	AvgScore int `json:"avgScore"`
}
