package model

import (
	"errors"
	"fmt"
	"strings"
)

// WinnerDraft is a winner as submitted by a caller. A nil Points means the
// default for the event category and position applies; a nil Photo means
// no photo.
type WinnerDraft struct {
	Position int     `json:"position"`
	House    House   `json:"house"`
	Name     string  `json:"name"`
	Points   *int    `json:"points,omitempty"`
	Photo    *string `json:"photo,omitempty"`
}

// EventDraft is an event without a store-assigned id.
type EventDraft struct {
	Name        string        `json:"name"`
	Date        Date          `json:"date"`
	Description string        `json:"description,omitempty"`
	Category    Category      `json:"category"`
	GradeLevel  GradeLevel    `json:"gradeLevel"`
	Venue       string        `json:"venue,omitempty"`
	Winners     []WinnerDraft `json:"winners,omitempty"`
}

// EventUpdate is the complete replacement document for an existing event.
// Anything omitted here is absent after the update.
type EventUpdate struct {
	ID string `json:"id"`
	EventDraft
}

// DraftOf converts a stored winner back to a draft with explicit points.
func DraftOf(w Winner) WinnerDraft {
	p := w.Points
	d := WinnerDraft{Position: w.Position, House: w.House, Name: w.Name, Points: &p}
	if w.Photo != nil {
		photo := *w.Photo
		d.Photo = &photo
	}
	return d
}

// UpdateOf converts a stored event into an update carrying the same content.
func UpdateOf(e Event) EventUpdate {
	u := EventUpdate{
		ID: e.ID,
		EventDraft: EventDraft{
			Name:        e.Name,
			Date:        e.Date,
			Description: e.Description,
			Category:    e.Category,
			GradeLevel:  e.GradeLevel,
			Venue:       e.Venue,
		},
	}
	if len(e.Winners) > 0 {
		u.Winners = make([]WinnerDraft, len(e.Winners))
		for i, w := range e.Winners {
			u.Winners[i] = DraftOf(w)
		}
	}
	return u
}

// Normalize trims free-text fields and drops empty optional values so the
// stored document stays minimal.
func (d EventDraft) Normalize() EventDraft {
	d.Name = strings.TrimSpace(d.Name)
	d.Description = strings.TrimSpace(d.Description)
	d.Venue = strings.TrimSpace(d.Venue)
	if d.Winners != nil {
		ws := make([]WinnerDraft, len(d.Winners))
		for i, w := range d.Winners {
			w.Name = strings.TrimSpace(w.Name)
			if w.Photo != nil && strings.TrimSpace(*w.Photo) == "" {
				w.Photo = nil
			}
			ws[i] = w
		}
		d.Winners = ws
	}
	return d
}

// Validate checks every field and reports all problems at once.
func (d EventDraft) Validate() error {
	var problems []string
	if d.Name == "" {
		problems = append(problems, "name is required")
	}
	if d.Date.IsZero() {
		problems = append(problems, "date is required")
	}
	if !d.Category.Valid() {
		problems = append(problems, fmt.Sprintf("category %q is not one of Individual, Group", d.Category))
	}
	if !d.GradeLevel.Valid() {
		problems = append(problems, fmt.Sprintf("gradeLevel %q is not one of Junior, Middle, Senior", d.GradeLevel))
	}
	for i, w := range d.Winners {
		problems = append(problems, w.problems(i)...)
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func (w WinnerDraft) problems(i int) []string {
	var out []string
	prefix := fmt.Sprintf("winners[%d]", i)
	if w.Position < 1 {
		out = append(out, prefix+": position must be a positive integer")
	}
	if !w.House.Valid() {
		out = append(out, fmt.Sprintf("%s: house %q is not one of Delany, Gandhi, Tagore, Aloysius", prefix, w.House))
	}
	if w.Name == "" {
		out = append(out, prefix+": name is required")
	}
	if w.Points != nil && *w.Points < 0 {
		out = append(out, prefix+": points must not be negative")
	}
	if w.Photo != nil && *w.Photo == "" {
		out = append(out, prefix+": photo must not be empty when present")
	}
	return out
}

// Validate checks the update id and the replacement document.
func (u EventUpdate) Validate() error {
	var problems []string
	if strings.TrimSpace(u.ID) == "" {
		problems = append(problems, "id is required")
	}
	if err := u.EventDraft.Validate(); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			problems = append(problems, verr.Problems...)
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
