package service

import (
	"time"

	model "github.com/okian/housecup/internal/domain/model"
)

// DemoEvents returns the three sample events loaded into an empty store when
// demo seeding is enabled. Points are explicit so the sample table does not
// depend on the configured scales.
func DemoEvents() []model.EventDraft {
	w := func(pos int, house model.House, name string, pts int) model.WinnerDraft {
		return model.WinnerDraft{Position: pos, House: house, Name: name, Points: &pts}
	}
	return []model.EventDraft{
		{
			Name:        "Classical Dance Competition",
			Date:        model.NewDate(2025, time.January, 15),
			Description: "A classical dance event.",
			Category:    model.Individual,
			GradeLevel:  model.Senior,
			Venue:       "Main Auditorium",
			Winners: []model.WinnerDraft{
				w(1, model.Delany, "Sarah Johnson", 10),
				w(2, model.Gandhi, "Mike Chen", 7),
				w(3, model.Tagore, "Emma Wilson", 5),
			},
		},
		{
			Name:        "Choir Performance",
			Date:        model.NewDate(2025, time.January, 20),
			Description: "A choir singing event.",
			Category:    model.Group,
			GradeLevel:  model.Middle,
			Venue:       "Music Hall",
			Winners: []model.WinnerDraft{
				w(1, model.Aloysius, "Team Alpha", 10),
				w(2, model.Delany, "Team Beta", 7),
				w(3, model.Gandhi, "Team Gamma", 5),
			},
		},
		{
			Name:        "Poetry Recitation",
			Date:        model.NewDate(2025, time.January, 10),
			Description: "A poetry recitation event.",
			Category:    model.Individual,
			GradeLevel:  model.Junior,
			Venue:       "Lecture Hall",
			Winners: []model.WinnerDraft{
				w(1, model.Tagore, "Aman Kumar", 10),
				w(2, model.Delany, "Lisa Chen", 7),
				w(3, model.Gandhi, "Rohit Mehta", 5),
			},
		},
	}
}
