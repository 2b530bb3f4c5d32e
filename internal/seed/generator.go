package seed

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	model "github.com/okian/housecup/internal/domain/model"
)

var (
	eventNames = []string{
		"Classical Dance", "Choir", "Poetry Recitation", "Debate", "Quiz Bowl",
		"Chess", "Relay Race", "Science Fair", "Art Exhibition", "Drama",
	}
	firstNames = []string{"Aman", "Priya", "Rahul", "Ananya", "Sarah", "Mike", "Emma", "Lisa", "Rohit", "Kavya"}
	lastNames  = []string{"Kumar", "Sharma", "Verma", "Gupta", "Johnson", "Chen", "Wilson", "Mehta", "Iyer", "Das"}
	venues     = []string{"", "Main Auditorium", "Music Hall", "Lecture Hall", "Sports Ground"}
	grades     = []model.GradeLevel{model.Junior, model.Middle, model.Senior}
)

// Generate creates n events with random winners. Roughly one winner in five
// carries explicit points; the rest rely on the category defaults.
func Generate(n int, rng *rand.Rand) []Item {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	base := model.NewDate(2025, time.January, 1)
	items := make([]Item, n)
	for i := range items {
		items[i] = Item{Key: uuid.NewString(), Draft: generateOne(i, base, rng)}
	}
	return items
}

func generateOne(i int, base model.Date, rng *rand.Rand) model.EventDraft {
	category := model.Individual
	if rng.IntN(3) == 0 {
		category = model.Group
	}
	day := time.Date(base.Year, base.Month, base.Day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, rng.IntN(180))
	d := model.EventDraft{
		Name:       fmt.Sprintf("%s #%d", pick(eventNames, rng), i+1),
		Date:       model.NewDate(day.Year(), day.Month(), day.Day()),
		Category:   category,
		GradeLevel: pick(grades, rng),
		Venue:      pick(venues, rng),
	}

	houses := model.Houses()
	rng.Shuffle(len(houses), func(a, b int) { houses[a], houses[b] = houses[b], houses[a] })
	winners := 1 + rng.IntN(3)
	for pos := 1; pos <= winners; pos++ {
		w := model.WinnerDraft{Position: pos, House: houses[pos-1]}
		if category == model.Group {
			w.Name = fmt.Sprintf("Team %s", houses[pos-1])
		} else {
			w.Name = pick(firstNames, rng) + " " + pick(lastNames, rng)
		}
		if rng.IntN(5) == 0 {
			p := rng.IntN(25)
			w.Points = &p
		}
		d.Winners = append(d.Winners, w)
	}
	return d
}

func pick[T any](xs []T, rng *rand.Rand) T {
	return xs[rng.IntN(len(xs))]
}
