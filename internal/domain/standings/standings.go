// Package standings derives the house table from the event collection.
package standings

import (
	"math"
	"sort"
	"sync/atomic"

	model "github.com/okian/housecup/internal/domain/model"
	types "github.com/okian/housecup/internal/domain/types"
)

// Totals sums winner points per house. Winners with an unrecognised house
// contribute nothing.
func Totals(events []model.Event) map[model.House]int {
	totals := make(map[model.House]int, len(model.Houses()))
	for _, h := range model.Houses() {
		totals[h] = 0
	}
	for _, e := range events {
		for _, w := range e.Winners {
			if !w.House.Valid() {
				continue
			}
			totals[w.House] += w.Points
		}
	}
	return totals
}

// Summarize computes the dashboard figures. AvgScore averages Totals over
// the recognised houses that appear among the winners.
func Summarize(events []model.Event) model.Summary {
	s := model.Summary{TotalEvents: len(events)}
	names := make(map[string]struct{})
	present := make(map[model.House]struct{}, len(model.Houses()))
	for _, e := range events {
		s.Awards += len(e.Winners)
		for _, w := range e.Winners {
			if w.Name != "" {
				names[w.Name] = struct{}{}
			}
			if w.House.Valid() {
				present[w.House] = struct{}{}
			}
		}
	}
	s.Participants = len(names)
	if len(present) == 0 {
		return s
	}
	totals := Totals(events)
	sum := 0
	for h := range present {
		sum += totals[h]
	}
	s.AvgScore = int(math.Floor(float64(sum)/float64(len(present)) + 0.5))
	return s
}

// Compute returns the four houses ranked by score, highest first. Ties keep
// the fixed house order. Rank 1 is flagged as leading.
func Compute(events []model.Event) []types.Standing {
	totals := Totals(events)
	houses := model.Houses()
	rows := make([]types.Standing, len(houses))
	for i, h := range houses {
		rows[i] = types.Standing{House: h, Score: totals[h]}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Score > rows[j].Score
	})
	for i := range rows {
		rows[i].Rank = i + 1
		rows[i].Leading = i == 0
	}
	return rows
}

type memoEntry struct {
	version uint64
	rows    []types.Standing
}

// Memo caches the standings of the most recent snapshot version. It is safe
// for concurrent use.
type Memo struct {
	last atomic.Pointer[memoEntry]
}

// Get returns the standings for events at the given version, recomputing in
// full when the version differs from the cached one. The second result
// reports whether the cached rows were reused.
func (m *Memo) Get(version uint64, events []model.Event) ([]types.Standing, bool) {
	if e := m.last.Load(); e != nil && e.version == version {
		return cloneRows(e.rows), true
	}
	rows := Compute(events)
	m.last.Store(&memoEntry{version: version, rows: rows})
	return cloneRows(rows), false
}

func cloneRows(rows []types.Standing) []types.Standing {
	return append([]types.Standing(nil), rows...)
}
