package gateway_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/housecup/internal/adapters/repository"
	"github.com/okian/housecup/internal/domain/gateway"
	model "github.com/okian/housecup/internal/domain/model"
	"github.com/okian/housecup/internal/domain/points"
)

// fakeWriter records what reached the store.
type fakeWriter struct {
	created  []model.Event
	replaced map[string]model.Event
	removed  []string
	err      error
}

func (f *fakeWriter) Create(_ context.Context, e model.Event) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.created = append(f.created, e)
	return "generated-id", nil
}

func (f *fakeWriter) Replace(_ context.Context, id string, e model.Event) error {
	if f.err != nil {
		return f.err
	}
	if f.replaced == nil {
		f.replaced = map[string]model.Event{}
	}
	f.replaced[id] = e
	return nil
}

func (f *fakeWriter) Remove(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	f.removed = append(f.removed, id)
	return nil
}

func pts(v int) *int { return &v }

func draft(category model.Category, winners ...model.WinnerDraft) model.EventDraft {
	return model.EventDraft{
		Name:       "Choir Performance",
		Date:       model.NewDate(2025, time.January, 20),
		Category:   category,
		GradeLevel: model.Middle,
		Winners:    winners,
	}
}

func TestAddEvent(t *testing.T) {
	Convey("Given a gateway over a recording store", t, func() {
		ctx := context.Background()
		store := &fakeWriter{}
		g := gateway.New(store)

		Convey("When a draft has no winners", func() {
			id, err := g.AddEvent(ctx, draft(model.Group))

			Convey("Then the store receives an empty winner list", func() {
				So(err, ShouldBeNil)
				So(id, ShouldEqual, "generated-id")
				So(store.created, ShouldHaveLength, 1)
				So(store.created[0].Winners, ShouldNotBeNil)
				So(store.created[0].Winners, ShouldBeEmpty)

				doc, _ := json.Marshal(store.created[0])
				So(string(doc), ShouldContainSubstring, `"winners":[]`)
				So(string(doc), ShouldNotContainSubstring, "description")
				So(string(doc), ShouldNotContainSubstring, "venue")
			})
		})

		Convey("When winners omit points", func() {
			_, err := g.AddEvent(ctx, draft(model.Group,
				model.WinnerDraft{Position: 1, House: model.Aloysius, Name: "Team Alpha"},
				model.WinnerDraft{Position: 2, House: model.Delany, Name: "Team Beta", Points: pts(3)},
			))

			Convey("Then defaults fill the gaps and explicit points are kept", func() {
				So(err, ShouldBeNil)
				So(store.created[0].Winners[0].Points, ShouldEqual, 20)
				So(store.created[0].Winners[1].Points, ShouldEqual, 3)
			})
		})

		Convey("When an individual second place omits points", func() {
			_, err := g.AddEvent(ctx, draft(model.Individual,
				model.WinnerDraft{Position: 2, House: model.Gandhi, Name: "Mike"},
			))
			So(err, ShouldBeNil)
			So(store.created[0].Winners[0].Points, ShouldEqual, 7)
		})

		Convey("When the draft is invalid", func() {
			bad := draft(model.Individual, model.WinnerDraft{Position: 1, House: "Unknown", Name: "X"})
			bad.Name = "   "
			_, err := g.AddEvent(ctx, bad)

			Convey("Then it is rejected before reaching the store", func() {
				So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
				So(errors.Is(err, gateway.ErrStore), ShouldBeFalse)
				So(gateway.Outcome(err), ShouldEqual, "invalid")
				So(store.created, ShouldBeEmpty)
			})
		})

		Convey("When a winner is past the default scale without points", func() {
			_, err := g.AddEvent(ctx, draft(model.Individual,
				model.WinnerDraft{Position: 5, House: model.Tagore, Name: "Late"},
			))
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
			So(store.created, ShouldBeEmpty)
		})

		Convey("When the store is down", func() {
			store.err = repository.ErrUnavailable
			_, err := g.AddEvent(ctx, draft(model.Group))

			Convey("Then the failure is a store error carrying the cause", func() {
				So(errors.Is(err, gateway.ErrStore), ShouldBeTrue)
				So(errors.Is(err, repository.ErrUnavailable), ShouldBeTrue)
				So(errors.Is(err, model.ErrValidation), ShouldBeFalse)
				var se *gateway.StoreError
				So(errors.As(err, &se), ShouldBeTrue)
				So(se.Op, ShouldEqual, gateway.OpAdd)
				So(gateway.Outcome(err), ShouldEqual, "store_error")
			})
		})
	})
}

func TestCustomPolicy(t *testing.T) {
	Convey("Given a gateway with a custom group scale", t, func() {
		store := &fakeWriter{}
		g := gateway.New(store, gateway.WithPolicy(points.New(points.WithScale(model.Group, 30, 20, 10))))

		_, err := g.AddEvent(context.Background(), draft(model.Group,
			model.WinnerDraft{Position: 1, House: model.Tagore, Name: "T"}))

		Convey("Then the custom default applies", func() {
			So(err, ShouldBeNil)
			So(store.created[0].Winners[0].Points, ShouldEqual, 30)
			So(g.Policy().Scale(model.Group), ShouldResemble, []int{30, 20, 10})
		})
	})
}

func TestUpdateAndDelete(t *testing.T) {
	Convey("Given a gateway over a memory store with one event", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		defer store.Close()
		g := gateway.New(store)

		photo := "https://example.org/p.png"
		initial := draft(model.Individual,
			model.WinnerDraft{Position: 1, House: model.Delany, Name: "John", Photo: &photo},
			model.WinnerDraft{Position: 2, House: model.Gandhi, Name: "Mike"},
		)
		initial.Venue = "Main Auditorium"
		id, err := g.AddEvent(ctx, initial)
		So(err, ShouldBeNil)

		var latest []model.Event
		unsub, err := store.Subscribe(ctx, repository.ObserverFuncs{
			OnSnapshot: func(events []model.Event) { latest = events },
		})
		So(err, ShouldBeNil)
		defer unsub()

		Convey("When it is updated without winners or venue", func() {
			err := g.UpdateEvent(ctx, model.EventUpdate{ID: id, EventDraft: draft(model.Individual)})

			Convey("Then the previous winners and venue are gone", func() {
				So(err, ShouldBeNil)
				So(latest, ShouldHaveLength, 1)
				So(latest[0].ID, ShouldEqual, id)
				So(latest[0].Winners, ShouldBeEmpty)
				So(latest[0].Venue, ShouldEqual, "")
			})
		})

		Convey("When a stored event round-trips through an update", func() {
			err := g.UpdateEvent(ctx, model.UpdateOf(latest[0]))

			Convey("Then nothing changes", func() {
				So(err, ShouldBeNil)
				So(*latest[0].Winners[0].Photo, ShouldEqual, photo)
				So(latest[0].Winners[1].Points, ShouldEqual, 7)
				So(latest[0].Venue, ShouldEqual, "Main Auditorium")
			})
		})

		Convey("When an unknown id is updated", func() {
			err := g.UpdateEvent(ctx, model.EventUpdate{ID: "nope", EventDraft: draft(model.Group)})

			Convey("Then the store's not found surfaces", func() {
				So(errors.Is(err, gateway.ErrStore), ShouldBeTrue)
				So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
				So(gateway.Outcome(err), ShouldEqual, "not_found")
			})
		})

		Convey("When the update has no id", func() {
			err := g.UpdateEvent(ctx, model.EventUpdate{EventDraft: draft(model.Group)})
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
		})

		Convey("When it is deleted", func() {
			So(g.DeleteEvent(ctx, id), ShouldBeNil)

			Convey("Then it is gone and deleting again fails", func() {
				So(latest, ShouldBeEmpty)
				err := g.DeleteEvent(ctx, id)
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				var se *gateway.StoreError
				So(errors.As(err, &se), ShouldBeTrue)
				So(se.ID, ShouldEqual, id)
			})
		})

		Convey("When delete is called without an id", func() {
			So(errors.Is(g.DeleteEvent(ctx, " "), model.ErrValidation), ShouldBeTrue)
		})
	})
}
