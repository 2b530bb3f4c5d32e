package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	dedupe "github.com/okian/housecup/internal/domain/dedupe"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new InMemoryDeduper", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper()
		So(d.Size(), ShouldEqual, 0)

		Convey("When a key is used for the first time", func() {
			id, seen := d.SeenAndRecord(ctx, "key-1")

			Convey("Then it is recorded as new", func() {
				So(seen, ShouldBeFalse)
				So(id, ShouldBeEmpty)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When a key is reused while the first request is in flight", func() {
			d.SeenAndRecord(ctx, "key-1")
			id, seen := d.SeenAndRecord(ctx, "key-1")

			Convey("Then it is seen without an id", func() {
				So(seen, ShouldBeTrue)
				So(id, ShouldBeEmpty)
			})
		})

		Convey("When a key is reused after completion", func() {
			d.SeenAndRecord(ctx, "key-1")
			d.Complete(ctx, "key-1", "event-42")
			id, seen := d.SeenAndRecord(ctx, "key-1")

			Convey("Then the original id is returned", func() {
				So(seen, ShouldBeTrue)
				So(id, ShouldEqual, "event-42")
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When a key is unrecorded after a failed write", func() {
			d.SeenAndRecord(ctx, "key-1")
			d.Unrecord(ctx, "key-1")
			d.Unrecord(ctx, "key-1")

			Convey("Then it can be used again", func() {
				So(d.Size(), ShouldEqual, 0)
				_, seen := d.SeenAndRecord(ctx, "key-1")
				So(seen, ShouldBeFalse)
			})
		})

		Convey("When completing an unknown key", func() {
			d.Complete(ctx, "ghost", "x")
			So(d.Size(), ShouldEqual, 0)
		})
	})
}

func TestBoundedDeduper(t *testing.T) {
	Convey("Given a deduper bounded to three keys", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		for i := 1; i <= 4; i++ {
			d.SeenAndRecord(ctx, fmt.Sprintf("k%d", i))
		}

		Convey("Then the oldest key was evicted", func() {
			So(d.Size(), ShouldEqual, 3)
			_, seen := d.SeenAndRecord(ctx, "k4")
			So(seen, ShouldBeTrue)
			_, seen = d.SeenAndRecord(ctx, "k2")
			So(seen, ShouldBeTrue)
			_, seen = d.SeenAndRecord(ctx, "k1")
			So(seen, ShouldBeFalse)
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
		for i := 0; i < 100; i++ {
			d.SeenAndRecord(ctx, fmt.Sprintf("k%d", i))
		}
		So(d.Size(), ShouldEqual, 100)
	})
}

func TestConcurrentDeduper(t *testing.T) {
	Convey("Given many goroutines racing on the same key", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper()
		var wg sync.WaitGroup
		var mu sync.Mutex
		winners := 0
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, seen := d.SeenAndRecord(ctx, "same"); !seen {
					mu.Lock()
					winners++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		Convey("Then exactly one of them records it", func() {
			So(winners, ShouldEqual, 1)
			So(d.Size(), ShouldEqual, 1)
		})
	})
}
