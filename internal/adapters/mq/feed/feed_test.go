package feed

import (
	"context"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func recv[T any](ch <-chan T) (T, bool) {
	select {
	case v, ok := <-ch:
		return v, ok
	case <-time.After(2 * time.Second):
		var zero T
		return zero, false
	}
}

func TestFeed_Latest(t *testing.T) {
	Convey("Given a feed with a published value", t, func() {
		f := New[int]()
		defer f.Close()
		So(f.Publish(1), ShouldBeTrue)

		Convey("When a reader subscribes", func() {
			ch := f.Subscribe(context.Background())

			Convey("Then it gets the latest value first", func() {
				v, ok := recv(ch)
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, 1)
			})
		})

		Convey("When several values arrive before the reader looks", func() {
			ch := f.Subscribe(context.Background())
			f.Publish(2)
			f.Publish(3)
			f.Publish(4)

			Convey("Then only the newest is delivered", func() {
				v, ok := recv(ch)
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, 4)

				pending := false
				select {
				case <-ch:
					pending = true
				default:
				}
				So(pending, ShouldBeFalse)
			})
		})
	})
}

func TestFeed_Initial(t *testing.T) {
	Convey("Given a feed seeded with a value", t, func() {
		f := New[string](WithInitial("ready"))
		v, ok := f.Latest()
		So(ok, ShouldBeTrue)
		So(v, ShouldEqual, "ready")

		Convey("Then a mistyped seed is ignored", func() {
			g := New[string](WithInitial(42))
			_, ok := g.Latest()
			So(ok, ShouldBeFalse)
		})
	})
}

func TestFeed_Lifecycle(t *testing.T) {
	Convey("Given a feed with readers", t, func() {
		f := New[int]()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		a := f.Subscribe(ctx)
		b := f.Subscribe(context.Background())
		So(f.Len(), ShouldEqual, 2)

		Convey("When a reader's context ends", func() {
			cancel()
			_, ok := recv(a)

			Convey("Then its channel is closed and it is forgotten", func() {
				So(ok, ShouldBeFalse)
				So(f.Len(), ShouldEqual, 1)
			})
		})

		Convey("When the feed is closed", func() {
			So(f.Close(), ShouldBeNil)

			Convey("Then every channel closes and publishing stops", func() {
				_, ok := recv(b)
				So(ok, ShouldBeFalse)
				So(f.IsClosed(), ShouldBeTrue)
				So(f.Publish(9), ShouldBeFalse)
				_, ok = recv(f.Subscribe(context.Background()))
				So(ok, ShouldBeFalse)
			})
		})
	})
}

func TestFeed_ConcurrentPublish(t *testing.T) {
	Convey("Given concurrent writers and a reader", t, func() {
		f := New[int]()
		defer f.Close()
		ch := f.Subscribe(context.Background())

		var wg sync.WaitGroup
		for i := 1; i <= 50; i++ {
			wg.Add(1)
			go func(v int) {
				defer wg.Done()
				f.Publish(v)
			}(i)
		}
		wg.Wait()

		Convey("Then the reader ends up with some published value and never blocks writers", func() {
			v, ok := recv(ch)
			So(ok, ShouldBeTrue)
			So(v, ShouldBeBetweenOrEqual, 1, 50)
			latest, _ := f.Latest()
			So(latest, ShouldBeBetweenOrEqual, 1, 50)
		})
	})
}
