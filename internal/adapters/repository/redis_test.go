package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRedisStoreAcrossInstances(t *testing.T) {
	Convey("Given two stores sharing one Redis server", t, func() {
		ctx := context.Background()
		mr := miniredis.RunT(t)
		clientA := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		clientB := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer clientA.Close()
		defer clientB.Close()
		writer := NewRedisStore(clientA, WithKeyPrefix("school:"))
		reader := NewRedisStore(clientB, WithKeyPrefix("school:"))
		defer writer.Close()
		defer reader.Close()

		rec := newRecorder()
		unsub, err := reader.Subscribe(ctx, rec)
		So(err, ShouldBeNil)
		defer unsub()
		<-rec.snaps

		Convey("When the writer creates and removes events", func() {
			id, err := writer.Create(ctx, sample("Dance"))
			So(err, ShouldBeNil)
			_, ok := rec.until(withLen(1))
			So(ok, ShouldBeTrue)
			So(writer.Remove(ctx, id), ShouldBeNil)

			Convey("Then the reader's subscribers follow every change", func() {
				_, ok := rec.until(withLen(0))
				So(ok, ShouldBeTrue)
			})

			Convey("Then keys live under the configured prefix", func() {
				So(mr.Exists("school:events:seq"), ShouldBeTrue)
			})
		})
	})
}

func TestRedisStoreOutage(t *testing.T) {
	Convey("Given a subscribed Redis store", t, func() {
		ctx := context.Background()
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
		defer client.Close()
		store := NewRedisStore(client)
		defer store.Close()

		rec := newRecorder()
		unsub, err := store.Subscribe(ctx, rec)
		So(err, ShouldBeNil)
		defer unsub()
		<-rec.snaps

		Convey("When the server goes away", func() {
			mr.Close()

			Convey("Then the subscriber sees a subscription failure", func() {
				So(errors.Is(rec.failure(), ErrSubscription), ShouldBeTrue)
			})

			Convey("Then writes fail as unavailable", func() {
				_, err := store.Create(ctx, sample("A"))
				So(errors.Is(err, ErrUnavailable), ShouldBeTrue)
			})
		})
	})
}

func TestRedisStoreReloadRecovery(t *testing.T) {
	Convey("Given a subscribed Redis store", t, func() {
		ctx := context.Background()
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
		defer client.Close()
		store := NewRedisStore(client, WithKeyPrefix("school:"))
		defer store.Close()

		rec := newRecorder()
		unsub, err := store.Subscribe(ctx, rec)
		So(err, ShouldBeNil)
		defer unsub()
		<-rec.snaps

		Convey("When a reload fails while the server is loading", func() {
			mr.SetError("LOADING transient")
			mr.Publish("school:events:changes", "x")
			So(errors.Is(rec.failure(), ErrSubscription), ShouldBeTrue)

			Convey("Then a fresh snapshot arrives once the server answers again, without further writes", func() {
				mr.SetError("")
				events, ok := rec.until(withLen(0))
				So(ok, ShouldBeTrue)
				So(events, ShouldBeEmpty)
			})
		})
	})
}

func TestDialRedis(t *testing.T) {
	Convey("Given a running server", t, func() {
		mr := miniredis.RunT(t)

		Convey("Then DialRedis connects", func() {
			client, err := DialRedis(context.Background(), mr.Addr(), "", 0)
			So(err, ShouldBeNil)
			So(client.Close(), ShouldBeNil)
		})

		Convey("Then a dead address is reported as unavailable", func() {
			addr := mr.Addr()
			mr.Close()
			_, err := DialRedis(context.Background(), addr, "", 0)
			So(errors.Is(err, ErrUnavailable), ShouldBeTrue)
		})
	})
}
