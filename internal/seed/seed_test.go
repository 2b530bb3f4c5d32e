package seed_test

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/housecup/internal/adapters/http/api"
	service "github.com/okian/housecup/internal/app"
	model "github.com/okian/housecup/internal/domain/model"
	"github.com/okian/housecup/internal/seed"
	"github.com/okian/housecup/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithEnv("dev")); err != nil {
		panic(err)
	}
}

func startServer(ctx context.Context, opts ...service.Option) (*httptest.Server, *service.Service) {
	svc := service.New(opts...)
	So(svc.Start(ctx), ShouldBeNil)
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(ctx, mux)
	return httptest.NewServer(mux), svc
}

func TestGenerate(t *testing.T) {
	Convey("Given a seeded generator", t, func() {
		items := seed.Generate(50, rand.New(rand.NewPCG(1, 2)))

		Convey("every draft is valid and every key is unique", func() {
			So(items, ShouldHaveLength, 50)
			keys := map[string]bool{}
			for _, it := range items {
				So(it.Draft.Validate(), ShouldBeNil)
				So(keys[it.Key], ShouldBeFalse)
				keys[it.Key] = true
			}
		})

		Convey("winners never share a house within one event", func() {
			for _, it := range items {
				seen := map[model.House]bool{}
				for _, w := range it.Draft.Winners {
					So(seen[w.House], ShouldBeFalse)
					seen[w.House] = true
				}
			}
		})
	})
}

func TestClient(t *testing.T) {
	Convey("Given a running service", t, func() {
		ctx := context.Background()
		srv, svc := startServer(ctx)
		defer srv.Close()
		defer svc.Stop()

		client := seed.NewClient(srv.URL, 5*time.Second)
		items := seed.Generate(1, nil)

		Convey("health succeeds", func() {
			So(client.Health(ctx), ShouldBeNil)
		})

		Convey("a repeated key is answered as a duplicate with the same id", func() {
			id, outcome, err := client.Submit(ctx, items[0])
			So(err, ShouldBeNil)
			So(outcome, ShouldEqual, seed.Created)

			again, outcome, err := client.Submit(ctx, items[0])
			So(err, ShouldBeNil)
			So(outcome, ShouldEqual, seed.Duplicate)
			So(again, ShouldEqual, id)
		})

		Convey("an invalid draft fails with an unexpected status", func() {
			bad := items[0]
			bad.Key = "bad-key"
			bad.Draft.Name = ""
			_, outcome, err := client.Submit(ctx, bad)
			So(outcome, ShouldEqual, seed.Failed)
			So(errors.Is(err, seed.ErrUnexpectedStatus), ShouldBeTrue)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a running service", t, func() {
		ctx := context.Background()
		srv, svc := startServer(ctx)
		defer srv.Close()
		defer svc.Stop()

		out := filepath.Join(t.TempDir(), "out", "events.json")
		cfg := &seed.Config{
			BaseURL:    srv.URL,
			NumEvents:  40,
			Workers:    4,
			Timeout:    5 * time.Second,
			RetryRate:  0.5,
			SettleWait: 5 * time.Second,
			OutputFile: out,
		}

		Convey("a full run creates every event and verifies the standings", func() {
			stats, err := seed.Run(ctx, cfg, logger.Nop())
			So(err, ShouldBeNil)
			So(stats.Generated, ShouldEqual, 40)
			So(stats.Created, ShouldEqual, 40)
			So(stats.Failed, ShouldEqual, 0)
			So(stats.Submitted, ShouldEqual, stats.Created+stats.Duplicates)
			So(stats.Served, ShouldEqual, 40)

			data, err := os.ReadFile(out)
			So(err, ShouldBeNil)
			var saved []seed.Item
			So(json.Unmarshal(data, &saved), ShouldBeNil)
			So(saved, ShouldHaveLength, 40)
		})

		Convey("verification passes on a service seeded with demo data", func() {
			demo, demoSvc := startServer(ctx, service.WithSeedDemo(true))
			defer demo.Close()
			defer demoSvc.Stop()
			So(seed.Verify(ctx, seed.NewClient(demo.URL, time.Second)), ShouldBeNil)
		})
	})

	Convey("Given no service at the address", t, func() {
		cfg := &seed.Config{BaseURL: "http://127.0.0.1:1", NumEvents: 1, Workers: 1, Timeout: 200 * time.Millisecond}

		Convey("the run stops at the health check", func() {
			_, err := seed.Run(context.Background(), cfg, logger.Nop())
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "health check")
		})
	})
}
