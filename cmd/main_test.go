package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/okian/housecup/internal/config"
	"github.com/okian/housecup/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestNewService(t *testing.T) {
	convey.Convey("Given configuration loaded from the environment", t, func() {
		_ = os.Setenv("HOUSECUP_SEED_DEMO", "true")
		_ = os.Setenv("HOUSECUP_POINTS_INDIVIDUAL", "12,9,6")
		defer func() {
			_ = os.Unsetenv("HOUSECUP_SEED_DEMO")
			_ = os.Unsetenv("HOUSECUP_POINTS_INDIVIDUAL")
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		cfg, err := config.Load(ctx)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When the service is built and started from it", func() {
			svc := newService(cfg, logger.Nop())
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer svc.Stop()
			mux := newMux(ctx, svc, logger.Nop())

			get := func(path string) *httptest.ResponseRecorder {
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
				return w
			}

			convey.Convey("Then every surface is routed", func() {
				convey.So(get("/").Code, convey.ShouldEqual, http.StatusOK)
				convey.So(get("/openapi.yaml").Code, convey.ShouldEqual, http.StatusOK)
				convey.So(get("/healthz").Code, convey.ShouldEqual, http.StatusOK)
				stats := get("/stats").Body.String()
				convey.So(stats, convey.ShouldContainSubstring, `"totalEvents":3`)
				// Delany 24, Gandhi 17, Tagore 15, Aloysius 10
				convey.So(stats, convey.ShouldContainSubstring, `"avgScore":17`)
				convey.So(get("/standings").Body.String(), convey.ShouldContainSubstring, `"house":"Delany"`)
				convey.So(get("/nope").Code, convey.ShouldEqual, http.StatusNotFound)
			})

			convey.Convey("Then configured point scales apply to new events", func() {
				body := `{"name":"Sprint","date":"2025-03-01","category":"Individual","gradeLevel":"Junior",
					"winners":[{"position":1,"house":"Tagore","name":"A"}]}`
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(body)))
				convey.So(w.Code, convey.ShouldEqual, http.StatusCreated)
				convey.So(get("/events?q=sprint").Body.String(), convey.ShouldContainSubstring, `"points":12`)
			})
		})
	})
}

func TestSystemMetrics(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		convey.Convey("Then a single update does not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})

		convey.Convey("Then the loop exits when its context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
		})
	})
}
