package observability_test

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/housecup/pkg/observability"
)

func TestSentryDisabled(t *testing.T) {
	Convey("Given no DSN", t, func() {
		flush, err := observability.InitSentry("", "test", "dev")

		Convey("Then reporting is a no-op", func() {
			So(err, ShouldBeNil)
			So(flush, ShouldNotBeNil)
			So(func() {
				flush()
				observability.CaptureErr(nil)
				observability.CaptureErr(errors.New("boom"))
				observability.Report("relay")(context.Background(), errors.New("boom"))
			}, ShouldNotPanic)
		})
	})

	Convey("Given a malformed DSN", t, func() {
		flush, err := observability.InitSentry("not a dsn", "test", "dev")
		So(err, ShouldNotBeNil)
		So(flush, ShouldNotBeNil)
	})
}
