package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okian/housecup/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInstrument(t *testing.T) {
	Convey("Given an instrumented handler", t, func() {
		Convey("When the handler panics before writing", func() {
			h := instrument("boom", logger.Nop(), func(http.ResponseWriter, *http.Request) {
				panic("kaboom")
			})
			w := httptest.NewRecorder()

			Convey("Then the client gets a 500 with the error body", func() {
				So(func() { h(w, httptest.NewRequest(http.MethodGet, "/boom", nil)) }, ShouldNotPanic)
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(w.Body.String(), ShouldContainSubstring, `"code":"internal"`)
			})
		})

		Convey("When the handler writes a body without a header", func() {
			rec := &statusRecorder{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK}
			_, err := rec.Write([]byte("ok"))

			Convey("Then the status stays 200", func() {
				So(err, ShouldBeNil)
				So(rec.status, ShouldEqual, http.StatusOK)
				So(rec.wrote, ShouldBeTrue)
			})
		})
	})
}

func TestClassify(t *testing.T) {
	Convey("Given failed statuses", t, func() {
		cases := map[int]string{
			http.StatusServiceUnavailable:  "store_unavailable",
			http.StatusInternalServerError: "server_error",
			http.StatusConflict:            "conflict",
			http.StatusNotFound:            "not_found",
			http.StatusMethodNotAllowed:    "method_not_allowed",
			http.StatusBadRequest:          "client_error",
		}
		for status, want := range cases {
			kind, _ := classify(status)
			So(kind, ShouldEqual, want)
		}
	})
}
