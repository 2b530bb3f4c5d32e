package types_test

import (
	"encoding/json"
	"testing"

	model "github.com/okian/housecup/internal/domain/model"
	types "github.com/okian/housecup/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestStanding(t *testing.T) {
	Convey("Given a standing row", t, func() {
		s := types.Standing{Rank: 1, House: model.Delany, Score: 32, Leading: true}

		Convey("When encoded", func() {
			b, err := json.Marshal(s)

			Convey("Then it uses the wire field names", func() {
				So(err, ShouldBeNil)
				So(string(b), ShouldEqual, `{"rank":1,"house":"Delany","score":32,"leading":true}`)
			})
		})
	})
}

func TestLeader(t *testing.T) {
	Convey("Given standings rows", t, func() {
		rows := []types.Standing{
			{Rank: 1, House: model.Tagore, Score: 15, Leading: true},
			{Rank: 2, House: model.Delany, Score: 10},
		}

		Convey("Then the leading row is found", func() {
			l, ok := types.Leader(rows)
			So(ok, ShouldBeTrue)
			So(l.House, ShouldEqual, model.Tagore)
		})

		Convey("Then an empty table has no leader", func() {
			_, ok := types.Leader(nil)
			So(ok, ShouldBeFalse)
		})
	})
}
