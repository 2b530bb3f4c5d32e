package export_test

import (
	"bytes"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/xuri/excelize/v2"

	"github.com/okian/housecup/internal/domain/export"
	model "github.com/okian/housecup/internal/domain/model"
)

func events() []model.Event {
	return []model.Event{
		{
			Name: "Classical Dance Competition", Date: model.NewDate(2025, time.January, 15),
			Category: model.Individual, GradeLevel: model.Senior,
			Winners: []model.Winner{
				{Position: 1, House: model.Delany, Name: "John Doe", Points: 10},
				{Position: 2, House: model.Gandhi, Name: `Mike "The Mic" Johnson`, Points: 7},
			},
		},
		{Name: "Empty", Date: model.NewDate(2025, time.January, 16), Category: model.Group, GradeLevel: model.Junior},
		{
			Name: "Choir, Performance", Date: model.NewDate(2025, time.January, 20),
			Category: model.Group, GradeLevel: model.Middle,
			Winners: []model.Winner{{Position: 1, House: model.Aloysius, Name: "Team Alpha", Points: 20}},
		},
	}
}

func TestCSV(t *testing.T) {
	Convey("Given events with winners", t, func() {
		var buf bytes.Buffer
		So(export.CSV(&buf, events()), ShouldBeNil)

		Convey("Then every field is quoted and rows are newline-joined", func() {
			want := `"Event Name","Event Date","Winner Position","House","Winner Name","Points"` + "\n" +
				`"Classical Dance Competition","2025-01-15","1","Delany","John Doe","10"` + "\n" +
				`"Classical Dance Competition","2025-01-15","2","Gandhi","Mike ""The Mic"" Johnson","7"` + "\n" +
				`"Choir, Performance","2025-01-20","1","Aloysius","Team Alpha","20"`
			So(buf.String(), ShouldEqual, want)
		})
	})

	Convey("Given no events", t, func() {
		Convey("Then only the header is written", func() {
			So(export.CSVString(nil), ShouldEqual,
				`"Event Name","Event Date","Winner Position","House","Winner Name","Points"`)
		})
	})
}

func TestRows(t *testing.T) {
	Convey("Given events", t, func() {
		rows := export.Rows(events())

		Convey("Then there is one row per winner", func() {
			So(rows, ShouldHaveLength, 3)
			So(rows[2], ShouldResemble, []string{"Choir, Performance", "2025-01-20", "1", "Aloysius", "Team Alpha", "20"})
		})
	})
}

func TestXLSX(t *testing.T) {
	Convey("Given a workbook export", t, func() {
		var buf bytes.Buffer
		So(export.XLSX(&buf, events()), ShouldBeNil)

		f, err := excelize.OpenReader(&buf)
		So(err, ShouldBeNil)
		defer f.Close()

		Convey("Then the results sheet mirrors the CSV rows", func() {
			rows, err := f.GetRows(export.ResultsSheet)
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 4)
			So(rows[0], ShouldResemble, export.Header)
			So(rows[2][4], ShouldEqual, `Mike "The Mic" Johnson`)
			So(rows[3][5], ShouldEqual, "20")
		})

		Convey("Then the standings sheet ranks the houses", func() {
			rows, err := f.GetRows(export.StandingsSheet)
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 5)
			So(rows[1], ShouldResemble, []string{"1", "Aloysius", "20"})
			So(rows[2], ShouldResemble, []string{"2", "Delany", "10"})
		})
	})
}
