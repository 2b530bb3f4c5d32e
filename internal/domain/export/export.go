// Package export renders the event collection as downloadable files.
package export

import (
	"io"
	"strconv"
	"strings"

	model "github.com/okian/housecup/internal/domain/model"
)

// Header is the column order shared by every results export.
var Header = []string{"Event Name", "Event Date", "Winner Position", "House", "Winner Name", "Points"}

// Filenames offered to browsers.
const (
	CSVFilename  = "event_results.csv"
	XLSXFilename = "event_results.xlsx"
)

// Rows flattens events into one row per (event, winner) pair, in collection
// order then winner order. Events without winners produce no rows.
func Rows(events []model.Event) [][]string {
	var rows [][]string
	for _, e := range events {
		for _, w := range e.Winners {
			rows = append(rows, []string{
				e.Name,
				e.Date.String(),
				strconv.Itoa(w.Position),
				string(w.House),
				w.Name,
				strconv.Itoa(w.Points),
			})
		}
	}
	return rows
}

// CSV writes the header and one row per winner. Every field is quoted with
// inner quotes doubled; rows are joined by "\n" with no trailing newline.
func CSV(w io.Writer, events []model.Event) error {
	_, err := io.WriteString(w, CSVString(events))
	return err
}

// CSVString is CSV into a string.
func CSVString(events []model.Event) string {
	var b strings.Builder
	writeRow(&b, Header)
	for _, row := range Rows(events) {
		b.WriteByte('\n')
		writeRow(&b, row)
	}
	return b.String()
}

func writeRow(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
}
