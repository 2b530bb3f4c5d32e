package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	model "github.com/okian/housecup/internal/domain/model"
	"github.com/okian/housecup/internal/domain/standings"
)

// Sheet names in the workbook.
const (
	ResultsSheet   = "Results"
	StandingsSheet = "Standings"
)

var standingsHeader = []string{"Rank", "House", "Score"}

// XLSX writes a workbook with a Results sheet (same columns as the CSV) and
// a Standings sheet.
func XLSX(w io.Writer, events []model.Event) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", ResultsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(StandingsSheet); err != nil {
		return fmt.Errorf("new sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	results := make([][]any, 0)
	for _, row := range Rows(events) {
		position, _ := strconv.Atoi(row[2])
		pts, _ := strconv.Atoi(row[5])
		results = append(results, []any{row[0], row[1], position, row[3], row[4], pts})
	}
	if err := writeSheet(f, ResultsSheet, Header, results, bold); err != nil {
		return err
	}

	table := make([][]any, 0, len(model.Houses()))
	for _, s := range standings.Compute(events) {
		table = append(table, []any{s.Rank, string(s.House), s.Score})
	}
	if err := writeSheet(f, StandingsSheet, standingsHeader, table, bold); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]any, bold int) error {
	head := make([]any, len(header))
	for i, h := range header {
		head[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &head); err != nil {
		return fmt.Errorf("%s header: %w", sheet, err)
	}
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, r+2, err)
		}
	}

	last, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	_ = f.SetCellStyle(sheet, "A1", last+"1", bold)
	_ = f.AutoFilter(sheet, "A1:"+last+"1", nil)

	for c := 1; c <= len(header); c++ {
		col, _ := excelize.ColumnNumberToName(c)
		width := float64(len(header[c-1])) + 2
		for _, row := range rows {
			if l := float64(len(fmt.Sprint(row[c-1]))) * 1.1; l > width {
				width = l
			}
		}
		_ = f.SetColWidth(sheet, col, col, min(width, 60))
	}
	return nil
}
