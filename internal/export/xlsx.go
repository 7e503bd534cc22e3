// Package export writes a portfolio run as an XLSX workbook.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"cryptoPortfolioSim/internal/portfolio"
)

const (
	SummarySheet = "Summary"
	SeriesSheet  = "Series"
)

// Workbook builds a two-sheet workbook: the formatted summary and one row
// per date with the portfolio value, each coin's growth and each coin's value.
// The caller must Close the returned file.
func Workbook(run *portfolio.Run) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeSummary(f, run); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(SeriesSheet); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeSeries(f, run); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// Write streams the workbook of run to w.
func Write(w io.Writer, run *portfolio.Run) error {
	f, err := Workbook(run)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteTo(w)
	return err
}

func writeSummary(f *excelize.File, run *portfolio.Run) error {
	s := run.Summary()
	rows := [][]any{
		{"Timeframe", s.Timeframe},
		{"Start", s.Start},
		{"End", s.End},
		{"Investment", run.Investment},
		{"Final Value", run.FinalValue},
		{"Growth %", run.GrowthPct},
		{"Allocation", run.Allocation()},
	}
	for i, row := range rows {
		if err := setRow(f, SummarySheet, i+1, row); err != nil {
			return err
		}
	}
	return nil
}

func writeSeries(f *excelize.File, run *portfolio.Run) error {
	header := []any{"Date", "Portfolio Value"}
	for _, c := range run.Coins {
		header = append(header, c+" Growth")
	}
	for _, c := range run.Coins {
		header = append(header, c+" Value")
	}
	if err := setRow(f, SeriesSheet, 1, header); err != nil {
		return err
	}
	values := make(map[string][]float64, len(run.Coins))
	for _, c := range run.Coins {
		values[c] = run.AssetValues(c)
	}
	for i, d := range run.Dates {
		row := []any{d.Format("2006-01-02"), run.Values[i]}
		for _, c := range run.Coins {
			row = append(row, run.Growth[c][i])
		}
		for _, c := range run.Coins {
			row = append(row, values[c][i])
		}
		if err := setRow(f, SeriesSheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}
