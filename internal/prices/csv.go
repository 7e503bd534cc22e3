package prices

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"cryptoPortfolioSim/internal/market"
)

const dateLayout = "2006-01-02"

// layouts accepted on read. Besides our own, these cover the timestamp
// formats pandas writes for a DatetimeIndex.
var dateLayouts = []string{
	dateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05-07:00",
	time.RFC3339,
}

// CSVCache stores the table as "Date,<sym1>,...,<symN>" rows.
type CSVCache struct {
	path string
}

func NewCSVCache(path string) *CSVCache { return &CSVCache{path: path} }

func (c *CSVCache) Path() string { return c.path }

func (c *CSVCache) Read(_ context.Context) (*Table, error) {
	f, err := os.Open(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoCache
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeCSV(f)
}

// Write replaces the file atomically so a failed write leaves the previous
// cache in place.
func (c *CSVCache) Write(_ context.Context, t *Table) error {
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := EncodeCSV(tmp, t); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), c.path)
}

// EncodeCSV writes the table with a header row.
func EncodeCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"Date"}, t.Symbols...)); err != nil {
		return err
	}
	rec := make([]string, len(t.Symbols)+1)
	for _, r := range t.Rows {
		rec[0] = r.Date.Format(dateLayout)
		for i, s := range t.Symbols {
			rec[i+1] = strconv.FormatFloat(r.Close[s], 'f', -1, 64)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// DecodeCSV reads a table written by EncodeCSV or by pandas' to_csv.
// Rows with an empty or invalid cell are dropped.
func DecodeCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoCache
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if len(header) < 2 || !strings.EqualFold(strings.TrimSpace(header[0]), "Date") {
		return nil, fmt.Errorf("invalid csv header %v: want Date,<symbols...>", header)
	}
	symbols := make([]string, len(header)-1)
	for i, h := range header[1:] {
		symbols[i] = strings.ToUpper(strings.TrimSpace(h))
	}

	t := NewTable(symbols)
	var rows []Row
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if len(rec) != len(header) {
			continue
		}
		d, err := parseDate(rec[0])
		if err != nil {
			return nil, err
		}
		row := Row{Date: d, Close: make(map[string]float64, len(symbols))}
		for i, s := range symbols {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[i+1]), 64)
			if err != nil {
				continue
			}
			row.Close[s] = v
		}
		rows = append(rows, row)
	}
	t.Append(rows...)
	return t, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return market.Day(d), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}
