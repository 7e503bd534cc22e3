package prices

import (
	"fmt"
	"math"
	"sort"
	"time"

	"cryptoPortfolioSim/internal/market"
)

// Row is one calendar day of closes, keyed by tracked symbol.
type Row struct {
	Date  time.Time
	Close map[string]float64
}

// Table is the aligned price history: one column per symbol, rows strictly
// ascending and unique by date, every cell present.
type Table struct {
	Symbols []string
	Rows    []Row
}

// NewTable returns an empty table tracking symbols.
func NewTable(symbols []string) *Table {
	s := make([]string, len(symbols))
	copy(s, symbols)
	return &Table{Symbols: s}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// FirstDate returns the earliest date, or the zero time for an empty table.
func (t *Table) FirstDate() time.Time {
	if t.Len() == 0 {
		return time.Time{}
	}
	return t.Rows[0].Date
}

// LastDate returns the latest date, or the zero time for an empty table.
func (t *Table) LastDate() time.Time {
	if t.Len() == 0 {
		return time.Time{}
	}
	return t.Rows[len(t.Rows)-1].Date
}

// Has reports whether symbol is a column of the table.
func (t *Table) Has(symbol string) bool {
	for _, s := range t.Symbols {
		if s == symbol {
			return true
		}
	}
	return false
}

// Covers reports whether every symbol is a column of the table.
func (t *Table) Covers(symbols []string) bool {
	for _, s := range symbols {
		if !t.Has(s) {
			return false
		}
	}
	return true
}

// Column returns the (date, close) series of one symbol.
func (t *Table) Column(symbol string) []market.Point {
	out := make([]market.Point, 0, t.Len())
	for _, r := range t.Rows {
		if v, ok := r.Close[symbol]; ok {
			out = append(out, market.Point{Date: r.Date, Close: v})
		}
	}
	return out
}

// complete reports whether the row has a usable value for every symbol.
func complete(r Row, symbols []string) bool {
	for _, s := range symbols {
		v, ok := r.Close[s]
		if !ok || v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Append merges rows into the table. Incomplete rows are dropped and a date
// already present keeps its cached values, so appending never rewrites
// history. It returns the number of rows actually added.
func (t *Table) Append(rows ...Row) int {
	have := make(map[time.Time]struct{}, len(t.Rows))
	for _, r := range t.Rows {
		have[r.Date] = struct{}{}
	}
	added := 0
	for _, r := range rows {
		r.Date = market.Day(r.Date)
		if _, dup := have[r.Date]; dup {
			continue
		}
		if !complete(r, t.Symbols) {
			continue
		}
		t.Rows = append(t.Rows, Row{Date: r.Date, Close: project(r.Close, t.Symbols)})
		have[r.Date] = struct{}{}
		added++
	}
	if added > 0 {
		t.sort()
	}
	return added
}

// Before returns a copy holding only the rows strictly before day.
func (t *Table) Before(day time.Time) *Table {
	out := NewTable(t.Symbols)
	for _, r := range t.Rows {
		if r.Date.Before(day) {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	out := NewTable(t.Symbols)
	out.Rows = make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		out.Rows[i] = Row{Date: r.Date, Close: project(r.Close, t.Symbols)}
	}
	return out
}

func (t *Table) sort() {
	sort.SliceStable(t.Rows, func(i, j int) bool { return t.Rows[i].Date.Before(t.Rows[j].Date) })
}

func project(m map[string]float64, symbols []string) map[string]float64 {
	out := make(map[string]float64, len(symbols))
	for _, s := range symbols {
		if v, ok := m[s]; ok {
			out[s] = v
		}
	}
	return out
}

// FromCloses pivots provider closes into rows keyed by tracked symbol.
// A ticker missing from the table is an error. Rows are not yet filtered.
func FromCloses(closes market.Closes, tickers *market.Tickers) ([]Row, error) {
	byDay := make(map[time.Time]map[string]float64)
	for tk, points := range closes {
		sym, ok := tickers.Symbol(tk)
		if !ok {
			return nil, fmt.Errorf("unexpected ticker in response: %s", tk)
		}
		for _, p := range points {
			d := market.Day(p.Date)
			if byDay[d] == nil {
				byDay[d] = make(map[string]float64)
			}
			byDay[d][sym] = p.Close
		}
	}
	rows := make([]Row, 0, len(byDay))
	for d, m := range byDay {
		rows = append(rows, Row{Date: d, Close: m})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	return rows, nil
}
