package market

import (
	"context"
	"errors"
	"time"
)

// ErrDataFetch is returned when the market-data source is unreachable or
// returns no usable rows.
var ErrDataFetch = errors.New("market data fetch failed")

// Point is one daily close of a ticker. Date is a UTC midnight.
type Point struct {
	Date  time.Time
	Close float64
}

// Closes maps a provider ticker to its daily closes in ascending date order.
type Closes map[string][]Point

// Range selects the dates to fetch. When Period is set (e.g. "1y") it wins
// over Start/End and is resolved relative to the provider's "now". Otherwise
// the range is the half-open interval [Start, End).
type Range struct {
	Start  time.Time
	End    time.Time
	Period string
}

// Source returns daily close prices for a batch of provider tickers.
type Source interface {
	FetchCloses(ctx context.Context, tickers []string, r Range) (Closes, error)
}

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// periodStart resolves a relative period token against end.
func periodStart(period string, end time.Time) (time.Time, bool) {
	switch period {
	case "1y":
		return end.AddDate(-1, 0, 0), true
	case "6mo":
		return end.AddDate(0, -6, 0), true
	case "3mo":
		return end.AddDate(0, -3, 0), true
	case "1mo":
		return end.AddDate(0, -1, 0), true
	case "2y":
		return end.AddDate(-2, 0, 0), true
	}
	return time.Time{}, false
}
