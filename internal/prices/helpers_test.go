package prices

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"cryptoPortfolioSim/internal/market"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(dateLayout, s)
	require.NoError(t, err)
	return d
}

// fakeSource serves a fixed daily history. Like the live providers it also
// returns the still-open candle for the end date.
type fakeSource struct {
	mu     sync.Mutex
	closes market.Closes
	err    error
	calls  []market.Range
}

func (f *fakeSource) FetchCloses(_ context.Context, tickers []string, r market.Range) (market.Closes, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r)
	if f.err != nil {
		return nil, f.err
	}
	start, end := market.Day(r.Start), market.Day(r.End)
	if r.Period != "" {
		start = end.AddDate(-1, 0, 0)
	}
	out := make(market.Closes, len(tickers))
	for _, tk := range tickers {
		for _, p := range f.closes[tk] {
			if p.Date.Before(start) || p.Date.After(end) {
				continue
			}
			out[tk] = append(out[tk], p)
		}
	}
	return out, nil
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// history builds closes for every ticker between from and to inclusive.
// Prices rise by one per day from base, offset per ticker.
func history(from, to time.Time, tickers ...string) market.Closes {
	out := make(market.Closes, len(tickers))
	for i, tk := range tickers {
		base := float64(100 * (i + 1))
		n := 0
		for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
			out[tk] = append(out[tk], market.Point{Date: d, Close: base + float64(n)})
			n++
		}
	}
	return out
}

func testTickers(t *testing.T, symbols ...string) *market.Tickers {
	t.Helper()
	tk, err := market.YahooTickers(symbols)
	require.NoError(t, err)
	return tk
}

func clockAt(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}
