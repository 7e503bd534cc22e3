package prices

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptoPortfolioSim/internal/market"
)

var storeNow = time.Date(2024, 6, 10, 15, 30, 0, 0, time.UTC)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type storeFixture struct {
	src   *fakeSource
	cache *CSVCache
	tk    *market.Tickers
}

func newFixture(t *testing.T) *storeFixture {
	t.Helper()
	from := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	return &storeFixture{
		src:   &fakeSource{closes: history(from, market.Day(storeNow), "BTC-USD", "ETH-USD")},
		cache: NewCSVCache(filepath.Join(t.TempDir(), "crypto_prices.csv")),
		tk:    testTickers(t, "BTC", "ETH"),
	}
}

func (f *storeFixture) store(now time.Time, opts Options) *Store {
	opts.Now = clockAt(now)
	return NewStore(f.cache, f.src, f.tk, quietLogger(), opts)
}

// seed writes the source history between from and to into the cache.
func (f *storeFixture) seed(t *testing.T, from, to time.Time) *Table {
	t.Helper()
	rows, err := FromCloses(f.src.closes, f.tk)
	require.NoError(t, err)
	tbl := NewTable(f.tk.Symbols())
	for _, r := range rows {
		if !r.Date.Before(from) && !r.Date.After(to) {
			tbl.Append(r)
		}
	}
	require.NoError(t, f.cache.Write(context.Background(), tbl))
	return tbl
}

func (f *storeFixture) closeOn(t *testing.T, ticker string, d time.Time) float64 {
	t.Helper()
	for _, p := range f.src.closes[ticker] {
		if p.Date.Equal(d) {
			return p.Close
		}
	}
	t.Fatalf("no close for %s on %s", ticker, d.Format(dateLayout))
	return 0
}

func TestStoreLoad_NoCacheFetchesInitialHistory(t *testing.T) {
	f := newFixture(t)
	s := f.store(storeNow, Options{})

	tbl, err := s.Load(context.Background())
	require.NoError(t, err)

	require.Len(t, f.src.calls, 1)
	assert.Equal(t, "1y", f.src.calls[0].Period)

	assert.Equal(t, []string{"BTC", "ETH"}, tbl.Symbols)
	assert.Equal(t, day(t, "2023-06-10"), tbl.FirstDate())
	// today's candle is still open and must not be cached
	assert.Equal(t, day(t, "2024-06-09"), tbl.LastDate())
	assert.Equal(t, f.closeOn(t, "ETH-USD", day(t, "2024-06-09")), tbl.Rows[tbl.Len()-1].Close["ETH"])

	onDisk, err := f.cache.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, tbl.Rows, onDisk.Rows)
}

func TestStoreLoad_FreshCacheSkipsFetch(t *testing.T) {
	f := newFixture(t)
	f.seed(t, day(t, "2024-05-01"), day(t, "2024-06-10"))
	f.src.err = errors.New("network down")

	tbl, err := f.store(storeNow, Options{}).Load(context.Background())
	require.NoError(t, err)
	assert.Zero(t, f.src.callCount())
	assert.Equal(t, day(t, "2024-06-10"), tbl.LastDate())
}

func TestStoreLoad_IncrementalRefreshAppendsOnly(t *testing.T) {
	f := newFixture(t)
	cached := f.seed(t, day(t, "2024-05-01"), day(t, "2024-06-05"))

	tbl, err := f.store(storeNow, Options{}).Load(context.Background())
	require.NoError(t, err)

	require.Len(t, f.src.calls, 1)
	assert.Equal(t, day(t, "2024-06-05"), f.src.calls[0].Start)
	assert.Equal(t, day(t, "2024-06-10"), f.src.calls[0].End)
	assert.Empty(t, f.src.calls[0].Period)

	assert.Equal(t, day(t, "2024-06-09"), tbl.LastDate())
	assert.Equal(t, cached.Len()+4, tbl.Len())
	assert.Equal(t, cached.Rows, tbl.Rows[:cached.Len()])
}

func TestStoreLoad_CachedRowsWinOverRefetchedDate(t *testing.T) {
	f := newFixture(t)
	cached := f.seed(t, day(t, "2024-06-01"), day(t, "2024-06-05"))

	// the provider revises the close of the last cached day
	for i, p := range f.src.closes["BTC-USD"] {
		if p.Date.Equal(day(t, "2024-06-05")) {
			f.src.closes["BTC-USD"][i].Close = 1
		}
	}

	tbl, err := f.store(storeNow, Options{}).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cached.Rows, tbl.Rows[:cached.Len()])
}

func TestStoreLoad_Idempotent(t *testing.T) {
	f := newFixture(t)
	_, err := f.store(storeNow, Options{}).Load(context.Background())
	require.NoError(t, err)
	first, err := os.ReadFile(f.cache.Path())
	require.NoError(t, err)

	later := storeNow.Add(3 * time.Hour)
	_, err = f.store(later, Options{}).Load(context.Background())
	require.NoError(t, err)
	second, err := os.ReadFile(f.cache.Path())
	require.NoError(t, err)

	// the open day is asked for again but yields nothing to write
	assert.Len(t, f.src.calls, 2)
	assert.Equal(t, first, second)
}

func TestStoreLoad_MonotonicAcrossDays(t *testing.T) {
	f := newFixture(t)
	f.seed(t, day(t, "2024-05-01"), day(t, "2024-06-01"))

	prev, err := f.store(storeNow.AddDate(0, 0, -4), Options{}).Load(context.Background())
	require.NoError(t, err)
	next, err := f.store(storeNow, Options{}).Load(context.Background())
	require.NoError(t, err)

	require.GreaterOrEqual(t, next.Len(), prev.Len())
	assert.True(t, next.LastDate().After(prev.LastDate()))
	assert.Equal(t, prev.Rows, next.Rows[:prev.Len()])
}

func TestStoreLoad_FetchFailureLeavesCacheUntouched(t *testing.T) {
	f := newFixture(t)
	f.seed(t, day(t, "2024-05-01"), day(t, "2024-06-05"))
	before, err := os.ReadFile(f.cache.Path())
	require.NoError(t, err)

	f.src.err = errors.New("connection refused")
	_, err = f.store(storeNow, Options{}).Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, market.ErrDataFetch)

	after, err := os.ReadFile(f.cache.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestStoreLoad_StaleOnErrorServesCache(t *testing.T) {
	f := newFixture(t)
	cached := f.seed(t, day(t, "2024-05-01"), day(t, "2024-06-05"))
	f.src.err = errors.New("timeout")

	tbl, err := f.store(storeNow, Options{StaleOnError: true}).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cached.Rows, tbl.Rows)
}

func TestStoreLoad_InitialFailureHasNoStaleFallback(t *testing.T) {
	f := newFixture(t)
	f.src.err = errors.New("timeout")

	_, err := f.store(storeNow, Options{StaleOnError: true}).Load(context.Background())
	assert.ErrorIs(t, err, market.ErrDataFetch)
	_, statErr := os.Stat(f.cache.Path())
	assert.True(t, os.IsNotExist(statErr))
}

func TestStoreLoad_EmptyInitialHistory(t *testing.T) {
	f := newFixture(t)
	f.src.closes = market.Closes{}

	_, err := f.store(storeNow, Options{}).Load(context.Background())
	assert.ErrorIs(t, err, market.ErrDataFetch)
}

func TestStoreLoad_IncompleteRefreshRowsAreNotCached(t *testing.T) {
	f := newFixture(t)
	cached := f.seed(t, day(t, "2024-05-01"), day(t, "2024-06-05"))
	before, err := os.ReadFile(f.cache.Path())
	require.NoError(t, err)

	// ETH stops reporting after the cached range
	var eth []market.Point
	for _, p := range f.src.closes["ETH-USD"] {
		if !p.Date.After(day(t, "2024-06-05")) {
			eth = append(eth, p)
		}
	}
	f.src.closes["ETH-USD"] = eth

	tbl, err := f.store(storeNow, Options{}).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cached.Rows, tbl.Rows)

	after, err := os.ReadFile(f.cache.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestStoreLoad_RebuildsWhenCacheMissesSymbol(t *testing.T) {
	f := newFixture(t)
	old := NewTable([]string{"BTC"})
	old.Append(Row{Date: day(t, "2024-06-01"), Close: map[string]float64{"BTC": 1}})
	require.NoError(t, f.cache.Write(context.Background(), old))

	tbl, err := f.store(storeNow, Options{}).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, f.src.calls, 1)
	assert.Equal(t, "1y", f.src.calls[0].Period)
	assert.Equal(t, []string{"BTC", "ETH"}, tbl.Symbols)
}

func TestStoreLoad_NarrowsExtraColumns(t *testing.T) {
	f := newFixture(t)
	wide := NewTable([]string{"ETH", "DOGE", "BTC"})
	wide.Append(Row{Date: day(t, "2024-06-10"), Close: map[string]float64{"BTC": 3, "ETH": 2, "DOGE": 1}})
	require.NoError(t, f.cache.Write(context.Background(), wide))

	tbl, err := f.store(storeNow, Options{}).Load(context.Background())
	require.NoError(t, err)
	assert.Zero(t, f.src.callCount())
	assert.Equal(t, []string{"BTC", "ETH"}, tbl.Symbols)
	assert.Equal(t, map[string]float64{"BTC": 3, "ETH": 2}, tbl.Rows[0].Close)
}

func TestStoreLoad_Memoized(t *testing.T) {
	f := newFixture(t)
	s := f.store(storeNow, Options{})

	a, err := s.Load(context.Background())
	require.NoError(t, err)
	f.src.err = errors.New("should not be called")
	b, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, f.src.callCount())
}

func TestStoreRefresh_RereadsCache(t *testing.T) {
	f := newFixture(t)
	s := f.store(storeNow, Options{})

	a, err := s.Load(context.Background())
	require.NoError(t, err)
	b, err := s.Refresh(context.Background())
	require.NoError(t, err)

	assert.NotSame(t, a, b)
	assert.Equal(t, a.Rows, b.Rows)
	assert.Equal(t, 2, f.src.callCount())
}
