// Package prices keeps the locally cached daily close history of the
// tracked assets and refreshes it incrementally from a market.Source.
package prices

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"cryptoPortfolioSim/internal/market"
)

// initialPeriod is the history fetched when no cache exists.
const initialPeriod = "1y"

// Options configures a Store.
type Options struct {
	// StaleOnError returns the cached table instead of failing when an
	// incremental refresh cannot reach the source.
	StaleOnError bool
	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time
}

// Store owns the price cache. Load is memoized for the lifetime of the Store.
type Store struct {
	cache   Cache
	source  market.Source
	tickers *market.Tickers
	log     *logrus.Logger
	opts    Options

	mu     sync.Mutex
	loaded *Table
}

func NewStore(cache Cache, source market.Source, tickers *market.Tickers, log *logrus.Logger, opts Options) *Store {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Store{cache: cache, source: source, tickers: tickers, log: log, opts: opts}
}

// Symbols returns the tracked symbols.
func (s *Store) Symbols() []string { return s.tickers.Symbols() }

// Load returns the price table, bringing the cache up to date on the first
// call. Later calls return the same table without any I/O.
func (s *Store) Load(ctx context.Context) (*Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded != nil {
		return s.loaded, nil
	}
	t, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	s.loaded = t
	return t, nil
}

// Invalidate drops the memoized table; the next Load re-checks freshness.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.loaded = nil
	s.mu.Unlock()
}

// Refresh is Invalidate followed by Load.
func (s *Store) Refresh(ctx context.Context) (*Table, error) {
	s.Invalidate()
	return s.Load(ctx)
}

func (s *Store) load(ctx context.Context) (*Table, error) {
	today := market.Day(s.opts.Now())

	cached, err := s.cache.Read(ctx)
	switch {
	case errors.Is(err, ErrNoCache):
		s.log.Info("prices: no cache, fetching initial history")
		return s.rebuild(ctx, today)
	case err != nil:
		return nil, fmt.Errorf("read price cache: %w", err)
	}

	symbols := s.tickers.Symbols()
	if !cached.Covers(symbols) || cached.Len() == 0 {
		s.log.WithFields(logrus.Fields{"cached": cached.Symbols, "tracked": symbols}).
			Warn("prices: cache does not cover tracked symbols, rebuilding")
		return s.rebuild(ctx, today)
	}
	cached = narrow(cached, symbols)

	last := cached.LastDate()
	if !last.Before(today) {
		s.log.WithField("last_date", last.Format(dateLayout)).Debug("prices: cache fresh")
		return cached, nil
	}

	rows, err := s.fetch(ctx, market.Range{Start: last, End: today})
	if err != nil {
		if s.opts.StaleOnError {
			s.log.WithError(err).Warn("prices: refresh failed, serving cached history")
			return cached, nil
		}
		return nil, err
	}

	merged := cached.Clone()
	added := merged.Append(rows...)
	log := s.log.WithFields(logrus.Fields{
		"from":  last.Format(dateLayout),
		"to":    today.Format(dateLayout),
		"added": added,
		"rows":  merged.Len(),
	})
	if added == 0 {
		log.Info("prices: no new complete rows")
		return cached, nil
	}
	if err := s.cache.Write(ctx, merged); err != nil {
		return nil, fmt.Errorf("write price cache: %w", err)
	}
	log.Info("prices: cache extended")
	return merged, nil
}

// rebuild fetches the initial history and replaces the cache with it.
func (s *Store) rebuild(ctx context.Context, today time.Time) (*Table, error) {
	rows, err := s.fetch(ctx, market.Range{Period: initialPeriod, End: today})
	if err != nil {
		return nil, err
	}
	t := NewTable(s.tickers.Symbols())
	t.Append(rows...)
	t = t.Before(today)
	if t.Len() == 0 {
		return nil, fmt.Errorf("%w: no complete rows in initial history", market.ErrDataFetch)
	}
	if err := s.cache.Write(ctx, t); err != nil {
		return nil, fmt.Errorf("write price cache: %w", err)
	}
	s.log.WithFields(logrus.Fields{
		"rows":  t.Len(),
		"first": t.FirstDate().Format(dateLayout),
		"last":  t.LastDate().Format(dateLayout),
	}).Info("prices: cache created")
	return t, nil
}

// fetch pulls closes for every tracked ticker and keeps rows before r.End.
func (s *Store) fetch(ctx context.Context, r market.Range) ([]Row, error) {
	closes, err := s.source.FetchCloses(ctx, s.tickers.Tickers(), r)
	if err != nil {
		if !errors.Is(err, market.ErrDataFetch) {
			err = fmt.Errorf("%w: %v", market.ErrDataFetch, err)
		}
		return nil, err
	}
	rows, err := FromCloses(closes, s.tickers)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", market.ErrDataFetch, err)
	}
	end := market.Day(r.End)
	kept := rows[:0]
	for _, row := range rows {
		if row.Date.Before(end) {
			kept = append(kept, row)
		}
	}
	return kept, nil
}

// narrow narrows a cached table to the tracked symbols, in tracked order.
func narrow(t *Table, symbols []string) *Table {
	out := NewTable(symbols)
	out.Rows = make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		out.Rows[i] = Row{Date: r.Date, Close: project(r.Close, symbols)}
	}
	return out
}
