package portfolio

import (
	"fmt"
	"math"
	"time"

	"cryptoPortfolioSim/internal/market"
	"cryptoPortfolioSim/internal/prices"
)

// NormalizeWeights divides every selected coin's raw weight by the total.
// Coins missing from raw count as zero.
func NormalizeWeights(coins []string, raw Weights) (Weights, error) {
	if len(coins) == 0 {
		return nil, fmt.Errorf("%w: no coins selected", ErrInvalidAllocation)
	}
	total := 0.0
	seen := make(map[string]bool, len(coins))
	for _, c := range coins {
		if seen[c] {
			return nil, fmt.Errorf("%w: duplicate coin %s", ErrInvalidAllocation, c)
		}
		seen[c] = true
		w := raw[c]
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("%w: weight %v for %s", ErrInvalidAllocation, w, c)
		}
		total += w
	}
	if total <= 0 {
		return nil, ErrInvalidAllocation
	}
	out := make(Weights, len(coins))
	for _, c := range coins {
		out[c] = raw[c] / total
	}
	return out, nil
}

// Cutoff returns the first calendar day of a window ending on now's day.
func Cutoff(now time.Time, tf Timeframe) time.Time {
	return market.Day(now).AddDate(0, 0, -tf.Days)
}

// Compute builds the portfolio run for p over the rows of table inside the
// timeframe ending at now. It has no side effects.
func Compute(table *prices.Table, p Params, now time.Time) (*Run, error) {
	if p.Investment <= 0 || math.IsNaN(p.Investment) || math.IsInf(p.Investment, 0) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidInvestment, p.Investment)
	}
	if p.Timeframe.Days <= 0 {
		return nil, fmt.Errorf("invalid timeframe %q: days must be positive", p.Timeframe.Label)
	}
	weights, err := NormalizeWeights(p.Coins, p.RawWeights)
	if err != nil {
		return nil, err
	}
	if table.Len() == 0 {
		return nil, ErrEmptyWindow
	}
	for _, c := range p.Coins {
		if !table.Has(c) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCoin, c)
		}
	}

	cutoff := Cutoff(now, p.Timeframe)
	var window []prices.Row
	for _, r := range table.Rows {
		if r.Date.Before(cutoff) || !hasAll(r, p.Coins) {
			continue
		}
		window = append(window, r)
	}
	if len(window) == 0 {
		return nil, fmt.Errorf("%w: %s since %s", ErrEmptyWindow, p.Timeframe, cutoff.Format("2006-01-02"))
	}

	n := len(window)
	run := &Run{
		Timeframe:  p.Timeframe,
		Investment: p.Investment,
		Cutoff:     cutoff,
		Truncated:  table.FirstDate().After(cutoff),
		Coins:      append([]string(nil), p.Coins...),
		Weights:    weights,
		Dates:      make([]time.Time, n),
		Growth:     make(map[string][]float64, len(p.Coins)),
		Values:     make([]float64, n),
	}
	for i, r := range window {
		run.Dates[i] = r.Date
	}

	for _, c := range p.Coins {
		base := window[0].Close[c]
		if base <= 0 {
			return nil, fmt.Errorf("%w: %s on %s is %v", ErrZeroBasePrice, c, window[0].Date.Format("2006-01-02"), base)
		}
		g := make([]float64, n)
		for i, r := range window {
			g[i] = r.Close[c] / base
		}
		run.Growth[c] = g
	}

	for i := 0; i < n; i++ {
		idx := 0.0
		for _, c := range p.Coins {
			idx += weights[c] * run.Growth[c][i]
		}
		run.Values[i] = p.Investment * idx
	}

	run.FinalValue = run.Values[n-1]
	run.GrowthPct = (run.FinalValue/p.Investment - 1) * 100
	return run, nil
}

func hasAll(r prices.Row, coins []string) bool {
	for _, c := range coins {
		v, ok := r.Close[c]
		if !ok || math.IsNaN(v) {
			return false
		}
	}
	return true
}
