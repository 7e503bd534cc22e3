// Package portfolio turns a price table and user allocation into the
// normalized growth curves and weighted value curve of a portfolio.
package portfolio

import (
	"errors"
	"time"
)

var (
	// ErrInvalidAllocation means no selected coin has a positive weight
	// (or a weight is negative). The user can fix it by adjusting weights.
	ErrInvalidAllocation = errors.New("invalid allocation: assign at least one positive weight")
	// ErrEmptyWindow means the timeframe filter left no rows.
	ErrEmptyWindow = errors.New("no price data in the selected timeframe")
	// ErrInvalidInvestment means the investment is not a positive number.
	ErrInvalidInvestment = errors.New("investment must be positive")
	// ErrUnknownCoin means a selected coin is not a column of the price table.
	ErrUnknownCoin = errors.New("unknown coin")
	// ErrZeroBasePrice means a coin's first price in the window is not positive.
	ErrZeroBasePrice = errors.New("non-positive base price")
)

// Weights maps a coin symbol to a weight.
type Weights map[string]float64

// Params are the user-facing inputs of one computation.
type Params struct {
	Investment float64
	Timeframe  Timeframe
	Coins      []string
	RawWeights Weights
}

// Run is the result of one Compute call. It is never persisted.
type Run struct {
	Timeframe  Timeframe
	Investment float64
	// Cutoff is the nominal first day of the window.
	Cutoff time.Time
	// Truncated is set when the price history starts after Cutoff, so the
	// curves begin at the earliest available date instead.
	Truncated bool

	Coins   []string
	Weights Weights // normalized, sums to 1
	Dates   []time.Time
	Growth  map[string][]float64 // per coin, starts at 1.0
	Values  []float64            // portfolio value per date

	FinalValue float64
	GrowthPct  float64
}

// Start returns the first date of the window.
func (r *Run) Start() time.Time { return r.Dates[0] }

// End returns the last date of the window.
func (r *Run) End() time.Time { return r.Dates[len(r.Dates)-1] }

// AssetValues returns the value held in one coin on each date:
// investment × weight × growth.
func (r *Run) AssetValues(coin string) []float64 {
	g := r.Growth[coin]
	out := make([]float64, len(g))
	w := r.Weights[coin]
	for i, v := range g {
		out[i] = r.Investment * w * v
	}
	return out
}
