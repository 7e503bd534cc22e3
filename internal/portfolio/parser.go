package portfolio

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	DefaultInvestment = 1000.0
	DefaultWeight     = 0.2
)

// DefaultCoins is the selection used when a request names no coin.
var DefaultCoins = []string{"BTC", "ETH", "XRP"}

// ParseCommand parses a text request such as
//
//	/sim 2500 6M BTC 0.5 ETH 0.25 SOL
//
// An optional leading amount and an optional timeframe may appear before the
// coins. Each coin may be followed by its raw weight; a coin without one gets
// DefaultWeight.
func ParseCommand(input string) (Params, error) {
	input = strings.TrimSpace(input)
	if strings.HasPrefix(input, "/") {
		if i := strings.IndexFunc(input, func(r rune) bool { return r == ' ' || r == '\t' }); i >= 0 {
			input = input[i:]
		} else {
			input = ""
		}
	}
	return ParseAllocation(strings.Fields(input))
}

// ParseAllocation parses already split tokens (see ParseCommand).
func ParseAllocation(parts []string) (Params, error) {
	p := Params{
		Investment: DefaultInvestment,
		Timeframe:  OneYear,
		RawWeights: Weights{},
	}
	amountSet, timeframeSet := false, false

	for i := 0; i < len(parts); i++ {
		tok := strings.TrimSpace(parts[i])
		if tok == "" {
			continue
		}
		if len(p.Coins) == 0 && !amountSet {
			if v, err := parseAmount(tok); err == nil {
				if v <= 0 {
					return Params{}, fmt.Errorf("%w: got %v", ErrInvalidInvestment, v)
				}
				p.Investment = v
				amountSet = true
				continue
			}
		}
		if !timeframeSet {
			if tf, err := ParseTimeframe(tok); err == nil {
				p.Timeframe = tf
				timeframeSet = true
				continue
			}
		}

		sym := strings.ToUpper(tok)
		if _, err := strconv.ParseFloat(sym, 64); err == nil {
			return Params{}, fmt.Errorf("weight %s at position %d has no coin", tok, i+1)
		}
		if _, dup := p.RawWeights[sym]; dup {
			return Params{}, fmt.Errorf("duplicate coin: %s", sym)
		}
		weight := DefaultWeight
		if i+1 < len(parts) {
			if w, err := strconv.ParseFloat(parts[i+1], 64); err == nil {
				if w < 0 {
					return Params{}, fmt.Errorf("%w: negative weight %v for %s", ErrInvalidAllocation, w, sym)
				}
				weight = w
				i++
			}
		}
		p.Coins = append(p.Coins, sym)
		p.RawWeights[sym] = weight
	}

	if len(p.Coins) == 0 {
		for _, c := range DefaultCoins {
			p.Coins = append(p.Coins, c)
			p.RawWeights[c] = DefaultWeight
		}
	}
	return p, nil
}

// parseAmount accepts "1000", "$1,000" and "1000.50".
func parseAmount(s string) (float64, error) {
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	return strconv.ParseFloat(s, 64)
}
