package portfolio

import (
	"fmt"
	"strconv"
	"strings"
)

// Timeframe is a trailing window of calendar days.
type Timeframe struct {
	Label string
	Days  int
}

var (
	OneYear     = Timeframe{Label: "1Y", Days: 365}
	SixMonths   = Timeframe{Label: "6M", Days: 180}
	ThreeMonths = Timeframe{Label: "3M", Days: 90}
)

// Timeframes is the selectable policy set, longest first.
var Timeframes = []Timeframe{OneYear, SixMonths, ThreeMonths}

// Days returns an ad-hoc window of n days.
func Days(n int) Timeframe { return Timeframe{Label: fmt.Sprintf("%dD", n), Days: n} }

func (t Timeframe) String() string { return t.Label }

// ParseTimeframe accepts "1Y", "6M", "3M" (any case) or "<n>d".
func ParseTimeframe(s string) (Timeframe, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return OneYear, nil
	}
	for _, t := range Timeframes {
		if t.Label == s {
			return t, nil
		}
	}
	if strings.HasSuffix(s, "D") {
		if n, err := strconv.Atoi(strings.TrimSuffix(s, "D")); err == nil && n > 0 {
			return Days(n), nil
		}
	}
	return Timeframe{}, fmt.Errorf("invalid timeframe %q (use 1Y, 6M, 3M or <n>d)", s)
}
