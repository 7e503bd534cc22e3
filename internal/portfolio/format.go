package portfolio

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currency is the display currency of every amount.
const Currency = money.USD

// Summary is the display form of a run's scalars.
type Summary struct {
	Timeframe  string `json:"timeframe"`
	Start      string `json:"start"`
	End        string `json:"end"`
	Investment string `json:"investment"`
	FinalValue string `json:"final_value"`
	Growth     string `json:"growth"`
}

// FormatMoney renders an amount with 2 decimals and thousands separators ("$1,500.00").
// Cents are rounded half away from zero.
func FormatMoney(v float64) string {
	cents := decimal.NewFromFloat(v).Shift(2).Round(0).IntPart()
	return money.New(cents, Currency).Display()
}

// FormatGrowth renders a percentage with 2 decimals and an explicit sign ("+12.50%").
func FormatGrowth(pct float64) string {
	d := decimal.NewFromFloat(pct).Round(2)
	s := d.StringFixed(2)
	if !d.IsNegative() {
		s = "+" + s
	}
	return s + "%"
}

// Summary returns the formatted scalars of the run.
func (r *Run) Summary() Summary {
	return Summary{
		Timeframe:  r.Timeframe.Label,
		Start:      r.Start().Format("2006-01-02"),
		End:        r.End().Format("2006-01-02"),
		Investment: FormatMoney(r.Investment),
		FinalValue: FormatMoney(r.FinalValue),
		Growth:     FormatGrowth(r.GrowthPct),
	}
}

// Allocation renders the normalized weights, e.g. "BTC 50.0%, ETH 50.0%".
func (r *Run) Allocation() string {
	parts := make([]string, 0, len(r.Coins))
	for _, c := range r.Coins {
		parts = append(parts, fmt.Sprintf("%s %.1f%%", c, r.Weights[c]*100))
	}
	return strings.Join(parts, ", ")
}

// Markdown renders a short report of the run.
func (r *Run) Markdown() string {
	s := r.Summary()
	var b strings.Builder
	fmt.Fprintf(&b, "# Portfolio Result for %s\n\n", s.Timeframe)
	fmt.Fprintf(&b, "| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Window | %s → %s |\n", s.Start, s.End)
	fmt.Fprintf(&b, "| Invested | %s |\n", s.Investment)
	fmt.Fprintf(&b, "| Final Portfolio Value | **%s** |\n", s.FinalValue)
	fmt.Fprintf(&b, "| Growth | %s |\n", s.Growth)
	fmt.Fprintf(&b, "| Allocation | %s |\n", r.Allocation())
	if r.Truncated {
		fmt.Fprintf(&b, "\n> Price history starts on %s, after the nominal window start %s.\n", s.Start, r.Cutoff.Format("2006-01-02"))
	}
	fmt.Fprintf(&b, "\n## Coins\n\n| Coin | Weight | Growth |\n|---|---|---|\n")
	for _, c := range r.Coins {
		g := r.Growth[c]
		fmt.Fprintf(&b, "| %s | %.1f%% | %s |\n", c, r.Weights[c]*100, FormatGrowth((g[len(g)-1]-1)*100))
	}
	return b.String()
}
