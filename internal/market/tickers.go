package market

import (
	"fmt"
	"strings"
)

// Tickers is the fixed bidirectional table between tracked short symbols
// ("BTC") and provider tickers ("BTC-USD").
type Tickers struct {
	symbols  []string
	toTicker map[string]string
	toSymbol map[string]string
}

// DefaultSymbols is the tracked asset set.
var DefaultSymbols = []string{"BTC", "ETH", "XRP", "SOL", "WLD"}

// NewTickers builds a table from ordered symbol/ticker pairs.
func NewTickers(symbols []string, tickers []string) (*Tickers, error) {
	if len(symbols) != len(tickers) {
		return nil, fmt.Errorf("symbols and tickers length mismatch: %d vs %d", len(symbols), len(tickers))
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no tracked symbols")
	}
	t := &Tickers{
		symbols:  make([]string, 0, len(symbols)),
		toTicker: make(map[string]string, len(symbols)),
		toSymbol: make(map[string]string, len(symbols)),
	}
	for i, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		tk := strings.TrimSpace(tickers[i])
		if s == "" || tk == "" {
			return nil, fmt.Errorf("empty symbol or ticker at position %d", i+1)
		}
		if _, dup := t.toTicker[s]; dup {
			return nil, fmt.Errorf("duplicate symbol: %s", s)
		}
		if _, dup := t.toSymbol[tk]; dup {
			return nil, fmt.Errorf("duplicate ticker: %s", tk)
		}
		t.symbols = append(t.symbols, s)
		t.toTicker[s] = tk
		t.toSymbol[tk] = s
	}
	return t, nil
}

// YahooTickers maps each symbol to "<SYM>-USD".
func YahooTickers(symbols []string) (*Tickers, error) {
	return suffixed(symbols, "-USD")
}

// AlpacaTickers maps each symbol to "<SYM>/USD".
func AlpacaTickers(symbols []string) (*Tickers, error) {
	return suffixed(symbols, "/USD")
}

func suffixed(symbols []string, suffix string) (*Tickers, error) {
	tks := make([]string, len(symbols))
	for i, s := range symbols {
		tks[i] = strings.ToUpper(strings.TrimSpace(s)) + suffix
	}
	return NewTickers(symbols, tks)
}

// ParseTickers parses "BTC=BTC-USD,ETH=ETH-USD".
func ParseTickers(pairs string) (*Tickers, error) {
	var symbols, tickers []string
	for _, pair := range strings.Split(pairs, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		sym, tk, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid ticker pair %q (want SYMBOL=TICKER)", pair)
		}
		symbols = append(symbols, sym)
		tickers = append(tickers, tk)
	}
	return NewTickers(symbols, tickers)
}

// Symbols returns the tracked symbols in configuration order.
func (t *Tickers) Symbols() []string {
	out := make([]string, len(t.symbols))
	copy(out, t.symbols)
	return out
}

// Tickers returns the provider tickers in configuration order.
func (t *Tickers) Tickers() []string {
	out := make([]string, len(t.symbols))
	for i, s := range t.symbols {
		out[i] = t.toTicker[s]
	}
	return out
}

func (t *Tickers) Ticker(symbol string) (string, bool) {
	tk, ok := t.toTicker[symbol]
	return tk, ok
}

func (t *Tickers) Symbol(ticker string) (string, bool) {
	s, ok := t.toSymbol[ticker]
	return s, ok
}

// Has reports whether symbol is tracked.
func (t *Tickers) Has(symbol string) bool {
	_, ok := t.toTicker[symbol]
	return ok
}
