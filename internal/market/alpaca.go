package market

import (
	"context"
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
)

// cryptoBarsClient is the part of the Alpaca market-data client we use.
type cryptoBarsClient interface {
	GetCryptoMultiBars(symbols []string, req marketdata.GetCryptoBarsRequest) (map[string][]marketdata.CryptoBar, error)
}

// AlpacaSource fetches daily crypto bars from Alpaca market data.
// Tickers are Alpaca pairs such as "BTC/USD".
type AlpacaSource struct {
	client cryptoBarsClient
	now    func() time.Time
}

// NewAlpacaSource builds a source. Crypto bars do not require keys; empty
// keys are passed through unchanged.
func NewAlpacaSource(apiKey, apiSecret string) *AlpacaSource {
	client := marketdata.NewClient(marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	})
	return &AlpacaSource{client: client, now: time.Now}
}

// FetchCloses requests all tickers in one multi-bar call.
func (a *AlpacaSource) FetchCloses(ctx context.Context, tickers []string, r Range) (Closes, error) {
	if len(tickers) == 0 {
		return nil, fmt.Errorf("%w: no tickers requested", ErrDataFetch)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataFetch, err)
	}
	start, end := Day(r.Start), Day(r.End)
	if r.Period != "" {
		end = Day(a.now()).AddDate(0, 0, 1)
		s, ok := periodStart(r.Period, Day(a.now()))
		if !ok {
			return nil, fmt.Errorf("%w: unsupported period %q", ErrDataFetch, r.Period)
		}
		start = s
	}

	bars, err := a.client.GetCryptoMultiBars(tickers, marketdata.GetCryptoBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     start,
		End:       end,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: alpaca: %v", ErrDataFetch, err)
	}

	out := make(Closes, len(tickers))
	for _, tk := range tickers {
		byDay := make(map[time.Time]float64)
		for _, b := range bars[tk] {
			if !validClose(b.Close) {
				continue
			}
			byDay[Day(b.Timestamp)] = b.Close
		}
		out[tk] = clip(sortedPoints(byDay), start, end)
	}
	return out, nil
}
