package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// yahooChartResp mirrors Yahoo v8 chart response (trimmed to needed fields).
// Close entries are pointers because Yahoo sends null for missing bars.
type yahooChartResp struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol   string `json:"symbol"`
				Timezone string `json:"timezone"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// YahooSource fetches daily closes from the Yahoo Finance v8 chart endpoint.
type YahooSource struct {
	client *resty.Client
}

// NewYahooSource returns a source talking to baseURL (DefaultYahooBaseURL when empty).
func NewYahooSource(baseURL string) *YahooSource {
	if baseURL == "" {
		baseURL = DefaultYahooBaseURL
	}
	client := resty.New()
	client.SetTimeout(30 * time.Second)
	client.SetBaseURL(strings.TrimRight(baseURL, "/"))
	client.SetHeader("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15")
	client.SetHeader("Accept", "application/json, text/javascript, */*; q=0.01")
	client.SetHeader("Accept-Language", "en-US,en;q=0.9")
	return &YahooSource{client: client}
}

// FetchCloses fetches every ticker in turn. Any ticker failing fails the batch.
func (y *YahooSource) FetchCloses(ctx context.Context, tickers []string, r Range) (Closes, error) {
	if len(tickers) == 0 {
		return nil, fmt.Errorf("%w: no tickers requested", ErrDataFetch)
	}
	out := make(Closes, len(tickers))
	for _, tk := range tickers {
		points, err := y.fetchTicker(ctx, tk, r)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrDataFetch, tk, err)
		}
		out[tk] = points
	}
	return out, nil
}

func (y *YahooSource) fetchTicker(ctx context.Context, ticker string, r Range) ([]Point, error) {
	params := map[string]string{
		"interval": "1d",
		"events":   "div,splits",
	}
	start, end := r.Start, r.End
	if r.Period != "" {
		params["range"] = r.Period
		start, end = time.Time{}, time.Time{}
	} else {
		params["period1"] = strconv.FormatInt(Day(start).Unix(), 10)
		params["period2"] = strconv.FormatInt(Day(end).Unix(), 10)
	}

	resp, err := y.client.R().
		SetContext(ctx).
		SetPathParam("ticker", ticker).
		SetQueryParams(params).
		SetHeader("Referer", fmt.Sprintf("https://finance.yahoo.com/quote/%s/chart", strings.ToUpper(ticker))).
		Get("/v8/finance/chart/{ticker}")
	if err != nil {
		return nil, err
	}
	body := resp.Body()
	if resp.StatusCode() == http.StatusTooManyRequests || strings.HasPrefix(string(body), "Edge: Too Many Requests") {
		return nil, fmt.Errorf("yahoo returned 429: Edge: Too Many Requests")
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("yahoo returned %d: %s", resp.StatusCode(), preview(body))
	}
	if strings.HasPrefix(string(body), "<") {
		return nil, fmt.Errorf("yahoo returned non-json body: %s", preview(body))
	}

	var yc yahooChartResp
	if err := json.Unmarshal(body, &yc); err != nil {
		return nil, fmt.Errorf("failed to parse yahoo json: %v; body: %s", err, preview(body))
	}
	if yc.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo error %s: %s", yc.Chart.Error.Code, yc.Chart.Error.Description)
	}
	if len(yc.Chart.Result) == 0 || len(yc.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no data")
	}
	res := yc.Chart.Result[0]
	return clip(cleanCloses(res.Timestamp, res.Indicators.Quote[0].Close), start, end), nil
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > 120 {
		s = s[:120]
	}
	return s
}
