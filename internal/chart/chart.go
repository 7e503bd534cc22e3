// Package chart renders a portfolio run as a PNG line chart.
package chart

import (
	"fmt"
	"strings"
	"time"

	"github.com/vicanso/go-charts/v2"

	"cryptoPortfolioSim/internal/portfolio"
)

// Options selects what is drawn besides the portfolio value line.
type Options struct {
	// PerAsset adds one line per coin with the value held in that coin.
	PerAsset bool
	Width    int
	Height   int
}

// Renderer draws runs and caches the resulting images.
type Renderer struct {
	cache *imageCache
}

func NewRenderer() *Renderer { return &Renderer{cache: newImageCache(cacheTTL)} }

// Render returns the PNG bytes of the run's value chart.
func (r *Renderer) Render(run *portfolio.Run, opts Options) ([]byte, error) {
	if run == nil || len(run.Values) == 0 {
		return nil, fmt.Errorf("no portfolio data to plot")
	}
	key := cacheKey(run, opts)
	if img, ok := r.cache.get(key); ok {
		return img, nil
	}

	xLabels := dateLabels(run.Dates)

	values := [][]float64{run.Values}
	names := []string{"Portfolio Value"}
	if opts.PerAsset {
		for _, c := range run.Coins {
			values = append(values, run.AssetValues(c))
			names = append(names, c)
		}
	}
	yMin, yMax := valueRange(values)
	if yMin < 0 {
		yMin = 0
	}
	splitNum := splitNumber(len(xLabels))

	s := run.Summary()
	title := fmt.Sprintf("Portfolio Value Over Time (%s)", s.Timeframe)
	subtitle := fmt.Sprintf("%s | Final: %s | Growth: %s", run.Allocation(), s.FinalValue, s.Growth)

	options := []charts.OptionFunc{
		charts.TitleTextOptionFunc(title, subtitle),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        xLabels,
			SplitNumber: splitNum,
			BoundaryGap: charts.FalseFlag(),
		}),
		charts.YAxisOptionFunc(charts.YAxisOption{
			Min:         &yMin,
			Max:         &yMax,
			DivideCount: 5,
		}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	}
	if opts.PerAsset {
		options = append(options, charts.LegendOptionFunc(charts.LegendOption{
			Data: names,
			Top:  charts.PositionTop,
			Left: charts.PositionRight,
		}))
	}
	if opts.Width > 0 && opts.Height > 0 {
		options = append(options, charts.WidthOptionFunc(opts.Width), charts.HeightOptionFunc(opts.Height))
	}

	p, err := charts.LineRender(values, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate chart bytes: %w", err)
	}
	r.cache.set(key, buf)
	return buf, nil
}

func dateLabels(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		if len(dates) <= 120 {
			out[i] = d.Format("Jan 02")
		} else {
			out[i] = d.Format("Jan '06")
		}
	}
	return out
}

// valueRange returns the min and max over all series padded by 5%.
func valueRange(values [][]float64) (float64, float64) {
	minVal, maxVal := values[0][0], values[0][0]
	for _, series := range values {
		for _, v := range series {
			if v < minVal {
				minVal = v
			}
			if v > maxVal {
				maxVal = v
			}
		}
	}
	padding := (maxVal - minVal) * 0.05
	if padding == 0 {
		padding = maxVal * 0.05
	}
	return minVal - padding, maxVal + padding
}

func splitNumber(n int) int {
	if n > 30 {
		return 6
	}
	if n/3 < 3 {
		return 3
	}
	return n / 3
}

func cacheKey(run *portfolio.Run, opts Options) string {
	parts := make([]string, 0, len(run.Coins))
	for _, c := range run.Coins {
		parts = append(parts, fmt.Sprintf("%s:%.4f", c, run.Weights[c]))
	}
	return fmt.Sprintf("run-%s-%s-%s-%.2f-%t-%dx%d",
		run.Timeframe.Label, run.End().Format("20060102"), strings.Join(parts, ","),
		run.Investment, opts.PerAsset, opts.Width, opts.Height)
}
