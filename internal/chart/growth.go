package chart

import (
	"fmt"
	"strings"

	"github.com/vicanso/go-charts/v2"

	"cryptoPortfolioSim/internal/portfolio"
)

// RenderGrowth draws every coin's normalized growth indexed to 100 at the
// window start, so coins with very different prices share one axis.
func (r *Renderer) RenderGrowth(run *portfolio.Run, opts Options) ([]byte, error) {
	if run == nil || len(run.Dates) == 0 || len(run.Coins) == 0 {
		return nil, fmt.Errorf("no growth data to plot")
	}
	key := "growth-" + cacheKey(run, opts)
	if img, ok := r.cache.get(key); ok {
		return img, nil
	}

	values := make([][]float64, 0, len(run.Coins))
	for _, c := range run.Coins {
		g := run.Growth[c]
		out := make([]float64, len(g))
		for i, v := range g {
			out[i] = v * 100
		}
		values = append(values, out)
	}
	yMin, yMax := valueRange(values)
	xLabels := dateLabels(run.Dates)

	seriesList := charts.NewSeriesListDataFromValues(values, charts.ChartTypeLine)
	for i := range seriesList {
		seriesList[i].Name = run.Coins[i]
	}
	title := fmt.Sprintf("Indexed Growth (%s)", run.Timeframe.Label)
	subtitle := strings.Join(run.Coins, ", ") + " | base 100"

	options := []charts.OptionFunc{
		charts.TitleTextOptionFunc(title, subtitle),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        xLabels,
			BoundaryGap: charts.FalseFlag(),
			SplitNumber: splitNumber(len(xLabels)),
		}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yMin, Max: &yMax, DivideCount: 5}),
		charts.LegendOptionFunc(charts.LegendOption{Data: run.Coins, Left: charts.PositionRight}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	}
	if opts.Width > 0 && opts.Height > 0 {
		options = append(options, charts.WidthOptionFunc(opts.Width), charts.HeightOptionFunc(opts.Height))
	}

	p, err := charts.Render(charts.ChartOption{SeriesList: seriesList}, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to render growth chart: %w", err)
	}
	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate chart bytes: %w", err)
	}
	r.cache.set(key, buf)
	return buf, nil
}
