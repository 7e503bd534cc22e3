package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"cryptoPortfolioSim/internal/chart"
	"cryptoPortfolioSim/internal/export"
	"cryptoPortfolioSim/internal/portfolio"
	"cryptoPortfolioSim/internal/prices"
)

var errBadRequest = errors.New("bad request")

type tableResponse struct {
	Symbols []string             `json:"symbols"`
	Rows    []map[string]float64 `json:"rows"`
	Dates   []string             `json:"dates"`
}

type runResponse struct {
	portfolio.Summary
	Coins         []string             `json:"coins"`
	Weights       portfolio.Weights    `json:"weights"`
	Cutoff        string               `json:"cutoff"`
	Truncated     bool                 `json:"truncated"`
	Dates         []string             `json:"dates"`
	Values        []float64            `json:"values"`
	AssetGrowth   map[string][]float64 `json:"asset_growth"`
	FinalValueRaw float64              `json:"final_value_raw"`
	GrowthPct     float64              `json:"growth_pct"`
}

func (s *Server) handleCoins(c *gin.Context) {
	tfs := make([]gin.H, 0, len(portfolio.Timeframes))
	for _, tf := range portfolio.Timeframes {
		tfs = append(tfs, gin.H{"label": tf.Label, "days": tf.Days})
	}
	c.JSON(http.StatusOK, gin.H{"coins": s.prices.Symbols(), "timeframes": tfs})
}

func (s *Server) handlePrices(c *gin.Context) {
	t, err := s.prices.Load(c.Request.Context())
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, newTableResponse(t))
}

func (s *Server) handleRefresh(c *gin.Context) {
	t, err := s.prices.Refresh(c.Request.Context())
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": t.Len(), "last_date": t.LastDate().Format("2006-01-02")})
}

func (s *Server) handlePortfolio(c *gin.Context) {
	run, ok := s.compute(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newRunResponse(run))
}

func (s *Server) handleChart(c *gin.Context) {
	run, ok := s.compute(c)
	if !ok {
		return
	}
	perAsset, _ := strconv.ParseBool(c.DefaultQuery("per_asset", "false"))
	img, err := s.charts.Render(run, chart.Options{PerAsset: perAsset})
	if err != nil {
		s.abort(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", img)
}

func (s *Server) handleGrowthChart(c *gin.Context) {
	run, ok := s.compute(c)
	if !ok {
		return
	}
	img, err := s.charts.RenderGrowth(run, chart.Options{})
	if err != nil {
		s.abort(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", img)
}

func (s *Server) handleExport(c *gin.Context) {
	run, ok := s.compute(c)
	if !ok {
		return
	}
	name := fmt.Sprintf("portfolio_%s_%s.xlsx", run.Timeframe.Label, run.End().Format("20060102"))
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Status(http.StatusOK)
	if err := export.Write(c.Writer, run); err != nil {
		s.log.WithError(err).Error("http: xlsx export failed")
	}
}

// compute loads the price table and runs the aggregator with the query's
// parameters. It writes the error response itself when it fails.
func (s *Server) compute(c *gin.Context) (*portfolio.Run, bool) {
	p, err := paramsFromQuery(c)
	if err != nil {
		s.abort(c, err)
		return nil, false
	}
	t, err := s.prices.Load(c.Request.Context())
	if err != nil {
		s.abort(c, err)
		return nil, false
	}
	run, err := portfolio.Compute(t, p, s.now())
	if err != nil {
		s.abort(c, err)
		return nil, false
	}
	return run, true
}

// paramsFromQuery reads investment, timeframe, coins (comma separated or
// repeated) and weight[SYM] from the query string.
func paramsFromQuery(c *gin.Context) (portfolio.Params, error) {
	p := portfolio.Params{
		Investment: portfolio.DefaultInvestment,
		RawWeights: portfolio.Weights{},
	}
	if v := c.Query("investment"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return p, fmt.Errorf("%w: investment %q", errBadRequest, v)
		}
		p.Investment = f
	}
	tf, err := portfolio.ParseTimeframe(c.Query("timeframe"))
	if err != nil {
		return p, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	p.Timeframe = tf

	for _, v := range c.QueryArray("coins") {
		for _, sym := range strings.Split(v, ",") {
			if sym = strings.ToUpper(strings.TrimSpace(sym)); sym != "" {
				p.Coins = append(p.Coins, sym)
			}
		}
	}
	if len(p.Coins) == 0 {
		p.Coins = append(p.Coins, portfolio.DefaultCoins...)
	}
	weights := c.QueryMap("weight")
	for _, sym := range p.Coins {
		p.RawWeights[sym] = portfolio.DefaultWeight
	}
	for sym, v := range weights {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return p, fmt.Errorf("%w: weight[%s] %q", errBadRequest, sym, v)
		}
		p.RawWeights[strings.ToUpper(sym)] = f
	}
	return p, nil
}

func newTableResponse(t *prices.Table) tableResponse {
	out := tableResponse{
		Symbols: t.Symbols,
		Rows:    make([]map[string]float64, len(t.Rows)),
		Dates:   make([]string, len(t.Rows)),
	}
	for i, r := range t.Rows {
		out.Dates[i] = r.Date.Format("2006-01-02")
		out.Rows[i] = r.Close
	}
	return out
}

func newRunResponse(run *portfolio.Run) runResponse {
	return runResponse{
		Summary:       run.Summary(),
		Coins:         run.Coins,
		Weights:       run.Weights,
		Cutoff:        run.Cutoff.Format("2006-01-02"),
		Truncated:     run.Truncated,
		Dates:         formatDates(run.Dates),
		Values:        run.Values,
		AssetGrowth:   run.Growth,
		FinalValueRaw: run.FinalValue,
		GrowthPct:     run.GrowthPct,
	}
}

func formatDates(ds []time.Time) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Format("2006-01-02")
	}
	return out
}
