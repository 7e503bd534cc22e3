package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"github.com/tidwall/pretty"

	"cryptoPortfolioSim/internal/chart"
	"cryptoPortfolioSim/internal/export"
	"cryptoPortfolioSim/internal/portfolio"
)

type runCmd struct {
	amount     float64
	timeframe  string
	alloc      string
	asJSON     bool
	markdown   bool
	chartPath  string
	perAsset   bool
	growthPath string
	xlsxPath   string
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "simulate a weighted portfolio over a timeframe" }
func (*runCmd) Usage() string {
	return `run [-amount 1000] [-timeframe 1Y|6M|3M] [-alloc "BTC 0.2 ETH 0.2"] [-json|-markdown] [-chart out.png] [-growth-chart growth.png] [-xlsx out.xlsx]

  Normalizes the raw weights, indexes every coin to 1.0 at the window start and
  prints the final portfolio value and growth.
`
}

func (c *runCmd) SetFlags(f *flag.FlagSet) {
	f.Float64Var(&c.amount, "amount", portfolio.DefaultInvestment, "investment amount (USD)")
	f.StringVar(&c.timeframe, "timeframe", portfolio.OneYear.Label, "timeframe: 1Y, 6M, 3M or <n>d")
	f.StringVar(&c.alloc, "alloc", "", `coins and raw weights, e.g. "BTC 0.5 ETH 0.25 SOL" (default BTC ETH XRP at 0.2)`)
	f.BoolVar(&c.asJSON, "json", false, "print the full run as JSON")
	f.BoolVar(&c.markdown, "markdown", false, "print a rendered markdown report")
	f.StringVar(&c.chartPath, "chart", "", "write a PNG chart to this path")
	f.BoolVar(&c.perAsset, "per-asset", false, "add one line per coin to the chart")
	f.StringVar(&c.growthPath, "growth-chart", "", "write a PNG of each coin's growth indexed to 100 to this path")
	f.StringVar(&c.xlsxPath, "xlsx", "", "write an XLSX workbook to this path")
}

func (c *runCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	p, err := portfolio.ParseAllocation(strings.Fields(c.alloc))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	p.Investment = c.amount
	if p.Timeframe, err = portfolio.ParseTimeframe(c.timeframe); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}

	store, closeStore, log, err := openStore()
	if err != nil {
		log.Error(err)
		return subcommands.ExitFailure
	}
	defer closeStore()

	t, err := store.Load(ctx)
	if err != nil {
		log.WithError(err).Error("load prices failed")
		return subcommands.ExitFailure
	}
	run, err := portfolio.Compute(t, p, time.Now())
	if errors.Is(err, portfolio.ErrInvalidAllocation) {
		fmt.Fprintln(os.Stderr, "⚠️ Please assign at least one weight.")
		return subcommands.ExitUsageError
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if run.Truncated {
		log.Warnf("history starts %s, after the nominal window start %s",
			run.Start().Format("2006-01-02"), run.Cutoff.Format("2006-01-02"))
	}

	if err := c.print(run); err != nil {
		log.Error(err)
		return subcommands.ExitFailure
	}
	charts := chart.NewRenderer()
	if c.chartPath != "" {
		img, err := charts.Render(run, chart.Options{PerAsset: c.perAsset})
		if err == nil {
			err = os.WriteFile(c.chartPath, img, 0o644)
		}
		if err != nil {
			log.Error(err)
			return subcommands.ExitFailure
		}
	}
	if c.growthPath != "" {
		img, err := charts.RenderGrowth(run, chart.Options{})
		if err == nil {
			err = os.WriteFile(c.growthPath, img, 0o644)
		}
		if err != nil {
			log.Error(err)
			return subcommands.ExitFailure
		}
	}
	if c.xlsxPath != "" {
		f, err := export.Workbook(run)
		if err != nil {
			log.Error(err)
			return subcommands.ExitFailure
		}
		defer f.Close()
		if err := f.SaveAs(c.xlsxPath); err != nil {
			log.Error(err)
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}

func (c *runCmd) print(run *portfolio.Run) error {
	switch {
	case c.asJSON:
		b, err := json.Marshal(struct {
			portfolio.Summary
			Weights     portfolio.Weights    `json:"weights"`
			Dates       []time.Time          `json:"dates"`
			Values      []float64            `json:"values"`
			AssetGrowth map[string][]float64 `json:"asset_growth"`
		}{run.Summary(), run.Weights, run.Dates, run.Values, run.Growth})
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(pretty.Pretty(b))
		return err
	case c.markdown:
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
		if err != nil {
			return err
		}
		out, err := r.Render(run.Markdown())
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	}
	s := run.Summary()
	fmt.Printf("Portfolio Result for %s (%s to %s)\n", s.Timeframe, s.Start, s.End)
	fmt.Printf("Final Portfolio Value: %s (%s)\n", s.FinalValue, s.Growth)
	fmt.Printf("Allocation: %s\n", run.Allocation())
	return nil
}
