package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/google/subcommands"
	"github.com/tidwall/pretty"

	"cryptoPortfolioSim/internal/prices"
)

type pricesCmd struct {
	last   int
	asJSON bool
}

func (*pricesCmd) Name() string     { return "prices" }
func (*pricesCmd) Synopsis() string { return "print the cached daily closes" }
func (*pricesCmd) Usage() string {
	return `prices [-n <days>] [-json]

  Prints the most recent cached closes, loading or refreshing the cache first.
`
}

func (c *pricesCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.last, "n", 10, "number of most recent days to print (0 for all)")
	f.BoolVar(&c.asJSON, "json", false, "print as JSON")
}

func (c *pricesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	rows := t.Rows
	if c.last > 0 && len(rows) > c.last {
		rows = rows[len(rows)-c.last:]
	}

	if c.asJSON {
		type jsonRow struct {
			Date  string             `json:"date"`
			Close map[string]float64 `json:"close"`
		}
		out := make([]jsonRow, len(rows))
		for i, r := range rows {
			out[i] = jsonRow{Date: r.Date.Format("2006-01-02"), Close: r.Close}
		}
		b, err := json.Marshal(out)
		if err != nil {
			log.Error(err)
			return subcommands.ExitFailure
		}
		os.Stdout.Write(pretty.Pretty(b))
		return subcommands.ExitSuccess
	}

	printRows(t.Symbols, rows)
	return subcommands.ExitSuccess
}

func printRows(symbols []string, rows []prices.Row) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "Date\t%s\t\n", strings.Join(symbols, "\t"))
	for _, r := range rows {
		cells := make([]string, len(symbols))
		for i, s := range symbols {
			cells[i] = strconv.FormatFloat(r.Close[s], 'f', 4, 64)
		}
		fmt.Fprintf(w, "%s\t%s\t\n", r.Date.Format("2006-01-02"), strings.Join(cells, "\t"))
	}
	w.Flush()
}
