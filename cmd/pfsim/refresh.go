package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

type refreshCmd struct{}

func (*refreshCmd) Name() string     { return "refresh" }
func (*refreshCmd) Synopsis() string { return "fetch missing daily closes into the local cache" }
func (*refreshCmd) Usage() string {
	return `refresh

  Creates the price cache with one year of history, or appends the days
  missing since the last cached date.
`
}

func (*refreshCmd) SetFlags(*flag.FlagSet) {}

func (*refreshCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	store, closeStore, log, err := openStore()
	if err != nil {
		log.Error(err)
		return subcommands.ExitFailure
	}
	defer closeStore()

	t, err := store.Load(ctx)
	if err != nil {
		log.WithError(err).Error("refresh failed")
		return subcommands.ExitFailure
	}
	fmt.Fprintf(os.Stdout, "%d days cached for %v (%s to %s)\n",
		t.Len(), t.Symbols, t.FirstDate().Format("2006-01-02"), t.LastDate().Format("2006-01-02"))
	return subcommands.ExitSuccess
}
