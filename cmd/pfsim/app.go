package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"cryptoPortfolioSim/internal/config"
	"cryptoPortfolioSim/internal/prices"
	"cryptoPortfolioSim/internal/storage"
)

// openStore loads the configuration and opens the configured price store.
func openStore() (*prices.Store, func() error, *logrus.Logger, error) {
	cfg, err := config.Load()
	log := config.NewLogger(cfg.LogLevel)
	log.SetOutput(os.Stderr)
	if err != nil {
		return nil, nil, log, err
	}
	store, closer, err := storage.OpenPriceStore(cfg, log)
	return store, closer, log, err
}
