// Package storage opens the configured price cache and builds the price store.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	// Register sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"cryptoPortfolioSim/internal/config"
	"cryptoPortfolioSim/internal/market"
	"cryptoPortfolioSim/internal/prices"
)

// OpenSQLite opens the database at path, creating its directory.
func OpenSQLite(path string) (*sqlx.DB, error) {
	_ = os.MkdirAll(filepath.Dir(path), 0o755)
	return sqlx.Open("sqlite3", "file:"+path+"?_busy_timeout=5000")
}

// NewSource returns the configured market-data source.
func NewSource(cfg config.Config) market.Source {
	if cfg.PriceSource == config.SourceAlpaca {
		return market.NewAlpacaSource(cfg.AlpacaKey, cfg.AlpacaSecret)
	}
	return market.NewYahooSource(cfg.YahooBaseURL)
}

// OpenPriceStore wires cache backend, source and tickers into a Store.
// The returned close function releases the backend.
func OpenPriceStore(cfg config.Config, log *logrus.Logger) (*prices.Store, func() error, error) {
	tickers, err := cfg.Tickers()
	if err != nil {
		return nil, nil, err
	}

	var cache prices.Cache
	closer := func() error { return nil }
	switch cfg.CacheBackend {
	case config.BackendSQLite:
		db, err := OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite %s: %w", cfg.DBPath, err)
		}
		if err := prices.InitSchema(db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("init sqlite schema: %w", err)
		}
		log.Printf("db: opened sqlite at %s", cfg.DBPath)
		cache = prices.NewSQLiteCache(db, tickers.Symbols())
		closer = db.Close
	default:
		log.Printf("prices: csv cache at %s", cfg.CachePath)
		cache = prices.NewCSVCache(cfg.CachePath)
	}

	store := prices.NewStore(cache, NewSource(cfg), tickers, log, prices.Options{StaleOnError: cfg.StaleOnError})
	return store, closer, nil
}
