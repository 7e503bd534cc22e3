package config

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"PORT", "LOG_LEVEL", "CACHE_BACKEND", "CACHE_PATH", "DB_PATH", "STALE_ON_ERROR",
		"PRICE_SOURCE", "YAHOO_BASE_URL", "TICKERS", "TELEGRAM_BOT_TOKEN", "WEBHOOK_PUBLIC_URL",
		"OPENAI_API_KEY", "OPENAI_MODEL", "APCA_API_KEY_ID", "APCA_API_SECRET_KEY",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9095", cfg.Port)
	assert.Equal(t, BackendCSV, cfg.CacheBackend)
	assert.Equal(t, "crypto_prices.csv", cfg.CachePath)
	assert.Equal(t, SourceYahoo, cfg.PriceSource)
	assert.False(t, cfg.StaleOnError)
	assert.False(t, cfg.BotEnabled())

	tk, err := cfg.Tickers()
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC-USD", "ETH-USD", "XRP-USD", "SOL-USD", "WLD-USD"}, tk.Tickers())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CACHE_BACKEND", "SQLite")
	t.Setenv("PRICE_SOURCE", "alpaca")
	t.Setenv("STALE_ON_ERROR", "true")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("WEBHOOK_PUBLIC_URL", "https://example.com/telegram/webhook")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.CacheBackend)
	assert.True(t, cfg.StaleOnError)
	assert.True(t, cfg.BotEnabled())

	tk, err := cfg.Tickers()
	require.NoError(t, err)
	got, _ := tk.Ticker("SOL")
	assert.Equal(t, "SOL/USD", got)

	t.Setenv("TICKERS", "BTC=XBT-USD")
	cfg, err = Load()
	require.NoError(t, err)
	tk, err = cfg.Tickers()
	require.NoError(t, err)
	assert.Equal(t, []string{"XBT-USD"}, tk.Tickers())
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"CACHE_BACKEND":      "redis",
		"PRICE_SOURCE":       "binance",
		"STALE_ON_ERROR":     "maybe",
		"TICKERS":            "BTC",
		"TELEGRAM_BOT_TOKEN": "123:abc",
	}
	for k, v := range cases {
		t.Run(k, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(k, v)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, NewLogger("debug").GetLevel())
	assert.Equal(t, logrus.InfoLevel, NewLogger("").GetLevel())
	assert.Equal(t, logrus.InfoLevel, NewLogger("loud").GetLevel())
}
