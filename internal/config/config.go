package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"cryptoPortfolioSim/internal/market"
)

const (
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"

	SourceYahoo  = "yahoo"
	SourceAlpaca = "alpaca"
)

type Config struct {
	Port     string
	LogLevel string

	CacheBackend string
	CachePath    string
	DBPath       string
	StaleOnError bool

	PriceSource  string
	YahooBaseURL string
	TickerSpec   string

	TelegramToken    string
	WebhookPublicURL string

	OpenAIKey   string
	OpenAIModel string

	AlpacaKey    string
	AlpacaSecret string
}

// Load reads the environment, after merging a .env file when one exists.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:             getEnv("PORT", "9095"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		CacheBackend:     strings.ToLower(getEnv("CACHE_BACKEND", BackendCSV)),
		CachePath:        getEnv("CACHE_PATH", "crypto_prices.csv"),
		DBPath:           getEnv("DB_PATH", "crypto_prices.db"),
		PriceSource:      strings.ToLower(getEnv("PRICE_SOURCE", SourceYahoo)),
		YahooBaseURL:     getEnv("YAHOO_BASE_URL", market.DefaultYahooBaseURL),
		TickerSpec:       os.Getenv("TICKERS"),
		TelegramToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		WebhookPublicURL: os.Getenv("WEBHOOK_PUBLIC_URL"),
		OpenAIKey:        os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:      os.Getenv("OPENAI_MODEL"),
		AlpacaKey:        os.Getenv("APCA_API_KEY_ID"),
		AlpacaSecret:     os.Getenv("APCA_API_SECRET_KEY"),
	}
	if v := os.Getenv("STALE_ON_ERROR"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid STALE_ON_ERROR %q: %w", v, err)
		}
		cfg.StaleOnError = b
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.CacheBackend {
	case BackendCSV, BackendSQLite:
	default:
		return fmt.Errorf("invalid CACHE_BACKEND %q (want %s or %s)", c.CacheBackend, BackendCSV, BackendSQLite)
	}
	switch c.PriceSource {
	case SourceYahoo, SourceAlpaca:
	default:
		return fmt.Errorf("invalid PRICE_SOURCE %q (want %s or %s)", c.PriceSource, SourceYahoo, SourceAlpaca)
	}
	if c.TelegramToken != "" && c.WebhookPublicURL == "" {
		return fmt.Errorf("missing env WEBHOOK_PUBLIC_URL (required with TELEGRAM_BOT_TOKEN)")
	}
	if _, err := c.Tickers(); err != nil {
		return err
	}
	return nil
}

// Tickers returns the symbol/ticker table for the configured source. TICKERS
// overrides the defaults.
func (c Config) Tickers() (*market.Tickers, error) {
	if c.TickerSpec != "" {
		return market.ParseTickers(c.TickerSpec)
	}
	if c.PriceSource == SourceAlpaca {
		return market.AlpacaTickers(market.DefaultSymbols)
	}
	return market.YahooTickers(market.DefaultSymbols)
}

// BotEnabled reports whether the Telegram bot should be started.
func (c Config) BotEnabled() bool { return c.TelegramToken != "" }

// NewLogger builds the process logger at the given level.
func NewLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		log.Warnf("config: unknown log level %q, using info", level)
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
