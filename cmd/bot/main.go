package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"cryptoPortfolioSim/internal/chart"
	"cryptoPortfolioSim/internal/config"
	"cryptoPortfolioSim/internal/openai"
	"cryptoPortfolioSim/internal/server"
	"cryptoPortfolioSim/internal/storage"
	"cryptoPortfolioSim/internal/telegram"
)

func main() {
	cfg, err := config.Load()
	log := config.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}

	store, closeStore, err := storage.OpenPriceStore(cfg, log)
	if err != nil {
		log.Fatal(err)
	}
	defer closeStore()

	// Warm the cache so the first request does not pay for the fetch.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	if t, err := store.Load(ctx); err != nil {
		log.WithError(err).Warn("prices: initial load failed, will retry on first request")
	} else {
		log.Printf("prices: %d days loaded, last %s", t.Len(), t.LastDate().Format("2006-01-02"))
	}
	cancel()

	charts := chart.NewRenderer()
	srv := server.New(store, charts, log)

	var webhook http.HandlerFunc
	if cfg.BotEnabled() {
		var describer telegram.Describer
		if cfg.OpenAIKey != "" {
			describer = openai.NewCommentator(cfg.OpenAIKey, cfg.OpenAIModel)
		}
		h := telegram.NewHandlers(store, charts, describer, log)
		tg, err := telegram.NewBot(cfg.TelegramToken, cfg.WebhookPublicURL, h, log)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("telegram: bot initialized, webhook target %s", cfg.WebhookPublicURL)
		webhook = tg.WebhookHandler
	}

	addr := ":" + cfg.Port
	log.Println("http: listening on", addr)
	if err := server.ListenAndServe(addr, srv.Router(webhook)); err != nil {
		log.Println("server error:", err)
		os.Exit(1)
	}
}
