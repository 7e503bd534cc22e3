package telegram

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"cryptoPortfolioSim/internal/chart"
	"cryptoPortfolioSim/internal/market"
	"cryptoPortfolioSim/internal/portfolio"
	"cryptoPortfolioSim/internal/prices"
)

var (
	// /sim [amount] [1Y|6M|3M] SYM [W] ...
	reSim = regexp.MustCompile(`^/sim(?:@[\w_]+)?(?:\s+(.*))?$`)
	// /explain [amount] [1Y|6M|3M] SYM [W] ...
	reExplain = regexp.MustCompile(`^/explain(?:@[\w_]+)?(?:\s+(.*))?$`)
	reCoins   = regexp.MustCompile(`^/coins(?:@[\w_]+)?$`)
	reRefresh = regexp.MustCompile(`^/refresh(?:@[\w_]+)?$`)
	reHelp    = regexp.MustCompile(`^/(help|start)(?:@[\w_]+)?$`)
)

// Sender is the part of the Telegram API the handlers use.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// PriceLoader is the part of prices.Store the bot needs.
type PriceLoader interface {
	Load(ctx context.Context) (*prices.Table, error)
	Refresh(ctx context.Context) (*prices.Table, error)
	Symbols() []string
}

// Describer writes commentary about a run.
type Describer interface {
	Describe(ctx context.Context, run *portfolio.Run) (string, error)
}

type Handlers struct {
	sender   Sender
	prices   PriceLoader
	charts   *chart.Renderer
	describe Describer // nil disables /explain
	log      *logrus.Logger
	now      func() time.Time
}

func NewHandlers(p PriceLoader, charts *chart.Renderer, describe Describer, log *logrus.Logger) *Handlers {
	return &Handlers{prices: p, charts: charts, describe: describe, log: log, now: time.Now}
}

func (h *Handlers) HandleMessage(m *tgbotapi.Message) {
	txt := strings.TrimSpace(m.Text)
	switch {
	case reSim.MatchString(txt):
		h.handleSim(m.Chat.ID, reSim.FindStringSubmatch(txt)[1], false)
	case reExplain.MatchString(txt):
		h.handleSim(m.Chat.ID, reExplain.FindStringSubmatch(txt)[1], true)
	case reCoins.MatchString(txt):
		h.reply(m.Chat.ID, "Tracked coins: "+strings.Join(h.prices.Symbols(), ", "))
	case reRefresh.MatchString(txt):
		h.handleRefresh(m.Chat.ID)
	case reHelp.MatchString(txt):
		h.handleHelp(m.Chat.ID)
	}
}

func (h *Handlers) handleSim(chatID int64, args string, explain bool) {
	p, err := portfolio.ParseAllocation(strings.Fields(args))
	if err != nil {
		h.reply(chatID, "Couldn’t parse request: "+err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer cancel()

	t, err := h.prices.Load(ctx)
	if err != nil {
		h.log.WithError(err).Error("telegram: price load failed")
		h.reply(chatID, "Price data unavailable: "+err.Error())
		return
	}
	run, err := portfolio.Compute(t, p, h.now())
	if err != nil {
		h.reply(chatID, userMessage(err))
		return
	}

	s := run.Summary()
	caption := fmt.Sprintf("📈 Portfolio Result for %s\nFinal Portfolio Value: %s (%s)\n%s",
		s.Timeframe, s.FinalValue, s.Growth, run.Allocation())
	if run.Truncated {
		caption += fmt.Sprintf("\nHistory starts %s (after %s).", s.Start, run.Cutoff.Format("2006-01-02"))
	}

	img, err := h.charts.Render(run, chart.Options{PerAsset: len(run.Coins) > 1})
	if err != nil {
		h.log.WithError(err).Warn("telegram: chart failed")
		h.reply(chatID, caption)
	} else {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "portfolio_" + s.Timeframe + ".png", Bytes: img})
		photo.Caption = caption
		h.send(photo)
	}

	if explain {
		if h.describe == nil {
			h.reply(chatID, "Commentary is not configured.")
			return
		}
		note, err := h.describe.Describe(ctx, run)
		if err != nil {
			h.reply(chatID, "Commentary failed: "+err.Error())
			return
		}
		h.reply(chatID, note)
	}
}

func (h *Handlers) handleRefresh(chatID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer cancel()
	t, err := h.prices.Refresh(ctx)
	if err != nil {
		h.reply(chatID, "Refresh failed: "+err.Error())
		return
	}
	h.reply(chatID, fmt.Sprintf("Prices up to date: %d days, last %s.", t.Len(), t.LastDate().Format("2006-01-02")))
}

func (h *Handlers) handleHelp(chatID int64) {
	help := "Commands\n\n" +
		"- /sim [amount] [1Y|6M|3M] COIN [weight] ... - Simulate a weighted portfolio (default 1000, 1Y, weight 0.2)\n" +
		"- /explain ... - Same as /sim, followed by a short commentary\n" +
		"- /coins - List tracked coins\n" +
		"- /refresh - Fetch missing daily prices\n" +
		"\nExample: /sim 1000 6M BTC 0.5 ETH 0.3 SOL 0.2\nWeights are normalized to sum to 100%."
	h.reply(chatID, help)
}

// userMessage turns core errors into replies the user can act on.
func userMessage(err error) string {
	switch {
	case errors.Is(err, portfolio.ErrInvalidAllocation):
		return "⚠️ Please assign at least one weight."
	case errors.Is(err, portfolio.ErrEmptyWindow):
		return "No price data in the selected timeframe."
	case errors.Is(err, portfolio.ErrUnknownCoin):
		return "Couldn’t simulate: " + err.Error() + ". Use /coins to list tracked coins."
	case errors.Is(err, market.ErrDataFetch):
		return "Price data unavailable: " + err.Error()
	}
	return "Simulation failed: " + err.Error()
}

func (h *Handlers) reply(chatID int64, text string) {
	h.send(tgbotapi.NewMessage(chatID, text))
}

func (h *Handlers) send(c tgbotapi.Chattable) {
	if h.sender == nil {
		h.log.Warn("telegram: no sender configured, dropping reply")
		return
	}
	if _, err := h.sender.Send(c); err != nil {
		h.log.WithError(err).Warn("telegram: send failed")
	}
}
