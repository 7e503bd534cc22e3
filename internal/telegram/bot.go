package telegram

import (
	"encoding/json"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

type Bot struct {
	api *tgbotapi.BotAPI
	h   *Handlers
	log *logrus.Logger
}

func NewBot(token, webhookURL string, h *Handlers, log *logrus.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	// set webhook
	webhook, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return nil, err
	}
	if _, err := api.Request(webhook); err != nil {
		return nil, err
	}
	log.WithField("url", webhookURL).Info("telegram: webhook set")

	h.sender = api
	return &Bot{api: api, h: h, log: log}, nil
}

// Webhook HTTP handler (registered at /telegram/webhook)
func (b *Bot) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "bad update", http.StatusBadRequest)
		return
	}
	if update.Message == nil {
		b.log.Debug("webhook: non-message update received")
		w.WriteHeader(http.StatusOK)
		return
	}
	b.log.WithFields(logrus.Fields{
		"chat_id": update.Message.Chat.ID,
		"text":    update.Message.Text,
	}).Info("webhook: message")
	go b.h.HandleMessage(update.Message)
	w.WriteHeader(http.StatusOK)
}
