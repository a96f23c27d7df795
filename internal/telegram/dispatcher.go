package telegram

import (
	"context"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ykvlv/feedback-bot/internal/domain"
)

// client is the subset of *tgbotapi.BotAPI used for outbound calls.
type client interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Dispatcher is the facade over the Telegram Bot API: outbound messages and inbound updates.
type Dispatcher struct {
	api    *tgbotapi.BotAPI // nil in tests; needed for long polling only
	client client
	log    *zap.Logger
}

// longPollTimeout is how long a getUpdates call may be held open by Telegram.
const longPollTimeout = 30 * time.Second

// NewBot authorizes against Telegram. The HTTP client timeout leaves room for a full
// long poll on top of sendTimeout; callers bound individual sends with a context.
func NewBot(token string, sendTimeout time.Duration) (*tgbotapi.BotAPI, error) {
	httpClient := &http.Client{Timeout: sendTimeout + longPollTimeout}
	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	bot.Debug = false
	return bot, nil
}

// NewDispatcher wraps an authorized bot.
func NewDispatcher(bot *tgbotapi.BotAPI, log *zap.Logger) *Dispatcher {
	return &Dispatcher{api: bot, client: bot, log: log}
}

// SendText sends a plain text message to the given chat.
// This makes Dispatcher satisfy scheduler.Sender.
func (d *Dispatcher) SendText(ctx context.Context, chatID int64, text string) error {
	return d.Send(ctx, domain.Text(chatID, text))
}

// Send delivers an outbound message, rendering choices as a reply keyboard.
// This makes Dispatcher satisfy conversation.Sender.
func (d *Dispatcher) Send(ctx context.Context, msg domain.Outbound) error {
	m := tgbotapi.NewMessage(msg.ChatID, msg.Text)
	switch {
	case len(msg.Choices) > 0:
		m.ReplyMarkup = choiceKeyboard(msg.Choices)
	case msg.RemoveKeyboard:
		m.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	}
	return d.do(ctx, m)
}

// RegisterCommands publishes the command menu shown by Telegram clients.
func (d *Dispatcher) RegisterCommands() error {
	_, err := d.client.Request(tgbotapi.NewSetMyCommands(botCommands()...))
	return err
}

// do runs a Send call but returns as soon as ctx is done.
// The underlying HTTP call is itself bounded by the client timeout.
func (d *Dispatcher) do(ctx context.Context, c tgbotapi.Chattable) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() {
		_, err := d.client.Send(c)
		done <- err
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
