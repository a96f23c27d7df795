package telegram

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ykvlv/feedback-bot/internal/domain"
)

// ToInbound extracts a chat message from an update. Updates without a message
// (edits, callbacks, channel posts) are reported as not ok.
func ToInbound(upd tgbotapi.Update) (domain.Inbound, bool) {
	msg := upd.Message
	if msg == nil || msg.Chat == nil {
		return domain.Inbound{}, false
	}
	in := domain.Inbound{
		ChatID: msg.Chat.ID,
		Text:   msg.Text,
		SentAt: time.Unix(int64(msg.Date), 0).UTC(),
	}
	if in.Text == "" {
		in.Text = msg.Caption
	}
	if msg.From != nil {
		in.Username = msg.From.UserName
		in.FirstName = msg.From.FirstName
		in.LastName = msg.From.LastName
	}
	return in, true
}

// Poll long-polls Telegram and forwards messages to out until ctx is canceled.
func (d *Dispatcher) Poll(ctx context.Context, out chan<- domain.Inbound) error {
	if d.api == nil {
		return errors.New("polling requires an authorized bot")
	}
	// getUpdates is rejected while a webhook is set.
	if _, err := d.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = int(longPollTimeout / time.Second)
	updCh := d.api.GetUpdatesChan(u)
	defer d.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case upd, ok := <-updCh:
			if !ok {
				return nil
			}
			in, ok := ToInbound(upd)
			if !ok {
				continue
			}
			select {
			case out <- in:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// WebhookHandler decodes Telegram webhook posts and forwards messages to out.
func (d *Dispatcher) WebhookHandler(out chan<- domain.Inbound) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var upd tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
			d.log.Warn("bad webhook payload", zap.Error(err))
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		in, ok := ToInbound(upd)
		if ok {
			select {
			case out <- in:
			case <-r.Context().Done():
				// Telegram retries deliveries that are not acknowledged.
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
}

// WebhookSecret derives a stable, unguessable path segment from the bot token.
func WebhookSecret(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:16])
}

// WebhookURL joins the public base URL with the webhook path.
func WebhookURL(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/webhook/" + WebhookSecret(token)
}

// SetWebhook registers the callback URL with Telegram, dropping queued updates,
// and returns what Telegram reports back.
func SetWebhook(bot *tgbotapi.BotAPI, url string) (tgbotapi.WebhookInfo, error) {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return tgbotapi.WebhookInfo{}, fmt.Errorf("webhook config: %w", err)
	}
	wh.DropPendingUpdates = true
	if _, err := bot.Request(wh); err != nil {
		return tgbotapi.WebhookInfo{}, fmt.Errorf("set webhook: %w", err)
	}
	info, err := bot.GetWebhookInfo()
	if err != nil {
		return tgbotapi.WebhookInfo{}, fmt.Errorf("get webhook info: %w", err)
	}
	return info, nil
}
