// Command setwebhook registers WEBHOOK_URL/webhook/{secret} with Telegram and
// prints what Telegram reports back. With -check it only reports the current
// webhook status.
package main

import (
	"flag"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ykvlv/feedback-bot/internal/config"
	"github.com/ykvlv/feedback-bot/internal/logger"
	"github.com/ykvlv/feedback-bot/internal/telegram"
)

func main() {
	check := flag.Bool("check", false, "only print the current webhook status")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString("config error: " + err.Error() + "\n")
		os.Exit(2)
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger init error: " + err.Error() + "\n")
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()

	bot, err := telegram.NewBot(cfg.BotToken, cfg.SendTimeout)
	if err != nil {
		log.Fatal("telegram init failed", zap.Error(err))
	}

	if *check {
		info, err := bot.GetWebhookInfo()
		if err != nil {
			log.Fatal("get webhook info failed", zap.Error(err))
		}
		report(log, "webhook status", info)
		if info.URL == "" {
			log.Warn("no webhook is set; the bot can only run in polling mode")
		}
		if info.LastErrorMessage != "" {
			log.Warn("telegram reports webhook delivery errors", zap.String("error", info.LastErrorMessage))
		}
		return
	}

	if cfg.WebhookURL == "" {
		log.Fatal("WEBHOOK_URL is not set")
	}
	info, err := telegram.SetWebhook(bot, telegram.WebhookURL(cfg.WebhookURL, cfg.BotToken))
	if err != nil {
		log.Fatal("set webhook failed", zap.Error(err))
	}
	report(log, "webhook registered", info)
}

func report(log *zap.Logger, msg string, info tgbotapi.WebhookInfo) {
	log.Info(msg,
		zap.String("url", info.URL),
		zap.Int("pending", info.PendingUpdateCount),
		zap.String("lastError", info.LastErrorMessage),
		zap.Int("maxConnections", info.MaxConnections),
	)
}
