// Command remind runs today's prompt rules once and exits. It is meant for
// external schedulers (system cron, Kubernetes CronJob) instead of the bot's
// built-in trigger; prompts already sent today are not repeated.
package main

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/ykvlv/feedback-bot/internal/config"
	"github.com/ykvlv/feedback-bot/internal/conversation"
	"github.com/ykvlv/feedback-bot/internal/domain"
	"github.com/ykvlv/feedback-bot/internal/logger"
	"github.com/ykvlv/feedback-bot/internal/scheduler"
	"github.com/ykvlv/feedback-bot/internal/store"
	"github.com/ykvlv/feedback-bot/internal/telegram"
)

func main() {
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

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal("schedule zone", zap.Error(err))
	}
	rules, err := cfg.Rules()
	if err != nil {
		log.Fatal("schedule rules", zap.Error(err))
	}

	ctx := context.Background()
	repo, err := store.Open(ctx, cfg.StorageURL)
	if err != nil {
		log.Fatal("open storage failed", zap.Error(err))
	}
	defer func() { _ = repo.Close() }()

	bot, err := telegram.NewBot(cfg.BotToken, cfg.SendTimeout)
	if err != nil {
		log.Fatal("telegram init failed", zap.Error(err))
	}

	s := scheduler.New(repo, log, telegram.NewDispatcher(bot, log), loc, rules, conversation.PromptText,
		scheduler.WithSendTimeout(cfg.SendTimeout))
	reports := s.RunDue(ctx)
	if len(reports) == 0 {
		log.Info("no rules fire today")
	}
	for _, r := range reports {
		log.Info("reminders sent",
			zap.String("rule", r.Rule.String()),
			zap.String("date", domain.FormatDate(r.Today)),
			zap.Int("sent", r.Sent),
			zap.Int("failed", r.Failed),
		)
	}
}
