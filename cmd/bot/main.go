package main

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/ykvlv/feedback-bot/internal/app"
	"github.com/ykvlv/feedback-bot/internal/config"
	"github.com/ykvlv/feedback-bot/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// No logger yet.
		_, _ = os.Stderr.WriteString("config error: " + err.Error() + "\n")
		os.Exit(2)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger init error: " + err.Error() + "\n")
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("app init failed", zap.Error(err))
	}

	if err := application.Run(ctx); err != nil {
		log.Fatal("app run failed", zap.Error(err))
	}
}
