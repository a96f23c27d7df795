package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"github.com/ykvlv/feedback-bot/internal/config"
	"github.com/ykvlv/feedback-bot/internal/conversation"
	"github.com/ykvlv/feedback-bot/internal/domain"
	"github.com/ykvlv/feedback-bot/internal/scheduler"
	"github.com/ykvlv/feedback-bot/internal/store"
	"github.com/ykvlv/feedback-bot/internal/telegram"
)

// inboundBuffer absorbs bursts while the single worker is busy.
const inboundBuffer = 64

type App struct {
	cfg        config.Config
	log        *zap.Logger
	repo       store.Repo
	dispatcher *telegram.Dispatcher
	controller *conversation.Controller
	scheduler  *scheduler.Scheduler
	httpSrv    *http.Server
	inbound    chan domain.Inbound
}

// New opens storage, authorizes the bot and wires the components together.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("schedule zone: %w", err)
	}
	rules, err := cfg.Rules()
	if err != nil {
		return nil, err
	}

	repo, err := store.Open(ctx, cfg.StorageURL)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	log.Info("storage ready")

	bot, err := telegram.NewBot(cfg.BotToken, cfg.SendTimeout)
	if err != nil {
		_ = repo.Close()
		return nil, err
	}
	log.Info("authorized on telegram", zap.String("username", bot.Self.UserName))

	d := telegram.NewDispatcher(bot, log)
	if err := d.RegisterCommands(); err != nil {
		log.Warn("register commands failed", zap.Error(err))
	}

	a := &App{
		cfg:        cfg,
		log:        log,
		repo:       repo,
		dispatcher: d,
		controller: conversation.NewController(repo, d, log, conversation.Settings{ManagerChatID: cfg.ManagerChatID}),
		scheduler: scheduler.New(repo, log, d, loc, rules, conversation.PromptText,
			scheduler.WithSendTimeout(cfg.SendTimeout)),
		inbound: make(chan domain.Inbound, inboundBuffer),
	}

	var webhook http.Handler
	if cfg.RunMode == "webhook" {
		webhook = d.WebhookHandler(a.inbound)
	}
	a.httpSrv = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           newRouter(log, repo, webhook, telegram.WebhookSecret(cfg.BotToken)),
		ReadHeaderTimeout: 3 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
	return a, nil
}

// Run blocks until SIGINT/SIGTERM or a fatal component error.
func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting feedback-bot",
		zap.String("mode", a.cfg.RunMode),
		zap.String("http", a.cfg.HTTPAddr),
		zap.String("tz", a.cfg.ScheduleTZ),
	)
	defer func() {
		if err := a.repo.Close(); err != nil {
			a.log.Warn("storage close error", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	// Webhook requests are released when the app stops.
	a.httpSrv.BaseContext = func(net.Listener) context.Context { return ctx }

	wg := conc.NewWaitGroup()
	wg.Go(func() { a.work(ctx) })
	wg.Go(func() {
		if err := a.scheduler.Run(ctx); err != nil {
			cancel(fmt.Errorf("scheduler: %w", err))
		}
	})
	wg.Go(func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			cancel(fmt.Errorf("http server: %w", err))
		}
	})
	wg.Go(func() {
		<-ctx.Done()
		shCtx, shCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shCancel()
		if err := a.httpSrv.Shutdown(shCtx); err != nil {
			a.log.Warn("http server shutdown error", zap.Error(err))
		}
	})
	if a.cfg.RunMode == "polling" {
		wg.Go(func() {
			if err := a.dispatcher.Poll(ctx, a.inbound); err != nil {
				cancel(fmt.Errorf("polling: %w", err))
			}
		})
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	wg.Wait()

	if err := context.Cause(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// work handles inbound messages one at a time.
func (a *App) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case in := <-a.inbound:
			if err := a.controller.Handle(ctx, in); err != nil {
				a.log.Error("update abandoned", zap.Int64("chatID", in.ChatID), zap.Error(err))
			}
		}
	}
}
