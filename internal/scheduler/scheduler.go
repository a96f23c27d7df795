package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/ykvlv/feedback-bot/internal/domain"
)

// Sender is a minimal interface the scheduler needs to send a text message.
// telegram.Dispatcher implements this (method: SendText).
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// Store is the part of store.Repo the scheduler needs.
type Store interface {
	ListActiveByCohort(ctx context.Context, cohort domain.Cohort) ([]domain.User, error)
	ClaimPrompt(ctx context.Context, chatID int64, today time.Time) (bool, error)
	ReleasePrompt(ctx context.Context, chatID int64, today time.Time, prev *time.Time) error
}

// Report summarises one rule firing.
type Report struct {
	Rule    domain.Rule
	Today   time.Time
	Due     int
	Sent    int
	Failed  int
	Skipped int
}

// Scheduler fires feedback prompts for each configured rule at its wall-clock time
// in a single configured location.
type Scheduler struct {
	repo        Store
	log         *zap.Logger
	sender      Sender
	loc         *time.Location
	rules       []domain.Rule
	text        string
	sendTimeout time.Duration
	now         func() time.Time

	cron *cron.Cron
}

// Option customises a Scheduler.
type Option func(*Scheduler)

// WithClock replaces time.Now; used by tests and one-shot runs.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithSendTimeout bounds a single prompt delivery.
func WithSendTimeout(d time.Duration) Option {
	return func(s *Scheduler) { s.sendTimeout = d }
}

// New creates a new Scheduler.
func New(repo Store, log *zap.Logger, sender Sender, loc *time.Location, rules []domain.Rule, text string, opts ...Option) *Scheduler {
	s := &Scheduler{
		repo:        repo,
		log:         log,
		sender:      sender,
		loc:         loc,
		rules:       rules,
		text:        text,
		sendTimeout: 15 * time.Second,
		now:         time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run registers the rules and blocks until ctx is canceled. On shutdown it waits for
// an in-flight scan, which stops after the user it is currently processing.
func (s *Scheduler) Run(ctx context.Context) error {
	cl := cronLogger{s.log.Sugar()}
	s.cron = cron.New(
		cron.WithLocation(s.loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	for _, r := range s.rules {
		rule := r
		if _, err := s.cron.AddFunc(rule.CronSpec(), func() { s.Fire(ctx, rule) }); err != nil {
			return fmt.Errorf("rule %s: %w", rule, err)
		}
		s.log.Info("schedule rule registered",
			zap.String("rule", rule.String()),
			zap.String("cron", rule.CronSpec()),
			zap.String("tz", s.loc.String()),
		)
	}

	s.cron.Start()
	<-ctx.Done()
	s.log.Info("scheduler stopping")
	<-s.cron.Stop().Done()
	return nil
}

// RunDue fires every rule scheduled on today's weekday, regardless of the time of day.
func (s *Scheduler) RunDue(ctx context.Context) []Report {
	wd := s.now().In(s.loc).Weekday()
	var reports []Report
	for _, r := range s.rules {
		if r.FiresOn(wd) {
			reports = append(reports, s.Fire(ctx, r))
		}
	}
	return reports
}

// Fire performs one scan for rule: find due users, claim today, send.
// A failure for one user is logged and does not stop the scan.
func (s *Scheduler) Fire(ctx context.Context, rule domain.Rule) Report {
	today := domain.DateIn(s.now(), s.loc)
	rep := Report{Rule: rule, Today: today}
	log := s.log.With(zap.String("rule", rule.String()), zap.String("date", domain.FormatDate(today)))

	users, err := s.repo.ListActiveByCohort(ctx, rule.Cohort)
	if err != nil {
		log.Error("ListActiveByCohort failed", zap.Error(err))
		return rep
	}

	for i := range users {
		if ctx.Err() != nil {
			log.Warn("scan interrupted", zap.Int("remaining", len(users)-i))
			break
		}
		u := &users[i]
		if !domain.DueToday(u, rule, today) {
			rep.Skipped++
			continue
		}
		rep.Due++
		// The current user is finished even if shutdown starts meanwhile.
		s.prompt(context.WithoutCancel(ctx), log, u, today, &rep)
	}

	log.Info("scan finished",
		zap.Int("due", rep.Due),
		zap.Int("sent", rep.Sent),
		zap.Int("failed", rep.Failed),
		zap.Int("skipped", rep.Skipped),
	)
	return rep
}

func (s *Scheduler) prompt(ctx context.Context, log *zap.Logger, u *domain.User, today time.Time, rep *Report) {
	log = log.With(zap.Int64("chatID", u.ChatID))

	claimed, err := s.repo.ClaimPrompt(ctx, u.ChatID, today)
	if err != nil {
		log.Error("ClaimPrompt failed", zap.Error(err))
		rep.Failed++
		return
	}
	if !claimed {
		// Another scan got there first.
		rep.Skipped++
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	err = s.sender.SendText(sendCtx, u.ChatID, s.text)
	cancel()
	if err != nil {
		log.Error("send failed", zap.Error(err))
		rep.Failed++
		if err := s.repo.ReleasePrompt(ctx, u.ChatID, today, u.LastPromptSentOn); err != nil {
			log.Error("ReleasePrompt failed", zap.Error(err))
		}
		return
	}
	rep.Sent++
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct{ s *zap.SugaredLogger }

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
