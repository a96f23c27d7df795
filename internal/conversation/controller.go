package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ykvlv/feedback-bot/internal/domain"
	"github.com/ykvlv/feedback-bot/internal/store"
)

// Sender delivers outbound messages. telegram.Dispatcher implements it.
type Sender interface {
	Send(ctx context.Context, msg domain.Outbound) error
}

// Store is the part of store.Repo the conversation flow needs.
type Store interface {
	GetUser(ctx context.Context, chatID int64) (*domain.User, error)
	CreateUser(ctx context.Context, u *domain.User) error
	SaveOnboarding(ctx context.Context, u *domain.User) error
	SaveFeedback(ctx context.Context, f *domain.Feedback) error
}

// Controller runs Step against stored records: load, decide, persist, then notify.
type Controller struct {
	repo     Store
	sender   Sender
	log      *zap.Logger
	settings Settings

	now   func() time.Time
	newID func() string
}

// NewController creates a controller. Warns once if feedback forwarding is disabled.
func NewController(repo Store, sender Sender, log *zap.Logger, s Settings) *Controller {
	if s.ManagerChatID == 0 {
		log.Warn("manager chat id is not set; feedback will be stored but not forwarded")
	}
	return &Controller{
		repo:     repo,
		sender:   sender,
		log:      log,
		settings: s,
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
}

// Handle processes one inbound message to completion.
// The returned error is a storage error; the update was abandoned and nothing was sent
// except a best-effort apology to the user.
func (c *Controller) Handle(ctx context.Context, in domain.Inbound) error {
	log := c.log.With(zap.Int64("chatID", in.ChatID))

	u, err := c.loadOrCreate(ctx, in)
	if err != nil {
		c.apologize(ctx, in.ChatID)
		return err
	}
	from := u.State

	res, err := Step(ctx, u, in, c.settings)
	if err != nil {
		c.apologize(ctx, in.ChatID)
		return fmt.Errorf("step: %w", err)
	}

	if res.Changed {
		if err := c.repo.SaveOnboarding(ctx, res.User); err != nil {
			c.apologize(ctx, in.ChatID)
			return fmt.Errorf("save user: %w", err)
		}
		if res.User.State != from {
			log.Info("state changed",
				zap.String("from", string(from)),
				zap.String("to", string(res.User.State)),
			)
		}
	}

	if res.Feedback != nil {
		res.Feedback.ID = c.newID()
		if res.Feedback.CreatedAt.IsZero() {
			res.Feedback.CreatedAt = c.now().UTC()
		}
		// The manager still gets the forward if saving fails.
		if err := c.repo.SaveFeedback(ctx, res.Feedback); err != nil {
			log.Error("save feedback failed", zap.Error(err))
		} else {
			log.Info("feedback received", zap.String("feedbackID", res.Feedback.ID))
		}
	}

	for _, msg := range res.Replies {
		if err := c.sender.Send(ctx, msg); err != nil {
			log.Error("send failed", zap.Error(err), zap.Int64("to", msg.ChatID))
		}
	}
	return nil
}

func (c *Controller) loadOrCreate(ctx context.Context, in domain.Inbound) (*domain.User, error) {
	u, err := c.repo.GetUser(ctx, in.ChatID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("get user: %w", err)
	}

	u = domain.NewUser(in.ChatID, c.now())
	u.Username, u.FirstName, u.LastName = in.Username, in.FirstName, in.LastName
	if err := c.repo.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	c.log.Info("new user", zap.Int64("chatID", in.ChatID))
	return u, nil
}

func (c *Controller) apologize(ctx context.Context, chatID int64) {
	if err := c.sender.Send(ctx, domain.Text(chatID, serverErrorText)); err != nil {
		c.log.Warn("apology send failed", zap.Error(err), zap.Int64("chatID", chatID))
	}
}
