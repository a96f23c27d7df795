package store

import (
	"context"
	"errors"
	"time"

	"github.com/ykvlv/feedback-bot/internal/domain"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrAlreadyExists = errors.New("user already exists")
)

// Repo defines storage operations for user records and feedback.
//
// The conversation flow only writes onboarding columns (SaveOnboarding) and the
// scheduler only writes last_prompt_sent_on (ClaimPrompt/ReleasePrompt), so the two
// flows never overwrite each other's data.
type Repo interface {
	GetUser(ctx context.Context, chatID int64) (*domain.User, error)
	CreateUser(ctx context.Context, u *domain.User) error
	SaveOnboarding(ctx context.Context, u *domain.User) error
	ListActiveByCohort(ctx context.Context, cohort domain.Cohort) ([]domain.User, error)

	// ClaimPrompt atomically marks today as prompted. It returns false when the
	// user was already prompted on that date.
	ClaimPrompt(ctx context.Context, chatID int64, today time.Time) (bool, error)
	// ReleasePrompt undoes a claim for today, restoring prev.
	ReleasePrompt(ctx context.Context, chatID int64, today time.Time, prev *time.Time) error

	SaveFeedback(ctx context.Context, f *domain.Feedback) error

	Ping(ctx context.Context) error
	Close() error
}
