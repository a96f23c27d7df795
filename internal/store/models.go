package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ykvlv/feedback-bot/internal/domain"
)

// userRow mirrors the users table.
type userRow struct {
	ChatID           int64          `db:"chat_id"`
	State            string         `db:"state"`
	Cohort           sql.NullString `db:"cohort"`
	StartDate        sql.NullString `db:"start_date"`
	LastPromptSentOn sql.NullString `db:"last_prompt_sent_on"`
	Username         string         `db:"username"`
	FirstName        string         `db:"first_name"`
	LastName         string         `db:"last_name"`
	CreatedAt        int64          `db:"created_at"`
	UpdatedAt        int64          `db:"updated_at"`
}

const userColumns = `chat_id, state, cohort, start_date, last_prompt_sent_on,
		username, first_name, last_name, created_at, updated_at`

func (r userRow) toDomain() (*domain.User, error) {
	state := domain.State(r.State)
	if !state.Valid() {
		return nil, fmt.Errorf("chat %d: unknown state %q", r.ChatID, r.State)
	}
	u := &domain.User{
		ChatID:    r.ChatID,
		State:     state,
		Username:  r.Username,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		CreatedAt: time.Unix(r.CreatedAt, 0).UTC(),
		UpdatedAt: time.Unix(r.UpdatedAt, 0).UTC(),
	}
	if r.Cohort.Valid {
		c, err := domain.ParseCohort(r.Cohort.String)
		if err != nil {
			return nil, fmt.Errorf("chat %d: %w", r.ChatID, err)
		}
		u.Cohort = &c
	}
	var err error
	if u.StartDate, err = fromNullDate(r.StartDate); err != nil {
		return nil, fmt.Errorf("chat %d start_date: %w", r.ChatID, err)
	}
	if u.LastPromptSentOn, err = fromNullDate(r.LastPromptSentOn); err != nil {
		return nil, fmt.Errorf("chat %d last_prompt_sent_on: %w", r.ChatID, err)
	}
	return u, nil
}

func toNullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: domain.FormatDate(*t), Valid: true}
}

func fromNullDate(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := domain.ParseStoredDate(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func toNullCohort(c *domain.Cohort) sql.NullString {
	if c == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*c), Valid: true}
}
