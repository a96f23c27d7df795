package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ykvlv/feedback-bot/internal/domain"
)

// SQLRepo implements Repo on top of sqlx; queries are written with ? placeholders
// and rebound for the active driver.
type SQLRepo struct{ db *sqlx.DB }

// Close releases the underlying database resources.
func (r *SQLRepo) Close() error {
	return r.db.Close()
}

// Ping checks the connection; used by the health endpoint.
func (r *SQLRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// GetUser returns a user by chatID or ErrNotFound.
func (r *SQLRepo) GetUser(ctx context.Context, chatID int64) (*domain.User, error) {
	var row userRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`
		SELECT `+userColumns+`
		FROM users
		WHERE chat_id = ?`),
		chatID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain()
}

// CreateUser inserts a new row; it fails with ErrAlreadyExists if the chat is known.
func (r *SQLRepo) CreateUser(ctx context.Context, u *domain.User) error {
	if u == nil {
		return errors.New("nil user")
	}
	now := time.Now().UTC().Unix()
	created := u.CreatedAt.UTC().Unix()
	if u.CreatedAt.IsZero() {
		created = now
	}

	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (chat_id) DO NOTHING`),
		u.ChatID, string(u.State), toNullCohort(u.Cohort), toNullDate(u.StartDate),
		toNullDate(u.LastPromptSentOn), u.Username, u.FirstName, u.LastName,
		created, now,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlreadyExists
	}
	return nil
}

// SaveOnboarding persists the conversation-owned columns of a user.
// last_prompt_sent_on is owned by the scheduler and is not written here.
func (r *SQLRepo) SaveOnboarding(ctx context.Context, u *domain.User) error {
	if u == nil {
		return errors.New("nil user")
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE users
		SET state      = ?,
		    cohort     = ?,
		    start_date = ?,
		    username   = ?,
		    first_name = ?,
		    last_name  = ?,
		    updated_at = ?
		WHERE chat_id = ?`),
		string(u.State), toNullCohort(u.Cohort), toNullDate(u.StartDate),
		u.Username, u.FirstName, u.LastName, time.Now().UTC().Unix(),
		u.ChatID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListActiveByCohort returns all ACTIVE users of a cohort ordered by chat_id.
func (r *SQLRepo) ListActiveByCohort(ctx context.Context, cohort domain.Cohort) ([]domain.User, error) {
	var rows []userRow
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(`
		SELECT `+userColumns+`
		FROM users
		WHERE state = ?
		  AND cohort = ?
		ORDER BY chat_id ASC`),
		string(domain.StateActive), string(cohort),
	)
	if err != nil {
		return nil, err
	}

	res := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		u, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		res = append(res, *u)
	}
	return res, nil
}

// ClaimPrompt sets last_prompt_sent_on to today unless it already is today.
func (r *SQLRepo) ClaimPrompt(ctx context.Context, chatID int64, today time.Time) (bool, error) {
	day := domain.FormatDate(today)
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE users
		SET last_prompt_sent_on = ?
		WHERE chat_id = ?
		  AND (last_prompt_sent_on IS NULL OR last_prompt_sent_on <> ?)`),
		day, chatID, day,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ReleasePrompt restores prev if the row still carries today's claim.
func (r *SQLRepo) ReleasePrompt(ctx context.Context, chatID int64, today time.Time, prev *time.Time) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE users
		SET last_prompt_sent_on = ?
		WHERE chat_id = ?
		  AND last_prompt_sent_on = ?`),
		toNullDate(prev), chatID, domain.FormatDate(today),
	)
	return err
}

// SaveFeedback stores a feedback message.
func (r *SQLRepo) SaveFeedback(ctx context.Context, f *domain.Feedback) error {
	if f == nil {
		return errors.New("nil feedback")
	}
	created := f.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO feedback (id, chat_id, text, created_at)
		VALUES (?, ?, ?, ?)`),
		f.ID, f.ChatID, f.Text, created.UTC().Unix(),
	)
	return err
}
