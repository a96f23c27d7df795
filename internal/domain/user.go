package domain

import "time"

// State is the onboarding position of a chat.
type State string

const (
	StateNew               State = "NEW"
	StateAwaitingGroupType State = "AWAITING_GROUP_TYPE"
	StateAwaitingStartDate State = "AWAITING_START_DATE"
	StateActive            State = "ACTIVE"
)

// Valid reports whether s is one of the known states.
func (s State) Valid() bool {
	switch s {
	case StateNew, StateAwaitingGroupType, StateAwaitingStartDate, StateActive:
		return true
	}
	return false
}

// Cohort is the class schedule a student belongs to.
type Cohort string

const (
	CohortWeekday Cohort = "WEEKDAY"
	CohortWeekend Cohort = "WEEKEND"
)

// User is one row per chat: onboarding progress, enrollment and prompt bookkeeping.
type User struct {
	ChatID           int64
	State            State
	Cohort           *Cohort    // nil until a group is chosen
	StartDate        *time.Time // civil date (UTC midnight), nil until ACTIVE
	LastPromptSentOn *time.Time // civil date (UTC midnight), written by the scheduler only
	Username         string
	FirstName        string
	LastName         string
	CreatedAt        time.Time // UTC
	UpdatedAt        time.Time // UTC
}

// NewUser returns a fresh record for a chat that has never talked to the bot.
func NewUser(chatID int64, now time.Time) *User {
	now = now.UTC()
	return &User{
		ChatID:    chatID,
		State:     StateNew,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// DisplayName is used to attribute forwarded feedback.
func (u *User) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		name = "Student"
	}
	if u.Username != "" {
		name += " (@" + u.Username + ")"
	}
	return name
}

// Inbound is a single text update received from the messaging transport.
type Inbound struct {
	ChatID    int64
	Text      string
	SentAt    time.Time
	Username  string
	FirstName string
	LastName  string
}

// Feedback is a free-text message submitted by an ACTIVE student.
type Feedback struct {
	ID        string
	ChatID    int64
	Text      string
	CreatedAt time.Time
}
