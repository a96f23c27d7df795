package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/ykvlv/feedback-bot/internal/domain"
)

// Commands recognised by the bot.
const (
	CommandStart  = "start"
	CommandHelp   = "help"
	CommandCancel = "cancel"
)

// Settings are the static inputs of the transition function.
type Settings struct {
	// ManagerChatID receives forwarded feedback; 0 disables forwarding.
	ManagerChatID int64
}

// Result is what a single inbound message does to a user record.
type Result struct {
	User     *domain.User // record after the step (a copy, never the input pointer)
	Changed  bool         // User must be persisted
	Replies  []domain.Outbound
	Feedback *domain.Feedback // set when the message was accepted as feedback (ID left empty)
}

func (r *Result) reply(o domain.Outbound) {
	r.Replies = append(r.Replies, o)
}

// Step is the pure onboarding/feedback state machine: (record, message) -> (record, effects).
// It performs no I/O.
func Step(ctx context.Context, u *domain.User, in domain.Inbound, s Settings) (Result, error) {
	next := *u
	res := Result{User: &next}

	if in.Username != next.Username || in.FirstName != next.FirstName || in.LastName != next.LastName {
		next.Username, next.FirstName, next.LastName = in.Username, in.FirstName, in.LastName
		res.Changed = true
	}

	text := strings.TrimSpace(in.Text)
	cmd, isCmd := parseCommand(text)

	switch u.State {
	case domain.StateNew:
		return restart(ctx, &res)

	case domain.StateAwaitingGroupType, domain.StateAwaitingStartDate:
		if isCmd {
			switch cmd {
			case CommandStart:
				return restart(ctx, &res)
			case CommandCancel:
				return cancel(ctx, &res)
			case CommandHelp:
				res.reply(domain.Text(next.ChatID, helpText))
				res.reply(repromptFor(&next))
				return res, nil
			}
			// Unknown commands fall through to input validation and are rejected there.
		}
		if u.State == domain.StateAwaitingGroupType {
			return chooseGroup(ctx, &res, text)
		}
		return setStartDate(ctx, &res, text)

	case domain.StateActive:
		if isCmd {
			switch cmd {
			case CommandStart:
				res.reply(domain.Text(next.ChatID, fmt.Sprintf(alreadyRegisteredFmt, firstName(&next))))
			case CommandHelp:
				res.reply(domain.Text(next.ChatID, helpText))
			default:
				res.reply(domain.Text(next.ChatID, unknownCommandText))
			}
			return res, nil
		}
		if text == "" {
			return res, nil
		}
		return acceptFeedback(&res, in, text, s), nil
	}

	return res, fmt.Errorf("chat %d: unexpected state %q", u.ChatID, u.State)
}

// restart (re)enters group selection and clears any half-finished enrollment.
func restart(ctx context.Context, res *Result) (Result, error) {
	u := res.User
	st, err := transition(ctx, u.State, evStart)
	if err != nil {
		return *res, err
	}
	if st != u.State || u.Cohort != nil || u.StartDate != nil {
		res.Changed = true
	}
	u.State, u.Cohort, u.StartDate = st, nil, nil
	res.reply(domain.Outbound{
		ChatID:  u.ChatID,
		Text:    fmt.Sprintf(welcomeFmt, firstName(u)),
		Choices: groupChoices(),
	})
	return *res, nil
}

func cancel(ctx context.Context, res *Result) (Result, error) {
	u := res.User
	st, err := transition(ctx, u.State, evCancel)
	if err != nil {
		return *res, err
	}
	u.State, u.Cohort, u.StartDate = st, nil, nil
	res.Changed = true
	res.reply(domain.Outbound{ChatID: u.ChatID, Text: cancelledText, RemoveKeyboard: true})
	return *res, nil
}

func chooseGroup(ctx context.Context, res *Result, text string) (Result, error) {
	u := res.User
	c, ok := parseChoice(text)
	if !ok {
		res.reply(domain.Outbound{ChatID: u.ChatID, Text: invalidGroupText, Choices: groupChoices()})
		return *res, nil
	}
	st, err := transition(ctx, u.State, evChooseGroup)
	if err != nil {
		return *res, err
	}
	u.State, u.Cohort = st, &c
	res.Changed = true
	res.reply(domain.Outbound{ChatID: u.ChatID, Text: askStartDateText, RemoveKeyboard: true})
	return *res, nil
}

func setStartDate(ctx context.Context, res *Result, text string) (Result, error) {
	u := res.User
	d, err := domain.ParseStartDate(text)
	if err != nil {
		res.reply(domain.Text(u.ChatID, invalidDateText))
		return *res, nil
	}
	st, err := transition(ctx, u.State, evSetStartDate)
	if err != nil {
		return *res, err
	}
	u.State, u.StartDate = st, &d
	res.Changed = true
	res.reply(domain.Text(u.ChatID, fmt.Sprintf(registeredFmt, cohortLabel(u.Cohort), domain.HumanDate(d))))
	return *res, nil
}

func acceptFeedback(res *Result, in domain.Inbound, text string, s Settings) Result {
	u := res.User
	res.Feedback = &domain.Feedback{
		ChatID:    u.ChatID,
		Text:      text,
		CreatedAt: in.SentAt,
	}
	if s.ManagerChatID != 0 {
		res.reply(domain.Text(s.ManagerChatID, fmt.Sprintf(feedbackForwardFmt,
			u.DisplayName(), u.ChatID, cohortLabel(u.Cohort), text)))
	}
	res.reply(domain.Text(u.ChatID, thanksText))
	return *res
}

// repromptFor repeats the question of the current onboarding step.
func repromptFor(u *domain.User) domain.Outbound {
	if u.State == domain.StateAwaitingGroupType {
		return domain.Outbound{ChatID: u.ChatID, Text: invalidGroupText, Choices: groupChoices()}
	}
	return domain.Text(u.ChatID, askStartDateText)
}

// parseCommand extracts "start" from "/start" or "/start@SomeBot payload".
func parseCommand(text string) (string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	word := strings.Fields(text[1:])
	if len(word) == 0 {
		return "", true
	}
	cmd, _, _ := strings.Cut(word[0], "@")
	return strings.ToLower(cmd), true
}

func parseChoice(text string) (domain.Cohort, bool) {
	t := strings.ToLower(strings.TrimSpace(text))
	switch t {
	case strings.ToLower(labelWeekday), "weekday", "weekdays":
		return domain.CohortWeekday, true
	case strings.ToLower(labelWeekend), "weekend", "weekends", "saturday":
		return domain.CohortWeekend, true
	}
	return "", false
}

func groupChoices() []string {
	return []string{labelWeekday, labelWeekend}
}

func cohortLabel(c *domain.Cohort) string {
	if c == nil {
		return "unknown"
	}
	if *c == domain.CohortWeekend {
		return labelWeekend
	}
	return labelWeekday
}

func firstName(u *domain.User) string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return "there"
}
