package conversation

import (
	"context"
	"errors"
	"fmt"

	"github.com/looplab/fsm"

	"github.com/ykvlv/feedback-bot/internal/domain"
)

// Onboarding events.
const (
	evStart        = "start"
	evChooseGroup  = "choose_group"
	evSetStartDate = "set_start_date"
	evCancel       = "cancel"
)

var onboardingEvents = fsm.Events{
	{
		Name: evStart,
		Src: []string{
			string(domain.StateNew),
			string(domain.StateAwaitingGroupType),
			string(domain.StateAwaitingStartDate),
		},
		Dst: string(domain.StateAwaitingGroupType),
	},
	{
		Name: evChooseGroup,
		Src:  []string{string(domain.StateAwaitingGroupType)},
		Dst:  string(domain.StateAwaitingStartDate),
	},
	{
		Name: evSetStartDate,
		Src:  []string{string(domain.StateAwaitingStartDate)},
		Dst:  string(domain.StateActive),
	},
	{
		Name: evCancel,
		Src: []string{
			string(domain.StateAwaitingGroupType),
			string(domain.StateAwaitingStartDate),
		},
		Dst: string(domain.StateNew),
	},
}

// transition applies event to state using the onboarding table.
// Restarting from AWAITING_GROUP_TYPE is a self-transition and is not an error.
func transition(ctx context.Context, from domain.State, event string) (domain.State, error) {
	m := fsm.NewFSM(string(from), onboardingEvents, fsm.Callbacks{})
	if err := m.Event(ctx, event); err != nil {
		var noop fsm.NoTransitionError
		if errors.As(err, &noop) {
			return from, nil
		}
		return from, fmt.Errorf("%s from %s: %w", event, from, err)
	}
	return domain.State(m.Current()), nil
}
