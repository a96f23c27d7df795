package domain

import (
	"fmt"
	"strings"
	"time"
)

// Rule is a recurring trigger point for one cohort: a set of weekdays at a wall-clock time.
type Rule struct {
	Cohort Cohort
	Days   []time.Weekday
	At     Clock
}

// WeekdayRule fires Monday through Friday.
func WeekdayRule(at Clock) Rule {
	return Rule{
		Cohort: CohortWeekday,
		Days:   []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		At:     at,
	}
}

// WeekendRule fires on Saturday only.
func WeekendRule(at Clock) Rule {
	return Rule{
		Cohort: CohortWeekend,
		Days:   []time.Weekday{time.Saturday},
		At:     at,
	}
}

// FiresOn reports whether the rule is scheduled on the given weekday.
func (r Rule) FiresOn(d time.Weekday) bool {
	for _, wd := range r.Days {
		if wd == d {
			return true
		}
	}
	return false
}

// CronSpec renders the rule as a standard 5-field cron expression ("MM HH * * DOW").
func (r Rule) CronSpec() string {
	days := make([]string, 0, len(r.Days))
	for _, d := range r.Days {
		days = append(days, fmt.Sprint(int(d)))
	}
	return fmt.Sprintf("%d %d * * %s", r.At.Minute, r.At.Hour, strings.Join(days, ","))
}

func (r Rule) String() string {
	return fmt.Sprintf("%s@%s", r.Cohort, r.At)
}

// DueToday decides whether u should get a feedback prompt from rule r on the civil date today.
// A user is due when they are ACTIVE in the rule's cohort, their course has started,
// and they have not been prompted today already.
func DueToday(u *User, r Rule, today time.Time) bool {
	if u == nil || u.State != StateActive {
		return false
	}
	if u.Cohort == nil || *u.Cohort != r.Cohort {
		return false
	}
	if u.StartDate == nil || today.Before(*u.StartDate) {
		return false
	}
	if u.LastPromptSentOn != nil && u.LastPromptSentOn.Equal(today) {
		return false
	}
	return true
}
