package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrEmptyDate     = errors.New("empty date")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidClock  = errors.New("invalid clock time")
	ErrUnknownCohort = errors.New("unknown cohort")
)

const dateLayout = "2006-01-02"

// Accepted start date layouts: ISO first, then the DD.MM.YYYY form students tend to type.
var startDateLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	"2.1.2006",
}

// ParseStartDate parses a student-entered enrollment date into a civil date.
func ParseStartDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrEmptyDate
	}
	for _, layout := range startDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// FormatDate renders a civil date as YYYY-MM-DD (the storage form).
func FormatDate(d time.Time) string {
	return d.Format(dateLayout)
}

// HumanDate renders a civil date as DD.MM.YYYY for chat replies.
func HumanDate(d time.Time) string {
	return d.Format("02.01.2006")
}

// ParseStoredDate is the inverse of FormatDate.
func ParseStoredDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// DateIn returns the civil date of t as observed in loc, normalised to UTC midnight
// so that dates compare with Equal/Before regardless of zone.
func DateIn(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseCohort accepts the stored enum value or the lowercase short form.
func ParseCohort(s string) (Cohort, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(CohortWeekday):
		return CohortWeekday, nil
	case string(CohortWeekend):
		return CohortWeekend, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCohort, s)
}

// Clock is a wall-clock time of day.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses "HH:MM".
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return Clock{}, fmt.Errorf("%w: expected HH:MM, got %q", ErrInvalidClock, s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return Clock{}, fmt.Errorf("%w: invalid hour in %q", ErrInvalidClock, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return Clock{}, fmt.Errorf("%w: invalid minute in %q", ErrInvalidClock, s)
	}
	return Clock{Hour: h, Minute: m}, nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// ValidateTZ checks that the tz is a valid IANA location.
func ValidateTZ(tz string) (*time.Location, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, err
	}
	return loc, nil
}
