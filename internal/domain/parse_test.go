package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseStartDate(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr error
	}{
		{in: "2024-09-02", want: date(2024, time.September, 2)},
		{in: " 02.09.2024 ", want: date(2024, time.September, 2)},
		{in: "2.9.2024", want: date(2024, time.September, 2)},
		{in: "", wantErr: ErrEmptyDate},
		{in: "tomorrow", wantErr: ErrInvalidDate},
		{in: "2024-13-01", wantErr: ErrInvalidDate},
		{in: "31.02.2024", wantErr: ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStartDate(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("want %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Fatalf("want %s, got %s", FormatDate(tt.want), FormatDate(got))
			}
		})
	}
}

func TestParseClock(t *testing.T) {
	c, err := ParseClock("09:05")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Hour != 9 || c.Minute != 5 || c.String() != "09:05" {
		t.Fatalf("unexpected clock %+v", c)
	}
	for _, bad := range []string{"", "9", "24:00", "12:60", "ab:cd"} {
		if _, err := ParseClock(bad); !errors.Is(err, ErrInvalidClock) {
			t.Fatalf("%q: want ErrInvalidClock, got %v", bad, err)
		}
	}
}

func TestParseCohort(t *testing.T) {
	if c, err := ParseCohort("weekend"); err != nil || c != CohortWeekend {
		t.Fatalf("want WEEKEND, got %q (%v)", c, err)
	}
	if _, err := ParseCohort("sunday"); !errors.Is(err, ErrUnknownCohort) {
		t.Fatalf("want ErrUnknownCohort, got %v", err)
	}
}

func TestDisplayName(t *testing.T) {
	u := &User{FirstName: "Anna", LastName: "Ivanova", Username: "anna_i"}
	if got := u.DisplayName(); got != "Anna Ivanova (@anna_i)" {
		t.Fatalf("got %q", got)
	}
	if got := (&User{}).DisplayName(); got != "Student" {
		t.Fatalf("got %q", got)
	}
}
