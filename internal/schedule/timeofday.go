package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrTimeOfDay = errors.New("schedule: invalid time of day")

// TimeOfDay is a wall-clock time without a date, at second precision.
type TimeOfDay struct {
	Hour, Minute, Second int
}

// ParseTimeOfDay accepts "HH:MM" or "HH:MM:SS" in 24-hour form.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrTimeOfDay, s)
	}
	var vals [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return TimeOfDay{}, fmt.Errorf("%w: %q", ErrTimeOfDay, s)
		}
		vals[i] = n
	}
	t := TimeOfDay{Hour: vals[0], Minute: vals[1], Second: vals[2]}
	if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 || t.Second < 0 || t.Second > 59 {
		return TimeOfDay{}, fmt.Errorf("%w: %q out of range", ErrTimeOfDay, s)
	}
	return t, nil
}

// Of returns the time of day of t in t's own location.
func Of(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}
}

// Seconds is the offset from midnight.
func (t TimeOfDay) Seconds() int {
	return t.Hour*3600 + t.Minute*60 + t.Second
}

func (t TimeOfDay) Before(o TimeOfDay) bool {
	return t.Seconds() < o.Seconds()
}

// On combines the calendar date of day with t, in day's location.
func (t TimeOfDay) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, t.Hour, t.Minute, t.Second, 0, day.Location())
}

func (t TimeOfDay) String() string {
	if t.Second != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	}
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// InWindow reports whether t falls in the half-open window [start, end).
// When start is not before end the window wraps past midnight.
func InWindow(start, end, t TimeOfDay) bool {
	if start.Before(end) {
		return !t.Before(start) && t.Before(end)
	}
	return !t.Before(start) || t.Before(end)
}

// Until returns the time from now to the next occurrence of t: today's date
// combined with t, or tomorrow's when that instant is not after now.
func Until(now time.Time, t TimeOfDay) time.Duration {
	target := t.On(now)
	if !target.After(now) {
		target = t.On(now.AddDate(0, 0, 1))
	}
	return target.Sub(now)
}
