package schedule

import (
	"errors"
	"testing"
	"time"
)

func mustTOD(t *testing.T, s string) TimeOfDay {
	t.Helper()
	tod, err := ParseTimeOfDay(s)
	if err != nil {
		t.Fatalf("ParseTimeOfDay(%q): %v", s, err)
	}
	return tod
}

func at(hh, mm int) time.Time {
	return time.Date(2024, 3, 10, hh, mm, 0, 0, time.UTC)
}

func TestRotationVisitsEachEntryOnce(t *testing.T) {
	entries := []Entry{
		{PanelID: 0, Duration: time.Minute},
		{PanelID: 2, Duration: 2 * time.Minute},
		{PanelID: 1, Duration: 3 * time.Minute, Refresh: true},
	}
	s, err := New(entries, nil, 3, func() time.Time { return at(12, 0) })
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for i, want := range entries {
		got := s.Next()
		if got.PanelID != want.PanelID || got.Duration != want.Duration || got.Refresh != want.Refresh {
			t.Errorf("call %d = %+v, want %+v", i+1, got, want)
		}
		if got.State != Normal {
			t.Errorf("call %d state = %v, want normal", i+1, got.State)
		}
	}
	if got := s.Next(); got.PanelID != entries[0].PanelID {
		t.Errorf("call L+1 panel = %d, want first entry %d", got.PanelID, entries[0].PanelID)
	}
	if s.Index() != 1 {
		t.Errorf("index = %d, want 1", s.Index())
	}
}

func TestInWindowBoundaries(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		now        string
		want       bool
	}{
		{"same-day at start", "22:00", "23:30", "22:00", true},
		{"same-day at end", "22:00", "23:30", "23:30", false},
		{"same-day inside", "22:00", "23:30", "23:00", true},
		{"same-day before", "22:00", "23:30", "21:59", false},
		{"wrap at start", "22:00", "06:00", "22:00", true},
		{"wrap at end", "22:00", "06:00", "06:00", false},
		{"wrap after midnight", "22:00", "06:00", "00:30", true},
		{"wrap late evening", "22:00", "06:00", "23:59", true},
		{"wrap afternoon", "22:00", "06:00", "15:00", false},
		{"equal bounds cover the day", "07:00", "07:00", "03:00", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InWindow(mustTOD(t, tt.start), mustTOD(t, tt.end), mustTOD(t, tt.now))
			if got != tt.want {
				t.Errorf("InWindow(%s, %s, %s) = %v, want %v", tt.start, tt.end, tt.now, got, tt.want)
			}
		})
	}
}

func TestQuietSlotRunsUntilEnd(t *testing.T) {
	q := &QuietHours{Start: mustTOD(t, "22:00"), End: mustTOD(t, "06:00"), PanelID: 1}
	now := at(23, 0)
	s, err := New([]Entry{{PanelID: 0, Duration: time.Hour}}, q, 2, func() time.Time { return now })
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got := s.Next()
	if got.State != Quiet || got.PanelID != 1 {
		t.Fatalf("slot = %+v, want quiet panel 1", got)
	}
	if got.Duration != 7*time.Hour {
		t.Errorf("duration = %v, want 7h", got.Duration)
	}
	if s.Index() != 0 {
		t.Errorf("quiet slot advanced the rotation to %d", s.Index())
	}

	now = at(2, 30)
	if got := s.Next(); got.Duration != 3*time.Hour+30*time.Minute {
		t.Errorf("after midnight duration = %v, want 3h30m", got.Duration)
	}
}

func TestNormalSlotClippedAtQuietStart(t *testing.T) {
	q := &QuietHours{Start: mustTOD(t, "22:00"), End: mustTOD(t, "06:00"), PanelID: 1}
	now := at(21, 50)
	s, err := New([]Entry{{PanelID: 0, Duration: time.Hour}}, q, 2, func() time.Time { return now })
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got := s.Next()
	if got.State != Normal || got.Duration != 10*time.Minute {
		t.Errorf("slot = %+v, want normal slot clipped to 10m", got)
	}

	now = at(12, 0)
	if got := s.Next(); got.Duration != time.Hour {
		t.Errorf("unclipped duration = %v, want 1h", got.Duration)
	}

	now = at(6, 0)
	if got := s.Next(); got.State != Normal {
		t.Errorf("at quiet end state = %v, want normal", got.State)
	}
}

func TestUntilAdvancesToTomorrow(t *testing.T) {
	now := at(6, 0)
	if got := Until(now, mustTOD(t, "06:00")); got != 24*time.Hour {
		t.Errorf("Until at exact instant = %v, want 24h", got)
	}
	if got := Until(now, mustTOD(t, "05:00")); got != 23*time.Hour {
		t.Errorf("Until past instant = %v, want 23h", got)
	}
	if got := Until(now, mustTOD(t, "06:00:30")); got != 30*time.Second {
		t.Errorf("Until later today = %v, want 30s", got)
	}
}

func TestNewValidation(t *testing.T) {
	ok := []Entry{{PanelID: 0, Duration: time.Minute}}
	tests := []struct {
		name    string
		entries []Entry
		quiet   *QuietHours
		want    error
	}{
		{"empty", nil, nil, ErrEmptySchedule},
		{"id too large", []Entry{{PanelID: 3, Duration: time.Minute}}, nil, ErrPanelID},
		{"negative id", []Entry{{PanelID: -1, Duration: time.Minute}}, nil, ErrPanelID},
		{"zero duration", []Entry{{PanelID: 0}}, nil, ErrDuration},
		{"quiet id", ok, &QuietHours{PanelID: 9}, ErrPanelID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.entries, tt.quiet, 2, nil)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseTimeOfDay(t *testing.T) {
	good := map[string]TimeOfDay{
		"06:00":    {Hour: 6},
		"23:59:59": {Hour: 23, Minute: 59, Second: 59},
		" 7:05 ":   {Hour: 7, Minute: 5},
	}
	for in, want := range good {
		got, err := ParseTimeOfDay(in)
		if err != nil || got != want {
			t.Errorf("ParseTimeOfDay(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	for _, in := range []string{"", "24:00", "12", "12:60", "ab:cd", "1:2:3:4"} {
		if _, err := ParseTimeOfDay(in); !errors.Is(err, ErrTimeOfDay) {
			t.Errorf("ParseTimeOfDay(%q) err = %v, want ErrTimeOfDay", in, err)
		}
	}
}
