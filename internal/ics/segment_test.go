package ics

import (
	"testing"
	"time"

	"epdpanel/internal/model"
)

func TestSplitThreeDayEvent(t *testing.T) {
	loc := time.UTC
	ev := model.CalendarEvent{
		Summary:     "Conference",
		Description: "room 4",
		Start:       time.Date(2024, 1, 1, 0, 0, 0, 0, loc),
		End:         time.Date(2024, 1, 4, 0, 0, 0, 0, loc),
	}

	frags := Split(ev)
	if len(frags) != 3 {
		t.Fatalf("fragments = %d, want 3", len(frags))
	}
	for i, f := range frags {
		wantStart := time.Date(2024, 1, 1+i, 0, 0, 0, 0, loc)
		wantEnd := wantStart.AddDate(0, 0, 1)
		if !f.Start.Equal(wantStart) || !f.End.Equal(wantEnd) {
			t.Errorf("fragment %d = [%v, %v), want [%v, %v)", i, f.Start, f.End, wantStart, wantEnd)
		}
		wantSummary := []string{"Conference (1/3)", "Conference (2/3)", "Conference (3/3)"}[i]
		if f.Summary != wantSummary {
			t.Errorf("fragment %d summary = %q, want %q", i, f.Summary, wantSummary)
		}
		if f.Description != "room 4" {
			t.Errorf("fragment %d description = %q", i, f.Description)
		}
		if !f.FullDay() {
			t.Errorf("fragment %d should be full-day", i)
		}
	}
}

func TestSplitSingleDayUnchanged(t *testing.T) {
	ev := model.CalendarEvent{
		Summary: "Standup",
		Start:   time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC),
		End:     time.Date(2024, 1, 2, 11, 0, 0, 0, time.UTC),
	}
	frags := Split(ev)
	if len(frags) != 1 || frags[0] != ev {
		t.Fatalf("Split = %+v, want the event unchanged", frags)
	}
}

func TestSplitOvernightEvent(t *testing.T) {
	ev := model.CalendarEvent{
		Summary: "Night shift",
		Start:   time.Date(2024, 1, 2, 22, 0, 0, 0, time.UTC),
		End:     time.Date(2024, 1, 3, 6, 0, 0, 0, time.UTC),
	}
	frags := Split(ev)
	if len(frags) != 2 {
		t.Fatalf("fragments = %d, want 2", len(frags))
	}
	midnight := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	if !frags[0].End.Equal(midnight) || !frags[1].Start.Equal(midnight) {
		t.Errorf("fragments not cut at midnight: %+v", frags)
	}
	if frags[0].Summary != "Night shift (1/2)" || frags[1].Summary != "Night shift (2/2)" {
		t.Errorf("summaries = %q, %q", frags[0].Summary, frags[1].Summary)
	}
	if frags[0].FullDay() || frags[1].FullDay() {
		t.Error("partial-day fragments reported as full-day")
	}
}

func TestNormalizeDateOnly(t *testing.T) {
	loc := time.FixedZone("KST", 9*3600)
	raw := model.CalendarEvent{
		AllDay: true,
		Start:  time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC),
		End:    time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC),
	}
	ev, ok := Normalize(raw, loc)
	if !ok {
		t.Fatal("Normalize rejected a date-only event")
	}
	want := time.Date(2024, 5, 5, 0, 0, 0, 0, loc)
	if !ev.Start.Equal(want) || !ev.End.Equal(want.AddDate(0, 0, 1)) {
		t.Errorf("normalized = [%v, %v)", ev.Start, ev.End)
	}

	timed := model.CalendarEvent{
		Start: time.Date(2024, 5, 5, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 5, 5, 10, 0, 0, 0, time.UTC),
	}
	if _, ok := Normalize(timed, loc); ok {
		t.Error("zero-length timed event was accepted")
	}
}

func TestPrepareSortsAndDropsPast(t *testing.T) {
	now := time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)
	events := []model.CalendarEvent{
		{Summary: "later", Start: time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC), End: time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)},
		{Summary: "yesterday", Start: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), End: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)},
		{Summary: "trip", Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)},
		{Summary: "this morning", Start: time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC), End: time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)},
	}

	got := Prepare(events, time.UTC, now)
	want := []string{"trip (2/3)", "this morning", "trip (3/3)", "later"}
	if len(got) != len(want) {
		t.Fatalf("Prepare returned %d events, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i].Summary != want[i] {
			t.Errorf("event %d = %q, want %q", i, got[i].Summary, want[i])
		}
	}
}
