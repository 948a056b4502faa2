package ics

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	appLog "epdpanel/internal/log"
	"epdpanel/internal/model"
)

const defaultMaxOccurrences = 2000

// ExpandConfig bounds recurrence expansion.
type ExpandConfig struct {
	// Location is the display timezone. Nil means time.Local.
	Location *time.Location

	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrences caps each recurring event. Zero uses the default.
	MaxOccurrences int
}

// Expand turns parsed events into concrete events inside
// [RangeStart, RangeEnd]. Recurring events are expanded with their RRULE;
// EXDATE removes instances and RECURRENCE-ID overrides replace them.
// All-day events are re-anchored to midnight in cfg.Location.
func Expand(events []ParsedEvent, cfg ExpandConfig) ([]model.CalendarEvent, error) {
	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return nil, errors.New("ics: expand range end before start")
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.MaxOccurrences <= 0 {
		cfg.MaxOccurrences = defaultMaxOccurrences
	}

	overrides := make(map[string][]ParsedEvent)
	var bases []ParsedEvent
	for _, ev := range events {
		if ev.IsOverride {
			overrides[ev.UID] = append(overrides[ev.UID], ev)
			continue
		}
		bases = append(bases, ev)
	}

	out := make([]model.CalendarEvent, 0, len(bases))
	for _, ev := range bases {
		ov := overrides[ev.UID]
		if ev.RawRRule == "" {
			if overlaps(ev.Start, ev.End, cfg.RangeStart, cfg.RangeEnd) {
				out = append(out, toCalendarEvent(ev, ev.Start, ev.End, cfg.Location))
			}
			continue
		}
		out = append(out, expandRecurring(ev, ov, cfg)...)
	}
	return out, nil
}

func expandRecurring(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) []model.CalendarEvent {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("ics rrule parse failed", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return nil
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(alignExDate(ex, ev))
	}

	loc := ev.Start.Location()
	span := ev.End.Sub(ev.Start)
	// Widen the lower bound so instances that began before the range but
	// are still running are kept.
	starts := set.Between(cfg.RangeStart.Add(-span).In(loc), cfg.RangeEnd.In(loc), true)
	if len(starts) > cfg.MaxOccurrences {
		appLog.Warn("ics occurrences truncated", "uid", ev.UID, "cap", cfg.MaxOccurrences)
		starts = starts[:cfg.MaxOccurrences]
	}

	out := make([]model.CalendarEvent, 0, len(starts))
	for _, s := range starts {
		inst, start, end := ev, s, s.Add(span)
		if o, ok := findOverride(overrides, s); ok {
			inst, start, end = o, o.Start, o.End
		}
		if !overlaps(start, end, cfg.RangeStart, cfg.RangeEnd) {
			continue
		}
		out = append(out, toCalendarEvent(inst, start, end, cfg.Location))
	}
	return out
}

// alignExDate moves a date-only or floating EXDATE onto the base event's
// clock so it compares equal to the generated instance.
func alignExDate(ex time.Time, ev ParsedEvent) time.Time {
	if ev.AllDay {
		return time.Date(ex.Year(), ex.Month(), ex.Day(), 0, 0, 0, 0, ev.Start.Location())
	}
	return ex.In(ev.Start.Location())
}

func findOverride(overrides []ParsedEvent, start time.Time) (ParsedEvent, bool) {
	for _, o := range overrides {
		if o.Recurrence != nil && o.Recurrence.Equal(start) {
			return o, true
		}
	}
	return ParsedEvent{}, false
}

func toCalendarEvent(ev ParsedEvent, start, end time.Time, loc *time.Location) model.CalendarEvent {
	if ev.AllDay {
		start = anchorDate(start, loc)
		end = anchorDate(end, loc)
	} else {
		start = start.In(loc)
		end = end.In(loc)
	}
	return model.CalendarEvent{
		Summary:     ev.Summary,
		Description: ev.Description,
		AllDay:      ev.AllDay,
		Start:       start,
		End:         end,
	}
}

// anchorDate keeps the calendar date of t and places it at midnight in loc.
func anchorDate(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
