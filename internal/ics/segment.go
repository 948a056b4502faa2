package ics

import (
	"fmt"
	"sort"
	"time"

	"epdpanel/internal/model"
)

// Normalize converts ev into loc. Date-only events are placed on local
// midnight, and a date-only event without a later end covers its start day.
// The second result is false when the event has no positive span.
func Normalize(ev model.CalendarEvent, loc *time.Location) (model.CalendarEvent, bool) {
	if loc == nil {
		loc = time.Local
	}
	if ev.AllDay {
		ev.Start = anchorDate(ev.Start, loc)
		ev.End = anchorDate(ev.End, loc)
		if !ev.End.After(ev.Start) {
			ev.End = ev.Start.AddDate(0, 0, 1)
		}
	} else {
		ev.Start = ev.Start.In(loc)
		ev.End = ev.End.In(loc)
	}
	return ev, ev.End.After(ev.Start)
}

// Split cuts ev at every local midnight it crosses. Each fragment covers
// part of a single day and gets an "(i/n)" suffix, n being the number of
// days touched. An end exactly at midnight does not touch the next day, so
// a single-day event comes back unchanged.
func Split(ev model.CalendarEvent) []model.CalendarEvent {
	loc := ev.Start.Location()
	day := anchorDate(ev.Start, loc)

	var bounds []time.Time
	for d := day; d.Before(ev.End); d = d.AddDate(0, 0, 1) {
		bounds = append(bounds, d)
	}
	total := len(bounds)
	if total <= 1 {
		return []model.CalendarEvent{ev}
	}

	out := make([]model.CalendarEvent, 0, total)
	for i, d := range bounds {
		frag := ev
		frag.Summary = fmt.Sprintf("%s (%d/%d)", ev.Summary, i+1, total)
		if i > 0 {
			frag.Start = d
		}
		if next := d.AddDate(0, 0, 1); next.Before(ev.End) {
			frag.End = next
		}
		out = append(out, frag)
	}
	return out
}

// Prepare normalizes, splits and sorts raw events for layout, dropping
// every fragment that starts before local midnight of now.
func Prepare(events []model.CalendarEvent, loc *time.Location, now time.Time) []model.CalendarEvent {
	if loc == nil {
		loc = time.Local
	}
	today := anchorDate(now.In(loc), loc)

	out := make([]model.CalendarEvent, 0, len(events))
	for _, raw := range events {
		ev, ok := Normalize(raw, loc)
		if !ok {
			continue
		}
		for _, frag := range Split(ev) {
			if frag.Start.Before(today) {
				continue
			}
			out = append(out, frag)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out
}
