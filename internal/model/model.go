package model

import "time"

// CalendarEvent is a single event ready for layout: normalized into the
// display timezone and, after segmentation, confined to one calendar day.
type CalendarEvent struct {
	Summary     string
	Description string

	// AllDay is set when the source used date-only DTSTART/DTEND values.
	AllDay bool

	Start time.Time
	End   time.Time
}

// FullDay reports whether the event covers whole days: both ends land
// exactly on local midnight.
func (e CalendarEvent) FullDay() bool {
	return isMidnight(e.Start) && isMidnight(e.End)
}

func isMidnight(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}

// ContributionDay is one cell of the GitHub contribution calendar.
type ContributionDay struct {
	Date  string `json:"date"`
	Count int    `json:"contributionCount"`
	// Color is the hex color GitHub assigns to the cell, e.g. "#40c463".
	Color string `json:"color"`
}

// ContributionWeek is one column of the contribution calendar, oldest day first.
type ContributionWeek struct {
	Days []ContributionDay `json:"contributionDays"`
}

// TimeEntry is a Toggl time entry. A negative Duration marks a running
// entry; its magnitude is not meaningful, use Start instead.
type TimeEntry struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	ProjectID   int64     `json:"project_id"`
	WorkspaceID int64     `json:"workspace_id"`
	Start       time.Time `json:"start"`
	Stop        time.Time `json:"stop"`
	Duration    int64     `json:"duration"`
}

// Running reports whether the entry is still being tracked.
func (t TimeEntry) Running() bool {
	return t.Duration < 0
}

// Elapsed returns the tracked length of the entry at now.
func (t TimeEntry) Elapsed(now time.Time) time.Duration {
	if t.Running() {
		return now.Sub(t.Start)
	}
	return time.Duration(t.Duration) * time.Second
}

// Project is a Toggl workspace project.
type Project struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	ClientName string `json:"client_name"`
	Color      string `json:"color"`
}
