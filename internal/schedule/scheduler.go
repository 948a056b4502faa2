// Package schedule decides which panel is on screen and for how long.
//
// The scheduler cycles through a fixed list of entries. An optional daily
// quiet-hours window overrides the rotation with a single panel and clips
// normal slots so they never run into the window.
package schedule

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrEmptySchedule = errors.New("schedule: no entries")
	ErrPanelID       = errors.New("schedule: panel id out of range")
	ErrDuration      = errors.New("schedule: duration must be positive")
)

// Entry is one step of the rotation.
type Entry struct {
	PanelID  int
	Duration time.Duration
	// Refresh redraws the panel at the global refresh interval for the
	// length of the slot instead of drawing it once.
	Refresh bool
}

// QuietHours replaces the rotation with PanelID inside [Start, End).
type QuietHours struct {
	Start   TimeOfDay
	End     TimeOfDay
	PanelID int
}

// Contains evaluates the window against now's local time of day.
func (q QuietHours) Contains(now time.Time) bool {
	return InWindow(q.Start, q.End, Of(now))
}

func (q QuietHours) UntilStart(now time.Time) time.Duration {
	return Until(now, q.Start)
}

func (q QuietHours) UntilEnd(now time.Time) time.Duration {
	return Until(now, q.End)
}

type State int

const (
	Normal State = iota
	Quiet
)

func (s State) String() string {
	if s == Quiet {
		return "quiet"
	}
	return "normal"
}

// Slot is the scheduler's decision for one cycle.
type Slot struct {
	PanelID  int
	Duration time.Duration
	Refresh  bool
	State    State
}

// Scheduler is driven by a single render loop and does no locking.
type Scheduler struct {
	entries []Entry
	quiet   *QuietHours
	index   int
	now     func() time.Time
}

// New validates the rotation against panelCount and returns a scheduler
// positioned at the first entry. A nil now uses time.Now.
func New(entries []Entry, quiet *QuietHours, panelCount int, now func() time.Time) (*Scheduler, error) {
	if len(entries) == 0 {
		return nil, ErrEmptySchedule
	}
	for i, e := range entries {
		if e.PanelID < 0 || e.PanelID >= panelCount {
			return nil, fmt.Errorf("%w: entry %d references panel %d (have %d)", ErrPanelID, i, e.PanelID, panelCount)
		}
		if e.Duration <= 0 {
			return nil, fmt.Errorf("%w: entry %d", ErrDuration, i)
		}
	}
	if quiet != nil && (quiet.PanelID < 0 || quiet.PanelID >= panelCount) {
		return nil, fmt.Errorf("%w: quiet hours reference panel %d (have %d)", ErrPanelID, quiet.PanelID, panelCount)
	}
	if now == nil {
		now = time.Now
	}
	cp := make([]Entry, len(entries))
	copy(cp, entries)
	return &Scheduler{entries: cp, quiet: quiet, now: now}, nil
}

// IsQuietHours reports whether the quiet window is active at now.
func (s *Scheduler) IsQuietHours(now time.Time) bool {
	return s.quiet != nil && s.quiet.Contains(now)
}

// Next returns the panel to show now. Outside quiet hours it advances the
// rotation; inside them the rotation position is left untouched.
func (s *Scheduler) Next() Slot {
	now := s.now()
	if s.IsQuietHours(now) {
		return Slot{
			PanelID:  s.quiet.PanelID,
			Duration: s.quiet.UntilEnd(now),
			State:    Quiet,
		}
	}

	e := s.entries[s.index]
	s.index = (s.index + 1) % len(s.entries)

	d := e.Duration
	if s.quiet != nil {
		if untilQuiet := s.quiet.UntilStart(now); untilQuiet < d {
			d = untilQuiet
		}
	}
	return Slot{PanelID: e.PanelID, Duration: d, Refresh: e.Refresh, State: Normal}
}

// Index is the position of the entry the next normal slot will use.
func (s *Scheduler) Index() int {
	return s.index
}

// Len is the number of rotation entries.
func (s *Scheduler) Len() int {
	return len(s.entries)
}
