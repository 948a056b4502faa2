// Package runner is the render loop: it asks the scheduler which panel is
// due, draws it, ships it to the display and sleeps until the next update.
package runner

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/robfig/cron/v3"

	"epdpanel/internal/config"
	"epdpanel/internal/epd"
	appLog "epdpanel/internal/log"
	"epdpanel/internal/panel"
	"epdpanel/internal/schedule"
)

// minWait keeps a zero-length slot from spinning the loop.
const minWait = time.Second

// Frame is one rendered update.
type Frame struct {
	Image   *image.RGBA
	PanelID int
	State   schedule.State
	DrawnAt time.Time
	// Next is when the loop wakes up again.
	Next time.Time
}

// Observer receives every frame after it is drawn.
type Observer interface {
	Publish(Frame)
}

// Options wires a Runner. Now and Sleep default to the wall clock.
type Options struct {
	Settings *config.Settings
	Driver   epd.Driver
	Deps     panel.Deps
	Observer Observer

	Now func() time.Time
	// Sleep blocks for d and returns early with ctx's error when it is done.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Runner owns the scheduler and the lazily built panels. It is driven by a
// single goroutine.
type Runner struct {
	opts   Options
	sched  *schedule.Scheduler
	panels map[int]panel.Panel
	cron   cron.Schedule
}

// New validates every panel spec and prepares the scheduler.
func New(opts Options) (*Runner, error) {
	s := opts.Settings
	if s == nil {
		return nil, errors.New("runner: settings are nil")
	}
	if opts.Driver == nil {
		return nil, errors.New("runner: display driver is nil")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	loc := s.Location
	if loc == nil {
		loc = time.Local
	}
	// Quiet hours, time panels and the calendar all read the display zone.
	hostNow := opts.Now
	opts.Now = func() time.Time { return hostNow().In(loc) }
	if opts.Sleep == nil {
		opts.Sleep = sleep
	}
	if opts.Deps.Now == nil {
		opts.Deps.Now = opts.Now
	}
	if opts.Deps.Location == nil {
		opts.Deps.Location = loc
	}
	if opts.Deps.Palette == "" {
		opts.Deps.Palette = s.Palette
	}
	if opts.Deps.CacheDir == "" {
		opts.Deps.CacheDir = s.CacheDir
	}

	for i, spec := range s.Panels {
		if err := panel.Validate(spec); err != nil {
			return nil, fmt.Errorf("runner: panel %d: %w", i, err)
		}
	}
	quiet, err := s.QuietHours()
	if err != nil {
		return nil, err
	}
	sched, err := schedule.New(s.Entries(), quiet, len(s.Panels), opts.Now)
	if err != nil {
		return nil, err
	}

	r := &Runner{opts: opts, sched: sched, panels: map[int]panel.Panel{}}
	if s.RefreshCron != "" {
		r.cron, err = cron.ParseStandard(s.RefreshCron)
		if err != nil {
			return nil, fmt.Errorf("runner: refresh_cron: %w", err)
		}
	}
	return r, nil
}

// Run loops until ctx is cancelled, then clears the display and puts it to
// sleep. Display and drawing failures are logged and do not stop the loop.
func (r *Runner) Run(ctx context.Context) error {
	appLog.Info("render loop started", "panels", len(r.opts.Settings.Panels), "schedule", r.sched.Len())
	for {
		slot := r.sched.Next()
		if err := r.runSlot(ctx, slot); err != nil {
			appLog.Info("render loop stopping", "reason", err.Error())
			r.Shutdown()
			return nil
		}
	}
}

// runSlot shows slot.PanelID for the slot's duration, redrawing at the
// refresh interval when the slot asks for it.
func (r *Runner) runSlot(ctx context.Context, slot schedule.Slot) error {
	start := r.opts.Now()
	end := start.Add(slot.Duration)
	appLog.Info("panel slot",
		"panel", slot.PanelID,
		"state", slot.State.String(),
		"duration", slot.Duration.String(),
		"refresh", slot.Refresh,
	)
	for {
		now := r.opts.Now()
		next := end
		if slot.Refresh {
			if t := r.nextRefresh(now); t.Before(end) {
				next = t
			}
		}
		if err := r.show(slot, now, next); err != nil {
			appLog.Error("panel update failed", err, "panel", slot.PanelID)
		}

		wait := next.Sub(r.opts.Now())
		if wait < minWait {
			wait = minWait
		}
		if err := r.opts.Sleep(ctx, wait); err != nil {
			return err
		}
		if !slot.Refresh || !r.opts.Now().Before(end) {
			return nil
		}
	}
}

func (r *Runner) nextRefresh(now time.Time) time.Time {
	if r.cron != nil {
		return r.cron.Next(now)
	}
	return now.Add(r.opts.Settings.RefreshInterval())
}

// Panel returns the panel for id, building it on first use.
func (r *Runner) Panel(id int) (panel.Panel, error) {
	if p, ok := r.panels[id]; ok {
		return p, nil
	}
	if id < 0 || id >= len(r.opts.Settings.Panels) {
		return nil, fmt.Errorf("runner: panel %d out of range", id)
	}
	p, err := panel.Build(r.opts.Settings.Panels[id], r.opts.Deps)
	if err != nil {
		return nil, err
	}
	appLog.Debug("panel built", "panel", id, "type", r.opts.Settings.Panels[id].Type)
	r.panels[id] = p
	return p, nil
}

// Render draws panel id without touching the display.
func (r *Runner) Render(id int) (*image.RGBA, error) {
	p, err := r.Panel(id)
	if err != nil {
		return nil, err
	}
	return p.Draw(), nil
}

func (r *Runner) show(slot schedule.Slot, now, next time.Time) error {
	img, err := r.Render(slot.PanelID)
	if err != nil {
		return err
	}
	if r.opts.Observer != nil {
		r.opts.Observer.Publish(Frame{
			Image:   img,
			PanelID: slot.PanelID,
			State:   slot.State,
			DrawnAt: now,
			Next:    next,
		})
	}
	return r.Display(img)
}

// Display wakes the panel, sends img and puts the panel back to sleep.
func (r *Runner) Display(img image.Image) error {
	d := r.opts.Driver
	if err := d.Init(); err != nil {
		return fmt.Errorf("runner: display init: %w", err)
	}
	buf, err := d.Buffer(img)
	if err != nil {
		return fmt.Errorf("runner: display buffer: %w", err)
	}
	if err := d.Display(buf); err != nil {
		return fmt.Errorf("runner: display: %w", err)
	}
	return d.Sleep()
}

// Shutdown makes one best-effort clear-and-sleep cycle on the display.
func (r *Runner) Shutdown() {
	d := r.opts.Driver
	if err := d.Init(); err != nil {
		appLog.Error("display init on shutdown failed", err)
		return
	}
	if err := d.Clear(); err != nil {
		appLog.Error("display clear on shutdown failed", err)
	}
	if err := d.Sleep(); err != nil {
		appLog.Error("display sleep on shutdown failed", err)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
