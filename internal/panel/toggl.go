package panel

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"epdpanel/internal/cache"
	appLog "epdpanel/internal/log"
	"epdpanel/internal/palette"
	"epdpanel/internal/render"
	"epdpanel/internal/toggl"
)

// TogglSource summarizes tracked time.
type TogglSource interface {
	Summarize(ctx context.Context, now time.Time, days int) (*toggl.Summary, error)
}

// togglView is the cached outcome of one fetch. A nil view is a failed
// fetch; invalidKey marks a rejected API key.
type togglView struct {
	summary    *toggl.Summary
	invalidKey bool
}

// Toggl shows the running time entry and per-project totals.
type Toggl struct {
	Frame
	style textStyle

	ctx    context.Context
	source TogglSource
	days   int
	data   *cache.Entry[*togglView]
	now    Clock
}

func newToggl(w, h int, s Settings, debug bool, ctx context.Context, source TogglSource, interval time.Duration, now Clock) *Toggl {
	if now == nil {
		now = time.Now
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return &Toggl{
		Frame:  newFrame(w, h, s, debug, DefaultPadding),
		style:  newTextStyle(s, render.DefaultFontSize),
		ctx:    ctx,
		source: source,
		days:   s.Int("days", 7),
		data:   cache.New[*togglView](interval, now),
		now:    now,
	}
}

// NeedsRefresh is true because a running entry's elapsed time keeps moving.
func (p *Toggl) NeedsRefresh() bool {
	return true
}

func (p *Toggl) Draw() *image.RGBA {
	return compose(p)
}

func (p *Toggl) fetch() *togglView {
	if p.source == nil {
		return &togglView{invalidKey: true}
	}
	s, err := p.source.Summarize(p.ctx, p.now(), p.days)
	switch {
	case errors.Is(err, toggl.ErrUnauthorized):
		appLog.Error("toggl api key rejected", err)
		return &togglView{invalidKey: true}
	case err != nil:
		appLog.Error("toggl fetch failed", err)
		return nil
	}
	return &togglView{summary: s}
}

func (p *Toggl) drawContent(img *image.RGBA) *image.RGBA {
	box := p.ContentBox()
	view := p.data.Request(p.fetch)
	switch {
	case view == nil:
		placeholder(img, box, "Toggl unavailable")
	case view.invalidKey:
		placeholder(img, box, "Toggl API key is invalid")
	default:
		p.layout(img, box, view.summary)
	}
	return p.Frame.drawContent(img)
}

// layout returns the number of project rows drawn.
func (p *Toggl) layout(img *image.RGBA, box image.Rectangle, s *toggl.Summary) int {
	face := p.style.face()
	lh := render.LineHeight(face)
	gap := p.Padding
	fg := p.style.color
	y := box.Min.Y

	headline := "Not tracking"
	if s.Running != nil {
		headline = fmt.Sprintf("Now: %s (%s) %s", s.Running.Description, s.RunningProject,
			toggl.FormatDuration(s.Running.Elapsed(p.now())))
	}
	if y+lh > box.Max.Y {
		return 0
	}
	render.DrawString(img, face, render.Truncate(face, headline, box.Dx()), image.Pt(box.Min.X, y), fg)
	y += lh + gap

	if y+lh > box.Max.Y {
		return 0
	}
	total := fmt.Sprintf("Last %d days: %s", p.days, toggl.FormatDuration(s.Total))
	render.DrawString(img, face, render.Truncate(face, total, box.Dx()), image.Pt(box.Min.X, y), fg)
	y += lh + gap

	swatch := lh - 4
	if swatch < 2 {
		swatch = 2
	}
	rows := 0
	for _, t := range s.Totals {
		if y+lh > box.Max.Y {
			break
		}
		sw := image.Rect(box.Min.X, y+2, box.Min.X+swatch, y+2+swatch)
		render.FillRect(img, sw, palette.ParseColor(t.Color, palette.Black))
		render.StrokeRect(img, sw, 1, fg)

		dur := toggl.FormatDuration(t.Duration)
		dw := render.TextWidth(face, dur)
		render.DrawString(img, face, dur, image.Pt(box.Max.X-dw, y), fg)

		nameX := box.Min.X + swatch + gap
		name := render.Truncate(face, t.Name, box.Max.X-dw-gap-nameX)
		render.DrawString(img, face, name, image.Pt(nameX, y), fg)
		y += lh + gap
		rows++
	}
	return rows
}
