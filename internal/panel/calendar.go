package panel

import (
	"context"
	"image"
	"image/color"
	"strconv"
	"strings"
	"time"

	"golang.org/x/image/font"

	"epdpanel/internal/cache"
	"epdpanel/internal/ics"
	"epdpanel/internal/model"
	"epdpanel/internal/palette"
	"epdpanel/internal/render"
)

// EventSource supplies raw calendar events; nil means the fetch failed.
type EventSource interface {
	Events(ctx context.Context) []model.CalendarEvent
}

const (
	DefaultHolidayMarker = "Public holiday"
	calendarFontSize     = 10
)

// Calendar lists upcoming events grouped under month, week and day headers.
type Calendar struct {
	Frame
	style textStyle

	ctx    context.Context
	source EventSource
	events *cache.Entry[[]model.CalendarEvent]
	loc    *time.Location
	now    Clock

	holidayMarker string
	highlight     color.RGBA
	palette       string
}

type calendarOptions struct {
	ctx      context.Context
	source   EventSource
	loc      *time.Location
	now      Clock
	palette  string
	interval time.Duration
}

func newCalendar(w, h int, s Settings, debug bool, o calendarOptions) *Calendar {
	f := newFrame(w, h, s, debug, DefaultPadding)
	name := f.Palette
	if name == "" {
		name = o.palette
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.loc == nil {
		o.loc = time.Local
	}
	if o.ctx == nil {
		o.ctx = context.Background()
	}
	return &Calendar{
		Frame:         f,
		style:         newTextStyle(s, calendarFontSize),
		ctx:           o.ctx,
		source:        o.source,
		events:        cache.New[[]model.CalendarEvent](o.interval, o.now),
		loc:           o.loc,
		now:           o.now,
		holidayMarker: s.String("holiday_marker", DefaultHolidayMarker),
		highlight:     s.Color("highlight_color", palette.Red),
		palette:       name,
	}
}

func (p *Calendar) Draw() *image.RGBA {
	return compose(p)
}

func (p *Calendar) drawContent(img *image.RGBA) *image.RGBA {
	box := p.ContentBox()
	raw := p.events.Request(func() []model.CalendarEvent {
		return p.source.Events(p.ctx)
	})
	if raw == nil {
		placeholder(img, box, "Calendar unavailable")
		return p.Frame.drawContent(img)
	}
	now := p.now().In(p.loc)
	p.layout(img, box, ics.Prepare(raw, p.loc, now), now)
	return p.Frame.drawContent(img)
}

// layout draws events top to bottom and returns how many entries fit.
func (p *Calendar) layout(img *image.RGBA, box image.Rectangle, events []model.CalendarEvent, now time.Time) int {
	face := p.style.face()
	lh := render.LineHeight(face)
	indent := render.TextWidth(face, "000")
	gap := p.Padding
	fg := p.style.color
	highlight := palette.HasAccent(p.palette)

	var month, week, day string
	today := now.Format("2006-01-02")
	y := box.Min.Y
	drawn := 0

	for _, ev := range events {
		s := ev.Start
		m := s.Format("2006-01")
		isoYear, isoWeek := s.ISOWeek()
		wk := weekKey(isoYear, isoWeek)

		lines := 2
		if ev.FullDay() {
			lines = 1
		}
		// Headers are only drawn together with the entry below them.
		need := lines * lh
		if m != month {
			need += lh + gap
		}
		if wk != week {
			need += lh + gap
		}
		if y+need > box.Max.Y {
			return drawn
		}

		if m != month {
			render.DrawString(img, face, s.Format("2006 January"), image.Pt(box.Min.X+indent, y), fg)
			y += lh + gap
			month = m
		}
		if wk != week {
			render.DrawString(img, face, "Week "+strconv.Itoa(isoWeek), image.Pt(box.Min.X+indent, y), fg)
			y += lh + gap
			week = wk
		}

		if d := s.Format("2006-01-02"); d != day {
			p.drawDay(img, face, s, image.Pt(box.Min.X, y), indent, lh, d == today)
			day = d
		}

		c := fg
		if highlight && p.holidayMarker != "" && strings.Contains(ev.Description, p.holidayMarker) {
			c = p.highlight
		}
		x := box.Min.X + indent
		render.DrawString(img, face, render.Truncate(face, ev.Summary, box.Max.X-x), image.Pt(x, y), c)
		if !ev.FullDay() {
			span := s.Format("15:04") + "-" + ev.End.Format("15:04")
			render.DrawString(img, face, span, image.Pt(x, y+lh), c)
		}
		y += lines*lh + gap
		drawn++
	}
	return drawn
}

// drawDay draws the day-of-month marker; today's marker is inverted.
func (p *Calendar) drawDay(img *image.RGBA, face font.Face, day time.Time, at image.Point, width, lh int, today bool) {
	text := day.Format("02")
	fg := p.style.color
	if today {
		render.FillRect(img, image.Rect(at.X, at.Y, at.X+width-2, at.Y+lh), fg)
		fg = palette.White
	}
	render.DrawString(img, face, text, at, fg)
}

func weekKey(year, week int) string {
	return strconv.Itoa(year) + "-W" + strconv.Itoa(week)
}
