package panel

import (
	"context"
	"image"
	"time"

	"epdpanel/internal/cache"
	appLog "epdpanel/internal/log"
	"epdpanel/internal/model"
	"epdpanel/internal/palette"
	"epdpanel/internal/render"
)

// ContributionSource returns contribution weeks, oldest first.
type ContributionSource interface {
	Contributions(ctx context.Context, username string, year int) ([]model.ContributionWeek, error)
}

const githubPadding = 5

// Github draws the contribution calendar with the newest week on the right.
type Github struct {
	Frame
	ctx      context.Context
	source   ContributionSource
	username string
	year     int
	data     *cache.Entry[[]model.ContributionWeek]
}

func newGithub(w, h int, s Settings, debug bool, ctx context.Context, source ContributionSource, interval time.Duration, now Clock) *Github {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Github{
		Frame:    newFrame(w, h, s, debug, githubPadding),
		ctx:      ctx,
		source:   source,
		username: s.String("username", ""),
		year:     s.Int("year", 0),
		data:     cache.New[[]model.ContributionWeek](interval, now),
	}
}

func (p *Github) Draw() *image.RGBA {
	return compose(p)
}

func (p *Github) fetch() []model.ContributionWeek {
	weeks, err := p.source.Contributions(p.ctx, p.username, p.year)
	if err != nil {
		appLog.Error("github fetch failed", err, "user", p.username)
		return nil
	}
	if weeks == nil {
		weeks = []model.ContributionWeek{}
	}
	return weeks
}

func (p *Github) drawContent(img *image.RGBA) *image.RGBA {
	box := p.ContentBox()
	weeks := p.data.Request(p.fetch)
	if weeks == nil {
		placeholder(img, box, "GitHub unavailable")
		return p.Frame.drawContent(img)
	}
	p.graph(img, box, weeks)
	return p.Frame.drawContent(img)
}

// graph draws one column per week from the right edge leftwards and stops
// before a column would cross the left edge. It returns the columns drawn.
func (p *Github) graph(img *image.RGBA, box image.Rectangle, weeks []model.ContributionWeek) int {
	gap := p.Padding
	size := (box.Dy() - 6*gap) / 7
	if size <= 0 {
		return 0
	}
	x := box.Max.X - size
	cols := 0
	for i := len(weeks) - 1; i >= 0; i-- {
		if x < box.Min.X {
			break
		}
		y := box.Min.Y
		for _, d := range weeks[i].Days {
			cell := image.Rect(x, y, x+size, y+size)
			render.FillRect(img, cell, palette.ParseColor(d.Color, palette.White))
			render.StrokeRect(img, cell, 1, palette.Black)
			y += size + gap
		}
		x -= size + gap
		cols++
	}
	return cols
}
