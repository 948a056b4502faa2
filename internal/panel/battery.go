package panel

import (
	"context"
	"fmt"
	"image"
	"time"

	"epdpanel/internal/battery"
	"epdpanel/internal/cache"
	appLog "epdpanel/internal/log"
	"epdpanel/internal/palette"
	"epdpanel/internal/render"
)

// Battery shows the charge level as text over a level bar.
type Battery struct {
	Frame
	style  textStyle
	ctx    context.Context
	reader battery.Reader
	status *cache.Entry[*battery.Status]
}

func newBattery(w, h int, s Settings, debug bool, ctx context.Context, r battery.Reader, interval time.Duration, now Clock) *Battery {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Battery{
		Frame:  newFrame(w, h, s, debug, DefaultPadding),
		style:  newTextStyle(s, render.DefaultFontSize),
		ctx:    ctx,
		reader: r,
		status: cache.New[*battery.Status](interval, now),
	}
}

func (p *Battery) Draw() *image.RGBA {
	return compose(p)
}

func (p *Battery) fetch() *battery.Status {
	if p.reader == nil {
		return nil
	}
	st, err := p.reader.Read(p.ctx)
	if err != nil {
		appLog.Error("battery read failed", err)
		return nil
	}
	return &st
}

func (p *Battery) drawContent(img *image.RGBA) *image.RGBA {
	box := p.ContentBox()
	st := p.status.Request(p.fetch)
	if st == nil {
		placeholder(img, box, "Battery unavailable")
		return p.Frame.drawContent(img)
	}
	p.layout(img, box, *st)
	return p.Frame.drawContent(img)
}

// layout puts the label in the upper half and the bar in the lower half.
func (p *Battery) layout(img *image.RGBA, box image.Rectangle, st battery.Status) {
	if box.Empty() {
		return
	}
	face := p.style.face()
	label := fmt.Sprintf("%d%%", st.Percent)
	if st.VoltageMv > 0 {
		label += fmt.Sprintf("\n%.2f V", float64(st.VoltageMv)/1000)
	}
	mid := box.Min.Y + box.Dy()/2
	top := image.Rect(box.Min.X, box.Min.Y, box.Max.X, mid)
	render.DrawLines(img, face, render.Wrap(face, label, top.Dx()), top, p.style.align, render.Bottom, p.style.color)

	barH := render.LineHeight(face)
	bar := image.Rect(box.Min.X, mid+p.Padding, box.Max.X, mid+p.Padding+barH)
	if bar.Max.Y > box.Max.Y {
		bar.Max.Y = box.Max.Y
	}
	if bar.Empty() {
		return
	}
	fill := bar
	fill.Max.X = bar.Min.X + bar.Dx()*st.Percent/100
	c := p.style.color
	if st.Percent <= 20 {
		c = palette.Red
	}
	render.FillRect(img, fill, c)
	render.StrokeRect(img, bar, 2, p.style.color)
}
