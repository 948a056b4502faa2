package panel

import (
	"bytes"
	"context"
	"image"
	"time"

	"github.com/disintegration/imaging"

	"epdpanel/internal/cache"
	"epdpanel/internal/capture"
	appLog "epdpanel/internal/log"
	"epdpanel/internal/palette"
	"epdpanel/internal/render"
)

// Web shows a screenshot of a page, captured at the panel's inner size.
type Web struct {
	Frame
	ctx          context.Context
	capturer     capture.Capturer
	url          string
	waitSelector string
	palette      string
	shot         *cache.Entry[image.Image]
}

func newWeb(w, h int, s Settings, debug bool, ctx context.Context, c capture.Capturer, interval time.Duration, now Clock) *Web {
	f := newFrame(w, h, s, debug, DefaultPadding)
	name := f.Palette
	if name == "" {
		name = palette.SixColor
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return &Web{
		Frame:        f,
		ctx:          ctx,
		capturer:     c,
		url:          s.String("url", ""),
		waitSelector: s.String("wait_selector", ""),
		palette:      name,
		shot:         cache.New[image.Image](interval, now),
	}
}

// SetSize drops the cached screenshot since it was taken at the old size.
func (p *Web) SetSize(w, h int) {
	if w != p.Width || h != p.Height {
		p.shot.Invalidate()
	}
	p.Frame.SetSize(w, h)
}

func (p *Web) Draw() *image.RGBA {
	return compose(p)
}

func (p *Web) fetch() image.Image {
	box := p.Inner()
	if p.capturer == nil || box.Empty() {
		return nil
	}
	data, err := p.capturer.Capture(p.ctx, capture.Options{
		URL:          p.url,
		Width:        box.Dx(),
		Height:       box.Dy(),
		WaitSelector: p.waitSelector,
	})
	if err != nil {
		appLog.Error("web capture failed", err, "url", p.url)
		return nil
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		appLog.Error("web capture decode failed", err, "url", p.url)
		return nil
	}
	return img
}

func (p *Web) drawContent(img *image.RGBA) *image.RGBA {
	box := p.Inner()
	shot := p.shot.Request(p.fetch)
	if shot == nil {
		placeholder(img, p.ContentBox(), "Page unavailable")
		return p.Frame.drawContent(img)
	}
	fitted := render.FitCrop(shot, box.Dx(), box.Dy())
	render.Paste(img, palette.Quantize(fitted, p.palette), box.Min)
	return p.Frame.drawContent(img)
}
