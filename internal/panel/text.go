package panel

import (
	"image"
	"image/color"
	"time"

	"golang.org/x/image/font"

	"epdpanel/internal/cache"
	"epdpanel/internal/palette"
	"epdpanel/internal/render"
)

// textStyle is the font configuration shared by panels that draw text.
type textStyle struct {
	fontPath string
	fontSize float64
	color    color.RGBA
	align    render.Align
	valign   render.Align
}

func newTextStyle(s Settings, defaultSize float64) textStyle {
	return textStyle{
		fontPath: s.String("font", ""),
		fontSize: s.Float("font_size", defaultSize),
		color:    s.Color("font_color", palette.Black),
		align:    render.ParseAlign(s.String("align", "center")),
		valign:   render.ParseAlign(s.String("valign", "center")),
	}
}

func (t textStyle) face() font.Face {
	return render.Face(t.fontPath, t.fontSize)
}

// Text draws a wrapped block of text.
type Text struct {
	Frame
	style textStyle
	text  string
}

func NewText(w, h int, s Settings, debug bool) *Text {
	return &Text{
		Frame: newFrame(w, h, s, debug, DefaultPadding),
		style: newTextStyle(s, render.DefaultFontSize),
		text:  s.String("text", ""),
	}
}

func (p *Text) SetText(s string) {
	p.text = s
}

func (p *Text) Draw() *image.RGBA {
	return compose(p)
}

func (p *Text) drawContent(img *image.RGBA) *image.RGBA {
	box := p.ContentBox()
	if p.text != "" && !box.Empty() {
		face := p.style.face()
		lines := render.Wrap(face, p.text, box.Dx())
		render.DrawLines(img, face, lines, box, p.style.align, p.style.valign, p.style.color)
	}
	return p.Frame.drawContent(img)
}

// DefaultTimeFormat renders the date over the time.
const DefaultTimeFormat = "2006-01-02\n15:04"

// Clock is the time source of time-dependent panels.
type Clock = cache.Clock

// Time shows the current date and time through a text panel.
type Time struct {
	*Text
	format string
	now    Clock
}

func NewTime(w, h int, s Settings, debug bool, now Clock) *Time {
	if now == nil {
		now = time.Now
	}
	return &Time{
		Text:   NewText(w, h, s, debug),
		format: s.String("format", DefaultTimeFormat),
		now:    now,
	}
}

func (p *Time) NeedsRefresh() bool {
	return true
}

func (p *Time) Draw() *image.RGBA {
	return compose(p)
}

func (p *Time) drawContent(img *image.RGBA) *image.RGBA {
	p.SetText(p.now().Format(p.format))
	return p.Text.drawContent(img)
}
