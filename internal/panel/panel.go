// Package panel implements the panel tree: content panels that render one
// kind of information and container panels that split their canvas between
// children.
//
// Every panel draws through the same pipeline: content, then border, then
// the debug overlay when debugging is enabled. Variants embed Frame and
// override the stages they need, calling the Frame stage to keep the shared
// behavior.
package panel

import (
	"image"
	"image/color"

	"epdpanel/internal/palette"
	"epdpanel/internal/render"
)

// Panel is the capability every node of the tree provides.
type Panel interface {
	// Draw renders the panel into a new image of exactly Size().
	Draw() *image.RGBA
	SetSize(w, h int)
	Size() (w, h int)
	// NeedsRefresh reports whether the panel shows data that goes stale
	// while it is on screen.
	NeedsRefresh() bool
}

const (
	DefaultMargin      = 10
	DefaultPadding     = 10
	DefaultBorderWidth = 2
)

var debugColor = palette.Blue

// Frame holds the geometry and decoration shared by all panels.
type Frame struct {
	Width, Height int

	Margin      int
	Padding     int
	BorderColor color.RGBA
	BorderWidth int

	// Palette, when set, quantizes the output of the content stage.
	Palette string
	Debug   bool

	Settings Settings
}

func newFrame(w, h int, s Settings, debug bool, defaultPadding int) Frame {
	if s == nil {
		s = Settings{}
	}
	f := Frame{
		Width:       w,
		Height:      h,
		Margin:      s.Int("margin", DefaultMargin),
		Padding:     s.Int("padding", defaultPadding),
		BorderColor: s.Color("border_color", palette.Black),
		BorderWidth: s.Int("border_width", DefaultBorderWidth),
		Debug:       debug,
		Settings:    s,
	}
	if name := s.String("palette", ""); name != "" {
		f.Palette, _ = palette.Canonical(name)
	}
	return f
}

func (f *Frame) SetSize(w, h int) {
	f.Width, f.Height = w, h
}

func (f *Frame) Size() (int, int) {
	return f.Width, f.Height
}

func (f *Frame) NeedsRefresh() bool {
	return false
}

// Bounds is the full canvas.
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.Width, f.Height)
}

// Inner is the canvas minus the margin; borders are drawn on its edge.
func (f *Frame) Inner() image.Rectangle {
	return render.Inset(f.Bounds(), f.Margin)
}

// ContentBox is the canvas minus margin and padding.
func (f *Frame) ContentBox() image.Rectangle {
	return render.Inset(f.Bounds(), f.Margin+f.Padding)
}

func (f *Frame) frame() *Frame {
	return f
}

// drawContent quantizes the finished content when a palette is declared.
func (f *Frame) drawContent(img *image.RGBA) *image.RGBA {
	if f.Palette == "" {
		return img
	}
	return palette.QuantizeRGBA(img, f.Palette)
}

func (f *Frame) drawBorder(img *image.RGBA) *image.RGBA {
	render.StrokeRect(img, f.Inner(), float64(f.BorderWidth), f.BorderColor)
	return img
}

func (f *Frame) drawDebug(img *image.RGBA) *image.RGBA {
	render.StrokeRect(img, f.Inner(), 1, palette.Red)
	face := render.Face("", 12)
	render.DrawString(img, face, render.SizeLabel(f.Width, f.Height), f.Inner().Min.Add(image.Pt(2, 2)), palette.Red)
	return img
}

// stages is implemented by every panel through its embedded Frame and its
// own overrides.
type stages interface {
	frame() *Frame
	drawContent(*image.RGBA) *image.RGBA
	drawBorder(*image.RGBA) *image.RGBA
	drawDebug(*image.RGBA) *image.RGBA
}

func compose(s stages) *image.RGBA {
	f := s.frame()
	img := render.NewCanvas(f.Width, f.Height)
	img = s.drawContent(img)
	img = s.drawBorder(img)
	if f.Debug {
		img = s.drawDebug(img)
	}
	return img
}
