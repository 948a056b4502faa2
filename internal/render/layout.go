package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/fogleman/gg"
)

// Align places a block along one axis of a box.
type Align int

const (
	Center Align = iota
	Start
	End
)

// Aliases used for the vertical axis.
const (
	Top    = Start
	Bottom = End
)

// ParseAlign accepts left/top, center/middle, right/bottom. Anything else
// is Center.
func ParseAlign(s string) Align {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "top", "start":
		return Start
	case "right", "bottom", "end":
		return End
	default:
		return Center
	}
}

func (a Align) String() string {
	switch a {
	case Start:
		return "start"
	case End:
		return "end"
	default:
		return "center"
	}
}

// Position returns the top-left corner of a w×h block inside box.
func Position(box image.Rectangle, w, h int, align, valign Align) image.Point {
	return image.Pt(place(box.Min.X, box.Dx(), w, align), place(box.Min.Y, box.Dy(), h, valign))
}

func place(min, avail, size int, a Align) int {
	switch a {
	case Start:
		return min
	case End:
		return min + avail - size
	default:
		return min + (avail-size)/2
	}
}

// NewCanvas returns a white w×h image.
func NewCanvas(w, h int) *image.RGBA {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	dc := gg.NewContextForRGBA(img)
	dc.SetColor(color.White)
	dc.Clear()
	return img
}

// Inset shrinks r by n on every side, never past an empty rectangle.
func Inset(r image.Rectangle, n int) image.Rectangle {
	if 2*n >= r.Dx() || 2*n >= r.Dy() {
		c := image.Pt(r.Min.X+r.Dx()/2, r.Min.Y+r.Dy()/2)
		return image.Rectangle{Min: c, Max: c}
	}
	return image.Rect(r.Min.X+n, r.Min.Y+n, r.Max.X-n, r.Max.Y-n)
}

// StrokeRect outlines r with a line of the given width drawn inside it.
func StrokeRect(dst *image.RGBA, r image.Rectangle, width float64, c color.Color) {
	if width <= 0 || r.Empty() {
		return
	}
	dc := gg.NewContextForRGBA(dst)
	dc.SetColor(c)
	dc.SetLineWidth(width)
	half := width / 2
	dc.DrawRectangle(float64(r.Min.X)+half, float64(r.Min.Y)+half, float64(r.Dx())-width, float64(r.Dy())-width)
	dc.Stroke()
}

// FillRect paints r with c.
func FillRect(dst *image.RGBA, r image.Rectangle, c color.Color) {
	if r.Empty() {
		return
	}
	dc := gg.NewContextForRGBA(dst)
	dc.SetColor(c)
	dc.DrawRectangle(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()))
	dc.Fill()
}

// Line draws a straight line between two points.
func Line(dst *image.RGBA, from, to image.Point, width float64, c color.Color) {
	if width <= 0 {
		return
	}
	dc := gg.NewContextForRGBA(dst)
	dc.SetColor(c)
	dc.SetLineWidth(width)
	dc.DrawLine(float64(from.X), float64(from.Y), float64(to.X), float64(to.Y))
	dc.Stroke()
}

// Paste copies src onto dst with its top-left corner at p. Pixels are
// copied, not blended, so pasted regions stay exact.
func Paste(dst *image.RGBA, src image.Image, p image.Point) {
	b := src.Bounds()
	draw.Draw(dst, image.Rectangle{Min: p, Max: p.Add(b.Size())}, src, b.Min, draw.Src)
}

// SizeLabel is the debug caption for a panel of the given size.
func SizeLabel(w, h int) string {
	return fmt.Sprintf("%dx%d", w, h)
}
