package render

import (
	"image"
	"image/color"
	"strings"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
)

// Ellipsis is appended to truncated text.
const Ellipsis = "..."

// TextWidth is the advance width of s in whole pixels.
func TextWidth(face font.Face, s string) int {
	return font.MeasureString(face, s).Ceil()
}

// LineHeight is the distance between consecutive baselines.
func LineHeight(face font.Face) int {
	return face.Metrics().Height.Ceil()
}

// Wrap breaks text into lines no wider than maxWidth where possible. Words
// are added greedily; a word that alone exceeds maxWidth gets a line of its
// own and is never split. Each "\n" starts a new paragraph.
func Wrap(face font.Face, text string, maxWidth int) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			candidate := line + " " + w
			if TextWidth(face, candidate) > maxWidth {
				lines = append(lines, line)
				line = w
				continue
			}
			line = candidate
		}
		lines = append(lines, line)
	}
	return lines
}

// Truncate shortens s one rune at a time, appending Ellipsis, until it fits
// maxWidth. It returns "" when no prefix fits.
func Truncate(face font.Face, s string, maxWidth int) string {
	if TextWidth(face, s) <= maxWidth {
		return s
	}
	runes := []rune(s)
	for n := len(runes) - 1; n >= 0; n-- {
		candidate := string(runes[:n]) + Ellipsis
		if TextWidth(face, candidate) <= maxWidth {
			return candidate
		}
	}
	return ""
}

// DrawLines draws lines as one block positioned inside box and returns the
// block's bounds.
func DrawLines(dst *image.RGBA, face font.Face, lines []string, box image.Rectangle, align, valign Align, c color.Color) image.Rectangle {
	lh := LineHeight(face)
	w := 0
	for _, l := range lines {
		if lw := TextWidth(face, l); lw > w {
			w = lw
		}
	}
	h := lh * len(lines)
	origin := Position(box, w, h, align, valign)
	ascent := face.Metrics().Ascent.Ceil()

	dc := gg.NewContextForRGBA(dst)
	dc.SetFontFace(face)
	dc.SetColor(c)
	for i, l := range lines {
		lineBox := image.Rect(origin.X, 0, origin.X+w, 0)
		x := Position(lineBox, TextWidth(face, l), 0, align, Top).X
		dc.DrawString(l, float64(x), float64(origin.Y+i*lh+ascent))
	}
	return image.Rect(origin.X, origin.Y, origin.X+w, origin.Y+h)
}

// DrawString draws a single line with its top-left corner at p.
func DrawString(dst *image.RGBA, face font.Face, s string, p image.Point, c color.Color) {
	dc := gg.NewContextForRGBA(dst)
	dc.SetFontFace(face)
	dc.SetColor(c)
	dc.DrawString(s, float64(p.X), float64(p.Y+face.Metrics().Ascent.Ceil()))
}
