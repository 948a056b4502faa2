// Package palette maps rendered RGB images onto the small fixed palettes
// supported by e-paper panels.
package palette

import (
	"image"
	"image/color"
	"image/draw"
	"strings"
)

const (
	SixColor  = "six-color"
	Grayscale = "grayscale"

	// Size is the length of a padded palette table.
	Size = 256
)

var (
	Black  = color.RGBA{0, 0, 0, 255}
	White  = color.RGBA{255, 255, 255, 255}
	Red    = color.RGBA{255, 0, 0, 255}
	Green  = color.RGBA{0, 255, 0, 255}
	Blue   = color.RGBA{0, 0, 255, 255}
	Yellow = color.RGBA{255, 255, 0, 255}
)

// tables holds the unpadded palettes in display index order.
var tables = map[string][]color.RGBA{
	SixColor: {Black, White, Red, Green, Blue, Yellow},
	Grayscale: {
		{0, 0, 0, 255},
		{85, 85, 85, 255},
		{127, 127, 127, 255},
		{191, 191, 191, 255},
		{255, 255, 255, 255},
	},
}

// aliases accepts the names used by older settings files.
var aliases = map[string]string{
	"6_colors": SixColor,
	"gray":     Grayscale,
}

// Canonical resolves name (or one of its aliases) to a table name. The
// boolean is false when name is unknown.
func Canonical(name string) (string, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if a, ok := aliases[n]; ok {
		n = a
	}
	_, ok := tables[n]
	return n, ok
}

// Valid reports whether name selects a known palette.
func Valid(name string) bool {
	_, ok := Canonical(name)
	return ok
}

// Colors returns the unpadded table for name. Unknown names fall back to the
// six-color table.
func Colors(name string) []color.RGBA {
	n, ok := Canonical(name)
	if !ok {
		n = SixColor
	}
	out := make([]color.RGBA, len(tables[n]))
	copy(out, tables[n])
	return out
}

// Padded returns the table for name padded with black to Size entries.
func Padded(name string) color.Palette {
	colors := Colors(name)
	p := make(color.Palette, Size)
	for i := range p {
		if i < len(colors) {
			p[i] = colors[i]
		} else {
			p[i] = Black
		}
	}
	return p
}

// HasAccent reports whether the palette can show anything besides neutral
// grays, i.e. whether highlight colors survive quantization.
func HasAccent(name string) bool {
	for _, c := range Colors(name) {
		if c.R != c.G || c.G != c.B {
			return true
		}
	}
	return false
}

// Quantize maps src onto the named palette using Floyd-Steinberg error
// diffusion. The result is indexed into Padded(name).
func Quantize(src image.Image, name string) *image.Paletted {
	b := src.Bounds()
	dst := image.NewPaletted(b, Padded(name))
	draw.FloydSteinberg.Draw(dst, b, src, b.Min)
	return dst
}

// QuantizeRGBA quantizes src and expands the result back to RGBA so it can be
// composed into a larger canvas.
func QuantizeRGBA(src image.Image, name string) *image.RGBA {
	p := Quantize(src, name)
	out := image.NewRGBA(p.Bounds())
	draw.Draw(out, out.Bounds(), p, p.Bounds().Min, draw.Src)
	return out
}
