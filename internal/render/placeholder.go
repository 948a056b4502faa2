package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
)

const (
	iconSize       = 72
	placeholderGap = 10
)

// errorIcon is the Material "error" glyph.
var errorIcon = []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24" width="24" height="24">` +
	`<path fill="#000000" d="M12 2C6.48 2 2 6.48 2 12s4.48 10 10 10 10-4.48 10-10S17.52 2 12 2zm1 15h-2v-2h2v2zm0-4h-2V7h2v6z"/>` +
	`</svg>`)

// Icon rasterizes the error glyph into a transparent size×size image.
func Icon(size int) (*image.RGBA, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(errorIcon))
	if err != nil {
		return nil, fmt.Errorf("render: decode icon: %w", err)
	}
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	icon.SetTarget(0, 0, float64(size), float64(size))
	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(size, size, scanner), 1.0)
	return img, nil
}

// Placeholder draws the invalid-state marker centered in box: the error
// icon (shrunk when the box is small) above msg, truncated to the box width.
func Placeholder(dst *image.RGBA, box image.Rectangle, face font.Face, msg string, c color.Color) {
	msg = Truncate(face, msg, box.Dx())
	lh := LineHeight(face)

	size := iconSize
	if avail := box.Dy() - lh - placeholderGap; avail < size {
		size = avail
	}
	if size > box.Dx() {
		size = box.Dx()
	}

	total := lh
	var icon *image.RGBA
	if size > 0 {
		var err error
		if icon, err = Icon(size); err == nil {
			total += size + placeholderGap
		}
	}

	top := Position(box, 0, total, Center, Center).Y
	if icon != nil {
		x := Position(box, size, 0, Center, Top).X
		dc := gg.NewContextForRGBA(dst)
		dc.DrawImage(icon, x, top)
		top += size + placeholderGap
	}
	x := Position(box, TextWidth(face, msg), 0, Center, Top).X
	DrawString(dst, face, msg, image.Pt(x, top), c)
}
