package panel

import (
	"errors"
	"image"

	"epdpanel/internal/palette"
	"epdpanel/internal/render"
)

var errNoPicture = errors.New("panel: no picture configured")

const placeholderFontSize = 24

// placeholder renders the invalid-state marker used whenever a panel's data
// source returned the failure sentinel.
func placeholder(img *image.RGBA, box image.Rectangle, msg string) {
	if box.Empty() {
		return
	}
	render.Placeholder(img, box, render.Face("", placeholderFontSize), msg, palette.Black)
}
