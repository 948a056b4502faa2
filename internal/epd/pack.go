package epd

import (
	"image"

	"github.com/disintegration/imaging"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	appLog "epdpanel/internal/log"
	"epdpanel/internal/palette"
)

// fit returns img with exactly w×h pixels. A frame rendered in the other
// orientation is rotated; anything else is scaled to cover and cropped
// around the center.
func fit(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	switch {
	case b.Dx() == w && b.Dy() == h:
		return img
	case b.Dx() == h && b.Dy() == w:
		return imaging.Rotate90(img)
	}
	appLog.Warn("frame size differs from panel, cropping", "frame", b.Size().String(), "panel", image.Pt(w, h).String())
	return imaging.Fill(img, w, h, imaging.Center, imaging.Lanczos)
}

// sixColorCodes maps palette.SixColor table indices (black, white, red,
// green, blue, yellow) to the 7.3" controller's color codes.
var sixColorCodes = [...]byte{0x0, 0x1, 0x3, 0x6, 0x5, 0x2}

// Pack4bpp dithers img onto the six-color palette and packs two pixels per
// byte, row-major, the left pixel in the high nibble.
func Pack4bpp(img image.Image, w, h int) []byte {
	q := palette.Quantize(fit(img, w, h), palette.SixColor)
	b := q.Bounds()
	buf := make([]byte, (w*h+1)/2)
	for y := 0; y < h; y++ {
		row := q.PixOffset(b.Min.X, b.Min.Y+y)
		for x := 0; x < w; x++ {
			code := byte(0)
			if idx := int(q.Pix[row+x]); idx < len(sixColorCodes) {
				code = sixColorCodes[idx]
			}
			i := y*w + x
			if i&1 == 0 {
				buf[i>>1] |= code << 4
			} else {
				buf[i>>1] |= code
			}
		}
	}
	return buf
}

// Mono thresholds img on perceived brightness into the 1-bit layout of the
// monochrome HATs. Lit bits are white; transparent pixels stay white.
func Mono(img image.Image, w, h int) *image1bit.VerticalLSB {
	src := fit(img, w, h)
	b := src.Bounds()
	dst := image1bit.NewVerticalLSB(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl, a := src.At(b.Min.X+x, b.Min.Y+y).RGBA()
			dst.SetBit(x, y, image1bit.Bit(!isInk(r>>8, g>>8, bl>>8, a>>8)))
		}
	}
	return dst
}

// isInk classifies an 8-bit pixel: dark enough and mostly opaque.
func isInk(r, g, b, a uint32) bool {
	if a < 128 {
		return false
	}
	y := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
	return y < 128
}
