package render

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// OpenPicture decodes an image file, applying its EXIF orientation.
func OpenPicture(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("render: open picture %s: %w", path, err)
	}
	return img, nil
}

// FitCrop scales img to cover w×h and crops the overflow around the center.
func FitCrop(img image.Image, w, h int) *image.NRGBA {
	if w <= 0 || h <= 0 {
		return image.NewNRGBA(image.Rect(0, 0, 0, 0))
	}
	return imaging.Fill(img, w, h, imaging.Center, imaging.Lanczos)
}
