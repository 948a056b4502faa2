// Package render holds the drawing helpers shared by every panel: font
// resolution, text wrapping and truncation, box positioning, picture
// fitting and the invalid-state placeholder.
package render

import (
	"fmt"
	"os"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	appLog "epdpanel/internal/log"
)

const DefaultFontSize = 24

type faceKey struct {
	path string
	size float64
}

var (
	facesMu sync.Mutex
	faces   = map[faceKey]font.Face{}
)

// Face resolves a font face. A readable TrueType file at path wins; otherwise
// the embedded Go Regular font is used at size, and if even that fails the
// fixed 7x13 bitmap face is returned. Faces are cached per path and size.
func Face(path string, size float64) font.Face {
	if size <= 0 {
		size = DefaultFontSize
	}
	key := faceKey{path: path, size: size}

	facesMu.Lock()
	defer facesMu.Unlock()
	if f, ok := faces[key]; ok {
		return f
	}

	f, err := loadFace(path, size)
	if err != nil {
		appLog.Error("font fallback to basic face", err, "path", path, "size", size)
		f = basicfont.Face7x13
	}
	faces[key] = f
	return f
}

func loadFace(path string, size float64) (font.Face, error) {
	if path != "" {
		f, err := fileFace(path, size)
		if err == nil {
			return f, nil
		}
		appLog.Warn("font file unusable, using embedded font", "path", path, "err", err.Error())
	}

	otf, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("render: parse embedded font: %w", err)
	}
	return opentype.NewFace(otf, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

func fileFace(path string, size float64) (font.Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ttf, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("render: parse %s: %w", path, err)
	}
	return truetype.NewFace(ttf, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}
