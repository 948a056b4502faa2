package panel

import (
	"image"
	"os"
	"time"

	appLog "epdpanel/internal/log"
	"epdpanel/internal/palette"
	"epdpanel/internal/render"
)

// Picture fills its margin box with an image file, cropped to cover it and
// dithered to the palette. The file is decoded again when its modification
// time changes.
type Picture struct {
	Frame
	path    string
	palette string

	img     image.Image
	modTime time.Time
	loadErr error
}

func NewPicture(w, h int, s Settings, debug bool) *Picture {
	f := newFrame(w, h, s, debug, DefaultPadding)
	name := f.Palette
	if name == "" {
		name = palette.SixColor
	}
	return &Picture{
		Frame:   f,
		path:    s.String("picture", ""),
		palette: name,
	}
}

// SetPicture switches the file and forces a reload.
func (p *Picture) SetPicture(path string) {
	p.path = path
	p.img = nil
	p.modTime = time.Time{}
}

func (p *Picture) Draw() *image.RGBA {
	return compose(p)
}

func (p *Picture) load() (image.Image, error) {
	if p.path == "" {
		return nil, errNoPicture
	}
	st, err := os.Stat(p.path)
	if err != nil {
		p.img = nil
		return nil, err
	}
	if p.img != nil && st.ModTime().Equal(p.modTime) {
		return p.img, nil
	}
	img, err := render.OpenPicture(p.path)
	if err != nil {
		p.img = nil
		return nil, err
	}
	appLog.Debug("picture loaded", "path", p.path, "bounds", img.Bounds().String())
	p.img, p.modTime = img, st.ModTime()
	return img, nil
}

func (p *Picture) drawContent(img *image.RGBA) *image.RGBA {
	box := p.Inner()
	if box.Empty() {
		return p.Frame.drawContent(img)
	}
	src, err := p.load()
	if err != nil {
		if p.loadErr == nil || p.loadErr.Error() != err.Error() {
			appLog.Error("picture unavailable", err, "path", p.path)
		}
		p.loadErr = err
		placeholder(img, p.ContentBox(), "Picture unavailable")
		return p.Frame.drawContent(img)
	}
	p.loadErr = nil

	fitted := render.FitCrop(src, box.Dx(), box.Dy())
	if p.palette == "" {
		render.Paste(img, fitted, box.Min)
	} else {
		render.Paste(img, palette.Quantize(fitted, p.palette), box.Min)
	}
	return p.Frame.drawContent(img)
}

// PictureTime draws the time over a picture. Both parts share the
// composite's size and settings; only the composite quantizes.
type PictureTime struct {
	Frame
	picture *Picture
	clock   *Time
}

func NewPictureTime(w, h int, s Settings, debug bool, now Clock) *PictureTime {
	f := newFrame(w, h, s, debug, DefaultPadding)
	if f.Palette == "" {
		f.Palette = palette.SixColor
	}
	inner := s.Without("palette")
	pic := NewPicture(w, h, inner, false)
	pic.palette = ""
	return &PictureTime{
		Frame:   f,
		picture: pic,
		clock:   NewTime(w, h, inner, false, now),
	}
}

func (p *PictureTime) SetSize(w, h int) {
	p.Frame.SetSize(w, h)
	p.picture.SetSize(w, h)
	p.clock.SetSize(w, h)
}

func (p *PictureTime) NeedsRefresh() bool {
	return true
}

func (p *PictureTime) Draw() *image.RGBA {
	return compose(p)
}

func (p *PictureTime) drawContent(img *image.RGBA) *image.RGBA {
	img = p.picture.drawContent(img)
	img = p.clock.drawContent(img)
	return p.Frame.drawContent(img)
}
