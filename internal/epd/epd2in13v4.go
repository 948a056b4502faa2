package epd

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/devices/v3/waveshare2in13v4"
)

// hat is the part of the periph 2.13" device the driver uses.
type hat interface {
	Init() error
	Clear(c color.Color) error
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
	Sleep() error
	Halt() error
	Bounds() image.Rectangle
}

// EPD2in13v4 drives the Waveshare 2.13" V4 monochrome HAT.
type EPD2in13v4 struct {
	dev  hat
	port io.Closer
}

// Open2in13v4 opens the HAT on the given SPI port with the default pinout.
func Open2in13v4(portName string) (*EPD2in13v4, error) {
	if err := hostInit(); err != nil {
		return nil, err
	}
	port, err := spireg.Open(portName)
	if err != nil {
		return nil, fmt.Errorf("epd: open spi %q: %w", portName, err)
	}
	opts := waveshare2in13v4.EPD2in13v4
	dev, err := waveshare2in13v4.NewHat(port, &opts)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("epd: 2in13v4: %w", err)
	}
	return &EPD2in13v4{dev: dev, port: port}, nil
}

func (d *EPD2in13v4) Width() int  { return d.dev.Bounds().Dx() }
func (d *EPD2in13v4) Height() int { return d.dev.Bounds().Dy() }

func (d *EPD2in13v4) Init() error {
	return d.dev.Init()
}

func (d *EPD2in13v4) Clear() error {
	return d.dev.Clear(color.White)
}

// Buffer returns the 1-bit vertical-LSB pixels of the thresholded frame.
func (d *EPD2in13v4) Buffer(img image.Image) ([]byte, error) {
	return Mono(img, d.Width(), d.Height()).Pix, nil
}

func (d *EPD2in13v4) Display(buf []byte) error {
	r := d.dev.Bounds()
	if want := r.Dx() * ((r.Dy() + 7) / 8); len(buf) != want {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrBufferSize, len(buf), want)
	}
	frame := &image1bit.VerticalLSB{Pix: buf, Stride: r.Dx(), Rect: r}
	if err := d.dev.Draw(r, frame, r.Min); err != nil {
		return fmt.Errorf("epd: draw: %w", err)
	}
	return nil
}

func (d *EPD2in13v4) Sleep() error {
	return d.dev.Sleep()
}

func (d *EPD2in13v4) Close() error {
	err := d.dev.Halt()
	if d.port != nil {
		if cerr := d.port.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
