package epd

import (
	"fmt"
	"image"
)

// Geometry of the 7.3" six-color panel.
const (
	Width7in3e  = 800
	Height7in3e = 480

	whiteFill7in3e = 0x11
)

// bus is the command/data protocol shared by the single-controller SPI
// panels.
type bus interface {
	reset() error
	command(cmd byte, data ...byte) error
	data(buf []byte) error
	waitIdle() error
	Close() error
}

type step struct {
	cmd  byte
	data []byte
}

var init7in3e = []step{
	{0xAA, []byte{0x49, 0x55, 0x20, 0x08, 0x09, 0x18}},
	{0x01, []byte{0x3F}},
	{0x00, []byte{0x5F, 0x69}},
	{0x03, []byte{0x00, 0x54, 0x00, 0x44}},
	{0x05, []byte{0x40, 0x1F, 0x1F, 0x2C}},
	{0x06, []byte{0x6F, 0x1F, 0x17, 0x49}},
	{0x08, []byte{0x6F, 0x1F, 0x1F, 0x22}},
	{0x30, []byte{0x03}},
	{0x50, []byte{0x3F}},
	{0x60, []byte{0x02, 0x00}},
	{0x61, []byte{0x03, 0x20, 0x01, 0xE0}},
	{0x84, []byte{0x01}},
	{0xE3, []byte{0x2F}},
}

// refresh7in3e powers on, refreshes and powers off, waiting on busy after
// every step.
var refresh7in3e = []step{
	{0x04, nil},
	{0x12, []byte{0x00}},
	{0x02, []byte{0x00}},
}

// EPD7in3e drives the Waveshare 7.3" (E) six-color panel.
type EPD7in3e struct {
	bus bus
}

// Open7in3e opens the SPI port and GPIO lines of the HAT.
func Open7in3e(port string) (*EPD7in3e, error) {
	b, err := openSPI(port, busyLow)
	if err != nil {
		return nil, err
	}
	return &EPD7in3e{bus: b}, nil
}

func (d *EPD7in3e) Width() int  { return Width7in3e }
func (d *EPD7in3e) Height() int { return Height7in3e }

func (d *EPD7in3e) Init() error {
	if err := d.bus.reset(); err != nil {
		return fmt.Errorf("epd: reset: %w", err)
	}
	if err := d.bus.waitIdle(); err != nil {
		return err
	}
	if err := d.run(init7in3e, false); err != nil {
		return err
	}
	if err := d.bus.command(0x04); err != nil {
		return fmt.Errorf("epd: power on: %w", err)
	}
	return d.bus.waitIdle()
}

func (d *EPD7in3e) run(steps []step, wait bool) error {
	for _, s := range steps {
		if err := d.bus.command(s.cmd, s.data...); err != nil {
			return fmt.Errorf("epd: command 0x%02X: %w", s.cmd, err)
		}
		if wait {
			if err := d.bus.waitIdle(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *EPD7in3e) Buffer(img image.Image) ([]byte, error) {
	return Pack4bpp(img, Width7in3e, Height7in3e), nil
}

func (d *EPD7in3e) Display(buf []byte) error {
	if want := Width7in3e * Height7in3e / 2; len(buf) != want {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrBufferSize, len(buf), want)
	}
	if err := d.bus.command(0x10); err != nil {
		return fmt.Errorf("epd: start transmission: %w", err)
	}
	if err := d.bus.data(buf); err != nil {
		return fmt.Errorf("epd: send frame: %w", err)
	}
	return d.run(refresh7in3e, true)
}

// Clear shows an all-white frame.
func (d *EPD7in3e) Clear() error {
	buf := make([]byte, Width7in3e*Height7in3e/2)
	for i := range buf {
		buf[i] = whiteFill7in3e
	}
	return d.Display(buf)
}

// Sleep enters deep sleep; Init must run before the next Display.
func (d *EPD7in3e) Sleep() error {
	if err := d.bus.command(0x07, 0xA5); err != nil {
		return fmt.Errorf("epd: deep sleep: %w", err)
	}
	return nil
}

func (d *EPD7in3e) Close() error {
	return d.bus.Close()
}
