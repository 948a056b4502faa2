// Package epd drives the supported e-paper panels and the PNG file that
// stands in for a panel on development machines.
package epd

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/spf13/afero"
	"periph.io/x/host/v3"

	"epdpanel/internal/config"
	appLog "epdpanel/internal/log"
)

// ErrBufferSize is returned by Display for a buffer not produced by Buffer.
var ErrBufferSize = errors.New("epd: buffer size mismatch")

// Driver is the capability set of a display. A frame is shown with
// Init, Display(Buffer(img)) and Sleep.
type Driver interface {
	Init() error
	Clear() error
	// Buffer converts a rendered frame into the panel's native format.
	Buffer(img image.Image) ([]byte, error)
	Display(buf []byte) error
	Sleep() error
	Close() error
	Width() int
	Height() int
}

// Options selects and configures a driver.
type Options struct {
	// Name is one of the config.Driver* names.
	Name string
	// Width and Height size the file driver.
	Width, Height int
	Output        string
	Fs            afero.Fs
	// SPIPort is the periph port name; empty selects the first port.
	SPIPort string
}

// Open returns the driver named by opts. A panel that cannot be opened or
// initialized is replaced by the file driver and the failure is logged.
func Open(opts Options) Driver {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	file := NewFile(opts.Fs, opts.Output, opts.Width, opts.Height)

	var (
		d   Driver
		err error
	)
	switch opts.Name {
	case "", config.DriverFile:
		return file
	case config.Driver7in3e:
		d, err = Open7in3e(opts.SPIPort)
	case config.Driver2in13v4:
		d, err = Open2in13v4(opts.SPIPort)
	default:
		err = fmt.Errorf("epd: unknown driver %q", opts.Name)
	}
	if err == nil {
		err = probe(d)
	}
	if err != nil {
		appLog.Error("display unavailable, writing frames to file", err, "driver", opts.Name, "output", opts.Output)
		return file
	}
	appLog.Info("display ready", "driver", opts.Name, "width", d.Width(), "height", d.Height())
	return d
}

// probe initializes a freshly opened panel once and puts it back to sleep.
func probe(d Driver) error {
	if err := d.Init(); err != nil {
		_ = d.Close()
		return fmt.Errorf("epd: init: %w", err)
	}
	return d.Sleep()
}

var hostInit = sync.OnceValue(func() error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("epd: periph host init: %w", err)
	}
	return nil
})
