package epd

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
)

// BCM pin names of the Waveshare e-Paper HAT.
const (
	pinRST  = "GPIO17"
	pinDC   = "GPIO25"
	pinCS   = "GPIO8"
	pinBUSY = "GPIO24"
)

const (
	spiFreq     = 4 * physic.MegaHertz
	maxTransfer = 4096
	busyPoll    = 10 * time.Millisecond
	busyTimeout = 60 * time.Second
)

// busyLow is the busy line level of controllers that pull it low while
// working.
const busyLow = gpio.Low

var errBusyTimeout = errors.New("epd: busy timeout")

// spiBus talks to a panel controller over SPI with reset, data/command,
// chip select and busy lines on GPIO.
type spiBus struct {
	port spi.PortCloser
	conn spi.Conn

	rst, dc gpio.PinOut
	// cs is nil when the SPI driver owns chip select.
	cs   gpio.PinOut
	busy gpio.PinIn

	busyLevel gpio.Level
}

func openSPI(portName string, busyLevel gpio.Level) (*spiBus, error) {
	if err := hostInit(); err != nil {
		return nil, err
	}
	port, err := spireg.Open(portName)
	if err != nil {
		return nil, fmt.Errorf("epd: open spi %q: %w", portName, err)
	}
	conn, err := port.Connect(spiFreq, spi.Mode0, 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("epd: connect spi: %w", err)
	}

	b := &spiBus{port: port, conn: conn, busyLevel: busyLevel}
	if b.rst, err = outPin(pinRST, gpio.High); err == nil {
		b.dc, err = outPin(pinDC, gpio.Low)
	}
	if err == nil {
		b.busy, err = inPin(pinBUSY)
	}
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	// Chip select is optional: spidev normally drives CE0 itself.
	b.cs, _ = outPin(pinCS, gpio.High)
	return b, nil
}

func outPin(name string, level gpio.Level) (gpio.PinOut, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("epd: gpio %s not found", name)
	}
	if err := p.Out(level); err != nil {
		return nil, fmt.Errorf("epd: gpio %s out: %w", name, err)
	}
	return p, nil
}

func inPin(name string) (gpio.PinIn, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("epd: gpio %s not found", name)
	}
	if err := p.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("epd: gpio %s in: %w", name, err)
	}
	return p, nil
}

func (b *spiBus) reset() error {
	for _, s := range []struct {
		level gpio.Level
		hold  time.Duration
	}{
		{gpio.High, 20 * time.Millisecond},
		{gpio.Low, 2 * time.Millisecond},
		{gpio.High, 20 * time.Millisecond},
	} {
		if err := b.rst.Out(s.level); err != nil {
			return err
		}
		time.Sleep(s.hold)
	}
	return nil
}

func (b *spiBus) selectChip(on bool) {
	if b.cs == nil {
		return
	}
	if on {
		_ = b.cs.Out(gpio.Low)
	} else {
		_ = b.cs.Out(gpio.High)
	}
}

func (b *spiBus) command(cmd byte, data ...byte) error {
	if err := b.dc.Out(gpio.Low); err != nil {
		return err
	}
	b.selectChip(true)
	err := b.conn.Tx([]byte{cmd}, nil)
	b.selectChip(false)
	if err != nil || len(data) == 0 {
		return err
	}
	return b.data(data)
}

// data streams buf in chunks the kernel driver accepts.
func (b *spiBus) data(buf []byte) error {
	if err := b.dc.Out(gpio.High); err != nil {
		return err
	}
	b.selectChip(true)
	defer b.selectChip(false)
	for len(buf) > 0 {
		n := min(len(buf), maxTransfer)
		if err := b.conn.Tx(buf[:n], nil); err != nil {
			return err
		}
		buf = buf[n:]
	}
	return nil
}

func (b *spiBus) waitIdle() error {
	deadline := time.Now().Add(busyTimeout)
	for b.busy.Read() == b.busyLevel {
		if time.Now().After(deadline) {
			return fmt.Errorf("%w after %s", errBusyTimeout, busyTimeout)
		}
		time.Sleep(busyPoll)
	}
	return nil
}

func (b *spiBus) Close() error {
	return b.port.Close()
}
