// Package battery reads the charge of a PiSugar-style battery controller.
package battery

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	appLog "epdpanel/internal/log"
)

// DefaultAddr is the PiSugar3 controller address.
const DefaultAddr = 0x57

// Registers of the controller.
const (
	regVoltageHigh = 0x22
	regVoltageLow  = 0x23
	regPercent     = 0x2A
)

// Status is a single battery reading.
type Status struct {
	Percent   int `json:"percent"`
	VoltageMv int `json:"voltage_mv"`
}

// Reader abstracts the battery source so panels work off-device.
type Reader interface {
	Read(ctx context.Context) (Status, error)
}

// StaticReader always returns the same status. It stands in for the
// controller on development machines.
type StaticReader struct {
	Status Status
}

func (s StaticReader) Read(context.Context) (Status, error) {
	return s.Status, nil
}

// I2CReader talks to the controller over I²C.
type I2CReader struct {
	busName string
	addr    uint16

	initOnce sync.Once
	initErr  error
}

// NewI2CReader keeps the configuration only; the bus is opened per read.
// An empty busName selects the first bus.
func NewI2CReader(busName string, addr uint16) *I2CReader {
	if addr == 0 {
		addr = DefaultAddr
	}
	return &I2CReader{busName: busName, addr: addr}
}

func (r *I2CReader) Read(_ context.Context) (Status, error) {
	if runtime.GOOS != "linux" {
		return Status{}, errors.New("battery: i2c reader unavailable on this platform")
	}
	r.initOnce.Do(func() {
		_, r.initErr = host.Init()
	})
	if r.initErr != nil {
		return Status{}, fmt.Errorf("battery: host init: %w", r.initErr)
	}

	bus, err := i2creg.Open(r.busName)
	if err != nil {
		return Status{}, fmt.Errorf("battery: open bus: %w", err)
	}
	defer bus.Close()

	dev := &i2c.Dev{Bus: bus, Addr: r.addr}
	return readStatus(dev)
}

// readStatus reads the controller registers through any conn.Conn-like Tx.
func readStatus(dev interface {
	Tx(w, r []byte) error
}) (Status, error) {
	reg := func(addr byte) (byte, error) {
		buf := []byte{0}
		if err := dev.Tx([]byte{addr}, buf); err != nil {
			return 0, fmt.Errorf("battery: read 0x%02x: %w", addr, err)
		}
		return buf[0], nil
	}

	high, err := reg(regVoltageHigh)
	if err != nil {
		return Status{}, err
	}
	low, err := reg(regVoltageLow)
	if err != nil {
		return Status{}, err
	}
	pct, err := reg(regPercent)
	if err != nil {
		return Status{}, err
	}
	return Status{
		Percent:   clampPercent(int(pct)),
		VoltageMv: int(uint16(high)<<8 | uint16(low)),
	}, nil
}

func clampPercent(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

// DefaultReader probes the controller once and falls back to a static
// full-charge reader when it cannot be read.
func DefaultReader(ctx context.Context, busName string, addr uint16) Reader {
	r := NewI2CReader(busName, addr)
	if _, err := r.Read(ctx); err != nil {
		appLog.Warn("battery controller unavailable, using static reading", "err", err.Error())
		return StaticReader{Status: Status{Percent: 100}}
	}
	return r
}
