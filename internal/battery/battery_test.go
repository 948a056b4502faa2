package battery

import (
	"errors"
	"testing"
)

type fakeBus struct {
	regs map[byte]byte
	fail byte
}

func (f fakeBus) Tx(w, r []byte) error {
	if w[0] == f.fail {
		return errors.New("nack")
	}
	r[0] = f.regs[w[0]]
	return nil
}

func TestReadStatus(t *testing.T) {
	bus := fakeBus{regs: map[byte]byte{regVoltageHigh: 0x0F, regVoltageLow: 0xA0, regPercent: 87}}
	got, err := readStatus(bus)
	if err != nil {
		t.Fatalf("readStatus: %v", err)
	}
	if got.VoltageMv != 4000 || got.Percent != 87 {
		t.Errorf("status = %+v, want 4000mV 87%%", got)
	}
}

func TestReadStatusClampsPercent(t *testing.T) {
	bus := fakeBus{regs: map[byte]byte{regPercent: 180}}
	got, err := readStatus(bus)
	if err != nil {
		t.Fatalf("readStatus: %v", err)
	}
	if got.Percent != 100 {
		t.Errorf("percent = %d, want 100", got.Percent)
	}
}

func TestReadStatusError(t *testing.T) {
	bus := fakeBus{regs: map[byte]byte{}, fail: regVoltageLow}
	if _, err := readStatus(bus); err == nil {
		t.Fatal("expected an error")
	}
}
