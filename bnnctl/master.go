package bnnctl

import (
	"context"

	"github.com/pkg/errors"
)

const (
	DEFAULT_SETUP_CYCLES = 2
	DEFAULT_HOLD_CYCLES  = 10
)

var ErrStatusTimeout = errors.New("status register did not reach expected value")

// Master bit-bangs the host side of the serial link against a Device,
// stepping the device clock as it goes. Every clock and data level is held
// for Setup local cycles so the synchronizer never misses an edge.
type Master struct {
	dev   *Device
	mode  Mode
	pins  Pins
	Setup int
	Hold  int
}

func NewMaster(dev *Device) *Master {
	mode := dev.Config().Mode
	return &Master{
		dev:   dev,
		mode:  mode,
		pins:  IdlePins(mode),
		Setup: DEFAULT_SETUP_CYCLES,
		Hold:  DEFAULT_HOLD_CYCLES,
	}
}

// Idle steps the device n cycles without touching the pins.
func (m *Master) Idle(n int) {
	for i := 0; i < n; i++ {
		m.dev.Step(m.pins)
	}
}

// Select asserts the framing line with the clock at its idle level.
func (m *Master) Select() {
	m.pins.CSn = false
	m.pins.SCLK = m.mode.CPOL()
	m.Idle(m.Setup)
}

// Deselect ends the frame and waits out the hold time.
func (m *Master) Deselect() {
	m.pins.CSn = true
	m.pins.SCLK = m.mode.CPOL()
	m.Idle(m.Hold)
}

func (m *Master) Selected() bool {
	return !m.pins.CSn
}

// Transfer clocks one byte out on COPI and returns the byte read from CIPO
// at the same sampling edges, MSB first.
func (m *Master) Transfer(out byte) (in byte) {
	cpol := m.mode.CPOL()
	for i := 7; i >= 0; i-- {
		bit := out&(1<<i) != 0
		var got bool
		if !m.mode.CPHA() {
			m.pins.COPI = bit
			m.Idle(m.Setup)
			m.pins.SCLK = !cpol
			got = m.dev.CIPO()
			m.Idle(m.Setup)
			m.pins.SCLK = cpol
			m.Idle(m.Setup)
		} else {
			m.pins.SCLK = !cpol
			m.Idle(m.Setup)
			m.pins.COPI = bit
			m.Idle(m.Setup)
			m.pins.SCLK = cpol
			got = m.dev.CIPO()
			m.Idle(m.Setup)
		}
		in <<= 1
		if got {
			in |= 1
		}
	}
	return in
}

// Write transfers each byte and discards what comes back.
func (m *Master) Write(bs ...byte) {
	for _, b := range bs {
		m.Transfer(b)
	}
}

// SendFrame selects, writes bs and deselects.
func (m *Master) SendFrame(bs ...byte) {
	m.Select()
	m.Write(bs...)
	m.Deselect()
}

// WaitStatus idles until the status register shows one of want, the cycle
// budget runs out, or ctx is done.
func (m *Master) WaitStatus(ctx context.Context, maxCycles uint64, want ...StatusCode) (StatusCode, error) {
	for n := uint64(0); ; n++ {
		st := m.dev.Status()
		for _, w := range want {
			if st == w {
				return st, nil
			}
		}
		if n >= maxCycles {
			return st, errors.Wrapf(ErrStatusTimeout, "want %v, have %v after %d cycles", want, st, n)
		}
		if n%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return st, errors.Wrap(err, "waiting for status")
			}
		}
		m.Idle(1)
	}
}
