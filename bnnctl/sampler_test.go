package bnnctl

import (
	"testing"

	"github.com/pkg/errors"
)

var allModes = []Mode{Mode0, Mode1, Mode2, Mode3}

func stepPins(s *Sampler, a *ByteAssembler, p Pins, n int) (got []byte) {
	for i := 0; i < n; i++ {
		if b, ok := a.Step(s.Sample(p)); ok {
			got = append(got, b)
		}
	}
	return got
}

func TestModeSamplingEdge(t *testing.T) {
	expected := map[Mode]bool{Mode0: true, Mode1: false, Mode2: false, Mode3: true}
	for m, rising := range expected {
		if m.SamplesOnRising() != rising {
			t.Errorf("Mode %d: expected sampling on rising=%v", m, rising)
		}
	}
}

func TestParseMode(t *testing.T) {
	for v := 0; v < 4; v++ {
		m, err := ParseMode(v)
		if err != nil || int(m) != v {
			t.Errorf("Expected mode %d, got %d (%v)", v, m, err)
		}
	}
	if _, err := ParseMode(4); errors.Cause(err) != ErrInvalidMode {
		t.Errorf("Expected ErrInvalidMode, got %v", err)
	}
}

func TestSamplerSynchronizerLag(t *testing.T) {
	s := NewSampler(Mode0)
	p := IdlePins(Mode0)
	p.CSn = false

	ev := s.Sample(p)
	if ev.Selected || ev.Framing != FrameNone {
		t.Errorf("Select must not be visible in the cycle it was driven, got %+v", ev)
	}
	ev = s.Sample(p)
	if !ev.Selected || ev.Framing != FrameStart {
		t.Errorf("Expected frame start one cycle later, got %+v", ev)
	}
	ev = s.Sample(p)
	if ev.Framing != FrameNone {
		t.Errorf("Expected a single frame start event, got %+v", ev)
	}

	p.SCLK = true
	s.Sample(p)
	ev = s.Sample(p)
	if ev.Clock != EdgeRising || !ev.Sample {
		t.Errorf("Expected a rising sampling edge in mode 0, got %+v", ev)
	}
	p.SCLK = false
	s.Sample(p)
	ev = s.Sample(p)
	if ev.Clock != EdgeFalling || ev.Sample {
		t.Errorf("Expected a falling non-sampling edge in mode 0, got %+v", ev)
	}

	p.CSn = true
	s.Sample(p)
	ev = s.Sample(p)
	if ev.Selected || ev.Framing != FrameEnd {
		t.Errorf("Expected frame end, got %+v", ev)
	}
}

// Every byte value survives the trip through sampler and assembler in
// every mode, and the bit counter reads zero between bytes.
func TestByteRoundTripAllModes(t *testing.T) {
	for _, mode := range allModes {
		dev, m := newTestDevice(mode, 4, 50)
		for v := 0; v < 256; v++ {
			m.Select()
			m.Transfer(byte(v))
			if dev.Controller().LastByte() != byte(v) {
				t.Fatalf("Mode %d: expected byte 0x%02X, got 0x%02X", mode, v, dev.Controller().LastByte())
			}
			if n := dev.Controller().BitCount(); n != 0 {
				t.Errorf("Mode %d: expected bit count 0 after byte 0x%02X, got %d", mode, v, n)
			}
			m.Deselect()
			if n := dev.Controller().BitCount(); n != 0 {
				t.Errorf("Mode %d: expected bit count 0 after deselect, got %d", mode, n)
			}
		}
	}
}

func TestPartialByteDiscardedOnDeselect(t *testing.T) {
	s := NewSampler(Mode0)
	var a ByteAssembler
	p := IdlePins(Mode0)
	p.CSn = false
	stepPins(s, &a, p, 3)

	for i := 0; i < 3; i++ {
		p.COPI = true
		stepPins(s, &a, p, 2)
		p.SCLK = true
		stepPins(s, &a, p, 2)
		p.SCLK = false
		stepPins(s, &a, p, 2)
	}
	if a.BitCount() != 3 {
		t.Errorf("Expected 3 bits pending, got %d", a.BitCount())
	}

	p.CSn = true
	if got := stepPins(s, &a, p, 3); len(got) != 0 {
		t.Errorf("Expected no byte from a partial frame, got %v", got)
	}
	if a.BitCount() != 0 {
		t.Errorf("Expected bit count 0 after deselect, got %d", a.BitCount())
	}

	// the next frame starts from a clean shift register
	p.CSn = false
	stepPins(s, &a, p, 3)
	var got []byte
	for i := 7; i >= 0; i-- {
		p.COPI = 0x5A&(1<<i) != 0
		got = append(got, stepPins(s, &a, p, 2)...)
		p.SCLK = true
		got = append(got, stepPins(s, &a, p, 2)...)
		p.SCLK = false
		got = append(got, stepPins(s, &a, p, 2)...)
	}
	if len(got) != 1 || got[0] != 0x5A {
		t.Errorf("Expected [0x5A], got %v", got)
	}
}

func TestClockEdgesIgnoredWhileDeselected(t *testing.T) {
	s := NewSampler(Mode0)
	var a ByteAssembler
	p := IdlePins(Mode0)
	for i := 0; i < 16; i++ {
		p.SCLK = !p.SCLK
		p.COPI = true
		if got := stepPins(s, &a, p, 2); len(got) != 0 {
			t.Fatalf("Expected no bytes while deselected, got %v", got)
		}
	}
	if a.BitCount() != 0 {
		t.Errorf("Expected bit count 0, got %d", a.BitCount())
	}
}
