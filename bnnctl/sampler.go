package bnnctl

import "github.com/pkg/errors"

// Mode is a serial transfer mode: bit 1 is the idle clock level (CPOL),
// bit 0 selects the trailing edge as the sampling edge (CPHA).
type Mode byte

const (
	Mode0 Mode = iota
	Mode1
	Mode2
	Mode3
)

var ErrInvalidMode = errors.New("transfer mode must be 0..3")

func ParseMode(v int) (Mode, error) {
	if v < 0 || v > 3 {
		return 0, errors.Wrapf(ErrInvalidMode, "mode %d", v)
	}
	return Mode(v), nil
}

func (m Mode) CPOL() bool { return m&0b10 != 0 }
func (m Mode) CPHA() bool { return m&0b01 != 0 }

// SamplesOnRising reports whether data is sampled on the rising clock edge.
// The leading edge leaves the idle level; CPHA moves sampling to the
// trailing edge.
func (m Mode) SamplesOnRising() bool {
	return m.CPOL() == m.CPHA()
}

type Edge byte

const (
	EdgeNone Edge = iota
	EdgeRising
	EdgeFalling
)

type FrameEvent byte

const (
	FrameNone FrameEvent = iota
	FrameStart
	FrameEnd
)

// SampleEvent is what the controller sees of the serial link in one local
// cycle, after synchronization.
type SampleEvent struct {
	Selected bool // framing active, synchronized
	Framing  FrameEvent
	Clock    Edge
	Sample   bool // Clock is the sampling edge of the configured mode
	Bit      bool // data line level at the edge
}

// syncChain is a two flop synchronizer. The output lags the input by one
// local cycle and never reflects a level that was held for less than a
// full cycle.
type syncChain struct {
	stages [2]bool
}

func (s *syncChain) shift(in bool) bool {
	s.stages[1] = s.stages[0]
	s.stages[0] = in
	return s.stages[1]
}

func (s *syncChain) preset(v bool) {
	s.stages[0], s.stages[1] = v, v
}

// Sampler resolves the asynchronous select, clock and data lines into the
// local clock domain and turns level changes into edge events.
type Sampler struct {
	mode Mode

	csn, sclk, copi syncChain

	selected bool
	clkLevel bool
}

func NewSampler(mode Mode) *Sampler {
	s := &Sampler{mode: mode}
	s.Reset()
	return s
}

func (s *Sampler) Mode() Mode {
	return s.mode
}

// Reset returns every line to its idle level: deselected, clock at CPOL.
func (s *Sampler) Reset() {
	s.csn.preset(true)
	s.sclk.preset(s.mode.CPOL())
	s.copi.preset(false)
	s.selected = false
	s.clkLevel = s.mode.CPOL()
}

// Sample shifts the current pin levels through the synchronizers and
// reports at most one framing event and one clock edge.
func (s *Sampler) Sample(p Pins) SampleEvent {
	selected := !s.csn.shift(p.CSn)
	clk := s.sclk.shift(p.SCLK)
	bit := s.copi.shift(p.COPI)

	ev := SampleEvent{Selected: selected, Bit: bit}
	switch {
	case selected && !s.selected:
		ev.Framing = FrameStart
	case !selected && s.selected:
		ev.Framing = FrameEnd
	}
	s.selected = selected

	if clk != s.clkLevel {
		if clk {
			ev.Clock = EdgeRising
		} else {
			ev.Clock = EdgeFalling
		}
		ev.Sample = clk == s.mode.SamplesOnRising()
	}
	s.clkLevel = clk
	return ev
}
