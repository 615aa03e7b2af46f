package bnnctl

// ResultTransmitter shifts the held result out MSB first. The value is
// latched by Load and only replaced by the next Load or Reset.
type ResultTransmitter struct {
	value  Result
	idx    int
	loaded bool
}

func (t *ResultTransmitter) Load(v Result) {
	t.value = v
	t.idx = 0
	t.loaded = true
}

// Step advances to the next bit after the host has sampled the current
// one. A new frame restarts from the MSB.
func (t *ResultTransmitter) Step(ev SampleEvent) {
	if !t.loaded {
		return
	}
	if ev.Framing == FrameStart {
		t.idx = 0
	}
	if ev.Selected && ev.Sample {
		t.idx = (t.idx + 1) % 8
	}
}

// Out is the level driven on the data-out line.
func (t *ResultTransmitter) Out() bool {
	if !t.loaded {
		return false
	}
	return t.value&(0x80>>t.idx) != 0
}

func (t *ResultTransmitter) Value() (Result, bool) {
	return t.value, t.loaded
}

func (t *ResultTransmitter) Reset() {
	*t = ResultTransmitter{}
}
