package bnnctl

// ByteAssembler shifts sampled bits into bytes, most significant bit first.
type ByteAssembler struct {
	shift byte
	count int
	last  byte
}

// Step consumes one sample event and returns a byte once eight sampling
// edges have been seen inside the current frame.
func (a *ByteAssembler) Step(ev SampleEvent) (byte, bool) {
	if !ev.Selected || ev.Framing == FrameEnd {
		a.shift, a.count = 0, 0
		return 0, false
	}
	if !ev.Sample {
		return 0, false
	}
	a.shift <<= 1
	if ev.Bit {
		a.shift |= 1
	}
	a.count++
	if a.count < 8 {
		return 0, false
	}
	b := a.shift
	a.last = b
	a.shift, a.count = 0, 0
	return b, true
}

// BitCount is the number of bits of the partial byte. It reads 0 right
// after a completed byte and whenever the frame is inactive.
func (a *ByteAssembler) BitCount() int {
	return a.count
}

// LastByte is the most recently completed byte.
func (a *ByteAssembler) LastByte() byte {
	return a.last
}

func (a *ByteAssembler) Reset() {
	*a = ByteAssembler{}
}
