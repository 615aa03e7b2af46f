package bnnctl

import (
	"bufio"
	"fmt"
	"io"
	"time"
)

type traceVar struct {
	id    string
	name  string
	width int
}

var traceVars = []traceVar{
	{"!", "cs_n", 1},
	{"\"", "sclk", 1},
	{"#", "copi", 1},
	{"$", "cipo", 1},
	{"%", "start", 1},
	{"&", "state", 3},
	{"'", "status", 4},
	{"(", "cursor", 16},
	{")", "bit_count", 4},
}

// Tracer dumps the pins and main controller signals as a VCD waveform,
// one change record per cycle in which something moved.
type Tracer struct {
	w      *bufio.Writer
	period time.Duration
	last   []uint64
	begun  bool
	err    error
}

func NewTracer(w io.Writer, period time.Duration) *Tracer {
	if period <= 0 {
		period = DEFAULT_CLOCK_PERIOD
	}
	t := &Tracer{w: bufio.NewWriter(w), period: period}
	fmt.Fprintf(t.w, "$date %s $end\n", time.Now().UTC().Format(time.RFC3339))
	fmt.Fprintf(t.w, "$version bnnctl $end\n")
	fmt.Fprintf(t.w, "$timescale 1ns $end\n")
	fmt.Fprintf(t.w, "$scope module bnnctl $end\n")
	for _, v := range traceVars {
		fmt.Fprintf(t.w, "$var wire %d %s %s $end\n", v.width, v.id, v.name)
	}
	fmt.Fprintf(t.w, "$upscope $end\n$enddefinitions $end\n")
	return t
}

func b2u(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func (t *Tracer) Sample(d *Device) {
	if t.err != nil {
		return
	}
	c := d.Controller()
	p := d.Pins()
	values := []uint64{
		b2u(p.CSn),
		b2u(p.SCLK),
		b2u(p.COPI),
		b2u(d.CIPO()),
		b2u(c.StartPulse()),
		uint64(c.State()),
		uint64(d.Status()),
		uint64(c.Buffer().Cursor()),
		uint64(c.BitCount()),
	}

	ts := d.Clock().Cycle() * uint64(t.period/time.Nanosecond)
	stamped := false
	for i, v := range values {
		if t.begun && t.last[i] == v {
			continue
		}
		if !stamped {
			fmt.Fprintf(t.w, "#%d\n", ts)
			stamped = true
		}
		if tv := traceVars[i]; tv.width == 1 {
			fmt.Fprintf(t.w, "%d%s\n", v, tv.id)
		} else {
			fmt.Fprintf(t.w, "b%b %s\n", v, tv.id)
		}
	}
	t.last = values
	t.begun = true
	if t.w.Buffered() > 32*1024 {
		t.err = t.w.Flush()
	}
}

func (t *Tracer) Flush() error {
	if t.err != nil {
		return t.err
	}
	return t.w.Flush()
}
