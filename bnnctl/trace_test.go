package bnnctl

import (
	"bytes"
	"strings"
	"testing"
)

func TestTracerHeaderAndChanges(t *testing.T) {
	var out bytes.Buffer
	dev, m := newTestDevice(Mode0, 4, 10)
	tr := NewTracer(&out, dev.Config().ClockPeriod)
	dev.AddProbe(tr)

	m.SendFrame(CmdImageSendRequest, 1, 2, 3, 4)
	m.Idle(20)
	if err := tr.Flush(); err != nil {
		t.Fatal(err)
	}
	vcd := out.String()

	for _, want := range []string{
		"$timescale 1ns $end",
		"$var wire 1 ! cs_n $end",
		"$var wire 3 & state $end",
		"$enddefinitions $end",
		"#10\n",
		"0!\n",
		"b100 '\n",
	} {
		if !strings.Contains(vcd, want) {
			t.Errorf("Expected %q in the dump", want)
		}
	}
	// state RESULT_TX is 4, status 8
	if !strings.Contains(vcd, "b100 &\n") || !strings.Contains(vcd, "b1000 '\n") {
		t.Error("Expected the result state to be dumped")
	}
}

func TestTracerSkipsQuietCycles(t *testing.T) {
	var out bytes.Buffer
	dev, m := newTestDevice(Mode0, 4, 10)
	tr := NewTracer(&out, dev.Config().ClockPeriod)
	dev.AddProbe(tr)

	m.Idle(100)
	tr.Flush()
	if n := strings.Count(out.String(), "\n#"); n != 1 {
		t.Errorf("Expected a single timestamp for an idle bus, got %d", n)
	}
}
