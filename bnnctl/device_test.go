package bnnctl

import (
	"testing"
	"time"
)

type tickCounter struct {
	ticks  int
	cycles []uint64
}

func (c *tickCounter) Tick(clk *Clock) {
	c.ticks++
	c.cycles = append(c.cycles, clk.Cycle())
}

func TestDeviceTicksClockables(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ClockPeriod = 20 * time.Nanosecond
	dev := NewDevice(cfg, nil)
	tc := &tickCounter{}
	dev.RegisterClockable(tc)

	m := NewMaster(dev)
	m.Idle(5)
	if tc.ticks != 5 {
		t.Errorf("Expected 5 ticks, got %d", tc.ticks)
	}
	if tc.cycles[0] != 1 || tc.cycles[4] != 5 {
		t.Errorf("Expected cycles 1..5, got %v", tc.cycles)
	}
	if dev.Clock().Elapsed() != 100*time.Nanosecond {
		t.Errorf("Expected 100ns elapsed, got %v", dev.Clock().Elapsed())
	}
}

func TestDevicesKeepSeparateClocks(t *testing.T) {
	a := NewDevice(DefaultConfig(), nil)
	b := NewDevice(DefaultConfig(), nil)
	NewMaster(a).Idle(10)
	NewMaster(b).Idle(3)
	if a.Clock().Cycle() != 10 || b.Clock().Cycle() != 3 {
		t.Errorf("Expected cycles 10 and 3, got %d and %d", a.Clock().Cycle(), b.Clock().Cycle())
	}
}

func TestDeviceWatchdog(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BufferBytes = 2
	cfg.AccelTimeoutCycles = 100
	dev := NewDevice(cfg, &silentAccelerator{})
	m := NewMaster(dev)

	m.SendFrame(CmdImageSendRequest, 1, 2)
	if dev.Status() != StatusAccelBusy {
		t.Fatalf("Expected status 4, got %v", dev.Status())
	}
	m.Idle(120)
	if dev.Status() != StatusError {
		t.Errorf("Expected status 14, got %v", dev.Status())
	}
	if dev.Controller().State() != StateAccelBusy {
		t.Errorf("Watchdog must not move the FSM, got %v", dev.Controller().State())
	}
	dev.Reset()
	if dev.Status() != StatusIdle {
		t.Errorf("Expected status 0 after reset, got %v", dev.Status())
	}
}

func TestLatencyAccelerator(t *testing.T) {
	a := NewLatencyAccelerator(3, func(image []byte) Result { return Result(len(image)) })
	clk := NewClock(0)
	a.Start([]byte{1, 2})
	for i := 0; i < 3; i++ {
		clk.Advance()
		a.Tick(clk)
		if a.ResultReady() {
			t.Fatalf("Result ready too early at tick %d", i)
		}
	}
	clk.Advance()
	a.Tick(clk)
	if !a.ResultReady() || a.Result() != 2 {
		t.Errorf("Expected result 2, got %d (ready %v)", a.Result(), a.ResultReady())
	}

	// held until the next start
	clk.Advance()
	a.Tick(clk)
	if !a.ResultReady() || a.Result() != 2 {
		t.Error("Expected the result to be held")
	}
	a.Start([]byte{1})
	if a.ResultReady() || !a.Busy() || a.Starts() != 2 {
		t.Error("Expected a new start to drop result-ready")
	}
}
