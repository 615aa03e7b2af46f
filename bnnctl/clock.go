package bnnctl

import "time"

// Clock is the local clock domain of one controller instance. It is passed
// to every Tick so instances never share time.
type Clock struct {
	cycle  uint64
	period time.Duration
}

func NewClock(period time.Duration) *Clock {
	if period <= 0 {
		period = 10 * time.Nanosecond
	}
	return &Clock{period: period}
}

// Advance moves the clock forward by one cycle.
func (c *Clock) Advance() {
	c.cycle++
}

func (c *Clock) Cycle() uint64 {
	return c.cycle
}

func (c *Clock) Period() time.Duration {
	return c.period
}

// Elapsed is the simulated time since the clock was created.
func (c *Clock) Elapsed() time.Duration {
	return time.Duration(c.cycle) * c.period
}

// A Clockable updates its internal state once per local clock cycle.
type Clockable interface {
	Tick(clk *Clock)
}
