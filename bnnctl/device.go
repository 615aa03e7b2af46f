package bnnctl

// Device is one simulated controller with its accelerator and local clock.
// It is not safe for concurrent use; Session serializes access.
type Device struct {
	cfg   Config
	clock *Clock
	ctrl  *Controller
	accel Accelerator

	clocked []Clockable
	probes  []Probe

	pins         Pins
	accelTimeout uint64
	tripped      bool
}

// Probe samples device signals once per cycle, after the controller ticked.
type Probe interface {
	Sample(d *Device)
}

func NewDevice(cfg Config, accel Accelerator) *Device {
	if accel == nil {
		accel = NewLatencyAccelerator(cfg.AccelLatencyCycles, nil)
	}
	d := &Device{
		cfg:          cfg,
		clock:        NewClock(cfg.ClockPeriod),
		ctrl:         NewController(cfg, accel),
		accel:        accel,
		pins:         IdlePins(cfg.Mode),
		accelTimeout: cfg.AccelTimeoutCycles,
	}
	if c, ok := accel.(Clockable); ok {
		d.RegisterClockable(c)
	}
	d.ctrl.OnTransition(func(from, to State, cycle uint64) {
		if to == StateIdle && d.tripped {
			d.tripped = false
		}
	})
	return d
}

// RegisterClockable adds a peripheral that is ticked ahead of the controller
// on every cycle.
func (d *Device) RegisterClockable(c Clockable) {
	d.clocked = append(d.clocked, c)
}

func (d *Device) AddProbe(p Probe) {
	d.probes = append(d.probes, p)
}

// Step runs one local clock cycle with the given host pin levels.
func (d *Device) Step(p Pins) {
	d.pins = p
	d.clock.Advance()
	for _, c := range d.clocked {
		c.Tick(d.clock)
	}
	d.ctrl.Tick(d.clock, p)

	if d.accelTimeout > 0 && !d.tripped && d.ctrl.State() == StateAccelBusy && d.ctrl.StateCycles() >= d.accelTimeout {
		warnf("accelerator silent for %d cycles, reporting error status", d.ctrl.StateCycles())
		d.tripped = true
	}
	for _, pr := range d.probes {
		pr.Sample(d)
	}
}

// Reset is the asynchronous reset line. It also clears a tripped watchdog.
func (d *Device) Reset() {
	d.ctrl.Reset()
	d.tripped = false
}

// Status is the status register as seen by the host.
func (d *Device) Status() StatusCode {
	if d.tripped {
		return StatusError
	}
	return d.ctrl.Status()
}

func (d *Device) CIPO() bool {
	return d.ctrl.CIPO()
}

func (d *Device) Pins() Pins {
	return d.pins
}

func (d *Device) Clock() *Clock {
	return d.clock
}

func (d *Device) Controller() *Controller {
	return d.ctrl
}

func (d *Device) Accelerator() Accelerator {
	return d.accel
}

func (d *Device) Config() Config {
	return d.cfg
}
