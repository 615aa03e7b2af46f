package bnnctl

// TransitionFunc observes FSM transitions. It runs inside Tick and must not
// call back into the controller's mutating methods.
type TransitionFunc func(from, to State, cycle uint64)

// FrameSink receives every finalized transfer frame.
type FrameSink interface {
	FrameDone(f TransferFrame)
}

// Controller is the image ingestion state machine. It owns the image
// buffer and is the only writer of its state; everything else reads.
type Controller struct {
	cmdTimeout uint64

	state   State
	entered uint64
	cycle   uint64

	sampler *Sampler
	asm     ByteAssembler
	buf     *ImageBuffer
	accel   Accelerator
	tx      ResultTransmitter

	frame        TransferFrame
	pendingImage bool // clear requested on the way to RX_IMAGE
	pendingClear bool // 0xFD seen while the accelerator ran
	startPulse   bool
	starts       int
	lastCommand  Command

	observers []TransitionFunc
	sinks     []FrameSink
}

func NewController(cfg Config, accel Accelerator) *Controller {
	c := &Controller{
		cmdTimeout: cfg.CommandTimeoutCycles,
		sampler:    NewSampler(cfg.Mode),
		accel:      accel,
	}
	if c.cmdTimeout == 0 {
		c.cmdTimeout = DEFAULT_CMD_TIMEOUT_CYCLES
	}
	c.buf = NewImageBuffer(cfg.Capacity(), func() bool { return c.state == StateRxImage })
	return c
}

func (c *Controller) OnTransition(fn TransitionFunc) {
	c.observers = append(c.observers, fn)
}

func (c *Controller) AddFrameSink(s FrameSink) {
	c.sinks = append(c.sinks, s)
}

// Tick advances the controller by one local clock cycle with the given
// host pin levels.
func (c *Controller) Tick(clk *Clock, p Pins) {
	c.cycle = clk.Cycle()
	c.startPulse = false

	ev := c.sampler.Sample(p)
	b, ready := c.asm.Step(ev)
	c.tx.Step(ev)

	if ev.Framing == FrameStart {
		c.frame = TransferFrame{Active: true, Start: c.cycle, Reentrant: c.state != StateIdle}
	}
	first := false
	if ready && c.frame.Active {
		c.frame.Bytes = append(c.frame.Bytes, b)
		first = len(c.frame.Bytes) == 1
	}
	// A frame opened outside IDLE may only carry a clear request.
	clearRequest := first && c.frame.Reentrant && DecodeCommand(b) == CommandClear

	switch c.state {
	case StateIdle:
		if ev.Framing == FrameStart {
			c.enter(StateRxCmd)
		}

	case StateRxCmd:
		switch {
		case ev.Framing == FrameEnd:
			infof("frame ended before a command byte")
			c.enter(StateIdle)
		case ready:
			c.command(b)
		case c.cycle-c.entered >= c.cmdTimeout:
			infof("no command byte within %d cycles", c.cmdTimeout)
			c.enter(StateIdle)
		}

	case StateRxImage:
		switch {
		case ev.Framing == FrameEnd:
			infof("frame ended at byte %d of %d, partial image discarded", c.buf.Cursor(), c.buf.Cap())
			c.enter(StateIdle)
		case ready:
			if !c.buf.write(b) {
				debugf("image byte 0x%02X dropped at cursor %d", b, c.buf.Cursor())
				break
			}
			if c.buf.Full() {
				c.accel.Start(c.buf.bytes())
				c.startPulse = true
				c.starts++
				c.enter(StateAccelBusy)
			}
		}

	case StateAccelBusy:
		if clearRequest {
			debugf("clear requested while accelerator busy, deferred")
			c.pendingClear = true
		}
		if c.accel.ResultReady() {
			if c.pendingClear {
				c.enter(StateClear)
				break
			}
			c.tx.Load(c.accel.Result())
			c.enter(StateResultTx)
		}

	case StateResultTx:
		if ev.Framing == FrameEnd || clearRequest {
			c.enter(StateClear)
		}

	case StateClear:
		if ev.Framing == FrameEnd {
			c.pendingImage = false
		}
		if !c.buf.Empty() {
			c.buf.clear()
			break
		}
		if c.pendingImage && ev.Selected {
			c.pendingImage = false
			c.enter(StateRxImage)
			break
		}
		c.pendingImage = false
		c.enter(StateIdle)
	}

	if ev.Framing == FrameEnd && c.frame.Active {
		c.frame.Active = false
		c.frame.End = c.cycle
		for _, s := range c.sinks {
			s.FrameDone(c.frame)
		}
	}
}

func (c *Controller) command(b byte) {
	cmd, req := Dispatch(b, c.buf.Empty())
	c.lastCommand = cmd
	switch req {
	case RequestImage:
		c.enter(StateRxImage)
	case RequestClearThenImage:
		c.pendingImage = true
		c.enter(StateClear)
	case RequestClear:
		c.enter(StateClear)
	default:
		infof("ignoring unknown command 0x%02X", b)
		c.enter(StateIdle)
	}
}

func (c *Controller) enter(s State) {
	from := c.state
	c.state = s
	c.entered = c.cycle
	if s == StateClear {
		c.pendingClear = false
		c.tx.Reset()
	}
	debugf("%s -> %s at cycle %d", from, s, c.cycle)
	for _, fn := range c.observers {
		fn(from, s, c.cycle)
	}
}

// Reset forces IDLE and an empty buffer regardless of the current state.
func (c *Controller) Reset() {
	from := c.state
	c.sampler.Reset()
	c.asm.Reset()
	c.tx.Reset()
	c.buf.clear()
	c.state = StateIdle
	c.entered = c.cycle
	c.frame = TransferFrame{}
	c.pendingImage = false
	c.pendingClear = false
	c.startPulse = false
	if from != StateIdle {
		for _, fn := range c.observers {
			fn(from, StateIdle, c.cycle)
		}
	}
}

func (c *Controller) State() State {
	return c.state
}

// StateCycles is how long the controller has been in its current state.
func (c *Controller) StateCycles() uint64 {
	return c.cycle - c.entered
}

// Status maps the FSM state onto the status register codes.
func (c *Controller) Status() StatusCode {
	switch c.state {
	case StateIdle, StateRxCmd:
		return StatusIdle
	case StateRxImage:
		if c.buf.Empty() {
			return StatusRxImgReady
		}
		return StatusRxImg
	case StateAccelBusy:
		return StatusAccelBusy
	case StateResultTx:
		return StatusResultReady
	}
	return StatusUnknown
}

// Ready is high while an accepted image request waits for its first byte.
func (c *Controller) Ready() bool {
	return c.state == StateRxImage && c.buf.Empty()
}

// SendImage is high while the host may stream image bytes.
func (c *Controller) SendImage() bool {
	return c.state == StateRxImage
}

// StartPulse is high for the single cycle the accelerator was started in.
func (c *Controller) StartPulse() bool {
	return c.startPulse
}

func (c *Controller) StartCount() int {
	return c.starts
}

func (c *Controller) ResultReady() bool {
	return c.state == StateResultTx
}

// CIPO is the level driven on the data-out line.
func (c *Controller) CIPO() bool {
	return c.state == StateResultTx && c.tx.Out()
}

func (c *Controller) Buffer() BufferView {
	return c.buf
}

func (c *Controller) BitCount() int {
	return c.asm.BitCount()
}

func (c *Controller) LastByte() byte {
	return c.asm.LastByte()
}

func (c *Controller) LastCommand() Command {
	return c.lastCommand
}

func (c *Controller) StatusMessage() StatusMessage {
	snap := c.buf.Snapshot()
	return StatusMessage{
		Cycle:  c.cycle,
		State:  c.state.String(),
		Status: c.Status(),
		Cursor: snap.Cursor,
		Full:   snap.Full,
		Empty:  snap.Empty,
	}
}
