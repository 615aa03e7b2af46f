package bnnctl

import "fmt"

// State is the controller FSM state. Only the Controller writes it.
type State byte

const (
	StateIdle State = iota
	StateRxCmd
	StateRxImage
	StateAccelBusy
	StateResultTx
	StateClear
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRxCmd:
		return "RX_CMD"
	case StateRxImage:
		return "RX_IMAGE"
	case StateAccelBusy:
		return "ACCEL_BUSY"
	case StateResultTx:
		return "RESULT_TX"
	case StateClear:
		return "CLEAR"
	}
	return fmt.Sprintf("State(%d)", byte(s))
}

// StatusCode is the value presented on the parallel status register.
type StatusCode byte

const (
	StatusIdle        StatusCode = 0  // idle, ready for command
	StatusRxImgReady  StatusCode = 1  // command accepted, awaiting image bytes
	StatusRxImg       StatusCode = 2  // image bytes are landing in the buffer
	StatusAccelBusy   StatusCode = 4  // image complete, accelerator running
	StatusResultReady StatusCode = 8  // result can be clocked out
	StatusError       StatusCode = 14 // integration watchdog tripped
	StatusUnknown     StatusCode = 15 // busy / unknown
)

func (c StatusCode) String() string {
	switch c {
	case StatusIdle:
		return "idle"
	case StatusRxImgReady:
		return "rx-img-ready"
	case StatusRxImg:
		return "rx-img"
	case StatusAccelBusy:
		return "accel-busy"
	case StatusResultReady:
		return "result-ready"
	case StatusError:
		return "error"
	case StatusUnknown:
		return "busy"
	}
	return fmt.Sprintf("status(%d)", byte(c))
}

// Result is the classification code produced by one accelerator run.
type Result uint8

// Pins are the host driven inputs of the serial link, already resolved to
// logical levels.
type Pins struct {
	CSn  bool // active low select
	SCLK bool
	COPI bool
}

// IdlePins returns the pin levels of a deselected bus in the given mode.
func IdlePins(m Mode) Pins {
	return Pins{CSn: true, SCLK: m.CPOL()}
}

// TransferFrame is one select-bracketed transaction as seen by the
// controller.
type TransferFrame struct {
	Active    bool
	Start     uint64
	End       uint64
	Bytes     []byte
	Reentrant bool // began while the FSM was not idle
}

type StatusMessage struct {
	Cycle  uint64
	State  string
	Status StatusCode
	Cursor int
	Full   bool
	Empty  bool
}

type ResultMessage struct {
	JobID   string
	Source  string
	Result  Result
	Cycles  uint64
	Elapsed string
}

type ClearMessage struct {
	Reason string
}
