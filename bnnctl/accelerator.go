package bnnctl

import "math/bits"

// Accelerator is the inference engine behind the controller. Start is
// issued once per completed image. ResultReady may rise any number of
// cycles later and Result stays valid until the next Start.
type Accelerator interface {
	Start(image []byte)
	ResultReady() bool
	Result() Result
}

// ClassifierFunc maps a packed bitmap to a classification code.
type ClassifierFunc func(image []byte) Result

// PopCountClassifier is a stand-in classifier: the number of set pixels
// modulo ten.
func PopCountClassifier(image []byte) Result {
	n := 0
	for _, b := range image {
		n += bits.OnesCount8(b)
	}
	return Result(n % 10)
}

// LatencyAccelerator simulates an accelerator that answers a fixed number
// of local cycles after Start.
type LatencyAccelerator struct {
	Latency  uint64
	Classify ClassifierFunc

	image     []byte
	busy      bool
	remaining uint64
	ready     bool
	result    Result
	starts    int
}

func NewLatencyAccelerator(latency uint64, classify ClassifierFunc) *LatencyAccelerator {
	if classify == nil {
		classify = PopCountClassifier
	}
	return &LatencyAccelerator{Latency: latency, Classify: classify}
}

func (a *LatencyAccelerator) Start(image []byte) {
	a.image = append(a.image[:0], image...)
	a.busy = true
	a.ready = false
	a.remaining = a.Latency
	a.starts++
}

func (a *LatencyAccelerator) Tick(clk *Clock) {
	if !a.busy {
		return
	}
	if a.remaining > 0 {
		a.remaining--
		return
	}
	a.result = a.Classify(a.image)
	a.ready = true
	a.busy = false
	debugf("accelerator: result %d at cycle %d", a.result, clk.Cycle())
}

func (a *LatencyAccelerator) ResultReady() bool {
	return a.ready
}

func (a *LatencyAccelerator) Result() Result {
	return a.result
}

func (a *LatencyAccelerator) Busy() bool {
	return a.busy
}

// Starts counts Start pulses received since construction.
func (a *LatencyAccelerator) Starts() int {
	return a.starts
}
