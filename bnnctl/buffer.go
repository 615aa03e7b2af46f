package bnnctl

import (
	"fmt"
	"sync"
)

// EnableFunc gates writes into a buffer; it reflects FSM state the buffer
// itself cannot see.
type EnableFunc func() bool

// BufferView is the read only face of the image buffer handed to anything
// other than the controller.
type BufferView interface {
	Cap() int
	Cursor() int
	Full() bool
	Empty() bool
	Snapshot() BufferSnapshot
}

type BufferSnapshot struct {
	Cursor int
	Full   bool
	Empty  bool
}

// ImageBuffer is a fixed capacity sequential byte store. Writes and clears
// are mutually exclusive and every observation sees consistent flags.
type ImageBuffer struct {
	mu     sync.Mutex
	data   []byte
	w      int
	full   bool
	empty  bool
	enable EnableFunc
}

func NewImageBuffer(capacity int, en EnableFunc) *ImageBuffer {
	if capacity <= 0 {
		panic(fmt.Sprintf("image buffer capacity %d", capacity))
	}
	if en == nil {
		en = func() bool { return true }
	}
	return &ImageBuffer{data: make([]byte, capacity), empty: true, enable: en}
}

// write appends v at the cursor. It is dropped when the buffer is full or
// writes are not enabled.
func (b *ImageBuffer) write(v byte) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.full || !b.enable() {
		return false
	}
	b.data[b.w] = v
	b.w++
	b.empty = false
	b.full = b.w == len(b.data)
	b.check()
	return true
}

// clear empties the buffer. It is idempotent.
func (b *ImageBuffer) clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.data[:b.w] {
		b.data[i] = 0
	}
	b.w = 0
	b.full = false
	b.empty = true
	b.check()
}

func (b *ImageBuffer) check() {
	if b.w < 0 || b.w > len(b.data) {
		panic(fmt.Sprintf("image buffer cursor %d outside 0..%d", b.w, len(b.data)))
	}
	if b.empty != (b.w == 0) || b.full != (b.w == len(b.data)) {
		panic(fmt.Sprintf("image buffer flags empty=%v full=%v at cursor %d of %d", b.empty, b.full, b.w, len(b.data)))
	}
}

// bytes returns a copy of the written bytes.
func (b *ImageBuffer) bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]byte, b.w)
	copy(out, b.data[:b.w])
	return out
}

func (b *ImageBuffer) Cap() int {
	return len(b.data)
}

func (b *ImageBuffer) Cursor() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.w
}

func (b *ImageBuffer) Full() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.full
}

func (b *ImageBuffer) Empty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.empty
}

func (b *ImageBuffer) Snapshot() BufferSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BufferSnapshot{Cursor: b.w, Full: b.full, Empty: b.empty}
}
