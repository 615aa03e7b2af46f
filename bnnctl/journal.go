package bnnctl

import (
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"io"
	"sync"
)

var journalHeader = []string{"start", "end", "bytes", "first", "reentrant", "data"}

// FrameJournal writes one CSV row per completed select frame.
type FrameJournal struct {
	mu   sync.Mutex
	csvW *csv.Writer
	err  error
}

func NewFrameJournal(w io.Writer) *FrameJournal {
	j := &FrameJournal{csvW: csv.NewWriter(w)}
	j.write(journalHeader)
	return j
}

func (j *FrameJournal) FrameDone(fr TransferFrame) {
	first := ""
	if len(fr.Bytes) > 0 {
		first = fmt.Sprintf("0x%02X", fr.Bytes[0])
	}
	j.write([]string{
		fmt.Sprint(fr.Start),
		fmt.Sprint(fr.End),
		fmt.Sprint(len(fr.Bytes)),
		first,
		fmt.Sprint(fr.Reentrant),
		hex.EncodeToString(fr.Bytes),
	})
}

func (j *FrameJournal) write(row []string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err != nil {
		return
	}
	j.csvW.Write(row)
	j.csvW.Flush()
	if err := j.csvW.Error(); err != nil {
		errorf("frame journal: %v", err)
		j.err = err
	}
}

// Err reports the first write error, after which the journal stops writing.
func (j *FrameJournal) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}
