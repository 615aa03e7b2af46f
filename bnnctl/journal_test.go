package bnnctl

import (
	"bytes"
	"encoding/csv"
	"reflect"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func TestFrameJournal(t *testing.T) {
	var out bytes.Buffer
	dev, m := newTestDevice(Mode0, 4, 300)
	dev.Controller().AddFrameSink(NewFrameJournal(&out))

	m.SendFrame(0xAA, 0x01)
	m.SendFrame(CmdImageSendRequest, 1, 2, 3, 4)
	m.SendFrame(CmdClear)

	rows, err := csv.NewReader(&out).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("Expected header and 3 frames, got %d rows", len(rows))
	}
	if !reflect.DeepEqual(rows[0], journalHeader) {
		t.Errorf("Expected header %v, got %v", journalHeader, rows[0])
	}
	if got := rows[1][2:]; !reflect.DeepEqual(got, []string{"2", "0xAA", "false", "aa01"}) {
		t.Errorf("Unexpected first frame %v", got)
	}
	if got := rows[2][5]; got != "fe01020304" {
		t.Errorf("Expected fe01020304, got %s", got)
	}
	// the clear frame opened while the accelerator was running
	if got := rows[3][2:]; !reflect.DeepEqual(got, []string{"1", "0xFD", "true", "fd"}) {
		t.Errorf("Unexpected reentrant frame %v", got)
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errShortWrite
}

var errShortWrite = errors.New("disk full")

func TestFrameJournalStopsOnError(t *testing.T) {
	j := NewFrameJournal(failingWriter{})
	if j.Err() == nil || !strings.Contains(j.Err().Error(), "disk full") {
		t.Errorf("Expected the write error to be kept, got %v", j.Err())
	}
	j.FrameDone(TransferFrame{Bytes: []byte{1}})
}
