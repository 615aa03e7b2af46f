package bnnctl

import (
	"context"
	"testing"
)

func TestJobLoop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BufferBytes = 8
	cfg.AccelLatencyCycles = 32
	s := NewSession(NewDevice(cfg, nil))

	jobs := make(chan Job, 3)
	clears := make(chan ClearMessage, 1)
	good := NewJob("test", testImage(8, 1))
	jobs <- good
	jobs <- NewJob("test", []byte{1, 2})
	clears <- ClearMessage{Reason: "operator"}
	close(jobs)
	close(clears)

	var results []ResultMessage
	JobLoop(context.Background(), s, jobs, clears, func(job Job, m ResultMessage) {
		if job.ID != m.JobID {
			t.Errorf("Job %s reported as %s", job.ID, m.JobID)
		}
		results = append(results, m)
	})

	if len(results) != 1 {
		t.Fatalf("Expected one result, got %d", len(results))
	}
	r := results[0]
	if r.JobID != good.ID || r.Result != PopCountClassifier(good.Image) {
		t.Errorf("Unexpected result %+v", r)
	}
	if r.Cycles == 0 {
		t.Error("Expected cycles to be counted")
	}
}

func TestJobLoopStopsOnCancel(t *testing.T) {
	s := NewSession(NewDevice(DefaultConfig(), nil))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	JobLoop(ctx, s, make(chan Job), make(chan ClearMessage), nil)
}
