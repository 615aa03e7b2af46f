package bnnctl

import (
	"context"
	"time"
)

// ResultFunc receives each finished job with its result.
type ResultFunc func(job Job, msg ResultMessage)

// JobLoop feeds queued images and clear requests through a Session until
// ctx is done or both channels are closed.
func JobLoop(ctx context.Context, s *Session, jobs <-chan Job, clears <-chan ClearMessage, onResult ResultFunc) {
	for jobs != nil || clears != nil {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-jobs:
			if !ok {
				jobs = nil
				continue
			}
			msg, err := RunJob(ctx, s, job)
			if err != nil {
				ERRORLogger.Printf("job %s from %s: %v", job.ID, job.Source, err)
				continue
			}
			INFOLogger.Printf("job %s from %s: result %d in %d cycles", job.ID, job.Source, msg.Result, msg.Cycles)
			if onResult != nil {
				onResult(job, msg)
			}
		case m, ok := <-clears:
			if !ok {
				clears = nil
				continue
			}
			INFOLogger.Printf("clear requested: %q", m.Reason)
			if err := s.Clear(ctx); err != nil {
				ERRORLogger.Printf("clear: %v", err)
				s.Reset()
			}
		}
	}
}

// RunJob classifies one image and describes the outcome.
func RunJob(ctx context.Context, s *Session, job Job) (ResultMessage, error) {
	c0 := s.Cycles()
	t0 := time.Now()
	r, err := s.Classify(ctx, job.Image)
	if err != nil {
		return ResultMessage{}, err
	}
	return ResultMessage{
		JobID:   job.ID,
		Source:  job.Source,
		Result:  r,
		Cycles:  s.Cycles() - c0,
		Elapsed: time.Since(t0).String(),
	}, nil
}
