package bnnctl

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

var (
	ErrImageSize          = errors.New("image size does not match buffer capacity")
	ErrAcceleratorTimeout = errors.New("accelerator did not answer")
)

// Session runs whole host transactions against a Device. Calls are
// serialized so several job sources can share one controller.
type Session struct {
	mu         sync.Mutex
	dev        *Device
	m          *Master
	pollCycles uint64
}

func NewSession(dev *Device) *Session {
	poll := dev.Config().StatusPollCycles
	if poll == 0 {
		poll = DEFAULT_STATUS_POLL_CYCLES
	}
	return &Session{dev: dev, m: NewMaster(dev), pollCycles: poll}
}

// Classify sends one packed image through the controller and returns the
// accelerator's answer.
func (s *Session) Classify(ctx context.Context, image []byte) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if want := s.dev.Controller().Buffer().Cap(); len(image) != want {
		return 0, errors.Wrapf(ErrImageSize, "got %d bytes, want %d", len(image), want)
	}
	if err := s.settle(ctx); err != nil {
		return 0, err
	}

	s.m.Select()
	s.m.Transfer(CmdImageSendRequest)
	if _, err := s.m.WaitStatus(ctx, s.pollCycles, StatusRxImgReady); err != nil {
		s.m.Deselect()
		return 0, errors.Wrap(err, "image request")
	}
	s.m.Write(image...)

	st, err := s.m.WaitStatus(ctx, s.pollCycles, StatusResultReady, StatusError)
	if err != nil {
		s.m.Deselect()
		return 0, errors.Wrap(err, "waiting for result")
	}
	if st == StatusError {
		s.m.Deselect()
		s.dev.Reset()
		return 0, ErrAcceleratorTimeout
	}

	r := Result(s.m.Transfer(0x00))
	s.m.Deselect()
	if _, err := s.m.WaitStatus(ctx, s.pollCycles, StatusIdle); err != nil {
		return r, errors.Wrap(err, "waiting for clear")
	}
	return r, nil
}

// Clear sends a clear command frame and waits for the controller to idle.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.m.SendFrame(CmdClear)
	if _, err := s.m.WaitStatus(ctx, s.pollCycles, StatusIdle); err != nil {
		return errors.Wrap(err, "clear")
	}
	return nil
}

func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dev.Reset()
}

func (s *Session) Status() StatusMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dev.Controller().StatusMessage()
}

// Cycles is the number of local cycles simulated so far.
func (s *Session) Cycles() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dev.Clock().Cycle()
}

// settle brings a controller left mid transaction back to idle: a pending
// result is collected and dropped, anything else falls back to reset.
func (s *Session) settle(ctx context.Context) error {
	if s.m.Selected() {
		s.m.Deselect()
	}
	switch s.dev.Status() {
	case StatusIdle:
		return nil
	case StatusError:
		s.dev.Reset()
		return nil
	}
	st, err := s.m.WaitStatus(ctx, s.pollCycles, StatusIdle, StatusResultReady, StatusError)
	if err != nil {
		if errors.Cause(err) != ErrStatusTimeout {
			return err
		}
		warnf("controller stuck at %v, resetting", st)
		s.dev.Reset()
		return nil
	}
	switch st {
	case StatusResultReady:
		s.m.SendFrame(0x00)
		if _, err := s.m.WaitStatus(ctx, s.pollCycles, StatusIdle); err != nil {
			return errors.Wrap(err, "draining stale result")
		}
	case StatusError:
		s.dev.Reset()
	}
	return nil
}
