package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"
)

type recordingPoller struct {
	calls       int
	hadDeadline bool
	err         error
}

func (p *recordingPoller) PollAll(ctx context.Context) error {
	p.calls++
	_, p.hadDeadline = ctx.Deadline()
	return p.err
}

func TestRunBoundsEachPoll(t *testing.T) {
	p := &recordingPoller{err: errors.New("partial failure")}
	s := New(time.Minute, 30*time.Second, p)

	s.run()
	s.run()

	if p.calls != 2 {
		t.Fatalf("expected 2 polls, got %d", p.calls)
	}
	if !p.hadDeadline {
		t.Fatalf("expected poll context to carry a deadline")
	}
}

func TestStartDisabled(t *testing.T) {
	p := &recordingPoller{}
	s := New(0, time.Second, p)
	if err := s.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Stop()
	if p.calls != 0 {
		t.Fatalf("expected no polls, got %d", p.calls)
	}
}
