package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"lendada/credit"
)

type sequenceSource struct {
	jobs []Job
	err  error
	idx  int
}

func (s *sequenceSource) GetStatus(string) (Job, error) {
	if s.err != nil {
		return Job{}, s.err
	}
	job := s.jobs[s.idx]
	if s.idx < len(s.jobs)-1 {
		s.idx++
	}
	return job, nil
}

func TestAwaitReturnsResult(t *testing.T) {
	result := credit.Assessment{Score: 680}
	src := &sequenceSource{jobs: []Job{
		{Status: StatusProcessing, Progress: 25},
		{Status: StatusProcessing, Progress: 75},
		{Status: StatusCompleted, Progress: 100, Result: &result},
	}}
	p := NewPoller(src, time.Millisecond, 20)
	got, err := p.Await(context.Background(), "job_x")
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if got.Score != 680 {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestAwaitSurfacesJobFailure(t *testing.T) {
	src := &sequenceSource{jobs: []Job{{Status: StatusFailed, Error: "no data"}}}
	p := NewPoller(src, time.Millisecond, 5)
	_, err := p.Await(context.Background(), "job_x")
	if err == nil || !strings.Contains(err.Error(), "no data") {
		t.Fatalf("expected failure with message, got %v", err)
	}
	if errors.Is(err, ErrPollTimeout) {
		t.Fatal("failure must be distinct from timeout")
	}
}

func TestAwaitTimesOutAfterBudget(t *testing.T) {
	src := &sequenceSource{jobs: []Job{{Status: StatusProcessing, Progress: 25}}}
	p := NewPoller(src, time.Millisecond, 3)
	_, err := p.Await(context.Background(), "job_x")
	if !errors.Is(err, ErrPollTimeout) {
		t.Fatalf("expected ErrPollTimeout, got %v", err)
	}
}

func TestAwaitPropagatesNotFound(t *testing.T) {
	src := &sequenceSource{err: ErrJobNotFound}
	p := NewPoller(src, time.Millisecond, 3)
	if _, err := p.Await(context.Background(), "job_x"); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}

func TestAwaitHonoursContextCancellation(t *testing.T) {
	src := &sequenceSource{jobs: []Job{{Status: StatusProcessing}}}
	p := NewPoller(src, 50*time.Millisecond, 20)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Await(ctx, "job_x"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
