package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lendada/credit"
)

// ErrPollTimeout reports that a job did not reach a terminal state within
// the attempt budget. Distinct from a failed job.
var ErrPollTimeout = errors.New("agent: credit scoring timed out")

// StatusSource is the poll contract: the in-process manager satisfies it,
// as would a remote agent client.
type StatusSource interface {
	GetStatus(jobID string) (Job, error)
}

// Poller waits for a scoring job to finish by polling its status on a fixed
// interval up to a bounded attempt count.
type Poller struct {
	source   StatusSource
	interval time.Duration
	attempts int
}

// NewPoller constructs a poller. Defaults: 1s interval, 20 attempts.
func NewPoller(source StatusSource, interval time.Duration, attempts int) *Poller {
	if interval <= 0 {
		interval = time.Second
	}
	if attempts <= 0 {
		attempts = 20
	}
	return &Poller{source: source, interval: interval, attempts: attempts}
}

// Await polls until the job completes, fails, or the attempt budget is
// exhausted.
func (p *Poller) Await(ctx context.Context, jobID string) (credit.Assessment, error) {
	for i := 0; i < p.attempts; i++ {
		job, err := p.source.GetStatus(jobID)
		if err != nil {
			return credit.Assessment{}, err
		}
		switch job.Status {
		case StatusCompleted:
			if job.Result == nil {
				return credit.Assessment{}, fmt.Errorf("agent: job %s completed without result", jobID)
			}
			return *job.Result, nil
		case StatusFailed:
			if job.Error != "" {
				return credit.Assessment{}, fmt.Errorf("agent: credit scoring failed: %s", job.Error)
			}
			return credit.Assessment{}, errors.New("agent: credit scoring failed")
		}
		select {
		case <-ctx.Done():
			return credit.Assessment{}, ctx.Err()
		case <-time.After(p.interval):
		}
	}
	return credit.Assessment{}, ErrPollTimeout
}
