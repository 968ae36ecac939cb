package agent

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"lendada/credit"
)

// Status is the state of a scoring job.
type Status string

// Job states. A job is created in processing; pending is reserved for
// queued execution.
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

var (
	ErrMissingFields = errors.New("agent: borrowerAddress, loanAmount and duration are required")
	ErrJobNotFound   = errors.New("agent: job not found")
)

// Request describes one scoring job. LoanAmount is ADA.
type Request struct {
	BorrowerAddress string  `json:"borrowerAddress"`
	LoanAmount      float64 `json:"loanAmount"`
	Duration        int     `json:"duration"`
}

// Validate ensures all required fields are present.
func (r Request) Validate() error {
	if strings.TrimSpace(r.BorrowerAddress) == "" || r.LoanAmount <= 0 || r.Duration <= 0 {
		return ErrMissingFields
	}
	return nil
}

// Job is the externally visible snapshot of a scoring job.
type Job struct {
	ID        string             `json:"jobId"`
	Status    Status             `json:"status"`
	Progress  int                `json:"progress"`
	Result    *credit.Assessment `json:"result,omitempty"`
	Error     string             `json:"error,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// Scorer runs the scoring pipeline for one request.
type Scorer interface {
	Score(ctx context.Context, address string, requestedAmount float64, durationDays int) (credit.Assessment, error)
}

// Manager owns the in-memory job table. Jobs are evicted once terminal and
// older than the retention window; the table never grows without bound.
type Manager struct {
	mu        sync.RWMutex
	jobs      map[string]*Job
	scorer    Scorer
	logger    *slog.Logger
	retention time.Duration
	now       func() time.Time
}

// NewManager constructs a job manager with the given terminal-job retention.
func NewManager(scorer Scorer, retention time.Duration, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if retention <= 0 {
		retention = time.Hour
	}
	return &Manager{
		jobs:      make(map[string]*Job),
		scorer:    scorer,
		logger:    logger,
		retention: retention,
		now:       time.Now,
	}
}

// SetNowFunc overrides the wall clock, for tests.
func (m *Manager) SetNowFunc(now func() time.Time) {
	if now != nil {
		m.now = now
	}
}

// StartJob validates the request, registers a job in processing state with
// progress 0 and schedules the computation without blocking the caller.
func (m *Manager) StartJob(req Request) (Job, error) {
	if err := req.Validate(); err != nil {
		return Job{}, err
	}
	now := m.now()
	job := &Job{
		ID:        "job_" + uuid.NewString(),
		Status:    StatusProcessing,
		Progress:  0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	go m.process(job.ID, req)

	return *job, nil
}

// GetStatus returns the current snapshot for a job id.
func (m *Manager) GetStatus(jobID string) (Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return Job{}, ErrJobNotFound
	}
	return *job, nil
}

// process runs the scoring computation detached from the initiating call.
// Progress moves 0 -> 25 -> 75 -> 100; failures carry the error message.
func (m *Manager) process(jobID string, req Request) {
	ctx := context.Background()

	m.setProgress(jobID, 25)
	result, err := m.scorer.Score(ctx, req.BorrowerAddress, req.LoanAmount, req.Duration)
	if err != nil {
		m.fail(jobID, err)
		return
	}
	m.setProgress(jobID, 75)
	m.complete(jobID, result)
}

func (m *Manager) setProgress(jobID string, progress int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job, ok := m.jobs[jobID]; ok && !job.Status.Terminal() {
		job.Progress = progress
		job.UpdatedAt = m.now()
	}
}

func (m *Manager) complete(jobID string, result credit.Assessment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job, ok := m.jobs[jobID]; ok && !job.Status.Terminal() {
		job.Status = StatusCompleted
		job.Progress = 100
		job.Result = &result
		job.UpdatedAt = m.now()
	}
}

func (m *Manager) fail(jobID string, err error) {
	m.logger.Error("scoring job failed", "jobId", jobID, "error", err)
	m.mu.Lock()
	defer m.mu.Unlock()
	if job, ok := m.jobs[jobID]; ok && !job.Status.Terminal() {
		job.Status = StatusFailed
		job.Error = err.Error()
		job.UpdatedAt = m.now()
	}
}

// Sweep evicts terminal jobs older than the retention window and returns
// the number removed.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.retention)
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, job := range m.jobs {
		if job.Status.Terminal() && job.UpdatedAt.Before(cutoff) {
			delete(m.jobs, id)
			removed++
		}
	}
	return removed
}

// Start runs the eviction loop until the context is cancelled.
func (m *Manager) Start(ctx context.Context) {
	interval := m.retention / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := m.Sweep(); removed > 0 {
				m.logger.Info("evicted terminal scoring jobs", "count", removed)
			}
		}
	}
}
