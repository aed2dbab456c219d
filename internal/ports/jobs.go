package ports

import (
	"context"
	"errors"
)

var ErrJobNotFound = errors.New("processing job not found")

// Job lifecycle: queued -> running -> success | error. Only the poll loop
// moves a job past queued.
const (
	JobStatusQueued  = "queued"
	JobStatusRunning = "running"
	JobStatusSuccess = "success"
	JobStatusError   = "error"
)

type ProcessingJob struct {
	JobID     string
	DrawingID string
	Status    string
	Step      string
	CreatedAt string
}

// JobUpdate carries the mutable job columns. Nil fields are left untouched.
type JobUpdate struct {
	Status       string
	Step         *string
	ErrorMessage *string
	StartedAt    *string
	FinishedAt   *string
}

type JobRepository interface {
	// CreateQueued inserts a new job with status=queued and returns it.
	CreateQueued(ctx context.Context, drawingID string) (ProcessingJob, error)
	// FetchOldestQueued returns the single oldest queued job, if any.
	FetchOldestQueued(ctx context.Context) (ProcessingJob, bool, error)
	Update(ctx context.Context, jobID string, update JobUpdate) error
}
