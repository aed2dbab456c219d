package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/imai1205/zumen-connect-backend/internal/bootstrap/logging"
	"github.com/imai1205/zumen-connect-backend/internal/errs"
	"github.com/imai1205/zumen-connect-backend/internal/ports"
)

// claimStep is the step recorded when a job is claimed, before any stage
// has run.
const claimStep = "convert"

// DrawingProcessor runs the full pipeline for one drawing.
type DrawingProcessor interface {
	ProcessDrawing(ctx context.Context, drawingID string) error
}

// Service is the background poll loop: claim the oldest queued job,
// process it, record the outcome. One job per cycle; claiming happens
// before processing so a second worker never picks up the same job.
type Service struct {
	jobs      ports.JobRepository
	processor DrawingProcessor
	interval  time.Duration
	now       func() time.Time
}

func NewService(jobs ports.JobRepository, processor DrawingProcessor, interval time.Duration) *Service {
	if interval < time.Second {
		interval = time.Second
	}
	return &Service{
		jobs:      jobs,
		processor: processor,
		interval:  interval,
		now:       time.Now,
	}
}

// Run polls until ctx is cancelled. Cycle errors are logged, never fatal.
func (s *Service) Run(ctx context.Context) error {
	logging.Info(ctx, "job poll loop started",
		slog.Duration("interval", s.interval))

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
			logging.Error(ctx, "poll cycle error",
				slog.String("error", err.Error()))
		}

		timer.Reset(s.interval)
		select {
		case <-ctx.Done():
			logging.Info(ctx, "job poll loop stopped")
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// RunOnce performs a single poll cycle. An empty queue is not an error.
func (s *Service) RunOnce(ctx context.Context) error {
	job, ok, err := s.jobs.FetchOldestQueued(ctx)
	if err != nil {
		return errs.Wrap(err, "fetch queued job")
	}
	if !ok {
		return nil
	}

	ctx = logging.WithAttrs(ctx,
		slog.String("job_id", job.JobID),
		slog.String("drawing_id", job.DrawingID))

	// Claim first: a job visible as running is never picked up twice.
	step := claimStep
	startedAt := s.timestamp()
	err = s.jobs.Update(ctx, job.JobID, ports.JobUpdate{
		Status:    ports.JobStatusRunning,
		Step:      &step,
		StartedAt: &startedAt,
	})
	if err != nil {
		return errs.Wrap(err, "claim job")
	}

	if err := s.processor.ProcessDrawing(ctx, job.DrawingID); err != nil {
		logging.Error(ctx, "job failed",
			slog.String("error", err.Error()))
		message := err.Error()
		finishedAt := s.timestamp()
		updateErr := s.jobs.Update(ctx, job.JobID, ports.JobUpdate{
			Status:       ports.JobStatusError,
			ErrorMessage: &message,
			FinishedAt:   &finishedAt,
		})
		if updateErr != nil {
			return errs.Wrap(updateErr, "record job error")
		}
		return nil
	}

	finishedAt := s.timestamp()
	err = s.jobs.Update(ctx, job.JobID, ports.JobUpdate{
		Status:     ports.JobStatusSuccess,
		FinishedAt: &finishedAt,
	})
	if err != nil {
		return errs.Wrap(err, "record job success")
	}
	logging.Info(ctx, "job completed")
	return nil
}

func (s *Service) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}
