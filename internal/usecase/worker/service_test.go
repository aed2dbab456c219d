package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/imai1205/zumen-connect-backend/internal/ports"
)

type jobEvent struct {
	kind   string // "claim", "process", "finish"
	status string
}

type fakeJobs struct {
	queue   []ports.ProcessingJob
	updates map[string][]ports.JobUpdate
	events  *[]jobEvent
}

func (f *fakeJobs) CreateQueued(ctx context.Context, drawingID string) (ports.ProcessingJob, error) {
	return ports.ProcessingJob{}, nil
}

func (f *fakeJobs) FetchOldestQueued(ctx context.Context) (ports.ProcessingJob, bool, error) {
	if len(f.queue) == 0 {
		return ports.ProcessingJob{}, false, nil
	}
	job := f.queue[0]
	f.queue = f.queue[1:]
	return job, true, nil
}

func (f *fakeJobs) Update(ctx context.Context, jobID string, update ports.JobUpdate) error {
	if f.updates == nil {
		f.updates = map[string][]ports.JobUpdate{}
	}
	f.updates[jobID] = append(f.updates[jobID], update)
	if f.events != nil {
		kind := "finish"
		if update.Status == ports.JobStatusRunning {
			kind = "claim"
		}
		*f.events = append(*f.events, jobEvent{kind: kind, status: update.Status})
	}
	return nil
}

type fakeProcessor struct {
	err    error
	seen   []string
	events *[]jobEvent
}

func (f *fakeProcessor) ProcessDrawing(ctx context.Context, drawingID string) error {
	f.seen = append(f.seen, drawingID)
	if f.events != nil {
		*f.events = append(*f.events, jobEvent{kind: "process"})
	}
	return f.err
}

func TestRunOnceEmptyQueue(t *testing.T) {
	jobs := &fakeJobs{}
	processor := &fakeProcessor{}
	svc := NewService(jobs, processor, time.Second)

	if err := svc.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if len(processor.seen) != 0 {
		t.Fatal("processor must not run on empty queue")
	}
}

func TestRunOnceClaimsBeforeProcessing(t *testing.T) {
	var events []jobEvent
	jobs := &fakeJobs{
		queue:  []ports.ProcessingJob{{JobID: "j1", DrawingID: "d1", Status: ports.JobStatusQueued}},
		events: &events,
	}
	processor := &fakeProcessor{events: &events}
	svc := NewService(jobs, processor, time.Second)

	if err := svc.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	if len(events) != 3 {
		t.Fatalf("events = %v", events)
	}
	if events[0].kind != "claim" || events[1].kind != "process" || events[2].kind != "finish" {
		t.Fatalf("event order = %v", events)
	}

	claim := jobs.updates["j1"][0]
	if claim.Status != ports.JobStatusRunning {
		t.Fatalf("claim status = %q", claim.Status)
	}
	if claim.Step == nil || *claim.Step != claimStep {
		t.Fatalf("claim step = %v", claim.Step)
	}
	if claim.StartedAt == nil {
		t.Fatal("claim must set started_at")
	}
	if claim.FinishedAt != nil {
		t.Fatal("claim must not set finished_at")
	}
}

func TestRunOnceSuccess(t *testing.T) {
	jobs := &fakeJobs{
		queue: []ports.ProcessingJob{{JobID: "j1", DrawingID: "d1"}},
	}
	processor := &fakeProcessor{}
	svc := NewService(jobs, processor, time.Second)

	if err := svc.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	final := jobs.updates["j1"][1]
	if final.Status != ports.JobStatusSuccess {
		t.Fatalf("final status = %q", final.Status)
	}
	if final.FinishedAt == nil {
		t.Fatal("success must set finished_at")
	}
	if final.ErrorMessage != nil {
		t.Fatal("success must not set error_message")
	}
	if len(processor.seen) != 1 || processor.seen[0] != "d1" {
		t.Fatalf("processed = %v", processor.seen)
	}
}

func TestRunOnceProcessorFailure(t *testing.T) {
	jobs := &fakeJobs{
		queue: []ports.ProcessingJob{{JobID: "j1", DrawingID: "d1"}},
	}
	processor := &fakeProcessor{err: errors.New("rasterize: boom")}
	svc := NewService(jobs, processor, time.Second)

	if err := svc.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	final := jobs.updates["j1"][1]
	if final.Status != ports.JobStatusError {
		t.Fatalf("final status = %q", final.Status)
	}
	if final.ErrorMessage == nil || *final.ErrorMessage != "rasterize: boom" {
		t.Fatalf("error message = %v", final.ErrorMessage)
	}
	if final.FinishedAt == nil {
		t.Fatal("error must set finished_at")
	}
}

func TestRunOnceOneJobPerCycle(t *testing.T) {
	jobs := &fakeJobs{
		queue: []ports.ProcessingJob{
			{JobID: "j1", DrawingID: "d1"},
			{JobID: "j2", DrawingID: "d2"},
		},
	}
	processor := &fakeProcessor{}
	svc := NewService(jobs, processor, time.Second)

	if err := svc.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if len(processor.seen) != 1 {
		t.Fatalf("processed %d jobs in one cycle, want 1", len(processor.seen))
	}
}

func TestNewServiceFloorsInterval(t *testing.T) {
	svc := NewService(&fakeJobs{}, &fakeProcessor{}, 0)
	if svc.interval != time.Second {
		t.Fatalf("interval = %v, want 1s", svc.interval)
	}
	svc = NewService(&fakeJobs{}, &fakeProcessor{}, 5*time.Second)
	if svc.interval != 5*time.Second {
		t.Fatalf("interval = %v, want 5s", svc.interval)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	jobs := &fakeJobs{}
	svc := NewService(jobs, &fakeProcessor{}, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
