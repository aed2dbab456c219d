package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/imai1205/zumen-connect-backend/internal/errs"
	"github.com/imai1205/zumen-connect-backend/internal/infrastructure/persistence/sqlite/model"
	"github.com/imai1205/zumen-connect-backend/internal/ports"
)

type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) CreateQueued(ctx context.Context, drawingID string) (ports.ProcessingJob, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.ProcessingJob{}, err
	}

	row := model.ProcessingJob{
		JobID:     uuid.NewString(),
		DrawingID: drawingID,
		Status:    ports.JobStatusQueued,
		CreatedAt: nowRFC3339(),
	}
	if err := db.Create(&row).Error; err != nil {
		return ports.ProcessingJob{}, errs.Wrap(err, "insert processing job")
	}
	return mapJob(row), nil
}

func (r *JobRepository) FetchOldestQueued(ctx context.Context) (ports.ProcessingJob, bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.ProcessingJob{}, false, err
	}

	var row model.ProcessingJob
	err = db.
		Where("status = ?", ports.JobStatusQueued).
		Order("created_at asc").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ports.ProcessingJob{}, false, nil
	}
	if err != nil {
		return ports.ProcessingJob{}, false, errs.Wrap(err, "query queued job")
	}
	return mapJob(row), true, nil
}

func (r *JobRepository) Update(ctx context.Context, jobID string, update ports.JobUpdate) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	values := map[string]any{"status": update.Status}
	if update.Step != nil {
		values["step"] = *update.Step
	}
	if update.ErrorMessage != nil {
		values["error_message"] = *update.ErrorMessage
	}
	if update.StartedAt != nil {
		values["started_at"] = *update.StartedAt
	}
	if update.FinishedAt != nil {
		values["finished_at"] = *update.FinishedAt
	}

	result := db.Model(&model.ProcessingJob{}).Where("job_id = ?", jobID).Updates(values)
	if result.Error != nil {
		return errs.Wrap(result.Error, "update processing job")
	}
	if result.RowsAffected == 0 {
		return ports.ErrJobNotFound
	}
	return nil
}

func mapJob(row model.ProcessingJob) ports.ProcessingJob {
	return ports.ProcessingJob{
		JobID:     row.JobID,
		DrawingID: row.DrawingID,
		Status:    row.Status,
		Step:      row.Step,
		CreatedAt: row.CreatedAt,
	}
}
