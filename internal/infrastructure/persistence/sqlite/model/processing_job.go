package model

type ProcessingJob struct {
	JobID        string  `gorm:"column:job_id;primaryKey;type:text"`
	DrawingID    string  `gorm:"column:drawing_id;type:text;not null;index"`
	Status       string  `gorm:"column:status;type:text;not null;index:idx_jobs_status_created,priority:1"`
	Step         string  `gorm:"column:step;type:text;not null;default:''"`
	ErrorMessage *string `gorm:"column:error_message;type:text"`
	StartedAt    *string `gorm:"column:started_at;type:text"`
	FinishedAt   *string `gorm:"column:finished_at;type:text"`
	CreatedAt    string  `gorm:"column:created_at;type:text;not null;index:idx_jobs_status_created,priority:2"`
}

func (ProcessingJob) TableName() string {
	return "processing_jobs"
}
