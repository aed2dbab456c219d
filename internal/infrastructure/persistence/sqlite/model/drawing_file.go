package model

type DrawingFile struct {
	FileID      string `gorm:"column:file_id;primaryKey;type:text"`
	DrawingID   string `gorm:"column:drawing_id;type:text;not null;index:idx_files_drawing_type,priority:1"`
	Type        string `gorm:"column:type;type:text;not null;index:idx_files_drawing_type,priority:2"`
	GCSPath     string `gorm:"column:gcs_path;type:text;not null"`
	Mime        string `gorm:"column:mime;type:text;not null"`
	Size        int64  `gorm:"column:size;not null;default:0"`
	PageNo      *int   `gorm:"column:page_no"`
	ImageWidth  *int   `gorm:"column:image_width"`
	ImageHeight *int   `gorm:"column:image_height"`
	CreatedAt   string `gorm:"column:created_at;type:text;not null"`
}

func (DrawingFile) TableName() string {
	return "drawing_files"
}
