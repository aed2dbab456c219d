package model

type OcrToken struct {
	TokenID    uint64   `gorm:"column:token_id;primaryKey;autoIncrement"`
	DrawingID  string   `gorm:"column:drawing_id;type:text;not null;index"`
	PageFileID string   `gorm:"column:page_file_id;type:text;not null;index"`
	PageNo     int      `gorm:"column:page_no;not null"`
	Text       string   `gorm:"column:text;type:text;not null"`
	XMin       float64  `gorm:"column:x_min;not null"`
	YMin       float64  `gorm:"column:y_min;not null"`
	XMax       float64  `gorm:"column:x_max;not null"`
	YMax       float64  `gorm:"column:y_max;not null"`
	Confidence *float64 `gorm:"column:confidence"`
	Level      string   `gorm:"column:level;type:text;not null;default:'word'"`
}

func (OcrToken) TableName() string {
	return "ocr_tokens"
}
