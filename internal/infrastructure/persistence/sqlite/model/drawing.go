package model

import "gorm.io/datatypes"

type Drawing struct {
	DrawingID        string         `gorm:"column:drawing_id;primaryKey;type:text"`
	CompanyID        string         `gorm:"column:company_id;type:text;not null;index"`
	Status           string         `gorm:"column:status;type:text;not null"`
	Title            *string        `gorm:"column:title;type:text"`
	DrawingNo        *string        `gorm:"column:drawing_no;type:text"`
	PartName         *string        `gorm:"column:part_name;type:text"`
	Material         *string        `gorm:"column:material;type:text"`
	SurfaceTreatment *string        `gorm:"column:surface_treatment;type:text"`
	ProcessNote      *string        `gorm:"column:process_note;type:text"`
	IssueDate        *string        `gorm:"column:issue_date;type:text"`
	Tags             datatypes.JSON `gorm:"column:tags"`
	ExtractedJSON    datatypes.JSON `gorm:"column:extracted_json"`
	CreatedAt        string         `gorm:"column:created_at;type:text;not null"`
	UpdatedAt        string         `gorm:"column:updated_at;type:text;not null"`
}

func (Drawing) TableName() string {
	return "drawings"
}
