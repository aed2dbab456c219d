package model

type ExtractionCacheEntry struct {
	Key       string `gorm:"column:key;primaryKey;type:text"`
	Value     string `gorm:"column:value;type:text;not null"`
	UpdatedAt string `gorm:"column:updated_at;type:text;not null"`
}

func (ExtractionCacheEntry) TableName() string {
	return "extraction_cache"
}
