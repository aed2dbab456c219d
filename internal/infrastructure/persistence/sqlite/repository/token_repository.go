package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/imai1205/zumen-connect-backend/internal/errs"
	"github.com/imai1205/zumen-connect-backend/internal/infrastructure/persistence/sqlite/model"
	"github.com/imai1205/zumen-connect-backend/internal/ports"
)

// tokenInsertBatchSize bounds a single bulk insert; dense drawings produce
// thousands of word tokens per page.
const tokenInsertBatchSize = 1000

type TokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) ReplacePageTokens(ctx context.Context, drawingID string, pageFileID string, pageNo int, tokens []ports.OCRToken) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	if err := db.Where("page_file_id = ?", pageFileID).Delete(&model.OcrToken{}).Error; err != nil {
		return errs.Wrap(err, "delete page tokens")
	}
	if len(tokens) == 0 {
		return nil
	}

	rows := make([]model.OcrToken, 0, len(tokens))
	for _, token := range tokens {
		level := token.Level
		if level == "" {
			level = "word"
		}
		rows = append(rows, model.OcrToken{
			DrawingID:  drawingID,
			PageFileID: pageFileID,
			PageNo:     pageNo,
			Text:       token.Text,
			XMin:       token.XMin,
			YMin:       token.YMin,
			XMax:       token.XMax,
			YMax:       token.YMax,
			Confidence: token.Confidence,
			Level:      level,
		})
	}

	if err := db.CreateInBatches(rows, tokenInsertBatchSize).Error; err != nil {
		return errs.Wrap(err, "insert page tokens")
	}
	return nil
}

// CountByPage exists for tests and diagnostics.
func (r *TokenRepository) CountByPage(ctx context.Context, pageFileID string) (int64, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := db.Model(&model.OcrToken{}).Where("page_file_id = ?", pageFileID).Count(&count).Error; err != nil {
		return 0, errs.Wrap(err, "count page tokens")
	}
	return count, nil
}
