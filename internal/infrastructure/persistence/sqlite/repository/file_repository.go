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

var ErrFileNotFound = errors.New("drawing file not found")

type FileRepository struct {
	db *gorm.DB
}

func NewFileRepository(db *gorm.DB) *FileRepository {
	return &FileRepository{db: db}
}

func (r *FileRepository) FindOriginalPDF(ctx context.Context, drawingID string) (ports.DrawingFile, bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.DrawingFile{}, false, err
	}

	var row model.DrawingFile
	err = db.
		Where("drawing_id = ? AND type = ? AND mime = ?", drawingID, ports.FileTypeOriginal, "application/pdf").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ports.DrawingFile{}, false, nil
	}
	if err != nil {
		return ports.DrawingFile{}, false, errs.Wrap(err, "query original pdf")
	}
	return mapFile(row), true, nil
}

func (r *FileRepository) ListByType(ctx context.Context, drawingID string, fileType string) ([]ports.DrawingFile, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.DrawingFile
	if err := db.
		Where("drawing_id = ? AND type = ?", drawingID, fileType).
		Order("page_no asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query drawing files")
	}

	files := make([]ports.DrawingFile, 0, len(rows))
	for _, row := range rows {
		files = append(files, mapFile(row))
	}
	return files, nil
}

func (r *FileRepository) Insert(ctx context.Context, input ports.DrawingFileCreate) (ports.DrawingFile, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.DrawingFile{}, err
	}

	row := model.DrawingFile{
		FileID:    uuid.NewString(),
		DrawingID: input.DrawingID,
		Type:      input.Type,
		GCSPath:   input.GCSPath,
		Mime:      input.Mime,
		Size:      input.Size,
		PageNo:    input.PageNo,
		CreatedAt: nowRFC3339(),
	}
	if err := db.Create(&row).Error; err != nil {
		return ports.DrawingFile{}, errs.Wrap(err, "insert drawing file")
	}
	return mapFile(row), nil
}

func (r *FileRepository) UpdateImageSize(ctx context.Context, fileID string, width int, height int) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	result := db.Model(&model.DrawingFile{}).
		Where("file_id = ?", fileID).
		Updates(map[string]any{"image_width": width, "image_height": height})
	if result.Error != nil {
		return errs.Wrap(result.Error, "update image size")
	}
	if result.RowsAffected == 0 {
		return ErrFileNotFound
	}
	return nil
}

func mapFile(row model.DrawingFile) ports.DrawingFile {
	file := ports.DrawingFile{
		FileID:    row.FileID,
		DrawingID: row.DrawingID,
		Type:      row.Type,
		GCSPath:   row.GCSPath,
		Mime:      row.Mime,
		Size:      row.Size,
	}
	if row.PageNo != nil {
		file.PageNo = *row.PageNo
	}
	if row.ImageWidth != nil {
		file.ImageWidth = *row.ImageWidth
	}
	if row.ImageHeight != nil {
		file.ImageHeight = *row.ImageHeight
	}
	return file
}
