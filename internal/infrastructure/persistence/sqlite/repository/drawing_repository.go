package repository

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/imai1205/zumen-connect-backend/internal/errs"
	"github.com/imai1205/zumen-connect-backend/internal/infrastructure/persistence/sqlite/model"
	"github.com/imai1205/zumen-connect-backend/internal/ports"
)

type DrawingRepository struct {
	db *gorm.DB
}

func NewDrawingRepository(db *gorm.DB) *DrawingRepository {
	return &DrawingRepository{db: db}
}

func (r *DrawingRepository) Get(ctx context.Context, drawingID string) (ports.Drawing, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Drawing{}, err
	}

	var row model.Drawing
	err = db.Where("drawing_id = ?", drawingID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ports.Drawing{}, ports.ErrDrawingNotFound
	}
	if err != nil {
		return ports.Drawing{}, errs.Wrap(err, "query drawing")
	}

	return ports.Drawing{
		DrawingID: row.DrawingID,
		CompanyID: row.CompanyID,
		Status:    row.Status,
	}, nil
}

func (r *DrawingRepository) SetStatus(ctx context.Context, drawingID string, status string) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	result := db.Model(&model.Drawing{}).
		Where("drawing_id = ?", drawingID).
		Updates(map[string]any{"status": status, "updated_at": nowRFC3339()})
	if result.Error != nil {
		return errs.Wrap(result.Error, "update drawing status")
	}
	if result.RowsAffected == 0 {
		return ports.ErrDrawingNotFound
	}
	return nil
}

func (r *DrawingRepository) ExtractedJSON(ctx context.Context, drawingID string) (map[string]any, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var row model.Drawing
	err = db.Select("drawing_id", "extracted_json").
		Where("drawing_id = ?", drawingID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ports.ErrDrawingNotFound
	}
	if err != nil {
		return nil, errs.Wrap(err, "query extracted_json")
	}

	return decodeDocument(row.ExtractedJSON), nil
}

// MergeExtractedJSON rewrites a single top-level key of the document. Sibling
// keys written by the other pipeline stage are carried over untouched.
func (r *DrawingRepository) MergeExtractedJSON(ctx context.Context, drawingID string, key string, doc any) error {
	existing, err := r.ExtractedJSON(ctx, drawingID)
	if err != nil {
		return err
	}

	existing[key] = doc
	raw, err := json.Marshal(existing)
	if err != nil {
		return errs.Wrap(err, "encode extracted_json")
	}

	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}
	result := db.Model(&model.Drawing{}).
		Where("drawing_id = ?", drawingID).
		Updates(map[string]any{"extracted_json": datatypes.JSON(raw), "updated_at": nowRFC3339()})
	if result.Error != nil {
		return errs.Wrap(result.Error, "update extracted_json")
	}
	if result.RowsAffected == 0 {
		return ports.ErrDrawingNotFound
	}
	return nil
}

func (r *DrawingRepository) UpdateColumns(ctx context.Context, drawingID string, cols ports.DrawingColumns) error {
	values := map[string]any{}
	setIfPresent(values, "title", cols.Title)
	setIfPresent(values, "drawing_no", cols.DrawingNo)
	setIfPresent(values, "part_name", cols.PartName)
	setIfPresent(values, "material", cols.Material)
	setIfPresent(values, "surface_treatment", cols.SurfaceTreatment)
	setIfPresent(values, "process_note", cols.ProcessNote)
	setIfPresent(values, "issue_date", cols.IssueDate)
	if len(cols.Tags) > 0 {
		raw, err := json.Marshal(cols.Tags)
		if err != nil {
			return errs.Wrap(err, "encode tags")
		}
		values["tags"] = datatypes.JSON(raw)
	}
	if len(values) == 0 {
		return nil
	}
	values["updated_at"] = nowRFC3339()

	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}
	result := db.Model(&model.Drawing{}).Where("drawing_id = ?", drawingID).Updates(values)
	if result.Error != nil {
		return errs.Wrap(result.Error, "update drawing columns")
	}
	if result.RowsAffected == 0 {
		return ports.ErrDrawingNotFound
	}
	return nil
}

// setIfPresent enforces the column invariant: an empty extracted value never
// overwrites an existing column value.
func setIfPresent(values map[string]any, column string, v *string) {
	if v != nil && *v != "" {
		values[column] = *v
	}
}

func decodeDocument(raw datatypes.JSON) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil || doc == nil {
		return map[string]any{}
	}
	return doc
}
