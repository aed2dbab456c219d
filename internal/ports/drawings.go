package ports

import (
	"context"
	"errors"
)

var ErrDrawingNotFound = errors.New("drawing not found")

const (
	DrawingStatusQueued     = "queued_for_processing"
	DrawingStatusProcessing = "processing"
)

type Drawing struct {
	DrawingID string
	CompanyID string
	Status    string
}

// DrawingColumns mirrors the extraction result into dedicated columns.
// Only non-nil, non-empty values are written; an absent extracted value never
// clears an existing column.
type DrawingColumns struct {
	Title            *string
	DrawingNo        *string
	PartName         *string
	Material         *string
	SurfaceTreatment *string
	ProcessNote      *string
	IssueDate        *string
	Tags             []string
}

type DrawingRepository interface {
	Get(ctx context.Context, drawingID string) (Drawing, error)
	SetStatus(ctx context.Context, drawingID string, status string) error
	// ExtractedJSON returns the drawing's document, or an empty map when the
	// column is null or malformed.
	ExtractedJSON(ctx context.Context, drawingID string) (map[string]any, error)
	// MergeExtractedJSON sets one top-level key of the document, preserving
	// every sibling key (read-merge-write).
	MergeExtractedJSON(ctx context.Context, drawingID string, key string, doc any) error
	UpdateColumns(ctx context.Context, drawingID string, cols DrawingColumns) error
}
