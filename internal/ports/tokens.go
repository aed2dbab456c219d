package ports

import "context"

// OCRToken is one recognized word with its bounding box in source-image
// pixel space.
type OCRToken struct {
	Text       string
	XMin       float64
	YMin       float64
	XMax       float64
	YMax       float64
	Confidence *float64
	Level      string
}

type TokenRepository interface {
	// ReplacePageTokens deletes every token of the page and bulk-inserts the
	// new set. Callers wrap this in a UnitOfWork so a re-run never leaves a
	// page half-replaced.
	ReplacePageTokens(ctx context.Context, drawingID string, pageFileID string, pageNo int, tokens []OCRToken) error
}
