package ports

import "context"

const (
	FileTypeOriginal  = "original"
	FileTypePageImage = "page_image"
	FileTypeThumbnail = "thumbnail"
)

type DrawingFile struct {
	FileID      string
	DrawingID   string
	Type        string
	GCSPath     string
	Mime        string
	Size        int64
	PageNo      int
	ImageWidth  int
	ImageHeight int
}

type DrawingFileCreate struct {
	DrawingID string
	Type      string
	GCSPath   string
	Mime      string
	Size      int64
	PageNo    *int
}

type FileRepository interface {
	// FindOriginalPDF returns the drawing's original PDF artifact, if any.
	FindOriginalPDF(ctx context.Context, drawingID string) (DrawingFile, bool, error)
	// ListByType returns artifacts of one type in ascending page order.
	ListByType(ctx context.Context, drawingID string, fileType string) ([]DrawingFile, error)
	Insert(ctx context.Context, input DrawingFileCreate) (DrawingFile, error)
	UpdateImageSize(ctx context.Context, fileID string, width int, height int) error
}
