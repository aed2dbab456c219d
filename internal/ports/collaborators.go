package ports

import "context"

// BlobStore moves artifact bytes in and out of object storage.
type BlobStore interface {
	Download(ctx context.Context, path string) ([]byte, error)
	Upload(ctx context.Context, path string, data []byte, contentType string) error
}

// PageImage is one rasterized PDF page.
type PageImage struct {
	PageNo int
	PNG    []byte
	Width  int
	Height int
}

type Rasterizer interface {
	// Rasterize renders every page of the PDF to PNG at the given DPI, in
	// page order starting at 1.
	Rasterize(ctx context.Context, pdf []byte, dpi int) ([]PageImage, error)
	// Thumbnail scales a PNG down to fit within maxW x maxH.
	Thumbnail(ctx context.Context, png []byte, maxW int, maxH int) ([]byte, error)
}

type OCRResult struct {
	Text        string
	Tokens      []OCRToken
	ImageWidth  int
	ImageHeight int
}

type OCREngine interface {
	Recognize(ctx context.Context, image []byte, language string) (OCRResult, error)
}

// FieldModel is the generative fallback for title-block extraction. Both
// calls return the raw decoded JSON object; a response the model wrapped in a
// fenced code block is unwrapped, and an undecodable response yields an empty
// map, not an error.
type FieldModel interface {
	ExtractFromText(ctx context.Context, ocrText string) (map[string]any, error)
	ExtractFromImage(ctx context.Context, image []byte, mime string, ocrText string) (map[string]any, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type VectorIndex interface {
	Upsert(ctx context.Context, id string, values []float32, metadata map[string]string) error
}
