package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/imai1205/zumen-connect-backend/internal/bootstrap/logging"
	"github.com/imai1205/zumen-connect-backend/internal/errs"
	"github.com/imai1205/zumen-connect-backend/internal/ports"
	"github.com/imai1205/zumen-connect-backend/internal/usecase/extraction"
)

const (
	rasterDPI       = 200
	thumbnailMaxPx  = 400
	searchTextLimit = 8000
	ocrLanguage     = "ja"
)

// FieldExtractor is the cascade the extract stage delegates to.
type FieldExtractor interface {
	ExtractForDrawing(ctx context.Context, drawingID string) (extraction.Result, error)
}

// Service runs the per-drawing processing pipeline: rasterize, OCR,
// field extraction, vectorize. A rasterize failure aborts the job; OCR and
// extraction failures are logged and absorbed so later stages still run;
// a vectorize failure fails the job.
type Service struct {
	drawings  ports.DrawingRepository
	files     ports.FileRepository
	tokens    ports.TokenRepository
	uow       ports.UnitOfWork
	blob      ports.BlobStore
	raster    ports.Rasterizer
	ocr       ports.OCREngine
	extractor FieldExtractor
	embedder  ports.Embedder
	index     ports.VectorIndex
	now       func() time.Time
}

// NewService wires the pipeline. embedder and index may be nil when the
// vector stack is not configured; the vectorize stage then skips cleanly.
func NewService(
	drawings ports.DrawingRepository,
	files ports.FileRepository,
	tokens ports.TokenRepository,
	uow ports.UnitOfWork,
	blob ports.BlobStore,
	raster ports.Rasterizer,
	ocr ports.OCREngine,
	extractor FieldExtractor,
	embedder ports.Embedder,
	index ports.VectorIndex,
) *Service {
	return &Service{
		drawings:  drawings,
		files:     files,
		tokens:    tokens,
		uow:       uow,
		blob:      blob,
		raster:    raster,
		ocr:       ocr,
		extractor: extractor,
		embedder:  embedder,
		index:     index,
		now:       time.Now,
	}
}

// ProcessDrawing runs every stage for one drawing. A drawing with neither
// an original PDF nor page images is skipped without error.
func (s *Service) ProcessDrawing(ctx context.Context, drawingID string) error {
	ctx = logging.WithAttrs(ctx, slog.String("drawing_id", drawingID))

	if err := s.drawings.SetStatus(ctx, drawingID, ports.DrawingStatusProcessing); err != nil {
		return errs.Wrap(err, "mark drawing processing")
	}

	pdf, hasPDF, err := s.files.FindOriginalPDF(ctx, drawingID)
	if err != nil {
		return errs.Wrap(err, "look up original pdf")
	}
	if hasPDF {
		if err := s.rasterize(ctx, drawingID, pdf); err != nil {
			return errs.Wrap(err, "rasterize")
		}
	} else {
		pages, err := s.files.ListByType(ctx, drawingID, ports.FileTypePageImage)
		if err != nil {
			return errs.Wrap(err, "list page images")
		}
		if len(pages) == 0 {
			logging.Info(ctx, "no pdf or page images, skipping drawing")
			return nil
		}
		logging.Info(ctx, "no pdf, reusing existing page images",
			slog.Int("pages", len(pages)))
	}

	if doc, ok := s.runOCR(ctx, drawingID); ok {
		if err := s.drawings.MergeExtractedJSON(ctx, drawingID, "ocr", doc); err != nil {
			logging.Error(ctx, "saving ocr results failed",
				slog.String("error", err.Error()))
		}
	}

	s.runExtraction(ctx, drawingID)

	if err := s.vectorize(ctx, drawingID); err != nil {
		return errs.Wrap(err, "vectorize")
	}
	return nil
}

// rasterize downloads the original PDF, renders every page, and uploads a
// page-1 thumbnail plus one PNG per page, registering each artifact.
func (s *Service) rasterize(ctx context.Context, drawingID string, pdf ports.DrawingFile) error {
	drawing, err := s.drawings.Get(ctx, drawingID)
	if err != nil {
		return err
	}
	if drawing.CompanyID == "" {
		return fmt.Errorf("drawing %s has no company id", drawingID)
	}

	data, err := s.blob.Download(ctx, pdf.GCSPath)
	if err != nil {
		return errs.Wrapf(err, "download pdf %q", pdf.GCSPath)
	}

	pages, err := s.raster.Rasterize(ctx, data, rasterDPI)
	if err != nil {
		return err
	}
	logging.Info(ctx, "pdf rasterized", slog.Int("pages", len(pages)))

	now := s.now().UTC()
	prefix := fmt.Sprintf("drawings/%s/%s/%d", drawing.CompanyID, now.Format("2006-01-02"), now.UnixMilli())

	thumb, err := s.raster.Thumbnail(ctx, pages[0].PNG, thumbnailMaxPx, thumbnailMaxPx)
	if err != nil {
		return errs.Wrap(err, "build thumbnail")
	}
	thumbPath := prefix + "_thumbnail.png"
	if err := s.blob.Upload(ctx, thumbPath, thumb, "image/png"); err != nil {
		return errs.Wrap(err, "upload thumbnail")
	}
	if _, err := s.files.Insert(ctx, ports.DrawingFileCreate{
		DrawingID: drawingID,
		Type:      ports.FileTypeThumbnail,
		GCSPath:   thumbPath,
		Mime:      "image/png",
		Size:      int64(len(thumb)),
	}); err != nil {
		return errs.Wrap(err, "register thumbnail")
	}

	for _, page := range pages {
		pagePath := fmt.Sprintf("%s_page_%03d.png", prefix, page.PageNo)
		if err := s.blob.Upload(ctx, pagePath, page.PNG, "image/png"); err != nil {
			return errs.Wrapf(err, "upload page %d", page.PageNo)
		}
		pageNo := page.PageNo
		if _, err := s.files.Insert(ctx, ports.DrawingFileCreate{
			DrawingID: drawingID,
			Type:      ports.FileTypePageImage,
			GCSPath:   pagePath,
			Mime:      "image/png",
			Size:      int64(len(page.PNG)),
			PageNo:    &pageNo,
		}); err != nil {
			return errs.Wrapf(err, "register page %d", page.PageNo)
		}
	}
	return nil
}

type pageResult struct {
	PageNo int    `json:"page_no"`
	Text   string `json:"text"`
}

// runOCR recognizes every page image and assembles the combined document.
// The second return is false when there is nothing to save. Per-page
// failures record an empty page; a token persistence failure never loses
// the recognized text.
func (s *Service) runOCR(ctx context.Context, drawingID string) (map[string]any, bool) {
	files, err := s.files.ListByType(ctx, drawingID, ports.FileTypePageImage)
	if err != nil {
		logging.Error(ctx, "listing page images for ocr failed",
			slog.String("error", err.Error()))
		return nil, false
	}
	if len(files) == 0 {
		logging.Info(ctx, "no page images, skipping ocr")
		return nil, false
	}

	pages := make([]pageResult, 0, len(files))
	texts := make([]string, 0, len(files))

	for _, file := range files {
		result, err := s.recognizePage(ctx, file)
		if err != nil {
			logging.Warn(ctx, "ocr failed for page, recording empty text",
				slog.Int("page_no", file.PageNo),
				slog.String("path", file.GCSPath),
				slog.String("error", err.Error()))
			pages = append(pages, pageResult{PageNo: file.PageNo})
			continue
		}

		pages = append(pages, pageResult{PageNo: file.PageNo, Text: result.Text})
		if result.Text != "" {
			texts = append(texts, fmt.Sprintf("[ページ %d]\n%s", file.PageNo, result.Text))
		}

		// Persisted separately so a DB failure cannot drop the text above.
		if err := s.persistPageTokens(ctx, drawingID, file, result); err != nil {
			logging.Warn(ctx, "token persistence failed, ocr text kept",
				slog.Int("page_no", file.PageNo),
				slog.String("error", err.Error()))
		}
	}

	ocrText := strings.Join(texts, "\n\n")
	if ocrText == "" && len(pages) == 0 {
		return nil, false
	}
	return map[string]any{"ocr_text": ocrText, "pages": pages}, true
}

func (s *Service) recognizePage(ctx context.Context, file ports.DrawingFile) (ports.OCRResult, error) {
	image, err := s.blob.Download(ctx, file.GCSPath)
	if err != nil {
		return ports.OCRResult{}, errs.Wrapf(err, "download page image %q", file.GCSPath)
	}
	return s.ocr.Recognize(ctx, image, ocrLanguage)
}

func (s *Service) persistPageTokens(ctx context.Context, drawingID string, file ports.DrawingFile, result ports.OCRResult) error {
	if err := s.files.UpdateImageSize(ctx, file.FileID, result.ImageWidth, result.ImageHeight); err != nil {
		return err
	}
	return s.uow.WithTx(ctx, func(ctx context.Context) error {
		return s.tokens.ReplacePageTokens(ctx, drawingID, file.FileID, file.PageNo, result.Tokens)
	})
}

// runExtraction runs the cascade and persists a non-empty result under the
// "ai" key and into the drawing columns. Failures are absorbed.
func (s *Service) runExtraction(ctx context.Context, drawingID string) {
	result, err := s.extractor.ExtractForDrawing(ctx, drawingID)
	if err != nil {
		logging.Error(ctx, "field extraction failed, continuing",
			slog.String("error", err.Error()))
		return
	}
	if result.Empty() {
		logging.Info(ctx, "no extraction results")
		return
	}

	if err := s.drawings.MergeExtractedJSON(ctx, drawingID, "ai", result.Raw); err != nil {
		logging.Error(ctx, "saving extraction document failed",
			slog.String("error", err.Error()))
		return
	}
	if err := s.drawings.UpdateColumns(ctx, drawingID, columnsFrom(result)); err != nil {
		logging.Error(ctx, "updating drawing columns failed",
			slog.String("error", err.Error()))
		return
	}
	logging.Info(ctx, "extraction saved", slog.String("source", result.Source))
}

func columnsFrom(result extraction.Result) ports.DrawingColumns {
	f := result.Normalized
	return ports.DrawingColumns{
		Title:            optional(f.Title),
		DrawingNo:        optional(f.DrawingNo),
		PartName:         optional(f.PartName),
		Material:         optional(f.Material),
		SurfaceTreatment: optional(f.SurfaceTreatment),
		ProcessNote:      optional(f.ProcessNote),
		IssueDate:        optional(f.IssueDate),
		Tags:             f.Tags,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// vectorize embeds the drawing's search text and upserts it into the vector
// index. Skips cleanly when the vector stack is not configured or there is
// nothing to embed; an embed or upsert failure fails the job.
func (s *Service) vectorize(ctx context.Context, drawingID string) error {
	if s.embedder == nil || s.index == nil {
		logging.Info(ctx, "vector stack not configured, skipping vectorize")
		return nil
	}

	drawing, err := s.drawings.Get(ctx, drawingID)
	if err != nil {
		return err
	}
	if drawing.CompanyID == "" {
		logging.Warn(ctx, "drawing has no company id, skipping vectorize")
		return nil
	}

	doc, err := s.drawings.ExtractedJSON(ctx, drawingID)
	if err != nil {
		return err
	}
	text := buildSearchText(doc)
	if text == "" {
		logging.Info(ctx, "no search text, skipping vectorize")
		return nil
	}

	values, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return errs.Wrap(err, "embed search text")
	}

	err = s.index.Upsert(ctx, drawingID, values, map[string]string{
		"company_id": drawing.CompanyID,
		"drawing_id": drawingID,
	})
	if err != nil {
		return err
	}
	logging.Info(ctx, "vector upserted")
	return nil
}

// buildSearchText concatenates the OCR text, the extracted scalar fields,
// and the tags, truncated to the embedding input budget.
func buildSearchText(doc map[string]any) string {
	var parts []string

	if ocr, ok := doc["ocr"].(map[string]any); ok {
		if text, ok := ocr["ocr_text"].(string); ok && text != "" {
			parts = append(parts, text)
		}
	}

	if ai, ok := doc["ai"].(map[string]any); ok {
		for _, key := range []string{"title", "drawing_no", "part_name", "material", "surface_treatment", "process_note"} {
			if val, ok := ai[key].(string); ok && val != "" {
				parts = append(parts, val)
			}
		}
		if list, ok := ai["tags"].([]any); ok && len(list) > 0 {
			tags := make([]string, 0, len(list))
			for _, item := range list {
				tags = append(tags, fmt.Sprint(item))
			}
			parts = append(parts, strings.Join(tags, " "))
		}
	}

	text := strings.TrimSpace(strings.Join(parts, "\n"))
	runes := []rune(text)
	if len(runes) > searchTextLimit {
		return string(runes[:searchTextLimit])
	}
	return text
}
