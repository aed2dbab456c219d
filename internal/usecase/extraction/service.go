package extraction

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/imai1205/zumen-connect-backend/internal/bootstrap/logging"
	"github.com/imai1205/zumen-connect-backend/internal/domain/titleblock"
	"github.com/imai1205/zumen-connect-backend/internal/errs"
	"github.com/imai1205/zumen-connect-backend/internal/ports"
)

// Extraction sources, recorded on the result so callers can tell how the
// fields were obtained.
const (
	SourceRules      = "rules"
	SourceMultimodal = "multimodal"
	SourceText       = "text"
)

// Result is one extraction outcome. Raw is the document persisted under the
// "ai" key verbatim; Normalized is the canonical view mirrored into columns.
// An empty Raw means nothing usable was extracted anywhere in the cascade.
type Result struct {
	Raw        map[string]any
	Normalized titleblock.Fields
	Source     string
}

func (r Result) Empty() bool {
	return len(r.Raw) == 0
}

// Service runs the escalating field-extraction cascade: deterministic rules
// first, then the multimodal model with the first page image, then the
// text-only model. The model is optional; without one the cascade ends after
// the rule pass.
type Service struct {
	drawings ports.DrawingRepository
	files    ports.FileRepository
	blob     ports.BlobStore
	model    ports.FieldModel
	cache    ports.Cache
}

// NewService wires the cascade. cache is optional; when present, model
// responses are cached by input hash so reprocessing a drawing does not
// re-bill the provider.
func NewService(drawings ports.DrawingRepository, files ports.FileRepository, blob ports.BlobStore, model ports.FieldModel, cache ports.Cache) *Service {
	return &Service{
		drawings: drawings,
		files:    files,
		blob:     blob,
		model:    model,
		cache:    cache,
	}
}

// ExtractForDrawing reads the drawing's stored OCR text and runs the
// cascade over its first page. A drawing without OCR text yields an empty
// result, not an error.
func (s *Service) ExtractForDrawing(ctx context.Context, drawingID string) (Result, error) {
	doc, err := s.drawings.ExtractedJSON(ctx, drawingID)
	if err != nil {
		return Result{}, errs.Wrap(err, "load extracted document")
	}

	ocrText := storedOCRText(doc)
	if ocrText == "" {
		logging.Warn(ctx, "no ocr text for drawing, skipping extraction",
			slog.String("drawing_id", drawingID))
		return Result{}, nil
	}

	return s.Extract(ctx, drawingID, ocrText)
}

// Extract runs the cascade over the given OCR text. Only the first page's
// text is considered.
func (s *Service) Extract(ctx context.Context, drawingID string, ocrText string) (Result, error) {
	firstPage := titleblock.FirstPageText(ocrText)

	fields := titleblock.ExtractByRules(firstPage)
	if fields.HasAny() {
		if fields.IssueDate != "" && !titleblock.ValidDate(fields.IssueDate) {
			logging.Warn(ctx, "invalid issue date from rules, dropping",
				slog.String("issue_date", fields.IssueDate))
			fields.IssueDate = ""
		}
		logging.Info(ctx, "rule extraction succeeded",
			slog.String("drawing_id", drawingID))
		return Result{Raw: fields.ToDocument(), Normalized: fields, Source: SourceRules}, nil
	}

	if s.model == nil {
		logging.Warn(ctx, "rules got no values and no field model is configured",
			slog.String("drawing_id", drawingID))
		return Result{}, nil
	}

	modelInput := firstPage
	if preprocessed := titleblock.PreprocessForModel(firstPage); preprocessed != firstPage {
		modelInput = preprocessed
	}

	raw, source := s.askModel(ctx, drawingID, modelInput)
	if !titleblock.HasAnyValue(raw) {
		logging.Warn(ctx, "model extraction returned no usable values",
			slog.String("drawing_id", drawingID))
		return Result{}, nil
	}

	normalized := titleblock.NormalizeResult(raw)
	if normalized.IssueDate != "" && !titleblock.ValidDate(normalized.IssueDate) {
		logging.Warn(ctx, "invalid issue date from model, dropping",
			slog.String("issue_date", normalized.IssueDate))
		normalized.IssueDate = ""
		nullInvalidDates(raw)
	}
	return Result{Raw: raw, Normalized: normalized, Source: source}, nil
}

// askModel tries multimodal first and falls back to text-only. A multimodal
// failure is logged and absorbed; only the text-only pass decides the
// cascade outcome.
func (s *Service) askModel(ctx context.Context, drawingID string, ocrText string) (map[string]any, string) {
	if image, mime, ok := s.firstPageImage(ctx, drawingID); ok {
		key := cacheKey(SourceMultimodal, ocrText, image)
		raw, err := s.cachedModelCall(ctx, key, func() (map[string]any, error) {
			return s.model.ExtractFromImage(ctx, image, mime, ocrText)
		})
		if err != nil {
			logging.Warn(ctx, "multimodal extraction failed, trying text-only",
				slog.String("drawing_id", drawingID),
				slog.String("error", err.Error()))
		} else if titleblock.HasAnyValue(raw) {
			logging.Info(ctx, "multimodal extraction succeeded",
				slog.String("drawing_id", drawingID))
			return raw, SourceMultimodal
		}
	}

	key := cacheKey(SourceText, ocrText, nil)
	raw, err := s.cachedModelCall(ctx, key, func() (map[string]any, error) {
		return s.model.ExtractFromText(ctx, ocrText)
	})
	if err != nil {
		logging.Warn(ctx, "text-only extraction failed",
			slog.String("drawing_id", drawingID),
			slog.String("error", err.Error()))
		return map[string]any{}, SourceText
	}
	return raw, SourceText
}

// cachedModelCall consults the response cache before calling the model and
// stores usable responses afterward. Cache failures never block the call.
func (s *Service) cachedModelCall(ctx context.Context, key string, call func() (map[string]any, error)) (map[string]any, error) {
	if s.cache != nil {
		if value, found, err := s.cache.Get(ctx, key); err == nil && found {
			var raw map[string]any
			if json.Unmarshal([]byte(value), &raw) == nil && raw != nil {
				logging.Info(ctx, "model response served from cache")
				return raw, nil
			}
		}
	}

	raw, err := call()
	if err != nil {
		return nil, err
	}

	if s.cache != nil && titleblock.HasAnyValue(raw) {
		if encoded, err := json.Marshal(raw); err == nil {
			if err := s.cache.Set(ctx, key, string(encoded), 0); err != nil {
				logging.Warn(ctx, "caching model response failed",
					slog.String("error", err.Error()))
			}
		}
	}
	return raw, nil
}

func cacheKey(source string, ocrText string, image []byte) string {
	h := sha256.New()
	h.Write([]byte(ocrText))
	if len(image) > 0 {
		h.Write(image)
	}
	return fmt.Sprintf("extract:%s:%x", source, h.Sum(nil))
}

func (s *Service) firstPageImage(ctx context.Context, drawingID string) ([]byte, string, bool) {
	pages, err := s.files.ListByType(ctx, drawingID, ports.FileTypePageImage)
	if err != nil || len(pages) == 0 {
		return nil, "", false
	}

	first := pages[0]
	if first.GCSPath == "" {
		return nil, "", false
	}
	data, err := s.blob.Download(ctx, first.GCSPath)
	if err != nil || len(data) == 0 {
		if err != nil {
			logging.Warn(ctx, "could not download first page image",
				slog.String("path", first.GCSPath),
				slog.String("error", err.Error()))
		}
		return nil, "", false
	}

	mime := first.Mime
	if mime == "" {
		mime = "image/png"
	}
	return data, mime, true
}

// storedOCRText digs ocr.ocr_text out of the drawing's document.
func storedOCRText(doc map[string]any) string {
	ocr, ok := doc["ocr"].(map[string]any)
	if !ok {
		return ""
	}
	text, _ := ocr["ocr_text"].(string)
	return text
}

// nullInvalidDates clears the issue date in the raw document under both the
// canonical key and its alias so the persisted document matches the columns.
func nullInvalidDates(raw map[string]any) {
	for _, key := range []string{titleblock.FieldIssueDate, "出図日"} {
		if _, ok := raw[key]; ok {
			raw[key] = nil
		}
	}
}
