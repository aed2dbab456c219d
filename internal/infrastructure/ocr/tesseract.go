package ocr

import (
	"context"

	"github.com/otiai10/gosseract/v2"

	"github.com/imai1205/zumen-connect-backend/internal/errs"
	"github.com/imai1205/zumen-connect-backend/internal/ports"
)

// TesseractEngine is the self-hosted OCR option for deployments without
// Cloud Vision access. One engine serializes through a single gosseract
// client, so the worker creates it per call site, not shared.
type TesseractEngine struct{}

func NewTesseractEngine() *TesseractEngine {
	return &TesseractEngine{}
}

func (e *TesseractEngine) Recognize(ctx context.Context, img []byte, language string) (ports.OCRResult, error) {
	if err := ctx.Err(); err != nil {
		return ports.OCRResult{}, err
	}

	width, height, err := imageSize(img)
	if err != nil {
		return ports.OCRResult{}, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if language != "" {
		if err := client.SetLanguage(tesseractLanguage(language)); err != nil {
			return ports.OCRResult{}, errs.Wrap(err, "set tesseract language")
		}
	}
	if err := client.SetImageFromBytes(img); err != nil {
		return ports.OCRResult{}, errs.Wrap(err, "load image into tesseract")
	}

	text, err := client.Text()
	if err != nil {
		return ports.OCRResult{}, errs.Wrap(err, "tesseract text")
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return ports.OCRResult{}, errs.Wrap(err, "tesseract bounding boxes")
	}

	result := ports.OCRResult{
		Text:        text,
		ImageWidth:  width,
		ImageHeight: height,
	}
	for _, box := range boxes {
		if box.Word == "" {
			continue
		}
		confidence := box.Confidence / 100
		result.Tokens = append(result.Tokens, ports.OCRToken{
			Text:       box.Word,
			XMin:       float64(box.Box.Min.X),
			YMin:       float64(box.Box.Min.Y),
			XMax:       float64(box.Box.Max.X),
			YMax:       float64(box.Box.Max.Y),
			Confidence: &confidence,
			Level:      "word",
		})
	}
	return result, nil
}

// tesseractLanguage maps BCP-47 hints used by the Vision engine to
// tesseract traineddata names.
func tesseractLanguage(hint string) string {
	switch hint {
	case "ja":
		return "jpn"
	case "en":
		return "eng"
	default:
		return hint
	}
}
