package ocr

import (
	"bytes"
	"context"
	"image"
	_ "image/png"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"

	"github.com/imai1205/zumen-connect-backend/internal/errs"
	"github.com/imai1205/zumen-connect-backend/internal/ports"
)

// VisionEngine runs document text detection on the Cloud Vision API.
type VisionEngine struct {
	client *vision.ImageAnnotatorClient
}

func NewVisionEngine(ctx context.Context, opts ...option.ClientOption) (*VisionEngine, error) {
	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, errs.Wrap(err, "create vision client")
	}
	return &VisionEngine{client: client}, nil
}

func (e *VisionEngine) Close() error {
	return e.client.Close()
}

func (e *VisionEngine) Recognize(ctx context.Context, img []byte, language string) (ports.OCRResult, error) {
	width, height, err := imageSize(img)
	if err != nil {
		return ports.OCRResult{}, err
	}

	var ictx *visionpb.ImageContext
	if language != "" {
		ictx = &visionpb.ImageContext{LanguageHints: []string{language}}
	}
	annotation, err := e.client.DetectDocumentText(ctx, &visionpb.Image{Content: img}, ictx)
	if err != nil {
		return ports.OCRResult{}, errs.Wrap(err, "vision document text detection")
	}
	if annotation == nil {
		return ports.OCRResult{ImageWidth: width, ImageHeight: height}, nil
	}

	result := ports.OCRResult{
		Text:        annotation.GetText(),
		ImageWidth:  width,
		ImageHeight: height,
	}
	for _, page := range annotation.GetPages() {
		for _, block := range page.GetBlocks() {
			for _, paragraph := range block.GetParagraphs() {
				for _, word := range paragraph.GetWords() {
					token, ok := wordToken(word)
					if ok {
						result.Tokens = append(result.Tokens, token)
					}
				}
			}
		}
	}
	return result, nil
}

func wordToken(word *visionpb.Word) (ports.OCRToken, bool) {
	var text strings.Builder
	for _, symbol := range word.GetSymbols() {
		text.WriteString(symbol.GetText())
	}
	if text.Len() == 0 {
		return ports.OCRToken{}, false
	}

	vertices := word.GetBoundingBox().GetVertices()
	if len(vertices) == 0 {
		return ports.OCRToken{}, false
	}
	xMin, yMin := float64(vertices[0].GetX()), float64(vertices[0].GetY())
	xMax, yMax := xMin, yMin
	for _, v := range vertices[1:] {
		x, y := float64(v.GetX()), float64(v.GetY())
		if x < xMin {
			xMin = x
		}
		if x > xMax {
			xMax = x
		}
		if y < yMin {
			yMin = y
		}
		if y > yMax {
			yMax = y
		}
	}

	confidence := float64(word.GetConfidence())
	return ports.OCRToken{
		Text:       text.String(),
		XMin:       xMin,
		YMin:       yMin,
		XMax:       xMax,
		YMax:       yMax,
		Confidence: &confidence,
		Level:      "word",
	}, true
}

func imageSize(img []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		return 0, 0, errs.Wrap(err, "decode image dimensions")
	}
	return cfg.Width, cfg.Height, nil
}
