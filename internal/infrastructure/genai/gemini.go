package genai

import (
	"context"
	"errors"

	ggenai "google.golang.org/genai"

	"github.com/imai1205/zumen-connect-backend/internal/bootstrap/logging"
	"github.com/imai1205/zumen-connect-backend/internal/errs"
)

// GeminiModel extracts title-block fields with the Gemini API and doubles
// as the embedding provider.
type GeminiModel struct {
	client         *ggenai.Client
	model          string
	embeddingModel string
	embeddingDims  int32
}

func NewGeminiModel(ctx context.Context, apiKey, model, embeddingModel string, embeddingDims int) (*GeminiModel, error) {
	client, err := ggenai.NewClient(ctx, &ggenai.ClientConfig{
		APIKey:  apiKey,
		Backend: ggenai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errs.Wrap(err, "create gemini client")
	}
	return &GeminiModel{
		client:         client,
		model:          model,
		embeddingModel: embeddingModel,
		embeddingDims:  int32(embeddingDims),
	}, nil
}

func (m *GeminiModel) ExtractFromText(ctx context.Context, ocrText string) (map[string]any, error) {
	contents := []*ggenai.Content{
		ggenai.NewContentFromText(TextPrompt(ocrText), ggenai.RoleUser),
	}
	return m.generate(ctx, contents)
}

func (m *GeminiModel) ExtractFromImage(ctx context.Context, image []byte, mime string, ocrText string) (map[string]any, error) {
	if mime == "" {
		mime = "image/png"
	}
	contents := []*ggenai.Content{
		ggenai.NewContentFromParts([]*ggenai.Part{
			ggenai.NewPartFromBytes(image, mime),
			ggenai.NewPartFromText(MultimodalPrompt(ocrText)),
		}, ggenai.RoleUser),
	}
	return m.generate(ctx, contents)
}

func (m *GeminiModel) generate(ctx context.Context, contents []*ggenai.Content) (map[string]any, error) {
	resp, err := m.client.Models.GenerateContent(ctx, m.model, contents, &ggenai.GenerateContentConfig{
		Temperature: ggenai.Ptr[float32](0),
	})
	if err != nil {
		return nil, errs.Wrap(err, "gemini generate content")
	}

	text := resp.Text()
	if text == "" {
		logging.Warn(ctx, "gemini returned empty content")
		return map[string]any{}, nil
	}
	return DecodeFields(text), nil
}

func (m *GeminiModel) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := m.client.Models.EmbedContent(ctx, m.embeddingModel,
		ggenai.Text(text),
		&ggenai.EmbedContentConfig{
			TaskType:             "RETRIEVAL_DOCUMENT",
			OutputDimensionality: ggenai.Ptr(m.embeddingDims),
		})
	if err != nil {
		return nil, errs.Wrap(err, "gemini embed content")
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, errors.New("gemini returned no embedding values")
	}
	return resp.Embeddings[0].Values, nil
}
