package genai

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/imai1205/zumen-connect-backend/internal/bootstrap/logging"
	"github.com/imai1205/zumen-connect-backend/internal/errs"
)

// OpenAIModel is the alternate field-extraction provider for deployments
// that run against OpenAI-compatible endpoints instead of Gemini. It does
// not provide embeddings.
type OpenAIModel struct {
	client openai.Client
	model  string
}

func NewOpenAIModel(apiKey, model string) *OpenAIModel {
	return &OpenAIModel{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (m *OpenAIModel) ExtractFromText(ctx context.Context, ocrText string) (map[string]any, error) {
	return m.complete(ctx, openai.UserMessage(TextPrompt(ocrText)))
}

func (m *OpenAIModel) ExtractFromImage(ctx context.Context, image []byte, mime string, ocrText string) (map[string]any, error) {
	if mime == "" {
		mime = "image/png"
	}
	dataURI := fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(image))
	return m.complete(ctx, openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
		openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURI}),
		openai.TextContentPart(MultimodalPrompt(ocrText)),
	}))
}

func (m *OpenAIModel) complete(ctx context.Context, message openai.ChatCompletionMessageParamUnion) (map[string]any, error) {
	resp, err := m.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       m.model,
		Temperature: openai.Float(0),
		Messages:    []openai.ChatCompletionMessageParamUnion{message},
	})
	if err != nil {
		return nil, errs.Wrap(err, "openai chat completion")
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		logging.Warn(ctx, "openai returned empty content")
		return map[string]any{}, nil
	}
	return DecodeFields(resp.Choices[0].Message.Content), nil
}
