package codec

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// #region gemini-transport

// GeminiTransport implements Transport over the Gemini SDK. googleapi
// error codes map onto the same status-based retry classification the
// HTTP transport feeds.
type GeminiTransport struct {
	client *genai.Client
	model  string
}

// NewGeminiTransport creates a Gemini-backed transport.
func NewGeminiTransport(ctx context.Context, apiKey, model string) (*GeminiTransport, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiTransport{client: client, model: model}, nil
}

// Close releases the underlying client.
func (t *GeminiTransport) Close() error {
	return t.client.Close()
}

// #endregion gemini-transport

// #region complete

// Complete issues one generation call.
func (t *GeminiTransport) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	model := t.client.GenerativeModel(t.model)
	model.SetTemperature(req.Temperature)
	model.SetTopP(req.TopP)
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(req.System)},
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.User))
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			return "", &TransportError{StatusCode: apiErr.Code, Err: err}
		}
		return "", &TransportError{Timeout: isTimeout(err), Err: err}
	}

	text := responseText(resp)
	if text == "" {
		return "", fmt.Errorf("gemini response has no text parts")
	}
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	var out string
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				out += string(txt)
			}
		}
	}
	return out
}

// #endregion complete
