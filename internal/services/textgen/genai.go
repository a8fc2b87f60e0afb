package textgen

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"perfume-studio/internal/common/config"
)

// GenAIBackend calls the Gemini API.
type GenAIBackend struct {
	client *genai.Client
}

func NewGenAIBackend(ctx context.Context, cfg config.GenAIConfig) (*GenAIBackend, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	if cfg.Timeout > 0 {
		cc.HTTPClient = &http.Client{Timeout: config.GetDuration(cfg.Timeout)}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GenAIBackend{client: client}, nil
}

func (b *GenAIBackend) Generate(ctx context.Context, model, prompt string, structured bool) (string, error) {
	var gc *genai.GenerateContentConfig
	if structured {
		gc = &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	}

	resp, err := b.client.Models.GenerateContent(ctx, model, genai.Text(prompt), gc)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}
