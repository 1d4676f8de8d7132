package describe

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-1.5-flash-latest"

type GeminiDescriber struct {
	client *genai.Client
	model  string
}

// NewGeminiDescriber uses cfg.APIKey, falling back to GOOGLE_API_KEY.
// cfg.URL overrides the API endpoint.
func NewGeminiDescriber(ctx context.Context, cfg Config) (*GeminiDescriber, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("gemini describer requires an api key (config apiKey or GOOGLE_API_KEY)")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.URL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.URL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gen AI client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiDescriber{client: client, model: model}, nil
}

func (g *GeminiDescriber) Describe(ctx context.Context, prompt string) (string, error) {
	slog.Debug("requesting description", "provider", ProviderGemini, "model", g.model)

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate content failed: %w", err)
	}
	text := strings.TrimSpace(responseText(resp))
	if text == "" {
		return "", fmt.Errorf("gemini returned no text")
	}
	return text, nil
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" && !part.Thought {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}
