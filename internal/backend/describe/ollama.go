package describe

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jo-hoe/closetcam/internal/backend/ollama"
)

type OllamaDescriber struct {
	client *ollama.Client
}

func NewOllamaDescriber(cfg Config) (*OllamaDescriber, error) {
	client, err := ollama.NewClient(cfg.URL, cfg.Model)
	if err != nil {
		return nil, err
	}
	return &OllamaDescriber{client: client}, nil
}

func (o *OllamaDescriber) Describe(ctx context.Context, prompt string) (string, error) {
	slog.Debug("requesting description", "provider", ProviderOllama, "model", o.client.Model())

	text, err := o.client.Chat(ctx, prompt)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", fmt.Errorf("ollama returned no text")
	}
	return text, nil
}
