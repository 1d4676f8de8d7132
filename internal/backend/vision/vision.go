package vision

import (
	"context"
	"strings"

	"github.com/jo-hoe/closetcam/internal/backend/ollama"
)

const (
	textPrompt   = "Read all text visible on this clothing label. Reply with the text only, one line per label line. Reply with nothing if there is no text."
	objectPrompt = "Name the single clothing item in this photo with one or two words, for example Shirt, Jeans or Sneakers. Reply with the name only."
)

type TextRecognizer interface {
	RecognizeText(ctx context.Context, image []byte) (string, error)
}

type ObjectDetector interface {
	DetectObject(ctx context.Context, image []byte) (string, error)
}

// Config points at a multimodal Ollama model. An empty URL disables vision.
type Config struct {
	URL   string `yaml:"url"`
	Model string `yaml:"model"`
}

// OllamaClient reads label text and names garments with a vision model.
type OllamaClient struct {
	client *ollama.Client
}

func NewOllamaClient(cfg Config) (*OllamaClient, error) {
	client, err := ollama.NewClient(cfg.URL, cfg.Model)
	if err != nil {
		return nil, err
	}
	return &OllamaClient{client: client}, nil
}

func (c *OllamaClient) RecognizeText(ctx context.Context, image []byte) (string, error) {
	text, err := c.client.Chat(ctx, textPrompt, image)
	if err != nil {
		return "", err
	}
	return text, nil
}

func (c *OllamaClient) DetectObject(ctx context.Context, image []byte) (string, error) {
	answer, err := c.client.Chat(ctx, objectPrompt, image)
	if err != nil {
		return "", err
	}
	return cleanLabel(answer), nil
}

// cleanLabel keeps the first line without surrounding punctuation.
func cleanLabel(answer string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(answer), "\n")
	return strings.Trim(strings.TrimSpace(line), ".,;:!\"'*")
}
