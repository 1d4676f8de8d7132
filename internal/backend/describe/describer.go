package describe

import (
	"context"
	"fmt"
	"strings"
)

const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

// Describer turns a garment prompt into a natural language description.
type Describer interface {
	Describe(ctx context.Context, prompt string) (string, error)
}

// Config selects and configures the description backend.
type Config struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	URL      string `yaml:"url"`
	APIKey   string `yaml:"apiKey"`
}

// BuildPrompt asks for a description of a garment with its colour, kind and
// any text read from associated label photos.
func BuildPrompt(colour, object string, texts []string) string {
	details := "No additional details"
	if len(texts) > 0 {
		details = strings.Join(texts, "; ")
	}
	return fmt.Sprintf("Describe a %s %s with the following details: %s.", colour, object, details)
}

// NewDescriber builds the backend named by cfg.Provider.
func NewDescriber(ctx context.Context, cfg Config) (Describer, error) {
	switch strings.ToLower(cfg.Provider) {
	case ProviderGemini:
		return NewGeminiDescriber(ctx, cfg)
	case ProviderOllama:
		return NewOllamaDescriber(cfg)
	default:
		return nil, fmt.Errorf("unknown describer provider: %q", cfg.Provider)
	}
}
