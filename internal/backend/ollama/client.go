package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

const (
	DefaultURL   = "http://localhost:11434"
	DefaultModel = "llava"

	defaultTimeout = 2 * time.Minute
)

// Client sends single-turn chat requests to an Ollama server.
type Client struct {
	client *api.Client
	model  string
}

// NewClient talks to baseURL, ignoring OLLAMA_HOST. Any path on the URL is dropped.
func NewClient(baseURL, model string) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if model == "" {
		model = DefaultModel
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url %q: %w", baseURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid ollama url %q: scheme and host are required", baseURL)
	}

	base := &url.URL{Scheme: parsed.Scheme, Host: parsed.Host}
	return &Client{
		client: api.NewClient(base, http.DefaultClient),
		model:  model,
	}, nil
}

func (c *Client) Model() string {
	return c.model
}

// Chat sends prompt with optional images and returns the trimmed answer.
func (c *Client) Chat(ctx context.Context, prompt string, images ...[]byte) (string, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTimeout)
		defer cancel()
	}

	message := api.Message{Role: "user", Content: prompt}
	for _, img := range images {
		message.Images = append(message.Images, api.ImageData(img))
	}

	stream := false
	req := &api.ChatRequest{
		Model:    c.model,
		Messages: []api.Message{message},
		Stream:   &stream,
	}

	var answer strings.Builder
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		answer.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat with model %s failed: %w", c.model, err)
	}
	return strings.TrimSpace(answer.String()), nil
}
