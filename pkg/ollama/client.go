// Package ollama implements the model-client contract on top of the
// Ollama chat API.
package ollama

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"
)

// DefaultTimeout bounds a single model call when the caller's context
// carries no deadline. Vision models on CPU can be slow.
const DefaultTimeout = 300 * time.Second

// Client wraps the Ollama API client.
type Client struct {
	client  *api.Client
	timeout time.Duration
}

// NewClient creates a new Ollama client from a server URL. Any path on the
// URL (such as /api/chat) is ignored; only scheme and host are used.
func NewClient(ollamaURL string, timeout time.Duration) (*Client, error) {
	parsedURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	baseURL := &url.URL{
		Scheme: parsedURL.Scheme,
		Host:   parsedURL.Host,
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		client:  api.NewClient(baseURL, http.DefaultClient),
		timeout: timeout,
	}, nil
}

// QueryImage sends a prompt with a base64-encoded image and returns the
// raw model response.
func (c *Client) QueryImage(ctx context.Context, model, prompt, imgB64 string) (string, error) {
	imgBytes, err := base64.StdEncoding.DecodeString(imgB64)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64 image: %w", err)
	}

	return c.chat(ctx, model, []api.Message{
		{
			Role:    "user",
			Content: prompt,
			Images:  []api.ImageData{api.ImageData(imgBytes)},
		},
	})
}

// Generate sends a text-only prompt and returns the raw model response.
func (c *Client) Generate(ctx context.Context, model, prompt string) (string, error) {
	return c.chat(ctx, model, []api.Message{
		{Role: "user", Content: prompt},
	})
}

func (c *Client) chat(ctx context.Context, model string, messages []api.Message) (string, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	streamFalse := false
	req := &api.ChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   &streamFalse,
	}

	var responseContent string
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		responseContent = resp.Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat error: %w", err)
	}

	if responseContent == "" {
		return "", fmt.Errorf("empty response from ollama")
	}
	return responseContent, nil
}
