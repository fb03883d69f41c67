// Package ollama provides a Generator backed by a local Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ashutoshrp06/brainhands/internal/llm"
)

// Client handles communication with the Ollama API.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	model       string
	temperature float64
}

// Config holds client configuration.
type Config struct {
	BaseURL     string        // e.g., "http://localhost:11434"
	Model       string        // e.g., "qwen2.5:7b"
	Timeout     time.Duration // Request timeout
	Temperature float64
}

// DefaultConfig returns sensible defaults for local development.
func DefaultConfig() Config {
	return Config{
		BaseURL:     "http://localhost:11434",
		Model:       "qwen2.5:7b",
		Timeout:     60 * time.Second,
		Temperature: 0.2,
	}
}

// NewClient creates a new Ollama client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

var _ llm.Generator = (*Client)(nil)

// ChatMessage represents a message in the chat format.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatOptions controls generation parameters.
type ChatOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	TopP        float64 `json:"top_p,omitempty"`
}

// ChatRequest is the request body for the /api/chat endpoint.
type ChatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  *ChatOptions  `json:"options,omitempty"`
}

// ChatResponse is the response from /api/chat.
type ChatResponse struct {
	Model     string      `json:"model"`
	Message   ChatMessage `json:"message"`
	Done      bool        `json:"done"`
	CreatedAt string      `json:"created_at"`

	TotalDuration int64 `json:"total_duration,omitempty"`
	EvalCount     int   `json:"eval_count,omitempty"`
}

// Generate implements llm.Generator. Ollama needs no API key, so
// req.APIKey is ignored; req.Model overrides the configured model.
func (c *Client) Generate(ctx context.Context, req llm.Request) (string, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	var messages []ChatMessage
	if req.System != "" {
		messages = append(messages, ChatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, ChatMessage{Role: "user", Content: req.Prompt})

	resp, err := c.Chat(ctx, model, messages)
	if err != nil {
		return "", err
	}
	return resp.Message.Content, nil
}

// Chat sends a conversation to the LLM using the chat format.
func (c *Client) Chat(ctx context.Context, model string, messages []ChatMessage) (*ChatResponse, error) {
	req := ChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   false,
		Options: &ChatOptions{
			Temperature: c.temperature,
			TopP:        0.9,
		},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}

	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &chatResp, nil
}

// ListModels returns the available models.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama not reachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	var result struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	names := make([]string, len(result.Models))
	for i, m := range result.Models {
		names[i] = m.Name
	}

	return names, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}
