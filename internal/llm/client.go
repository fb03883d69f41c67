// Package llm talks to the hosted language model and builds its prompts.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Request is one completion call. APIKey and Model override the client
// defaults so each conversation can bring its own credentials.
type Request struct {
	APIKey string
	Model  string
	System string
	Prompt string
}

// Generator produces a raw text completion.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Client calls an OpenAI-compatible /chat/completions endpoint.
type Client struct {
	endpoint    string
	apiKey      string
	model       string
	temperature float32
	maxTokens   int
	client      *http.Client
}

// ClientConfig holds client configuration.
type ClientConfig struct {
	Endpoint    string
	APIKey      string
	Model       string
	Timeout     time.Duration
	Temperature float32
	MaxTokens   int
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		endpoint:    strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		client:      &http.Client{Timeout: cfg.Timeout},
	}
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Client) Generate(ctx context.Context, r Request) (string, error) {
	model := r.Model
	if model == "" {
		model = c.model
	}
	apiKey := r.APIKey
	if apiKey == "" {
		apiKey = c.apiKey
	}

	req := ChatRequest{
		Model:       model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}
	if r.System != "" {
		req.Messages = append(req.Messages, ChatMessage{Role: "system", Content: r.System})
	}
	req.Messages = append(req.Messages, ChatMessage{Role: "user", Content: r.Prompt})

	jsonData, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.endpoint+"/chat/completions",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("LLM returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decode failed: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no response from LLM")
	}

	return chatResp.Choices[0].Message.Content, nil
}

// Model returns the default model name.
func (c *Client) Model() string { return c.model }

// Endpoint returns the base URL.
func (c *Client) Endpoint() string { return c.endpoint }
