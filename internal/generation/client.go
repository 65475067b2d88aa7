package generation

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

const (
	anthropicVersion = "2023-06-01"
	messagesPath     = "/v1/messages"

	systemPrompt = "You are an expert children's story writer. Your task is to write original, engaging, and age-appropriate tales for children."
)

// Generator turns a prompt into story text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ClientConfig configures the Anthropic Messages API client.
type ClientConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// ErrNoContent is returned when the upstream response has no text block.
var ErrNoContent = errors.New("generator returned no text content")

// Client calls the Anthropic Messages API.
type Client struct {
	http   *resty.Client
	cfg    ClientConfig
	logger *slog.Logger
}

// NewClient creates a generator client. The API key is sent on every request.
func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	c := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("x-api-key", cfg.APIKey).
		SetHeader("anthropic-version", anthropicVersion).
		SetTimeout(cfg.Timeout)

	return &Client{http: c, cfg: cfg, logger: logger}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	System      string    `json:"system"`
	Messages    []message `json:"messages"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type messagesResponse struct {
	ID      string         `json:"id"`
	Content []contentBlock `json:"content"`
}

// Generate submits prompt and returns the first text block of the reply.
// Cancellation of ctx aborts the HTTP call.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(messagesRequest{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		System:      systemPrompt,
		Messages:    []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	requestID := uuid.NewString()
	start := time.Now()

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-Request-Id", requestID).
		SetBody(body).
		Post(messagesPath)
	if err != nil {
		return "", fmt.Errorf("generator request: %w", err)
	}

	c.logger.Debug("generator responded",
		"request_id", requestID,
		"status", resp.StatusCode(),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("generator status %d: %s", resp.StatusCode(), truncate(resp.String(), 512))
	}

	var mr messagesResponse
	if err := json.Unmarshal(resp.Body(), &mr); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	for _, block := range mr.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", ErrNoContent
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
