package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"hub-backend/internal/llm"
	"hub-backend/internal/shared/telemetry"
)

const (
	defaultTimeout     = 120 * time.Second
	defaultTemperature = float32(0.2)
)

// Config configures the OpenAI client.
type Config struct {
	APIKey string
	Model  string
	// BaseURL points at an OpenAI-compatible endpoint. Empty uses the public API.
	BaseURL string
	Timeout time.Duration
}

// Client implements llm.Completer using OpenAI Chat Completions.
type Client struct {
	api   *goopenai.Client
	model string
}

// NewClient constructs a new OpenAI client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for OpenAI")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	apiCfg := goopenai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		apiCfg.BaseURL = strings.TrimRight(base, "/")
	}
	apiCfg.HTTPClient = &http.Client{Timeout: timeout}

	return &Client{
		api:   goopenai.NewClientWithConfig(apiCfg),
		model: cfg.Model,
	}, nil
}

// Complete sends one chat completion and returns the first choice's content.
// A model that rejects the temperature setting is retried once without it.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	chatReq := c.buildRequest(req)

	content, err := c.completeOnce(ctx, chatReq)
	if err != nil && chatReq.Temperature != 0 && isTemperatureUnsupported(err) {
		telemetry.Warn("llm.temperature_unsupported", map[string]any{"model": chatReq.Model})
		chatReq.Temperature = 0
		content, err = c.completeOnce(ctx, chatReq)
	}
	if err != nil {
		return "", llm.Classify(err)
	}
	return content, nil
}

func (c *Client) buildRequest(req llm.Request) goopenai.ChatCompletionRequest {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = c.model
	}

	chatReq := goopenai.ChatCompletionRequest{
		Model:               model,
		Messages:            buildMessages(req),
		MaxCompletionTokens: req.MaxTokens,
	}
	if !fixedTemperature(model) {
		chatReq.Temperature = defaultTemperature
	}
	if req.Mode == llm.ModeJSON {
		chatReq.ResponseFormat = &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	return chatReq
}

func buildMessages(req llm.Request) []goopenai.ChatCompletionMessage {
	messages := make([]goopenai.ChatCompletionMessage, 0, 2)
	if system := strings.TrimSpace(req.System); system != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: system,
		})
	}

	if len(req.Images) == 0 {
		return append(messages, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleUser,
			Content: req.Prompt,
		})
	}

	parts := make([]goopenai.ChatMessagePart, 0, len(req.Images)+1)
	parts = append(parts, goopenai.ChatMessagePart{
		Type: goopenai.ChatMessagePartTypeText,
		Text: req.Prompt,
	})
	for _, url := range req.Images {
		parts = append(parts, goopenai.ChatMessagePart{
			Type: goopenai.ChatMessagePartTypeImageURL,
			ImageURL: &goopenai.ChatMessageImageURL{
				URL:    url,
				Detail: goopenai.ImageURLDetailHigh,
			},
		})
	}
	return append(messages, goopenai.ChatCompletionMessage{
		Role:         goopenai.ChatMessageRoleUser,
		MultiContent: parts,
	})
}

func (c *Client) completeOnce(ctx context.Context, chatReq goopenai.ChatCompletionRequest) (string, error) {
	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai response missing choices")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("openai response empty content")
	}

	telemetry.Info("llm.response", map[string]any{
		"model":             resp.Model,
		"prompt_tokens":     resp.Usage.PromptTokens,
		"completion_tokens": resp.Usage.CompletionTokens,
		"total_tokens":      resp.Usage.TotalTokens,
		"duration_ms":       time.Since(start).Milliseconds(),
	})
	return content, nil
}

func isTemperatureUnsupported(err error) bool {
	var apiErr *goopenai.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	msg := strings.ToLower(apiErr.Message)
	return strings.Contains(msg, "temperature") && strings.Contains(msg, "unsupported")
}

// fixedTemperature reports whether model only accepts the default temperature.
func fixedTemperature(model string) bool {
	m := strings.ToLower(strings.TrimSpace(model))
	for _, prefix := range []string{"gpt-5", "o1", "o3", "o4"} {
		if strings.HasPrefix(m, prefix) {
			return true
		}
	}
	return false
}

var _ llm.Completer = (*Client)(nil)
