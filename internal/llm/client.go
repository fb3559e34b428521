package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
)

const (
	DefaultBaseURL   = "https://openrouter.ai/api/v1"
	DefaultTimeout   = 120 * time.Second
	DefaultMaxTokens = 4096
)

// Models known to follow the extraction prompt reliably
const (
	ModelClaude35Sonnet = "anthropic/claude-3.5-sonnet"
	ModelClaude3Haiku   = "anthropic/claude-3-haiku"
	ModelGPT4oMini      = "openai/gpt-4o-mini"
	ModelGPT4o          = "openai/gpt-4o"
)

// Chatter sends a single system+user exchange and returns the reply text
type Chatter interface {
	ChatText(ctx context.Context, model, systemPrompt, userPrompt string) (string, error)
}

// Client talks to any OpenAI-compatible chat completions API
type Client struct {
	client       openai.Client
	defaultModel string
	maxTokens    int64
}

// ClientOption configures the client
type ClientOption func(*clientConfig)

type clientConfig struct {
	baseURL      string
	timeout      time.Duration
	defaultModel string
	maxTokens    int64
}

// WithBaseURL sets a custom base URL
func WithBaseURL(url string) ClientOption {
	return func(cfg *clientConfig) {
		if url != "" {
			cfg.baseURL = url
		}
	}
}

// WithTimeout sets custom HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(cfg *clientConfig) {
		cfg.timeout = timeout
	}
}

// WithDefaultModel sets the model used when a call passes none
func WithDefaultModel(model string) ClientOption {
	return func(cfg *clientConfig) {
		if model != "" {
			cfg.defaultModel = model
		}
	}
}

// WithMaxTokens caps the completion length
func WithMaxTokens(n int64) ClientOption {
	return func(cfg *clientConfig) {
		cfg.maxTokens = n
	}
}

// NewClient creates a new OpenAI-compatible client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	cfg := &clientConfig{
		baseURL:      DefaultBaseURL,
		timeout:      DefaultTimeout,
		defaultModel: ModelClaude35Sonnet,
		maxTokens:    DefaultMaxTokens,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return &Client{
		client: openai.NewClient(
			option.WithAPIKey(apiKey),
			option.WithBaseURL(cfg.baseURL),
			option.WithHTTPClient(&http.Client{Timeout: cfg.timeout}),
			option.WithHeader("HTTP-Referer", "https://github.com/rezonia/invoice-validator"),
			option.WithHeader("X-Title", "Invoice Validator"),
		),
		defaultModel: cfg.defaultModel,
		maxTokens:    cfg.maxTokens,
	}
}

// DefaultModel returns the model used when callers pass an empty one
func (c *Client) DefaultModel() string {
	return c.defaultModel
}

// ChatText sends a text-only chat completion
func (c *Client) ChatText(ctx context.Context, model, systemPrompt, userPrompt string) (string, error) {
	if model == "" {
		model = c.defaultModel
	}

	messages := []openai.ChatCompletionMessageParamUnion{}
	if systemPrompt != "" {
		messages = append(messages, openai.SystemMessage(systemPrompt))
	}
	messages = append(messages, openai.UserMessage(userPrompt))

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       model,
		Messages:    messages,
		MaxTokens:   param.NewOpt(c.maxTokens),
		Temperature: param.NewOpt(0.0),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return resp.Choices[0].Message.Content, nil
}

// ExtractJSON pulls the JSON document out of a model reply. Fenced code
// blocks win; otherwise the span from the first brace or bracket to the
// last closing one is returned.
func ExtractJSON(response string) string {
	if body, ok := fencedBlock(response); ok {
		return body
	}

	s := strings.TrimSpace(response)
	start := strings.IndexAny(s, "{[")
	if start == -1 {
		return s
	}
	end := strings.LastIndexAny(s, "}]")
	if end < start {
		return s
	}
	return s[start : end+1]
}

func fencedBlock(s string) (string, bool) {
	start := strings.Index(s, "```")
	if start == -1 {
		return "", false
	}
	body := s[start+3:]

	// drop a language tag such as "json" on the opening fence line
	if nl := strings.IndexByte(body, '\n'); nl != -1 && !strings.ContainsAny(body[:nl], "{[") {
		body = body[nl+1:]
	}

	end := strings.Index(body, "```")
	if end == -1 {
		return "", false
	}
	return strings.TrimSpace(body[:end]), true
}
