package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/rezonia/invoice-validator/internal/extraction"
	"github.com/rezonia/invoice-validator/internal/model"
)

const (
	methodLLMText = "llm_text"

	// DefaultMaxInputChars bounds the invoice text sent in one prompt
	DefaultMaxInputChars = 60000
)

// Extractor turns raw invoice text into an ExtractionResult via a chat model
type Extractor struct {
	client        Chatter
	model         string
	maxInputChars int
	logger        *zap.Logger
}

// ExtractorOption configures the extractor
type ExtractorOption func(*Extractor)

// WithModel overrides the client's default model
func WithModel(model string) ExtractorOption {
	return func(e *Extractor) {
		e.model = model
	}
}

// WithMaxInputChars sets the input truncation limit
func WithMaxInputChars(n int) ExtractorOption {
	return func(e *Extractor) {
		if n > 0 {
			e.maxInputChars = n
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) ExtractorOption {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExtractor creates an extractor backed by client
func NewExtractor(client Chatter, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		client:        client,
		maxInputChars: DefaultMaxInputChars,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract asks the model for the invoice fields found in text. The reply
// must match the extraction schema; arithmetic is left to the validator.
func (e *Extractor) Extract(ctx context.Context, text string) (*model.ExtractionResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, model.NewExtractionError(methodLLMText, "empty invoice text", nil)
	}

	truncated := false
	if utf8.RuneCountInString(text) > e.maxInputChars {
		text = string([]rune(text)[:e.maxInputChars])
		truncated = true
	}

	start := time.Now()
	reply, err := e.client.ChatText(ctx, e.model, SystemPromptInvoiceExtractor, fmt.Sprintf(UserPromptTextExtraction, text))
	if err != nil {
		e.logger.Warn("llm request failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return nil, model.NewExtractionError(methodLLMText, "model request failed", err)
	}

	result, err := extraction.Decode([]byte(ExtractJSON(reply)))
	if err != nil {
		e.logger.Warn("llm reply rejected", zap.Error(err), zap.Int("reply_bytes", len(reply)))
		return nil, model.NewExtractionError(methodLLMText, "model reply is not a valid extraction result", err)
	}
	if result.Header == nil {
		result.Header = map[string]any{}
	}

	e.logger.Info("llm extraction complete",
		zap.String("model", e.model),
		zap.Int("header_fields", len(result.Header)),
		zap.Int("lines", len(result.Lines)),
		zap.Bool("truncated", truncated),
		zap.Duration("elapsed", time.Since(start)),
	)

	return result, nil
}
