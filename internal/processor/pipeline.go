// Package processor loads invoice extraction documents from raw bytes and
// runs them through the validation engine.
package processor

import (
	"bytes"
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rezonia/invoice-validator/internal/extraction"
	"github.com/rezonia/invoice-validator/internal/model"
	"github.com/rezonia/invoice-validator/internal/parser/xml"
	"github.com/rezonia/invoice-validator/internal/validation"
)

// Format is the detected payload format
type Format int

const (
	FormatUnknown Format = iota
	FormatJSON
	FormatXML
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatXML:
		return "xml"
	default:
		return "unknown"
	}
}

// ExtractionMethod records how the extraction result was obtained
type ExtractionMethod string

const (
	MethodJSON    ExtractionMethod = "json"
	MethodXML     ExtractionMethod = "xml"
	MethodLLMText ExtractionMethod = "llm_text"
)

// TextExtractor produces an extraction result from raw invoice text
type TextExtractor interface {
	Extract(ctx context.Context, text string) (*model.ExtractionResult, error)
}

// Result is the outcome of processing one document
type Result struct {
	Extraction *model.ExtractionResult
	Validation *model.ValidationResult
	Method     ExtractionMethod
	Duration   time.Duration
	Error      error
}

// Pipeline turns documents into validation results
type Pipeline struct {
	xmlRegistry   *xml.Registry
	engine        *validation.Engine
	textExtractor TextExtractor
	logger        *zap.Logger
}

// PipelineOption configures the pipeline
type PipelineOption func(*Pipeline)

// WithEngine sets the validation engine
func WithEngine(e *validation.Engine) PipelineOption {
	return func(p *Pipeline) {
		if e != nil {
			p.engine = e
		}
	}
}

// WithTextExtractor enables ProcessText
func WithTextExtractor(e TextExtractor) PipelineOption {
	return func(p *Pipeline) {
		p.textExtractor = e
	}
}

// WithXMLRegistry replaces the default XML adapter registry
func WithXMLRegistry(r *xml.Registry) PipelineOption {
	return func(p *Pipeline) {
		if r != nil {
			p.xmlRegistry = r
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) PipelineOption {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPipeline creates a pipeline with the default engine and XML adapters
func NewPipeline(opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		xmlRegistry: xml.NewRegistry(),
		engine:      validation.Default(),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Engine returns the validation engine in use
func (p *Pipeline) Engine() *validation.Engine {
	return p.engine
}

// Using returns a copy of the pipeline that validates with e. The copy
// shares the XML registry, text extractor and logger.
func (p *Pipeline) Using(e *validation.Engine) *Pipeline {
	if e == nil || e == p.engine {
		return p
	}
	cp := *p
	cp.engine = e
	return &cp
}

// HasTextExtractor reports whether ProcessText is available
func (p *Pipeline) HasTextExtractor() bool {
	return p.textExtractor != nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DetectFormat sniffs the payload format from its first significant byte
func DetectFormat(data []byte) Format {
	data = bytes.TrimPrefix(data, utf8BOM)
	data = bytes.TrimLeft(data, " \t\r\n")
	if len(data) == 0 {
		return FormatUnknown
	}

	switch data[0] {
	case '{', '[':
		return FormatJSON
	case '<':
		return FormatXML
	default:
		return FormatUnknown
	}
}

// Load decodes a JSON or XML document into an extraction result
func (p *Pipeline) Load(ctx context.Context, data []byte) (*model.ExtractionResult, ExtractionMethod, error) {
	format := DetectFormat(data)
	data = bytes.TrimPrefix(data, utf8BOM)

	switch format {
	case FormatJSON:
		r, err := extraction.Decode(data)
		return r, MethodJSON, err
	case FormatXML:
		r, err := p.xmlRegistry.Parse(ctx, data)
		return r, MethodXML, err
	default:
		return nil, "", model.NewParseError("input", "format", "unrecognized document format, expected JSON or XML", nil)
	}
}

// Process loads a JSON or XML document and validates it. Load failures
// are reported in Result.Error; invoice problems only ever appear as
// validation issues.
func (p *Pipeline) Process(ctx context.Context, data []byte) *Result {
	start := time.Now()
	r, method, err := p.Load(ctx, data)
	if err != nil {
		p.logger.Debug("document rejected", zap.Error(err))
		return &Result{Method: method, Error: err, Duration: time.Since(start)}
	}
	return p.finish(r, method, start)
}

// ProcessText extracts an invoice from raw text with the configured
// text extractor and validates it
func (p *Pipeline) ProcessText(ctx context.Context, text string) *Result {
	start := time.Now()
	if p.textExtractor == nil {
		return &Result{
			Method:   MethodLLMText,
			Error:    model.NewExtractionError(string(MethodLLMText), "text extractor not configured", nil),
			Duration: time.Since(start),
		}
	}

	r, err := p.textExtractor.Extract(ctx, text)
	if err != nil {
		return &Result{Method: MethodLLMText, Error: err, Duration: time.Since(start)}
	}
	return p.finish(r, MethodLLMText, start)
}

func (p *Pipeline) finish(r *model.ExtractionResult, method ExtractionMethod, start time.Time) *Result {
	v := p.engine.Validate(r)
	p.logger.Debug("document validated",
		zap.String("method", string(method)),
		zap.Bool("passed", v.Passed),
		zap.Int("errors", v.ErrorCount),
		zap.Int("warnings", v.WarningCount),
	)
	return &Result{
		Extraction: r,
		Validation: v,
		Method:     method,
		Duration:   time.Since(start),
	}
}
