package invoicelib

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/rezonia/invoice-validator/internal/llm"
	"github.com/rezonia/invoice-validator/internal/model"
	"github.com/rezonia/invoice-validator/internal/processor"
	"github.com/rezonia/invoice-validator/internal/validation"
)

// ProcessResult is a loaded document together with its validation
type ProcessResult struct {
	Extraction  *ExtractionResult
	Validation  *ValidationResult
	Method      string
	NeedsReview bool
}

// ProcessorOptions configures processor behavior
type ProcessorOptions struct {
	ToleranceCents int
	RequiredFields []string

	// Below this confidence a passing result is still flagged for review
	ReviewThreshold float64

	// Batch parallelism (default: 8)
	Concurrency int

	// LLM configuration, needed only for ProcessText
	LLMAPIKey  string // API key (env: LLM_API_KEY)
	LLMBaseURL string // Base URL (env: LLM_BASE_URL)
	LLMModel   string // Text extraction model (env: LLM_MODEL)
}

// DefaultProcessorOptions returns default processor options
func DefaultProcessorOptions() ProcessorOptions {
	return ProcessorOptions{
		ToleranceCents:  validation.DefaultToleranceCents,
		RequiredFields:  validation.DefaultRequiredFields(),
		ReviewThreshold: 0.70,
		Concurrency:     8,
		LLMBaseURL:      llm.DefaultBaseURL,
		LLMModel:        llm.ModelClaude35Sonnet,
	}
}

// Processor loads JSON or XML documents and validates them
type Processor struct {
	pipeline *processor.Pipeline
	options  ProcessorOptions
}

// NewProcessor creates a new processor with the given options
func NewProcessor(opts ProcessorOptions) (*Processor, error) {
	engine, err := validation.New(
		validation.WithToleranceCents(opts.ToleranceCents),
		validation.WithRequiredFields(opts.RequiredFields...),
	)
	if err != nil {
		return nil, err
	}

	pipelineOpts := []processor.PipelineOption{processor.WithEngine(engine)}
	if opts.LLMAPIKey != "" {
		client := llm.NewClient(opts.LLMAPIKey,
			llm.WithBaseURL(opts.LLMBaseURL),
			llm.WithDefaultModel(opts.LLMModel),
		)
		pipelineOpts = append(pipelineOpts, processor.WithTextExtractor(llm.NewExtractor(client)))
	}

	return &Processor{
		pipeline: processor.NewPipeline(pipelineOpts...),
		options:  opts,
	}, nil
}

// NewDefaultProcessor creates a processor with default options
func NewDefaultProcessor() *Processor {
	p, err := NewProcessor(DefaultProcessorOptions())
	if err != nil {
		panic(fmt.Sprintf("default processor options: %v", err))
	}
	return p
}

// Process reads a JSON or XML document and validates it. The error is
// set only when the document cannot be read or decoded.
func (p *Processor) Process(ctx context.Context, r io.Reader) (*ProcessResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, model.NewParseError("input", "content", "failed to read input", err)
	}
	return p.convert(p.pipeline.Process(ctx, data))
}

// ProcessText extracts an invoice from raw text with the configured LLM
// and validates it
func (p *Processor) ProcessText(ctx context.Context, text string) (*ProcessResult, error) {
	return p.convert(p.pipeline.ProcessText(ctx, text))
}

// ProcessBatch processes inputs concurrently. Results keep input order;
// the first load error is returned alongside the partial results.
func (p *Processor) ProcessBatch(ctx context.Context, inputs []io.Reader) ([]*ProcessResult, error) {
	results := make([]*ProcessResult, len(inputs))

	var g errgroup.Group
	g.SetLimit(max(p.options.Concurrency, 1))
	for i, input := range inputs {
		g.Go(func() error {
			result, err := p.Process(ctx, input)
			if err != nil {
				return fmt.Errorf("input %d: %w", i, err)
			}
			results[i] = result
			return nil
		})
	}

	return results, g.Wait()
}

func (p *Processor) convert(result *processor.Result) (*ProcessResult, error) {
	if result.Error != nil {
		return nil, result.Error
	}
	return &ProcessResult{
		Extraction:  result.Extraction,
		Validation:  result.Validation,
		Method:      string(result.Method),
		NeedsReview: !result.Validation.Passed || result.Validation.ConfidenceScore < p.options.ReviewThreshold,
	}, nil
}
