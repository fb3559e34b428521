// Package validation checks extracted invoice data for completeness and
// arithmetic consistency.
//
// The engine never fails on bad data. Every problem it finds (a missing
// vendor, an unparseable price, a total that does not add up) is reported
// as a typed ValidationIssue on the returned result. The only error it
// returns is from New, for an invalid configuration.
//
// Example usage:
//
//	engine, err := validation.New(validation.WithToleranceCents(2))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result := engine.Validate(extraction)
//	if !result.Passed {
//	    for _, issue := range result.Issues {
//	        fmt.Println(issue)
//	    }
//	}
package validation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	money "github.com/rezonia/invoice-validator/internal/decimal"
	"github.com/rezonia/invoice-validator/internal/model"
)

// DefaultToleranceCents is the rounding slack allowed between computed
// and stated amounts
const DefaultToleranceCents = 1

// DefaultRequiredFields returns the header fields that must be present
func DefaultRequiredFields() []string {
	return []string{
		model.FieldVendorName,
		model.FieldInvoiceNumber,
		model.FieldTotalAmount,
	}
}

// Config holds engine settings
type Config struct {
	ToleranceCents int
	RequiredFields []string
}

// DefaultConfig returns the default engine settings
func DefaultConfig() Config {
	return Config{
		ToleranceCents: DefaultToleranceCents,
		RequiredFields: DefaultRequiredFields(),
	}
}

// Option configures the engine
type Option func(*Config)

// WithToleranceCents sets the allowed rounding slack in cents
func WithToleranceCents(cents int) Option {
	return func(cfg *Config) {
		cfg.ToleranceCents = cents
	}
}

// WithRequiredFields replaces the required header fields
func WithRequiredFields(fields ...string) Option {
	return func(cfg *Config) {
		cfg.RequiredFields = fields
	}
}

// WithConfig replaces all settings at once
func WithConfig(c Config) Option {
	return func(cfg *Config) {
		*cfg = c
	}
}

// Engine validates extraction results. It holds only read-only settings
// and is safe for concurrent use.
type Engine struct {
	toleranceCents int
	tolerance      decimal.Decimal
	requiredFields []string
}

// New creates an engine. A negative tolerance or a blank required field
// name is a configuration error.
func New(opts ...Option) (*Engine, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.ToleranceCents < 0 {
		return nil, model.NewConfigError("tolerance_cents", cfg.ToleranceCents, "must not be negative")
	}

	required := make([]string, 0, len(cfg.RequiredFields))
	for _, f := range cfg.RequiredFields {
		f = strings.TrimSpace(f)
		if f == "" {
			return nil, model.NewConfigError("required_fields", cfg.RequiredFields, "field names must not be blank")
		}
		required = append(required, f)
	}

	return &Engine{
		toleranceCents: cfg.ToleranceCents,
		tolerance:      money.FromCents(cfg.ToleranceCents),
		requiredFields: required,
	}, nil
}

// MustNew creates an engine, panics on invalid configuration
func MustNew(opts ...Option) *Engine {
	e, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return e
}

// Default returns an engine with default settings
func Default() *Engine {
	return MustNew()
}

// Config returns a copy of the engine settings
func (e *Engine) Config() Config {
	fields := make([]string, len(e.requiredFields))
	copy(fields, e.requiredFields)
	return Config{
		ToleranceCents: e.toleranceCents,
		RequiredFields: fields,
	}
}

// Tolerance returns the tolerance as a currency amount
func (e *Engine) Tolerance() decimal.Decimal {
	return e.tolerance
}

// Validate runs every check against r and aggregates the findings.
// Checks run in a fixed order: required fields, field formats, line
// presence, line arithmetic, header reconciliation. A nil r is treated
// as an empty extraction.
func (e *Engine) Validate(r *model.ExtractionResult) *model.ValidationResult {
	if r == nil {
		r = &model.ExtractionResult{}
	}

	var issues []model.ValidationIssue
	issues = append(issues, e.checkRequiredFields(r)...)
	issues = append(issues, contain("field_format", func() []model.ValidationIssue {
		return e.checkFieldFormats(r)
	})...)

	if len(r.Lines) == 0 {
		issues = append(issues, noLineItemsIssue())
		return model.NewValidationResult(issues, overallConfidence(r))
	}

	// lines are guarded one at a time so totals survive a bad line
	totals, lineIssues := e.checkLines(r.Lines)
	issues = append(issues, lineIssues...)

	issues = append(issues, contain("reconciliation", func() []model.ValidationIssue {
		return e.reconcile(r, totals)
	})...)

	return model.NewValidationResult(issues, overallConfidence(r))
}

// contain runs a check and converts a panic into a single INVALID_AMOUNT
// issue so one bad field never blocks the remaining checks
func contain(check string, fn func() []model.ValidationIssue) (issues []model.ValidationIssue) {
	defer func() {
		if rec := recover(); rec != nil {
			issues = append(issues, model.NewIssue(
				model.IssueInvalidAmount,
				model.SeverityError,
				map[string]any{"check": check, "error": fmt.Sprint(rec)},
				"%s check could not evaluate amounts: %v", check, rec,
			))
		}
	}()
	return fn()
}

// overallConfidence reads confidence.overall, defaulting to 0
func overallConfidence(r *model.ExtractionResult) float64 {
	if r.Confidence == nil {
		return 0.0
	}
	amount := money.Parse(r.Confidence[model.ConfidenceOverall])
	if !amount.Ok() {
		return 0.0
	}
	return amount.Value.InexactFloat64()
}
