package invoicelib

import (
	"context"

	"github.com/rezonia/invoice-validator/internal/extraction"
	"github.com/rezonia/invoice-validator/internal/validation"
)

// DefaultToleranceCents is the default rounding slack
const DefaultToleranceCents = validation.DefaultToleranceCents

// Option configures a Validator
type Option = validation.Option

// WithToleranceCents sets the rounding slack in cents
func WithToleranceCents(cents int) Option {
	return validation.WithToleranceCents(cents)
}

// WithRequiredFields replaces the required header fields
func WithRequiredFields(fields ...string) Option {
	return validation.WithRequiredFields(fields...)
}

// DefaultRequiredFields returns the header fields required by default
func DefaultRequiredFields() []string {
	return validation.DefaultRequiredFields()
}

// Validator checks extraction results. It is safe for concurrent use.
type Validator struct {
	engine *validation.Engine
}

// NewValidator creates a validator. The only error is a *ConfigError for
// a negative tolerance or a blank required field name.
func NewValidator(opts ...Option) (*Validator, error) {
	engine, err := validation.New(opts...)
	if err != nil {
		return nil, err
	}
	return &Validator{engine: engine}, nil
}

// Validate validates one extraction result
func (v *Validator) Validate(r *ExtractionResult) *ValidationResult {
	return v.engine.Validate(r)
}

// ValidateBatch validates inputs concurrently, keeping input order
func (v *Validator) ValidateBatch(ctx context.Context, inputs []*ExtractionResult, concurrency int) ([]*ValidationResult, error) {
	return v.engine.ValidateBatch(ctx, inputs, concurrency)
}

// ToleranceCents returns the configured rounding slack
func (v *Validator) ToleranceCents() int {
	return v.engine.Config().ToleranceCents
}

var defaultValidator = &Validator{engine: validation.Default()}

// Validate validates r with the default settings
func Validate(r *ExtractionResult) *ValidationResult {
	return defaultValidator.Validate(r)
}

// ValidateBatch validates inputs with the default settings
func ValidateBatch(ctx context.Context, inputs []*ExtractionResult, concurrency int) ([]*ValidationResult, error) {
	return defaultValidator.ValidateBatch(ctx, inputs, concurrency)
}

// DecodeJSON decodes an extraction result payload, keeping numbers exact
func DecodeJSON(data []byte) (*ExtractionResult, error) {
	return extraction.Decode(data)
}
