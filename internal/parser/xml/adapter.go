package xml

import (
	"bytes"
	"context"
	"io"

	"github.com/rezonia/invoice-validator/internal/model"
)

// Adapter maps one XML invoice dialect onto the raw header/lines shape
// the validation engine consumes. Values stay as the document spells them.
type Adapter interface {
	Parse(ctx context.Context, r io.Reader) (*model.ExtractionResult, error)
	CanParse(content []byte) bool
	Name() string
}

// Registry picks the first adapter whose CanParse accepts the content
type Registry struct {
	adapters []Adapter
}

// NewRegistry returns a registry with the built-in dialects, most
// specific first
func NewRegistry() *Registry {
	return &Registry{
		adapters: []Adapter{
			NewUBLAdapter(),
			NewGenericAdapter(),
		},
	}
}

// Names lists dialect names in detection order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for _, a := range r.adapters {
		names = append(names, a.Name())
	}
	return names
}

// Detect returns the adapter for content or a ParseError
func (r *Registry) Detect(content []byte) (Adapter, error) {
	for _, a := range r.adapters {
		if a.CanParse(content) {
			return a, nil
		}
	}
	return nil, model.NewParseError("xml", "root", "unknown XML format, no matching adapter found", nil)
}

// Parse detects the dialect and parses content with it
func (r *Registry) Parse(ctx context.Context, content []byte) (*model.ExtractionResult, error) {
	adapter, err := r.Detect(content)
	if err != nil {
		return nil, err
	}
	return adapter.Parse(ctx, bytes.NewReader(content))
}

// RegisterAdapter adds a in front of the built-in dialects. Not safe to
// call while the registry is in use.
func (r *Registry) RegisterAdapter(a Adapter) {
	r.adapters = append([]Adapter{a}, r.adapters...)
}

// GetAdapter returns the adapter named name, or nil
func (r *Registry) GetAdapter(name string) Adapter {
	for _, a := range r.adapters {
		if a.Name() == name {
			return a
		}
	}
	return nil
}

// setIfPresent copies a non-empty raw value into the header
func setIfPresent(header map[string]any, field, value string) {
	if value != "" {
		header[field] = value
	}
}

// structuredConfidence is the confidence given to data read from
// structured XML rather than OCR or an LLM
func structuredConfidence() map[string]any {
	return map[string]any{model.ConfidenceOverall: 1.0}
}
