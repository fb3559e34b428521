package processor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rezonia/invoice-validator/internal/model"
	"github.com/rezonia/invoice-validator/internal/processor"
	"github.com/rezonia/invoice-validator/internal/validation"
)

const validJSON = `{
	"header": {
		"vendor_name": "Acme Supplies",
		"invoice_number": "INV-2024-001",
		"invoice_date": "2024-01-15",
		"subtotal_amount": 135.00,
		"tax_amount": 15.00,
		"total_amount": 150.00
	},
	"lines": [
		{"description": "Consulting", "quantity": 1, "unit_price": 100.00, "total_amount": 100.00},
		{"description": "Travel", "quantity": 2, "unit_price": 17.50, "total_amount": 35.00}
	],
	"confidence": {"overall": 0.95}
}`

const validXML = `<?xml version="1.0" encoding="UTF-8"?>
<Invoice>
	<VendorName>Acme Supplies</VendorName>
	<InvoiceNumber>INV-2024-001</InvoiceNumber>
	<InvoiceDate>2024-01-15</InvoiceDate>
	<SubtotalAmount>100.00</SubtotalAmount>
	<TaxAmount>10.00</TaxAmount>
	<TotalAmount>110.00</TotalAmount>
	<Items>
		<Item><Description>Widget</Description><Quantity>4</Quantity><UnitPrice>25.00</UnitPrice><TotalAmount>100.00</TotalAmount></Item>
	</Items>
</Invoice>`

type stubExtractor struct {
	result *model.ExtractionResult
	err    error
}

func (s stubExtractor) Extract(ctx context.Context, text string) (*model.ExtractionResult, error) {
	return s.result, s.err
}

func TestNewPipeline(t *testing.T) {
	p := processor.NewPipeline()
	require.NotNil(t, p)
	assert.NotNil(t, p.Engine())
	assert.False(t, p.HasTextExtractor())
}

func TestNewPipeline_WithOptions(t *testing.T) {
	engine := validation.MustNew(validation.WithToleranceCents(5))
	p := processor.NewPipeline(
		processor.WithEngine(engine),
		processor.WithTextExtractor(stubExtractor{}),
		processor.WithLogger(zap.NewNop()),
		processor.WithEngine(nil),
	)
	assert.Same(t, engine, p.Engine())
	assert.True(t, p.HasTextExtractor())
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected processor.Format
	}{
		{"JSON object", []byte(`{"header": {}}`), processor.FormatJSON},
		{"JSON array", []byte(`[{"header": {}}]`), processor.FormatJSON},
		{"JSON with leading whitespace", []byte("\n\t  {}"), processor.FormatJSON},
		{"JSON with BOM", append([]byte{0xEF, 0xBB, 0xBF}, []byte(`{}`)...), processor.FormatJSON},
		{"XML with declaration", []byte(`<?xml version="1.0"?><Invoice/>`), processor.FormatXML},
		{"XML without declaration", []byte(`<Invoice><InvoiceNumber>1</InvoiceNumber></Invoice>`), processor.FormatXML},
		{"PDF", []byte("%PDF-1.4\n%some content"), processor.FormatUnknown},
		{"plain text", []byte("some random text"), processor.FormatUnknown},
		{"empty", []byte{}, processor.FormatUnknown},
		{"only whitespace", []byte("   \n"), processor.FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, processor.DetectFormat(tt.data))
		})
	}
}

func TestFormatString(t *testing.T) {
	tests := []struct {
		format   processor.Format
		expected string
	}{
		{processor.FormatJSON, "json"},
		{processor.FormatXML, "xml"},
		{processor.FormatUnknown, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.format.String())
		})
	}
}

func TestProcess_JSON(t *testing.T) {
	result := processor.NewPipeline().Process(context.Background(), []byte(validJSON))
	require.NoError(t, result.Error)

	assert.Equal(t, processor.MethodJSON, result.Method)
	require.NotNil(t, result.Validation)
	assert.True(t, result.Validation.Passed, "issues: %v", result.Validation.Issues)
	assert.Equal(t, 0.95, result.Validation.ConfidenceScore)
	assert.Equal(t, "Acme Supplies", result.Extraction.Header[model.FieldVendorName])
}

func TestProcess_XML(t *testing.T) {
	result := processor.NewPipeline().Process(context.Background(), []byte(validXML))
	require.NoError(t, result.Error)

	assert.Equal(t, processor.MethodXML, result.Method)
	assert.True(t, result.Validation.Passed, "issues: %v", result.Validation.Issues)
	assert.Equal(t, 1.0, result.Validation.ConfidenceScore)
}

func TestProcess_XMLWithBOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte(validXML)...)
	result := processor.NewPipeline().Process(context.Background(), data)
	require.NoError(t, result.Error)
	assert.True(t, result.Validation.Passed)
}

func TestProcess_FailingInvoiceIsNotAnError(t *testing.T) {
	data := []byte(`{"header": {"vendor_name": "", "invoice_number": "X", "total_amount": "10"}, "lines": []}`)

	result := processor.NewPipeline().Process(context.Background(), data)
	require.NoError(t, result.Error)
	assert.False(t, result.Validation.Passed)
	assert.True(t, result.Validation.HasCode(model.IssueMissingRequiredField))
	assert.True(t, result.Validation.HasCode(model.IssueNoLineItems))
}

func TestProcess_UsesConfiguredEngine(t *testing.T) {
	data := []byte(`{"header": {"vendor_name": "A", "invoice_number": "1", "total_amount": "10.03"},
		"lines": [{"quantity": 1, "unit_price": "10.00", "total_amount": "10.03"}]}`)

	strict := processor.NewPipeline().Process(context.Background(), data)
	require.NoError(t, strict.Error)
	assert.True(t, strict.Validation.HasCode(model.IssueLineMathMismatch))

	lenient := processor.NewPipeline(
		processor.WithEngine(validation.MustNew(validation.WithToleranceCents(5))),
	).Process(context.Background(), data)
	require.NoError(t, lenient.Error)
	assert.True(t, lenient.Validation.Passed, "issues: %v", lenient.Validation.Issues)
}

func TestProcess_Rejected(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown format", "not a document"},
		{"broken JSON", `{"header": `},
		{"wrong JSON shape", `{"header": "Acme"}`},
		{"unknown XML dialect", `<Order><Id>1</Id></Order>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := processor.NewPipeline().Process(context.Background(), []byte(tt.data))
			require.Error(t, result.Error)
			assert.Nil(t, result.Validation)

			var parseErr *model.ParseError
			assert.ErrorAs(t, result.Error, &parseErr)
		})
	}
}

func TestProcessText_NoExtractor(t *testing.T) {
	result := processor.NewPipeline().ProcessText(context.Background(), "invoice text")
	require.Error(t, result.Error)
	assert.Contains(t, result.Error.Error(), "text extractor not configured")
	assert.Equal(t, processor.MethodLLMText, result.Method)
}

func TestProcessText(t *testing.T) {
	extracted := &model.ExtractionResult{
		Header: map[string]any{"vendor_name": "Acme", "invoice_number": "7", "total_amount": "20.00"},
		Lines:  []model.LineItem{{"quantity": 2, "unit_price": "10.00", "total_amount": "20.00"}},
	}
	p := processor.NewPipeline(processor.WithTextExtractor(stubExtractor{result: extracted}))

	result := p.ProcessText(context.Background(), "invoice text")
	require.NoError(t, result.Error)
	assert.Equal(t, processor.MethodLLMText, result.Method)
	assert.Same(t, extracted, result.Extraction)
	assert.True(t, result.Validation.Passed, "issues: %v", result.Validation.Issues)
}

func TestProcessText_ExtractorError(t *testing.T) {
	cause := errors.New("upstream timeout")
	p := processor.NewPipeline(processor.WithTextExtractor(stubExtractor{err: cause}))

	result := p.ProcessText(context.Background(), "invoice text")
	assert.ErrorIs(t, result.Error, cause)
	assert.Nil(t, result.Validation)
}

func TestPipeline_Using(t *testing.T) {
	// line total is three cents off
	extracted := &model.ExtractionResult{
		Header: map[string]any{"vendor_name": "Acme", "invoice_number": "8", "total_amount": "30.03"},
		Lines:  []model.LineItem{{"quantity": 3, "unit_price": "10.00", "total_amount": "30.03"}},
	}
	p := processor.NewPipeline(processor.WithTextExtractor(stubExtractor{result: extracted}))

	loose, err := validation.New(validation.WithToleranceCents(5))
	require.NoError(t, err)

	result := p.Using(loose).ProcessText(context.Background(), "invoice text")
	require.NoError(t, result.Error)
	assert.True(t, result.Validation.Passed, "issues: %v", result.Validation.Issues)

	// the original pipeline keeps its engine
	assert.NotSame(t, loose, p.Engine())
	result = p.ProcessText(context.Background(), "invoice text")
	assert.False(t, result.Validation.Passed)

	assert.Same(t, p, p.Using(nil))
	assert.Same(t, p, p.Using(p.Engine()))
}

func BenchmarkDetectFormat_JSON(b *testing.B) {
	data := []byte(validJSON)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		processor.DetectFormat(data)
	}
}

func BenchmarkProcess_JSON(b *testing.B) {
	ctx := context.Background()
	p := processor.NewPipeline()
	data := []byte(validJSON)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.Process(ctx, data)
	}
}

func BenchmarkProcess_XML(b *testing.B) {
	ctx := context.Background()
	p := processor.NewPipeline()
	data := []byte(validXML)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.Process(ctx, data)
	}
}
