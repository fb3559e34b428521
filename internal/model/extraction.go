package model

// Header field names recognised on an extraction result
const (
	FieldVendorName     = "vendor_name"
	FieldInvoiceNumber  = "invoice_number"
	FieldInvoiceDate    = "invoice_date"
	FieldDueDate        = "due_date"
	FieldCurrency       = "currency"
	FieldSubtotalAmount = "subtotal_amount"
	FieldTaxAmount      = "tax_amount"
	FieldTotalAmount    = "total_amount"
)

// Line item keys
const (
	LineDescription = "description"
	LineQuantity    = "quantity"
	LineUnitPrice   = "unit_price"
	LineTotalAmount = "total_amount"
	LineAmount      = "amount"
)

// ConfidenceOverall is the confidence key copied into the validation result
const ConfidenceOverall = "overall"

// LineItem is one billed row. Values are kept as produced by the
// extractor (strings, numbers, decimals) and normalized during validation.
type LineItem map[string]any

// Get returns the value for key and whether it is set to a non-nil value
func (l LineItem) Get(key string) (any, bool) {
	v, ok := l[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// ExtractionResult is the structured data produced from a source invoice
type ExtractionResult struct {
	Header     map[string]any `json:"header"`
	Lines      []LineItem     `json:"lines"`
	Confidence map[string]any `json:"confidence"`
}

// HeaderValue returns a header value and whether it is set to a non-nil value
func (r *ExtractionResult) HeaderValue(field string) (any, bool) {
	if r == nil || r.Header == nil {
		return nil, false
	}
	v, ok := r.Header[field]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}
