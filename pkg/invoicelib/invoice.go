// Package invoicelib provides a public API for validating extracted
// invoice data.
//
// Extraction results come from an upstream OCR, LLM or structured parser
// and are checked for required fields, field formats, line arithmetic and
// header reconciliation. Problems are reported as issues, never as errors.
//
// Example usage:
//
//	v, err := invoicelib.NewValidator(invoicelib.WithToleranceCents(2))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result := v.Validate(extraction)
//	fmt.Println(result.Passed, result.Codes())
package invoicelib

import "github.com/rezonia/invoice-validator/internal/model"

// Re-export core types for public API
type (
	ExtractionResult = model.ExtractionResult
	LineItem         = model.LineItem
	ValidationResult = model.ValidationResult
	ValidationIssue  = model.ValidationIssue
	IssueCode        = model.IssueCode
	Severity         = model.Severity
)

// Re-export issue codes
const (
	IssueMissingRequiredField = model.IssueMissingRequiredField
	IssueInvalidFieldFormat   = model.IssueInvalidFieldFormat
	IssueNoLineItems          = model.IssueNoLineItems
	IssueLineMathMismatch     = model.IssueLineMathMismatch
	IssueSubtotalMismatch     = model.IssueSubtotalMismatch
	IssueTotalMismatch        = model.IssueTotalMismatch
	IssueInvalidAmount        = model.IssueInvalidAmount
)

// Re-export severities
const (
	SeverityError   = model.SeverityError
	SeverityWarning = model.SeverityWarning
	SeverityInfo    = model.SeverityInfo
)

// Re-export header field names
const (
	FieldVendorName     = model.FieldVendorName
	FieldInvoiceNumber  = model.FieldInvoiceNumber
	FieldInvoiceDate    = model.FieldInvoiceDate
	FieldDueDate        = model.FieldDueDate
	FieldCurrency       = model.FieldCurrency
	FieldSubtotalAmount = model.FieldSubtotalAmount
	FieldTaxAmount      = model.FieldTaxAmount
	FieldTotalAmount    = model.FieldTotalAmount
)

// Re-export error types
type (
	ParseError      = model.ParseError
	ConfigError     = model.ConfigError
	ExtractionError = model.ExtractionError
)
