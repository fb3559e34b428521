package validation

import (
	"regexp"
	"strings"
	"time"

	money "github.com/rezonia/invoice-validator/internal/decimal"
	"github.com/rezonia/invoice-validator/internal/model"
)

var (
	isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

	// day/month order is ambiguous, only the shape is checked
	numericDatePattern = regexp.MustCompile(`^\d{1,2}[/.-]\d{1,2}[/.-](\d{2}|\d{4})$`)
)

var (
	dateFields   = []string{model.FieldInvoiceDate, model.FieldDueDate}
	amountFields = []string{model.FieldSubtotalAmount, model.FieldTaxAmount, model.FieldTotalAmount}
)

func (e *Engine) checkRequiredFields(r *model.ExtractionResult) []model.ValidationIssue {
	var issues []model.ValidationIssue
	for _, field := range e.requiredFields {
		v, ok := r.HeaderValue(field)
		if ok && !isBlank(v) {
			continue
		}
		issues = append(issues, model.NewIssue(
			model.IssueMissingRequiredField,
			model.SeverityError,
			map[string]any{"field": field},
			"required field %q is missing or empty", field,
		))
	}
	return issues
}

func (e *Engine) checkFieldFormats(r *model.ExtractionResult) []model.ValidationIssue {
	var issues []model.ValidationIssue

	for _, field := range dateFields {
		v, ok := r.HeaderValue(field)
		if !ok || isBlank(v) {
			continue
		}
		if !IsValidDate(v) {
			issues = append(issues, model.NewIssue(
				model.IssueInvalidFieldFormat,
				model.SeverityError,
				map[string]any{"field": field, "value": v},
				"%s has invalid date format: %v", field, v,
			))
		}
	}

	for _, field := range amountFields {
		v, ok := r.HeaderValue(field)
		if !ok || isBlank(v) {
			continue
		}
		amount := money.Parse(v)
		switch {
		case !amount.Ok():
			issues = append(issues, model.NewIssue(
				model.IssueInvalidFieldFormat,
				model.SeverityError,
				map[string]any{"field": field, "value": v, "reason": amount.Err.Error()},
				"%s is not a valid amount: %v", field, v,
			))
		case !money.IsNonNegative(amount.Value):
			issues = append(issues, model.NewIssue(
				model.IssueInvalidFieldFormat,
				model.SeverityError,
				map[string]any{"field": field, "value": v, "reason": "negative amount"},
				"%s must not be negative: %v", field, v,
			))
		}
	}

	return issues
}

// IsValidDate reports whether v looks like YYYY-MM-DD or D/M/Y with
// "/", "-" or "." separators. Calendar validity is not checked.
func IsValidDate(v any) bool {
	switch d := v.(type) {
	case time.Time:
		return !d.IsZero()
	case *time.Time:
		return d != nil && !d.IsZero()
	case string:
		s := strings.TrimSpace(d)
		return isoDatePattern.MatchString(s) || numericDatePattern.MatchString(s)
	default:
		return false
	}
}

func isBlank(v any) bool {
	switch s := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(s) == ""
	case *string:
		return s == nil || strings.TrimSpace(*s) == ""
	}
	return false
}
