package model

import "fmt"

// IssueCode classifies a validation finding
type IssueCode string

const (
	IssueMissingRequiredField IssueCode = "MISSING_REQUIRED_FIELD"
	IssueInvalidFieldFormat   IssueCode = "INVALID_FIELD_FORMAT"
	IssueNoLineItems          IssueCode = "NO_LINE_ITEMS"
	IssueLineMathMismatch     IssueCode = "LINE_MATH_MISMATCH"
	IssueSubtotalMismatch     IssueCode = "SUBTOTAL_MISMATCH"
	IssueTotalMismatch        IssueCode = "TOTAL_MISMATCH"
	IssueInvalidAmount        IssueCode = "INVALID_AMOUNT"
)

// Severity ranks a validation finding
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// ValidationIssue is a single typed finding produced by a check
type ValidationIssue struct {
	Code     IssueCode      `json:"code"`
	Message  string         `json:"message"`
	Severity Severity       `json:"severity"`
	Details  map[string]any `json:"details"`
}

// NewIssue creates an issue, formatting the message with args
func NewIssue(code IssueCode, severity Severity, details map[string]any, format string, args ...interface{}) ValidationIssue {
	if details == nil {
		details = map[string]any{}
	}
	return ValidationIssue{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Severity: severity,
		Details:  details,
	}
}

func (i ValidationIssue) String() string {
	return fmt.Sprintf("%s [%s]: %s", i.Code, i.Severity, i.Message)
}
