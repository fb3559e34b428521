package model

// ValidationResult is the outcome of validating one extraction result
type ValidationResult struct {
	Passed          bool              `json:"passed"`
	Issues          []ValidationIssue `json:"issues"`
	ConfidenceScore float64           `json:"confidence_score"`
	ErrorCount      int               `json:"error_count"`
	WarningCount    int               `json:"warning_count"`
}

// NewValidationResult aggregates issues into a result. Passed is true
// iff no issue has error severity.
func NewValidationResult(issues []ValidationIssue, confidence float64) *ValidationResult {
	if issues == nil {
		issues = []ValidationIssue{}
	}
	r := &ValidationResult{
		Issues:          issues,
		ConfidenceScore: confidence,
	}
	for _, issue := range issues {
		switch issue.Severity {
		case SeverityError:
			r.ErrorCount++
		case SeverityWarning:
			r.WarningCount++
		}
	}
	r.Passed = r.ErrorCount == 0
	return r
}

// IssuesWithCode returns issues matching code in their original order
func (r *ValidationResult) IssuesWithCode(code IssueCode) []ValidationIssue {
	var out []ValidationIssue
	for _, issue := range r.Issues {
		if issue.Code == code {
			out = append(out, issue)
		}
	}
	return out
}

// HasCode reports whether any issue carries code
func (r *ValidationResult) HasCode(code IssueCode) bool {
	for _, issue := range r.Issues {
		if issue.Code == code {
			return true
		}
	}
	return false
}

// Codes lists issue codes in order
func (r *ValidationResult) Codes() []IssueCode {
	codes := make([]IssueCode, 0, len(r.Issues))
	for _, issue := range r.Issues {
		codes = append(codes, issue.Code)
	}
	return codes
}
