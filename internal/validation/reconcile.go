package validation

import (
	"github.com/shopspring/decimal"

	money "github.com/rezonia/invoice-validator/internal/decimal"
	"github.com/rezonia/invoice-validator/internal/model"
)

// reconcile checks that line totals, subtotal, tax and total agree.
// An unparseable subtotal or total stops reconciliation with a single
// INVALID_AMOUNT issue; an unparseable tax counts as zero.
func (e *Engine) reconcile(r *model.ExtractionResult, totals lineTotals) []model.ValidationIssue {
	var issues []model.ValidationIssue
	linesTotal := totals.sum()

	subtotal, hasSubtotal, bad := e.headerAmount(r, model.FieldSubtotalAmount)
	if bad != nil {
		return append(issues, *bad)
	}

	if hasSubtotal && !money.WithinTolerance(subtotal, linesTotal, e.tolerance) {
		diff := money.AbsDiff(subtotal, linesTotal)
		issues = append(issues, model.NewIssue(
			model.IssueSubtotalMismatch,
			model.SeverityError,
			map[string]any{
				"lines_total":     linesTotal,
				"header_subtotal": subtotal,
				"difference":      diff,
				"tolerance":       e.tolerance,
			},
			"sum of line totals %s does not match subtotal %s (difference %s)",
			linesTotal, subtotal, diff,
		))
	}

	base := linesTotal
	if hasSubtotal {
		base = subtotal
	}

	tax := money.Zero
	if v, ok := r.HeaderValue(model.FieldTaxAmount); ok {
		if amount := money.Parse(v); amount.Ok() {
			tax = amount.Value
		}
	}
	expectedTotal := base.Add(tax)

	total, hasTotal, bad := e.headerAmount(r, model.FieldTotalAmount)
	if bad != nil {
		return append(issues, *bad)
	}

	if hasTotal && !money.WithinTolerance(total, expectedTotal, e.tolerance) {
		diff := money.AbsDiff(total, expectedTotal)
		issues = append(issues, model.NewIssue(
			model.IssueTotalMismatch,
			model.SeverityError,
			map[string]any{
				"expected_total": expectedTotal,
				"header_total":   total,
				"difference":     diff,
				"tolerance":      e.tolerance,
			},
			"subtotal %s + tax %s = %s, but total is %s (difference %s)",
			base, tax, expectedTotal, total, diff,
		))
	}

	return issues
}

// headerAmount reads a header amount that takes part in reconciliation.
// It reports whether the amount is usable (present and positive), or an
// INVALID_AMOUNT issue when the value is present but not a number.
func (e *Engine) headerAmount(r *model.ExtractionResult, field string) (decimal.Decimal, bool, *model.ValidationIssue) {
	v, ok := r.HeaderValue(field)
	if !ok || isBlank(v) {
		return money.Zero, false, nil
	}

	amount := money.Parse(v)
	if !amount.Ok() {
		issue := model.NewIssue(
			model.IssueInvalidAmount,
			model.SeverityError,
			map[string]any{"field": field, "value": v, "reason": amount.Err.Error()},
			"cannot reconcile totals: %s is not a number (%v)", field, v,
		)
		return money.Zero, false, &issue
	}

	if !money.IsPositive(amount.Value) {
		return money.Zero, false, nil
	}
	return amount.Value, true, nil
}
