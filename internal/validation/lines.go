package validation

import (
	"fmt"

	"github.com/shopspring/decimal"

	money "github.com/rezonia/invoice-validator/internal/decimal"
	"github.com/rezonia/invoice-validator/internal/model"
)

// lineTotals carries the per-line stated totals into reconciliation.
// A line whose total could not be parsed contributes zero.
type lineTotals struct {
	values []decimal.Decimal
}

func (t lineTotals) sum() decimal.Decimal {
	return money.Sum(t.values)
}

// parseAmount is swapped in tests to exercise panic containment
var parseAmount = money.Parse

// parsedLine holds the normalized numbers of one line item. totalKey is
// the key the total was read from (total_amount or amount).
type parsedLine struct {
	quantity  money.Amount
	unitPrice money.Amount
	total     money.Amount
	totalKey  string
	raw       map[string]any
}

func parseLine(line model.LineItem) parsedLine {
	p := parsedLine{raw: map[string]any{}, totalKey: model.LineTotalAmount}

	if v, ok := line.Get(model.LineQuantity); ok {
		p.quantity = parseAmount(v)
		p.raw[model.LineQuantity] = v
	} else {
		p.quantity = money.Amount{Value: decimal.NewFromInt(1)}
	}

	if v, ok := line.Get(model.LineUnitPrice); ok {
		p.unitPrice = parseAmount(v)
		p.raw[model.LineUnitPrice] = v
	} else {
		p.unitPrice = money.Amount{Value: money.Zero}
	}

	if v, ok := line.Get(model.LineTotalAmount); ok {
		p.total = parseAmount(v)
		p.raw[model.LineTotalAmount] = v
	} else if v, ok := line.Get(model.LineAmount); ok {
		p.total = parseAmount(v)
		p.totalKey = model.LineAmount
		p.raw[model.LineAmount] = v
	} else {
		p.total = money.Amount{Value: money.Zero}
	}

	return p
}

// failedFields lists fields that did not parse, in a fixed order
func (p parsedLine) failedFields() []string {
	var fields []string
	if !p.quantity.Ok() {
		fields = append(fields, model.LineQuantity)
	}
	if !p.unitPrice.Ok() {
		fields = append(fields, model.LineUnitPrice)
	}
	if !p.total.Ok() {
		fields = append(fields, p.totalKey)
	}
	return fields
}

func (e *Engine) checkLines(lines []model.LineItem) (lineTotals, []model.ValidationIssue) {
	var issues []model.ValidationIssue
	totals := lineTotals{values: make([]decimal.Decimal, 0, len(lines))}

	for i, line := range lines {
		issues = append(issues, e.checkLine(i+1, line, &totals)...)
	}

	return totals, issues
}

// checkLine appends exactly one entry to totals. A panic is reported as
// INVALID_AMOUNT for this line only; the line then contributes its parsed
// total, or zero if it never got that far.
func (e *Engine) checkLine(lineNumber int, line model.LineItem, totals *lineTotals) (issues []model.ValidationIssue) {
	before := len(totals.values)
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		if len(totals.values) == before {
			totals.values = append(totals.values, money.Zero)
		}
		issues = append(issues, model.NewIssue(
			model.IssueInvalidAmount,
			model.SeverityError,
			map[string]any{"line_number": lineNumber, "check": "line_math", "error": fmt.Sprint(rec)},
			"line %d: could not evaluate amounts: %v", lineNumber, rec,
		))
	}()

	p := parseLine(line)

	if p.total.Ok() {
		totals.values = append(totals.values, p.total.Value)
	} else {
		totals.values = append(totals.values, money.Zero)
	}

	if failed := p.failedFields(); len(failed) > 0 {
		values := make(map[string]any, len(failed))
		for _, f := range failed {
			values[f] = p.raw[f]
		}
		return append(issues, model.NewIssue(
			model.IssueInvalidAmount,
			model.SeverityError,
			map[string]any{
				"line_number": lineNumber,
				"field":       failed[0],
				"fields":      failed,
				"values":      values,
			},
			"line %d: cannot parse %s (%v)", lineNumber, failed[0], p.raw[failed[0]],
		))
	}

	expected := p.quantity.Value.Mul(p.unitPrice.Value)
	actual := p.total.Value
	if money.WithinTolerance(actual, expected, e.tolerance) {
		return issues
	}

	diff := money.AbsDiff(actual, expected)
	return append(issues, model.NewIssue(
		model.IssueLineMathMismatch,
		model.SeverityError,
		map[string]any{
			"line_number":     lineNumber,
			"quantity":        p.quantity.Value,
			"unit_price":      p.unitPrice.Value,
			"actual_amount":   actual,
			"expected_amount": expected,
			"difference":      diff,
			"tolerance":       e.tolerance,
		},
		"line %d: %s x %s = %s, but line total is %s (difference %s)",
		lineNumber, p.quantity.Value, p.unitPrice.Value, expected, actual, diff,
	))
}

func noLineItemsIssue() model.ValidationIssue {
	return model.NewIssue(
		model.IssueNoLineItems,
		model.SeverityError,
		map[string]any{"line_count": 0},
		"invoice has no line items",
	)
}
