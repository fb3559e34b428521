// Package report renders batch validation outcomes as JSON, text tables,
// CSV or XLSX workbooks.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"github.com/rezonia/invoice-validator/internal/model"
)

// Format is an output format
type Format string

const (
	FormatJSON  Format = "json"
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatXLSX  Format = "xlsx"
)

// ParseFormat validates an output format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatTable, FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", s)
	}
}

// FileResult is the outcome for one input document. Error is set when the
// document could not be loaded; Result is nil in that case.
type FileResult struct {
	File   string                  `json:"file"`
	Method string                  `json:"method,omitempty"`
	Result *model.ValidationResult `json:"result,omitempty"`
	Error  string                  `json:"error,omitempty"`
}

// Status is PASSED, FAILED or ERROR
func (f FileResult) Status() string {
	switch {
	case f.Error != "" || f.Result == nil:
		return "ERROR"
	case f.Result.Passed:
		return "PASSED"
	default:
		return "FAILED"
	}
}

// Summary counts outcomes across a report
type Summary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Errored int `json:"errored"`
}

// Report is one validation run
type Report struct {
	RunID       uuid.UUID    `json:"run_id"`
	GeneratedAt time.Time    `json:"generated_at"`
	Summary     Summary      `json:"summary"`
	Files       []FileResult `json:"files"`
}

// New builds a report with a fresh run ID
func New(files []FileResult) *Report {
	r := &Report{
		RunID:       uuid.New(),
		GeneratedAt: time.Now().UTC(),
		Files:       files,
	}
	for _, f := range files {
		r.Summary.Total++
		switch f.Status() {
		case "PASSED":
			r.Summary.Passed++
		case "FAILED":
			r.Summary.Failed++
		default:
			r.Summary.Errored++
		}
	}
	return r
}

// OK reports whether every file loaded and passed
func (r *Report) OK() bool {
	return r.Summary.Passed == r.Summary.Total
}

// Write renders the report in the given format
func Write(w io.Writer, r *Report, format Format) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatTable:
		return WriteTable(w, r)
	case FormatCSV:
		return WriteCSV(w, r)
	case FormatXLSX:
		return WriteXLSX(w, r)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteJSON writes the report as indented JSON
func WriteJSON(w io.Writer, r *Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// WriteTable writes one row per file followed by its issues
func WriteTable(w io.Writer, r *Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tSTATUS\tERRORS\tWARNINGS\tCONFIDENCE")
	fmt.Fprintln(tw, "----\t------\t------\t--------\t----------")

	for _, f := range r.Files {
		if f.Result == nil {
			fmt.Fprintf(tw, "%s\t%s: %s\t\t\t\n", f.File, f.Status(), f.Error)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.2f\n",
			f.File,
			f.Status(),
			f.Result.ErrorCount,
			f.Result.WarningCount,
			f.Result.ConfidenceScore,
		)
		for _, issue := range f.Result.Issues {
			fmt.Fprintf(tw, "  %s\t%s\t\t\t\n", issue.Code, issue.Message)
		}
	}

	fmt.Fprintf(tw, "\n%d files: %d passed, %d failed, %d errors\n",
		r.Summary.Total, r.Summary.Passed, r.Summary.Failed, r.Summary.Errored)
	return tw.Flush()
}

var csvHeader = []string{"run_id", "file", "status", "method", "confidence", "code", "severity", "message", "error"}

// WriteCSV writes one row per issue. Files without issues get a single
// row with empty issue columns.
func WriteCSV(w io.Writer, r *Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	run := r.RunID.String()
	for _, f := range r.Files {
		confidence := ""
		if f.Result != nil {
			confidence = strconv.FormatFloat(f.Result.ConfidenceScore, 'f', 2, 64)
		}
		base := []string{run, f.File, f.Status(), f.Method, confidence}

		if f.Result == nil || len(f.Result.Issues) == 0 {
			if err := cw.Write(append(base, "", "", "", f.Error)); err != nil {
				return err
			}
			continue
		}
		for _, issue := range f.Result.Issues {
			row := append(append([]string{}, base...), string(issue.Code), string(issue.Severity), issue.Message, "")
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
