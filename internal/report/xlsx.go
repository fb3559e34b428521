package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	sheetSummary = "Summary"
	sheetIssues  = "Issues"
)

// WriteXLSX writes a workbook with a per-file summary sheet and a sheet
// listing every issue with its details
func WriteXLSX(w io.Writer, r *Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}
	if _, err := f.NewSheet(sheetIssues); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}

	writeRow(f, sheetSummary, 1, "Run", r.RunID.String(), "Generated", r.GeneratedAt.Format("2006-01-02 15:04:05"))
	writeRow(f, sheetSummary, 3, "File", "Status", "Method", "Errors", "Warnings", "Confidence", "Load Error")

	row := 4
	for _, file := range r.Files {
		if file.Result == nil {
			writeRow(f, sheetSummary, row, file.File, file.Status(), file.Method, "", "", "", file.Error)
		} else {
			writeRow(f, sheetSummary, row, file.File, file.Status(), file.Method,
				file.Result.ErrorCount, file.Result.WarningCount, file.Result.ConfidenceScore, "")
		}
		row++
	}
	writeRow(f, sheetSummary, row+1, "Total", r.Summary.Total, "Passed", r.Summary.Passed,
		"Failed", r.Summary.Failed, "Errored", r.Summary.Errored)

	writeRow(f, sheetIssues, 1, "File", "Code", "Severity", "Message", "Details")
	row = 2
	for _, file := range r.Files {
		if file.Result == nil {
			continue
		}
		for _, issue := range file.Result.Issues {
			details, err := json.Marshal(issue.Details)
			if err != nil {
				details = []byte(fmt.Sprintf("%v", issue.Details))
			}
			writeRow(f, sheetIssues, row, file.File, string(issue.Code), string(issue.Severity), issue.Message, string(details))
			row++
		}
	}

	_ = f.SetColWidth(sheetSummary, "A", "A", 40)
	_ = f.SetColWidth(sheetSummary, "B", "F", 12)
	_ = f.SetColWidth(sheetSummary, "G", "G", 60)
	_ = f.SetColWidth(sheetIssues, "A", "A", 40)
	_ = f.SetColWidth(sheetIssues, "B", "C", 26)
	_ = f.SetColWidth(sheetIssues, "D", "E", 70)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}
