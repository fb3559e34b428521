package report_test

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/rezonia/invoice-validator/internal/model"
	"github.com/rezonia/invoice-validator/internal/report"
)

func sampleFiles() []report.FileResult {
	passed := model.NewValidationResult(nil, 0.97)
	failed := model.NewValidationResult([]model.ValidationIssue{
		model.NewIssue(model.IssueMissingRequiredField, model.SeverityError,
			map[string]any{"field": "vendor_name"}, "Required field '%s' is missing", "vendor_name"),
		model.NewIssue(model.IssueTotalMismatch, model.SeverityError,
			map[string]any{"difference": "0.50"}, "Total does not match, off by %s", "0.50"),
	}, 0.6)

	return []report.FileResult{
		{File: "a.json", Method: "json", Result: passed},
		{File: "b.xml", Method: "xml", Result: failed},
		{File: "c.txt", Error: "unrecognized document format"},
	}
}

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"json", "TABLE", " csv ", "xlsx"} {
		f, err := report.ParseFormat(name)
		require.NoError(t, err, name)
		assert.Equal(t, strings.ToLower(strings.TrimSpace(name)), string(f))
	}

	_, err := report.ParseFormat("yaml")
	require.Error(t, err)
}

func TestNew_Summary(t *testing.T) {
	r := report.New(sampleFiles())

	assert.NotEqual(t, uuid.Nil, r.RunID)
	assert.Equal(t, report.Summary{Total: 3, Passed: 1, Failed: 1, Errored: 1}, r.Summary)
	assert.False(t, r.OK())
	assert.True(t, report.New(sampleFiles()[:1]).OK())
	assert.True(t, report.New(nil).OK())
}

func TestNew_UniqueRunIDs(t *testing.T) {
	assert.NotEqual(t, report.New(nil).RunID, report.New(nil).RunID)
}

func TestFileResult_Status(t *testing.T) {
	files := sampleFiles()
	assert.Equal(t, "PASSED", files[0].Status())
	assert.Equal(t, "FAILED", files[1].Status())
	assert.Equal(t, "ERROR", files[2].Status())
}

func TestWriteJSON(t *testing.T) {
	r := report.New(sampleFiles())
	var buf bytes.Buffer
	require.NoError(t, report.Write(&buf, r, report.FormatJSON))

	var decoded struct {
		RunID   string         `json:"run_id"`
		Summary report.Summary `json:"summary"`
		Files   []struct {
			File   string          `json:"file"`
			Result json.RawMessage `json:"result"`
			Error  string          `json:"error"`
		} `json:"files"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, r.RunID.String(), decoded.RunID)
	assert.Equal(t, 3, decoded.Summary.Total)
	require.Len(t, decoded.Files, 3)
	assert.Contains(t, string(decoded.Files[1].Result), `"MISSING_REQUIRED_FIELD"`)
	assert.Nil(t, decoded.Files[2].Result)
	assert.Equal(t, "unrecognized document format", decoded.Files[2].Error)
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.Write(&buf, report.New(sampleFiles()), report.FormatTable))

	out := buf.String()
	assert.Contains(t, out, "FILE")
	assert.Contains(t, out, "a.json")
	assert.Contains(t, out, "PASSED")
	assert.Contains(t, out, "TOTAL_MISMATCH")
	assert.Contains(t, out, "ERROR: unrecognized document format")
	assert.Contains(t, out, "3 files: 1 passed, 1 failed, 1 errors")
}

func TestWriteCSV(t *testing.T) {
	r := report.New(sampleFiles())
	var buf bytes.Buffer
	require.NoError(t, report.Write(&buf, r, report.FormatCSV))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)

	// header, one passing file, two issues, one load error
	require.Len(t, rows, 5)
	assert.Equal(t, "file", rows[0][1])
	assert.Equal(t, []string{r.RunID.String(), "a.json", "PASSED", "json", "0.97", "", "", "", ""}, rows[1])
	assert.Equal(t, "MISSING_REQUIRED_FIELD", rows[2][5])
	assert.Equal(t, "Required field 'vendor_name' is missing", rows[2][7])
	assert.Equal(t, "TOTAL_MISMATCH", rows[3][5])
	assert.Equal(t, "ERROR", rows[4][2])
	assert.Equal(t, "unrecognized document format", rows[4][8])
}

func TestWriteXLSX(t *testing.T) {
	r := report.New(sampleFiles())
	var buf bytes.Buffer
	require.NoError(t, report.Write(&buf, r, report.FormatXLSX))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "Issues"}, f.GetSheetList())

	runID, err := f.GetCellValue("Summary", "B1")
	require.NoError(t, err)
	assert.Equal(t, r.RunID.String(), runID)

	file, _ := f.GetCellValue("Summary", "A5")
	status, _ := f.GetCellValue("Summary", "B5")
	assert.Equal(t, "b.xml", file)
	assert.Equal(t, "FAILED", status)

	loadErr, _ := f.GetCellValue("Summary", "G6")
	assert.Equal(t, "unrecognized document format", loadErr)

	rows, err := f.GetRows("Issues")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "MISSING_REQUIRED_FIELD", rows[1][1])
	assert.JSONEq(t, `{"field": "vendor_name"}`, rows[1][4])
}

func TestWrite_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	require.Error(t, report.Write(&buf, report.New(nil), report.Format("yaml")))
}
