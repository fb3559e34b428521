package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/invoice-validator/internal/model"
	"github.com/rezonia/invoice-validator/internal/server"
	"github.com/rezonia/invoice-validator/internal/validation"
)

const validPayload = `{
	"header": {
		"vendor_name": "Acme Supplies",
		"invoice_number": "INV-2024-001",
		"invoice_date": "2024-01-15",
		"subtotal_amount": "135.00",
		"tax_amount": "15.00",
		"total_amount": "150.00"
	},
	"lines": [
		{"description": "Consulting", "quantity": 1, "unit_price": "100.00", "total_amount": "100.00"},
		{"description": "Travel", "quantity": 2, "unit_price": "17.50", "total_amount": "35.00"}
	],
	"confidence": {"overall": 0.9}
}`

// line total is off by three cents
const roundingPayload = `{
	"header": {"vendor_name": "Acme", "invoice_number": "R-1", "total_amount": "30.03"},
	"lines": [{"quantity": 3, "unit_price": "10.00", "total_amount": "30.03"}]
}`

type stubExtractor struct {
	result *model.ExtractionResult
	err    error
}

func (s stubExtractor) Extract(ctx context.Context, text string) (*model.ExtractionResult, error) {
	return s.result, s.err
}

func newTestServer(mutate ...func(*server.Config)) *server.Server {
	config := &server.Config{
		Address: ":8080",
		Debug:   true,
	}
	for _, m := range mutate {
		m(config)
	}
	return server.NewServer(config)
}

func do(t *testing.T, srv *server.Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func decodeResult(t *testing.T, w *httptest.ResponseRecorder) *model.ValidationResult {
	t.Helper()
	var result model.ValidationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result), w.Body.String())
	return &result
}

func TestHealthEndpoint(t *testing.T) {
	w := do(t, newTestServer(), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var response server.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	assert.Equal(t, "ok", response.Status)
	assert.NotEmpty(t, response.Time)
	assert.Equal(t, validation.DefaultToleranceCents, response.ToleranceCents)
	assert.Equal(t, validation.DefaultRequiredFields(), response.RequiredFields)
	assert.False(t, response.LLMEnabled)
}

func TestValidateEndpoint_Passed(t *testing.T) {
	w := do(t, newTestServer(), http.MethodPost, "/api/v1/validate", validPayload)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	result := decodeResult(t, w)
	assert.True(t, result.Passed)
	assert.Empty(t, result.Issues)
	assert.Equal(t, 0.9, result.ConfidenceScore)
}

func TestValidateEndpoint_FailedIsStill200(t *testing.T) {
	payload := `{"header": {"vendor_name": "", "invoice_number": "X", "total_amount": "10.00"}, "lines": []}`

	w := do(t, newTestServer(), http.MethodPost, "/api/v1/validate", payload)
	require.Equal(t, http.StatusOK, w.Code)

	result := decodeResult(t, w)
	assert.False(t, result.Passed)
	assert.Equal(t, []model.IssueCode{model.IssueMissingRequiredField, model.IssueNoLineItems}, result.Codes())
	assert.Equal(t, 2, result.ErrorCount)
}

func TestValidateEndpoint_GarbageValuesAreIssues(t *testing.T) {
	payload := `{"header": {"vendor_name": "abc", "invoice_number": "abc", "total_amount": "abc"},
		"lines": [{"quantity": "abc", "unit_price": "abc", "total_amount": "abc"}]}`

	w := do(t, newTestServer(), http.MethodPost, "/api/v1/validate", payload)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decodeResult(t, w).Passed)
}

func TestValidateEndpoint_XML(t *testing.T) {
	xmlData := `<Invoice>
	<VendorName>Acme</VendorName>
	<InvoiceNumber>X-1</InvoiceNumber>
	<TotalAmount>20.00</TotalAmount>
	<Items><Item><Quantity>2</Quantity><UnitPrice>10.00</UnitPrice><TotalAmount>20.00</TotalAmount></Item></Items>
</Invoice>`

	w := do(t, newTestServer(), http.MethodPost, "/api/v1/validate", xmlData)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, decodeResult(t, w).Passed)
}

func TestValidateEndpoint_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"not json", "hello"},
		{"truncated json", `{"header": {`},
		{"header is a string", `{"header": "Acme", "lines": []}`},
		{"lines is an object", `{"header": {}, "lines": {"quantity": 1}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, newTestServer(), http.MethodPost, "/api/v1/validate", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var response server.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.NotEmpty(t, response.Error)
			assert.NotEmpty(t, response.RequestID)
		})
	}
}

func TestValidateEndpoint_ToleranceOverride(t *testing.T) {
	srv := newTestServer()

	w := do(t, srv, http.MethodPost, "/api/v1/validate", roundingPayload)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeResult(t, w).HasCode(model.IssueLineMathMismatch))

	w = do(t, srv, http.MethodPost, "/api/v1/validate?tolerance_cents=5", roundingPayload)
	require.Equal(t, http.StatusOK, w.Code)
	result := decodeResult(t, w)
	assert.True(t, result.Passed, "issues: %v", result.Issues)

	// the override does not leak into later requests
	w = do(t, srv, http.MethodPost, "/api/v1/validate", roundingPayload)
	assert.False(t, decodeResult(t, w).Passed)
}

func TestValidateEndpoint_InvalidTolerance(t *testing.T) {
	for _, q := range []string{"-1", "abc", ""} {
		t.Run(q, func(t *testing.T) {
			w := do(t, newTestServer(), http.MethodPost, "/api/v1/validate?tolerance_cents="+q, validPayload)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestValidateEndpoint_ConfiguredEngine(t *testing.T) {
	srv := newTestServer(func(c *server.Config) {
		c.Engine = validation.MustNew(validation.WithToleranceCents(5))
	})

	w := do(t, srv, http.MethodPost, "/api/v1/validate", roundingPayload)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeResult(t, w).Passed)
}

func TestValidateEndpoint_BodyTooLarge(t *testing.T) {
	srv := newTestServer(func(c *server.Config) { c.MaxBodyBytes = 64 })

	w := do(t, srv, http.MethodPost, "/api/v1/validate", validPayload)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRequestID(t *testing.T) {
	srv := newTestServer()

	w := do(t, srv, http.MethodGet, "/health", "")
	generated := w.Header().Get(server.RequestIDHeader)
	assert.Len(t, generated, 36)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(server.RequestIDHeader, "caller-supplied-id")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "caller-supplied-id", rec.Header().Get(server.RequestIDHeader))
}

func TestValidateBatchEndpoint(t *testing.T) {
	payload := "[" + validPayload + "," + roundingPayload + "]"

	w := do(t, newTestServer(), http.MethodPost, "/api/v1/validate/batch", payload)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var results []model.ValidationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
	require.Len(t, results, 2)
	assert.True(t, results[0].Passed)
	assert.False(t, results[1].Passed)
	assert.True(t, results[1].HasCode(model.IssueLineMathMismatch))
}

func TestValidateBatchEndpoint_BadItem(t *testing.T) {
	payload := "[" + validPayload + `, {"header": 5}]`

	w := do(t, newTestServer(), http.MethodPost, "/api/v1/validate/batch", payload)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "item 1")
}

func TestValidateBatchEndpoint_NotAnArray(t *testing.T) {
	w := do(t, newTestServer(), http.MethodPost, "/api/v1/validate/batch", validPayload)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExtractEndpoint_NoLLM(t *testing.T) {
	w := do(t, newTestServer(), http.MethodPost, "/api/v1/extract", "ACME invoice text")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestExtractEndpoint(t *testing.T) {
	extracted := &model.ExtractionResult{
		Header: map[string]any{"vendor_name": "Acme", "invoice_number": "7", "total_amount": "20.00"},
		Lines:  []model.LineItem{{"quantity": 2, "unit_price": "10.00", "total_amount": "20.00"}},
	}
	srv := newTestServer(func(c *server.Config) {
		c.Extractor = stubExtractor{result: extracted}
	})

	w := do(t, srv, http.MethodPost, "/api/v1/extract", "ACME invoice text")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var response struct {
		Method     string                 `json:"method"`
		Validation model.ValidationResult `json:"validation"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "llm_text", response.Method)
	assert.True(t, response.Validation.Passed)
}

func TestExtractEndpoint_ToleranceOverride(t *testing.T) {
	extracted := &model.ExtractionResult{
		Header: map[string]any{"vendor_name": "Acme", "invoice_number": "R-1", "total_amount": "30.03"},
		Lines:  []model.LineItem{{"quantity": 3, "unit_price": "10.00", "total_amount": "30.03"}},
	}
	srv := newTestServer(func(c *server.Config) {
		c.Extractor = stubExtractor{result: extracted}
	})

	for path, passed := range map[string]bool{
		"/api/v1/extract":                   false,
		"/api/v1/extract?tolerance_cents=5": true,
	} {
		w := do(t, srv, http.MethodPost, path, "ACME invoice text")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var response struct {
			Validation model.ValidationResult `json:"validation"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, passed, response.Validation.Passed, path)
	}
}

func TestExtractEndpoint_ExtractorError(t *testing.T) {
	srv := newTestServer(func(c *server.Config) {
		c.Extractor = stubExtractor{err: model.NewExtractionError("llm_text", "model request failed", errors.New("timeout"))}
	})

	w := do(t, srv, http.MethodPost, "/api/v1/extract", "ACME invoice text")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "model request failed")
}

func TestUnknownRoute(t *testing.T) {
	w := do(t, newTestServer(), http.MethodPost, "/api/v1/process/xml", validPayload)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func BenchmarkValidateEndpoint(b *testing.B) {
	srv := newTestServer()
	body := []byte(validPayload)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/validate", bytes.NewReader(body))
		srv.Handler().ServeHTTP(httptest.NewRecorder(), req)
	}
}
