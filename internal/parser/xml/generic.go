package xml

import (
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"strings"

	"github.com/rezonia/invoice-validator/internal/model"
)

// Generic XML structures: flat header elements and an <Items> list
type genericInvoice struct {
	XMLName        xml.Name     `xml:"Invoice"`
	VendorName     string       `xml:"VendorName"`
	InvoiceNumber  string       `xml:"InvoiceNumber"`
	InvoiceDate    string       `xml:"InvoiceDate"`
	DueDate        string       `xml:"DueDate"`
	Currency       string       `xml:"Currency"`
	SubtotalAmount string       `xml:"SubtotalAmount"`
	TaxAmount      string       `xml:"TaxAmount"`
	TotalAmount    string       `xml:"TotalAmount"`
	Items          genericItems `xml:"Items"`
}

type genericItems struct {
	Items []genericItem `xml:"Item"`
}

type genericItem struct {
	Description string `xml:"Description"`
	Quantity    string `xml:"Quantity"`
	UnitPrice   string `xml:"UnitPrice"`
	TotalAmount string `xml:"TotalAmount"`
	Amount      string `xml:"Amount"`
}

// GenericAdapter parses the flat <Invoice> format
type GenericAdapter struct{}

// NewGenericAdapter creates a new generic adapter
func NewGenericAdapter() *GenericAdapter {
	return &GenericAdapter{}
}

// Name returns the dialect name
func (a *GenericAdapter) Name() string {
	return "generic"
}

// CanParse checks if content is a flat <Invoice> document
func (a *GenericAdapter) CanParse(content []byte) bool {
	return bytes.Contains(content, []byte("<Invoice")) &&
		(bytes.Contains(content, []byte("<InvoiceNumber>")) || bytes.Contains(content, []byte("<VendorName>")))
}

// Parse parses generic XML into an ExtractionResult. Values are kept as
// raw trimmed strings so amounts are normalized by the validator.
func (a *GenericAdapter) Parse(ctx context.Context, r io.Reader) (*model.ExtractionResult, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, model.NewParseError("xml", "content", "failed to read content", err)
	}

	var inv genericInvoice
	if err := xml.Unmarshal(content, &inv); err != nil {
		return nil, model.NewParseError("xml", "Invoice", "failed to parse XML", err)
	}

	header := map[string]any{}
	setIfPresent(header, model.FieldVendorName, strings.TrimSpace(inv.VendorName))
	setIfPresent(header, model.FieldInvoiceNumber, strings.TrimSpace(inv.InvoiceNumber))
	setIfPresent(header, model.FieldInvoiceDate, strings.TrimSpace(inv.InvoiceDate))
	setIfPresent(header, model.FieldDueDate, strings.TrimSpace(inv.DueDate))
	setIfPresent(header, model.FieldCurrency, strings.TrimSpace(inv.Currency))
	setIfPresent(header, model.FieldSubtotalAmount, strings.TrimSpace(inv.SubtotalAmount))
	setIfPresent(header, model.FieldTaxAmount, strings.TrimSpace(inv.TaxAmount))
	setIfPresent(header, model.FieldTotalAmount, strings.TrimSpace(inv.TotalAmount))

	lines := make([]model.LineItem, 0, len(inv.Items.Items))
	for _, item := range inv.Items.Items {
		line := model.LineItem{}
		setIfPresent(line, model.LineDescription, strings.TrimSpace(item.Description))
		setIfPresent(line, model.LineQuantity, strings.TrimSpace(item.Quantity))
		setIfPresent(line, model.LineUnitPrice, strings.TrimSpace(item.UnitPrice))
		setIfPresent(line, model.LineTotalAmount, strings.TrimSpace(item.TotalAmount))
		setIfPresent(line, model.LineAmount, strings.TrimSpace(item.Amount))
		lines = append(lines, line)
	}

	return &model.ExtractionResult{
		Header:     header,
		Lines:      lines,
		Confidence: structuredConfidence(),
	}, nil
}
