package xml

import (
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"strings"

	"github.com/rezonia/invoice-validator/internal/model"
)

const ublInvoiceNamespace = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"

// UBL 2.1 structures, matched by local name
type ublInvoice struct {
	XMLName                 xml.Name         `xml:"Invoice"`
	ID                      string           `xml:"ID"`
	IssueDate               string           `xml:"IssueDate"`
	DueDate                 string           `xml:"DueDate"`
	DocumentCurrencyCode    string           `xml:"DocumentCurrencyCode"`
	AccountingSupplierParty ublPartyWrapper  `xml:"AccountingSupplierParty"`
	TaxTotal                []ublTaxTotal    `xml:"TaxTotal"`
	LegalMonetaryTotal      ublMonetaryTotal `xml:"LegalMonetaryTotal"`
	InvoiceLines            []ublInvoiceLine `xml:"InvoiceLine"`
}

type ublPartyWrapper struct {
	Party ublParty `xml:"Party"`
}

type ublParty struct {
	PartyName        ublName        `xml:"PartyName"`
	PartyLegalEntity ublLegalEntity `xml:"PartyLegalEntity"`
}

type ublName struct {
	Name string `xml:"Name"`
}

type ublLegalEntity struct {
	RegistrationName string `xml:"RegistrationName"`
}

type ublTaxTotal struct {
	TaxAmount string `xml:"TaxAmount"`
}

type ublMonetaryTotal struct {
	LineExtensionAmount string `xml:"LineExtensionAmount"`
	TaxExclusiveAmount  string `xml:"TaxExclusiveAmount"`
	TaxInclusiveAmount  string `xml:"TaxInclusiveAmount"`
	PayableAmount       string `xml:"PayableAmount"`
}

type ublInvoiceLine struct {
	ID                  string   `xml:"ID"`
	InvoicedQuantity    string   `xml:"InvoicedQuantity"`
	LineExtensionAmount string   `xml:"LineExtensionAmount"`
	Item                ublItem  `xml:"Item"`
	Price               ublPrice `xml:"Price"`
}

type ublItem struct {
	Name        string `xml:"Name"`
	Description string `xml:"Description"`
}

type ublPrice struct {
	PriceAmount string `xml:"PriceAmount"`
}

// UBLAdapter parses OASIS UBL 2.1 invoices (Peppol BIS, PINT)
type UBLAdapter struct{}

// NewUBLAdapter creates a new UBL adapter
func NewUBLAdapter() *UBLAdapter {
	return &UBLAdapter{}
}

// Name returns the dialect name
func (a *UBLAdapter) Name() string {
	return "ubl"
}

// CanParse checks for the UBL invoice namespace
func (a *UBLAdapter) CanParse(content []byte) bool {
	return bytes.Contains(content, []byte(ublInvoiceNamespace))
}

// Parse parses UBL XML into an ExtractionResult
func (a *UBLAdapter) Parse(ctx context.Context, r io.Reader) (*model.ExtractionResult, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, model.NewParseError("ubl", "content", "failed to read content", err)
	}

	var inv ublInvoice
	if err := xml.Unmarshal(content, &inv); err != nil {
		return nil, model.NewParseError("ubl", "Invoice", "failed to parse XML", err)
	}

	vendor := strings.TrimSpace(inv.AccountingSupplierParty.Party.PartyName.Name)
	if vendor == "" {
		vendor = strings.TrimSpace(inv.AccountingSupplierParty.Party.PartyLegalEntity.RegistrationName)
	}

	// the document-level TaxTotal is the first one; later ones are
	// usually the same total in the tax currency
	var tax string
	if len(inv.TaxTotal) > 0 {
		tax = strings.TrimSpace(inv.TaxTotal[0].TaxAmount)
	}

	total := strings.TrimSpace(inv.LegalMonetaryTotal.TaxInclusiveAmount)
	if total == "" {
		total = strings.TrimSpace(inv.LegalMonetaryTotal.PayableAmount)
	}

	header := map[string]any{}
	setIfPresent(header, model.FieldVendorName, vendor)
	setIfPresent(header, model.FieldInvoiceNumber, strings.TrimSpace(inv.ID))
	setIfPresent(header, model.FieldInvoiceDate, strings.TrimSpace(inv.IssueDate))
	setIfPresent(header, model.FieldDueDate, strings.TrimSpace(inv.DueDate))
	setIfPresent(header, model.FieldCurrency, strings.TrimSpace(inv.DocumentCurrencyCode))
	setIfPresent(header, model.FieldSubtotalAmount, strings.TrimSpace(inv.LegalMonetaryTotal.LineExtensionAmount))
	setIfPresent(header, model.FieldTaxAmount, tax)
	setIfPresent(header, model.FieldTotalAmount, total)

	lines := make([]model.LineItem, 0, len(inv.InvoiceLines))
	for _, l := range inv.InvoiceLines {
		description := strings.TrimSpace(l.Item.Name)
		if description == "" {
			description = strings.TrimSpace(l.Item.Description)
		}
		line := model.LineItem{}
		setIfPresent(line, model.LineDescription, description)
		setIfPresent(line, model.LineQuantity, strings.TrimSpace(l.InvoicedQuantity))
		setIfPresent(line, model.LineUnitPrice, strings.TrimSpace(l.Price.PriceAmount))
		setIfPresent(line, model.LineTotalAmount, strings.TrimSpace(l.LineExtensionAmount))
		lines = append(lines, line)
	}

	return &model.ExtractionResult{
		Header:     header,
		Lines:      lines,
		Confidence: structuredConfidence(),
	}, nil
}
