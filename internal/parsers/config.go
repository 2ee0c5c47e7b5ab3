package parsers

import (
	"fmt"
	"strings"

	"gst-reconciler/pkg/errors"
)

// Default date layouts of the two ledgers
const (
	FirmDateLayout   = "02-01-2006"
	PortalDateLayout = "02/01/2006"
)

// FirmColumns names the required header of each firm ledger field
type FirmColumns struct {
	GSTIN           string `json:"gstin" mapstructure:"gstin"`
	PartyName       string `json:"party_name" mapstructure:"party_name"`
	AccountingDocNo string `json:"accounting_document_no" mapstructure:"accounting_document_no"`
	InvoiceNumber   string `json:"invoice_number" mapstructure:"invoice_number"`
	InvoiceDate     string `json:"invoice_date" mapstructure:"invoice_date"`
	CGST            string `json:"cgst" mapstructure:"cgst"`
	SGST            string `json:"sgst" mapstructure:"sgst"`
	IGST            string `json:"igst" mapstructure:"igst"`
}

// PortalColumns names the required header of each portal ledger field
type PortalColumns struct {
	GSTIN         string `json:"gstin" mapstructure:"gstin"`
	InvoiceNumber string `json:"invoice_number" mapstructure:"invoice_number"`
	InvoiceDate   string `json:"invoice_date" mapstructure:"invoice_date"`
	CentralTax    string `json:"central_tax" mapstructure:"central_tax"`
	StateTax      string `json:"state_tax" mapstructure:"state_tax"`
	IntegratedTax string `json:"integrated_tax" mapstructure:"integrated_tax"`
}

// FirmSourceConfig describes how to read the firm ledger
type FirmSourceConfig struct {
	// Sheet is the worksheet to read; empty means the first sheet.
	Sheet      string      `json:"sheet" mapstructure:"sheet"`
	DateFormat string      `json:"date_format" mapstructure:"date_format"`
	Columns    FirmColumns `json:"columns" mapstructure:"columns"`
}

// PortalSourceConfig describes how to read the portal ledger
type PortalSourceConfig struct {
	Sheet      string        `json:"sheet" mapstructure:"sheet"`
	DateFormat string        `json:"date_format" mapstructure:"date_format"`
	Columns    PortalColumns `json:"columns" mapstructure:"columns"`
}

// LedgerConfig holds the column mapping of both ledgers. It is the only
// place where header names appear.
type LedgerConfig struct {
	Firm   FirmSourceConfig   `json:"firm" mapstructure:"firm"`
	Portal PortalSourceConfig `json:"portal" mapstructure:"portal"`
}

// DefaultLedgerConfig returns the header names used by the firm's
// accounting export and by the tax portal download.
func DefaultLedgerConfig() *LedgerConfig {
	return &LedgerConfig{
		Firm: FirmSourceConfig{
			DateFormat: FirmDateLayout,
			Columns: FirmColumns{
				GSTIN:           "GSTIN of supplier",
				PartyName:       "Party Name",
				AccountingDocNo: "Accounting Document No",
				InvoiceNumber:   "Invoice No",
				InvoiceDate:     "Invoice Date",
				CGST:            "CGST Amount",
				SGST:            "SGST Amount",
				IGST:            "IGST Amount",
			},
		},
		Portal: PortalSourceConfig{
			DateFormat: PortalDateLayout,
			Columns: PortalColumns{
				GSTIN:         "GSTIN of supplier",
				InvoiceNumber: "Invoice number",
				InvoiceDate:   "Invoice Date",
				CentralTax:    "Central Tax(₹)",
				StateTax:      "State/UT Tax(₹)",
				IntegratedTax: "Integrated Tax(₹)",
			},
		},
	}
}

// Validate checks that every column name and date format is set
func (c *LedgerConfig) Validate() error {
	if strings.TrimSpace(c.Firm.DateFormat) == "" {
		return fmt.Errorf("firm date format cannot be empty")
	}
	if strings.TrimSpace(c.Portal.DateFormat) == "" {
		return fmt.Errorf("portal date format cannot be empty")
	}

	for _, col := range c.firmRequired() {
		if strings.TrimSpace(col.header) == "" {
			return fmt.Errorf("firm column for %s cannot be empty", col.field)
		}
	}
	for _, col := range c.portalRequired() {
		if strings.TrimSpace(col.header) == "" {
			return fmt.Errorf("portal column for %s cannot be empty", col.field)
		}
	}
	return nil
}

// ColumnMappings lists each logical field with its header in both ledgers
func (c *LedgerConfig) ColumnMappings() []errors.ColumnMapping {
	f, p := c.Firm.Columns, c.Portal.Columns
	return []errors.ColumnMapping{
		{Field: "Supplier GSTIN", Firm: f.GSTIN, Portal: p.GSTIN},
		{Field: "Party name", Firm: f.PartyName},
		{Field: "Accounting document", Firm: f.AccountingDocNo},
		{Field: "Invoice number", Firm: f.InvoiceNumber, Portal: p.InvoiceNumber},
		{Field: "Invoice date", Firm: f.InvoiceDate, Portal: p.InvoiceDate},
		{Field: "Central tax", Firm: f.CGST, Portal: p.CentralTax},
		{Field: "State tax", Firm: f.SGST, Portal: p.StateTax},
		{Field: "Integrated tax", Firm: f.IGST, Portal: p.IntegratedTax},
	}
}

type requiredColumn struct {
	field  string
	header string
}

func (c *LedgerConfig) firmRequired() []requiredColumn {
	f := c.Firm.Columns
	return []requiredColumn{
		{"gstin", f.GSTIN},
		{"party_name", f.PartyName},
		{"accounting_document_no", f.AccountingDocNo},
		{"invoice_number", f.InvoiceNumber},
		{"invoice_date", f.InvoiceDate},
		{"cgst", f.CGST},
		{"sgst", f.SGST},
		{"igst", f.IGST},
	}
}

func (c *LedgerConfig) portalRequired() []requiredColumn {
	p := c.Portal.Columns
	return []requiredColumn{
		{"gstin", p.GSTIN},
		{"invoice_number", p.InvoiceNumber},
		{"invoice_date", p.InvoiceDate},
		{"central_tax", p.CentralTax},
		{"state_tax", p.StateTax},
		{"integrated_tax", p.IntegratedTax},
	}
}

// headers returns the header names of a required column list
func headers(cols []requiredColumn) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.header
	}
	return out
}
