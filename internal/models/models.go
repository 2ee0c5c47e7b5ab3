package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DisplayDateLayout is the day-month-year layout used to compare invoice
// dates and to write them to the output workbook.
const DisplayDateLayout = "02-01-2006"

// MatchKind classifies how a firm record was matched to the portal ledger
type MatchKind string

const (
	// MatchExact means the normalized invoice numbers are equal.
	MatchExact MatchKind = "Exact"
	// MatchClose means the invoice dates are equal and the tax totals are
	// within the buffer.
	MatchClose MatchKind = "Close"
)

// String returns the string representation of MatchKind
func (k MatchKind) String() string {
	return string(k)
}

// FirmRecord is one invoice row of the firm's own purchase ledger
type FirmRecord struct {
	GSTIN           string          `json:"gstin"`
	PartyName       string          `json:"party_name"`
	AccountingDocNo string          `json:"accounting_document_no"`
	InvoiceNumber   string          `json:"invoice_number"`
	InvoiceDate     time.Time       `json:"invoice_date"`
	CGST            decimal.Decimal `json:"cgst"`
	SGST            decimal.Decimal `json:"sgst"`
	IGST            decimal.Decimal `json:"igst"`
	Row             int             `json:"row,omitempty"`
}

// Total returns CGST + SGST + IGST
func (r *FirmRecord) Total() decimal.Decimal {
	return r.CGST.Add(r.SGST).Add(r.IGST)
}

// Validate performs basic validation on the FirmRecord
func (r *FirmRecord) Validate() error {
	if strings.TrimSpace(r.GSTIN) == "" {
		return fmt.Errorf("supplier GSTIN cannot be empty")
	}
	if r.InvoiceDate.IsZero() {
		return fmt.Errorf("invoice date cannot be zero")
	}
	return nil
}

// String returns a string representation of the FirmRecord
func (r *FirmRecord) String() string {
	return fmt.Sprintf("FirmRecord{GSTIN: %s, Invoice: %s, Date: %s, Total: %s}",
		r.GSTIN, r.InvoiceNumber, FormatDate(r.InvoiceDate), r.Total().StringFixed(2))
}

// PortalRecord is one invoice row downloaded from the tax portal
type PortalRecord struct {
	GSTIN         string          `json:"gstin"`
	InvoiceNumber string          `json:"invoice_number"`
	InvoiceDate   time.Time       `json:"invoice_date"`
	CentralTax    decimal.Decimal `json:"central_tax"`
	StateTax      decimal.Decimal `json:"state_tax"`
	IntegratedTax decimal.Decimal `json:"integrated_tax"`
	Row           int             `json:"row,omitempty"`
}

// Total returns central + state/UT + integrated tax
func (r *PortalRecord) Total() decimal.Decimal {
	return r.CentralTax.Add(r.StateTax).Add(r.IntegratedTax)
}

// Validate performs basic validation on the PortalRecord
func (r *PortalRecord) Validate() error {
	if strings.TrimSpace(r.GSTIN) == "" {
		return fmt.Errorf("supplier GSTIN cannot be empty")
	}
	if r.InvoiceDate.IsZero() {
		return fmt.Errorf("invoice date cannot be zero")
	}
	return nil
}

// String returns a string representation of the PortalRecord
func (r *PortalRecord) String() string {
	return fmt.Sprintf("PortalRecord{GSTIN: %s, Invoice: %s, Date: %s, Total: %s}",
		r.GSTIN, r.InvoiceNumber, FormatDate(r.InvoiceDate), r.Total().StringFixed(2))
}

// MatchResult is one matched pair of a firm record and a portal record
type MatchResult struct {
	GSTIN               string          `json:"gstin"`
	AccountingDocNo     string          `json:"accounting_document_no"`
	PartyName           string          `json:"party_name"`
	InvoiceNumber       string          `json:"invoice_number"`
	InvoiceDate         time.Time       `json:"invoice_date"`
	FirmTotal           decimal.Decimal `json:"firm_total"`
	PortalTotal         decimal.Decimal `json:"portal_total"`
	Difference          decimal.Decimal `json:"difference"`
	Kind                MatchKind       `json:"match_status"`
	PortalInvoiceNumber string          `json:"portal_match"`
}

// NewMatchResult builds a MatchResult for a firm/portal pair. The difference
// is portal total minus firm total, rounded to two places.
func NewMatchResult(firm *FirmRecord, portal *PortalRecord, kind MatchKind) *MatchResult {
	firmTotal := firm.Total()
	portalTotal := portal.Total()

	return &MatchResult{
		GSTIN:               firm.GSTIN,
		AccountingDocNo:     firm.AccountingDocNo,
		PartyName:           firm.PartyName,
		InvoiceNumber:       firm.InvoiceNumber,
		InvoiceDate:         firm.InvoiceDate,
		FirmTotal:           firmTotal,
		PortalTotal:         portalTotal,
		Difference:          portalTotal.Sub(firmTotal).Round(2),
		Kind:                kind,
		PortalInvoiceNumber: portal.InvoiceNumber,
	}
}

// MarshalJSON writes decimals as fixed two-place strings and dates as dd-mm-yyyy
func (m *MatchResult) MarshalJSON() ([]byte, error) {
	type Alias MatchResult
	return json.Marshal(&struct {
		InvoiceDate string `json:"invoice_date"`
		FirmTotal   string `json:"firm_total"`
		PortalTotal string `json:"portal_total"`
		Difference  string `json:"difference"`
		*Alias
	}{
		InvoiceDate: FormatDate(m.InvoiceDate),
		FirmTotal:   m.FirmTotal.StringFixed(2),
		PortalTotal: m.PortalTotal.StringFixed(2),
		Difference:  m.Difference.StringFixed(2),
		Alias:       (*Alias)(m),
	})
}

// UnmatchedResult is a firm record for which no portal record qualified
type UnmatchedResult struct {
	GSTIN         string          `json:"gstin"`
	PartyName     string          `json:"party_name"`
	InvoiceNumber string          `json:"invoice_number"`
	InvoiceDate   time.Time       `json:"invoice_date"`
	FirmTotal     decimal.Decimal `json:"firm_total"`
}

// NewUnmatchedResult builds an UnmatchedResult from a firm record
func NewUnmatchedResult(firm *FirmRecord) *UnmatchedResult {
	return &UnmatchedResult{
		GSTIN:         firm.GSTIN,
		PartyName:     firm.PartyName,
		InvoiceNumber: firm.InvoiceNumber,
		InvoiceDate:   firm.InvoiceDate,
		FirmTotal:     firm.Total(),
	}
}

// MarshalJSON writes decimals as fixed two-place strings and dates as dd-mm-yyyy
func (u *UnmatchedResult) MarshalJSON() ([]byte, error) {
	type Alias UnmatchedResult
	return json.Marshal(&struct {
		InvoiceDate string `json:"invoice_date"`
		FirmTotal   string `json:"firm_total"`
		*Alias
	}{
		InvoiceDate: FormatDate(u.InvoiceDate),
		FirmTotal:   u.FirmTotal.StringFixed(2),
		Alias:       (*Alias)(u),
	})
}

// FormatDate renders a date as dd-mm-yyyy, ignoring any time component
func FormatDate(t time.Time) string {
	return t.Format(DisplayDateLayout)
}

// SameDay reports whether two dates fall on the same calendar day when both
// are written as dd-mm-yyyy.
func SameDay(a, b time.Time) bool {
	return FormatDate(a) == FormatDate(b)
}
