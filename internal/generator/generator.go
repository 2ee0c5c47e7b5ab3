// Package generator produces synthetic firm and portal ledgers with a known
// reconciliation outcome. The ledgers are used as fixtures in tests and by
// the ledgergen command.
//
// Every generated firm record is planned to end up as exactly one of:
//   - an exact match: the portal row carries the same invoice number with
//     different punctuation
//   - a close match: the portal row carries an unrelated invoice number, the
//     same date and a total within the buffer
//   - unmatched: no portal row exists for it
//
// Invoice dates are unique within a GSTIN group so that close matches
// cannot pair with another record's counterpart.
package generator

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"gst-reconciler/internal/models"

	"github.com/shopspring/decimal"
)

// LedgerGenerator generates a pair of ledgers
type LedgerGenerator struct {
	Seed         int64
	Groups       int
	RowsPerGroup int
	ExactRatio   float64
	CloseRatio   float64
	// Buffer bounds the amount drift of close matches, in rupees.
	Buffer int64
	// PortalOnlyRows are added under a GSTIN the firm ledger does not have.
	PortalOnlyRows int
	StartDate      time.Time
}

// Expectation is the outcome a correct reconciliation of the generated
// ledgers must produce
type Expectation struct {
	Exact          int `json:"exact"`
	Close          int `json:"close"`
	Unmatched      int `json:"unmatched"`
	PortalOnlyRows int `json:"portal_only_rows"`
}

// Ledgers holds the generated records in source order
type Ledgers struct {
	Firm     []*models.FirmRecord
	Portal   []*models.PortalRecord
	Expected Expectation
}

// NewLedgerGenerator returns a generator with sensible defaults
func NewLedgerGenerator(seed int64) *LedgerGenerator {
	return &LedgerGenerator{
		Seed:         seed,
		Groups:       5,
		RowsPerGroup: 20,
		ExactRatio:   0.6,
		CloseRatio:   0.25,
		Buffer:       10,
		StartDate:    time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Validate checks the generator parameters
func (g *LedgerGenerator) Validate() error {
	if g.Groups <= 0 {
		return fmt.Errorf("groups must be positive, got %d", g.Groups)
	}
	if g.RowsPerGroup <= 0 {
		return fmt.Errorf("rows per group must be positive, got %d", g.RowsPerGroup)
	}
	if g.ExactRatio < 0 || g.CloseRatio < 0 || g.ExactRatio+g.CloseRatio > 1 {
		return fmt.Errorf("exact ratio %.2f and close ratio %.2f must be non-negative and sum to at most 1",
			g.ExactRatio, g.CloseRatio)
	}
	if g.Buffer < 0 {
		return fmt.Errorf("buffer must be non-negative, got %d", g.Buffer)
	}
	if g.PortalOnlyRows < 0 {
		return fmt.Errorf("portal-only rows must be non-negative, got %d", g.PortalOnlyRows)
	}
	if g.StartDate.IsZero() {
		return fmt.Errorf("start date is required")
	}
	return nil
}

// Generate builds the ledgers. The same seed always yields the same ledgers.
func (g *LedgerGenerator) Generate() (*Ledgers, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(g.Seed))
	start := time.Date(g.StartDate.Year(), g.StartDate.Month(), g.StartDate.Day(), 0, 0, 0, 0, time.UTC)

	ledgers := &Ledgers{
		Firm:   make([]*models.FirmRecord, 0, g.Groups*g.RowsPerGroup),
		Portal: make([]*models.PortalRecord, 0, g.Groups*g.RowsPerGroup+g.PortalOnlyRows),
	}

	for grp := 0; grp < g.Groups; grp++ {
		gstin := GSTIN(grp)
		party := fmt.Sprintf("Supplier %02d Pvt Ltd", grp+1)
		interState := grp%2 == 1

		for row := 0; row < g.RowsPerGroup; row++ {
			firm := &models.FirmRecord{
				GSTIN:           gstin,
				PartyName:       party,
				AccountingDocNo: fmt.Sprintf("AD%02d%05d", grp+1, row+1),
				InvoiceNumber:   fmt.Sprintf("INV/%02d/%04d", grp+1, row+1),
				InvoiceDate:     start.AddDate(0, 0, row),
			}
			splitFirm(firm, randomAmount(rng), interState)
			ledgers.Firm = append(ledgers.Firm, firm)

			switch pick := rng.Float64(); {
			case pick < g.ExactRatio:
				ledgers.Portal = append(ledgers.Portal, g.exactCounterpart(rng, firm, interState))
				ledgers.Expected.Exact++
			case pick < g.ExactRatio+g.CloseRatio:
				ledgers.Portal = append(ledgers.Portal, g.closeCounterpart(rng, firm, grp, row))
				ledgers.Expected.Close++
			default:
				ledgers.Expected.Unmatched++
			}
		}
	}

	orphan := GSTIN(g.Groups + 900)
	for i := 0; i < g.PortalOnlyRows; i++ {
		ledgers.Portal = append(ledgers.Portal, &models.PortalRecord{
			GSTIN:         orphan,
			InvoiceNumber: fmt.Sprintf("ORPH-%04d", i+1),
			InvoiceDate:   start.AddDate(0, 0, i),
			IntegratedTax: randomAmount(rng),
		})
	}
	ledgers.Expected.PortalOnlyRows = g.PortalOnlyRows

	// Portal downloads are not ordered the way the firm keeps its books
	rng.Shuffle(len(ledgers.Portal), func(i, j int) {
		ledgers.Portal[i], ledgers.Portal[j] = ledgers.Portal[j], ledgers.Portal[i]
	})

	return ledgers, nil
}

// exactCounterpart reuses the invoice number with different punctuation and
// an amount that may have drifted by any amount
func (g *LedgerGenerator) exactCounterpart(rng *rand.Rand, firm *models.FirmRecord, interState bool) *models.PortalRecord {
	portal := &models.PortalRecord{
		GSTIN:         firm.GSTIN,
		InvoiceNumber: punctuationVariant(rng, firm.InvoiceNumber),
		InvoiceDate:   firm.InvoiceDate,
	}

	total := firm.Total()
	if rng.Intn(4) == 0 {
		total = total.Add(decimal.New(rng.Int63n(10000), -2))
	}
	splitPortal(portal, total, interState)
	return portal
}

// closeCounterpart carries an invoice number that normalizes differently, the
// same date and a total inside the buffer
func (g *LedgerGenerator) closeCounterpart(rng *rand.Rand, firm *models.FirmRecord, grp, row int) *models.PortalRecord {
	portal := &models.PortalRecord{
		GSTIN:         firm.GSTIN,
		InvoiceNumber: fmt.Sprintf("GSTR-%02d%04d", grp+1, row+1),
		InvoiceDate:   firm.InvoiceDate,
	}

	drift := decimal.Zero
	if g.Buffer > 0 {
		cents := g.Buffer * 100
		drift = decimal.New(rng.Int63n(2*cents+1)-cents, -2)
	}
	portal.IntegratedTax = firm.Total().Add(drift)
	return portal
}

// GSTIN returns a well-formed 15-character GSTIN for a group index
func GSTIN(n int) string {
	const states = "2729330724"
	state := states[(n%5)*2 : (n%5)*2+2]
	return fmt.Sprintf("%sAABC%c%04dQ1Z%d", state, 'A'+rune(n%26), n%10000, n%10)
}

// punctuationVariant rewrites separators so that the raw numbers differ but
// the normalized numbers do not
func punctuationVariant(rng *rand.Rand, number string) string {
	switch rng.Intn(4) {
	case 0:
		return strings.ReplaceAll(number, "/", "")
	case 1:
		return strings.ReplaceAll(number, "/", "-")
	case 2:
		return strings.ReplaceAll(number, "/", " / ")
	default:
		return strings.ReplaceAll(number, "/", ".")
	}
}

// randomAmount returns a tax total between 100.00 and 9999.99
func randomAmount(rng *rand.Rand) decimal.Decimal {
	return decimal.New(10000+rng.Int63n(990000), -2)
}

func splitFirm(r *models.FirmRecord, total decimal.Decimal, interState bool) {
	if interState {
		r.IGST = total
		return
	}
	half := total.Div(decimal.NewFromInt(2)).Round(2)
	r.CGST = half
	r.SGST = total.Sub(half)
}

func splitPortal(r *models.PortalRecord, total decimal.Decimal, interState bool) {
	if interState {
		r.IntegratedTax = total
		return
	}
	half := total.Div(decimal.NewFromInt(2)).Round(2)
	r.CentralTax = half
	r.StateTax = total.Sub(half)
}
