// Package matcher provides the invoice matching engine and its configuration.
//
// Firm ledger records are reconciled against tax-portal records that share
// the same supplier GSTIN. Each firm record goes through two passes over the
// portal records of its group, in source order:
//  1. Exact pass: the first portal record whose normalized invoice number
//     equals the firm record's normalized invoice number.
//  2. Close pass: portal records with the same invoice date whose tax total
//     lies within the buffer around the firm total (bounds inclusive).
//
// A firm record that qualifies in neither pass is reported as unmatched.
//
// Example usage:
//
//	config := matcher.DefaultMatchingConfig()
//	config.Buffer = 10
//
//	engine := matcher.NewMatchingEngine(config)
//	results := engine.Reconcile(firmRecords, portalRecords)
package matcher

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ClosePolicy decides how many close matches a firm record may collect.
type ClosePolicy string

const (
	// CloseMatchAll emits a match for every qualifying portal record.
	CloseMatchAll ClosePolicy = "all"

	// CloseMatchFirst stops the close pass at the first qualifying portal
	// record, so each firm record yields at most one close match.
	CloseMatchFirst ClosePolicy = "first"
)

// IsValid checks if the policy is known
func (p ClosePolicy) IsValid() bool {
	return p == CloseMatchAll || p == CloseMatchFirst
}

// MatchingConfig holds the parameters of the matching passes
type MatchingConfig struct {
	// Buffer is the tolerance applied symmetrically around the firm tax
	// total when evaluating close matches. Must not be negative.
	Buffer int64 `json:"buffer" mapstructure:"buffer"`

	// ClosePolicy selects between emitting all close matches and only the first.
	ClosePolicy ClosePolicy `json:"close_policy" mapstructure:"close_policy"`
}

// DefaultMatchingConfig returns a zero-buffer configuration that emits every
// close match.
func DefaultMatchingConfig() *MatchingConfig {
	return &MatchingConfig{
		Buffer:      0,
		ClosePolicy: CloseMatchAll,
	}
}

// Validate checks the configuration
func (c *MatchingConfig) Validate() error {
	if c.Buffer < 0 {
		return fmt.Errorf("buffer cannot be negative, got %d", c.Buffer)
	}
	if !c.ClosePolicy.IsValid() {
		return fmt.Errorf("invalid close match policy %q (valid: %s, %s)", c.ClosePolicy, CloseMatchAll, CloseMatchFirst)
	}
	return nil
}

// BufferAmount returns the buffer as a decimal
func (c *MatchingConfig) BufferAmount() decimal.Decimal {
	return decimal.NewFromInt(c.Buffer)
}

// Clone returns a copy of the configuration
func (c *MatchingConfig) Clone() *MatchingConfig {
	clone := *c
	return &clone
}
