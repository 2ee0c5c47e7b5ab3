package matcher

import (
	"fmt"

	"gst-reconciler/internal/models"
)

// Results accumulates the outcome of a reconciliation run
type Results struct {
	Matched   []*models.MatchResult
	Unmatched []*models.UnmatchedResult

	// FirmRecords is the number of firm records processed.
	FirmRecords int
	// MatchedFirmRecords counts firm records with at least one match.
	MatchedFirmRecords int
	// MultiCloseRecords counts firm records matched to more than one
	// portal record in the close pass.
	MultiCloseRecords int
	ExactMatches      int
	CloseMatches      int
	Groups            int

	// Portal records whose GSTIN never appears in the firm ledger. They
	// are not written to either sheet.
	SkippedPortalRows int
	PortalOnlyGSTINs  []string
}

// Summary provides aggregate statistics about a reconciliation run
type Summary struct {
	TotalFirmRows      int `json:"total_firm_rows"`
	MatchedRows        int `json:"matched_rows"`
	UnmatchedRows      int `json:"unmatched_rows"`
	ExactMatches       int `json:"exact_matches"`
	CloseMatches       int `json:"close_matches"`
	MatchedFirmRecords int `json:"matched_firm_records"`
	MultiCloseRecords  int `json:"multi_close_records"`
	Groups             int `json:"gstin_groups"`
	SkippedPortalRows  int `json:"skipped_portal_rows"`
	PortalOnlyGSTINs   int `json:"portal_only_gstins"`
}

// NewResults creates an empty result set
func NewResults() *Results {
	return &Results{
		Matched:   []*models.MatchResult{},
		Unmatched: []*models.UnmatchedResult{},
	}
}

func (r *Results) addMatch(m *models.MatchResult) {
	r.Matched = append(r.Matched, m)
	switch m.Kind {
	case models.MatchExact:
		r.ExactMatches++
	case models.MatchClose:
		r.CloseMatches++
	}
}

func (r *Results) addUnmatched(u *models.UnmatchedResult) {
	r.Unmatched = append(r.Unmatched, u)
}

// Summary returns the aggregate counts. The matched row count is the number
// of Matched rows, which may exceed the number of matched firm records when a
// firm record collects several close matches.
func (r *Results) Summary() Summary {
	return Summary{
		TotalFirmRows:      r.FirmRecords,
		MatchedRows:        len(r.Matched),
		UnmatchedRows:      len(r.Unmatched),
		ExactMatches:       r.ExactMatches,
		CloseMatches:       r.CloseMatches,
		MatchedFirmRecords: r.MatchedFirmRecords,
		MultiCloseRecords:  r.MultiCloseRecords,
		Groups:             r.Groups,
		SkippedPortalRows:  r.SkippedPortalRows,
		PortalOnlyGSTINs:   len(r.PortalOnlyGSTINs),
	}
}

// CheckTotality verifies that every processed firm record ended up either
// matched or unmatched, and never both.
func (r *Results) CheckTotality() error {
	if r.MatchedFirmRecords+len(r.Unmatched) != r.FirmRecords {
		return fmt.Errorf("%d matched + %d unmatched firm records != %d processed",
			r.MatchedFirmRecords, len(r.Unmatched), r.FirmRecords)
	}
	if len(r.Matched) < r.MatchedFirmRecords {
		return fmt.Errorf("%d matched rows for %d matched firm records", len(r.Matched), r.MatchedFirmRecords)
	}
	return nil
}

// String returns a one-line description of the summary
func (s Summary) String() string {
	return fmt.Sprintf("firm rows: %d, matched rows: %d (exact %d, close %d), unmatched rows: %d",
		s.TotalFirmRows, s.MatchedRows, s.ExactMatches, s.CloseMatches, s.UnmatchedRows)
}
