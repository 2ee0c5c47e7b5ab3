package matcher

import "gst-reconciler/internal/models"

// Group holds the firm and portal records of one supplier GSTIN, each in
// source order.
type Group struct {
	GSTIN  string
	Firm   []*models.FirmRecord
	Portal []*models.PortalRecord
}

// GroupKeys returns the distinct GSTINs of the firm ledger in first-seen
// order. Portal-only GSTINs are never part of the result.
func GroupKeys(firm []*models.FirmRecord) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, r := range firm {
		if seen[r.GSTIN] {
			continue
		}
		seen[r.GSTIN] = true
		keys = append(keys, r.GSTIN)
	}
	return keys
}

// Partition selects the firm and portal records whose GSTIN equals gstin,
// preserving source order.
func Partition(firm []*models.FirmRecord, portal []*models.PortalRecord, gstin string) *Group {
	group := &Group{GSTIN: gstin}
	for _, r := range firm {
		if r.GSTIN == gstin {
			group.Firm = append(group.Firm, r)
		}
	}
	for _, r := range portal {
		if r.GSTIN == gstin {
			group.Portal = append(group.Portal, r)
		}
	}
	return group
}

// portalOnly counts the portal records, and their distinct GSTINs, that no
// firm GSTIN covers.
func portalOnly(keys []string, portal []*models.PortalRecord) (rows int, gstins []string) {
	covered := make(map[string]bool, len(keys))
	for _, k := range keys {
		covered[k] = true
	}
	seen := make(map[string]bool)
	for _, r := range portal {
		if covered[r.GSTIN] {
			continue
		}
		rows++
		if !seen[r.GSTIN] {
			seen[r.GSTIN] = true
			gstins = append(gstins, r.GSTIN)
		}
	}
	return rows, gstins
}
