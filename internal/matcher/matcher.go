package matcher

import (
	"context"

	"gst-reconciler/internal/models"
	"gst-reconciler/pkg/logger"
)

// ProgressFunc receives the number of GSTIN groups processed so far and the
// total number of groups.
type ProgressFunc func(done, total int)

// MatchingEngine is the core engine responsible for invoice matching
type MatchingEngine struct {
	Config *MatchingConfig

	onProgress ProgressFunc
	log        logger.Logger
}

// NewMatchingEngine creates a new matching engine with the specified configuration
func NewMatchingEngine(config *MatchingConfig) *MatchingEngine {
	if config == nil {
		config = DefaultMatchingConfig()
	}

	return &MatchingEngine{
		Config: config,
		log:    logger.GetGlobalLogger().WithComponent("matcher"),
	}
}

// OnProgress registers a callback invoked after each GSTIN group
func (me *MatchingEngine) OnProgress(fn ProgressFunc) {
	me.onProgress = fn
}

// Reconcile matches every firm record against the portal records of its
// GSTIN group. Groups follow first-seen firm GSTIN order and results follow
// firm record order within each group.
func (me *MatchingEngine) Reconcile(firm []*models.FirmRecord, portal []*models.PortalRecord) *Results {
	// Background context is never cancelled
	results, _ := me.ReconcileContext(context.Background(), firm, portal)
	return results
}

// ReconcileContext is Reconcile with cancellation checked between groups.
// On cancellation the partial results are returned with the context error.
func (me *MatchingEngine) ReconcileContext(ctx context.Context, firm []*models.FirmRecord, portal []*models.PortalRecord) (*Results, error) {
	results := NewResults()

	keys := GroupKeys(firm)
	results.SkippedPortalRows, results.PortalOnlyGSTINs = portalOnly(keys, portal)

	me.log.WithFields(logger.Fields{
		"firm_records":   len(firm),
		"portal_records": len(portal),
		"groups":         len(keys),
		"buffer":         me.Config.Buffer,
		"close_policy":   me.Config.ClosePolicy,
	}).Debug("Starting invoice matching")

	for i, gstin := range keys {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		group := Partition(firm, portal, gstin)
		me.MatchGroup(group, results)
		results.Groups++

		if me.onProgress != nil {
			me.onProgress(i+1, len(keys))
		}
	}

	return results, nil
}

// MatchGroup matches each firm record of a group against the group's portal
// records and appends the outcome to results.
func (me *MatchingEngine) MatchGroup(group *Group, results *Results) {
	before := len(results.Matched)

	for _, f := range group.Firm {
		me.matchRecord(f, group.Portal, results)
	}

	me.log.WithFields(logger.Fields{
		"gstin":   group.GSTIN,
		"firm":    len(group.Firm),
		"portal":  len(group.Portal),
		"matched": len(results.Matched) - before,
	}).Debug("Matched GSTIN group")
}

func (me *MatchingEngine) matchRecord(f *models.FirmRecord, portal []*models.PortalRecord, results *Results) {
	results.FirmRecords++

	if p := me.findExact(f, portal); p != nil {
		results.addMatch(models.NewMatchResult(f, p, models.MatchExact))
		results.MatchedFirmRecords++
		return
	}

	candidates := me.findClose(f, portal)
	if len(candidates) == 0 {
		results.addUnmatched(models.NewUnmatchedResult(f))
		return
	}

	for _, p := range candidates {
		results.addMatch(models.NewMatchResult(f, p, models.MatchClose))
	}
	results.MatchedFirmRecords++
	if len(candidates) > 1 {
		results.MultiCloseRecords++
	}
}

// findExact returns the first portal record whose normalized invoice number
// equals the firm record's, or nil.
func (me *MatchingEngine) findExact(f *models.FirmRecord, portal []*models.PortalRecord) *models.PortalRecord {
	want := NormalizeInvoiceNumber(f.InvoiceNumber)
	for _, p := range portal {
		if NormalizeInvoiceNumber(p.InvoiceNumber) == want {
			return p
		}
	}
	return nil
}

// findClose returns the portal records dated on the firm invoice date whose
// total lies in [firm total - buffer, firm total + buffer].
func (me *MatchingEngine) findClose(f *models.FirmRecord, portal []*models.PortalRecord) []*models.PortalRecord {
	total := f.Total()
	buffer := me.Config.BufferAmount()
	lower := total.Sub(buffer)
	upper := total.Add(buffer)

	var candidates []*models.PortalRecord
	for _, p := range portal {
		pt := p.Total()
		if pt.LessThan(lower) || pt.GreaterThan(upper) {
			continue
		}
		if !models.SameDay(p.InvoiceDate, f.InvoiceDate) {
			continue
		}

		candidates = append(candidates, p)
		if me.Config.ClosePolicy == CloseMatchFirst {
			break
		}
	}
	return candidates
}
