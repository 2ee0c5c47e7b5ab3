package generator

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"gst-reconciler/internal/matcher"
	"gst-reconciler/internal/models"
	"gst-reconciler/internal/parsers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerGenerator_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*LedgerGenerator)
		wantErr bool
	}{
		{"defaults", func(g *LedgerGenerator) {}, false},
		{"no groups", func(g *LedgerGenerator) { g.Groups = 0 }, true},
		{"no rows", func(g *LedgerGenerator) { g.RowsPerGroup = 0 }, true},
		{"ratios above one", func(g *LedgerGenerator) { g.ExactRatio, g.CloseRatio = 0.7, 0.4 }, true},
		{"negative ratio", func(g *LedgerGenerator) { g.CloseRatio = -0.1 }, true},
		{"negative buffer", func(g *LedgerGenerator) { g.Buffer = -1 }, true},
		{"negative portal-only rows", func(g *LedgerGenerator) { g.PortalOnlyRows = -1 }, true},
		{"zero start date", func(g *LedgerGenerator) { g.StartDate = time.Time{} }, true},
		{"zero buffer", func(g *LedgerGenerator) { g.Buffer = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewLedgerGenerator(1)
			tt.modify(g)
			err := g.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLedgerGenerator_Deterministic(t *testing.T) {
	a, err := NewLedgerGenerator(42).Generate()
	require.NoError(t, err)
	b, err := NewLedgerGenerator(42).Generate()
	require.NoError(t, err)

	assert.Equal(t, a, b)

	c, err := NewLedgerGenerator(43).Generate()
	require.NoError(t, err)
	assert.NotEqual(t, a.Portal, c.Portal)
}

func TestLedgerGenerator_Shape(t *testing.T) {
	g := NewLedgerGenerator(7)
	g.PortalOnlyRows = 3

	ledgers, err := g.Generate()
	require.NoError(t, err)

	assert.Len(t, ledgers.Firm, g.Groups*g.RowsPerGroup)
	exp := ledgers.Expected
	assert.Equal(t, len(ledgers.Firm), exp.Exact+exp.Close+exp.Unmatched)
	assert.Len(t, ledgers.Portal, exp.Exact+exp.Close+exp.PortalOnlyRows)
	assert.Equal(t, 3, exp.PortalOnlyRows)

	for _, r := range ledgers.Firm {
		assert.Len(t, r.GSTIN, 15)
		assert.True(t, r.Total().IsPositive(), r.String())
		assert.Equal(t, r.InvoiceDate, time.Date(r.InvoiceDate.Year(), r.InvoiceDate.Month(), r.InvoiceDate.Day(), 0, 0, 0, 0, time.UTC))
	}
}

func TestLedgerGenerator_MatchesExpectation(t *testing.T) {
	for _, seed := range []int64{1, 2, 3, 99} {
		g := NewLedgerGenerator(seed)
		g.PortalOnlyRows = 4

		ledgers, err := g.Generate()
		require.NoError(t, err)

		engine := matcher.NewMatchingEngine(&matcher.MatchingConfig{Buffer: g.Buffer, ClosePolicy: matcher.CloseMatchAll})
		summary := engine.Reconcile(ledgers.Firm, ledgers.Portal).Summary()

		assert.Equal(t, ledgers.Expected.Exact, summary.ExactMatches, "seed %d", seed)
		assert.Equal(t, ledgers.Expected.Close, summary.CloseMatches, "seed %d", seed)
		assert.Equal(t, ledgers.Expected.Unmatched, summary.UnmatchedRows, "seed %d", seed)
		assert.Equal(t, ledgers.Expected.PortalOnlyRows, summary.SkippedPortalRows, "seed %d", seed)
		assert.Zero(t, summary.MultiCloseRecords, "seed %d", seed)
	}
}

func TestWriteFiles_RoundTrip(t *testing.T) {
	g := NewLedgerGenerator(11)
	g.Groups = 3
	g.RowsPerGroup = 8
	g.PortalOnlyRows = 2

	ledgers, err := g.Generate()
	require.NoError(t, err)

	firmPath, portalPath, err := WriteFiles(t.TempDir(), ledgers, nil)
	require.NoError(t, err)

	parser, err := parsers.NewLedgerParser(nil)
	require.NoError(t, err)

	firm, firmStats, err := parser.ParseFirmLedger(context.Background(), firmPath)
	require.NoError(t, err)
	portal, _, err := parser.ParsePortalLedger(context.Background(), portalPath)
	require.NoError(t, err)

	require.Len(t, firm, len(ledgers.Firm))
	require.Len(t, portal, len(ledgers.Portal))
	assert.Equal(t, len(ledgers.Firm), firmStats.RecordsParsed)

	for i, want := range ledgers.Firm {
		got := firm[i]
		assert.Equal(t, want.GSTIN, got.GSTIN)
		assert.Equal(t, want.InvoiceNumber, got.InvoiceNumber)
		assert.True(t, want.InvoiceDate.Equal(got.InvoiceDate), "row %d date", i)
		assert.True(t, want.Total().Equal(got.Total()), "row %d total %s != %s", i, want.Total(), got.Total())
	}
	for i, want := range ledgers.Portal {
		assert.Equal(t, want.InvoiceNumber, portal[i].InvoiceNumber)
		assert.True(t, want.Total().Equal(portal[i].Total()), "portal row %d", i)
	}

	summary := matcher.NewMatchingEngine(nil).Reconcile(firm, portal).Summary()
	assert.Equal(t, ledgers.Expected.Exact+ledgers.Expected.Unmatched+ledgers.Expected.Close, summary.TotalFirmRows)
	assert.Equal(t, ledgers.Expected.Exact, summary.ExactMatches)
}

func TestWriteFiles_CustomConfig(t *testing.T) {
	config := parsers.DefaultLedgerConfig()
	config.Firm.Sheet = "Purchases"
	config.Firm.DateFormat = "2006-01-02"
	config.Firm.Columns.InvoiceNumber = "Bill No"
	config.Portal.DateFormat = "02-Jan-2006"

	g := NewLedgerGenerator(5)
	g.Groups = 2
	g.RowsPerGroup = 3
	ledgers, err := g.Generate()
	require.NoError(t, err)

	firmPath, portalPath, err := WriteFiles(t.TempDir(), ledgers, config)
	require.NoError(t, err)

	parser, err := parsers.NewLedgerParser(config)
	require.NoError(t, err)

	firm, stats, err := parser.ParseFirmLedger(context.Background(), firmPath)
	require.NoError(t, err)
	assert.Equal(t, "Purchases", stats.Sheet)
	assert.Len(t, firm, 6)

	_, _, err = parser.ParsePortalLedger(context.Background(), portalPath)
	require.NoError(t, err)
}

func TestPunctuationVariant(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 50; i++ {
		variant := punctuationVariant(rng, "INV/01/0042")
		assert.Equal(t, "INV010042", matcher.NormalizeInvoiceNumber(variant), variant)
	}
}

func TestGSTIN(t *testing.T) {
	seen := make(map[string]bool)
	for n := 0; n < 100; n++ {
		gstin := GSTIN(n)
		assert.Len(t, gstin, 15)
		assert.False(t, seen[gstin], "duplicate %s", gstin)
		seen[gstin] = true
	}

	r := &models.FirmRecord{GSTIN: GSTIN(0)}
	assert.Equal(t, "27AABCA0000Q1Z0", r.GSTIN)
}
