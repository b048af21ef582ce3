package consistency_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navigator1103/MediaIntel-sub006/pkg/consistency"
	"github.com/navigator1103/MediaIntel-sub006/pkg/taxonomy"
)

func cleanSnapshot(t *testing.T) *taxonomy.Snapshot {
	t.Helper()

	snap := taxonomy.NewSnapshot()
	require.NoError(t, snap.BusinessUnits().Set(&taxonomy.BusinessUnit{
		Name:       "Derma",
		Categories: []string{"Acne"},
	}))
	require.NoError(t, snap.Categories().Set(&taxonomy.Category{
		Name:         "Acne",
		BusinessUnit: "Derma",
		Ranges:       []string{"Acne"},
	}))
	require.NoError(t, snap.Ranges().Set(&taxonomy.Range{
		Name:       "Acne",
		Status:     taxonomy.StatusActive,
		Categories: []string{"Acne"},
		Campaigns:  []string{"Triple Effect"},
	}))
	require.NoError(t, snap.Campaigns().Set(&taxonomy.Campaign{
		Name:   "Triple Effect",
		Status: taxonomy.StatusActive,
		Range:  "Acne",
	}))
	return snap
}

func TestCheckCleanSnapshot(t *testing.T) {
	report := consistency.Check(cleanSnapshot(t))
	assert.Empty(t, report.Violations)
	assert.False(t, report.HasCritical())
}

func TestMissingReciprocalEdgeIsCritical(t *testing.T) {
	snap := cleanSnapshot(t)
	rng, _ := snap.Ranges().Get("Acne")
	rng.Categories = nil

	report := consistency.Check(snap)
	require.True(t, report.HasCritical())

	criticals := report.Criticals()
	require.Len(t, criticals, 1)
	assert.Equal(t, consistency.MappingInconsistency, criticals[0].Type)
	assert.Contains(t, criticals[0].Message, `category "Acne" lists range "Acne"`)

	// The range also became orphaned: campaigns but no category links.
	var orphans int
	for _, v := range report.Violations {
		if v.Type == consistency.OrphanedRange {
			orphans++
			assert.Equal(t, consistency.SeverityWarning, v.Severity)
		}
	}
	assert.Equal(t, 1, orphans)
}

func TestReverseOnlyEdgeIsCritical(t *testing.T) {
	snap := cleanSnapshot(t)
	cat, _ := snap.Categories().Get("Acne")
	cat.Ranges = nil

	report := consistency.Check(snap)
	criticals := report.Criticals()
	require.Len(t, criticals, 1)
	assert.Equal(t, consistency.MappingInconsistency, criticals[0].Type)
	assert.Contains(t, criticals[0].Message, `range "Acne" lists category "Acne"`)
}

func TestBusinessUnitMismatch(t *testing.T) {
	snap := cleanSnapshot(t)
	require.NoError(t, snap.Categories().Set(&taxonomy.Category{
		Name:         "Lip",
		BusinessUnit: "Nivea",
	}))
	unit, _ := snap.BusinessUnits().Get("Derma")
	unit.Categories = append(unit.Categories, "Lip")

	report := consistency.Check(snap)
	criticals := report.Criticals()
	require.Len(t, criticals, 1)
	assert.Equal(t, consistency.BusinessUnitMismatch, criticals[0].Type)
	assert.Contains(t, criticals[0].Message, `roster "Derma" contains category "Lip"`)
	assert.Contains(t, criticals[0].Message, `mapped to "Nivea"`)
}

func TestMissingFromIndexIsWarning(t *testing.T) {
	snap := cleanSnapshot(t)
	cat, _ := snap.Categories().Get("Acne")
	cat.Ranges = append(cat.Ranges, "Ghost Range")

	report := consistency.Check(snap)
	assert.False(t, report.HasCritical())

	require.Len(t, report.Violations, 1)
	assert.Equal(t, consistency.MissingFromIndex, report.Violations[0].Type)
	assert.Equal(t, consistency.SeverityWarning, report.Violations[0].Severity)
	assert.Equal(t, "Ghost Range", report.Violations[0].Entity)
}

func TestArchivedOrphanIsIgnored(t *testing.T) {
	snap := cleanSnapshot(t)
	require.NoError(t, snap.Ranges().Set(&taxonomy.Range{
		Name:      "Old Line",
		Status:    taxonomy.StatusArchived,
		Campaigns: []string{"Triple Effect"},
	}))

	report := consistency.Check(snap)
	for _, v := range report.Violations {
		assert.NotEqual(t, consistency.OrphanedRange, v.Type)
	}
}

func TestPendingReviewWithoutProvenance(t *testing.T) {
	snap := cleanSnapshot(t)
	require.NoError(t, snap.Ranges().Set(&taxonomy.Range{
		Name:       "Dermopure RL",
		Status:     taxonomy.StatusPendingReview,
		Categories: []string{"Acne"},
	}))
	snap.LinkCategoryRange("Acne", "Dermopure RL")

	report := consistency.Check(snap)
	require.Len(t, report.Violations, 1)
	assert.Equal(t, consistency.MissingProvenance, report.Violations[0].Type)

	rng, _ := snap.Ranges().Get("Dermopure RL")
	rng.Provenance = &taxonomy.Provenance{SessionID: "sess-1", CreatedAt: time.Now().UTC()}
	assert.Empty(t, consistency.Check(snap).Violations)
}

func TestGate(t *testing.T) {
	gate := consistency.Gate()
	require.NoError(t, gate.Check(cleanSnapshot(t)))

	snap := cleanSnapshot(t)
	rng, _ := snap.Ranges().Get("Acne")
	rng.Categories = nil

	err := gate.Check(snap)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "critical consistency violations")
	assert.Contains(t, err.Error(), "mapping inconsistency")
}
