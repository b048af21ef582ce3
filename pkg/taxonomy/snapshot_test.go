package taxonomy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navigator1103/MediaIntel-sub006/pkg/taxonomy"
)

// buildDermaSnapshot builds the canonical test fixture: business unit Derma
// with category Acne linked to range Acne and campaign Triple Effect.
func buildDermaSnapshot(t *testing.T) *taxonomy.Snapshot {
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

func TestFold(t *testing.T) {
	assert.Equal(t, taxonomy.Fold("Body Milk"), taxonomy.Fold("body milk"))
	assert.Equal(t, taxonomy.Fold("BODY MILK"), taxonomy.Fold("body milk"))
	assert.True(t, taxonomy.EqualFold("Dermopure RL", "dermopure rl"))
	assert.False(t, taxonomy.EqualFold("Dermopure RL", "Dermopure"))
}

func TestCaseInsensitiveLookup(t *testing.T) {
	snap := buildDermaSnapshot(t)

	rng, ok := snap.Ranges().Get("acne")
	require.True(t, ok)
	assert.Equal(t, "Acne", rng.Name)

	campaign, ok := snap.Campaigns().Get("TRIPLE EFFECT")
	require.True(t, ok)
	assert.Equal(t, "Triple Effect", campaign.Name)
}

func TestRelationalLookups(t *testing.T) {
	snap := buildDermaSnapshot(t)

	ranges := snap.RangesOf("Acne")
	require.Len(t, ranges, 1)
	assert.Equal(t, "Acne", ranges[0].Name)

	categories := snap.CategoriesOf("Acne")
	require.Len(t, categories, 1)
	assert.Equal(t, "Acne", categories[0].Name)

	campaigns := snap.CampaignsOf("Acne")
	require.Len(t, campaigns, 1)
	assert.Equal(t, "Triple Effect", campaigns[0].Name)

	assert.Nil(t, snap.RangesOf("Lip"))
}

func TestResolveBusinessUnit(t *testing.T) {
	snap := buildDermaSnapshot(t)

	unit, ok := snap.BusinessUnitOfCategory("Acne")
	require.True(t, ok)
	assert.Equal(t, "Derma", unit)

	unit, ok = snap.BusinessUnitOfRange("acne")
	require.True(t, ok)
	assert.Equal(t, "Derma", unit)

	unit, ok = snap.BusinessUnitOfCampaign("Triple Effect")
	require.True(t, ok)
	assert.Equal(t, "Derma", unit)

	_, ok = snap.BusinessUnitOfRange("Unknown")
	assert.False(t, ok)
}

func TestScopedNameSets(t *testing.T) {
	snap := buildDermaSnapshot(t)
	require.NoError(t, snap.Ranges().Set(&taxonomy.Range{
		Name:       "Retired",
		Status:     taxonomy.StatusArchived,
		Categories: []string{"Acne"},
	}))
	cat, _ := snap.Categories().Get("Acne")
	cat.Ranges = append(cat.Ranges, "Retired")

	assert.Equal(t, []string{"Acne"}, snap.CategoriesFor("Derma"))
	// Archived ranges are excluded from the valid set.
	assert.Equal(t, []string{"Acne"}, snap.RangesFor("Derma"))
	assert.Equal(t, []string{"Triple Effect"}, snap.CampaignsFor("Derma"))
	assert.Empty(t, snap.RangesFor("Nivea"))
}

func TestCopyIsIndependent(t *testing.T) {
	snap := buildDermaSnapshot(t)
	dup := snap.Copy()

	rng, ok := dup.Ranges().Get("Acne")
	require.True(t, ok)
	rng.Categories = append(rng.Categories, "Sun")

	original, _ := snap.Ranges().Get("Acne")
	assert.Len(t, original.Categories, 1)

	require.NoError(t, dup.Ranges().Set(&taxonomy.Range{Name: "New", Status: taxonomy.StatusActive}))
	assert.False(t, snap.Ranges().Exists("New"))
}

func TestLinkCategoryRange(t *testing.T) {
	snap := buildDermaSnapshot(t)
	require.NoError(t, snap.Ranges().Set(&taxonomy.Range{
		Name:   "Dermopure RL",
		Status: taxonomy.StatusPendingReview,
	}))

	require.True(t, snap.LinkCategoryRange("acne", "dermopure rl"))

	cat, _ := snap.Categories().Get("Acne")
	assert.True(t, cat.HasRange("Dermopure RL"))
	rng, _ := snap.Ranges().Get("Dermopure RL")
	assert.True(t, rng.HasCategory("Acne"))

	// Linking twice must not duplicate the edge.
	require.True(t, snap.LinkCategoryRange("Acne", "Dermopure RL"))
	assert.Len(t, cat.Ranges, 2)
	assert.Len(t, rng.Categories, 1)

	assert.False(t, snap.LinkCategoryRange("Acne", "No Such Range"))
}

func TestLinkRangeCampaign(t *testing.T) {
	snap := buildDermaSnapshot(t)
	require.NoError(t, snap.Campaigns().Set(&taxonomy.Campaign{
		Name:   "Deep Cleanse",
		Status: taxonomy.StatusPendingReview,
	}))

	require.True(t, snap.LinkRangeCampaign("Acne", "deep cleanse"))

	rng, _ := snap.Ranges().Get("Acne")
	assert.Contains(t, rng.Campaigns, "Deep Cleanse")
	campaign, _ := snap.Campaigns().Get("Deep Cleanse")
	assert.Equal(t, "Acne", campaign.Range)
}

func TestCollectionAddRejectsCaseInsensitiveDuplicate(t *testing.T) {
	ranges := taxonomy.NewRanges()
	require.NoError(t, ranges.Add(&taxonomy.Range{Name: "Body Milk", Status: taxonomy.StatusActive}))

	err := ranges.Add(&taxonomy.Range{Name: "body milk", Status: taxonomy.StatusActive})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
	assert.Equal(t, 1, ranges.Len())
}
