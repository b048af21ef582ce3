package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navigator1103/MediaIntel-sub006/pkg/taxonomy"
	"github.com/navigator1103/MediaIntel-sub006/pkg/validate"
)

func dermaSnapshot(t *testing.T) *taxonomy.Snapshot {
	t.Helper()

	snap := taxonomy.NewSnapshot()
	require.NoError(t, snap.BusinessUnits().Set(&taxonomy.BusinessUnit{
		Name: "Derma", Categories: []string{"Acne"},
	}))
	require.NoError(t, snap.Categories().Set(&taxonomy.Category{
		Name: "Acne", BusinessUnit: "Derma", Ranges: []string{"Acne"},
	}))
	require.NoError(t, snap.Ranges().Set(&taxonomy.Range{
		Name: "Acne", Status: taxonomy.StatusActive,
		Categories: []string{"Acne"}, Campaigns: []string{"Triple Effect"},
	}))
	require.NoError(t, snap.Campaigns().Set(&taxonomy.Campaign{
		Name: "Triple Effect", Status: taxonomy.StatusActive, Range: "Acne",
	}))
	return snap
}

func issuesByRule(issues []validate.Issue, rule validate.RuleType) []validate.Issue {
	var out []validate.Issue
	for _, issue := range issues {
		if issue.Rule == rule {
			out = append(out, issue)
		}
	}
	return out
}

func TestRequiredRule(t *testing.T) {
	v := validate.New(validate.CompetitorConfig())
	batch := []validate.Record{{"Category": "  ", "Company": "Beiersdorf"}}

	issues := v.ValidateBatch(batch, dermaSnapshot(t), "Derma")
	required := issuesByRule(issues, validate.RuleRequired)
	require.Len(t, required, 1)
	assert.Equal(t, "Category", required[0].Column)
	assert.Equal(t, validate.SeverityCritical, required[0].Severity)
	assert.Equal(t, 0, required[0].RowIndex)
}

func TestFormatRule(t *testing.T) {
	cases := []struct {
		value string
		ok    bool
	}{
		{"", true},
		{"-", true},
		{"1234", true},
		{"1,234,567", true},
		{"1 234.50", true},
		{"12'000", true},
		{"n/a", false},
		{"12x", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, validate.NumericOK(tc.value), "value %q", tc.value)
	}

	v := validate.New(validate.CompetitorConfig())
	batch := []validate.Record{{
		"Category": "Acne", "Company": "Beiersdorf", "Spend": "n/a",
	}}
	issues := issuesByRule(v.ValidateBatch(batch, dermaSnapshot(t), "Derma"), validate.RuleFormat)
	require.Len(t, issues, 1)
	assert.Equal(t, validate.SeverityWarning, issues[0].Severity)
	assert.Equal(t, "n/a", issues[0].CurrentValue)
}

func TestRelationshipRule(t *testing.T) {
	snap := dermaSnapshot(t)
	v := validate.New(validate.MediaSpendConfig())

	t.Run("resolves case-insensitively", func(t *testing.T) {
		batch := []validate.Record{{
			"Category": "acne", "Range": "ACNE", "Campaign": "triple effect",
		}}
		issues := issuesByRule(v.ValidateBatch(batch, snap, "Derma"), validate.RuleRelationship)
		assert.Empty(t, issues)
	})

	t.Run("unresolved range is critical but auto-creatable", func(t *testing.T) {
		batch := []validate.Record{{
			"Category": "Acne", "Range": "Dermopure RL", "Campaign": "Triple Effect",
		}}
		issues := issuesByRule(v.ValidateBatch(batch, snap, "Derma"), validate.RuleRelationship)
		require.Len(t, issues, 1)
		assert.Equal(t, "Range", issues[0].Column)
		assert.Equal(t, validate.SeverityCritical, issues[0].Severity)
		assert.True(t, issues[0].AutoCreatable)
		assert.Contains(t, issues[0].Message, `"Dermopure RL" is not valid for business unit "Derma"`)
		assert.Contains(t, issues[0].Message, "will be created as pending review")
		assert.Equal(t, "Dermopure RL", issues[0].CurrentValue)
	})

	t.Run("unresolved category is never auto-creatable", func(t *testing.T) {
		batch := []validate.Record{{
			"Category": "Sun", "Range": "Acne", "Campaign": "Triple Effect",
		}}
		issues := issuesByRule(v.ValidateBatch(batch, snap, "Derma"), validate.RuleRelationship)
		require.Len(t, issues, 1)
		assert.False(t, issues[0].AutoCreatable)
	})

	t.Run("unresolved category enumerates valid set", func(t *testing.T) {
		batch := []validate.Record{{
			"Category": "Sun", "Range": "Acne", "Campaign": "Triple Effect",
		}}
		issues := issuesByRule(v.ValidateBatch(batch, snap, "Derma"), validate.RuleRelationship)
		require.Len(t, issues, 1)
		assert.Equal(t, "Category", issues[0].Column)
		assert.Equal(t, validate.SeverityCritical, issues[0].Severity)
		assert.Contains(t, issues[0].Message, `"Sun" is not valid for business unit "Derma"`)
		assert.Contains(t, issues[0].Message, "valid values: Acne")
	})

	t.Run("wrong business unit context", func(t *testing.T) {
		batch := []validate.Record{{
			"Category": "Acne", "Range": "Acne", "Campaign": "Triple Effect",
		}}
		issues := issuesByRule(v.ValidateBatch(batch, snap, "Nivea"), validate.RuleRelationship)
		// Category, Range, and Campaign all fail to resolve under Nivea.
		assert.Len(t, issues, 3)
	})

	t.Run("empty value left to required rule", func(t *testing.T) {
		batch := []validate.Record{{"Category": "Acne", "Range": "", "Campaign": "Triple Effect"}}
		issues := issuesByRule(v.ValidateBatch(batch, snap, "Derma"), validate.RuleRelationship)
		assert.Empty(t, issues)
	})
}

func TestUniquenessRule(t *testing.T) {
	snap := dermaSnapshot(t)
	v := validate.New(validate.CompetitorConfig())

	batch := []validate.Record{
		{"Category": "Acne", "Company": "Beiersdorf"},
		{"Category": "Acne", "Company": "L'Oreal"},
		{"Category": "acne", "Company": "BEIERSDORF"}, // dup of row 1 under folding
	}

	issues := issuesByRule(v.ValidateBatch(batch, snap, "Derma"), validate.RuleUniqueness)
	require.Len(t, issues, 2)

	first, third := issues[0], issues[1]
	assert.Equal(t, 0, first.RowIndex)
	assert.Contains(t, first.Message, "row(s) 3")
	assert.Equal(t, 2, third.RowIndex)
	assert.Contains(t, third.Message, "row(s) 1")
	for _, issue := range issues {
		assert.Equal(t, validate.SeverityCritical, issue.Severity)
	}
}

func TestValidateRecordMatchesBatch(t *testing.T) {
	snap := dermaSnapshot(t)
	v := validate.New(validate.CompetitorConfig())

	batch := []validate.Record{
		{"Category": "Acne", "Company": "Beiersdorf", "Spend": "100"},
		{"Category": "Acne", "Company": "Beiersdorf", "Spend": "200"},
	}

	batchIssues := v.ValidateBatch(batch, snap, "Derma")
	var single []validate.Issue
	for i, record := range batch {
		single = append(single, v.ValidateRecord(record, i, batch, snap, "Derma")...)
	}
	assert.Equal(t, batchIssues, single)
}

func TestCleanBatchHasNoIssues(t *testing.T) {
	snap := dermaSnapshot(t)
	v := validate.New(validate.MediaSpendConfig())

	batch := []validate.Record{{
		"Category": "Acne", "Range": "Acne", "Campaign": "Triple Effect",
		"Spend": "1,200", "TRPs": "-",
	}}
	assert.Empty(t, v.ValidateBatch(batch, snap, "Derma"))
}
