package mediaintel_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mediaintel "github.com/navigator1103/MediaIntel-sub006"
	"github.com/navigator1103/MediaIntel-sub006/pkg/session"
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
		Name: "Acne", Status: taxonomy.StatusActive, Categories: []string{"Acne"}, Campaigns: []string{"Triple Effect"},
	}))
	require.NoError(t, snap.Campaigns().Set(&taxonomy.Campaign{
		Name: "Triple Effect", Status: taxonomy.StatusActive, Range: "Acne",
	}))
	return snap
}

func TestEngineLifecycle(t *testing.T) {
	ctx := context.Background()
	storePath := filepath.Join(t.TempDir(), "ops.db")
	masterDir := t.TempDir()
	nop := zerolog.Nop()

	eng, err := mediaintel.New(
		mediaintel.WithStorePath(storePath),
		mediaintel.WithMasterDir(masterDir),
		mediaintel.WithSnapshot(dermaSnapshot(t)),
		mediaintel.WithLogger(&nop),
	)
	require.NoError(t, err)

	sess, err := eng.Sessions().Upload(ctx, "spend.xlsx", session.KindMediaSpend, "Derma", []validate.Record{
		{"Category": "Acne", "Range": "Dermopure RL", "Campaign": "Anti-Pimple", "Spend": "9000"},
	})
	require.NoError(t, err)

	sess, err = eng.Sessions().Validate(ctx, sess.ID)
	require.NoError(t, err)
	require.True(t, sess.CanImport)

	report, err := eng.Sessions().Commit(ctx, sess.ID, "tester")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Imported)

	require.NoError(t, eng.SaveMaster())
	require.NoError(t, eng.Close())
	assert.NoError(t, eng.Close(), "second close is a no-op")

	// A fresh engine over the same directories loads what was committed.
	eng2, err := mediaintel.New(
		mediaintel.WithStorePath(storePath),
		mediaintel.WithMasterDir(masterDir),
		mediaintel.WithLogger(&nop),
	)
	require.NoError(t, err)
	defer eng2.Close()

	rng, ok := eng2.Graph().Snapshot().Ranges().Get("Dermopure RL")
	require.True(t, ok)
	assert.Equal(t, taxonomy.StatusPendingReview, rng.Status)
}

func TestEngineStartsEmptyWithoutMaster(t *testing.T) {
	nop := zerolog.Nop()
	eng, err := mediaintel.New(
		mediaintel.WithStorePath(filepath.Join(t.TempDir(), "ops.db")),
		mediaintel.WithMasterDir(filepath.Join(t.TempDir(), "missing")),
		mediaintel.WithLogger(&nop),
	)
	require.NoError(t, err)
	defer eng.Close()

	assert.Equal(t, 0, eng.Graph().Snapshot().Ranges().Len())
}
