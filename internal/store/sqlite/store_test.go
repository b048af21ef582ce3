package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navigator1103/MediaIntel-sub006/internal/store"
	"github.com/navigator1103/MediaIntel-sub006/pkg/errors"
	"github.com/navigator1103/MediaIntel-sub006/pkg/taxonomy"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "mediaintel.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func pendingRange(name, sessionID string) *taxonomy.Range {
	return &taxonomy.Range{
		ID:     uuid.NewString(),
		Name:   name,
		Status: taxonomy.StatusPendingReview,
		Provenance: &taxonomy.Provenance{
			SessionID: sessionID,
			Source:    "import",
			CreatedAt: time.Now().UTC(),
		},
	}
}

func TestFindOrCreateRangeDedupesCaseInsensitively(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, created, err := s.FindOrCreateRange(ctx, pendingRange("Body Milk", "sess-1"))
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := s.FindOrCreateRange(ctx, pendingRange("BODY MILK", "sess-2"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Body Milk", second.Name)
	require.NotNil(t, second.Provenance)
	assert.Equal(t, "sess-1", second.Provenance.SessionID)
}

func TestFindOrCreateRangeConcurrent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	createdCh := make(chan bool, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, created, err := s.FindOrCreateRange(ctx, pendingRange("Dermopure RL", "sess-1"))
			assert.NoError(t, err)
			createdCh <- created
		}()
	}
	wg.Wait()
	close(createdCh)

	total := 0
	for created := range createdCh {
		if created {
			total++
		}
	}
	assert.Equal(t, 1, total)

	n, err := s.CountEntities(ctx, store.EntityRange)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestArchivedRangeFreesItsName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	snap := taxonomy.NewSnapshot()
	require.NoError(t, snap.Ranges().Set(&taxonomy.Range{
		ID: "r-old", Name: "Body Milk", Status: taxonomy.StatusArchived,
	}))
	require.NoError(t, s.SaveSnapshot(ctx, snap))

	fresh, created, err := s.FindOrCreateRange(ctx, pendingRange("Body Milk", "sess-1"))
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, "r-old", fresh.ID)
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	snap := taxonomy.NewSnapshot()
	require.NoError(t, snap.BusinessUnits().Set(&taxonomy.BusinessUnit{
		ID: "bu-1", Name: "Derma", Categories: []string{"Acne"},
	}))
	require.NoError(t, snap.Categories().Set(&taxonomy.Category{
		ID: "c-1", Name: "Acne", BusinessUnit: "Derma", Ranges: []string{"Acne"},
	}))
	require.NoError(t, snap.Ranges().Set(&taxonomy.Range{
		ID: "r-1", Name: "Acne", Status: taxonomy.StatusActive, Categories: []string{"Acne"},
	}))
	require.NoError(t, snap.Campaigns().Set(&taxonomy.Campaign{
		ID: "cp-1", Name: "Triple Effect", Status: taxonomy.StatusActive, Range: "Acne",
	}))

	require.NoError(t, s.SaveSnapshot(ctx, snap))

	loaded, err := s.LoadSnapshot(ctx)
	require.NoError(t, err)

	rng, ok := loaded.Ranges().Get("acne")
	require.True(t, ok)
	assert.True(t, rng.HasCategory("Acne"))
	assert.Contains(t, rng.Campaigns, "Triple Effect")

	campaign, ok := loaded.Campaigns().Get("Triple Effect")
	require.True(t, ok)
	assert.Equal(t, "Acne", campaign.Range)

	bu, ok := loaded.BusinessUnits().Get("Derma")
	require.True(t, ok)
	assert.True(t, bu.HasCategory("Acne"))
}

func TestSessionRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	row := store.SessionRow{
		ID:        "sess-1",
		Status:    "uploaded",
		Document:  []byte(`{"id":"sess-1"}`),
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.SaveSession(ctx, row))

	row.Status = "validated"
	row.UpdatedAt = now.Add(time.Minute)
	require.NoError(t, s.SaveSession(ctx, row))

	got, err := s.LoadSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "validated", got.Status)
	assert.JSONEq(t, `{"id":"sess-1"}`, string(got.Document))

	_, err = s.LoadSession(ctx, "missing")
	assert.True(t, errors.IsNotFound(err))
}

func TestAdvisoryLock(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.AcquireLock(ctx, "store-sync", "worker-a", time.Minute)
	require.NoError(t, err)

	// Contended acquisition fails with a lock error naming the holder.
	_, err = s.AcquireLock(ctx, "store-sync", "worker-b", time.Minute)
	require.Error(t, err)
	assert.True(t, errors.IsLocked(err))

	// The holder may re-acquire to extend.
	_, err = s.AcquireLock(ctx, "store-sync", "worker-a", time.Minute)
	require.NoError(t, err)

	// Release by a non-holder is a no-op; the lock stays held.
	require.NoError(t, s.ReleaseLock(ctx, "store-sync", "worker-b"))
	_, err = s.AcquireLock(ctx, "store-sync", "worker-b", time.Minute)
	assert.True(t, errors.IsLocked(err))

	require.NoError(t, s.ReleaseLock(ctx, "store-sync", "worker-a"))
	_, err = s.AcquireLock(ctx, "store-sync", "worker-b", time.Minute)
	assert.NoError(t, err)
}

func TestExpiredLockIsReaped(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.AcquireLock(ctx, "store-sync", "worker-a", -time.Second)
	require.NoError(t, err)

	_, err = s.AcquireLock(ctx, "store-sync", "worker-b", time.Minute)
	assert.NoError(t, err)
}

func TestSpendRecordsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	records := []store.SpendRecord{
		{SessionID: "sess-1", RowIndex: 0, Category: "Acne", Range: "Acne", Campaign: "Triple Effect", Amount: "15000", CreatedAt: now},
		{SessionID: "sess-1", RowIndex: 1, Category: "Sun", Range: "Protect & Moisture", Amount: "9000", CreatedAt: now},
	}
	for _, r := range records {
		require.NoError(t, s.InsertSpendRecord(ctx, r))
	}

	n, err := s.CountSpendRecords(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := s.SpendRecords(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Acne", got[0].Category)
	assert.Equal(t, "Protect & Moisture", got[1].Range)

	require.NoError(t, s.DeleteSpendRecords(ctx, "sess-1"))
	n, err = s.CountSpendRecords(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSyncSurfaceFingerprintsConverge(t *testing.T) {
	a := newTestStore(t)
	b := newTestStore(t)
	ctx := context.Background()

	snap := taxonomy.NewSnapshot()
	require.NoError(t, snap.Categories().Set(&taxonomy.Category{
		ID: "c-1", Name: "Acne", BusinessUnit: "Derma", Ranges: []string{"Acne"},
	}))
	require.NoError(t, snap.Ranges().Set(&taxonomy.Range{
		ID: "r-1", Name: "Acne", Status: taxonomy.StatusActive, Categories: []string{"Acne"},
	}))
	require.NoError(t, a.SaveSnapshot(ctx, snap))

	ranges, err := a.FetchEntities(ctx, store.EntityRange)
	require.NoError(t, err)
	require.Len(t, ranges, 1)

	// Copy A's range to B; re-fetching from B must produce an identical
	// fingerprint, otherwise sync would never settle.
	for _, entity := range ranges {
		require.NoError(t, b.UpsertEntity(ctx, store.EntityRange, entity))
	}
	mirrored, err := b.FetchEntities(ctx, store.EntityRange)
	require.NoError(t, err)
	require.Len(t, mirrored, 1)
	for key, entity := range ranges {
		assert.Equal(t, entity.Fingerprint, mirrored[key].Fingerprint)
	}
}

func TestCountEntities(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n, err := s.CountEntities(ctx, store.EntityRange)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, _, err = s.FindOrCreateRange(ctx, pendingRange("Body Milk", "sess-1"))
	require.NoError(t, err)

	n, err = s.CountEntities(ctx, store.EntityRange)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
