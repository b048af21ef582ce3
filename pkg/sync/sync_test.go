package sync_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navigator1103/MediaIntel-sub006/internal/store"
	"github.com/navigator1103/MediaIntel-sub006/pkg/errors"
	"github.com/navigator1103/MediaIntel-sub006/pkg/sync"
)

// memEntities is an in-memory EntityStore. Keys listed in failKeys reject
// upserts with the configured error.
type memEntities struct {
	entities map[store.EntityType]map[string]store.Entity
	failKeys map[string]error
	fetches  int
}

func newMemEntities() *memEntities {
	m := &memEntities{
		entities: make(map[store.EntityType]map[string]store.Entity),
		failKeys: make(map[string]error),
	}
	for _, typ := range store.EntityTypes {
		m.entities[typ] = make(map[string]store.Entity)
	}
	return m
}

func (m *memEntities) put(typ store.EntityType, key, payload string) {
	m.entities[typ][key] = store.NewEntity(key, []byte(payload))
}

func (m *memEntities) CountEntities(_ context.Context, typ store.EntityType) (int, error) {
	return len(m.entities[typ]), nil
}

func (m *memEntities) FetchEntities(_ context.Context, typ store.EntityType) (map[string]store.Entity, error) {
	m.fetches++
	out := make(map[string]store.Entity, len(m.entities[typ]))
	for key, entity := range m.entities[typ] {
		out[key] = entity
	}
	return out, nil
}

func (m *memEntities) UpsertEntity(_ context.Context, typ store.EntityType, entity store.Entity) error {
	if err, ok := m.failKeys[entity.Key]; ok {
		return err
	}
	m.entities[typ][entity.Key] = entity
	return nil
}

// memLocker is a single-lock Locker.
type memLocker struct {
	holder string
}

func (l *memLocker) AcquireLock(_ context.Context, name, owner string, _ time.Duration) (store.Lock, error) {
	if l.holder != "" && l.holder != owner {
		return store.Lock{}, &errors.LockError{Name: name, Holder: l.holder, Err: errors.ErrLocked}
	}
	l.holder = owner
	return store.Lock{Name: name, Owner: owner}, nil
}

func (l *memLocker) ReleaseLock(_ context.Context, _, owner string) error {
	if l.holder == owner {
		l.holder = ""
	}
	return nil
}

func resultFor(t *testing.T, report *sync.Report, typ store.EntityType) sync.Result {
	t.Helper()
	for _, result := range report.Results {
		if result.Type == typ {
			return result
		}
	}
	t.Fatalf("no result for %s", typ)
	return sync.Result{}
}

func TestRunRepairsBothStores(t *testing.T) {
	source := newMemEntities()
	target := newMemEntities()

	source.put(store.EntityRange, "body milk", `{"name":"Body Milk","status":"active"}`)
	source.put(store.EntityRange, "acne", `{"name":"Acne","status":"active"}`)
	target.put(store.EntityRange, "acne", `{"name":"Acne","status":"archived"}`)      // divergent
	target.put(store.EntityRange, "sun protect", `{"name":"Sun Protect","status":"active"}`) // mirror-only

	syncer := sync.New(source, target, nil)
	report, err := syncer.Run(context.Background())
	require.NoError(t, err)

	result := resultFor(t, report, store.EntityRange)
	assert.Equal(t, []string{"body milk"}, result.InSourceOnly)
	assert.Equal(t, []string{"sun protect"}, result.InTargetOnly)
	assert.Equal(t, []string{"acne"}, result.Divergent)
	assert.Equal(t, 3, result.Applied)
	assert.False(t, result.InSync())

	// Both stores converge on the union; the source wins only where the
	// two disagreed.
	mirrored, err := target.FetchEntities(context.Background(), store.EntityRange)
	require.NoError(t, err)
	require.Len(t, mirrored, 3)
	assert.Equal(t, source.entities[store.EntityRange]["acne"].Fingerprint, mirrored["acne"].Fingerprint)

	operational, err := source.FetchEntities(context.Background(), store.EntityRange)
	require.NoError(t, err)
	require.Len(t, operational, 3)
	assert.Contains(t, operational, "sun protect")
}

func TestRunCopiesMirrorOnlyRowsBack(t *testing.T) {
	source := newMemEntities()
	target := newMemEntities()
	target.put(store.EntityRange, "mirror only", `{"name":"Mirror Only","status":"active"}`)

	syncer := sync.New(source, target, nil)
	report, err := syncer.Run(context.Background())
	require.NoError(t, err)

	result := resultFor(t, report, store.EntityRange)
	assert.Equal(t, []string{"mirror only"}, result.InTargetOnly)
	assert.Equal(t, 1, result.Applied)

	operational, err := source.FetchEntities(context.Background(), store.EntityRange)
	require.NoError(t, err)
	assert.Contains(t, operational, "mirror only", "mirror-only rows are copied, never destroyed")

	mirrored, err := target.FetchEntities(context.Background(), store.EntityRange)
	require.NoError(t, err)
	assert.Contains(t, mirrored, "mirror only")
}

func TestRunIsIdempotent(t *testing.T) {
	source := newMemEntities()
	target := newMemEntities()
	source.put(store.EntityCategory, "acne", `{"name":"Acne","business_unit":"Derma"}`)

	syncer := sync.New(source, target, nil)
	first, err := syncer.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Applied())

	second, err := syncer.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Applied())
	for _, result := range second.Results {
		assert.True(t, result.InSync())
	}
}

func TestRunSkipsFetchForEmptyTypes(t *testing.T) {
	source := newMemEntities()
	target := newMemEntities()

	syncer := sync.New(source, target, nil)
	report, err := syncer.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Applied())

	// The count comparison settles empty types without a fetch.
	assert.Equal(t, 0, source.fetches)
	assert.Equal(t, 0, target.fetches)
}

func TestRunContainsPerEntityCopyFailures(t *testing.T) {
	source := newMemEntities()
	target := newMemEntities()
	source.put(store.EntityRange, "acne", `{"name":"Acne","status":"active"}`)
	source.put(store.EntityRange, "body milk", `{"name":"Body Milk","status":"active"}`)
	target.failKeys["acne"] = fmt.Errorf("malformed payload")

	syncer := sync.New(source, target, nil)
	report, err := syncer.Run(context.Background())
	require.NoError(t, err, "a single bad entity must not abort the run")

	result := resultFor(t, report, store.EntityRange)
	assert.Equal(t, 1, result.Applied)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, report.Failed())

	mirrored, err := target.FetchEntities(context.Background(), store.EntityRange)
	require.NoError(t, err)
	assert.Contains(t, mirrored, "body milk", "healthy entities still get copied")
	assert.NotContains(t, mirrored, "acne")
}

func TestRunAbortsOnStoreConnectivityFailure(t *testing.T) {
	source := newMemEntities()
	target := newMemEntities()
	source.put(store.EntityRange, "acne", `{"name":"Acne","status":"active"}`)
	target.failKeys["acne"] = errors.NewStoreError("mirror", "upsert", fmt.Errorf("connection refused"))

	syncer := sync.New(source, target, nil)
	_, err := syncer.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsStoreUnavailable(err))
}

func TestDryRunLeavesStoresUntouched(t *testing.T) {
	source := newMemEntities()
	target := newMemEntities()
	source.put(store.EntityRange, "body milk", `{"name":"Body Milk"}`)
	target.put(store.EntityRange, "mirror only", `{"name":"Mirror Only"}`)

	syncer := sync.New(source, target, nil, sync.WithDryRun(true))
	report, err := syncer.Run(context.Background())
	require.NoError(t, err)

	result := resultFor(t, report, store.EntityRange)
	assert.Equal(t, []string{"body milk"}, result.InSourceOnly)
	assert.Equal(t, []string{"mirror only"}, result.InTargetOnly)
	assert.Equal(t, 0, result.Applied)

	mirrored, err := target.FetchEntities(context.Background(), store.EntityRange)
	require.NoError(t, err)
	assert.Len(t, mirrored, 1)
	operational, err := source.FetchEntities(context.Background(), store.EntityRange)
	require.NoError(t, err)
	assert.Len(t, operational, 1)
}

func TestRunRequiresTheLock(t *testing.T) {
	locker := &memLocker{holder: "another-run"}
	syncer := sync.New(newMemEntities(), newMemEntities(), locker, sync.WithOwner("this-run"))

	_, err := syncer.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsLocked(err))
}

func TestRunReleasesTheLock(t *testing.T) {
	locker := &memLocker{}
	syncer := sync.New(newMemEntities(), newMemEntities(), locker)

	_, err := syncer.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, locker.holder)
}

func TestRunHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	syncer := sync.New(newMemEntities(), newMemEntities(), nil)
	_, err := syncer.Run(ctx)
	assert.True(t, errors.IsCanceled(err))
}
