// Package reconcile creates missing taxonomy nodes encountered during an
// import. A name that fails the relationship rule purely because it is
// absent — not malformed — is created under pending_review status with
// provenance, case-insensitively deduplicated, and linked to its declared
// parent.
//
// Creation is idempotent: re-running the same import finds the first run's
// node via case-insensitive lookup and links to it instead of creating a
// second one. Concurrent requests for the same name are serialized by a
// per-name lock, and the store's atomic find-or-create primitive guarantees
// at most one creation even across processes.
package reconcile

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/navigator1103/MediaIntel-sub006/pkg/errors"
	"github.com/navigator1103/MediaIntel-sub006/pkg/logging"
	"github.com/navigator1103/MediaIntel-sub006/pkg/taxonomy"
)

// Store is the persistence surface the reconciler relies on. Both
// find-or-create methods must be atomic: exactly one row is created per
// folded name no matter how many callers race.
type Store interface {
	FindOrCreateRange(ctx context.Context, candidate *taxonomy.Range) (*taxonomy.Range, bool, error)
	FindOrCreateCampaign(ctx context.Context, candidate *taxonomy.Campaign) (*taxonomy.Campaign, bool, error)
	LinkCategoryRange(ctx context.Context, category, rangeName string) error
	AssignCampaignRange(ctx context.Context, campaign, rangeName string) error
}

// AutoCreator performs find-or-create of missing ranges and campaigns.
type AutoCreator struct {
	store Store
	locks nameLocks
}

// New creates an AutoCreator backed by the given store.
func New(store Store) *AutoCreator {
	return &AutoCreator{store: store}
}

// EnsureRange resolves the named range in the snapshot, creating it with
// status pending_review when absent. When parentCategory is known the
// category↔range edge is recorded in both the snapshot and the store.
// The snapshot must be a staged (mutable) copy. Returns the resolved range
// and whether it was created by this call.
func (a *AutoCreator) EnsureRange(ctx context.Context, snapshot *taxonomy.Snapshot, name, parentCategory, sessionID string) (*taxonomy.Range, bool, error) {
	unlock := a.locks.lock(taxonomy.Fold(name))
	defer unlock()

	if existing, ok := snapshot.Ranges().Get(name); ok {
		return existing, false, a.linkRange(ctx, snapshot, existing, parentCategory)
	}

	candidate := &taxonomy.Range{
		ID:     uuid.NewString(),
		Name:   name,
		Status: taxonomy.StatusPendingReview,
		Provenance: &taxonomy.Provenance{
			SessionID: sessionID,
			CreatedAt: time.Now().UTC(),
		},
	}

	canonical, created, err := a.store.FindOrCreateRange(ctx, candidate)
	if err != nil {
		return nil, false, errors.WrapResource("create", "range", name, err)
	}

	rng := taxonomy.DeepCopyRange(*canonical)
	if err := snapshot.Ranges().Set(&rng); err != nil {
		return nil, false, errors.WrapResource("create", "range", name, err)
	}

	if created {
		logging.Ctx(ctx).Info().
			Str("range", canonical.Name).
			Str("session_id", sessionID).
			Msg("auto-created range pending review")
	}

	return &rng, created, a.linkRange(ctx, snapshot, &rng, parentCategory)
}

// EnsureCampaign resolves the named campaign in the snapshot, creating it
// with status pending_review when absent and linking it to its owning range
// when one is known.
func (a *AutoCreator) EnsureCampaign(ctx context.Context, snapshot *taxonomy.Snapshot, name, parentRange, sessionID string) (*taxonomy.Campaign, bool, error) {
	unlock := a.locks.lock(taxonomy.Fold(name))
	defer unlock()

	if existing, ok := snapshot.Campaigns().Get(name); ok {
		return existing, false, a.linkCampaign(ctx, snapshot, existing, parentRange)
	}

	candidate := &taxonomy.Campaign{
		ID:     uuid.NewString(),
		Name:   name,
		Status: taxonomy.StatusPendingReview,
		Provenance: &taxonomy.Provenance{
			SessionID: sessionID,
			CreatedAt: time.Now().UTC(),
		},
	}

	canonical, created, err := a.store.FindOrCreateCampaign(ctx, candidate)
	if err != nil {
		return nil, false, errors.WrapResource("create", "campaign", name, err)
	}

	campaign := taxonomy.DeepCopyCampaign(*canonical)
	if err := snapshot.Campaigns().Set(&campaign); err != nil {
		return nil, false, errors.WrapResource("create", "campaign", name, err)
	}

	if created {
		logging.Ctx(ctx).Info().
			Str("campaign", canonical.Name).
			Str("session_id", sessionID).
			Msg("auto-created campaign pending review")
	}

	return &campaign, created, a.linkCampaign(ctx, snapshot, &campaign, parentRange)
}

func (a *AutoCreator) linkRange(ctx context.Context, snapshot *taxonomy.Snapshot, rng *taxonomy.Range, parentCategory string) error {
	if parentCategory == "" || rng.HasCategory(parentCategory) {
		return nil
	}
	if !snapshot.LinkCategoryRange(parentCategory, rng.Name) {
		return nil // parent unknown in this snapshot; validation reports it
	}
	return errors.WrapResource("link", "range", rng.Name,
		a.store.LinkCategoryRange(ctx, parentCategory, rng.Name))
}

func (a *AutoCreator) linkCampaign(ctx context.Context, snapshot *taxonomy.Snapshot, campaign *taxonomy.Campaign, parentRange string) error {
	if parentRange == "" || taxonomy.EqualFold(campaign.Range, parentRange) {
		return nil
	}
	if !snapshot.LinkRangeCampaign(parentRange, campaign.Name) {
		return nil
	}
	return errors.WrapResource("link", "campaign", campaign.Name,
		a.store.AssignCampaignRange(ctx, campaign.Name, parentRange))
}

// nameLocks hands out one mutex per folded taxonomy name, so unrelated
// names never contend.
type nameLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (n *nameLocks) lock(key string) func() {
	n.mu.Lock()
	if n.locks == nil {
		n.locks = make(map[string]*sync.Mutex)
	}
	m, ok := n.locks[key]
	if !ok {
		m = &sync.Mutex{}
		n.locks[key] = m
	}
	n.mu.Unlock()

	m.Lock()
	return m.Unlock
}
