// Package sync reconciles a reporting mirror against the operational store.
// Rows missing on either side are copied across, so both stores converge on
// the union of their contents. The operational store is authoritative only
// where the two disagree: divergent rows are overwritten with its value.
// Runs are guarded by an advisory lock so only one sync can touch the
// stores at a time.
package sync

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/navigator1103/MediaIntel-sub006/internal/store"
	"github.com/navigator1103/MediaIntel-sub006/pkg/errors"
)

// LockName is the advisory lock guarding sync runs.
const LockName = "store-sync"

// EntityStore is the surface a store exposes to the synchronizer.
type EntityStore interface {
	CountEntities(ctx context.Context, typ store.EntityType) (int, error)
	FetchEntities(ctx context.Context, typ store.EntityType) (map[string]store.Entity, error)
	UpsertEntity(ctx context.Context, typ store.EntityType, entity store.Entity) error
}

// Locker grants exclusive advisory locks.
type Locker interface {
	AcquireLock(ctx context.Context, name, owner string, ttl time.Duration) (store.Lock, error)
	ReleaseLock(ctx context.Context, name, owner string) error
}

// Result is the comparison outcome for one entity type. The key slices are
// sorted so reports are stable.
type Result struct {
	Type         store.EntityType `json:"type"`
	SourceCount  int              `json:"source_count"`
	TargetCount  int              `json:"target_count"`
	InSourceOnly []string         `json:"in_source_only,omitempty"`
	InTargetOnly []string         `json:"in_target_only,omitempty"`
	Divergent    []string         `json:"divergent,omitempty"`
	Applied      int              `json:"applied"`
	Failed       int              `json:"failed,omitempty"`
}

// InSync reports whether the stores agreed for this entity type before any
// repairs were applied.
func (r Result) InSync() bool {
	return len(r.InSourceOnly) == 0 && len(r.InTargetOnly) == 0 && len(r.Divergent) == 0
}

// Report covers one full sync run.
type Report struct {
	Results    []Result  `json:"results"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DryRun     bool      `json:"dry_run,omitempty"`
}

// Applied is the total number of repairs across all entity types.
func (r *Report) Applied() int {
	total := 0
	for _, result := range r.Results {
		total += result.Applied
	}
	return total
}

// Failed is the total number of entities whose copy failed and was skipped.
func (r *Report) Failed() int {
	total := 0
	for _, result := range r.Results {
		total += result.Failed
	}
	return total
}

// Syncer compares and repairs two stores against each other, with source as
// the authoritative side for divergent rows.
type Syncer struct {
	source EntityStore
	target EntityStore
	locker Locker

	owner   string
	lockTTL time.Duration
	dryRun  bool
	logger  zerolog.Logger
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithOwner sets the lock owner identity, which defaults to "sync".
func WithOwner(owner string) Option {
	return func(s *Syncer) { s.owner = owner }
}

// WithLockTTL bounds how long a crashed run keeps the stores locked.
func WithLockTTL(ttl time.Duration) Option {
	return func(s *Syncer) { s.lockTTL = ttl }
}

// WithDryRun reports differences without repairing them.
func WithDryRun(dryRun bool) Option {
	return func(s *Syncer) { s.dryRun = dryRun }
}

// WithLogger sets the run logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Syncer) { s.logger = logger }
}

// New creates a Syncer between source (authoritative for divergent rows)
// and target. A nil locker skips locking, which is only safe in tests.
func New(source, target EntityStore, locker Locker, opts ...Option) *Syncer {
	s := &Syncer{
		source:  source,
		target:  target,
		locker:  locker,
		owner:   "sync",
		lockTTL: 10 * time.Minute,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run performs one sync pass over every entity type. A run that finds
// nothing to repair leaves both stores untouched, so re-running after a
// successful pass reports zero applied changes. Copy failures for single
// entities are logged and counted but do not stop the run; only a
// store-connectivity failure aborts it.
func (s *Syncer) Run(ctx context.Context) (*Report, error) {
	if s.locker != nil {
		if _, err := s.locker.AcquireLock(ctx, LockName, s.owner, s.lockTTL); err != nil {
			return nil, err
		}
		defer s.locker.ReleaseLock(ctx, LockName, s.owner)
	}

	report := &Report{StartedAt: time.Now().UTC(), DryRun: s.dryRun}
	for _, typ := range store.EntityTypes {
		if err := ctx.Err(); err != nil {
			return nil, errors.ErrCanceled
		}
		result, err := s.syncType(ctx, typ)
		if err != nil {
			return nil, err
		}
		report.Results = append(report.Results, result)
	}
	report.FinishedAt = time.Now().UTC()

	s.logger.Info().
		Int("applied", report.Applied()).
		Int("failed", report.Failed()).
		Bool("dry_run", s.dryRun).
		Msg("store sync finished")
	return report, nil
}

func (s *Syncer) syncType(ctx context.Context, typ store.EntityType) (Result, error) {
	result := Result{Type: typ}

	sourceCount, err := s.source.CountEntities(ctx, typ)
	if err != nil {
		return result, err
	}
	targetCount, err := s.target.CountEntities(ctx, typ)
	if err != nil {
		return result, err
	}
	result.SourceCount = sourceCount
	result.TargetCount = targetCount
	if sourceCount == 0 && targetCount == 0 {
		return result, nil
	}

	source, err := s.source.FetchEntities(ctx, typ)
	if err != nil {
		return result, err
	}
	target, err := s.target.FetchEntities(ctx, typ)
	if err != nil {
		return result, err
	}

	for key, entity := range source {
		mirrored, ok := target[key]
		switch {
		case !ok:
			result.InSourceOnly = append(result.InSourceOnly, key)
		case mirrored.Fingerprint != entity.Fingerprint:
			result.Divergent = append(result.Divergent, key)
		}
	}
	for key := range target {
		if _, ok := source[key]; !ok {
			result.InTargetOnly = append(result.InTargetOnly, key)
		}
	}
	sort.Strings(result.InSourceOnly)
	sort.Strings(result.InTargetOnly)
	sort.Strings(result.Divergent)

	if s.dryRun {
		return result, nil
	}

	// Missing rows are copied in whichever direction they are absent;
	// only divergent rows take the source's value.
	for _, key := range result.InSourceOnly {
		if err := s.copyEntity(ctx, s.target, typ, source[key], &result); err != nil {
			return result, err
		}
	}
	for _, key := range result.Divergent {
		if err := s.copyEntity(ctx, s.target, typ, source[key], &result); err != nil {
			return result, err
		}
	}
	for _, key := range result.InTargetOnly {
		if err := s.copyEntity(ctx, s.source, typ, target[key], &result); err != nil {
			return result, err
		}
	}

	if result.Applied > 0 || result.Failed > 0 {
		s.logger.Debug().
			Str("type", string(typ)).
			Int("copied", len(result.InSourceOnly)).
			Int("overwritten", len(result.Divergent)).
			Int("copied_back", len(result.InTargetOnly)).
			Int("failed", result.Failed).
			Msg("stores repaired")
	}
	return result, nil
}

// copyEntity applies one upsert. A failure for a single entity is logged
// and counted but not fatal; a store-connectivity failure is returned so
// the run aborts.
func (s *Syncer) copyEntity(ctx context.Context, dst EntityStore, typ store.EntityType, entity store.Entity, result *Result) error {
	err := dst.UpsertEntity(ctx, typ, entity)
	if err == nil {
		result.Applied++
		return nil
	}
	if errors.IsStoreUnavailable(err) {
		return err
	}
	result.Failed++
	s.logger.Warn().
		Str("type", string(typ)).
		Str("key", entity.Key).
		Err(err).
		Msg("entity copy failed")
	return nil
}
