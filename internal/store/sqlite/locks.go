package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/navigator1103/MediaIntel-sub006/internal/store"
	"github.com/navigator1103/MediaIntel-sub006/pkg/errors"
)

// AcquireLock takes the named advisory lock for owner, valid for ttl.
// Expired locks are reaped on acquisition, and re-acquiring a lock the same
// owner already holds extends it. A lock held by another owner returns a
// LockError that matches errors.ErrLocked.
func (s *Store) AcquireLock(ctx context.Context, name, owner string, ttl time.Duration) (store.Lock, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return store.Lock{}, errors.WrapStore("sqlite", "acquire lock", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM locks WHERE name = ? AND expires_at < ?`, name, formatTime(now)); err != nil {
		return store.Lock{}, errors.WrapStore("sqlite", "acquire lock", err)
	}

	var holder string
	err = tx.QueryRowContext(ctx, `SELECT owner FROM locks WHERE name = ?`, name).Scan(&holder)
	switch {
	case err == sql.ErrNoRows:
		// Free; take it below.
	case err != nil:
		return store.Lock{}, errors.WrapStore("sqlite", "acquire lock", err)
	case holder != owner:
		return store.Lock{}, &errors.LockError{Name: name, Holder: holder, Err: errors.ErrLocked}
	}

	lock := store.Lock{
		Name:       name,
		Owner:      owner,
		AcquiredAt: now,
		ExpiresAt:  now.Add(ttl),
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO locks (name, owner, acquired_at, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET owner = excluded.owner, expires_at = excluded.expires_at`,
		lock.Name, lock.Owner, formatTime(lock.AcquiredAt), formatTime(lock.ExpiresAt))
	if err != nil {
		return store.Lock{}, errors.WrapStore("sqlite", "acquire lock", err)
	}

	if err := tx.Commit(); err != nil {
		return store.Lock{}, errors.WrapStore("sqlite", "acquire lock", err)
	}
	return lock, nil
}

// ReleaseLock drops the named lock if owner holds it. Releasing a lock that
// is free or held by someone else is a no-op, which keeps release safe to
// call from deferred cleanup after a failed acquisition.
func (s *Store) ReleaseLock(ctx context.Context, name, owner string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM locks WHERE name = ? AND owner = ?`, name, owner)
	if err != nil {
		return errors.WrapStore("sqlite", "release lock", err)
	}
	return nil
}
