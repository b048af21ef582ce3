package sqlite

import (
	"context"
	"database/sql"

	"github.com/navigator1103/MediaIntel-sub006/internal/store"
	"github.com/navigator1103/MediaIntel-sub006/pkg/errors"
)

// SaveSession inserts or replaces a session row.
func (s *Store) SaveSession(ctx context.Context, row store.SessionRow) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO import_sessions (id, status, document, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			status = excluded.status, document = excluded.document, updated_at = excluded.updated_at`,
		row.ID, row.Status, string(row.Document),
		formatTime(row.CreatedAt), formatTime(row.UpdatedAt))
	if err != nil {
		return errors.WrapStore("sqlite", "save session", err)
	}
	return nil
}

// LoadSession retrieves a session row by ID.
func (s *Store) LoadSession(ctx context.Context, id string) (store.SessionRow, error) {
	dbRow := s.db.QueryRowContext(ctx, `
		SELECT id, status, document, created_at, updated_at FROM import_sessions WHERE id = ?`, id)

	var (
		row       store.SessionRow
		document  string
		createdAt string
		updatedAt string
	)
	err := dbRow.Scan(&row.ID, &row.Status, &document, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return store.SessionRow{}, errors.NewNotFoundError("session", id)
	}
	if err != nil {
		return store.SessionRow{}, errors.WrapStore("sqlite", "load session", err)
	}
	row.Document = []byte(document)
	if row.CreatedAt, err = parseTime(createdAt); err != nil {
		return store.SessionRow{}, errors.WrapStore("sqlite", "load session", err)
	}
	if row.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return store.SessionRow{}, errors.WrapStore("sqlite", "load session", err)
	}
	return row, nil
}

// ListSessions returns all session rows, newest first.
func (s *Store) ListSessions(ctx context.Context) ([]store.SessionRow, error) {
	dbRows, err := s.db.QueryContext(ctx, `
		SELECT id, status, document, created_at, updated_at
		FROM import_sessions ORDER BY created_at DESC`)
	if err != nil {
		return nil, errors.WrapStore("sqlite", "list sessions", err)
	}
	defer dbRows.Close()

	var rows []store.SessionRow
	for dbRows.Next() {
		var (
			row       store.SessionRow
			document  string
			createdAt string
			updatedAt string
		)
		if err := dbRows.Scan(&row.ID, &row.Status, &document, &createdAt, &updatedAt); err != nil {
			return nil, errors.WrapStore("sqlite", "list sessions", err)
		}
		row.Document = []byte(document)
		if row.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, errors.WrapStore("sqlite", "list sessions", err)
		}
		if row.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, errors.WrapStore("sqlite", "list sessions", err)
		}
		rows = append(rows, row)
	}
	if err := dbRows.Err(); err != nil {
		return nil, errors.WrapStore("sqlite", "list sessions", err)
	}
	return rows, nil
}
