package sqlite

import (
	"context"
	"database/sql"

	"github.com/navigator1103/MediaIntel-sub006/internal/store"
	"github.com/navigator1103/MediaIntel-sub006/pkg/errors"
)

// InsertSpendRecord appends one committed import row.
func (s *Store) InsertSpendRecord(ctx context.Context, r store.SpendRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO spend_records (session_id, row_index, category, range_name, campaign, company, amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.SessionID, r.RowIndex, r.Category,
		nullString(r.Range), nullString(r.Campaign), nullString(r.Company), nullString(r.Amount),
		formatTime(r.CreatedAt))
	if err != nil {
		return errors.WrapStore("sqlite", "insert spend record", err)
	}
	return nil
}

// DeleteSpendRecords removes every committed row of a session. Used to back
// out rows written by a commit whose snapshot was rejected.
func (s *Store) DeleteSpendRecords(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM spend_records WHERE session_id = ?`, sessionID)
	if err != nil {
		return errors.WrapStore("sqlite", "delete spend records", err)
	}
	return nil
}

// CountSpendRecords returns the number of committed rows for a session.
func (s *Store) CountSpendRecords(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM spend_records WHERE session_id = ?`, sessionID).Scan(&n)
	if err != nil {
		return 0, errors.WrapStore("sqlite", "count spend records", err)
	}
	return n, nil
}

// SpendRecords returns the committed rows for a session in upload order.
func (s *Store) SpendRecords(ctx context.Context, sessionID string) ([]store.SpendRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, row_index, category, range_name, campaign, company, amount, created_at
		FROM spend_records WHERE session_id = ? ORDER BY row_index ASC`, sessionID)
	if err != nil {
		return nil, errors.WrapStore("sqlite", "query spend records", err)
	}
	defer rows.Close()

	var records []store.SpendRecord
	for rows.Next() {
		var (
			r         store.SpendRecord
			rangeName sql.NullString
			campaign  sql.NullString
			company   sql.NullString
			amount    sql.NullString
			createdAt string
		)
		if err := rows.Scan(&r.SessionID, &r.RowIndex, &r.Category, &rangeName, &campaign, &company, &amount, &createdAt); err != nil {
			return nil, errors.WrapStore("sqlite", "scan spend record", err)
		}
		r.Range = rangeName.String
		r.Campaign = campaign.String
		r.Company = company.String
		r.Amount = amount.String
		if r.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, errors.WrapStore("sqlite", "scan spend record", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapStore("sqlite", "query spend records", err)
	}
	return records, nil
}
