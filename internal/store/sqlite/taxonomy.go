package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/navigator1103/MediaIntel-sub006/pkg/errors"
	"github.com/navigator1103/MediaIntel-sub006/pkg/taxonomy"
)

const rangeColumns = `id, name, name_fold, status, session_id, source, created_at, updated_at`

func scanRange(scanner interface{ Scan(dest ...any) error }) (*taxonomy.Range, error) {
	var (
		r         taxonomy.Range
		fold      string
		sessionID sql.NullString
		source    sql.NullString
		createdAt string
		updatedAt string
	)
	err := scanner.Scan(&r.ID, &r.Name, &fold, &r.Status, &sessionID, &source, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if sessionID.Valid || source.Valid {
		created, err := parseTime(createdAt)
		if err != nil {
			return nil, err
		}
		r.Provenance = &taxonomy.Provenance{
			SessionID: sessionID.String,
			Source:    source.String,
			CreatedAt: created,
		}
	}
	return &r, nil
}

const campaignColumns = `id, name, name_fold, status, range_name, session_id, source, created_at, updated_at`

func scanCampaign(scanner interface{ Scan(dest ...any) error }) (*taxonomy.Campaign, error) {
	var (
		c         taxonomy.Campaign
		fold      string
		rangeName sql.NullString
		sessionID sql.NullString
		source    sql.NullString
		createdAt string
		updatedAt string
	)
	err := scanner.Scan(&c.ID, &c.Name, &fold, &c.Status, &rangeName, &sessionID, &source, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	c.Range = rangeName.String
	if sessionID.Valid || source.Valid {
		created, err := parseTime(createdAt)
		if err != nil {
			return nil, err
		}
		c.Provenance = &taxonomy.Provenance{
			SessionID: sessionID.String,
			Source:    source.String,
			CreatedAt: created,
		}
	}
	return &c, nil
}

// FindOrCreateRange inserts candidate unless a live row with the same folded
// name already exists, and returns the canonical row either way. The partial
// unique index on name_fold makes the insert-or-skip a single atomic
// statement, so concurrent imports of the same name converge on one row.
func (s *Store) FindOrCreateRange(ctx context.Context, candidate *taxonomy.Range) (*taxonomy.Range, bool, error) {
	fold := taxonomy.Fold(candidate.Name)
	now := formatTime(time.Now())

	var sessionID, source string
	created := now
	if candidate.Provenance != nil {
		sessionID = candidate.Provenance.SessionID
		source = candidate.Provenance.Source
		if !candidate.Provenance.CreatedAt.IsZero() {
			created = formatTime(candidate.Provenance.CreatedAt)
		}
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO ranges (id, name, name_fold, status, session_id, source, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (name_fold) WHERE status != 'archived' DO NOTHING`,
		candidate.ID,
		candidate.Name,
		fold,
		string(candidate.Status),
		nullString(sessionID),
		nullString(source),
		created,
		now,
	)
	if err != nil {
		return nil, false, errors.WrapStore("sqlite", "find-or-create range", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, false, errors.WrapStore("sqlite", "find-or-create range", err)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+rangeColumns+` FROM ranges WHERE name_fold = ? AND status != 'archived'`, fold)
	canonical, err := scanRange(row)
	if err != nil {
		return nil, false, errors.WrapStore("sqlite", "find-or-create range", err)
	}
	return canonical, n == 1, nil
}

// FindOrCreateCampaign is the campaign counterpart of FindOrCreateRange.
func (s *Store) FindOrCreateCampaign(ctx context.Context, candidate *taxonomy.Campaign) (*taxonomy.Campaign, bool, error) {
	fold := taxonomy.Fold(candidate.Name)
	now := formatTime(time.Now())

	var sessionID, source string
	created := now
	if candidate.Provenance != nil {
		sessionID = candidate.Provenance.SessionID
		source = candidate.Provenance.Source
		if !candidate.Provenance.CreatedAt.IsZero() {
			created = formatTime(candidate.Provenance.CreatedAt)
		}
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO campaigns (id, name, name_fold, status, range_name, session_id, source, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (name_fold) WHERE status != 'archived' DO NOTHING`,
		candidate.ID,
		candidate.Name,
		fold,
		string(candidate.Status),
		nullString(candidate.Range),
		nullString(sessionID),
		nullString(source),
		created,
		now,
	)
	if err != nil {
		return nil, false, errors.WrapStore("sqlite", "find-or-create campaign", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, false, errors.WrapStore("sqlite", "find-or-create campaign", err)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE name_fold = ? AND status != 'archived'`, fold)
	canonical, err := scanCampaign(row)
	if err != nil {
		return nil, false, errors.WrapStore("sqlite", "find-or-create campaign", err)
	}
	return canonical, n == 1, nil
}

// LinkCategoryRange records a category-range edge. Re-linking an existing
// pair is a no-op.
func (s *Store) LinkCategoryRange(ctx context.Context, category, rangeName string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO category_ranges (category_fold, range_fold) VALUES (?, ?)`,
		taxonomy.Fold(category), taxonomy.Fold(rangeName))
	if err != nil {
		return errors.WrapStore("sqlite", "link category-range", err)
	}
	return nil
}

// AssignCampaignRange sets the owning range of a live campaign.
func (s *Store) AssignCampaignRange(ctx context.Context, campaign, rangeName string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE campaigns SET range_name = ?, updated_at = ?
		WHERE name_fold = ? AND status != 'archived'`,
		rangeName, formatTime(time.Now()), taxonomy.Fold(campaign))
	if err != nil {
		return errors.WrapStore("sqlite", "assign campaign range", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return errors.WrapStore("sqlite", "assign campaign range", err)
	}
	if n == 0 {
		return errors.NewNotFoundError("campaign", campaign)
	}
	return nil
}

// UpsertBusinessUnit writes a business unit row keyed by folded name.
func (s *Store) UpsertBusinessUnit(ctx context.Context, bu *taxonomy.BusinessUnit) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO business_units (id, name, name_fold, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (name_fold) DO UPDATE SET id = excluded.id, name = excluded.name, updated_at = excluded.updated_at`,
		bu.ID, bu.Name, taxonomy.Fold(bu.Name), formatTime(time.Now()))
	if err != nil {
		return errors.WrapStore("sqlite", "upsert business unit", err)
	}
	return nil
}

// UpsertCategory writes a category row keyed by folded name.
func (s *Store) UpsertCategory(ctx context.Context, c *taxonomy.Category) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, name_fold, business_unit, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (name_fold) DO UPDATE SET
			id = excluded.id, name = excluded.name,
			business_unit = excluded.business_unit, updated_at = excluded.updated_at`,
		c.ID, c.Name, taxonomy.Fold(c.Name), c.BusinessUnit, formatTime(time.Now()))
	if err != nil {
		return errors.WrapStore("sqlite", "upsert category", err)
	}
	return nil
}

// LoadSnapshot reads the whole taxonomy out of the database and assembles it
// into an in-memory snapshot with both edge directions populated.
func (s *Store) LoadSnapshot(ctx context.Context) (*taxonomy.Snapshot, error) {
	snap := taxonomy.NewSnapshot()

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, name_fold, updated_at FROM business_units`)
	if err != nil {
		return nil, errors.WrapStore("sqlite", "load business units", err)
	}
	defer rows.Close()
	for rows.Next() {
		var bu taxonomy.BusinessUnit
		var fold, updatedAt string
		if err := rows.Scan(&bu.ID, &bu.Name, &fold, &updatedAt); err != nil {
			return nil, errors.WrapStore("sqlite", "load business units", err)
		}
		if err := snap.BusinessUnits().Set(&bu); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapStore("sqlite", "load business units", err)
	}

	catRows, err := s.db.QueryContext(ctx, `SELECT id, name, name_fold, business_unit, updated_at FROM categories`)
	if err != nil {
		return nil, errors.WrapStore("sqlite", "load categories", err)
	}
	defer catRows.Close()
	for catRows.Next() {
		var c taxonomy.Category
		var fold, updatedAt string
		if err := catRows.Scan(&c.ID, &c.Name, &fold, &c.BusinessUnit, &updatedAt); err != nil {
			return nil, errors.WrapStore("sqlite", "load categories", err)
		}
		if err := snap.Categories().Set(&c); err != nil {
			return nil, err
		}
		if bu, ok := snap.BusinessUnits().Get(c.BusinessUnit); ok && !bu.HasCategory(c.Name) {
			bu.Categories = append(bu.Categories, c.Name)
		}
	}
	if err := catRows.Err(); err != nil {
		return nil, errors.WrapStore("sqlite", "load categories", err)
	}

	rangeRows, err := s.db.QueryContext(ctx, `SELECT `+rangeColumns+` FROM ranges`)
	if err != nil {
		return nil, errors.WrapStore("sqlite", "load ranges", err)
	}
	defer rangeRows.Close()
	for rangeRows.Next() {
		r, err := scanRange(rangeRows)
		if err != nil {
			return nil, errors.WrapStore("sqlite", "load ranges", err)
		}
		if err := snap.Ranges().Set(r); err != nil {
			return nil, err
		}
	}
	if err := rangeRows.Err(); err != nil {
		return nil, errors.WrapStore("sqlite", "load ranges", err)
	}

	campaignRows, err := s.db.QueryContext(ctx, `SELECT `+campaignColumns+` FROM campaigns`)
	if err != nil {
		return nil, errors.WrapStore("sqlite", "load campaigns", err)
	}
	defer campaignRows.Close()
	for campaignRows.Next() {
		c, err := scanCampaign(campaignRows)
		if err != nil {
			return nil, errors.WrapStore("sqlite", "load campaigns", err)
		}
		if err := snap.Campaigns().Set(c); err != nil {
			return nil, err
		}
		if c.Range != "" {
			snap.LinkRangeCampaign(c.Range, c.Name)
		}
	}
	if err := campaignRows.Err(); err != nil {
		return nil, errors.WrapStore("sqlite", "load campaigns", err)
	}

	linkRows, err := s.db.QueryContext(ctx, `SELECT category_fold, range_fold FROM category_ranges`)
	if err != nil {
		return nil, errors.WrapStore("sqlite", "load category-range links", err)
	}
	defer linkRows.Close()
	for linkRows.Next() {
		var categoryFold, rangeFold string
		if err := linkRows.Scan(&categoryFold, &rangeFold); err != nil {
			return nil, errors.WrapStore("sqlite", "load category-range links", err)
		}
		// Folded keys resolve to display names through the collections.
		cat, okCat := snap.Categories().Get(categoryFold)
		rng, okRng := snap.Ranges().Get(rangeFold)
		if okCat && okRng {
			snap.LinkCategoryRange(cat.Name, rng.Name)
		}
	}
	if err := linkRows.Err(); err != nil {
		return nil, errors.WrapStore("sqlite", "load category-range links", err)
	}

	return snap, nil
}

// SaveSnapshot replaces the store's taxonomy tables with the snapshot's
// contents in one transaction. Used by the seed command and the
// synchronizer's full-copy path.
func (s *Store) SaveSnapshot(ctx context.Context, snap *taxonomy.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.WrapStore("sqlite", "save snapshot", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"business_units", "categories", "ranges", "campaigns", "category_ranges"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return errors.WrapStore("sqlite", "save snapshot", err)
		}
	}

	now := formatTime(time.Now())
	for _, bu := range snap.BusinessUnits().List() {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO business_units (id, name, name_fold, updated_at) VALUES (?, ?, ?, ?)`,
			bu.ID, bu.Name, taxonomy.Fold(bu.Name), now)
		if err != nil {
			return errors.WrapStore("sqlite", "save snapshot", err)
		}
	}
	for _, c := range snap.Categories().List() {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO categories (id, name, name_fold, business_unit, updated_at) VALUES (?, ?, ?, ?, ?)`,
			c.ID, c.Name, taxonomy.Fold(c.Name), c.BusinessUnit, now)
		if err != nil {
			return errors.WrapStore("sqlite", "save snapshot", err)
		}
		for _, rangeName := range c.Ranges {
			_, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO category_ranges (category_fold, range_fold) VALUES (?, ?)`,
				taxonomy.Fold(c.Name), taxonomy.Fold(rangeName))
			if err != nil {
				return errors.WrapStore("sqlite", "save snapshot", err)
			}
		}
	}
	for _, r := range snap.Ranges().List() {
		var sessionID, source string
		created := now
		if r.Provenance != nil {
			sessionID = r.Provenance.SessionID
			source = r.Provenance.Source
			if !r.Provenance.CreatedAt.IsZero() {
				created = formatTime(r.Provenance.CreatedAt)
			}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO ranges (id, name, name_fold, status, session_id, source, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.Name, taxonomy.Fold(r.Name), string(r.Status),
			nullString(sessionID), nullString(source), created, now)
		if err != nil {
			return errors.WrapStore("sqlite", "save snapshot", err)
		}
	}
	for _, c := range snap.Campaigns().List() {
		var sessionID, source string
		created := now
		if c.Provenance != nil {
			sessionID = c.Provenance.SessionID
			source = c.Provenance.Source
			if !c.Provenance.CreatedAt.IsZero() {
				created = formatTime(c.Provenance.CreatedAt)
			}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO campaigns (id, name, name_fold, status, range_name, session_id, source, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.Name, taxonomy.Fold(c.Name), string(c.Status), nullString(c.Range),
			nullString(sessionID), nullString(source), created, now)
		if err != nil {
			return errors.WrapStore("sqlite", "save snapshot", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.WrapStore("sqlite", "save snapshot", err)
	}
	return nil
}
