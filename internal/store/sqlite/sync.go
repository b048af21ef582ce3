package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"time"

	"github.com/navigator1103/MediaIntel-sub006/internal/store"
	"github.com/navigator1103/MediaIntel-sub006/pkg/errors"
	"github.com/navigator1103/MediaIntel-sub006/pkg/taxonomy"
)

// Canonical per-type payloads exchanged between stores during sync. Each
// edge belongs to exactly one payload (category-range edges to the range,
// range-campaign edges to the campaign) so applying a payload fully repairs
// it. Edge lists carry folded keys and are sorted, keeping fingerprints
// stable across stores.
type businessUnitPayload struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

type categoryPayload struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name"`
	BusinessUnit string `json:"business_unit"`
}

type rangePayload struct {
	ID         string               `json:"id,omitempty"`
	Name       string               `json:"name"`
	Status     string               `json:"status"`
	Categories []string             `json:"categories,omitempty"`
	Provenance *taxonomy.Provenance `json:"provenance,omitempty"`
}

type campaignPayload struct {
	ID         string               `json:"id,omitempty"`
	Name       string               `json:"name"`
	Status     string               `json:"status"`
	Range      string               `json:"range,omitempty"`
	Provenance *taxonomy.Provenance `json:"provenance,omitempty"`
}

// entityKey is the sync identity of a row. Live rows are identified by
// folded name; archived rows append their ID since several may share a name.
func entityKey(fold string, status taxonomy.Status, id string) string {
	if status == taxonomy.StatusArchived {
		return fold + "#" + id
	}
	return fold
}

var entityTables = map[store.EntityType]string{
	store.EntityBusinessUnit: "business_units",
	store.EntityCategory:     "categories",
	store.EntityRange:        "ranges",
	store.EntityCampaign:     "campaigns",
}

// CountEntities returns the number of rows of the given type.
func (s *Store) CountEntities(ctx context.Context, typ store.EntityType) (int, error) {
	table, ok := entityTables[typ]
	if !ok {
		return 0, errors.NewValidationError("entity_type", string(typ), "unknown entity type")
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
		return 0, errors.WrapStore("sqlite", "count "+string(typ), err)
	}
	return n, nil
}

// FetchEntities returns every row of the given type in store-neutral form,
// keyed by sync identity.
func (s *Store) FetchEntities(ctx context.Context, typ store.EntityType) (map[string]store.Entity, error) {
	switch typ {
	case store.EntityBusinessUnit:
		return s.fetchBusinessUnits(ctx)
	case store.EntityCategory:
		return s.fetchCategories(ctx)
	case store.EntityRange:
		return s.fetchRanges(ctx)
	case store.EntityCampaign:
		return s.fetchCampaigns(ctx)
	}
	return nil, errors.NewValidationError("entity_type", string(typ), "unknown entity type")
}

func (s *Store) fetchBusinessUnits(ctx context.Context) (map[string]store.Entity, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, name_fold FROM business_units`)
	if err != nil {
		return nil, errors.WrapStore("sqlite", "fetch business units", err)
	}
	defer rows.Close()

	entities := make(map[string]store.Entity)
	for rows.Next() {
		var id, name, fold string
		if err := rows.Scan(&id, &name, &fold); err != nil {
			return nil, errors.WrapStore("sqlite", "fetch business units", err)
		}
		payload, err := json.Marshal(businessUnitPayload{ID: id, Name: name})
		if err != nil {
			return nil, err
		}
		entities[fold] = store.NewEntity(fold, payload)
	}
	return entities, rows.Err()
}

func (s *Store) fetchCategories(ctx context.Context) (map[string]store.Entity, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, name_fold, business_unit FROM categories`)
	if err != nil {
		return nil, errors.WrapStore("sqlite", "fetch categories", err)
	}
	defer rows.Close()

	entities := make(map[string]store.Entity)
	for rows.Next() {
		var id, name, fold, businessUnit string
		if err := rows.Scan(&id, &name, &fold, &businessUnit); err != nil {
			return nil, errors.WrapStore("sqlite", "fetch categories", err)
		}
		payload, err := json.Marshal(categoryPayload{ID: id, Name: name, BusinessUnit: businessUnit})
		if err != nil {
			return nil, err
		}
		entities[fold] = store.NewEntity(fold, payload)
	}
	return entities, rows.Err()
}

func (s *Store) fetchRanges(ctx context.Context) (map[string]store.Entity, error) {
	edges, err := s.rangeEdges(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+rangeColumns+` FROM ranges`)
	if err != nil {
		return nil, errors.WrapStore("sqlite", "fetch ranges", err)
	}
	defer rows.Close()

	entities := make(map[string]store.Entity)
	for rows.Next() {
		r, err := scanRange(rows)
		if err != nil {
			return nil, errors.WrapStore("sqlite", "fetch ranges", err)
		}
		fold := taxonomy.Fold(r.Name)
		categories := edges[fold]
		sort.Strings(categories)

		payload, err := json.Marshal(rangePayload{
			ID:         r.ID,
			Name:       r.Name,
			Status:     string(r.Status),
			Categories: categories,
			Provenance: r.Provenance,
		})
		if err != nil {
			return nil, err
		}
		key := entityKey(fold, r.Status, r.ID)
		entities[key] = store.NewEntity(key, payload)
	}
	return entities, rows.Err()
}

// rangeEdges returns category folds grouped by range fold.
func (s *Store) rangeEdges(ctx context.Context) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT category_fold, range_fold FROM category_ranges`)
	if err != nil {
		return nil, errors.WrapStore("sqlite", "fetch category-range edges", err)
	}
	defer rows.Close()

	edges := make(map[string][]string)
	for rows.Next() {
		var categoryFold, rangeFold string
		if err := rows.Scan(&categoryFold, &rangeFold); err != nil {
			return nil, errors.WrapStore("sqlite", "fetch category-range edges", err)
		}
		edges[rangeFold] = append(edges[rangeFold], categoryFold)
	}
	return edges, rows.Err()
}

func (s *Store) fetchCampaigns(ctx context.Context) (map[string]store.Entity, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+campaignColumns+` FROM campaigns`)
	if err != nil {
		return nil, errors.WrapStore("sqlite", "fetch campaigns", err)
	}
	defer rows.Close()

	entities := make(map[string]store.Entity)
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, errors.WrapStore("sqlite", "fetch campaigns", err)
		}
		fold := taxonomy.Fold(c.Name)
		payload, err := json.Marshal(campaignPayload{
			ID:         c.ID,
			Name:       c.Name,
			Status:     string(c.Status),
			Range:      c.Range,
			Provenance: c.Provenance,
		})
		if err != nil {
			return nil, err
		}
		key := entityKey(fold, c.Status, c.ID)
		entities[key] = store.NewEntity(key, payload)
	}
	return entities, rows.Err()
}

// UpsertEntity writes a store-neutral row into this store, replacing any
// existing row with the same sync identity. For ranges the category edges
// are replaced along with the row.
func (s *Store) UpsertEntity(ctx context.Context, typ store.EntityType, entity store.Entity) error {
	now := formatTime(time.Now())

	switch typ {
	case store.EntityBusinessUnit:
		var p businessUnitPayload
		if err := json.Unmarshal(entity.Payload, &p); err != nil {
			return errors.WrapParse("json", "sync payload", err)
		}
		return s.UpsertBusinessUnit(ctx, &taxonomy.BusinessUnit{ID: p.ID, Name: p.Name})

	case store.EntityCategory:
		var p categoryPayload
		if err := json.Unmarshal(entity.Payload, &p); err != nil {
			return errors.WrapParse("json", "sync payload", err)
		}
		return s.UpsertCategory(ctx, &taxonomy.Category{ID: p.ID, Name: p.Name, BusinessUnit: p.BusinessUnit})

	case store.EntityRange:
		var p rangePayload
		if err := json.Unmarshal(entity.Payload, &p); err != nil {
			return errors.WrapParse("json", "sync payload", err)
		}
		fold := taxonomy.Fold(p.Name)

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return errors.WrapStore("sqlite", "upsert range", err)
		}
		defer tx.Rollback()

		if err := deleteByKey(ctx, tx, "ranges", entity.Key); err != nil {
			return err
		}
		var sessionID, source string
		created := now
		if p.Provenance != nil {
			sessionID = p.Provenance.SessionID
			source = p.Provenance.Source
			if !p.Provenance.CreatedAt.IsZero() {
				created = formatTime(p.Provenance.CreatedAt)
			}
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO ranges (id, name, name_fold, status, session_id, source, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Name, fold, p.Status, nullString(sessionID), nullString(source), created, now)
		if err != nil {
			return errors.WrapStore("sqlite", "upsert range", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM category_ranges WHERE range_fold = ?`, fold); err != nil {
			return errors.WrapStore("sqlite", "upsert range", err)
		}
		for _, categoryFold := range p.Categories {
			_, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO category_ranges (category_fold, range_fold) VALUES (?, ?)`,
				categoryFold, fold)
			if err != nil {
				return errors.WrapStore("sqlite", "upsert range", err)
			}
		}
		if err := tx.Commit(); err != nil {
			return errors.WrapStore("sqlite", "upsert range", err)
		}
		return nil

	case store.EntityCampaign:
		var p campaignPayload
		if err := json.Unmarshal(entity.Payload, &p); err != nil {
			return errors.WrapParse("json", "sync payload", err)
		}
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return errors.WrapStore("sqlite", "upsert campaign", err)
		}
		defer tx.Rollback()

		if err := deleteByKey(ctx, tx, "campaigns", entity.Key); err != nil {
			return err
		}
		var sessionID, source string
		created := now
		if p.Provenance != nil {
			sessionID = p.Provenance.SessionID
			source = p.Provenance.Source
			if !p.Provenance.CreatedAt.IsZero() {
				created = formatTime(p.Provenance.CreatedAt)
			}
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO campaigns (id, name, name_fold, status, range_name, session_id, source, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Name, taxonomy.Fold(p.Name), p.Status, nullString(p.Range),
			nullString(sessionID), nullString(source), created, now)
		if err != nil {
			return errors.WrapStore("sqlite", "upsert campaign", err)
		}
		if err := tx.Commit(); err != nil {
			return errors.WrapStore("sqlite", "upsert campaign", err)
		}
		return nil
	}
	return errors.NewValidationError("entity_type", string(typ), "unknown entity type")
}

// splitKey decomposes a sync identity into fold and optional archived ID.
func splitKey(key string) (fold, id string, archived bool) {
	for i := 0; i < len(key); i++ {
		if key[i] == '#' {
			return key[:i], key[i+1:], true
		}
	}
	return key, "", false
}

func deleteByKey(ctx context.Context, tx *sql.Tx, table, key string) error {
	fold, id, archived := splitKey(key)
	var err error
	if archived {
		_, err = tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE name_fold = ? AND id = ?`, fold, id)
	} else {
		_, err = tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE name_fold = ? AND status != 'archived'`, fold)
	}
	if err != nil {
		return errors.WrapStore("sqlite", "delete from "+table, err)
	}
	return nil
}
