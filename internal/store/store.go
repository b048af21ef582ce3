// Package store defines the shared types exchanged between the operational
// store implementations and their consumers (import sessions, the cross-store
// synchronizer, and the CLI).
package store

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// EntityType identifies one of the four taxonomy tables a store holds.
type EntityType string

const (
	EntityBusinessUnit EntityType = "business_unit"
	EntityCategory     EntityType = "category"
	EntityRange        EntityType = "range"
	EntityCampaign     EntityType = "campaign"
)

// EntityTypes lists every type in sync order. Parents sync before children
// so a freshly copied row never references a key the target lacks.
var EntityTypes = []EntityType{EntityBusinessUnit, EntityCategory, EntityRange, EntityCampaign}

// Valid reports whether t is one of the known entity types.
func (t EntityType) Valid() bool {
	switch t {
	case EntityBusinessUnit, EntityCategory, EntityRange, EntityCampaign:
		return true
	}
	return false
}

func (t EntityType) String() string {
	return string(t)
}

// Entity is the store-neutral form of a taxonomy row used by the
// synchronizer. Key is the case-folded name (archived rows append their ID
// so they never collide with a live row of the same name). Fingerprint is a
// content hash of Payload, which carries the canonical JSON encoding.
type Entity struct {
	Key         string
	Fingerprint string
	Payload     []byte
}

// NewEntity builds an Entity, computing the fingerprint from the payload.
func NewEntity(key string, payload []byte) Entity {
	return Entity{Key: key, Fingerprint: Fingerprint(payload), Payload: payload}
}

// Fingerprint returns the hex SHA-256 of a canonical payload. Two rows with
// equal fingerprints are treated as identical by the synchronizer.
func Fingerprint(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// SpendRecord is one committed import row. Rows are kept verbatim so a
// committed session can be audited against the uploaded file.
type SpendRecord struct {
	SessionID string    `json:"session_id"`
	RowIndex  int       `json:"row_index"`
	Category  string    `json:"category"`
	Range     string    `json:"range,omitempty"`
	Campaign  string    `json:"campaign,omitempty"`
	Company   string    `json:"company,omitempty"`
	Amount    string    `json:"amount,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionRow is the stored form of an import session. The document carries
// the session's full JSON state; status and the timestamps are duplicated
// into columns so listings never parse documents.
type SessionRow struct {
	ID        string
	Status    string
	Document  []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Lock describes a held advisory lock.
type Lock struct {
	Name       string
	Owner      string
	AcquiredAt time.Time
	ExpiresAt  time.Time
}
