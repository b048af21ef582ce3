// Package taxonomy provides the master data graph for the MediaIntel engine.
// It models the marketing taxonomy (business unit → category ↔ range →
// campaign) as an immutable, versioned Snapshot and offers a Graph holder
// that swaps snapshots atomically so concurrent readers never observe a
// half-updated graph.
//
// All name lookups are case-insensitive: entity collections are keyed by a
// Unicode case-folded form of the name, so "Body Milk" and "body milk"
// resolve to the same node.
//
// Example usage:
//
//	snap, err := taxonomy.LoadDir("./masterdata")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	graph := taxonomy.NewGraph(snap)
//	ranges := graph.Snapshot().RangesOf("Acne")
package taxonomy

import (
	"time"

	"golang.org/x/text/cases"
)

// Status is the lifecycle status of a taxonomy node.
type Status string

const (
	// StatusActive marks a node created by seed or master import.
	StatusActive Status = "active"
	// StatusPendingReview marks a node auto-created during an import,
	// awaiting human promotion.
	StatusPendingReview Status = "pending_review"
	// StatusArchived marks a node retained for audit only. Archived nodes
	// are excluded from uniqueness and relationship checks.
	StatusArchived Status = "archived"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusPendingReview, StatusArchived:
		return true
	}
	return false
}

// Provenance records where an auto-created node came from. Every node in
// pending_review status must carry one.
type Provenance struct {
	SessionID string    `yaml:"session_id" json:"sessionId"`
	Source    string    `yaml:"source,omitempty" json:"source,omitempty"`
	CreatedAt time.Time `yaml:"created_at" json:"createdAt"`
}

// Fold returns the case-folded form of a name, used as the canonical map key
// for all case-insensitive lookups. A new Caser is created per call because
// cases.Caser is not safe for concurrent use.
func Fold(name string) string {
	return cases.Fold().String(name)
}

// EqualFold reports whether two names are equal under case folding.
func EqualFold(a, b string) bool {
	return Fold(a) == Fold(b)
}
