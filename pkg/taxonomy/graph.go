package taxonomy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/navigator1103/MediaIntel-sub006/pkg/errors"
	"github.com/navigator1103/MediaIntel-sub006/pkg/logging"
)

// Gate is a pre-commit check run against a candidate snapshot. The
// consistency checker provides one; a nil error admits the snapshot.
type Gate interface {
	Check(snapshot *Snapshot) error
}

// GateFunc adapts a function to the Gate interface.
type GateFunc func(snapshot *Snapshot) error

// Check implements Gate.
func (f GateFunc) Check(snapshot *Snapshot) error { return f(snapshot) }

// VersionEntry is one line of the append-only version log.
type VersionEntry struct {
	Version     int64     `json:"version"`
	CommittedAt time.Time `json:"committedAt"`
	Actor       string    `json:"actor,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	Rollback    bool      `json:"rollback,omitempty"`
}

// Graph owns the current master data snapshot and swaps it atomically on
// commit. Readers never block writers and never observe a half-updated
// graph: Snapshot returns the current immutable version, mutations are
// staged on a Copy and swapped in whole.
type Graph struct {
	mu      sync.RWMutex
	current *Snapshot

	gate Gate

	// persistDir, when set, retains every committed version on disk and
	// appends to versions.log, so any edit is auditable and reversible.
	persistDir string
}

// GraphOption configures a Graph.
type GraphOption func(*Graph)

// WithGate installs a pre-commit consistency gate.
func WithGate(gate Gate) GraphOption {
	return func(g *Graph) { g.gate = gate }
}

// WithPersistDir retains committed versions under dir and appends the
// version log there.
func WithPersistDir(dir string) GraphOption {
	return func(g *Graph) { g.persistDir = dir }
}

// NewGraph creates a graph holding the given initial snapshot. A nil initial
// snapshot starts the graph empty at version 0.
func NewGraph(initial *Snapshot, opts ...GraphOption) *Graph {
	if initial == nil {
		initial = NewSnapshot()
	}
	g := &Graph{current: initial}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Snapshot returns the current snapshot. The returned value is shared and
// must be treated as read-only; use Stage to obtain a mutable copy.
func (g *Graph) Snapshot() *Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.current
}

// Version returns the current snapshot version.
func (g *Graph) Version() int64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.current.version
}

// Stage returns a deep copy of the current snapshot for mutation.
func (g *Graph) Stage() *Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.current.Copy()
}

// Commit runs the candidate snapshot through the gate, assigns the next
// version, retains it in the version log, and swaps it in atomically.
func (g *Graph) Commit(candidate *Snapshot, actor, summary string) (int64, error) {
	if candidate == nil {
		return 0, errors.NewValidationError("snapshot", nil, "cannot commit nil snapshot")
	}

	if g.gate != nil {
		if err := g.gate.Check(candidate); err != nil {
			return 0, errors.WrapResource("commit", "snapshot", "", err)
		}
	}

	g.mu.Lock()
	candidate.version = g.current.version + 1
	candidate.createdAt = time.Now().UTC()
	g.current = candidate
	version := candidate.version
	g.mu.Unlock()

	if g.persistDir != "" {
		if err := g.persist(candidate, VersionEntry{
			Version:     version,
			CommittedAt: time.Now().UTC(),
			Actor:       actor,
			Summary:     summary,
		}); err != nil {
			// The swap already happened; persistence failure is surfaced
			// but does not roll back the in-memory graph.
			logging.Err(err).Int64("version", version).Msg("failed to persist snapshot version")
			return version, err
		}
	}

	logging.Info().Int64("version", version).Str("actor", actor).Msg("master data snapshot committed")
	return version, nil
}

// Rollback reloads a previously retained version and swaps it in as a new
// version. It requires a persist dir.
func (g *Graph) Rollback(version int64, actor string) (int64, error) {
	if g.persistDir == "" {
		return 0, &errors.ConfigError{Component: "graph", Message: "rollback requires a persist dir"}
	}

	snapshot, err := LoadFile(g.versionPath(version))
	if err != nil {
		return 0, errors.WrapResource("rollback", "snapshot", fmt.Sprintf("v%d", version), err)
	}

	g.mu.Lock()
	snapshot.version = g.current.version + 1
	snapshot.createdAt = time.Now().UTC()
	g.current = snapshot
	newVersion := snapshot.version
	g.mu.Unlock()

	err = g.persist(snapshot, VersionEntry{
		Version:     newVersion,
		CommittedAt: time.Now().UTC(),
		Actor:       actor,
		Summary:     fmt.Sprintf("rollback to v%d", version),
		Rollback:    true,
	})
	return newVersion, err
}

// Versions reads the append-only version log.
func (g *Graph) Versions() ([]VersionEntry, error) {
	if g.persistDir == "" {
		return nil, nil
	}

	data, err := os.ReadFile(filepath.Join(g.persistDir, "versions.log"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.WrapIO("read", "versions.log", err)
	}

	var entries []VersionEntry
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var entry VersionEntry
		if err := dec.Decode(&entry); err != nil {
			return nil, errors.WrapParse("json", "versions.log", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (g *Graph) versionPath(version int64) string {
	return filepath.Join(g.persistDir, "versions", fmt.Sprintf("v%06d.yaml", version))
}

// persist writes the snapshot to the versions dir and appends a log line.
func (g *Graph) persist(snapshot *Snapshot, entry VersionEntry) error {
	if err := os.MkdirAll(filepath.Join(g.persistDir, "versions"), 0o755); err != nil {
		return errors.WrapIO("create", g.persistDir, err)
	}

	path := g.versionPath(entry.Version)
	if err := SaveFile(snapshot, path); err != nil {
		return err
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return errors.WrapParse("json", "versions.log", err)
	}

	logPath := filepath.Join(g.persistDir, "versions.log")
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.WrapIO("open", logPath, err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return errors.WrapIO("write", logPath, err)
	}
	return nil
}
