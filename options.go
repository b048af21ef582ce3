package mediaintel

import (
	"github.com/rs/zerolog"

	"github.com/navigator1103/MediaIntel-sub006/pkg/taxonomy"
)

// Option is a function that configures an Engine instance.
type Option func(*config) error

// config holds the resolved engine configuration.
type config struct {
	storePath string
	masterDir string
	gate      taxonomy.Gate
	logger    *zerolog.Logger
	snapshot  *taxonomy.Snapshot
}

// WithStorePath overrides the operational store path.
func WithStorePath(path string) Option {
	return func(c *config) error {
		c.storePath = path
		return nil
	}
}

// WithMasterDir overrides the master snapshot directory.
func WithMasterDir(dir string) Option {
	return func(c *config) error {
		c.masterDir = dir
		return nil
	}
}

// WithGate overrides the commit gate. Passing nil disables gating, which is
// useful for repair tooling that must load an already inconsistent snapshot.
func WithGate(gate taxonomy.Gate) Option {
	return func(c *config) error {
		c.gate = gate
		return nil
	}
}

// WithLogger overrides the logger used by the store and session manager.
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *config) error {
		c.logger = logger
		return nil
	}
}

// WithSnapshot configures the initial snapshot instead of loading the
// master directory.
func WithSnapshot(snapshot *taxonomy.Snapshot) Option {
	return func(c *config) error {
		c.snapshot = snapshot
		return nil
	}
}
