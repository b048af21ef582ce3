package mediaintel

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	appcfg "github.com/navigator1103/MediaIntel-sub006/internal/config"
	"github.com/navigator1103/MediaIntel-sub006/internal/store/sqlite"
	"github.com/navigator1103/MediaIntel-sub006/pkg/consistency"
	"github.com/navigator1103/MediaIntel-sub006/pkg/logging"
	"github.com/navigator1103/MediaIntel-sub006/pkg/session"
	"github.com/navigator1103/MediaIntel-sub006/pkg/taxonomy"
)

// Engine ties the operational store, the master-data graph, and the import
// session manager together behind a single handle.
type Engine interface {
	// Graph returns the live master-data graph.
	Graph() *taxonomy.Graph

	// Sessions returns the import session manager.
	Sessions() *session.Manager

	// Store returns the operational store.
	Store() *sqlite.Store

	// SaveMaster writes the current snapshot back to the master directory.
	SaveMaster() error

	// Close releases the operational store.
	Close() error
}

// engine is the internal implementation of the Engine interface.
type engine struct {
	mu      sync.Mutex
	config  *config
	store   *sqlite.Store
	graph   *taxonomy.Graph
	manager *session.Manager
	closed  bool
}

// New creates a new Engine with the given options. Without options it reads
// paths from the environment, opens the operational store, and loads the
// master snapshot from disk. A missing master directory starts the graph
// empty so seeding and the first import can bootstrap it.
func New(opts ...Option) (Engine, error) {
	app := appcfg.Load()

	e := &engine{
		config: &config{
			storePath: app.StorePath,
			masterDir: app.MasterDir,
			gate:      consistency.Gate(),
			logger:    logging.Default(),
		},
	}

	if err := e.options(opts...); err != nil {
		return nil, fmt.Errorf("applying options: %w", err)
	}

	st, err := sqlite.Open(e.config.storePath, *e.config.logger)
	if err != nil {
		return nil, err
	}
	e.store = st

	snapshot := e.config.snapshot
	if snapshot == nil {
		snapshot, err = taxonomy.LoadDir(e.config.masterDir)
		if err != nil {
			if !stderrors.Is(err, fs.ErrNotExist) {
				st.Close()
				return nil, err
			}
			snapshot = taxonomy.NewSnapshot()
		}
	}

	graphOpts := []taxonomy.GraphOption{taxonomy.WithPersistDir(e.config.masterDir)}
	if e.config.gate != nil {
		graphOpts = append(graphOpts, taxonomy.WithGate(e.config.gate))
	}
	e.graph = taxonomy.NewGraph(snapshot, graphOpts...)
	e.manager = session.NewManager(st, e.graph, st, *e.config.logger)

	return e, nil
}

// options applies the given options to the engine configuration.
func (e *engine) options(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(e.config); err != nil {
			return err
		}
	}
	return nil
}

// Graph returns the live master-data graph.
func (e *engine) Graph() *taxonomy.Graph { return e.graph }

// Sessions returns the import session manager.
func (e *engine) Sessions() *session.Manager { return e.manager }

// Store returns the operational store.
func (e *engine) Store() *sqlite.Store { return e.store }

// SaveMaster writes the current snapshot to <masterDir>/master.yaml so the
// next run loads what this one committed.
func (e *engine) SaveMaster() error {
	if err := os.MkdirAll(e.config.masterDir, 0o755); err != nil {
		return err
	}
	return taxonomy.SaveFile(e.graph.Snapshot(), filepath.Join(e.config.masterDir, "master.yaml"))
}

// Close releases the operational store. Safe to call more than once.
func (e *engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	return e.store.Close()
}
