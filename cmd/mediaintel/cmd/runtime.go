package cmd

import (
	"github.com/rs/zerolog"

	mediaintel "github.com/navigator1103/MediaIntel-sub006"
	"github.com/navigator1103/MediaIntel-sub006/internal/config"
	"github.com/navigator1103/MediaIntel-sub006/internal/store/sqlite"
	"github.com/navigator1103/MediaIntel-sub006/pkg/logging"
	"github.com/navigator1103/MediaIntel-sub006/pkg/session"
	"github.com/navigator1103/MediaIntel-sub006/pkg/taxonomy"
)

// runtime bundles the pieces most commands need: the resolved config, the
// operational store, the master graph, and the session manager.
type runtime struct {
	cfg     config.Config
	engine  mediaintel.Engine
	store   *sqlite.Store
	graph   *taxonomy.Graph
	manager *session.Manager
	logger  zerolog.Logger
}

func newRuntime() (*runtime, error) {
	cfg := config.Load()
	logger := logging.Default()

	eng, err := mediaintel.New(mediaintel.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	return &runtime{
		cfg:     cfg,
		engine:  eng,
		store:   eng.Store(),
		graph:   eng.Graph(),
		manager: eng.Sessions(),
		logger:  *logger,
	}, nil
}

func (r *runtime) close() {
	if err := r.engine.Close(); err != nil {
		r.logger.Err(err).Msg("closing store")
	}
}

// saveMaster writes the current snapshot back to the master file, so the
// next run loads what this one committed.
func (r *runtime) saveMaster() error {
	return r.engine.SaveMaster()
}
