package ontology

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/config"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/graph"
)

// Ontology loader modes.
const (
	ModeFile   = "file"
	ModeGraph  = "graph"
	ModeHybrid = "hybrid"
)

// loaderBox wraps the interface value for atomic.Pointer.
type loaderBox struct {
	loader Loader
}

// Registry holds the active loader and serialises refreshes. Consumers call
// GetLoader per operation and never hold onto the result across refreshes.
type Registry struct {
	mode     string
	filePath string
	querier  graph.Querier
	logger   *zap.Logger

	current   atomic.Pointer[loaderBox]
	refreshMu sync.Mutex

	lastRefresh atomic.Pointer[time.Time]
}

// NewRegistry builds the loader for the configured mode and wraps it.
func NewRegistry(cfg config.OntologyConfig, querier graph.Querier, logger *zap.Logger) (*Registry, error) {
	r := &Registry{
		mode:     cfg.Mode,
		filePath: cfg.FilePath,
		querier:  querier,
		logger:   logger.Named("ontology-registry"),
	}

	loader, err := r.buildLoader()
	if err != nil {
		return nil, err
	}
	r.current.Store(&loaderBox{loader: loader})
	r.markRefreshed()
	return r, nil
}

func (r *Registry) buildLoader() (Loader, error) {
	switch r.mode {
	case ModeFile:
		return NewFileLoader(r.filePath, r.logger)
	case ModeGraph:
		return NewGraphLoader(r.querier, r.logger), nil
	case ModeHybrid:
		fileLoader, err := NewFileLoader(r.filePath, r.logger)
		if err != nil {
			return nil, err
		}
		return NewHybridLoader(NewGraphLoader(r.querier, r.logger), fileLoader), nil
	default:
		return nil, fmt.Errorf("unknown ontology mode %q", r.mode)
	}
}

// GetLoader returns the active loader without blocking.
func (r *Registry) GetLoader() Loader {
	return r.current.Load().loader
}

// Mode returns the configured loader mode.
func (r *Registry) Mode() string {
	return r.mode
}

// LastRefresh returns when the registry last (re)loaded its vocabulary.
func (r *Registry) LastRefresh() time.Time {
	if t := r.lastRefresh.Load(); t != nil {
		return *t
	}
	return time.Time{}
}

// Refresh reloads the vocabulary: file mode re-parses by replacing the
// loader, graph and hybrid modes clear the lookup cache. Returns false when
// the reload failed; the previous loader stays active.
func (r *Registry) Refresh(ctx context.Context) bool {
	r.refreshMu.Lock()
	defer r.refreshMu.Unlock()

	switch r.mode {
	case ModeFile, ModeHybrid:
		loader, err := r.buildLoader()
		if err != nil {
			r.logger.Error("ontology refresh failed, keeping previous loader", zap.Error(err))
			return false
		}
		r.current.Store(&loaderBox{loader: loader})
	default:
		r.GetLoader().ClearCache()
	}

	r.markRefreshed()
	r.logger.Info("ontology refreshed", zap.String("mode", r.mode))
	return true
}

func (r *Registry) markRefreshed() {
	now := time.Now()
	r.lastRefresh.Store(&now)
}
