package ontology

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// watchDebounce coalesces editor write bursts into one refresh.
const watchDebounce = 500 * time.Millisecond

// Watcher refreshes the registry when the ontology YAML changes on disk.
// Used in file and hybrid modes.
type Watcher struct {
	registry *Registry
	path     string
	watcher  *fsnotify.Watcher
	logger   *zap.Logger
	done     chan struct{}
}

// NewWatcher starts watching the directory containing path. Watching the
// directory instead of the file survives atomic-rename saves.
func NewWatcher(registry *Registry, path string, logger *zap.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := fsWatcher.Add(filepath.Dir(path)); err != nil {
		fsWatcher.Close()
		return nil, err
	}

	w := &Watcher{
		registry: registry,
		path:     filepath.Clean(path),
		watcher:  fsWatcher,
		logger:   logger.Named("ontology-watcher"),
		done:     make(chan struct{}),
	}
	go w.loop()

	w.logger.Info("watching ontology file", zap.String("path", path))
	return w, nil
}

func (w *Watcher) loop() {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
				timerC = timer.C
			} else {
				timer.Reset(watchDebounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			w.logger.Debug("ontology file changed, refreshing")
			w.registry.Refresh(context.Background())

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.Error(err))

		case <-w.done:
			return
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
