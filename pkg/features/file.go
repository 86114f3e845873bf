package features

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/coachly/guardrail/pkg/authz"
	"github.com/coachly/guardrail/pkg/observability"
)

// FileRegistry loads feature definitions from a JSON file and hot-reloads
// them when the file changes. The file holds an array of Definition objects.
type FileRegistry struct {
	path    string
	logger  *observability.Logger
	watcher *fsnotify.Watcher

	mu   sync.RWMutex
	defs map[string]authz.Tier

	done chan struct{}
}

// NewFileRegistry loads the file and starts watching it for changes.
func NewFileRegistry(path string, logger *observability.Logger) (*FileRegistry, error) {
	r := &FileRegistry{
		path:   path,
		logger: logger,
		defs:   make(map[string]authz.Tier),
		done:   make(chan struct{}),
	}

	if err := r.reload(); err != nil {
		return nil, fmt.Errorf("failed to load feature definitions: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}
	r.watcher = watcher

	go r.watch()
	return r, nil
}

// RequiredTier returns the minimum tier for the key.
func (r *FileRegistry) RequiredTier(_ context.Context, key string) (authz.Tier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tier, ok := r.defs[key]
	if !ok {
		return "", ErrUnknownFeature
	}
	return tier, nil
}

// Close stops the file watcher.
func (r *FileRegistry) Close() error {
	close(r.done)
	return r.watcher.Close()
}

func (r *FileRegistry) watch() {
	for {
		select {
		case <-r.done:
			return
		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := r.reload(); err != nil {
				// Keep serving the last good definitions.
				r.logger.WithError(err).Warn("feature definition reload failed")
				continue
			}
			r.logger.WithField("path", r.path).Info("feature definitions reloaded")
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.logger.WithError(err).Warn("feature file watcher error")
		}
	}
}

func (r *FileRegistry) reload() error {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return err
	}

	var defs []Definition
	if err := json.Unmarshal(data, &defs); err != nil {
		return fmt.Errorf("failed to parse %s: %w", r.path, err)
	}

	parsed := make(map[string]authz.Tier, len(defs))
	for _, def := range defs {
		if !def.RequiredTier.Valid() {
			return fmt.Errorf("feature %q has unknown tier %q", def.Key, def.RequiredTier)
		}
		parsed[def.Key] = def.RequiredTier
	}

	r.mu.Lock()
	r.defs = parsed
	r.mu.Unlock()
	return nil
}
