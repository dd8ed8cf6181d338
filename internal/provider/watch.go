package provider

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"autosuggest/internal/debounce"
	"autosuggest/internal/domain"
	"autosuggest/internal/eventbus"
)

// defaultReloadDelay coalesces the burst of events editors emit on save
const defaultReloadDelay = 150 * time.Millisecond

// Watcher reloads a Memory provider whenever its source file changes
type Watcher struct {
	path     string
	target   *Memory
	bus      eventbus.EventBus
	watcher  *fsnotify.Watcher
	debounce *debounce.Debouncer
}

// NewWatcher watches path and refreshes target on change. bus may be nil.
func NewWatcher(path string, target *Memory, bus eventbus.EventBus) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	// Watch the directory: editors often replace the file rather than write it
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}

	return &Watcher{
		path:     filepath.Clean(path),
		target:   target,
		bus:      bus,
		watcher:  fw,
		debounce: debounce.New(defaultReloadDelay),
	}, nil
}

// Run processes file events until ctx is cancelled
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	defer w.debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.debounce.Do(w.reload)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("Source watcher error: %v", err)
			w.publish(domain.ErrorEvent{Message: "source watcher failed", Err: err})
		}
	}
}

func (w *Watcher) reload() {
	items, err := LoadFile(w.path)
	if err != nil {
		// Keep serving the previous list; the file may be mid-rewrite
		log.Printf("Failed to reload %s: %v", w.path, err)
		w.publish(domain.ErrorEvent{Message: "source reload failed", Err: err})
		return
	}

	w.target.Replace(items)
	log.Printf("Reloaded %d suggestions from %s", len(items), w.path)
	w.publish(domain.SourceReloadedEvent{Path: w.path, Count: len(items)})
}

func (w *Watcher) publish(event domain.DomainEvent) {
	if w.bus != nil {
		w.bus.Publish(event)
	}
}
