// Package watch monitors the content directory and triggers rebuilds
// when page files settle after a change.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"folio/internal/logging"

	"github.com/fsnotify/fsnotify"
)

// watchedExtensions are the file types that trigger a rebuild.
var watchedExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".html":     true,
}

// Rebuilder is called once per settled batch of changes.
type Rebuilder func(ctx context.Context, changed []string)

// Watcher watches a content directory for page edits. Rapid saves are
// debounced so one editor write burst causes one rebuild.
type Watcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	contentDir  string
	rebuild     Rebuilder
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool

	stats Stats
}

// Stats tracks watcher activity for debugging.
type Stats struct {
	FilesCreated     int
	FilesModified    int
	FilesDeleted     int
	RebuildsTriggers int
	Errors           int
	LastEventPath    string
	LastEventTime    time.Time
}

// NewWatcher creates a watcher over contentDir. The rebuild callback
// receives the settled batch of changed paths.
func NewWatcher(contentDir string, rebuild Rebuilder) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher:     fsw,
		contentDir:  contentDir,
		rebuild:     rebuild,
		debounceMap: make(map[string]time.Time),
		debounceDur: 500 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins watching. Non-blocking; the event loop runs in a goroutine.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.addTree(w.contentDir); err != nil {
		return err
	}
	logging.Watch("watching %s", w.contentDir)

	go w.run(ctx)
	return nil
}

// addTree watches dir and every subdirectory under it, skipping the
// underscore and hidden directories the content scanner skips.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != dir && (strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// Stop stops the watcher and waits for the event loop to drain.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		logging.Get(logging.CategoryWatch).Error("error closing watcher: %v", err)
	}
	logging.Watch("stopped")
}

// GetStats returns a copy of the watcher stats.
func (w *Watcher) GetStats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// run is the main event loop for the watcher.
func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	debounceTicker := time.NewTicker(100 * time.Millisecond)
	defer debounceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.WatchDebug("context cancelled")
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Get(logging.CategoryWatch).Error("watch error: %v", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-debounceTicker.C:
			w.processDebouncedEvents(ctx)
		}
	}
}

// handleEvent records a single filesystem event for debounced processing.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	name := filepath.Base(event.Name)

	// Directories created mid-session join the watch so pages added
	// under them keep triggering rebuilds.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !strings.HasPrefix(name, "_") && !strings.HasPrefix(name, ".") {
				if err := w.watcher.Add(event.Name); err != nil {
					logging.Get(logging.CategoryWatch).Error("error watching %s: %v", event.Name, err)
				}
			}
			return
		}
	}

	// Editor temp/backup files and non-page files never trigger builds.
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") ||
		!watchedExtensions[strings.ToLower(filepath.Ext(name))] {
		return
	}

	var tracked bool
	w.mu.Lock()
	w.stats.LastEventPath = event.Name
	w.stats.LastEventTime = time.Now()
	switch {
	case event.Op&fsnotify.Create != 0:
		w.stats.FilesCreated++
		tracked = true
	case event.Op&fsnotify.Write != 0:
		w.stats.FilesModified++
		tracked = true
	case event.Op&fsnotify.Remove != 0, event.Op&fsnotify.Rename != 0:
		w.stats.FilesDeleted++
		tracked = true
	}
	if tracked {
		w.debounceMap[event.Name] = time.Now()
	}
	w.mu.Unlock()

	if tracked {
		logging.WatchDebug("event %s for %s", event.Op, event.Name)
	}
}

// processDebouncedEvents fires the rebuild callback for events that have
// settled past the debounce window.
func (w *Watcher) processDebouncedEvents(ctx context.Context) {
	w.mu.Lock()
	now := time.Now()
	var settled []string
	for path, eventTime := range w.debounceMap {
		if now.Sub(eventTime) >= w.debounceDur {
			settled = append(settled, path)
			delete(w.debounceMap, path)
		}
	}
	if len(settled) > 0 {
		w.stats.RebuildsTriggers++
	}
	w.mu.Unlock()

	if len(settled) == 0 {
		return
	}

	logging.Watch("rebuilding after %d changed file(s)", len(settled))
	w.rebuild(ctx, settled)
}
