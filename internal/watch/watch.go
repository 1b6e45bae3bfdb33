// Package watch implements the fsnotify-based live watcher (§4.14) that
// keeps the Working overlay layer current between explicit resyncs:
// directory changes grow/shrink the watch set, file changes debounce into
// batches, and each batch is replayed through internal/syncer's
// incremental update path (IncrementalUpdate on the Working layer).
package watch

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/lci/internal/config"
	"github.com/standardbeagle/lci/internal/overlay"
	"github.com/standardbeagle/lci/internal/server"
	"github.com/standardbeagle/lci/internal/syncer"
)

// defaultDebounce is used when the config doesn't name a debounce window.
const defaultDebounce = 300 * time.Millisecond

// EventKind classifies one debounced file change.
type EventKind int

const (
	EventCreate EventKind = iota
	EventWrite
	EventRemove
	EventRename
)

// Stats summarizes the watcher's activity since it started.
type Stats struct {
	EventsProcessed int64
	ErrorCount      int64
	LastEventUnix   int64
}

// Watcher wraps an fsnotify.Watcher, debouncing its events and replaying
// each batch through a syncer.Synchronizer against the Working layer.
type Watcher struct {
	cfg   *config.Config
	sync  *syncer.Synchronizer
	state *server.State
	fs    *fsnotify.Watcher

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	debounce time.Duration
	mu       sync.Mutex
	pending  map[string]EventKind
	timer    *time.Timer

	statsMu sync.Mutex
	stats   Stats
}

// New returns a watcher that will replay debounced events through sc
// against state's Working layer, using cfg's include/exclude patterns
// and file-size limit to decide what's worth watching.
func New(cfg *config.Config, sc *syncer.Synchronizer, state *server.State) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	debounce := time.Duration(cfg.Index.WatchDebounceMs) * time.Millisecond
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	return &Watcher{
		cfg:      cfg,
		sync:     sc,
		state:    state,
		fs:       fsw,
		ctx:      ctx,
		cancel:   cancel,
		debounce: debounce,
		pending:  make(map[string]EventKind),
	}, nil
}

// Start adds watches under root (recursively, skipping ignored and
// symlink-cyclic directories) and begins processing fsnotify events.
func (w *Watcher) Start(root string) error {
	if err := w.addWatches(root); err != nil {
		return err
	}
	w.wg.Add(1)
	go w.processEvents()
	return nil
}

// Stop cancels the watcher, closes the underlying fsnotify watcher and
// waits for the event-processing goroutine to exit. Any events still
// pending in the debounce window are dropped rather than flushed — the
// caller is tearing the watcher down, not asking for one last sync.
func (w *Watcher) Stop() error {
	w.cancel()
	err := w.fs.Close()
	w.wg.Wait()
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pending = make(map[string]EventKind)
	w.mu.Unlock()
	return err
}

// Stats reports the watcher's cumulative activity.
func (w *Watcher) Stats() Stats {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	return w.stats
}

func (w *Watcher) addWatches(root string) error {
	visited := make(map[string]bool)
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}

		real, err := filepath.EvalSymlinks(path)
		if err != nil {
			return nil
		}
		if visited[real] {
			return filepath.SkipDir
		}
		visited[real] = true

		if w.shouldIgnoreDir(path) {
			return filepath.SkipDir
		}

		if err := w.fs.Add(path); err != nil {
			log.Printf("watch: failed to add watch for %s: %v", path, err)
		}
		return nil
	})
}

func (w *Watcher) shouldIgnoreDir(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range w.cfg.Exclude {
		dirPattern := strings.TrimSuffix(pattern, "/**")
		if matched, _ := filepath.Match(dirPattern, base); matched {
			return true
		}
		if matched, _ := doublestar.Match(pattern, path); matched {
			return true
		}
	}
	return false
}

func (w *Watcher) shouldProcess(relPath string) bool {
	if len(w.cfg.Include) == 0 {
		return true
	}
	for _, pattern := range w.cfg.Include {
		if matched, _ := doublestar.Match(pattern, relPath); matched {
			return true
		}
	}
	return false
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return

		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			log.Printf("watch: fsnotify error: %v", err)
			w.statsMu.Lock()
			w.stats.ErrorCount++
			w.statsMu.Unlock()
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	path := ev.Name

	info, err := os.Stat(path)
	if err != nil {
		if ev.Op&fsnotify.Remove != 0 {
			w.addPending(w.relPath(path), EventRemove)
		}
		return
	}

	if info.IsDir() {
		if ev.Op&fsnotify.Create != 0 && !w.shouldIgnoreDir(path) {
			if err := w.fs.Add(path); err != nil {
				log.Printf("watch: failed to add watch for new directory %s: %v", path, err)
			}
		}
		return
	}

	if w.cfg.Index.MaxFileSize > 0 && info.Size() > w.cfg.Index.MaxFileSize {
		return
	}

	relPath := w.relPath(path)
	if !w.shouldProcess(relPath) {
		return
	}

	var kind EventKind
	switch {
	case ev.Op&fsnotify.Create != 0:
		kind = EventCreate
	case ev.Op&fsnotify.Write != 0:
		kind = EventWrite
	case ev.Op&fsnotify.Rename != 0:
		kind = EventRename
	default:
		return
	}

	w.addPending(relPath, kind)
}

func (w *Watcher) relPath(absPath string) string {
	rel, err := filepath.Rel(w.sync.RepoRoot, absPath)
	if err != nil {
		rel = absPath
	}
	return filepath.ToSlash(rel)
}

// addPending records the latest event kind seen for a path and (re)arms
// the debounce timer, mirroring the original watcher's single-timer
// coalescing scheme: any event within the debounce window resets the
// clock rather than queuing a second flush.
func (w *Watcher) addPending(relPath string, kind EventKind) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[relPath] = kind
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

// flush replays one debounced batch through the synchronizer's
// incremental update path against the Working layer. Deletions are not
// special-cased here: updateSingleFile already treats a missing file as
// a deletion (os.ReadFile failing with os.IsNotExist), so every pending
// path — created, written, renamed or removed — goes through the same
// IncrementalUpdate call.
func (w *Watcher) flush() {
	w.mu.Lock()
	events := w.pending
	w.pending = make(map[string]EventKind)
	w.mu.Unlock()

	if len(events) == 0 {
		return
	}

	paths := make([]string, 0, len(events))
	for path := range events {
		paths = append(paths, path)
	}

	stats, err := w.sync.IncrementalUpdate(w.ctx, w.state, overlay.Working, paths)
	if err != nil {
		log.Printf("watch: incremental update failed: %v", err)
		w.statsMu.Lock()
		w.stats.ErrorCount++
		w.statsMu.Unlock()
		return
	}

	w.statsMu.Lock()
	w.stats.EventsProcessed += int64(stats.FilesProcessed)
	w.stats.LastEventUnix = time.Now().Unix()
	w.statsMu.Unlock()

	log.Printf("watch: processed %d files (+%d ~%d -%d)", stats.FilesProcessed, stats.SymbolsAdded, stats.SymbolsModified, stats.SymbolsRemoved)
}
