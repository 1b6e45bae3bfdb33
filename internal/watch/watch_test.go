package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/standardbeagle/lci/internal/config"
	"github.com/standardbeagle/lci/internal/overlay"
	"github.com/standardbeagle/lci/internal/server"
	"github.com/standardbeagle/lci/internal/syncer"
)

func testConfig(debounceMs int) *config.Config {
	return &config.Config{
		Index: config.Index{
			MaxFileSize:     1024 * 1024,
			WatchMode:       true,
			WatchDebounceMs: debounceMs,
		},
		Include: []string{"**/*.go"},
		Exclude: []string{"**/.git/**", "**/vendor/**"},
	}
}

func newTestWatcher(t *testing.T, root string, debounceMs int) (*Watcher, *server.State) {
	t.Helper()
	sc := syncer.New(root)
	state := server.New()
	w, err := New(testConfig(debounceMs), sc, state)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return w, state
}

func TestNew_DefaultsDebounceWhenUnset(t *testing.T) {
	w, _ := newTestWatcher(t, t.TempDir(), 0)
	if w.debounce != defaultDebounce {
		t.Errorf("expected default debounce %v, got %v", defaultDebounce, w.debounce)
	}
}

func TestNew_UsesConfiguredDebounce(t *testing.T) {
	w, _ := newTestWatcher(t, t.TempDir(), 50)
	if w.debounce != 50*time.Millisecond {
		t.Errorf("expected 50ms debounce, got %v", w.debounce)
	}
}

func TestShouldIgnoreDir_MatchesExcludePattern(t *testing.T) {
	w, _ := newTestWatcher(t, t.TempDir(), 10)
	if !w.shouldIgnoreDir("/repo/.git") {
		t.Error("expected .git to be ignored")
	}
	if !w.shouldIgnoreDir("/repo/vendor") {
		t.Error("expected vendor to be ignored")
	}
	if w.shouldIgnoreDir("/repo/internal") {
		t.Error("expected internal to not be ignored")
	}
}

func TestShouldProcess_RespectsInclude(t *testing.T) {
	w, _ := newTestWatcher(t, t.TempDir(), 10)
	if !w.shouldProcess("internal/watch/watch.go") {
		t.Error("expected .go file to be processed")
	}
	if w.shouldProcess("README.md") {
		t.Error("expected non-.go file to be excluded by include patterns")
	}
}

func TestShouldProcess_NoIncludeMeansEverything(t *testing.T) {
	w, _ := newTestWatcher(t, t.TempDir(), 10)
	w.cfg.Include = nil
	if !w.shouldProcess("README.md") {
		t.Error("expected every path to pass when Include is empty")
	}
}

func TestAddWatches_WalksSubdirectoriesAndSkipsExcluded(t *testing.T) {
	root := t.TempDir()
	mustMkdir(t, filepath.Join(root, "pkg"))
	mustMkdir(t, filepath.Join(root, "vendor"))
	mustMkdir(t, filepath.Join(root, ".git"))

	w, _ := newTestWatcher(t, root, 10)
	defer w.fs.Close()

	if err := w.addWatches(root); err != nil {
		t.Fatalf("addWatches: %v", err)
	}

	list := w.fs.WatchList()
	found := map[string]bool{}
	for _, p := range list {
		found[p] = true
	}
	if !found[root] {
		t.Error("expected root to be watched")
	}
	if !found[filepath.Join(root, "pkg")] {
		t.Error("expected pkg subdirectory to be watched")
	}
	if found[filepath.Join(root, "vendor")] {
		t.Error("expected vendor to not be watched")
	}
	if found[filepath.Join(root, ".git")] {
		t.Error("expected .git to not be watched")
	}
}

func TestFlush_EmptyPendingIsNoOp(t *testing.T) {
	w, _ := newTestWatcher(t, t.TempDir(), 10)
	defer w.fs.Close()
	w.flush()
	stats := w.Stats()
	if stats.EventsProcessed != 0 {
		t.Errorf("expected no events processed, got %d", stats.EventsProcessed)
	}
}

func TestFlush_ProcessesPendingFileThroughIncrementalUpdate(t *testing.T) {
	root := t.TempDir()
	srcPath := filepath.Join(root, "main.go")
	src := "package main\n\nfunc Hello() {}\n"
	if err := os.WriteFile(srcPath, []byte(src), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	w, state := newTestWatcher(t, root, 10)
	defer w.fs.Close()

	w.mu.Lock()
	w.pending["main.go"] = EventWrite
	w.mu.Unlock()
	w.flush()

	stats := w.Stats()
	if stats.EventsProcessed != 1 {
		t.Fatalf("expected 1 file processed, got %d", stats.EventsProcessed)
	}

	var symbolCount int
	state.WithIndexRead(func(idx *overlay.LayeredIndex) {
		symbolCount = len(idx.Layer(overlay.Working).Symbols)
	})
	if symbolCount == 0 {
		t.Error("expected at least one symbol indexed into the Working layer")
	}
}

func mustMkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("MkdirAll(%s): %v", path, err)
	}
}
