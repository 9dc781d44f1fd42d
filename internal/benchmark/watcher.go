package benchmark

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"atscore/internal/errors"
	"atscore/internal/types"

	"github.com/fsnotify/fsnotify"
)

// Loader produces a fresh set of profiles from the watched source
type Loader func() ([]types.BenchmarkProfile, error)

// CorpusWatcher reloads a MemoryIndex when its source file changes. Failed
// reloads keep the previous profiles.
type CorpusWatcher struct {
	mu sync.Mutex

	path  string
	load  Loader
	index *MemoryIndex

	lastModTime time.Time

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}
	reloaded   chan struct{} // signalled after each successful reload

	logger  *errors.Logger
	running bool
}

// NewCorpusWatcher creates a watcher for path. load is called on every
// debounced change.
func NewCorpusWatcher(path string, debounceDelay time.Duration, load Loader, index *MemoryIndex, logger *errors.Logger) *CorpusWatcher {
	if debounceDelay <= 0 {
		debounceDelay = time.Second
	}
	return &CorpusWatcher{
		path:          path,
		load:          load,
		index:         index,
		debounceDelay: debounceDelay,
		stopChan:      make(chan struct{}),
		reloadChan:    make(chan struct{}, 1),
		reloaded:      make(chan struct{}, 1),
		logger:        logger,
	}
}

// Start begins watching the corpus file
func (cw *CorpusWatcher) Start() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.running {
		return fmt.Errorf("corpus watcher is already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	// watch the directory so atomic writes (rename over the file) are seen
	dir := filepath.Dir(cw.path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}
	cw.fsWatcher = watcher

	if stat, err := os.Stat(cw.path); err == nil {
		cw.lastModTime = stat.ModTime()
	}

	cw.running = true
	go cw.watchLoop()

	cw.logger.Info("Benchmark corpus watcher started",
		"file", cw.path,
		"debounce_delay", cw.debounceDelay)
	return nil
}

// Stop stops the watcher
func (cw *CorpusWatcher) Stop() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if !cw.running {
		return nil
	}
	close(cw.stopChan)
	if cw.debounceTimer != nil {
		cw.debounceTimer.Stop()
	}
	cw.running = false

	if err := cw.fsWatcher.Close(); err != nil {
		cw.logger.LogError(err, "Failed to close file system watcher")
		return err
	}
	cw.logger.Info("Benchmark corpus watcher stopped")
	return nil
}

// IsRunning returns whether the watcher is currently running
func (cw *CorpusWatcher) IsRunning() bool {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	return cw.running
}

// Reloaded is signalled after each successful reload
func (cw *CorpusWatcher) Reloaded() <-chan struct{} {
	return cw.reloaded
}

func (cw *CorpusWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-cw.fsWatcher.Events:
			if !ok {
				return
			}
			if cw.shouldProcessEvent(event) {
				cw.scheduleReload()
			}

		case err, ok := <-cw.fsWatcher.Errors:
			if !ok {
				return
			}
			cw.logger.LogError(err, "File watcher error")

		case <-cw.reloadChan:
			if cw.hasChanged() {
				cw.reload()
			}

		case <-cw.stopChan:
			return
		}
	}
}

func (cw *CorpusWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != filepath.Clean(cw.path) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

func (cw *CorpusWatcher) hasChanged() bool {
	stat, err := os.Stat(cw.path)
	if err != nil {
		return false
	}
	if stat.ModTime().Equal(cw.lastModTime) {
		return false
	}
	cw.lastModTime = stat.ModTime()
	return true
}

func (cw *CorpusWatcher) reload() {
	profiles, err := cw.load()
	if err != nil {
		cw.logger.LogError(err, "Benchmark corpus reload failed, keeping previous profiles", "file", cw.path)
		return
	}
	cw.index.Replace(profiles)
	cw.logger.Info("Benchmark corpus reloaded", "file", cw.path, "profiles", len(profiles))

	select {
	case cw.reloaded <- struct{}{}:
	default:
	}
}

func (cw *CorpusWatcher) scheduleReload() {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.debounceTimer != nil {
		cw.debounceTimer.Stop()
	}
	cw.debounceTimer = time.AfterFunc(cw.debounceDelay, func() {
		select {
		case cw.reloadChan <- struct{}{}:
		default:
		}
	})
}
