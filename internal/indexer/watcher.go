package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
)

// DebounceWindow is the fixed per-file coalescing window before a
// change is flushed to the index, 200ms per the spec (the teacher's
// own fsnotify wrapper defaults to 100ms; this module doubles it).
const DebounceWindow = 200 * time.Millisecond

// FileOperation is the coalesced operation a watched path experienced.
type FileOperation int

const (
	OpModify FileOperation = iota
	OpCreate
	OpRemove
)

// FileEvent is one debounced, coalesced filesystem change.
type FileEvent struct {
	Path      string
	Operation FileOperation
	Time      time.Time
}

// WatchConfig configures the recursive watcher.
type WatchConfig struct {
	RootPath        string
	ExcludePatterns []string
	Debounce        time.Duration
}

// DefaultWatchConfig returns the fixed 200ms debounce window.
func DefaultWatchConfig(rootPath string) WatchConfig {
	return WatchConfig{RootPath: rootPath, Debounce: DebounceWindow}
}

type pendingEvent struct {
	event *FileEvent
	timer *time.Timer
}

// Watcher monitors a workspace root recursively and emits one debounced
// FileEvent per path after its last change settles for Debounce,
// mirroring the teacher's FSWatcher coalescing design (scheduleEvent /
// createDebounceTimer / emitEvent) with the interval doubled to 200ms.
type Watcher struct {
	config   WatchConfig
	fsw      *fsnotify.Watcher
	excludes []glob.Glob

	mu      sync.Mutex
	pending map[string]*pendingEvent
	stopped bool

	eventCh chan *FileEvent
}

// NewWatcher constructs a Watcher rooted at config.RootPath.
func NewWatcher(config WatchConfig) (*Watcher, error) {
	if config.Debounce == 0 {
		config.Debounce = DebounceWindow
	}

	excludes, err := compileExcludes(config.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("indexer: compile exclude patterns: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("indexer: new fsnotify watcher: %w", err)
	}

	return &Watcher{
		config:   config,
		fsw:      fsw,
		excludes: excludes,
		pending:  make(map[string]*pendingEvent),
		eventCh:  make(chan *FileEvent, 256),
	}, nil
}

func compileExcludes(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

// Start begins watching and returns the debounced event channel.
func (w *Watcher) Start(ctx context.Context) (<-chan *FileEvent, error) {
	if err := w.addRecursive(w.config.RootPath); err != nil {
		return nil, fmt.Errorf("indexer: watch %q: %w", w.config.RootPath, err)
	}
	go w.loop(ctx)
	return w.eventCh, nil
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.isExcluded(path) {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.fsw.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if w.isExcluded(event.Name) {
		return
	}

	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			_ = w.addRecursive(event.Name)
		}
	}

	w.scheduleEvent(event.Name, mapOperation(event.Op))
}

func mapOperation(op fsnotify.Op) FileOperation {
	switch {
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return OpRemove
	case op.Has(fsnotify.Create):
		return OpCreate
	default:
		return OpModify
	}
}

func (w *Watcher) scheduleEvent(path string, op FileOperation) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}

	event := &FileEvent{Path: path, Operation: op, Time: time.Now()}

	if existing, ok := w.pending[path]; ok {
		existing.timer.Stop()
		existing.event = event
		existing.timer = w.newDebounceTimer(path, event)
		return
	}

	w.pending[path] = &pendingEvent{event: event, timer: w.newDebounceTimer(path, event)}
}

func (w *Watcher) newDebounceTimer(path string, event *FileEvent) *time.Timer {
	return time.AfterFunc(w.config.Debounce, func() { w.emit(path, event) })
}

func (w *Watcher) emit(path string, event *FileEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	delete(w.pending, path)

	select {
	case w.eventCh <- event:
	default:
	}
}

func (w *Watcher) isExcluded(path string) bool {
	for _, g := range w.excludes {
		if g.Match(path) {
			return true
		}
	}
	return false
}

// Stop cancels all pending debounce timers and stops emitting events.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	for _, p := range w.pending {
		p.timer.Stop()
	}
	w.pending = make(map[string]*pendingEvent)
}
