package indexer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWatcher(t *testing.T, root string) *Watcher {
	t.Helper()
	w, err := NewWatcher(WatchConfig{RootPath: root, Debounce: 20 * time.Millisecond})
	require.NoError(t, err)
	return w
}

func TestWatcher_DebouncesRepeatedEventsToSamePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.go")
	require.NoError(t, os.WriteFile(path, []byte("package a\n"), 0o644))

	w := newTestWatcher(t, dir)
	events := make(chan *FileEvent, 8)
	w.eventCh = events

	w.scheduleEvent(path, OpModify)
	time.Sleep(5 * time.Millisecond)
	w.scheduleEvent(path, OpModify)
	time.Sleep(5 * time.Millisecond)
	w.scheduleEvent(path, OpModify)

	select {
	case <-events:
		t.Fatal("event fired before debounce window elapsed")
	case <-time.After(15 * time.Millisecond):
	}

	select {
	case ev := <-events:
		assert.Equal(t, path, ev.Path)
		assert.Equal(t, OpModify, ev.Operation)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("expected debounced event was never emitted")
	}

	select {
	case <-events:
		t.Fatal("expected exactly one coalesced event, got a second")
	case <-time.After(30 * time.Millisecond):
	}
}

func TestWatcher_DistinctPathsEmitIndependently(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t, dir)
	events := make(chan *FileEvent, 8)
	w.eventCh = events

	pathA := filepath.Join(dir, "a.go")
	pathB := filepath.Join(dir, "b.go")
	w.scheduleEvent(pathA, OpCreate)
	w.scheduleEvent(pathB, OpRemove)

	seen := map[string]FileOperation{}
	for i := 0; i < 2; i++ {
		select {
		case ev := <-events:
			seen[ev.Path] = ev.Operation
		case <-time.After(200 * time.Millisecond):
			t.Fatal("expected two independent events")
		}
	}

	assert.Equal(t, OpCreate, seen[pathA])
	assert.Equal(t, OpRemove, seen[pathB])
}

func TestWatcher_StopCancelsPendingTimers(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t, dir)
	events := make(chan *FileEvent, 8)
	w.eventCh = events

	w.scheduleEvent(filepath.Join(dir, "a.go"), OpModify)
	w.Stop()

	select {
	case <-events:
		t.Fatal("no event should fire after Stop")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWatcher_ExcludedPathsAreIgnored(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(WatchConfig{RootPath: dir, ExcludePatterns: []string{"**/vendor/**"}, Debounce: 10 * time.Millisecond})
	require.NoError(t, err)

	assert.True(t, w.isExcluded(filepath.Join(dir, "vendor", "pkg", "f.go")))
	assert.False(t, w.isExcluded(filepath.Join(dir, "internal", "f.go")))
}

func TestMapOperation(t *testing.T) {
	assert.Equal(t, OpRemove, mapOperation(fsnotify.Remove))
	assert.Equal(t, OpRemove, mapOperation(fsnotify.Rename))
	assert.Equal(t, OpCreate, mapOperation(fsnotify.Create))
	assert.Equal(t, OpModify, mapOperation(fsnotify.Write))
}
