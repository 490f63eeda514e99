package engine

import (
	"sync"
	"time"

	"github.com/nilreef/ctxengine/internal/model"
)

// Diagnostics is a snapshot of engine status, grounded on the
// lightweight status-event pattern of core/events: a small mutex-guarded
// struct updated as operations complete, rather than a full publish/
// subscribe bus, since this façade has exactly one consumer (the caller
// inspecting it) rather than many independent listeners.
type Diagnostics struct {
	IndexedChunks        int
	LastRebuildReason     string
	LastRebuildAt         time.Time
	LastRetrievalMethods  []model.Method
	LastQueryAt           time.Time
	LastQueryDuration     time.Duration
}

type diagnosticsTracker struct {
	mu   sync.RWMutex
	data Diagnostics
}

func newDiagnosticsTracker() *diagnosticsTracker {
	return &diagnosticsTracker{}
}

func (t *diagnosticsTracker) snapshot() Diagnostics {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.data
}

func (t *diagnosticsTracker) recordRebuild(reason string, chunks int, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.LastRebuildReason = reason
	t.data.LastRebuildAt = at
	t.data.IndexedChunks = chunks
}

func (t *diagnosticsTracker) recordQuery(methods []model.Method, at time.Time, duration time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.LastRetrievalMethods = methods
	t.data.LastQueryAt = at
	t.data.LastQueryDuration = duration
}
