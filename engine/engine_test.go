package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nilreef/ctxengine/internal/engineconfig"
	"github.com/nilreef/ctxengine/internal/indexer"
	"github.com/nilreef/ctxengine/internal/model"
)

func newTestEngine(t *testing.T) (*Engine, string) {
	t.Helper()
	workspace := t.TempDir()
	storeDir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(workspace, "widget.go"), []byte(
		"package widget\n\n// NewWidget constructs a Widget.\nfunc NewWidget() *Widget {\n\treturn &Widget{}\n}\n\ntype Widget struct{}\n"),
		0o644))

	cfg := engineconfig.Default()
	cfg.Workspace.RootPath = workspace
	cfg.Store.VectorPath = filepath.Join(storeDir, "vectors.db")
	cfg.Store.MetadataPath = filepath.Join(storeDir, "metadata.bleve")
	cfg.Store.DepsPath = filepath.Join(storeDir, "deps.db")

	return New(cfg, nil), workspace
}

func TestInitialize_IsIdempotent(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, e.Initialize(ctx))
	require.NoError(t, e.Initialize(ctx))

	require.NoError(t, e.Dispose())
}

func TestQuery_BeforeInitializeReturnsNotInitialized(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := e.Query(context.Background(), Request{Input: "explain NewWidget", TokenBudget: 500})
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestQuery_ZeroBudgetReturnsInvalidBudget(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, e.Initialize(context.Background()))
	defer e.Dispose()

	_, err := e.Query(context.Background(), Request{Input: "explain NewWidget", TokenBudget: 0})
	assert.ErrorIs(t, err, ErrInvalidBudget)
}

func TestQuery_AfterDisposeReturnsNotInitialized(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, e.Initialize(context.Background()))
	require.NoError(t, e.Dispose())

	_, err := e.Query(context.Background(), Request{Input: "explain NewWidget", TokenBudget: 500})
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestQuery_FindsIndexedSymbol(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, e.Initialize(ctx))
	defer e.Dispose()

	result, err := e.Query(ctx, Request{Input: "explain NewWidget", TokenBudget: 1000})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Items)
	for _, item := range result.Items {
		assert.Contains(t, item.Name, "widget.go")
	}
}

func TestQuery_EmptyIndexReturnsEmptyResultNotError(t *testing.T) {
	workspace := t.TempDir()
	storeDir := t.TempDir()
	cfg := engineconfig.Default()
	cfg.Workspace.RootPath = workspace
	cfg.Store.VectorPath = filepath.Join(storeDir, "vectors.db")
	cfg.Store.MetadataPath = filepath.Join(storeDir, "metadata.bleve")
	cfg.Store.DepsPath = filepath.Join(storeDir, "deps.db")

	e := New(cfg, nil)
	ctx := context.Background()
	require.NoError(t, e.Initialize(ctx))
	defer e.Dispose()

	result, err := e.Query(ctx, Request{Input: "anything at all", TokenBudget: 500})
	require.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.Equal(t, uint32(0), result.TokensUsed)
}

func TestQuery_RespectsExplicitIntentOverride(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, e.Initialize(ctx))
	defer e.Dispose()

	override := model.IntentRefactor
	result, err := e.Query(ctx, Request{Input: "NewWidget", TokenBudget: 1000, Intent: &override})
	require.NoError(t, err)
	assert.Equal(t, override, result.Intent)
}

func TestQuery_IsDeterministicAcrossRepeatedCalls(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, e.Initialize(ctx))
	defer e.Dispose()

	req := Request{Input: "explain NewWidget", TokenBudget: 1000}
	first, err := e.Query(ctx, req)
	require.NoError(t, err)
	second, err := e.Query(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestQuery_PreCancelledContextReturnsCancelled(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, e.Initialize(context.Background()))
	defer e.Dispose()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Query(ctx, Request{Input: "explain NewWidget", TokenBudget: 500})
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestOnFileChange_IndexesNewFile(t *testing.T) {
	e, workspace := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, e.Initialize(ctx))
	defer e.Dispose()

	newFile := filepath.Join(workspace, "gadget.go")
	require.NoError(t, os.WriteFile(newFile, []byte("package widget\n\nfunc NewGadget() {}\n"), 0o644))
	require.NoError(t, e.OnFileChange(ctx, newFile, indexer.OpCreate))

	result, err := e.Query(ctx, Request{Input: "explain NewGadget", TokenBudget: 1000})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Items)
}

func TestDiagnostics_ReflectsLastQuery(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, e.Initialize(ctx))
	defer e.Dispose()

	before := e.Diagnostics()
	assert.True(t, before.LastRebuildAt.Before(time.Now().Add(time.Second)))

	_, err := e.Query(ctx, Request{Input: "explain NewWidget", TokenBudget: 1000})
	require.NoError(t, err)

	after := e.Diagnostics()
	assert.False(t, after.LastQueryAt.IsZero())
	assert.NotEmpty(t, after.LastRetrievalMethods)
}

