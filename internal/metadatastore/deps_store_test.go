package metadatastore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDepsStore(t *testing.T) *DepsStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deps.sqlite")
	s, err := OpenDepsStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestDepsStore_ReplaceEdgesThenSourcesReferencing(t *testing.T) {
	s := openTestDepsStore(t)

	require.NoError(t, s.ReplaceEdges("chunk-a", []DepEdge{
		{SrcChunkID: "chunk-a", DstSymbolName: "Parse", Kind: DepCall},
		{SrcChunkID: "chunk-a", DstSymbolName: "fmt", Kind: DepImport},
	}))
	require.NoError(t, s.ReplaceEdges("chunk-b", []DepEdge{
		{SrcChunkID: "chunk-b", DstSymbolName: "Parse", Kind: DepCall},
	}))

	sources, err := s.SourcesReferencing("Parse")
	require.NoError(t, err)
	assert.Equal(t, []string{"chunk-a", "chunk-b"}, sources)
}

func TestDepsStore_ReplaceEdgesClearsPriorRows(t *testing.T) {
	s := openTestDepsStore(t)

	require.NoError(t, s.ReplaceEdges("chunk-a", []DepEdge{
		{SrcChunkID: "chunk-a", DstSymbolName: "Old", Kind: DepCall},
	}))
	require.NoError(t, s.ReplaceEdges("chunk-a", []DepEdge{
		{SrcChunkID: "chunk-a", DstSymbolName: "New", Kind: DepCall},
	}))

	sources, err := s.SourcesReferencing("Old")
	require.NoError(t, err)
	assert.Empty(t, sources)

	sources, err = s.SourcesReferencing("New")
	require.NoError(t, err)
	assert.Equal(t, []string{"chunk-a"}, sources)
}

func TestDepsStore_DeleteBySource(t *testing.T) {
	s := openTestDepsStore(t)
	require.NoError(t, s.ReplaceEdges("chunk-a", []DepEdge{
		{SrcChunkID: "chunk-a", DstSymbolName: "Parse", Kind: DepCall},
	}))

	require.NoError(t, s.DeleteBySource("chunk-a"))

	symbols, err := s.SymbolsReferencedBy("chunk-a")
	require.NoError(t, err)
	assert.Empty(t, symbols)
}
