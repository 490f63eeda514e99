package vectorstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vectors.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_UpsertAndSearchReturnsClosestFirst(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Upsert("a", Normalize([]float32{1, 0, 0})))
	require.NoError(t, s.Upsert("b", Normalize([]float32{0, 1, 0})))
	require.NoError(t, s.Upsert("c", Normalize([]float32{0.9, 0.1, 0})))

	hits := s.Search(Normalize([]float32{1, 0, 0}), 2)
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].ChunkID)
	assert.Equal(t, "c", hits[1].ChunkID)
}

func TestStore_DeleteRemovesFromSearch(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Upsert("a", Normalize([]float32{1, 0})))
	require.NoError(t, s.Delete("a"))

	hits := s.Search(Normalize([]float32{1, 0}), 5)
	assert.Empty(t, hits)
}

func TestStore_SearchIsStableBetweenMutations(t *testing.T) {
	s := openTestStore(t)
	for i, vec := range [][]float32{{1, 0, 0}, {0.7, 0.7, 0}, {0, 1, 0}, {0, 0, 1}} {
		require.NoError(t, s.Upsert(string(rune('a'+i)), Normalize(vec)))
	}

	query := Normalize([]float32{0.6, 0.8, 0})
	first := s.Search(query, 4)
	second := s.Search(query, 4)
	assert.Equal(t, first, second)
}

func TestStore_HeaderRoundTrip(t *testing.T) {
	s := openTestStore(t)

	got, err := s.Header()
	require.NoError(t, err)
	assert.Nil(t, got)

	want := Header{EmbeddingIdentity: "local-hash-v1", Dimensions: 384, CreatedAt: time.Unix(0, 0)}
	require.NoError(t, s.WriteHeader(want))

	got, err = s.Header()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.EmbeddingIdentity, got.EmbeddingIdentity)
	assert.Equal(t, want.Dimensions, got.Dimensions)
	assert.Equal(t, currentSchemaForTest(), got.Schema)
}

func currentSchemaForTest() uint32 { return currentSchema }

func TestStore_ClearRemovesVectorsAndHeader(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Upsert("a", Normalize([]float32{1, 0})))
	require.NoError(t, s.WriteHeader(Header{EmbeddingIdentity: "x", Dimensions: 2}))

	require.NoError(t, s.Clear())

	assert.Zero(t, s.Count())
	hdr, err := s.Header()
	require.NoError(t, err)
	assert.Nil(t, hdr)
}

func TestRescale_MapsCosineRangeToUnitInterval(t *testing.T) {
	assert.InDelta(t, 0.0, Rescale(-1), 1e-9)
	assert.InDelta(t, 0.5, Rescale(0), 1e-9)
	assert.InDelta(t, 1.0, Rescale(1), 1e-9)
}

func TestSelectTopK_BreaksTiesByChunkID(t *testing.T) {
	hits := []Hit{
		{ChunkID: "z", Cosine: 0.5},
		{ChunkID: "a", Cosine: 0.5},
		{ChunkID: "m", Cosine: 0.9},
	}
	top := selectTopK(hits, 3)
	require.Len(t, top, 3)
	assert.Equal(t, "m", top[0].ChunkID)
	assert.Equal(t, "a", top[1].ChunkID)
	assert.Equal(t, "z", top[2].ChunkID)
}
