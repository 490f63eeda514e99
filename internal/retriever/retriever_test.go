package retriever

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nilreef/ctxengine/internal/metadatastore"
	"github.com/nilreef/ctxengine/internal/model"
	"github.com/nilreef/ctxengine/internal/vectorstore"
)

type fakeChunkGetter struct {
	byID map[string]model.Chunk
}

func (f *fakeChunkGetter) Get(chunkID string) (model.Chunk, bool, error) {
	c, ok := f.byID[chunkID]
	return c, ok, nil
}

type fakeVectorSearcher struct {
	hits []vectorstore.Hit
}

func (f *fakeVectorSearcher) Search(queryVec []float32, k int) []vectorstore.Hit {
	if k < len(f.hits) {
		return f.hits[:k]
	}
	return f.hits
}

type fakeEmbedder struct{}

func (fakeEmbedder) Identity() string { return "fake-v1" }
func (fakeEmbedder) Dimensions() int  { return 4 }
func (fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0, 0}, nil
}
func (fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0, 0}
	}
	return out, nil
}

func TestSemanticRetriever_FiltersBelowMinScoreAndResolvesChunks(t *testing.T) {
	getter := &fakeChunkGetter{byID: map[string]model.Chunk{
		"a": {ID: "a", FilePath: "x.go", Language: "go"},
		"b": {ID: "b", FilePath: "y.go", Language: "go"},
	}}
	searcher := &fakeVectorSearcher{hits: []vectorstore.Hit{
		{ChunkID: "a", Cosine: 0.9},
		{ChunkID: "b", Cosine: -0.9},
	}}

	r := &SemanticRetriever{Embedder: fakeEmbedder{}, Vectors: searcher, Chunks: getter}
	candidates, err := r.Retrieve(context.Background(), model.Query{Text: "hello"})
	require.NoError(t, err)

	require.Len(t, candidates, 1)
	assert.Equal(t, "a", candidates[0].ID)
	assert.Equal(t, model.MethodSemantic, candidates[0].Method)
}

func TestSemanticRetriever_EmptyQueryReturnsNothing(t *testing.T) {
	r := &SemanticRetriever{Embedder: fakeEmbedder{}, Vectors: &fakeVectorSearcher{}, Chunks: &fakeChunkGetter{byID: map[string]model.Chunk{}}}
	candidates, err := r.Retrieve(context.Background(), model.Query{Text: ""})
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

type fakeFullTextSearcher struct {
	hits []metadatastore.FullTextSearchHit
	byID map[string]model.Chunk
}

func (f *fakeFullTextSearcher) FullTextSearch(query string, k int) ([]metadatastore.FullTextSearchHit, error) {
	return f.hits, nil
}

func (f *fakeFullTextSearcher) Get(chunkID string) (model.Chunk, bool, error) {
	c, ok := f.byID[chunkID]
	return c, ok, nil
}

func TestLexicalRetriever_NormalizesBM25AndFiltersBelowMinScore(t *testing.T) {
	fts := &fakeFullTextSearcher{
		hits: []metadatastore.FullTextSearchHit{
			{ChunkID: "a", BM25Score: 5.0, MatchedTerms: []string{"widget"}},
			{ChunkID: "b", BM25Score: 0.01, MatchedTerms: []string{"widget"}},
		},
		byID: map[string]model.Chunk{
			"a": {ID: "a", FilePath: "x.go"},
			"b": {ID: "b", FilePath: "y.go"},
		},
	}

	r := &LexicalRetriever{Chunks: fts}
	candidates, err := r.Retrieve(context.Background(), model.Query{Text: "widget"})
	require.NoError(t, err)

	require.Len(t, candidates, 1)
	assert.Equal(t, "a", candidates[0].ID)
	assert.InDelta(t, 5.0/15.0, candidates[0].Score, 1e-9)
}

type fakeSymbolLookup struct {
	bySymbol map[string][]model.Chunk
}

func (f *fakeSymbolLookup) BySymbol(name string) ([]model.Chunk, error) {
	return f.bySymbol[name], nil
}

type fakeGraphStore struct {
	referencedBy map[string][]string
	sources      map[string][]string
}

func (f *fakeGraphStore) SymbolsReferencedBy(srcChunkID string) ([]string, error) {
	return f.referencedBy[srcChunkID], nil
}

func (f *fakeGraphStore) SourcesReferencing(dstSymbolName string) ([]string, error) {
	return f.sources[dstSymbolName], nil
}

func TestDependencyRetriever_WalksGraphAndScoresByDepth(t *testing.T) {
	lookup := &fakeSymbolLookup{bySymbol: map[string][]model.Chunk{
		"widget": {{ID: "seed", FilePath: "widget.go"}},
		"helper": {{ID: "child", FilePath: "helper.go"}},
	}}
	graph := &fakeGraphStore{
		referencedBy: map[string][]string{"seed": {"helper"}},
		sources:      map[string][]string{},
	}
	getter := &fakeChunkGetter{byID: map[string]model.Chunk{
		"seed":  {ID: "seed", FilePath: "widget.go"},
		"child": {ID: "child", FilePath: "helper.go"},
	}}

	r := &DependencyRetriever{Chunks: lookup, Getter: getter, Graph: graph}
	candidates, err := r.Retrieve(context.Background(), model.Query{Text: "widget"})
	require.NoError(t, err)

	require.Len(t, candidates, 2)
	assert.Equal(t, "seed", candidates[0].ID)
	assert.Equal(t, 1.0, candidates[0].Score)
	assert.Equal(t, "child", candidates[1].ID)
	assert.InDelta(t, 0.7, candidates[1].Score, 1e-9)
}

func TestDependencyRetriever_NoIdentifiersReturnsNothing(t *testing.T) {
	r := &DependencyRetriever{
		Chunks: &fakeSymbolLookup{bySymbol: map[string][]model.Chunk{}},
		Getter: &fakeChunkGetter{byID: map[string]model.Chunk{}},
		Graph:  &fakeGraphStore{},
	}
	candidates, err := r.Retrieve(context.Background(), model.Query{Text: "the a an"})
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

type fakeRecentLister struct {
	chunks []model.Chunk
}

func (f *fakeRecentLister) Recent(before int64, k int) ([]model.Chunk, error) {
	return f.chunks, nil
}

func TestRecentEditsRetriever_ScoresByDecayAndFiltersByKeyword(t *testing.T) {
	now := int64(1_000_000_000)
	lister := &fakeRecentLister{chunks: []model.Chunk{
		{ID: "a", FilePath: "login.go", Content: "func Login() {}", LastModified: now - 3600*1000},
		{ID: "b", FilePath: "unrelated.go", Content: "func Other() {}", LastModified: now - 3600*1000},
	}}

	r := &RecentEditsRetriever{Chunks: lister, Now: func() int64 { return now }}
	candidates, err := r.Retrieve(context.Background(), model.Query{Text: "why does login fail"})
	require.NoError(t, err)

	require.Len(t, candidates, 1)
	assert.Equal(t, "a", candidates[0].ID)
	assert.Greater(t, candidates[0].Score, 0.5)
}
