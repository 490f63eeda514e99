package retriever

import (
	"context"
	"fmt"

	"github.com/nilreef/ctxengine/internal/metadatastore"
	"github.com/nilreef/ctxengine/internal/model"
)

const defaultLexicalMinScore = 0.1

// FullTextSearcher is the subset of metadatastore.ChunkStore the
// lexical retriever needs.
type FullTextSearcher interface {
	FullTextSearch(query string, k int) ([]metadatastore.FullTextSearchHit, error)
	ChunkGetter
}

// LexicalRetriever ranks chunks by BM25 relevance to the query's
// identifier-split tokens. Bleve's own match-query scoring already
// rewards term-adjacent matches over scattered ones, which stands in
// for an explicit phrase-then-terms fallback without a second query
// round trip.
type LexicalRetriever struct {
	Chunks FullTextSearcher
}

// Retrieve implements Retriever.
func (r *LexicalRetriever) Retrieve(ctx context.Context, query model.Query) ([]model.Candidate, error) {
	if query.Text == "" {
		return nil, nil
	}

	limit := limitOf(query)
	minScore := minScoreOr(query, defaultLexicalMinScore)

	hits, err := r.Chunks.FullTextSearch(query.Text, limit)
	if err != nil {
		return nil, fmt.Errorf("retriever: full text search: %w", err)
	}

	candidates := make([]model.Candidate, 0, len(hits))
	for _, hit := range hits {
		score := normalizeBM25(hit.BM25Score)
		if score < minScore {
			continue
		}
		chunk, ok, err := r.Chunks.Get(hit.ChunkID)
		if err != nil {
			return nil, fmt.Errorf("retriever: resolve chunk %q: %w", hit.ChunkID, err)
		}
		if !ok {
			continue
		}
		candidates = append(candidates, model.Candidate{
			Chunk:        chunk,
			Score:        score,
			Method:       model.MethodLexical,
			RawScore:     hit.BM25Score,
			MatchedTerms: hit.MatchedTerms,
		})
	}

	sortByScoreDesc(candidates)
	return applyFilters(candidates, query, limit), nil
}

func normalizeBM25(s float64) float64 {
	return s / (s + 10)
}
