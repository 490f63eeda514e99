package retriever

import (
	"context"
	"fmt"

	"github.com/nilreef/ctxengine/internal/embedding"
	"github.com/nilreef/ctxengine/internal/model"
	"github.com/nilreef/ctxengine/internal/vectorstore"
)

const defaultSemanticMinScore = 0.5

// VectorSearcher is the subset of vectorstore.Store the semantic
// retriever needs.
type VectorSearcher interface {
	Search(queryVec []float32, k int) []vectorstore.Hit
}

// ChunkGetter is the subset of metadatastore.ChunkStore the semantic
// and dependency retrievers need to resolve a chunk ID into content.
type ChunkGetter interface {
	Get(chunkID string) (model.Chunk, bool, error)
}

// SemanticRetriever embeds the query text and ranks chunks by cosine
// similarity to it.
type SemanticRetriever struct {
	Embedder embedding.Provider
	Vectors  VectorSearcher
	Chunks   ChunkGetter
}

// Retrieve implements Retriever.
func (r *SemanticRetriever) Retrieve(ctx context.Context, query model.Query) ([]model.Candidate, error) {
	if query.Text == "" {
		return nil, nil
	}

	vec, err := r.Embedder.Embed(ctx, query.Text)
	if err != nil {
		return nil, fmt.Errorf("retriever: embed query: %w", err)
	}

	limit := limitOf(query)
	minScore := minScoreOr(query, defaultSemanticMinScore)

	hits := r.Vectors.Search(vec, limit)

	candidates := make([]model.Candidate, 0, len(hits))
	for _, hit := range hits {
		score := vectorstore.Rescale(hit.Cosine)
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
			Chunk:    chunk,
			Score:    score,
			Method:   model.MethodSemantic,
			RawScore: hit.Cosine,
		})
	}

	sortByScoreDesc(candidates)
	return applyFilters(candidates, query, limit), nil
}
