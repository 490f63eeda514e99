package retriever

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/nilreef/ctxengine/internal/metadatastore"
	"github.com/nilreef/ctxengine/internal/model"
)

const maxDependencyDepth = 3

// stopwords are excluded from the candidate symbol identifiers
// extracted from a query's text before graph lookup.
var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "is": {}, "are": {}, "does": {}, "do": {},
	"why": {}, "how": {}, "what": {}, "this": {}, "that": {}, "in": {},
	"with": {}, "for": {}, "of": {}, "to": {}, "and": {}, "or": {}, "on": {},
}

// SymbolLookup is the subset of metadatastore.ChunkStore the
// dependency retriever needs to seed and continue its graph walk.
type SymbolLookup interface {
	BySymbol(name string) ([]model.Chunk, error)
}

// GraphStore is the subset of metadatastore.DepsStore the dependency
// retriever walks.
type GraphStore interface {
	SymbolsReferencedBy(srcChunkID string) ([]string, error)
	SourcesReferencing(dstSymbolName string) ([]string, error)
}

// DependencyRetriever extracts candidate symbol identifiers from the
// query text and walks the import/call graph outward from each hit, up
// to maxDependencyDepth hops, scoring by 0.7^depth.
type DependencyRetriever struct {
	Chunks SymbolLookup
	Getter ChunkGetter
	Graph  GraphStore
}

type frontierItem struct {
	chunkID string
	depth   int
}

// Retrieve implements Retriever.
func (r *DependencyRetriever) Retrieve(ctx context.Context, query model.Query) ([]model.Candidate, error) {
	identifiers := candidateIdentifiers(query.Text)
	if len(identifiers) == 0 {
		return nil, nil
	}

	depthOf := make(map[string]int)
	var frontier []frontierItem

	includeReverse := query.Intent == model.IntentRefactor || query.Intent == model.IntentBugFix

	for _, name := range identifiers {
		chunks, err := r.Chunks.BySymbol(name)
		if err != nil {
			return nil, fmt.Errorf("retriever: by_symbol %q: %w", name, err)
		}
		for _, c := range chunks {
			if seedAt(depthOf, &frontier, c.ID, 0) {
				continue
			}
		}

		if includeReverse {
			sources, err := r.Graph.SourcesReferencing(name)
			if err != nil {
				return nil, fmt.Errorf("retriever: sources referencing %q: %w", name, err)
			}
			for _, id := range sources {
				seedAt(depthOf, &frontier, id, 0)
			}
		}
	}

	for len(frontier) > 0 {
		item := frontier[0]
		frontier = frontier[1:]
		if item.depth >= maxDependencyDepth {
			continue
		}

		symbols, err := r.Graph.SymbolsReferencedBy(item.chunkID)
		if err != nil {
			return nil, fmt.Errorf("retriever: symbols referenced by %q: %w", item.chunkID, err)
		}
		for _, sym := range symbols {
			hits, err := r.Chunks.BySymbol(sym)
			if err != nil {
				return nil, fmt.Errorf("retriever: by_symbol %q: %w", sym, err)
			}
			for _, hit := range hits {
				seedAt(depthOf, &frontier, hit.ID, item.depth+1)
			}
		}
	}

	limit := limitOf(query)
	candidates := make([]model.Candidate, 0, len(depthOf))
	for chunkID, depth := range depthOf {
		chunk, ok, err := r.Getter.Get(chunkID)
		if err != nil {
			return nil, fmt.Errorf("retriever: resolve chunk %q: %w", chunkID, err)
		}
		if !ok {
			continue
		}
		d := depth
		candidates = append(candidates, model.Candidate{
			Chunk:    chunk,
			Score:    math.Pow(0.7, float64(depth)),
			Method:   model.MethodDependency,
			RawScore: math.Pow(0.7, float64(depth)),
			DepDepth: &d,
		})
	}

	sortByScoreDesc(candidates)
	return applyFilters(candidates, query, limit), nil
}

// seedAt records chunkID at depth if it has not been seen at a
// shallower or equal depth, enqueuing it for further traversal, and
// reports whether it was already known at depth <= the given depth.
func seedAt(depthOf map[string]int, frontier *[]frontierItem, chunkID string, depth int) bool {
	existing, seen := depthOf[chunkID]
	if seen && existing <= depth {
		return true
	}
	depthOf[chunkID] = depth
	*frontier = append(*frontier, frontierItem{chunkID: chunkID, depth: depth})
	return false
}

// candidateIdentifiers splits query text into identifier-style tokens
// and drops a fixed stopword list, the same CamelCase/snake_case split
// the metadata store's full-text indexing uses.
func candidateIdentifiers(text string) []string {
	tokens := metadatastore.SplitIdentifiers(text)
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, stop := stopwords[t]; stop {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
