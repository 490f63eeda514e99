package retriever

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/nilreef/ctxengine/internal/model"
)

const recentEditsWindowHours = 24

// RecentLister is the subset of metadatastore.ChunkStore the recent
// edits retriever needs.
type RecentLister interface {
	Recent(before int64, k int) ([]model.Chunk, error)
}

// Clock abstracts "now" so tests can fix it; production code supplies
// time.Now().UnixMilli.
type Clock func() int64

// RecentEditsRetriever surfaces chunks modified within a sliding 24h
// window, scored by exponential decay and post-filtered by a coarse
// keyword match against the query.
type RecentEditsRetriever struct {
	Chunks RecentLister
	Now    Clock
}

// Retrieve implements Retriever.
func (r *RecentEditsRetriever) Retrieve(ctx context.Context, query model.Query) ([]model.Candidate, error) {
	limit := limitOf(query)
	nowMillis := r.Now()
	windowStart := nowMillis - recentEditsWindowHours*3600*1000

	chunks, err := r.Chunks.Recent(windowStart, limit*4)
	if err != nil {
		return nil, fmt.Errorf("retriever: recent: %w", err)
	}

	queryTokens := significantTokens(query.Text)

	candidates := make([]model.Candidate, 0, len(chunks))
	for _, c := range chunks {
		if len(queryTokens) > 0 && !matchesAnyToken(queryTokens, c.Content, c.FilePath) {
			continue
		}
		ageHours := float64(nowMillis-c.LastModified) / 3600000.0
		score := clamp01(math.Exp(-0.5 * ageHours))
		candidates = append(candidates, model.Candidate{
			Chunk:    c,
			Score:    score,
			Method:   model.MethodRecentEdits,
			RawScore: score,
		})
	}

	sortByScoreDesc(candidates)
	return applyFilters(candidates, query, limit), nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// significantTokens lower-cases and word-splits text, keeping tokens
// of length >= 3, for the recent-edits retriever's coarse post-filter.
func significantTokens(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_')
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) >= 3 {
			out = append(out, f)
		}
	}
	return out
}

func matchesAnyToken(tokens []string, content, filePath string) bool {
	lowerContent := strings.ToLower(content)
	lowerPath := strings.ToLower(filePath)
	for _, t := range tokens {
		if strings.Contains(lowerContent, t) || strings.Contains(lowerPath, t) {
			return true
		}
	}
	return false
}
