// Package retriever implements the shared retrieval contract each
// method (semantic, lexical, dependency, recent edits) satisfies:
// score candidates in [0,1], sorted descending, filtered post-hoc by
// file pattern and language.
package retriever

import (
	"context"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"github.com/nilreef/ctxengine/internal/model"
)

// Retriever produces scored candidates for one retrieval method.
type Retriever interface {
	Retrieve(ctx context.Context, query model.Query) ([]model.Candidate, error)
}

const defaultLimit = 20

func limitOf(query model.Query) int {
	if query.Limit > 0 {
		return query.Limit
	}
	return defaultLimit
}

func minScoreOr(query model.Query, fallback float64) float64 {
	if query.MinScore != nil {
		return *query.MinScore
	}
	return fallback
}

// applyFilters drops candidates whose file path does not match any of
// query.FilePatterns (when set) or whose language is not in
// query.Languages (when set), then truncates to limit.
func applyFilters(candidates []model.Candidate, query model.Query, limit int) []model.Candidate {
	patterns := compileGlobs(query.FilePatterns)
	languages := toSet(query.Languages)

	out := make([]model.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if len(patterns) > 0 && !matchesAny(patterns, c.FilePath) {
			continue
		}
		if len(languages) > 0 {
			if _, ok := languages[strings.ToLower(c.Language)]; !ok {
				continue
			}
		}
		out = append(out, c)
		if len(out) >= limit {
			break
		}
	}
	return out
}

func compileGlobs(patterns []string) []glob.Glob {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		if g, err := glob.Compile(p, '/'); err == nil {
			globs = append(globs, g)
		}
	}
	return globs
}

func matchesAny(globs []glob.Glob, path string) bool {
	for _, g := range globs {
		if g.Match(path) {
			return true
		}
	}
	return false
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[strings.ToLower(v)] = struct{}{}
	}
	return set
}

// sortByScoreDesc sorts candidates by Score descending, ties broken by
// chunk ID ascending for determinism.
func sortByScoreDesc(candidates []model.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].ID < candidates[j].ID
	})
}
