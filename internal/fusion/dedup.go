package fusion

import (
	"strings"

	"github.com/nilreef/ctxengine/internal/model"
)

const jaccardDuplicateThreshold = 0.9

// Dedup collapses candidates that the spec considers duplicates of one
// another: same file with overlapping line ranges, or near-identical
// tokenized content (Jaccard similarity >= 0.9). Within each duplicate
// group the higher-scored candidate survives; input order is otherwise
// preserved among the survivors.
func Dedup(candidates []model.Candidate) []model.Candidate {
	n := len(candidates)
	if n <= 1 {
		return candidates
	}

	tokenSets := make([]map[string]struct{}, n)
	for i, c := range candidates {
		tokenSets[i] = tokenSet(c.Content)
	}

	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if sameFileOverlapping(candidates[i], candidates[j]) ||
				jaccard(tokenSets[i], tokenSets[j]) >= jaccardDuplicateThreshold {
				union(parent, i, j)
			}
		}
	}

	bestInGroup := make(map[int]int)
	for i := range candidates {
		root := find(parent, i)
		best, ok := bestInGroup[root]
		if !ok || candidates[i].Score > candidates[best].Score {
			bestInGroup[root] = i
		}
	}

	survivorIdx := make(map[int]struct{}, len(bestInGroup))
	for _, idx := range bestInGroup {
		survivorIdx[idx] = struct{}{}
	}

	out := make([]model.Candidate, 0, len(survivorIdx))
	for i, c := range candidates {
		if _, ok := survivorIdx[i]; ok {
			out = append(out, c)
		}
	}
	return out
}

func sameFileOverlapping(a, b model.Candidate) bool {
	if a.FilePath != b.FilePath {
		return false
	}
	return a.LineRange.Start <= b.LineRange.End && b.LineRange.Start <= a.LineRange.End
}

// tokenSet lower-cases content and splits on non-word boundaries,
// keeping tokens longer than two characters, per the spec's
// deduplication rule.
func tokenSet(content string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(content), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_')
	})
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if len(f) > 2 {
			set[f] = struct{}{}
		}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	for t := range a {
		if _, ok := b[t]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func find(parent []int, i int) int {
	for parent[i] != i {
		parent[i] = parent[parent[i]]
		i = parent[i]
	}
	return i
}

func union(parent []int, i, j int) {
	ri, rj := find(parent, i), find(parent, j)
	if ri != rj {
		parent[ri] = rj
	}
}
