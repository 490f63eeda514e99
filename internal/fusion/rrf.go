// Package fusion combines per-method candidate lists into one
// deduplicated, scored list via weighted Reciprocal Rank Fusion.
package fusion

import (
	"sort"

	"github.com/nilreef/ctxengine/internal/model"
)

// DefaultK is the RRF rank-damping constant, the same value the
// teacher's RRFMerger defaults to.
const DefaultK = 60

// WeightedList is one retrieval method's candidate list plus the
// fusion weight §4.7's strategy table assigns it.
type WeightedList struct {
	Method     model.Method
	Weight     float64
	Candidates []model.Candidate
}

// Merge fuses lists by weighted RRF: for each candidate at 0-based rank
// r in a list weighted w, it contributes w/(k+r+1) to that chunk's
// accumulated score, the same per-rank contribution the teacher's
// addRRFScores computes, generalized from two equally-weighted lists to
// N arbitrarily-weighted ones. The retained Candidate for each chunk
// carries the method and score of its highest-scoring original
// appearance; the final Score is the accumulated RRF score normalized
// by s/(s+1) into [0,1].
func Merge(lists []WeightedList) []model.Candidate {
	return MergeWithK(lists, DefaultK)
}

// MergeWithK is Merge with an explicit k, exposed for testing the rank
// damping curve without relying on the package default.
func MergeWithK(lists []WeightedList, k int) []model.Candidate {
	scoreByID := make(map[string]float64)
	bestByID := make(map[string]model.Candidate)

	for _, list := range lists {
		for rank, c := range list.Candidates {
			contribution := list.Weight / float64(k+rank+1)
			scoreByID[c.ID] += contribution

			existing, ok := bestByID[c.ID]
			if !ok || c.Score > existing.Score {
				bestByID[c.ID] = c
			}
		}
	}

	fused := make([]model.Candidate, 0, len(scoreByID))
	for id, rrfScore := range scoreByID {
		c := bestByID[id]
		c.Score = normalize(rrfScore)
		c.RawScore = rrfScore
		fused = append(fused, c)
	}

	sort.SliceStable(fused, func(i, j int) bool {
		if fused[i].Score != fused[j].Score {
			return fused[i].Score > fused[j].Score
		}
		return fused[i].ID < fused[j].ID
	})

	return fused
}

func normalize(s float64) float64 {
	return s / (s + 1)
}

// Fuse runs weighted RRF merge followed by deduplication, the order
// §4.9 describes: fuse first, then collapse duplicates among the
// fused results.
func Fuse(lists []WeightedList) []model.Candidate {
	return Dedup(Merge(lists))
}
