// Package ranker turns a fused candidate list into the final,
// intent-aware ordering: a weighted blend of four signals plus a
// per-file diversity penalty.
package ranker

import (
	"math"
	"sort"
	"strings"

	"github.com/nilreef/ctxengine/internal/model"
)

const (
	weightMethod     = 0.50
	weightRecency    = 0.20
	weightFileType   = 0.15
	weightSymbolType = 0.15

	recencyDecayRate  = 0.1
	defaultRecency    = 0.5
	defaultFileFit    = 0.5
	defaultSymbolFit  = 0.5
)

// Rank re-scores fused candidates against the resolved intent and
// returns them sorted by final score descending, diversity-penalized,
// with (file_path, line_range.start) as the deterministic tie-break.
// nowMillis anchors recencyFit; callers that need repeated calls against
// unchanged input to produce identical output should pass a value tied
// to store state (e.g. last index update) rather than the wall clock.
func Rank(candidates []model.Candidate, intent model.Intent, nowMillis int64) []model.Candidate {
	ranked := make([]model.Candidate, len(candidates))
	copy(ranked, candidates)

	for i := range ranked {
		ranked[i].Score = finalScore(ranked[i], intent, nowMillis)
	}

	sortDeterministic(ranked)
	applyDiversityPenalty(ranked)
	sortDeterministic(ranked)

	return ranked
}

func finalScore(c model.Candidate, intent model.Intent, nowMillis int64) float64 {
	return weightMethod*c.Score +
		weightRecency*recencyFit(c, nowMillis) +
		weightFileType*fileTypeFit(c, intent) +
		weightSymbolType*symbolTypeFit(c, intent)
}

func recencyFit(c model.Candidate, nowMillis int64) float64 {
	if c.LastModified == 0 {
		return defaultRecency
	}
	ageHours := float64(nowMillis-c.LastModified) / 3600000.0
	if ageHours < 0 {
		ageHours = 0
	}
	return math.Exp(-recencyDecayRate * ageHours)
}

// fileTypeFit rewards files matching the intent's expected shape:
// test files for test intent, implementation files for bug_fix/refactor.
func fileTypeFit(c model.Candidate, intent model.Intent) float64 {
	isTest := isTestFile(c.FilePath)
	switch intent {
	case model.IntentTest:
		if isTest {
			return 1.0
		}
		return 0.3
	case model.IntentBugFix:
		if isTest {
			return 0.3
		}
		return 1.0
	case model.IntentRefactor:
		if isTest {
			return 0.2
		}
		return 1.0
	default:
		return defaultFileFit
	}
}

func isTestFile(path string) bool {
	if strings.Contains(path, ".test.") || strings.Contains(path, ".spec.") {
		return true
	}
	for _, seg := range strings.Split(path, "/") {
		if seg == "__tests__" {
			return true
		}
	}
	return false
}

// symbolTypeFit rewards symbol kinds that fit the intent's usual
// target: classes/functions for refactor, functions/methods for
// generate.
func symbolTypeFit(c model.Candidate, intent model.Intent) float64 {
	switch intent {
	case model.IntentRefactor:
		if c.SymbolType == model.SymbolClass || c.SymbolType == model.SymbolFunction {
			return 1.0
		}
		return defaultSymbolFit
	case model.IntentGenerate:
		if c.SymbolType == model.SymbolFunction || c.SymbolType == model.SymbolMethod {
			return 1.0
		}
		return defaultSymbolFit
	default:
		return defaultSymbolFit
	}
}

// applyDiversityPenalty multiplies the n-th candidate seen from a given
// file (1-indexed) by 1/n in final-score order (the first x1, the
// second x1/2, and so on), so a file that
// dominates the result set doesn't crowd out every other file.
func applyDiversityPenalty(ranked []model.Candidate) {
	seenPerFile := make(map[string]int)
	for i := range ranked {
		seenPerFile[ranked[i].FilePath]++
		n := seenPerFile[ranked[i].FilePath]
		penalty := 1.0 / float64(n)
		ranked[i].DiversityPenalty = penalty
		ranked[i].Score *= penalty
	}
}

func sortDeterministic(ranked []model.Candidate) {
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if ranked[i].FilePath != ranked[j].FilePath {
			return ranked[i].FilePath < ranked[j].FilePath
		}
		return ranked[i].LineRange.Start < ranked[j].LineRange.Start
	})
}
