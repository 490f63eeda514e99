package classifier

import (
	"context"
	"regexp"
	"strings"

	"github.com/nilreef/ctxengine/internal/model"
)

const lexicalMethodName = "lexical"

// keywordsByIntent is the fixed pattern set each intent is matched
// against, one regexp per keyword/phrase, the same one-pattern-per-
// keyword shape the teacher's LexicalClassifier compiles from its
// configured LexicalKeywords map.
var keywordsByIntent = map[model.Intent][]string{
	model.IntentBugFix: {
		"bug", "fix", "error", "fail", "crash", "exception", "broken",
		"assertionerror", "traceback",
	},
	model.IntentRefactor: {
		"refactor", "clean up", "simplify", "rename", "restructure",
		"extract", "reorganize", "deduplicate",
	},
	model.IntentGenerate: {
		"generate", "create", "implement", "add a", "write a", "scaffold",
		"new endpoint", "build a",
	},
	model.IntentTest: {
		"test", "unit test", "write tests", "test coverage", "assert",
		"mock", "test case", "spec file",
	},
	model.IntentExplain: {
		"explain", "what does", "how does", "what is", "understand",
		"describe", "walk through", "why does",
	},
}

// LexicalClassifier is the single rule-based classification stage
// wired in v1: regex/keyword patterns per intent, scored by the same
// matches/total-plus-bonus formula as the teacher's calculateConfidence.
type LexicalClassifier struct {
	patterns map[model.Intent][]*regexp.Regexp
}

// NewLexicalClassifier compiles keywordsByIntent into word-boundary,
// case-insensitive patterns.
func NewLexicalClassifier() *LexicalClassifier {
	lc := &LexicalClassifier{patterns: make(map[model.Intent][]*regexp.Regexp)}
	for intent, keywords := range keywordsByIntent {
		lc.patterns[intent] = compileKeywordPatterns(keywords)
	}
	return lc
}

func compileKeywordPatterns(keywords []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(keywords))
	for _, kw := range keywords {
		escaped := regexp.QuoteMeta(strings.ToLower(kw))
		re, err := regexp.Compile(`(?i)\b` + escaped + `\b`)
		if err == nil {
			patterns = append(patterns, re)
		}
	}
	return patterns
}

// Classify scores request against every configured intent's keyword
// set, deterministically and without side effects.
func (l *LexicalClassifier) Classify(ctx context.Context, request string) (*StageResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := NewStageResult(lexicalMethodName)
	if request == "" {
		return result, nil
	}

	for intent, patterns := range l.patterns {
		matches := countMatches(request, patterns)
		if matches > 0 {
			result.Scores[intent] = calculateConfidence(matches, len(patterns))
		}
	}
	return result, nil
}

func countMatches(query string, patterns []*regexp.Regexp) int {
	count := 0
	for _, p := range patterns {
		if p.MatchString(query) {
			count++
		}
	}
	return count
}

// calculateConfidence mirrors the teacher's normalizeScore: a base
// ratio of matched to total keywords, plus a small per-match bonus,
// capped at 1.0.
func calculateConfidence(matches, totalPatterns int) float64 {
	if totalPatterns == 0 {
		return 0
	}
	base := float64(matches) / float64(totalPatterns)
	score := base + float64(matches)*0.05
	if score > 1.0 {
		return 1.0
	}
	return score
}
