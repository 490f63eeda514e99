// Package classifier maps free-text requests to one of a closed set of
// intents. v1 is a single deterministic lexical stage; the Stage
// interface is kept open the way the teacher's cascade classifier
// stages its own lexical/embedding/LLM passes, even though only the
// lexical stage is wired here.
package classifier

import (
	"context"

	"github.com/nilreef/ctxengine/internal/model"
)

// DefaultConfidenceFloor is the minimum confidence a stage result must
// clear before its intent is accepted; below it, model.DefaultIntent
// is returned instead.
const DefaultConfidenceFloor = 0.3

// Stage classifies request text into zero or more scored intents. A
// stage that finds no match returns a nil or empty StageResult rather
// than an error.
type Stage interface {
	Classify(ctx context.Context, request string) (*StageResult, error)
}

// StageResult accumulates per-intent confidence scores a single stage
// produced, mirroring the teacher's per-domain score accumulator.
type StageResult struct {
	Method string
	Scores map[model.Intent]float64
}

// NewStageResult returns an empty StageResult for method.
func NewStageResult(method string) *StageResult {
	return &StageResult{Method: method, Scores: make(map[model.Intent]float64)}
}

// intentPriority fixes the deterministic tie-break order for intents
// with equal confidence: the more specific-sounding categories rank
// above the catch-all explain, so "fix the bug in test_login" prefers
// bug_fix over test over explain when keyword matches tie.
var intentPriority = map[model.Intent]int{
	model.IntentBugFix:   0,
	model.IntentTest:     1,
	model.IntentRefactor: 2,
	model.IntentGenerate: 3,
	model.IntentExplain:  4,
}

// Best returns the highest-scoring intent and its confidence, ties
// broken by intentPriority, or (model.DefaultIntent, 0, false) if the
// result has no scored intents.
func (r *StageResult) Best() (model.Intent, float64, bool) {
	if r == nil || len(r.Scores) == 0 {
		return model.DefaultIntent, 0, false
	}

	var best model.Intent
	var bestScore float64
	found := false
	for intent, score := range r.Scores {
		switch {
		case !found:
			best, bestScore, found = intent, score, true
		case score > bestScore:
			best, bestScore = intent, score
		case score == bestScore && intentPriority[intent] < intentPriority[best]:
			best = intent
		}
	}
	return best, bestScore, found
}

// Classifier runs its configured stages in order and returns the first
// result clearing DefaultConfidenceFloor, falling back to
// model.DefaultIntent otherwise. v1 wires exactly one stage
// (LexicalClassifier), but the loop supports adding more without changing
// callers.
type Classifier struct {
	stages []Stage
}

// New constructs a Classifier over stages, run in the given order.
func New(stages ...Stage) *Classifier {
	return &Classifier{stages: stages}
}

// Classify returns the resolved intent and its confidence. It is
// deterministic and side-effect-free: identical request text always
// produces the identical result, independent of call history.
func (c *Classifier) Classify(ctx context.Context, request string) (model.Classification, error) {
	for _, stage := range c.stages {
		result, err := stage.Classify(ctx, request)
		if err != nil {
			return model.Classification{}, err
		}
		intent, confidence, found := result.Best()
		if found && confidence >= DefaultConfidenceFloor {
			return model.Classification{Intent: intent, Confidence: confidence, Method: result.Method}, nil
		}
	}
	return model.Classification{Intent: model.DefaultIntent, Confidence: 0, Method: "default"}, nil
}
