// Package budget allocates a fixed token budget across the sections of
// a packed prompt, per intent.
package budget

import (
	"errors"

	"github.com/nilreef/ctxengine/internal/model"
)

// Fixed constants, not configurable per §4.11.
const (
	SystemTokens = 50
	Reserved     = 10
	MinContext   = 20
	MaxContext   = 8000
)

// ErrInsufficientBudget is returned when the total budget cannot even
// cover the fixed system/reserved overhead plus the caller's input.
var ErrInsufficientBudget = errors.New("budget: insufficient budget for input")

// Allocation is the token count assigned to each section of the final
// packed prompt.
type Allocation struct {
	System  int
	Context int
	Task    int
	Input   int
	Output  int
}

type percentages struct {
	context int
	task    int
}

var percentagesByIntent = map[model.Intent]percentages{
	model.IntentExplain:  {context: 60, task: 5},
	model.IntentBugFix:   {context: 50, task: 10},
	model.IntentRefactor: {context: 55, task: 10},
	model.IntentGenerate: {context: 40, task: 10},
	model.IntentTest:     {context: 50, task: 10},
}

var defaultPercentages = percentages{context: 50, task: 10}

// Allocate computes the per-section token allocation for a query with
// the given intent, total budget, and already-known input token count.
func Allocate(totalBudget, inputTokens int, intent model.Intent) (Allocation, error) {
	available := totalBudget - SystemTokens - Reserved - inputTokens
	if available <= 0 {
		return Allocation{}, ErrInsufficientBudget
	}

	pct, ok := percentagesByIntent[intent]
	if !ok {
		pct = defaultPercentages
	}

	contextTokens := clamp(available*pct.context/100, MinContext, MaxContext)
	taskTokens := available * pct.task / 100

	outputTokens := totalBudget - SystemTokens - inputTokens - contextTokens - taskTokens - Reserved
	if outputTokens < 0 {
		outputTokens = 0
	}

	return Allocation{
		System:  SystemTokens,
		Context: contextTokens,
		Task:    taskTokens,
		Input:   inputTokens,
		Output:  outputTokens,
	}, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
