package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nilreef/ctxengine/internal/model"
)

func TestSelect_WeightsSumToAtMostOne(t *testing.T) {
	for _, intent := range []model.Intent{
		model.IntentExplain, model.IntentBugFix, model.IntentRefactor,
		model.IntentGenerate, model.IntentTest,
	} {
		plan := Select(intent)
		var sum float64
		for _, w := range plan.Weights {
			sum += w
		}
		assert.LessOrEqual(t, sum, 1.0+1e-9, "intent %s weights sum to %v", intent, sum)
		assert.Len(t, plan.Methods, len(plan.Weights))
	}
}

func TestSelect_BugFixPrioritizesRecentEdits(t *testing.T) {
	plan := Select(model.IntentBugFix)
	assert.Equal(t, model.MethodRecentEdits, plan.Methods[0])
}

func TestSelect_UnknownIntentFallsBackToDefault(t *testing.T) {
	plan := Select(model.Intent("nonsense"))
	assert.Equal(t, Select(model.DefaultIntent), plan)
}
