package budget

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nilreef/ctxengine/internal/model"
)

func TestAllocate_ExplainIntentUsesItsPercentages(t *testing.T) {
	alloc, err := Allocate(1000, 100, model.IntentExplain)
	require.NoError(t, err)

	available := 1000 - SystemTokens - Reserved - 100
	assert.Equal(t, clamp(available*60/100, MinContext, MaxContext), alloc.Context)
	assert.Equal(t, available*5/100, alloc.Task)
	assert.Equal(t, 100, alloc.Input)
	assert.Equal(t, SystemTokens, alloc.System)
	assert.Equal(t, 1000-alloc.System-alloc.Input-alloc.Context-alloc.Task-Reserved, alloc.Output)
}

func TestAllocate_UnknownIntentFallsBackToDefaultPercentages(t *testing.T) {
	alloc, err := Allocate(1000, 100, model.Intent("unknown"))
	require.NoError(t, err)

	available := 1000 - SystemTokens - Reserved - 100
	assert.Equal(t, clamp(available*50/100, MinContext, MaxContext), alloc.Context)
	assert.Equal(t, available*10/100, alloc.Task)
}

func TestAllocate_ContextClampedToMinWhenAvailableIsSmall(t *testing.T) {
	alloc, err := Allocate(90, 10, model.IntentGenerate)
	require.NoError(t, err)
	// available = 90-50-10-10 = 20; context_pct 40% of 20 = 8, clamped up to MinContext.
	assert.Equal(t, MinContext, alloc.Context)
}

func TestAllocate_ContextClampedToMaxWhenAvailableIsHuge(t *testing.T) {
	alloc, err := Allocate(1_000_000, 0, model.IntentExplain)
	require.NoError(t, err)
	assert.Equal(t, MaxContext, alloc.Context)
}

func TestAllocate_ReturnsInsufficientBudgetWhenAvailableIsNotPositive(t *testing.T) {
	_, err := Allocate(50, 0, model.IntentExplain)
	assert.ErrorIs(t, err, ErrInsufficientBudget)

	_, err = Allocate(60, 100, model.IntentExplain)
	assert.ErrorIs(t, err, ErrInsufficientBudget)
}

func TestAllocate_OutputNeverGoesNegative(t *testing.T) {
	alloc, err := Allocate(100, 5, model.IntentExplain)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, alloc.Output, 0)
}
