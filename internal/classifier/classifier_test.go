package classifier

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nilreef/ctxengine/internal/model"
)

func TestLexicalClassifier_BugFixKeywords(t *testing.T) {
	lc := NewLexicalClassifier()
	c := New(lc)

	result, err := c.Classify(context.Background(), "why does test_login fail with AssertionError?")
	require.NoError(t, err)
	assert.Equal(t, model.IntentBugFix, result.Intent)
	assert.Greater(t, result.Confidence, 0.0)
}

func TestLexicalClassifier_RefactorKeywords(t *testing.T) {
	lc := NewLexicalClassifier()
	c := New(lc)

	result, err := c.Classify(context.Background(), "refactor this function to simplify the branching")
	require.NoError(t, err)
	assert.Equal(t, model.IntentRefactor, result.Intent)
}

func TestLexicalClassifier_NoMatchFallsBackToDefault(t *testing.T) {
	lc := NewLexicalClassifier()
	c := New(lc)

	result, err := c.Classify(context.Background(), "zzz qux flibbertigibbet")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultIntent, result.Intent)
	assert.Equal(t, 0.0, result.Confidence)
	assert.Equal(t, "default", result.Method)
}

func TestLexicalClassifier_EmptyRequestFallsBackToDefault(t *testing.T) {
	lc := NewLexicalClassifier()
	c := New(lc)

	result, err := c.Classify(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultIntent, result.Intent)
}

func TestLexicalClassifier_Deterministic(t *testing.T) {
	lc := NewLexicalClassifier()
	c := New(lc)

	query := "generate a new endpoint to create users"
	first, err := c.Classify(context.Background(), query)
	require.NoError(t, err)
	second, err := c.Classify(context.Background(), query)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestStageResult_BestBreaksTiesByPriority(t *testing.T) {
	r := NewStageResult("lexical")
	r.Scores[model.IntentExplain] = 0.5
	r.Scores[model.IntentBugFix] = 0.5

	intent, confidence, found := r.Best()
	assert.True(t, found)
	assert.Equal(t, model.IntentBugFix, intent)
	assert.Equal(t, 0.5, confidence)
}

func TestStageResult_BestOnEmptyResult(t *testing.T) {
	r := NewStageResult("lexical")
	intent, confidence, found := r.Best()
	assert.False(t, found)
	assert.Equal(t, model.DefaultIntent, intent)
	assert.Equal(t, 0.0, confidence)
}
