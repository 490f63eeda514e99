package packer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nilreef/ctxengine/internal/model"
	"github.com/nilreef/ctxengine/internal/tokenizer"
)

func candidate(filePath string, start, end int, content string, score float64) model.Candidate {
	return model.Candidate{
		Chunk: model.Chunk{
			FilePath:  filePath,
			Content:   content,
			LineRange: model.LineRange{Start: start, End: end},
		},
		Score:  score,
		Method: model.MethodSemantic,
	}
}

func newTok() tokenizer.Tokenizer {
	return tokenizer.NewDefaultTokenizer()
}

func TestPack_AcceptsItemsThatFitWithinBudget(t *testing.T) {
	tok := newTok()
	candidates := []model.Candidate{
		candidate("a.go", 1, 5, "func A() {}", 0.9),
		candidate("b.go", 1, 5, "func B() {}", 0.8),
	}

	items, tokensUsed, trace := Pack(context.Background(), tok, tokenizer.FamilyClaude, candidates, 500)
	require.Len(t, items, 2)
	assert.Equal(t, "a.go", items[0].Name)
	assert.Contains(t, items[0].Content, "File: a.go")
	assert.Contains(t, items[0].Content, "Lines 1-5")
	assert.LessOrEqual(t, tokensUsed, uint32(500))
	assert.True(t, trace[0].Accepted)
	assert.False(t, trace[0].Truncated)
}

func TestPack_OmitsLinesHeaderWhenLineRangeAbsent(t *testing.T) {
	tok := newTok()
	c := model.Candidate{
		Chunk: model.Chunk{FilePath: "whole.go", Content: "package whole"},
	}

	items, _, _ := Pack(context.Background(), tok, tokenizer.FamilyClaude, []model.Candidate{c}, 500)
	require.Len(t, items, 1)
	assert.NotContains(t, items[0].Content, "Lines")
	assert.Contains(t, items[0].Content, "File: whole.go")
}

func TestPack_NeverExceedsContextBudget(t *testing.T) {
	tok := newTok()
	var candidates []model.Candidate
	for i := 0; i < 20; i++ {
		candidates = append(candidates, candidate("big.go", i*10, i*10+9, strings.Repeat("word ", 200), 1.0-float64(i)*0.01))
	}

	_, tokensUsed, _ := Pack(context.Background(), tok, tokenizer.FamilyClaude, candidates, 300)
	assert.LessOrEqual(t, tokensUsed, uint32(300))
}

func TestPack_TruncatesLastItemThatPartiallyFits(t *testing.T) {
	tok := newTok()
	big := candidate("huge.go", 1, 5000, strings.Repeat("lorem ipsum dolor sit amet ", 2000), 1.0)

	items, tokensUsed, trace := Pack(context.Background(), tok, tokenizer.FamilyClaude, []model.Candidate{big}, 1200)
	require.Len(t, items, 1)
	assert.True(t, strings.HasSuffix(items[0].Content, truncationMarker))
	assert.LessOrEqual(t, tokensUsed, uint32(1200))
	assert.True(t, trace[0].Truncated)
}

func TestPack_DropsItemWhenRemainingBudgetTooSmallToTruncateInto(t *testing.T) {
	tok := newTok()
	first := candidate("a.go", 1, 5, strings.Repeat("x", 4000), 0.9)
	second := candidate("b.go", 1, 5, "short", 0.8)

	items, tokensUsed, trace := Pack(context.Background(), tok, tokenizer.FamilyClaude, []model.Candidate{first, second}, 50)
	assert.Empty(t, items)
	assert.Equal(t, uint32(0), tokensUsed)
	require.Len(t, trace, 1)
	assert.False(t, trace[0].Accepted)
}

func TestPack_EmptyCandidatesProducesEmptyResult(t *testing.T) {
	tok := newTok()
	items, tokensUsed, trace := Pack(context.Background(), tok, tokenizer.FamilyClaude, nil, 500)
	assert.Empty(t, items)
	assert.Equal(t, uint32(0), tokensUsed)
	assert.Empty(t, trace)
}
