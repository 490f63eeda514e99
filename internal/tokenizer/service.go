package tokenizer

import "context"

// DefaultTokenizer counts tokens with a BPE merge table when one is
// registered for the requested family, and falls back to the character
// estimator otherwise. It is the Tokenizer every pipeline component
// should depend on; wrap it in NewCachingTokenizer at the call site that
// owns the process-wide cache.
type DefaultTokenizer struct {
	fallback *EstimatorTokenizer
}

// NewDefaultTokenizer returns the BPE-backed tokenizer with estimator
// fallback.
func NewDefaultTokenizer() *DefaultTokenizer {
	return &DefaultTokenizer{fallback: NewEstimatorTokenizer()}
}

func (d *DefaultTokenizer) Count(ctx context.Context, family ModelFamily, text string) Result {
	if tokens, ok := bpeCount(family, text); ok {
		return Result{Tokens: tokens, Degraded: false}
	}
	return d.fallback.Count(ctx, family, text)
}

func (d *DefaultTokenizer) CountBatch(ctx context.Context, family ModelFamily, texts []string) []Result {
	results := make([]Result, len(texts))
	for i, text := range texts {
		results[i] = d.Count(ctx, family, text)
	}
	return results
}
