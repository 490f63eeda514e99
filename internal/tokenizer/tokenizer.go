// Package tokenizer counts tokens for budget allocation and packing.
// Counts come from a small hand-curated BPE merge table per model family
// (see bpe.go); they approximate each family's token density and are not
// guaranteed to equal the count the downstream model charges. Counts from
// the character-based estimator fallback are flagged by Result.Degraded.
package tokenizer

import "context"

// ModelFamily selects a byte-pair encoding table.
type ModelFamily string

const (
	FamilyClaude ModelFamily = "claude"
	FamilyGPT    ModelFamily = "gpt"
	FamilyGemini ModelFamily = "gemini"
)

// Result is the outcome of a Count call.
type Result struct {
	Tokens uint32
	// Degraded is true when the count came from the character-based
	// estimator fallback rather than a family's BPE merge table, per the spec's
	// open question on tokenizer fidelity.
	Degraded bool
}

// Tokenizer counts tokens for a declared model family. Implementations
// must be total: there is no failure mode for tokenization.
type Tokenizer interface {
	Count(ctx context.Context, family ModelFamily, text string) Result
	CountBatch(ctx context.Context, family ModelFamily, texts []string) []Result
}
