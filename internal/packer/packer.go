// Package packer turns a ranked candidate list into a token-bounded
// ContextResult: a list of ContextItems that fits within a fixed
// context budget, truncating or omitting trailing candidates as needed.
package packer

import (
	"context"
	"fmt"

	"github.com/nilreef/ctxengine/internal/model"
	"github.com/nilreef/ctxengine/internal/tokenizer"
)

const (
	separator = "\n\n---\n\n"

	// truncationMarker is appended to content that was cut to fit.
	truncationMarker = "\n\n[... truncated ...]"

	// minTruncationBudget is the smallest remaining budget (in tokens)
	// worth truncating into; below it an item is dropped outright.
	minTruncationBudget = 100

	// charsPerTokenEstimate approximates characters-per-token when
	// converting a token budget into a character cut point for content
	// truncation, mirroring the tokenizer's own character-based
	// estimator fallback ratio.
	charsPerTokenEstimate = 4
)

// TraceEntry records one candidate's packing disposition, for
// test/CLI-only auditability; production callers may ignore it.
type TraceEntry struct {
	FilePath  string
	Accepted  bool
	Truncated bool
	Tokens    int
}

// PackingTrace is the ordered record of every packing decision made for
// one Pack call.
type PackingTrace []TraceEntry

// Pack formats ranked candidates into ContextItems in order, accepting
// each fully while it fits the remaining budget, truncating the last
// item that partially fits, and stopping once nothing more can fit.
// The returned tokens_used is always re-measured against tok and is
// guaranteed not to exceed contextBudget.
func Pack(ctx context.Context, tok tokenizer.Tokenizer, family tokenizer.ModelFamily, candidates []model.Candidate, contextBudget int) ([]model.ContextItem, uint32, PackingTrace) {
	items := make([]model.ContextItem, 0, len(candidates))
	trace := make(PackingTrace, 0, len(candidates))

	remaining := contextBudget
	for _, c := range candidates {
		name := c.FilePath
		description := fmt.Sprintf("score=%.4f method=%s", c.Score, c.Method)
		content := formatContent(c, "")

		nameTokens := int(tok.Count(ctx, family, name).Tokens)
		descTokens := int(tok.Count(ctx, family, description).Tokens)
		contentTokens := int(tok.Count(ctx, family, content).Tokens)
		sepTokens := int(tok.Count(ctx, family, separator).Tokens)

		overhead := nameTokens + descTokens + sepTokens
		itemTokens := overhead + contentTokens

		if itemTokens <= remaining {
			items = append(items, model.ContextItem{Name: name, Description: description, Content: content})
			trace = append(trace, TraceEntry{FilePath: name, Accepted: true, Tokens: itemTokens})
			remaining -= itemTokens
			continue
		}

		if remaining <= minTruncationBudget {
			trace = append(trace, TraceEntry{FilePath: name, Accepted: false, Tokens: itemTokens})
			break
		}

		contentBudget := remaining - overhead
		truncatedContent := truncateContent(c, contentBudget)
		truncatedTokens := int(tok.Count(ctx, family, truncatedContent).Tokens)
		for overhead+truncatedTokens > remaining && contentBudget > 0 {
			shrunk := contentBudget * (remaining - overhead) / (truncatedTokens + 1)
			if shrunk >= contentBudget {
				shrunk = contentBudget - 1
			}
			contentBudget = shrunk
			truncatedContent = truncateContent(c, contentBudget)
			truncatedTokens = int(tok.Count(ctx, family, truncatedContent).Tokens)
		}
		if overhead+truncatedTokens > remaining {
			trace = append(trace, TraceEntry{FilePath: name, Accepted: false, Tokens: itemTokens})
			break
		}

		items = append(items, model.ContextItem{Name: name, Description: description, Content: truncatedContent})
		trace = append(trace, TraceEntry{FilePath: name, Accepted: true, Truncated: true, Tokens: overhead + truncatedTokens})
		remaining -= overhead + truncatedTokens
		break
	}

	return items, measureTotal(ctx, tok, family, items), trace
}

// formatContent builds the "File: ...\nLines a-b\n<excerpt>" block,
// omitting the Lines header when the chunk has no line range, with an
// optional suffix (a truncation marker) appended after the excerpt.
func formatContent(c model.Candidate, suffix string) string {
	header := fmt.Sprintf("File: %s\n", c.FilePath)
	if !c.LineRange.IsZero() {
		header += fmt.Sprintf("Lines %d-%d\n", c.LineRange.Start, c.LineRange.End)
	}
	return header + c.Content + suffix
}

// truncateContent rebuilds the content block with the excerpt cut to
// approximately contentBudget*charsPerTokenEstimate characters, plus
// the truncation marker.
func truncateContent(c model.Candidate, contentBudget int) string {
	maxChars := contentBudget * charsPerTokenEstimate
	if maxChars < 0 {
		maxChars = 0
	}
	excerpt := c.Content
	if len(excerpt) > maxChars {
		excerpt = excerpt[:maxChars]
	}
	truncated := c
	truncated.Content = excerpt
	return formatContent(truncated, truncationMarker)
}

// measureTotal re-measures the full packed result (every item's
// name+description+content plus the separators between them) against
// the tokenizer, the hard re-check the spec requires before returning.
func measureTotal(ctx context.Context, tok tokenizer.Tokenizer, family tokenizer.ModelFamily, items []model.ContextItem) uint32 {
	var total uint32
	for i, item := range items {
		total += tok.Count(ctx, family, item.Name).Tokens
		total += tok.Count(ctx, family, item.Description).Tokens
		total += tok.Count(ctx, family, item.Content).Tokens
		if i > 0 {
			total += tok.Count(ctx, family, separator).Tokens
		}
	}
	return total
}
