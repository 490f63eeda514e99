package chunker

import "strings"

// Fixed chunking constants. No learned chunk-size or overflow-strategy
// model is used: every span this package produces is sized by these
// constants alone.
const (
	strideLines   = 40
	strideOverlap = 10
	maxSpanLines  = 200
	maxSpanBytes  = 4 * 1024
)

// Span is a line range within a file's content, 1-indexed and
// inclusive, plus the symbol metadata it was derived from (zero-valued
// for stride-fallback spans).
type Span struct {
	Name      string
	Kind      string
	LineStart int
	LineEnd   int
}

// BuildSpans produces the final list of chunk-worthy spans for content:
// symbol-scoped spans from parser if it succeeds, or fixed-stride
// windows otherwise, with every resulting span then split down to the
// maximum size if it exceeds it.
func BuildSpans(content string, parser LanguageParser) []Span {
	lines := strings.Split(content, "\n")

	var base []Span
	if parser != nil {
		if symbols, ok := parser.Parse(content); ok {
			base = make([]Span, len(symbols))
			for i, s := range symbols {
				base[i] = Span{Name: s.Name, Kind: s.Kind, LineStart: s.LineStart, LineEnd: s.LineEnd}
			}
		}
	}
	if base == nil {
		base = strideSpans(len(lines))
	}

	var out []Span
	for _, span := range base {
		out = append(out, splitOversize(span, lines)...)
	}
	return out
}

// strideSpans produces fixed-stride line windows covering every line of
// a totalLines-line file, stride 40 with a 10-line overlap between
// consecutive windows.
func strideSpans(totalLines int) []Span {
	if totalLines == 0 {
		return nil
	}
	var spans []Span
	step := strideLines - strideOverlap
	for start := 1; start <= totalLines; start += step {
		end := start + strideLines - 1
		if end > totalLines {
			end = totalLines
		}
		spans = append(spans, Span{Kind: "block", LineStart: start, LineEnd: end})
		if end == totalLines {
			break
		}
	}
	return spans
}

// splitOversize recursively splits span at blank-line boundaries until
// every resulting piece is within maxSpanLines lines and maxSpanBytes
// bytes.
func splitOversize(span Span, lines []string) []Span {
	if fitsLimit(span, lines) {
		return []Span{span}
	}

	blankLine := findMiddleBlankLine(span, lines)
	if blankLine == 0 {
		// No blank line to split on; fall back to a hard midpoint cut
		// so oversize spans still terminate.
		blankLine = (span.LineStart + span.LineEnd) / 2
		if blankLine <= span.LineStart {
			return []Span{span}
		}
	}

	first := Span{Name: span.Name, Kind: span.Kind, LineStart: span.LineStart, LineEnd: blankLine}
	second := Span{Name: span.Name, Kind: span.Kind, LineStart: blankLine + 1, LineEnd: span.LineEnd}
	if second.LineStart > second.LineEnd {
		return []Span{span}
	}

	return append(splitOversize(first, lines), splitOversize(second, lines)...)
}

func fitsLimit(span Span, lines []string) bool {
	lineCount := span.LineEnd - span.LineStart + 1
	if lineCount > maxSpanLines {
		return false
	}
	return byteLen(span, lines) <= maxSpanBytes
}

func byteLen(span Span, lines []string) int {
	total := 0
	for i := span.LineStart - 1; i < span.LineEnd && i < len(lines); i++ {
		if i < 0 {
			continue
		}
		total += len(lines[i]) + 1 // account for the stripped newline
	}
	return total
}

// findMiddleBlankLine returns the blank line closest to span's midpoint,
// or 0 if none exists strictly inside the span.
func findMiddleBlankLine(span Span, lines []string) int {
	mid := (span.LineStart + span.LineEnd) / 2
	for offset := 0; offset <= span.LineEnd-span.LineStart; offset++ {
		for _, candidate := range []int{mid - offset, mid + offset} {
			if candidate <= span.LineStart || candidate >= span.LineEnd {
				continue
			}
			if candidate-1 >= 0 && candidate-1 < len(lines) && strings.TrimSpace(lines[candidate-1]) == "" {
				return candidate
			}
		}
	}
	return 0
}
