package chunker

import (
	"strings"
)

// headerPrefix pairs a line prefix (after trimming leading whitespace)
// with the symbol kind it introduces.
type headerPrefix struct {
	prefix string
	kind   string
}

var pythonHeaderPrefixes = []headerPrefix{
	{"def ", "function"},
	{"async def ", "function"},
	{"class ", "class"},
}

var typescriptHeaderPrefixes = []headerPrefix{
	{"function ", "function"},
	{"export function ", "function"},
	{"async function ", "function"},
	{"export async function ", "function"},
	{"class ", "class"},
	{"export class ", "class"},
	{"interface ", "interface"},
	{"export interface ", "interface"},
	{"export default function ", "function"},
}

// HeuristicParser extracts top-level symbol spans by matching each
// line's indentation and prefix against a fixed keyword list, the same
// prefix-matching approach the teacher's parsePartialLine fallback uses
// for Go source it could not fully AST-parse. It is the only parser a
// non-AST language gets here; Markdown uses it with no prefix list,
// splitting on heading lines instead (see parseHeadings).
type HeuristicParser struct {
	language   string
	extensions []string
	headers    []headerPrefix
}

// NewHeuristicParser returns a prefix-matching parser for language,
// registered under extensions. A nil or empty headers list selects
// Markdown-style heading splitting instead of keyword matching.
func NewHeuristicParser(language string, extensions []string, headers []headerPrefix) *HeuristicParser {
	return &HeuristicParser{language: language, extensions: extensions, headers: headers}
}

func (p *HeuristicParser) Language() string     { return p.language }
func (p *HeuristicParser) Extensions() []string { return p.extensions }

func (p *HeuristicParser) Parse(content string) ([]Symbol, bool) {
	if len(p.headers) == 0 {
		return p.parseHeadings(content)
	}
	return p.parseKeywordHeaders(content)
}

// parseKeywordHeaders finds every top-level (unindented) line matching
// one of p.headers and spans it to the line before the next such match,
// or EOF.
func (p *HeuristicParser) parseKeywordHeaders(content string) ([]Symbol, bool) {
	lines := strings.Split(content, "\n")

	type open struct {
		name string
		kind string
		line int
	}
	var current *open
	var symbols []Symbol

	closeCurrent := func(endLine int) {
		if current == nil {
			return
		}
		symbols = append(symbols, Symbol{Name: current.name, Kind: current.kind, LineStart: current.line, LineEnd: endLine})
		current = nil
	}

	for i, line := range lines {
		lineNum := i + 1
		if isIndented(line) {
			continue
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		matched := false
		for _, h := range p.headers {
			if strings.HasPrefix(trimmed, h.prefix) {
				closeCurrent(lineNum - 1)
				current = &open{name: symbolNameAfter(trimmed, h.prefix), kind: h.kind, line: lineNum}
				matched = true
				break
			}
		}
		_ = matched
	}
	closeCurrent(len(lines))

	if len(symbols) == 0 {
		return nil, false
	}
	return symbols, true
}

// parseHeadings splits Markdown-style content on "#" heading lines.
func (p *HeuristicParser) parseHeadings(content string) ([]Symbol, bool) {
	lines := strings.Split(content, "\n")

	type open struct {
		name string
		line int
	}
	var current *open
	var symbols []Symbol

	closeCurrent := func(endLine int) {
		if current == nil {
			return
		}
		symbols = append(symbols, Symbol{Name: current.name, Kind: "section", LineStart: current.line, LineEnd: endLine})
		current = nil
	}

	for i, line := range lines {
		lineNum := i + 1
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "#") {
			continue
		}
		closeCurrent(lineNum - 1)
		current = &open{name: strings.TrimSpace(strings.TrimLeft(trimmed, "#")), line: lineNum}
	}
	closeCurrent(len(lines))

	if len(symbols) == 0 {
		return nil, false
	}
	return symbols, true
}

func isIndented(line string) bool {
	return len(line) > 0 && (line[0] == ' ' || line[0] == '\t')
}

// symbolNameAfter extracts the identifier immediately following prefix,
// stopping at the first character that cannot be part of an identifier
// or type parameter/argument list.
func symbolNameAfter(trimmed, prefix string) string {
	rest := strings.TrimPrefix(trimmed, prefix)
	for i, r := range rest {
		if !(r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return rest[:i]
		}
	}
	return rest
}
