// Package chunker splits file content into symbol-scoped spans, one per
// top-level declaration (function, method, class/type, block), and
// falls back to fixed-stride line windows for files no registered
// language parser can handle.
package chunker

// Symbol is one parsed declaration: a name, a kind, and the 1-indexed
// line range it spans.
type Symbol struct {
	Name      string
	Kind      string
	LineStart int
	LineEnd   int
}

// LanguageParser extracts top-level symbol spans from one file's
// content. Implementations are best-effort: a parser that cannot make
// sense of the content returns ok=false rather than an error, so the
// caller falls back to fixed-stride chunking.
type LanguageParser interface {
	Language() string
	Extensions() []string
	Parse(content string) ([]Symbol, bool)
}

// Registry dispatches to a LanguageParser by file extension.
type Registry struct {
	byExtension map[string]LanguageParser
}

// NewRegistry returns a registry pre-populated with every parser this
// package ships.
func NewRegistry() *Registry {
	r := &Registry{byExtension: make(map[string]LanguageParser)}
	for _, p := range []LanguageParser{
		NewGoParser(),
		NewHeuristicParser("python", []string{".py"}, pythonHeaderPrefixes),
		NewHeuristicParser("typescript", []string{".ts", ".tsx", ".js", ".jsx"}, typescriptHeaderPrefixes),
		NewHeuristicParser("markdown", []string{".md", ".markdown"}, nil),
	} {
		for _, ext := range p.Extensions() {
			r.byExtension[ext] = p
		}
	}
	return r
}

// For looks up the parser registered for ext (including the leading
// dot), returning ok=false if none is registered.
func (r *Registry) For(ext string) (LanguageParser, bool) {
	p, ok := r.byExtension[ext]
	return p, ok
}
