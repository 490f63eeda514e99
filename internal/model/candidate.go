package model

// Method enumerates the closed set of retrieval methods that can produce a
// Candidate.
type Method string

const (
	MethodSemantic    Method = "semantic"
	MethodLexical     Method = "lexical"
	MethodDependency  Method = "dependency"
	MethodRecentEdits Method = "recent_edits"
)

// Candidate is a chunk annotated with retrieval provenance and score.
type Candidate struct {
	Chunk

	Score     float64
	Method    Method
	RawScore  float64
	// MatchedTerms is populated by the lexical retriever only.
	MatchedTerms []string
	// DepDepth is populated by the dependency retriever only.
	DepDepth *int
	// DiversityPenalty is the multiplier the ranker applied to this
	// candidate's final score, recorded for auditability.
	DiversityPenalty float64
}

// Query is the shared retrieval request contract every retriever accepts.
type Query struct {
	Text         string
	Limit        int
	MinScore     *float64 // nil selects the retriever's own default
	FilePatterns []string
	Languages    []string
	Intent       Intent
}
