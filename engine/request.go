package engine

import "github.com/nilreef/ctxengine/internal/model"

// Selection is a 0-based character range within ActiveFile, when the
// caller has one (an editor selection).
type Selection struct {
	Start int
	End   int
}

// Request is one query into the context engine.
type Request struct {
	Input string
	// Intent overrides automatic classification when set; nil lets the
	// classifier decide.
	Intent *model.Intent
	// TokenBudget is the total token budget for the whole response,
	// fixed overhead and output included. Must be > 0.
	TokenBudget uint32
	ActiveFile  string
	Selection   *Selection
}
