package engine

import "errors"

// Error taxonomy at the engine boundary, per the spec's external
// interface contract. Internal packages raise their own richer errors;
// the façade maps them down to this closed set before returning to
// callers.
var (
	// ErrInvalidBudget is returned when token_budget is non-positive or
	// leaves no room for input after fixed overhead.
	ErrInvalidBudget = errors.New("engine: invalid budget")

	// ErrNotInitialized is returned when Query is called before
	// Initialize, or after Dispose.
	ErrNotInitialized = errors.New("engine: not initialized")

	// ErrCancelled is returned when a query's cancellation signal fires
	// before the pipeline completes.
	ErrCancelled = errors.New("engine: cancelled")

	// ErrDeadlineExceeded is returned when a query's wall-clock
	// deadline expires before retrieval produces any candidates.
	ErrDeadlineExceeded = errors.New("engine: deadline exceeded")

	// ErrIndexUnavailable is returned when any store cannot be opened,
	// or the embedding provider cannot be built, during Initialize.
	ErrIndexUnavailable = errors.New("engine: index unavailable")

	// ErrEmbeddingProviderFailed names an embedding provider failure.
	// Query does not return it: a semantic retriever that cannot embed
	// the query text is treated like any other failed retriever and
	// contributes no candidates.
	ErrEmbeddingProviderFailed = errors.New("engine: embedding provider failed")

	// ErrPackingInvariantViolated indicates the packer emitted a result
	// exceeding its budget, an internal bug rather than a user error.
	ErrPackingInvariantViolated = errors.New("engine: packing invariant violated")
)
