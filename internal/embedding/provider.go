// Package embedding converts chunk/query text into fixed-dimensional
// vectors. Providers declare an identity (model + version); the engine
// persists that identity in the vector store header and rebuilds the
// index from scratch whenever the configured provider's identity no
// longer matches what is on disk, rather than serve vectors produced by
// a different embedding space.
package embedding

import "context"

// Provider embeds text into float32[D] vectors, where D is fixed per
// provider instance.
type Provider interface {
	// Identity names the model and version that produced embeddings
	// from this provider, e.g. "local-hash-v1" or "claude-embed-v1".
	Identity() string
	// Dimensions is the fixed vector length D this provider produces.
	Dimensions() int
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
