package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// LocalDimensions is the vector length LocalHashProvider produces.
const LocalDimensions = 384

// LocalIdentity is the fixed identity string LocalHashProvider reports;
// it never changes across runs, since the embedding is a pure function
// of its input text and this code.
const LocalIdentity = "local-hash-v1"

// LocalHashProvider is the default, network-free embedding provider: a
// deterministic feature-hashing scheme over token and trigram features,
// each hashed into multiple signed buckets of a fixed-dimensional
// vector (the "hashing trick"), then unit-normalized. Re-embedding
// identical content always produces an identical vector, satisfying the
// provider contract without a remote model call.
type LocalHashProvider struct{}

// NewLocalHashProvider returns the default embedding provider.
func NewLocalHashProvider() *LocalHashProvider {
	return &LocalHashProvider{}
}

func (p *LocalHashProvider) Identity() string { return LocalIdentity }
func (p *LocalHashProvider) Dimensions() int  { return LocalDimensions }

func (p *LocalHashProvider) Embed(_ context.Context, text string) ([]float32, error) {
	return embedHash(text), nil
}

func (p *LocalHashProvider) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = embedHash(text)
	}
	return out, nil
}

// hashesPerFeature controls how many buckets each feature is scattered
// into; higher counts reduce hash-collision noise at the cost of more
// arithmetic per feature.
const hashesPerFeature = 4

func embedHash(text string) []float32 {
	vec := make([]float32, LocalDimensions)

	tokens := tokenize(text)
	trigrams := ngrams(text, 3)

	addFeatures(vec, tokens, 0.6)
	addFeatures(vec, trigrams, 0.4)

	normalize(vec)
	return vec
}

func addFeatures(vec []float32, features []string, weight float64) {
	if len(features) == 0 {
		return
	}
	w := float32(weight / math.Sqrt(float64(len(features))))
	for _, f := range features {
		seed := fnvHash64(f)
		indices, signs := multiHash(seed, len(vec), hashesPerFeature)
		for i, idx := range indices {
			vec[idx] += w * signs[i]
		}
	}
}

func tokenize(text string) []string {
	lower := strings.ToLower(text)
	var tokens []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			current.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

func ngrams(text string, n int) []string {
	lower := strings.ToLower(text)
	if len(lower) < n {
		return nil
	}
	out := make([]string, 0, len(lower)-n+1)
	for i := 0; i <= len(lower)-n; i++ {
		out = append(out, lower[i:i+n])
	}
	return out
}

func fnvHash64(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// multiHash derives count distinct bucket indices and +1/-1 signs from
// seed via a fixed linear-congruential step, the standard hashing-trick
// construction for avoiding a single collision-prone hash per feature.
func multiHash(seed uint64, dim, count int) ([]int, []float32) {
	indices := make([]int, count)
	signs := make([]float32, count)
	state := seed
	for i := 0; i < count; i++ {
		state = state*6364136223846793005 + 1442695040888963407
		indices[i] = int(state % uint64(dim))
		if (state>>63)&1 == 1 {
			signs[i] = 1
		} else {
			signs[i] = -1
		}
	}
	return indices, signs
}

func normalize(vec []float32) {
	var mag float64
	for _, v := range vec {
		mag += float64(v) * float64(v)
	}
	if mag == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(mag))
	for i := range vec {
		vec[i] *= inv
	}
}
