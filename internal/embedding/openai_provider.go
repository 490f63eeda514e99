package embedding

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIConfig configures the remote OpenAI embedding provider.
type OpenAIConfig struct {
	APIKey    string
	Model     string
	BaseURL   string
	BatchSize int
}

// DefaultOpenAIConfig mirrors the teacher's DefaultXConfig helpers
// (core/providers/*.go): every remote provider ships defaults so a
// caller only has to set APIKey.
func DefaultOpenAIConfig() OpenAIConfig {
	return OpenAIConfig{
		Model:     "text-embedding-3-small",
		BatchSize: 128,
	}
}

var openAIDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
}

// OpenAIProvider embeds text via OpenAI's embeddings endpoint. Requests
// are chunked to config.BatchSize and retried with backoff, the same
// batch-then-retry shape as the teacher's Voyage embedder.
type OpenAIProvider struct {
	client     openai.Client
	config     OpenAIConfig
	dimensions int
}

// NewOpenAIProvider constructs a remote OpenAI embedding provider.
func NewOpenAIProvider(config OpenAIConfig) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("embedding: openai: APIKey is required")
	}
	if config.Model == "" {
		config.Model = DefaultOpenAIConfig().Model
	}
	if config.BatchSize == 0 {
		config.BatchSize = DefaultOpenAIConfig().BatchSize
	}

	dim, ok := openAIDimensions[config.Model]
	if !ok {
		return nil, fmt.Errorf("embedding: openai: unsupported model %q", config.Model)
	}

	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &OpenAIProvider{
		client:     openai.NewClient(opts...),
		config:     config,
		dimensions: dim,
	}, nil
}

func (p *OpenAIProvider) Identity() string {
	return "openai:" + p.config.Model
}

func (p *OpenAIProvider) Dimensions() int { return p.dimensions }

func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedding: openai: empty response")
	}
	return vectors[0], nil
}

func (p *OpenAIProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if len(texts) > p.config.BatchSize {
		return p.embedInBatches(ctx, texts)
	}
	return p.embedWithRetry(ctx, texts)
}

func (p *OpenAIProvider) embedInBatches(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += p.config.BatchSize {
		end := start + p.config.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := p.embedWithRetry(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embedding: openai: batch %d: %w", start/p.config.BatchSize, err)
		}
		results = append(results, batch...)
	}
	return results, nil
}

func (p *OpenAIProvider) embedWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32
	err := withRetry(ctx, defaultRetryConfig(), func() error {
		resp, err := p.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
			Model: openai.EmbeddingModel(p.config.Model),
		})
		if err != nil {
			return err
		}
		if len(resp.Data) != len(texts) {
			return fmt.Errorf("embedding: openai: expected %d embeddings, got %d", len(texts), len(resp.Data))
		}

		vectors = make([][]float32, len(resp.Data))
		for i, d := range resp.Data {
			vec := make([]float32, len(d.Embedding))
			for j, x := range d.Embedding {
				vec[j] = float32(x)
			}
			vectors[i] = vec
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vectors, nil
}
