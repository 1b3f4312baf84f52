package embeddings

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
)

// ModelGeminiEmbedding001 returns 3072-dimensional vectors, truncated by the
// registry to its target dimension.
const ModelGeminiEmbedding001 = "gemini-embedding-001"

// Google embedding errors.
var (
	ErrGoogleEmptyResponse = errors.New("empty embedding response from Google")
	ErrGoogleAPIFailure    = errors.New("google embedding API error")
)

// GoogleConfig holds configuration for the Google embedding provider.
type GoogleConfig struct {
	APIKey    string
	Model     string
	RateLimit int // Requests per second
}

// GoogleProvider embeds text with a Gemini embedding model.
type GoogleProvider struct {
	client  *genai.Client
	model   string
	limiter *rate.Limiter
}

// NewGoogleProvider creates a Google provider. An empty key yields an
// unavailable provider.
func NewGoogleProvider(ctx context.Context, cfg GoogleConfig) (*GoogleProvider, error) {
	if cfg.APIKey == "" {
		return &GoogleProvider{}, nil
	}

	if cfg.Model == "" {
		cfg.Model = ModelGeminiEmbedding001
	}

	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 1
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("creating google genai client: %w", err)
	}

	return &GoogleProvider{
		client:  client,
		model:   cfg.Model,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), defaultRateLimiterBurst),
	}, nil
}

func (p *GoogleProvider) Name() ProviderName { return ProviderGoogle }

func (p *GoogleProvider) Model() string { return p.model }

func (p *GoogleProvider) IsAvailable() bool { return p.client != nil }

func (p *GoogleProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf(errRateLimiterFmt, err)
	}

	resp, err := p.client.EmbeddingModel(p.model).EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGoogleAPIFailure, err)
	}

	if resp == nil || resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, ErrGoogleEmptyResponse
	}

	return resp.Embedding.Values, nil
}

// Close releases the underlying client.
func (p *GoogleProvider) Close() error {
	if p.client == nil {
		return nil
	}

	if err := p.client.Close(); err != nil {
		return fmt.Errorf("closing google embedding client: %w", err)
	}

	return nil
}
