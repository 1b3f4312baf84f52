package embeddings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

const (
	ModelTextEmbedding3Large = "text-embedding-3-large"

	// text-embedding-3 models return at most this many dimensions and accept
	// a smaller dimensions parameter.
	maxTextEmbedding3Dimensions = 3072
	textEmbedding3Prefix        = "text-embedding-3"
)

// ErrOpenAIEmptyResponse is returned when the API answers without data.
var ErrOpenAIEmptyResponse = errors.New("empty embedding response from OpenAI")

// OpenAIConfig holds configuration for the OpenAI provider.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string // OpenAI-compatible endpoint, empty for api.openai.com
	Model      string
	Dimensions int // Requested output dimensions for text-embedding-3 models
	RateLimit  int // Requests per second
}

// OpenAIProvider embeds text through the OpenAI embeddings endpoint.
type OpenAIProvider struct {
	client    *openai.Client
	model     string
	dims      int
	limiter   *rate.Limiter
	available bool
}

// NewOpenAIProvider creates an OpenAI provider. The mock key leaves it
// unavailable.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	if cfg.Model == "" {
		cfg.Model = ModelTextEmbedding3Large
	}

	if cfg.Dimensions <= 0 {
		cfg.Dimensions = DefaultDimensions
	}

	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 1
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	return &OpenAIProvider{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		dims:      cfg.Dimensions,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RateLimit), defaultRateLimiterBurst),
		available: cfg.APIKey != "" && cfg.APIKey != mockAPIKey,
	}
}

func (p *OpenAIProvider) Name() ProviderName { return ProviderOpenAI }

func (p *OpenAIProvider) Model() string { return p.model }

func (p *OpenAIProvider) IsAvailable() bool { return p.available }

func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf(errRateLimiterFmt, err)
	}

	req := openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(p.model),
	}

	if strings.HasPrefix(p.model, textEmbedding3Prefix) && p.dims < maxTextEmbedding3Dimensions {
		req.Dimensions = p.dims
	}

	resp, err := p.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, ErrOpenAIEmptyResponse
	}

	return resp.Data[0].Embedding, nil
}
