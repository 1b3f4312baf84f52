// Package embeddings provides text embeddings for goal retrieval.
//
// Providers form a fallback chain: OpenAI text-embedding-3-large shortened to
// the configured dimensions, then Google gemini-embedding-001. With neither
// configured a deterministic mock is used. Every vector is padded or truncated
// to one target dimension so vectors from different providers can be stored
// side by side. The goal index built on top ranks the 17 goal descriptions by
// cosine similarity, in memory or in PostgreSQL with pgvector.
package embeddings

import (
	"context"

	"github.com/rs/zerolog"
)

// Client embeds text.
type Client interface {
	// GetEmbedding returns a vector of Dimensions() entries.
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// Config holds configuration for creating an embedding client.
type Config struct {
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	OpenAIModel      string
	OpenAIDimensions int
	OpenAIRateLimit  int

	GoogleAPIKey    string
	GoogleModel     string
	GoogleRateLimit int

	CircuitBreakerConfig CircuitBreakerConfig

	// TargetDimensions is the length of every returned vector.
	TargetDimensions int
}

// NewClient builds the provider chain from cfg.
func NewClient(ctx context.Context, cfg Config, logger *zerolog.Logger) Client {
	if cfg.TargetDimensions <= 0 {
		cfg.TargetDimensions = DefaultDimensions
	}

	registry := NewRegistry(cfg.TargetDimensions, logger)

	if cfg.OpenAIAPIKey != "" && cfg.OpenAIAPIKey != mockAPIKey {
		registry.Register(NewOpenAIProvider(OpenAIConfig{
			APIKey:     cfg.OpenAIAPIKey,
			BaseURL:    cfg.OpenAIBaseURL,
			Model:      cfg.OpenAIModel,
			Dimensions: cfg.OpenAIDimensions,
			RateLimit:  cfg.OpenAIRateLimit,
		}), cfg.CircuitBreakerConfig)
	}

	if cfg.GoogleAPIKey != "" {
		google, err := NewGoogleProvider(ctx, GoogleConfig{
			APIKey:    cfg.GoogleAPIKey,
			Model:     cfg.GoogleModel,
			RateLimit: cfg.GoogleRateLimit,
		})
		if err != nil {
			logger.Error().Err(err).Msg("failed to create Google embedding provider")
		} else {
			registry.Register(google, cfg.CircuitBreakerConfig)
		}
	}

	if registry.ProviderCount() == 0 {
		logger.Warn().Msg("no embedding providers configured, using mock provider")

		registry.Register(NewMockProviderWithDimensions(cfg.TargetDimensions), cfg.CircuitBreakerConfig)
	}

	return registry
}
