// Package llm implements the sustainability classification oracle on top of
// chat-completion providers tried in a fixed fallback order.
package llm

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/lueurxax/faculty-research-sync/internal/core/domain"
	"github.com/lueurxax/faculty-research-sync/internal/core/embeddings"
	"github.com/lueurxax/faculty-research-sync/internal/platform/config"
)

// Article is the text the oracle judges for one article group.
type Article struct {
	Title    string
	Abstract string
}

// Verdict is the oracle's answer for one article group. Goals are ranked,
// most relevant first, and empty when IsSustain is false.
type Verdict struct {
	IsSustain bool
	Goals     []domain.Goal
}

// ClassifierClient judges whether an article relates to the sustainable
// development goals. Implementations may fail; callers retry.
type ClassifierClient interface {
	Classify(ctx context.Context, articles []Article) (Verdict, error)
}

// GoalRetriever returns the k goals whose descriptions are closest to text.
type GoalRetriever interface {
	Search(ctx context.Context, text string, k int) ([]domain.GoalInfo, error)
}

// ErrNoProvidersConfigured indicates no chat provider has credentials.
var ErrNoProvidersConfigured = errors.New("no LLM provider configured")

// New builds the classifier with every configured provider registered in
// fallback order: OpenAI, Anthropic, then Google. LLM_API_KEY=mock registers
// the deterministic mock only.
func New(ctx context.Context, cfg *config.Config, retriever GoalRetriever, logger *zerolog.Logger) (*Classifier, error) {
	registry := NewRegistry(logger)
	circuitCfg := embeddings.CircuitBreakerConfig{
		Threshold:  cfg.CircuitBreakerThreshold,
		ResetAfter: cfg.CircuitBreakerResetAfter,
	}

	registerProviders(ctx, registry, cfg, logger, circuitCfg)

	if registry.ProviderCount() == 0 {
		return nil, ErrNoProvidersConfigured
	}

	return NewClassifier(registry, retriever, cfg.GoalCandidates, logger), nil
}

func registerProviders(ctx context.Context, registry *Registry, cfg *config.Config, logger *zerolog.Logger, circuitCfg embeddings.CircuitBreakerConfig) {
	if cfg.LLMAPIKey == llmAPIKeyMock {
		registry.Register(NewMockProvider(), circuitCfg)

		return
	}

	if cfg.LLMAPIKey != "" {
		registry.Register(NewOpenAIProvider(OpenAIConfig{
			APIKey:    cfg.LLMAPIKey,
			BaseURL:   cfg.LLMBaseURL,
			Model:     cfg.LLMModel,
			RateLimit: cfg.RateLimitRPS,
		}, logger), circuitCfg)
	}

	if cfg.AnthropicAPIKey != "" {
		registry.Register(NewAnthropicProvider(AnthropicConfig{
			APIKey:    cfg.AnthropicAPIKey,
			Model:     cfg.AnthropicModel,
			RateLimit: cfg.RateLimitRPS,
		}, logger), circuitCfg)
	}

	if cfg.GoogleAPIKey != "" {
		googleProvider, err := NewGoogleProvider(ctx, GoogleConfig{
			APIKey:    cfg.GoogleAPIKey,
			Model:     cfg.GoogleModel,
			RateLimit: cfg.RateLimitRPS,
		}, logger)
		if err != nil {
			logger.Error().Err(err).Msg("failed to create Google LLM provider")
		} else {
			registry.Register(googleProvider, circuitCfg)
		}
	}
}
