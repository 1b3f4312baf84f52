package embeddings

import (
	"context"
	"time"
)

// ProviderName identifies an embedding provider.
type ProviderName string

const (
	ProviderOpenAI ProviderName = "openai"
	ProviderGoogle ProviderName = "google"
	ProviderMock   ProviderName = "mock"
)

// DefaultDimensions matches the goal_embeddings vector column.
const DefaultDimensions = 1536

const (
	defaultCircuitThreshold = 5
	defaultCircuitReset     = time.Minute
	defaultRateLimiterBurst = 5

	errRateLimiterFmt = "rate limiter: %w"
	mockAPIKey        = "mock"
	logKeyProvider    = "provider"
)

// Provider produces embeddings from one backend. Vectors come back at the
// provider's native length; the registry fits them to its own dimension.
type Provider interface {
	Name() ProviderName
	// Model labels metrics.
	Model() string
	IsAvailable() bool
	Embed(ctx context.Context, text string) ([]float32, error)
}

// CircuitBreakerConfig defines circuit breaker settings.
type CircuitBreakerConfig struct {
	Threshold  int           // Consecutive failures before the circuit opens
	ResetAfter time.Duration // How long an open circuit blocks calls
}

// DefaultCircuitBreakerConfig opens after five failures for one minute.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Threshold:  defaultCircuitThreshold,
		ResetAfter: defaultCircuitReset,
	}
}
