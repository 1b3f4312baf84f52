package embeddings

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// CircuitBreaker stops calls to a provider after consecutive failures. It is
// shared by the embedding and chat provider registries.
type CircuitBreaker struct {
	mu         sync.Mutex
	threshold  int
	resetAfter time.Duration
	failures   int
	openUntil  time.Time
	now        func() time.Time
	logger     *zerolog.Logger
}

// NewCircuitBreaker creates a closed circuit breaker. logger may be nil.
func NewCircuitBreaker(cfg CircuitBreakerConfig, logger *zerolog.Logger) *CircuitBreaker {
	if cfg.Threshold <= 0 {
		cfg.Threshold = defaultCircuitThreshold
	}

	return &CircuitBreaker{
		threshold:  cfg.Threshold,
		resetAfter: cfg.ResetAfter,
		now:        time.Now,
		logger:     logger,
	}
}

// Allow reports whether a call may go through.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return !cb.now().Before(cb.openUntil)
}

// Succeed clears the failure streak.
func (cb *CircuitBreaker) Succeed() {
	cb.mu.Lock()
	cb.failures = 0
	cb.mu.Unlock()
}

// Fail counts a failed call for provider. It returns true when this failure
// opened the circuit.
func (cb *CircuitBreaker) Fail(provider string) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	if cb.failures < cb.threshold {
		return false
	}

	wasOpen := cb.now().Before(cb.openUntil)
	cb.openUntil = cb.now().Add(cb.resetAfter)

	if !wasOpen && cb.logger != nil {
		cb.logger.Warn().
			Str(logKeyProvider, provider).
			Int("consecutive_failures", cb.failures).
			Time("open_until", cb.openUntil).
			Msg("circuit breaker opened")
	}

	return !wasOpen
}
