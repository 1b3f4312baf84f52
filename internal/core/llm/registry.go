package llm

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/faculty-research-sync/internal/core/embeddings"
	"github.com/lueurxax/faculty-research-sync/internal/platform/observability"
)

// Registry errors.
var (
	ErrNoProvidersAvailable = errors.New("no LLM providers available")
	ErrAllProvidersFailed   = errors.New("all LLM providers failed")
)

type link struct {
	provider Provider
	breaker  *embeddings.CircuitBreaker
}

// Registry is a fallback chain of chat providers, tried in registration
// order. Each provider has its own circuit breaker.
type Registry struct {
	mu     sync.RWMutex
	chain  []link
	logger *zerolog.Logger
}

var _ Completer = (*Registry)(nil)

// NewRegistry creates an empty chain.
func NewRegistry(logger *zerolog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register appends p to the chain. A provider registered again under the same
// name keeps its place and gets a fresh circuit breaker.
func (r *Registry) Register(p Provider, cfg embeddings.CircuitBreakerConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l := link{provider: p, breaker: embeddings.NewCircuitBreaker(cfg, r.logger)}

	replaced := false

	for i := range r.chain {
		if r.chain[i].provider.Name() == p.Name() {
			r.chain[i] = l
			replaced = true
		}
	}

	if !replaced {
		r.chain = append(r.chain, l)
	}

	setAvailable(p.Name(), p.IsAvailable())

	r.logger.Info().
		Str(logKeyProvider, string(p.Name())).
		Str(logKeyModel, p.Model()).
		Int("position", len(r.chain)).
		Msg("registered LLM provider")
}

// ProviderCount returns the number of registered providers.
func (r *Registry) ProviderCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.chain)
}

// ProviderNames returns the chain order.
func (r *Registry) ProviderNames() []ProviderName {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]ProviderName, 0, len(r.chain))
	for _, l := range r.chain {
		names = append(names, l.provider.Name())
	}

	return names
}

// CompleteJSON returns the first successful completion along the chain.
// Unavailable providers and open circuits are skipped without a call.
func (r *Registry) CompleteJSON(ctx context.Context, req Request) (string, error) {
	r.mu.RLock()
	chain := append([]link(nil), r.chain...)
	r.mu.RUnlock()

	var (
		errs   []error
		failed ProviderName
	)

	for _, l := range chain {
		name := l.provider.Name()

		if !l.provider.IsAvailable() {
			continue
		}

		if !l.breaker.Allow() {
			setAvailable(name, false)
			r.logger.Debug().Str(logKeyProvider, string(name)).Str(logKeyTask, req.Task).Msg(logMsgCircuitBreakerOpen)

			continue
		}

		text, err := r.complete(ctx, l, req)
		if err != nil {
			errs = append(errs, err)

			if failed == "" {
				failed = name
			}

			if ctx.Err() != nil {
				break
			}

			continue
		}

		if failed != "" {
			observability.LLMFallbacks.WithLabelValues(string(failed), string(name), req.Task).Inc()
			r.logger.Info().
				Str(logKeyProvider, string(name)).
				Str("from_provider", string(failed)).
				Str(logKeyTask, req.Task).
				Msg("used fallback LLM provider")
		}

		return text, nil
	}

	if len(errs) == 0 {
		return "", ErrNoProvidersAvailable
	}

	return "", errors.Join(append([]error{ErrAllProvidersFailed}, errs...)...)
}

func (r *Registry) complete(ctx context.Context, l link, req Request) (string, error) {
	name, model := l.provider.Name(), l.provider.Model()

	start := time.Now()
	text, err := l.provider.CompleteJSON(ctx, req)
	elapsed := time.Since(start)

	observability.LLMRequestLatency.WithLabelValues(string(name), model, req.Task).Observe(elapsed.Seconds())

	if err != nil {
		if l.breaker.Fail(string(name)) {
			observability.LLMCircuitBreakerOpens.WithLabelValues(string(name)).Inc()
			setAvailable(name, false)
		}

		r.logger.Warn().
			Err(err).
			Str(logKeyProvider, string(name)).
			Str(logKeyModel, model).
			Str(logKeyTask, req.Task).
			Dur("elapsed", elapsed).
			Msg("LLM provider failed")

		return "", err
	}

	l.breaker.Succeed()
	setAvailable(name, true)

	return text, nil
}

func setAvailable(name ProviderName, available bool) {
	value := MetricValueUnavailable
	if available {
		value = MetricValueAvailable
	}

	observability.LLMProviderAvailable.WithLabelValues(string(name)).Set(value)
}

// RecordTokenUsage records token usage metrics for an LLM request.
func RecordTokenUsage(provider ProviderName, model, task string, promptTokens, completionTokens int, success bool) {
	status := StatusSuccess
	if !success {
		status = StatusError
	}

	observability.LLMRequests.WithLabelValues(string(provider), model, task, status).Inc()

	if promptTokens > 0 {
		observability.LLMTokensPrompt.WithLabelValues(string(provider), model, task).Add(float64(promptTokens))
	}

	if completionTokens > 0 {
		observability.LLMTokensCompletion.WithLabelValues(string(provider), model, task).Add(float64(completionTokens))
	}
}
