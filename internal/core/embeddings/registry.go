package embeddings

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Registry errors.
var (
	ErrNoProvidersAvailable = errors.New("no embedding providers available")
	ErrAllProvidersFailed   = errors.New("all embedding providers failed")
)

type link struct {
	provider Provider
	breaker  *CircuitBreaker
}

// Registry is a fallback chain of providers, tried in registration order.
// Every vector it returns has exactly Dimensions() entries.
type Registry struct {
	mu     sync.RWMutex
	chain  []link
	dims   int
	logger *zerolog.Logger
}

var _ Client = (*Registry)(nil)

// NewRegistry creates an empty chain producing vectors of length dims.
func NewRegistry(dims int, logger *zerolog.Logger) *Registry {
	return &Registry{dims: dims, logger: logger}
}

// Register appends p to the chain. A provider registered again under the same
// name keeps its place and gets a fresh circuit breaker.
func (r *Registry) Register(p Provider, cfg CircuitBreakerConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l := link{provider: p, breaker: NewCircuitBreaker(cfg, r.logger)}

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

	setProviderAvailable(p.Name(), p.IsAvailable())

	r.logger.Info().
		Str(logKeyProvider, string(p.Name())).
		Str("model", p.Model()).
		Int("position", len(r.chain)).
		Msg("registered embedding provider")
}

// Dimensions returns the length of every vector the registry returns.
func (r *Registry) Dimensions() int {
	return r.dims
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

// GetEmbedding returns the first successful embedding along the chain,
// skipping unavailable providers and open circuits.
func (r *Registry) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	r.mu.RLock()
	chain := append([]link(nil), r.chain...)
	r.mu.RUnlock()

	var (
		errs  []error
		first ProviderName
	)

	for _, l := range chain {
		name := l.provider.Name()

		if !l.provider.IsAvailable() {
			continue
		}

		if !l.breaker.Allow() {
			setProviderAvailable(name, false)
			r.logger.Debug().Str(logKeyProvider, string(name)).Msg("skipping provider, circuit breaker open")

			continue
		}

		if first == "" {
			first = name
		}

		vec, err := r.embed(ctx, l, text)
		if err != nil {
			errs = append(errs, err)

			if ctx.Err() != nil {
				break
			}

			continue
		}

		if name != first {
			recordFallback(first, name)
			r.logger.Info().Str(logKeyProvider, string(name)).Str("from_provider", string(first)).Msg("used fallback embedding provider")
		}

		return fitDimensions(vec, r.dims), nil
	}

	if len(errs) == 0 {
		return nil, ErrNoProvidersAvailable
	}

	return nil, errors.Join(append([]error{ErrAllProvidersFailed}, errs...)...)
}

func (r *Registry) embed(ctx context.Context, l link, text string) ([]float32, error) {
	name, model := l.provider.Name(), l.provider.Model()

	start := time.Now()
	vec, err := l.provider.Embed(ctx, text)
	recordLatency(name, model, time.Since(start))

	if err != nil {
		l.breaker.Fail(string(name))
		recordRequest(name, model, false)

		r.logger.Warn().Err(err).Str(logKeyProvider, string(name)).Msg("embedding provider failed")

		return nil, err
	}

	l.breaker.Succeed()
	recordRequest(name, model, true)
	recordTokens(name, model, text)
	setProviderAvailable(name, true)

	return vec, nil
}

// fitDimensions zero-pads or truncates vec to n entries. Zero padding leaves
// cosine similarity unchanged.
func fitDimensions(vec []float32, n int) []float32 {
	if len(vec) >= n {
		return vec[:n]
	}

	out := make([]float32, n)
	copy(out, vec)

	return out
}
