package embeddings

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand/v2"
)

// MockProvider returns deterministic unit vectors seeded by the text, so equal
// texts always embed identically. It is used when no provider is configured.
type MockProvider struct {
	dimensions int
}

// NewMockProvider creates a mock provider with DefaultDimensions.
func NewMockProvider() *MockProvider {
	return NewMockProviderWithDimensions(DefaultDimensions)
}

// NewMockProviderWithDimensions creates a mock provider with custom dimensions.
func NewMockProviderWithDimensions(dims int) *MockProvider {
	return &MockProvider{dimensions: dims}
}

func (p *MockProvider) Name() ProviderName { return ProviderMock }

func (p *MockProvider) Model() string { return string(ProviderMock) }

func (p *MockProvider) IsAvailable() bool { return true }

func (p *MockProvider) Embed(_ context.Context, text string) ([]float32, error) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text)) // fnv never fails

	//nolint:gosec // deterministic test vectors, not security sensitive
	rng := rand.New(rand.NewPCG(h.Sum64(), uint64(p.dimensions)))

	vec := make([]float32, p.dimensions)

	var norm float64

	for i := range vec {
		v := rng.Float64()*2 - 1
		vec[i] = float32(v)
		norm += v * v
	}

	if norm == 0 {
		return vec, nil
	}

	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}

	return vec, nil
}
