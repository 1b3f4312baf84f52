package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/faculty-research-sync/internal/core/embeddings"
)

var testCircuitConfig = embeddings.CircuitBreakerConfig{Threshold: 1, ResetAfter: time.Hour}

var errProviderDown = errors.New("provider down")

type fakeProvider struct {
	name      ProviderName
	available bool
	reply     string
	err       error
	calls     int
}

func (f *fakeProvider) Name() ProviderName { return f.name }
func (f *fakeProvider) IsAvailable() bool  { return f.available }
func (f *fakeProvider) Model() string      { return "fake" }

func (f *fakeProvider) CompleteJSON(_ context.Context, _ Request) (string, error) {
	f.calls++
	return f.reply, f.err
}

func TestRegistry_UsesRegistrationOrder(t *testing.T) {
	logger := zerolog.Nop()
	r := NewRegistry(&logger)

	openai := &fakeProvider{name: ProviderOpenAI, available: true, reply: "openai"}
	anthropic := &fakeProvider{name: ProviderAnthropic, available: true, reply: "anthropic"}
	google := &fakeProvider{name: ProviderGoogle, available: true, reply: "google"}

	r.Register(openai, testCircuitConfig)
	r.Register(anthropic, testCircuitConfig)
	r.Register(google, testCircuitConfig)

	assert.Equal(t, []ProviderName{ProviderOpenAI, ProviderAnthropic, ProviderGoogle}, r.ProviderNames())

	got, err := r.CompleteJSON(context.Background(), Request{Task: TaskRelevance})
	require.NoError(t, err)
	assert.Equal(t, "openai", got)
	assert.Zero(t, anthropic.calls)
	assert.Zero(t, google.calls)
}

func TestRegistry_FallbackAndCircuit(t *testing.T) {
	logger := zerolog.Nop()
	r := NewRegistry(&logger)

	primary := &fakeProvider{name: ProviderOpenAI, available: true, err: errProviderDown}
	fallback := &fakeProvider{name: ProviderAnthropic, available: true, reply: "ok"}

	r.Register(primary, testCircuitConfig)
	r.Register(fallback, testCircuitConfig)

	for i := 0; i < 2; i++ {
		got, err := r.CompleteJSON(context.Background(), Request{Task: TaskGoals})
		require.NoError(t, err)
		assert.Equal(t, "ok", got)
	}

	assert.Equal(t, 1, primary.calls, "open circuit skips the failing provider")
	assert.Equal(t, 2, fallback.calls)
}

func TestRegistry_SkipsUnavailable(t *testing.T) {
	logger := zerolog.Nop()
	r := NewRegistry(&logger)

	r.Register(&fakeProvider{name: ProviderOpenAI}, testCircuitConfig)

	_, err := r.CompleteJSON(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrNoProvidersAvailable)
}

func TestRegistry_AllFailed(t *testing.T) {
	logger := zerolog.Nop()
	r := NewRegistry(&logger)

	r.Register(&fakeProvider{name: ProviderOpenAI, available: true, err: errProviderDown}, testCircuitConfig)

	_, err := r.CompleteJSON(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrAllProvidersFailed)
	assert.ErrorIs(t, err, errProviderDown)
}
