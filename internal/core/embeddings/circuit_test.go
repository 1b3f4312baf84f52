package embeddings

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestCircuitBreaker_OpensAtThreshold(t *testing.T) {
	logger := zerolog.Nop()
	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 2, ResetAfter: time.Minute}, &logger)

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cb.now = func() time.Time { return now }

	assert.True(t, cb.Allow())
	assert.False(t, cb.Fail("openai"))
	assert.True(t, cb.Allow())

	assert.True(t, cb.Fail("openai"), "second failure opens the circuit")
	assert.False(t, cb.Allow())
	assert.False(t, cb.Fail("openai"), "already open")

	now = now.Add(time.Minute)
	assert.True(t, cb.Allow())
}

func TestCircuitBreaker_SuccessClearsStreak(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 2, ResetAfter: time.Minute}, nil)

	cb.Fail("openai")
	cb.Succeed()
	assert.False(t, cb.Fail("openai"))
	assert.True(t, cb.Allow())

	assert.True(t, cb.Fail("openai"))
	assert.False(t, cb.Allow())
}

func TestCircuitBreaker_DefaultThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{ResetAfter: time.Minute}, nil)

	for i := 0; i < defaultCircuitThreshold-1; i++ {
		assert.False(t, cb.Fail("google"))
	}

	assert.True(t, cb.Fail("google"))
	assert.False(t, cb.Allow())
}
