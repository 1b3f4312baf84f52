package llm

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/faculty-research-sync/internal/core/domain"
)

func TestMockProvider_EndToEnd(t *testing.T) {
	logger := zerolog.Nop()
	registry := NewRegistry(&logger)
	registry.Register(NewMockProvider(), testCircuitConfig)

	classifier := NewClassifier(registry, nil, 5, &logger)

	verdict, err := classifier.Classify(context.Background(), []Article{{
		Title:    "Climate risk disclosure",
		Abstract: "Firms facing climate regulation.",
	}})
	require.NoError(t, err)
	assert.True(t, verdict.IsSustain)
	assert.Equal(t, []domain.Goal{1, 2, 3}, verdict.Goals, "mock ranks the first three candidates")

	verdict, err = classifier.Classify(context.Background(), []Article{{
		Title:    "Optimal auctions",
		Abstract: "A mechanism design result.",
	}})
	require.NoError(t, err)
	assert.False(t, verdict.IsSustain)
}
