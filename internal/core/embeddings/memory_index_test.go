package embeddings

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/faculty-research-sync/internal/core/domain"
	apperrors "github.com/lueurxax/faculty-research-sync/internal/core/errors"
)

type mapStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMapStore() *mapStore {
	return &mapStore{data: make(map[string][]byte)}
}

func (s *mapStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.data[key]
	if !ok {
		return nil, apperrors.ErrNotFound
	}

	return d, nil
}

func (s *mapStore) Put(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = data

	return nil
}

func mockClient(t *testing.T, dims int) Client {
	t.Helper()

	logger := zerolog.Nop()
	r := NewRegistry(dims, &logger)
	r.Register(NewMockProviderWithDimensions(dims), DefaultCircuitBreakerConfig())

	return r
}

func TestMemoryIndex_SearchRanksExactGoalFirst(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.Nop()
	client := mockClient(t, 256)

	idx, err := BuildMemoryIndex(ctx, client, &logger)
	require.NoError(t, err)
	assert.Equal(t, 17, idx.Len())

	climate, ok := domain.LookupGoal(13)
	require.True(t, ok)

	got, err := idx.Search(ctx, GoalDocument(climate), 5)
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, domain.Goal(13), got[0].Goal)

	all, err := idx.Search(ctx, "anything", 0)
	require.NoError(t, err)
	assert.Len(t, all, 17)
}

func TestMemoryIndex_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.Nop()
	client := mockClient(t, 32)
	store := newMapStore()

	built, err := BuildMemoryIndex(ctx, client, &logger)
	require.NoError(t, err)
	require.NoError(t, built.Save(ctx, store, "goals.json"))

	loaded, err := LoadMemoryIndex(ctx, store, "goals.json", client, &logger)
	require.NoError(t, err)
	assert.Equal(t, built.entries, loaded.entries)

	_, err = LoadMemoryIndex(ctx, store, "goals.json", mockClient(t, 64), &logger)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = LoadMemoryIndex(ctx, store, "missing.json", client, &logger)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestLoadOrBuildMemoryIndex(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.Nop()
	client := mockClient(t, 16)
	store := newMapStore()

	idx, err := LoadOrBuildMemoryIndex(ctx, store, "goals.json", client, &logger)
	require.NoError(t, err)
	assert.Equal(t, 17, idx.Len())

	_, saved := store.data["goals.json"]
	assert.True(t, saved)

	store.data["goals.json"] = []byte("{not json")
	_, err = LoadOrBuildMemoryIndex(ctx, store, "goals.json", client, &logger)
	assert.Error(t, err, "a corrupt index is reported, not silently rebuilt")
}
