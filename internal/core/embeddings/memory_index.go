package embeddings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/lueurxax/faculty-research-sync/internal/core/domain"
	apperrors "github.com/lueurxax/faculty-research-sync/internal/core/errors"
)

// ObjectStore is the blob storage the memory index persists to.
type ObjectStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
}

type indexEntry struct {
	Goal   domain.Goal `json:"goal"`
	Vector []float32   `json:"vector"`
}

type indexFile struct {
	Dimensions int          `json:"dimensions"`
	Entries    []indexEntry `json:"entries"`
}

// MemoryIndex holds one embedding per goal and ranks them by cosine
// similarity.
type MemoryIndex struct {
	client  Client
	entries []indexEntry
	logger  *zerolog.Logger
}

var _ Index = (*MemoryIndex)(nil)

// BuildMemoryIndex embeds every goal description.
func BuildMemoryIndex(ctx context.Context, client Client, logger *zerolog.Logger) (*MemoryIndex, error) {
	goals := domain.Goals()
	entries := make([]indexEntry, 0, len(goals))

	for _, g := range goals {
		vec, err := client.GetEmbedding(ctx, GoalDocument(g))
		if err != nil {
			return nil, fmt.Errorf("embedding goal %d: %w", g.Goal, err)
		}

		entries = append(entries, indexEntry{Goal: g.Goal, Vector: vec})
	}

	logger.Info().Int("goals", len(entries)).Int("dimensions", client.Dimensions()).Msg("built goal index")

	return &MemoryIndex{client: client, entries: entries, logger: logger}, nil
}

// LoadMemoryIndex reads a saved index. It returns ErrNotFound when nothing
// was saved under key.
func LoadMemoryIndex(ctx context.Context, store ObjectStore, key string, client Client, logger *zerolog.Logger) (*MemoryIndex, error) {
	data, err := store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("reading goal index %s: %w", key, err)
	}

	var file indexFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decoding goal index %s: %w", key, err)
	}

	if file.Dimensions != client.Dimensions() {
		return nil, fmt.Errorf("%w: goal index has %d dimensions, embeddings produce %d",
			apperrors.ErrInvalidInput, file.Dimensions, client.Dimensions())
	}

	for _, e := range file.Entries {
		if !e.Goal.Valid() || len(e.Vector) != file.Dimensions {
			return nil, fmt.Errorf("%w: malformed goal index entry for goal %d", apperrors.ErrInvalidInput, e.Goal)
		}
	}

	return &MemoryIndex{client: client, entries: file.Entries, logger: logger}, nil
}

// LoadOrBuildMemoryIndex loads the saved index, building and saving a new one
// when none exists yet.
func LoadOrBuildMemoryIndex(ctx context.Context, store ObjectStore, key string, client Client, logger *zerolog.Logger) (*MemoryIndex, error) {
	idx, err := LoadMemoryIndex(ctx, store, key, client, logger)
	if err == nil {
		return idx, nil
	}

	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	logger.Info().Str("key", key).Msg("goal index not found, building")

	idx, err = BuildMemoryIndex(ctx, client, logger)
	if err != nil {
		return nil, err
	}

	if err := idx.Save(ctx, store, key); err != nil {
		return nil, err
	}

	return idx, nil
}

// Save writes the index as JSON.
func (m *MemoryIndex) Save(ctx context.Context, store ObjectStore, key string) error {
	data, err := json.Marshal(indexFile{Dimensions: m.client.Dimensions(), Entries: m.entries})
	if err != nil {
		return fmt.Errorf("encoding goal index: %w", err)
	}

	if err := store.Put(ctx, key, data); err != nil {
		return fmt.Errorf("writing goal index %s: %w", key, err)
	}

	return nil
}

// Len returns the number of indexed goals.
func (m *MemoryIndex) Len() int {
	return len(m.entries)
}

// Search returns up to k goals ordered by similarity to text.
func (m *MemoryIndex) Search(ctx context.Context, text string, k int) ([]domain.GoalInfo, error) {
	query, err := m.client.GetEmbedding(ctx, text)
	if err != nil {
		recordIndexSearch(IndexDriverMemory, false)

		return nil, fmt.Errorf("embedding query: %w", err)
	}

	scored := make([]scoredGoal, 0, len(m.entries))

	for _, e := range m.entries {
		info, ok := domain.LookupGoal(e.Goal)
		if !ok {
			continue
		}

		scored = append(scored, scoredGoal{goal: info, score: CosineSimilarity(query, e.Vector)})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	k = clampK(k, len(scored))
	out := make([]domain.GoalInfo, 0, k)

	for _, s := range scored[:k] {
		out = append(out, s.goal)
	}

	recordIndexSearch(IndexDriverMemory, true)

	return out, nil
}
