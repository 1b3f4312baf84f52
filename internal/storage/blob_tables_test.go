package db

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/faculty-research-sync/internal/core/domain"
	"github.com/lueurxax/faculty-research-sync/internal/storage/blob"
)

const (
	testFacultyKey = "merged_output.csv"
	testOutputsKey = "person_research_outputs.csv"
)

func newTestTables(store blob.Store) *BlobTables {
	logger := zerolog.Nop()

	return NewBlobTables(store, testFacultyKey, testOutputsKey, &logger)
}

func TestBlobTables_MissingTablesAreEmpty(t *testing.T) {
	ctx := context.Background()
	tables := newTestTables(blob.NewMemory())

	faculty, err := tables.LoadFaculty(ctx)
	require.NoError(t, err)
	assert.Empty(t, faculty)

	outputs, err := tables.LoadOutputs(ctx)
	require.NoError(t, err)
	assert.Empty(t, outputs)
}

func TestBlobTables_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	tables := newTestTables(store)

	cls := domain.NewClassification(true, []domain.Goal{13}, domain.SourceOracle)
	faculty := []domain.Faculty{{PersonID: "p1", Name: "A", Email: "a@x.edu", Department: "Finance", Active: true}}
	outputs := []domain.ResearchOutput{{PersonID: "p1", ArticleID: "a1", Title: "T", Active: true, Classification: &cls}}

	require.NoError(t, tables.SaveFaculty(ctx, faculty))
	require.NoError(t, tables.SaveOutputs(ctx, outputs))

	exists, err := store.Exists(ctx, testFacultyKey)
	require.NoError(t, err)
	assert.True(t, exists)

	gotFaculty, err := tables.LoadFaculty(ctx)
	require.NoError(t, err)
	assert.Equal(t, faculty, gotFaculty)

	gotOutputs, err := tables.LoadOutputs(ctx)
	require.NoError(t, err)
	assert.Equal(t, outputs, gotOutputs)
}

func TestBlobTables_SaveReplacesTable(t *testing.T) {
	ctx := context.Background()
	tables := newTestTables(blob.NewMemory())

	require.NoError(t, tables.SaveFaculty(ctx, []domain.Faculty{{PersonID: "p1", Email: "a@x.edu"}, {PersonID: "p2", Email: "b@x.edu"}}))
	require.NoError(t, tables.SaveFaculty(ctx, []domain.Faculty{{PersonID: "p3", Email: "c@x.edu"}}))

	got, err := tables.LoadFaculty(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "p3", got[0].PersonID)
}

type failingStore struct {
	blob.Store
	err error
}

func (s failingStore) Get(context.Context, string) ([]byte, error) { return nil, s.err }

func (s failingStore) Put(context.Context, string, []byte) error { return s.err }

func TestBlobTables_PropagatesStoreErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	tables := newTestTables(failingStore{Store: blob.NewMemory(), err: boom})

	_, err := tables.LoadFaculty(ctx)
	assert.ErrorIs(t, err, boom)

	err = tables.SaveOutputs(ctx, nil)
	assert.ErrorIs(t, err, boom)
}

func TestBlobTables_CorruptTable(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	require.NoError(t, store.Put(ctx, testOutputsKey, []byte("person_id,article_id,active\np1,a1,sometimes\n")))

	_, err := newTestTables(store).LoadOutputs(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), testOutputsKey)
}
