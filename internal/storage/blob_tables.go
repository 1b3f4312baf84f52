package db

import (
	"bytes"
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lueurxax/faculty-research-sync/internal/core/domain"
	apperrors "github.com/lueurxax/faculty-research-sync/internal/core/errors"
	"github.com/lueurxax/faculty-research-sync/internal/storage/blob"
)

// BlobTables keeps each table as one CSV object.
type BlobTables struct {
	store      blob.Store
	facultyKey string
	outputsKey string
	logger     *zerolog.Logger
}

// NewBlobTables returns CSV tables stored under the given keys.
func NewBlobTables(store blob.Store, facultyKey, outputsKey string, logger *zerolog.Logger) *BlobTables {
	return &BlobTables{
		store:      store,
		facultyKey: facultyKey,
		outputsKey: outputsKey,
		logger:     logger,
	}
}

// LoadFaculty reads the faculty table.
func (t *BlobTables) LoadFaculty(ctx context.Context) ([]domain.Faculty, error) {
	data, err := t.load(ctx, t.facultyKey)
	if err != nil || data == nil {
		return nil, err
	}

	rows, err := DecodeFaculty(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", t.facultyKey, err)
	}

	return rows, nil
}

// SaveFaculty replaces the faculty table.
func (t *BlobTables) SaveFaculty(ctx context.Context, rows []domain.Faculty) error {
	data, err := EncodeFaculty(rows)
	if err != nil {
		return fmt.Errorf("%s: %w", t.facultyKey, err)
	}

	return t.save(ctx, t.facultyKey, data, len(rows))
}

// LoadOutputs reads the research output table.
func (t *BlobTables) LoadOutputs(ctx context.Context) ([]domain.ResearchOutput, error) {
	data, err := t.load(ctx, t.outputsKey)
	if err != nil || data == nil {
		return nil, err
	}

	rows, err := DecodeOutputs(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", t.outputsKey, err)
	}

	return rows, nil
}

// SaveOutputs replaces the research output table.
func (t *BlobTables) SaveOutputs(ctx context.Context, rows []domain.ResearchOutput) error {
	data, err := EncodeOutputs(rows)
	if err != nil {
		return fmt.Errorf("%s: %w", t.outputsKey, err)
	}

	return t.save(ctx, t.outputsKey, data, len(rows))
}

// load returns nil data without error when the table does not exist yet.
func (t *BlobTables) load(ctx context.Context, key string) ([]byte, error) {
	data, err := t.store.Get(ctx, key)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		t.logger.Debug().Str("table", key).Msg("table not found, starting empty")

		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("loading table %s: %w", key, err)
	}

	return data, nil
}

func (t *BlobTables) save(ctx context.Context, key string, data []byte, rows int) error {
	if err := t.store.Put(ctx, key, data); err != nil {
		return fmt.Errorf("saving table %s: %w", key, err)
	}

	t.logger.Debug().
		Str("table", key).
		Str("driver", t.store.Driver()).
		Int("rows", rows).
		Int("bytes", len(data)).
		Msg("table saved")

	return nil
}
