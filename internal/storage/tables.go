package db

import (
	"context"

	"github.com/lueurxax/faculty-research-sync/internal/core/domain"
)

// TableStore persists the two reconciled tables. Loading a table that was
// never saved returns an empty table. Saving replaces the whole table in one
// step.
type TableStore interface {
	LoadFaculty(ctx context.Context) ([]domain.Faculty, error)
	SaveFaculty(ctx context.Context, rows []domain.Faculty) error
	LoadOutputs(ctx context.Context) ([]domain.ResearchOutput, error)
	SaveOutputs(ctx context.Context, rows []domain.ResearchOutput) error
}

var (
	_ TableStore = (*BlobTables)(nil)
	_ TableStore = (*PostgresTables)(nil)
)
