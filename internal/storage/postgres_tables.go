package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/lueurxax/faculty-research-sync/internal/core/domain"
)

var facultyColumns = []string{"position", "person_id", "name", "email", "department", "active"}

var outputColumns = []string{
	"position", "person_id", "article_id", "title", "publication_year", "doi", "abstract",
	"journal_title", "journal_issn", "active", "is_sustain", "top_1", "top_2", "top_3",
	"classification_source", "financial_times", "ut_dallas", "general_business",
}

// PostgresTables keeps the tables in PostgreSQL. Each save deletes and
// re-copies the table inside one transaction, and loads return rows in the
// order they were saved.
type PostgresTables struct {
	db *DB
}

// NewPostgresTables returns tables backed by db. Migrate must have run.
func NewPostgresTables(db *DB) *PostgresTables {
	return &PostgresTables{db: db}
}

// LoadFaculty reads the faculty table.
func (t *PostgresTables) LoadFaculty(ctx context.Context) ([]domain.Faculty, error) {
	rows, err := t.db.Pool.Query(ctx, `
		SELECT person_id, name, email, department, active
		FROM faculty
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("query faculty: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Faculty, error) {
		var f domain.Faculty

		err := row.Scan(&f.PersonID, &f.Name, &f.Email, &f.Department, &f.Active)

		return f, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan faculty: %w", err)
	}

	return out, nil
}

// SaveFaculty replaces the faculty table.
func (t *PostgresTables) SaveFaculty(ctx context.Context, rows []domain.Faculty) error {
	src := pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
		f := rows[i]

		return []any{
			i, SanitizeUTF8(f.PersonID), SanitizeUTF8(f.Name), SanitizeUTF8(f.Email),
			SanitizeUTF8(f.Department), f.Active,
		}, nil
	})

	return t.replace(ctx, tableFaculty, facultyColumns, src, len(rows))
}

// LoadOutputs reads the research output table.
func (t *PostgresTables) LoadOutputs(ctx context.Context) ([]domain.ResearchOutput, error) {
	rows, err := t.db.Pool.Query(ctx, `
		SELECT person_id, article_id, title, publication_year, doi, abstract,
		       journal_title, journal_issn, active, is_sustain, top_1, top_2, top_3,
		       classification_source, financial_times, ut_dallas, general_business
		FROM research_outputs
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("query research outputs: %w", err)
	}

	out, err := pgx.CollectRows(rows, scanOutput)
	if err != nil {
		return nil, fmt.Errorf("scan research outputs: %w", err)
	}

	return out, nil
}

func scanOutput(row pgx.CollectableRow) (domain.ResearchOutput, error) {
	var (
		o         domain.ResearchOutput
		isSustain *bool
		top       [domain.MaxRankedGoals]int16
		source    string
	)

	err := row.Scan(
		&o.PersonID, &o.ArticleID, &o.Title, &o.PublicationYear, &o.DOI, &o.Abstract,
		&o.JournalTitle, &o.JournalISSN, &o.Active, &isSustain, &top[0], &top[1], &top[2],
		&source, &o.Rankings.FinancialTimes, &o.Rankings.UTDallas, &o.Rankings.GeneralBusiness,
	)
	if err != nil {
		return o, err
	}

	if isSustain != nil {
		ranked := make([]domain.Goal, 0, len(top))
		for _, g := range top {
			ranked = append(ranked, domain.Goal(g))
		}

		src := domain.ClassificationSource(source)
		if src != domain.SourceFallback {
			src = domain.SourceOracle
		}

		c := domain.NewClassification(*isSustain, ranked, src)
		o.Classification = &c
	}

	return o, nil
}

// SaveOutputs replaces the research output table.
func (t *PostgresTables) SaveOutputs(ctx context.Context, rows []domain.ResearchOutput) error {
	src := pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
		o := rows[i]

		var (
			isSustain *bool
			top       [domain.MaxRankedGoals]int16
			source    string
		)

		if c := o.Classification; c != nil {
			v := c.IsSustain
			isSustain = &v

			for slot, g := range c.Goals {
				top[slot] = int16(g)
			}

			source = string(c.Source)
		}

		return []any{
			i, SanitizeUTF8(o.PersonID), SanitizeUTF8(o.ArticleID), SanitizeUTF8(o.Title),
			SanitizeUTF8(o.PublicationYear), SanitizeUTF8(o.DOI), SanitizeUTF8(o.Abstract),
			SanitizeUTF8(o.JournalTitle), SanitizeUTF8(o.JournalISSN), o.Active,
			isSustain, top[0], top[1], top[2], source,
			o.Rankings.FinancialTimes, o.Rankings.UTDallas, o.Rankings.GeneralBusiness,
		}, nil
	})

	return t.replace(ctx, tableOutputs, outputColumns, src, len(rows))
}

// replace swaps the table content inside one transaction.
func (t *PostgresTables) replace(ctx context.Context, table string, columns []string, src pgx.CopyFromSource, n int) error {
	tx, err := t.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin %s swap: %w", table, err)
	}

	defer func() {
		_ = tx.Rollback(ctx) //nolint:errcheck // no-op after commit
	}()

	if _, err := tx.Exec(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}

	copied, err := tx.CopyFrom(ctx, pgx.Identifier{table}, columns, src)
	if err != nil {
		return fmt.Errorf("copy %s: %w", table, err)
	}

	if int(copied) != n {
		return fmt.Errorf("copy %s: wrote %d of %d rows", table, copied, n)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit %s swap: %w", table, err)
	}

	t.db.Logger.Debug().Str("table", table).Int("rows", n).Msg("table saved")

	return nil
}
