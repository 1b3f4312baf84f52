package embeddings

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog"

	"github.com/lueurxax/faculty-research-sync/internal/core/domain"
)

// PgVectorIndex stores goal embeddings in the goal_embeddings table and ranks
// them with the pgvector cosine distance operator.
type PgVectorIndex struct {
	pool   *pgxpool.Pool
	client Client
	logger *zerolog.Logger
}

var _ Index = (*PgVectorIndex)(nil)

// NewPgVectorIndex creates an index over an existing pool. The schema is
// created by the storage migrations.
func NewPgVectorIndex(pool *pgxpool.Pool, client Client, logger *zerolog.Logger) *PgVectorIndex {
	return &PgVectorIndex{pool: pool, client: client, logger: logger}
}

// Build embeds every goal and upserts it.
func (p *PgVectorIndex) Build(ctx context.Context) error {
	for _, g := range domain.Goals() {
		vec, err := p.client.GetEmbedding(ctx, GoalDocument(g))
		if err != nil {
			return fmt.Errorf("embedding goal %d: %w", g.Goal, err)
		}

		_, err = p.pool.Exec(ctx, `
			INSERT INTO goal_embeddings (goal, title, description, embedding, updated_at)
			VALUES ($1, $2, $3, $4, now())
			ON CONFLICT (goal) DO UPDATE
			SET title = EXCLUDED.title,
			    description = EXCLUDED.description,
			    embedding = EXCLUDED.embedding,
			    updated_at = now()
		`, int(g.Goal), g.Title, g.Description, pgvector.NewVector(vec))
		if err != nil {
			return fmt.Errorf("upsert goal embedding %d: %w", g.Goal, err)
		}
	}

	p.logger.Info().Int("goals", len(domain.Goals())).Msg("built pgvector goal index")

	return nil
}

// Count returns the number of stored goal embeddings.
func (p *PgVectorIndex) Count(ctx context.Context) (int, error) {
	var n int
	if err := p.pool.QueryRow(ctx, `SELECT count(*) FROM goal_embeddings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count goal embeddings: %w", err)
	}

	return n, nil
}

// EnsureBuilt builds the index when the table is empty.
func (p *PgVectorIndex) EnsureBuilt(ctx context.Context) error {
	n, err := p.Count(ctx)
	if err != nil {
		return err
	}

	if n > 0 {
		return nil
	}

	return p.Build(ctx)
}

// Search returns up to k goals ordered by cosine distance to text.
func (p *PgVectorIndex) Search(ctx context.Context, text string, k int) ([]domain.GoalInfo, error) {
	query, err := p.client.GetEmbedding(ctx, text)
	if err != nil {
		recordIndexSearch(IndexDriverPGVector, false)

		return nil, fmt.Errorf("embedding query: %w", err)
	}

	k = clampK(k, int(domain.GoalMax))

	rows, err := p.pool.Query(ctx, `
		SELECT goal
		FROM goal_embeddings
		ORDER BY embedding <=> $1::vector
		LIMIT $2
	`, pgvector.NewVector(query), k)
	if err != nil {
		recordIndexSearch(IndexDriverPGVector, false)

		return nil, fmt.Errorf("search goal embeddings: %w", err)
	}
	defer rows.Close()

	out := make([]domain.GoalInfo, 0, k)

	for rows.Next() {
		var goal int
		if err := rows.Scan(&goal); err != nil {
			recordIndexSearch(IndexDriverPGVector, false)

			return nil, fmt.Errorf("scan goal embedding: %w", err)
		}

		if info, ok := domain.LookupGoal(domain.Goal(goal)); ok {
			out = append(out, info)
		}
	}

	if err := rows.Err(); err != nil {
		recordIndexSearch(IndexDriverPGVector, false)

		return nil, fmt.Errorf("iterate goal embeddings: %w", err)
	}

	recordIndexSearch(IndexDriverPGVector, true)

	return out, nil
}
