package embeddings

import (
	"context"
	"fmt"

	"github.com/lueurxax/faculty-research-sync/internal/core/domain"
)

// Index driver labels.
const (
	IndexDriverMemory   = "memory"
	IndexDriverPGVector = "pgvector"
)

// Index retrieves the goals closest to a research text.
type Index interface {
	Search(ctx context.Context, text string, k int) ([]domain.GoalInfo, error)
}

// GoalDocument is the text embedded for a goal.
func GoalDocument(g domain.GoalInfo) string {
	return fmt.Sprintf("%s: %s", g.Title, g.Description)
}

// scoredGoal is one search hit.
type scoredGoal struct {
	goal  domain.GoalInfo
	score float64
}

func clampK(k, n int) int {
	if k <= 0 || k > n {
		return n
	}

	return k
}
