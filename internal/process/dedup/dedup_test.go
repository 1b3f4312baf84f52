package dedup

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/faculty-research-sync/internal/core/domain"
	"github.com/lueurxax/faculty-research-sync/internal/core/identity"
)

func TestStable(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name        string
		rows        []domain.ResearchOutput
		wantTitles  []string
		wantDropped int
		wantUnkeyed int
	}{
		{
			name:       "empty input",
			rows:       nil,
			wantTitles: []string{},
		},
		{
			name: "no duplicates",
			rows: []domain.ResearchOutput{
				{ArticleID: "a1", PersonID: "p1", Title: "one"},
				{ArticleID: "a1", PersonID: "p2", Title: "co-author"},
				{ArticleID: "a2", PersonID: "p1", Title: "two"},
			},
			wantTitles: []string{"one", "co-author", "two"},
		},
		{
			name: "first row wins",
			rows: []domain.ResearchOutput{
				{ArticleID: "a1", PersonID: "p1", Title: "persisted"},
				{ArticleID: "a2", PersonID: "p1", Title: "other"},
				{ArticleID: "a1", PersonID: "p1", Title: "re-merged"},
			},
			wantTitles:  []string{"persisted", "other"},
			wantDropped: 1,
		},
		{
			name: "unkeyed rows kept",
			rows: []domain.ResearchOutput{
				{ArticleID: "", PersonID: "p1", Title: "legacy"},
				{ArticleID: "", PersonID: "p1", Title: "legacy"},
			},
			wantTitles:  []string{"legacy", "legacy"},
			wantUnkeyed: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Stable(tt.rows, identity.OutputKeyOf, &logger)

			titles := make([]string, 0, len(res.Rows))
			for _, r := range res.Rows {
				titles = append(titles, r.Title)
			}

			assert.Equal(t, tt.wantTitles, titles)
			assert.Equal(t, tt.wantDropped, res.DroppedCount)
			assert.Equal(t, tt.wantUnkeyed, res.Unkeyed)
		})
	}
}

func TestStable_DuplicateMap(t *testing.T) {
	rows := []domain.Faculty{
		{Email: "a@x.edu", Name: "first"},
		{Email: "b@x.edu"},
		{Email: "A@x.edu", Name: "second"},
	}

	res := Stable(rows, identity.FacultyKeyOf, nil)

	require.Len(t, res.Rows, 2)
	assert.Equal(t, "first", res.Rows[0].Name)
	assert.Equal(t, map[int]int{2: 0}, res.DuplicateMap)
}

func TestDuplicates(t *testing.T) {
	rows := []domain.ResearchOutput{
		{ArticleID: "a1", PersonID: "p1"},
		{ArticleID: "a1", PersonID: "p1"},
		{ArticleID: "a1", PersonID: "p1"},
		{ArticleID: "a2", PersonID: "p1"},
	}

	dups := Duplicates(rows, identity.OutputKeyOf)

	assert.Equal(t, []identity.OutputKey{{ArticleID: "a1", PersonID: "p1"}}, dups)
	assert.Empty(t, Duplicates(rows[2:], identity.OutputKeyOf))
}
