// Package classify keeps the article-level classification consistent across
// every authorship row of an article and fills the gaps with the classifier.
package classify

import (
	"github.com/lueurxax/faculty-research-sync/internal/core/domain"
	"github.com/lueurxax/faculty-research-sync/internal/core/identity"
)

// Group is the set of rows sharing one article_id, as indexes into the
// outputs table.
type Group struct {
	ArticleID string
	Rows      []int
}

// Groups returns the article groups in order of first appearance. Rows without
// an article_id belong to no group.
func Groups(rows []domain.ResearchOutput) []Group {
	index := make(map[string]int)

	var groups []Group

	for i, row := range rows {
		id := identity.ArticleKeyOf(row)
		if id == "" {
			continue
		}

		g, ok := index[id]
		if !ok {
			g = len(groups)
			index[id] = g
			groups = append(groups, Group{ArticleID: id})
		}

		groups[g].Rows = append(groups[g].Rows, i)
	}

	return groups
}

// canonical returns the row whose classification the group adopts: the first
// row classified by the oracle, else the first classified row. ok is false for
// a group with no classified row.
func (g Group) canonical(rows []domain.ResearchOutput) (domain.Classification, bool) {
	var (
		first    domain.Classification
		hasFirst bool
	)

	for _, i := range g.Rows {
		c := rows[i].Classification
		if c == nil {
			continue
		}

		if c.Source == domain.SourceOracle {
			return *c, true
		}

		if !hasFirst {
			first, hasFirst = *c, true
		}
	}

	return first, hasFirst
}

// assign writes c to every row of the group. Each row gets its own copy.
func (g Group) assign(rows []domain.ResearchOutput, c domain.Classification) {
	for _, i := range g.Rows {
		cls := c
		rows[i].Classification = &cls
	}
}

// articles returns the distinct title and abstract pairs of the group in row
// order.
func (g Group) articles(rows []domain.ResearchOutput) []article {
	seen := make(map[article]bool, len(g.Rows))
	out := make([]article, 0, 1)

	for _, i := range g.Rows {
		a := article{title: rows[i].Title, abstract: rows[i].Abstract}
		if seen[a] {
			continue
		}

		seen[a] = true
		out = append(out, a)
	}

	return out
}

type article struct {
	title    string
	abstract string
}

// PropagationStats counts what Propagate did.
type PropagationStats struct {
	Groups int
	// Consistent groups were already fully classified with one verdict.
	Consistent int
	// Propagated groups had unclassified rows filled from a classified row.
	Propagated int
	// Reconciled groups had classified rows that disagreed.
	Reconciled int
	// Unclassified groups have no classified row.
	Unclassified int
	// Ungrouped rows have no article_id.
	Ungrouped int
}

// Propagate copies each group's canonical classification onto the rows of the
// group that lack it or disagree with it. It never calls the classifier.
func Propagate(rows []domain.ResearchOutput) PropagationStats {
	groups := Groups(rows)
	stats := PropagationStats{Groups: len(groups)}

	grouped := 0

	for _, g := range groups {
		grouped += len(g.Rows)

		c, ok := g.canonical(rows)
		if !ok {
			stats.Unclassified++

			continue
		}

		missing, disagree := false, false

		for _, i := range g.Rows {
			switch rc := rows[i].Classification; {
			case rc == nil:
				missing = true
			case !rc.Equal(c):
				disagree = true
			}
		}

		switch {
		case disagree:
			stats.Reconciled++
		case missing:
			stats.Propagated++
		default:
			stats.Consistent++

			continue
		}

		g.assign(rows, c)
	}

	stats.Ungrouped = len(rows) - grouped

	return stats
}

// Pending returns the groups the classifier still has to judge: groups with
// no classified row, plus groups holding only a fallback classification when
// retryFallback is set. Call it after Propagate.
func Pending(rows []domain.ResearchOutput, retryFallback bool) []Group {
	var pending []Group

	for _, g := range Groups(rows) {
		c, ok := g.canonical(rows)

		switch {
		case !ok:
			pending = append(pending, g)
		case retryFallback && c.Source == domain.SourceFallback:
			pending = append(pending, g)
		}
	}

	return pending
}
