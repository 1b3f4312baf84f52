// Package lifecycle derives the active flag of persisted rows.
package lifecycle

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lueurxax/faculty-research-sync/internal/core/domain"
	apperrors "github.com/lueurxax/faculty-research-sync/internal/core/errors"
	"github.com/lueurxax/faculty-research-sync/internal/process/merge"
)

// Faculty recomputes the active flag of every merged faculty row from
// membership in the latest snapshot. Prior values are ignored.
func Faculty(rows []merge.Row[domain.Faculty]) []domain.Faculty {
	out := make([]domain.Faculty, len(rows))

	for i, row := range rows {
		f := row.Record
		f.Active = row.Seen
		out[i] = f
	}

	return out
}

// StatusIndex maps a person_id to its current active flag.
type StatusIndex map[string]bool

// NewStatusIndex indexes the faculty table. When a person_id appears on more
// than one row it is active if any of them is.
func NewStatusIndex(faculty []domain.Faculty) StatusIndex {
	idx := make(StatusIndex, len(faculty))

	for _, f := range faculty {
		id := strings.TrimSpace(f.PersonID)
		if id == "" {
			continue
		}

		idx[id] = idx[id] || f.Active
	}

	return idx
}

// Lookup returns the active flag for personID and whether the person is known.
func (s StatusIndex) Lookup(personID string) (active, known bool) {
	active, known = s[strings.TrimSpace(personID)]

	return active, known
}

// Orphan is a research-output row whose person_id is not in the faculty table.
type Orphan struct {
	Index     int
	PersonID  string
	ArticleID string
}

func (o Orphan) Error() string {
	return fmt.Sprintf("%s: row %d person_id=%q article_id=%q", apperrors.ErrUnknownPerson, o.Index, o.PersonID, o.ArticleID)
}

func (o Orphan) Unwrap() error {
	return apperrors.ErrUnknownPerson
}

// Inherit sets each row's active flag to its author's current status. Rows of
// unknown persons become inactive and are reported as orphans; they are never
// dropped.
func Inherit(rows []domain.ResearchOutput, status StatusIndex) ([]domain.ResearchOutput, []Orphan) {
	out := make([]domain.ResearchOutput, len(rows))

	var orphans []Orphan

	for i, row := range rows {
		active, known := status.Lookup(row.PersonID)
		if !known {
			orphans = append(orphans, Orphan{Index: i, PersonID: row.PersonID, ArticleID: row.ArticleID})
		}

		row.Active = active
		out[i] = row
	}

	return out, orphans
}

// LogOrphans writes one warning per orphaned row.
func LogOrphans(logger *zerolog.Logger, orphans []Orphan) {
	for _, o := range orphans {
		logger.Warn().
			Int("index", o.Index).
			Str("person_id", o.PersonID).
			Str("article_id", o.ArticleID).
			Msg("research output references unknown person, marked inactive")
	}
}
