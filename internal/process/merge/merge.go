// Package merge combines a persisted table with a freshly fetched snapshot.
//
// Rows are never removed: a persisted row absent from the snapshot is kept as
// is and only marked unseen, and a persisted row without a usable key is
// carried through untouched.
package merge

import (
	"github.com/lueurxax/faculty-research-sync/internal/core/domain"
	"github.com/lueurxax/faculty-research-sync/internal/core/identity"
)

// UpdateFunc returns the stored record refreshed with the observed record's
// non-identity, non-status fields.
type UpdateFunc[R any] func(stored, observed R) R

// Row is one merged record with its observation state.
type Row[R any] struct {
	Record R
	// Seen is true when the row's key is present in the snapshot.
	Seen bool
	// New is true for rows appended from the snapshot.
	New bool
	// Keyed is false for persisted rows without a usable identity.
	Keyed bool
}

// Result is the merged table in output order plus merge statistics.
type Result[R any] struct {
	Rows []Row[R]

	Seen               int
	Unseen             int
	Added              int
	Unkeyed            int
	SnapshotDuplicates int
	Rejected           []identity.Rejection
}

// Records returns the merged records in order.
func (r Result[R]) Records() []R {
	out := make([]R, len(r.Rows))
	for i, row := range r.Rows {
		out[i] = row.Record
	}

	return out
}

// Snapshot merges snapshot into stored. Stored rows keep their order and come
// first; genuinely new snapshot rows follow in snapshot order. When a key
// occurs more than once in the snapshot the first occurrence wins.
func Snapshot[K comparable, R any](stored, snapshot []R, keyOf identity.KeyFunc[K, R], update UpdateFunc[R]) Result[R] {
	observed, rejected := identity.Resolve(snapshot, keyOf)

	res := Result[R]{
		Rows:     make([]Row[R], 0, len(stored)+len(observed)),
		Rejected: rejected,
	}

	first := make(map[K]int, len(observed))

	for i, o := range observed {
		if _, dup := first[o.Key]; dup {
			res.SnapshotDuplicates++

			continue
		}

		first[o.Key] = i
	}

	known := make(map[K]bool, len(stored))

	for _, s := range stored {
		k, err := keyOf(s)
		if err != nil {
			res.Rows = append(res.Rows, Row[R]{Record: s})
			res.Unkeyed++

			continue
		}

		known[k] = true

		if i, ok := first[k]; ok {
			res.Rows = append(res.Rows, Row[R]{Record: update(s, observed[i].Record), Seen: true, Keyed: true})
			res.Seen++

			continue
		}

		res.Rows = append(res.Rows, Row[R]{Record: s, Keyed: true})
		res.Unseen++
	}

	for i, o := range observed {
		if first[o.Key] != i || known[o.Key] {
			continue
		}

		res.Rows = append(res.Rows, Row[R]{Record: o.Record, Seen: true, New: true, Keyed: true})
		res.Added++
	}

	return res
}

// NewFacultyUpdate returns the faculty update rule. Name and department follow
// the newest observation; person_id and email stay as first observed.
// onConflict, when set, is called if the snapshot reports a different
// person_id for a known email.
func NewFacultyUpdate(onConflict func(stored, observed domain.Faculty)) UpdateFunc[domain.Faculty] {
	return func(stored, observed domain.Faculty) domain.Faculty {
		out := stored
		out.Name = observed.Name
		out.Department = observed.Department

		switch {
		case stored.PersonID == "":
			out.PersonID = observed.PersonID
		case observed.PersonID != "" && observed.PersonID != stored.PersonID && onConflict != nil:
			onConflict(stored, observed)
		}

		return out
	}
}

// UpdateOutput refreshes the bibliographic fields of a stored row. The
// classification and journal rankings are article annotations owned by later
// stages and are kept.
func UpdateOutput(stored, observed domain.ResearchOutput) domain.ResearchOutput {
	out := stored
	out.Title = observed.Title
	out.PublicationYear = observed.PublicationYear
	out.DOI = observed.DOI
	out.Abstract = observed.Abstract
	out.JournalTitle = observed.JournalTitle
	out.JournalISSN = observed.JournalISSN

	return out
}
