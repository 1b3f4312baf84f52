package pipeline

import (
	"github.com/lueurxax/faculty-research-sync/internal/core/domain"
	"github.com/lueurxax/faculty-research-sync/internal/core/identity"
	"github.com/lueurxax/faculty-research-sync/internal/process/classify"
	"github.com/lueurxax/faculty-research-sync/internal/process/dedup"
	"github.com/lueurxax/faculty-research-sync/internal/process/lifecycle"
	"github.com/lueurxax/faculty-research-sync/internal/process/merge"
)

// MergeReport holds the counts shared by both tables.
type MergeReport struct {
	Snapshot           int
	Rejected           []identity.Rejection
	Seen               int
	Unseen             int
	Added              int
	Unkeyed            int
	SnapshotDuplicates int
	DuplicatesDropped  int
	Active             int
	Inactive           int
}

// FacultyReport describes one faculty reconciliation.
type FacultyReport struct {
	MergeReport
	// Conflicts lists known emails the snapshot reported under another
	// person_id. The stored person_id was kept.
	Conflicts []PersonIDConflict
	// Dropped lists rows removed as duplicates of an earlier row with the same
	// email. Outputs of a dropped person_id lose their author.
	Dropped []DroppedFaculty
}

// DroppedFaculty is a faculty row removed by deduplication.
type DroppedFaculty struct {
	Email        string
	PersonID     string
	KeptPersonID string
}

// PersonIDConflict is a snapshot row that disagrees with the stored person_id.
type PersonIDConflict struct {
	Email    string
	Stored   string
	Observed string
}

// OutputReport describes one research output reconciliation.
type OutputReport struct {
	MergeReport
	Orphans     []lifecycle.Orphan
	Propagation classify.PropagationStats
	// FetchFailures counts persons whose outputs could not be fetched.
	FetchFailures int
}

func mergeReport[R any](snapshot int, res merge.Result[R]) MergeReport {
	return MergeReport{
		Snapshot:           snapshot,
		Rejected:           res.Rejected,
		Seen:               res.Seen,
		Unseen:             res.Unseen,
		Added:              res.Added,
		Unkeyed:            res.Unkeyed,
		SnapshotDuplicates: res.SnapshotDuplicates,
	}
}

// ReconcileFaculty merges a faculty snapshot into the stored table. Every
// stored row survives; active is true exactly for rows whose email is in the
// snapshot.
func ReconcileFaculty(stored, snapshot []domain.Faculty) ([]domain.Faculty, FacultyReport) {
	var conflicts []PersonIDConflict

	update := merge.NewFacultyUpdate(func(s, o domain.Faculty) {
		conflicts = append(conflicts, PersonIDConflict{Email: s.Email, Stored: s.PersonID, Observed: o.PersonID})
	})

	res := merge.Snapshot(stored, snapshot, identity.FacultyKeyOf, update)
	rows := lifecycle.Faculty(res.Rows)

	deduped := dedup.Stable(rows, identity.FacultyKeyOf, nil)

	report := FacultyReport{MergeReport: mergeReport(len(snapshot), res), Conflicts: conflicts}
	report.DuplicatesDropped = deduped.DroppedCount

	for i := range rows {
		kept, dropped := deduped.DuplicateMap[i]
		if !dropped {
			continue
		}

		report.Dropped = append(report.Dropped, DroppedFaculty{
			Email:        rows[i].Email,
			PersonID:     rows[i].PersonID,
			KeptPersonID: rows[kept].PersonID,
		})
	}

	for _, f := range deduped.Rows {
		if f.Active {
			report.Active++
		} else {
			report.Inactive++
		}
	}

	return deduped.Rows, report
}

// ReconcileOutputs merges a research output snapshot into the stored table,
// sets each row's active flag from its author in faculty and copies known
// article classifications onto rows that lack them.
func ReconcileOutputs(stored, snapshot []domain.ResearchOutput, faculty []domain.Faculty) ([]domain.ResearchOutput, OutputReport) {
	res := merge.Snapshot(stored, snapshot, identity.OutputKeyOf, merge.UpdateOutput)

	deduped := dedup.Stable(res.Records(), identity.OutputKeyOf, nil)

	rows, orphans := lifecycle.Inherit(deduped.Rows, lifecycle.NewStatusIndex(faculty))

	report := OutputReport{
		MergeReport: mergeReport(len(snapshot), res),
		Orphans:     orphans,
		Propagation: classify.Propagate(rows),
	}
	report.DuplicatesDropped = deduped.DroppedCount

	for _, o := range rows {
		if o.Active {
			report.Active++
		} else {
			report.Inactive++
		}
	}

	return rows, report
}
