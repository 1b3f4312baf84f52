// Package pipeline runs the sync stages against the persisted tables: faculty
// snapshot reconciliation, research output reconciliation, classification and
// the journal ranking join.
//
// Faculty is saved before outputs are reconciled, because output status is
// inherited from the saved faculty table.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/faculty-research-sync/internal/core/domain"
	apperrors "github.com/lueurxax/faculty-research-sync/internal/core/errors"
	"github.com/lueurxax/faculty-research-sync/internal/core/identity"
	"github.com/lueurxax/faculty-research-sync/internal/platform/observability"
	"github.com/lueurxax/faculty-research-sync/internal/process/classify"
	"github.com/lueurxax/faculty-research-sync/internal/process/lifecycle"
	"github.com/lueurxax/faculty-research-sync/internal/process/rankings"
	db "github.com/lueurxax/faculty-research-sync/internal/storage"
)

// FacultySource returns the current faculty snapshot.
type FacultySource interface {
	FetchFaculty(ctx context.Context) ([]domain.Faculty, error)
}

// OutputSource returns the research outputs of one person.
type OutputSource interface {
	FetchOutputs(ctx context.Context, personID string) ([]domain.ResearchOutput, error)
}

// Classifier resolves unclassified article groups in place.
type Classifier interface {
	Run(ctx context.Context, rows []domain.ResearchOutput, checkpoint classify.CheckpointFunc) (classify.Stats, error)
}

// ObjectReader reads lookup files such as the journal rankings.
type ObjectReader interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

var _ Classifier = (*classify.Propagator)(nil)

// Deps are the collaborators of a pipeline.
type Deps struct {
	Tables      db.TableStore
	Faculty     FacultySource
	Outputs     OutputSource
	Classifier  Classifier
	Lookup      ObjectReader
	RankingsKey string
}

// Pipeline runs the sync stages.
type Pipeline struct {
	tables      db.TableStore
	faculty     FacultySource
	outputs     OutputSource
	classifier  Classifier
	lookup      ObjectReader
	rankingsKey string
	logger      *zerolog.Logger
}

// New returns a pipeline.
func New(deps Deps, logger *zerolog.Logger) *Pipeline {
	return &Pipeline{
		tables:      deps.Tables,
		faculty:     deps.Faculty,
		outputs:     deps.Outputs,
		classifier:  deps.Classifier,
		lookup:      deps.Lookup,
		rankingsKey: deps.RankingsKey,
		logger:      logger,
	}
}

// SyncFaculty merges the current faculty snapshot into the faculty table. A
// failed snapshot fetch aborts the stage without touching the table.
func (p *Pipeline) SyncFaculty(ctx context.Context) (FacultyReport, error) {
	stored, err := p.tables.LoadFaculty(ctx)
	if err != nil {
		return FacultyReport{}, fmt.Errorf("load faculty: %w", err)
	}

	snapshot, err := p.faculty.FetchFaculty(ctx)
	if err != nil {
		return FacultyReport{}, fmt.Errorf("fetch faculty snapshot: %w", err)
	}

	rows, report := ReconcileFaculty(stored, snapshot)

	identity.LogRejections(p.logger, tableFaculty, report.Rejected)

	for _, c := range report.Conflicts {
		p.logger.Warn().
			Str("email", c.Email).
			Str("person_id", c.Stored).
			Str("observed_person_id", c.Observed).
			Msg("snapshot reports a different person_id for a known email, keeping stored id")
	}

	for _, d := range report.Dropped {
		p.logger.Warn().
			Str("email", d.Email).
			Str("person_id", d.PersonID).
			Str("kept_person_id", d.KeptPersonID).
			Msg("dropping duplicate faculty row, outputs of its person_id become orphans")
	}

	if err := p.tables.SaveFaculty(ctx, rows); err != nil {
		return report, fmt.Errorf("save faculty: %w", err)
	}

	recordMerge(tableFaculty, report.MergeReport)

	p.logger.Info().
		Int("snapshot", report.Snapshot).
		Int("rejected", len(report.Rejected)).
		Int("seen", report.Seen).
		Int("unseen", report.Unseen).
		Int("added", report.Added).
		Int("unkeyed", report.Unkeyed).
		Int("duplicates_dropped", report.DuplicatesDropped).
		Int("active", report.Active).
		Int("inactive", report.Inactive).
		Msg("faculty table reconciled")

	return report, nil
}

// SyncResearch fetches outputs for every person in the faculty table, active
// or not, and merges them into the research output table. A person whose
// fetch fails is skipped; their stored rows are kept.
func (p *Pipeline) SyncResearch(ctx context.Context) (OutputReport, error) {
	faculty, err := p.tables.LoadFaculty(ctx)
	if err != nil {
		return OutputReport{}, fmt.Errorf("load faculty: %w", err)
	}

	stored, err := p.tables.LoadOutputs(ctx)
	if err != nil {
		return OutputReport{}, fmt.Errorf("load research outputs: %w", err)
	}

	snapshot, failures, err := p.fetchOutputs(ctx, faculty)
	if err != nil {
		return OutputReport{}, err
	}

	rows, report := ReconcileOutputs(stored, snapshot, faculty)
	report.FetchFailures = failures

	identity.LogRejections(p.logger, tableOutputs, report.Rejected)
	lifecycle.LogOrphans(p.logger, report.Orphans)

	if err := p.tables.SaveOutputs(ctx, rows); err != nil {
		return report, fmt.Errorf("save research outputs: %w", err)
	}

	recordMerge(tableOutputs, report.MergeReport)
	observability.ReferentialWarnings.Set(float64(len(report.Orphans)))

	p.logger.Info().
		Int("snapshot", report.Snapshot).
		Int("fetch_failures", report.FetchFailures).
		Int("rejected", len(report.Rejected)).
		Int("seen", report.Seen).
		Int("unseen", report.Unseen).
		Int("added", report.Added).
		Int("duplicates_dropped", report.DuplicatesDropped).
		Int("orphans", len(report.Orphans)).
		Int("propagated", report.Propagation.Propagated).
		Int("active", report.Active).
		Int("inactive", report.Inactive).
		Msg("research output table reconciled")

	return report, nil
}

func (p *Pipeline) fetchOutputs(ctx context.Context, faculty []domain.Faculty) ([]domain.ResearchOutput, int, error) {
	var (
		snapshot []domain.ResearchOutput
		failures int
	)

	seen := make(map[string]bool, len(faculty))

	for _, f := range faculty {
		personID := strings.TrimSpace(f.PersonID)
		if personID == "" || seen[personID] {
			continue
		}

		seen[personID] = true

		outputs, err := p.outputs.FetchOutputs(ctx, personID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, failures, fmt.Errorf("fetch research outputs: %w", ctx.Err())
			}

			failures++

			p.logger.Warn().Err(err).Str("person_id", personID).Msg("research output fetch failed, keeping stored rows")

			continue
		}

		snapshot = append(snapshot, outputs...)
	}

	return snapshot, failures, nil
}

// Classify classifies pending article groups. The table is saved at every
// classifier checkpoint, so an interrupted stage keeps its progress.
func (p *Pipeline) Classify(ctx context.Context) (classify.Stats, error) {
	rows, err := p.tables.LoadOutputs(ctx)
	if err != nil {
		return classify.Stats{}, fmt.Errorf("load research outputs: %w", err)
	}

	stats, err := p.classifier.Run(ctx, rows, p.tables.SaveOutputs)
	if err != nil {
		return stats, fmt.Errorf("classify research outputs: %w", err)
	}

	return stats, nil
}

// ApplyRankings joins journal ranking scores onto the research output table.
// A missing lookup file skips the stage with a warning.
func (p *Pipeline) ApplyRankings(ctx context.Context) (rankings.Report, error) {
	data, err := p.lookup.Get(ctx, p.rankingsKey)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		p.logger.Warn().Str("key", p.rankingsKey).Msg("journal rankings lookup not found, skipping")

		return rankings.Report{}, nil
	}

	if err != nil {
		return rankings.Report{}, fmt.Errorf("load journal rankings: %w", err)
	}

	table, err := rankings.Parse(p.rankingsKey, bytes.NewReader(data))
	if err != nil {
		return rankings.Report{}, fmt.Errorf("parse journal rankings %s: %w", p.rankingsKey, err)
	}

	rows, err := p.tables.LoadOutputs(ctx)
	if err != nil {
		return rankings.Report{}, fmt.Errorf("load research outputs: %w", err)
	}

	report := rankings.Apply(rows, table)

	if err := p.tables.SaveOutputs(ctx, rows); err != nil {
		return report, fmt.Errorf("save research outputs: %w", err)
	}

	observability.JournalsMatched.WithLabelValues("true").Set(float64(report.Matched))
	observability.JournalsMatched.WithLabelValues("false").Set(float64(report.Journals - report.Matched))

	p.logger.Info().
		Int("journals", report.Journals).
		Int("matched", report.Matched).
		Int("rows", report.Rows).
		Msg("journal rankings applied")

	return report, nil
}

// RunAll runs every stage in order and stops at the first error.
func (p *Pipeline) RunAll(ctx context.Context) error {
	start := time.Now()

	err := p.runStages(ctx)

	status := statusSuccess
	if err != nil {
		status = statusError
	} else {
		observability.LastSuccessfulRun.SetToCurrentTime()
	}

	observability.Runs.WithLabelValues(status).Inc()

	p.logger.Info().Str("status", status).Dur("elapsed", time.Since(start)).Msg("sync run finished")

	return err
}

func (p *Pipeline) runStages(ctx context.Context) error {
	stages := []struct {
		name string
		run  func(context.Context) error
	}{
		{StageFaculty, func(ctx context.Context) error { _, err := p.SyncFaculty(ctx); return err }},
		{StageResearch, func(ctx context.Context) error { _, err := p.SyncResearch(ctx); return err }},
		{StageClassify, func(ctx context.Context) error { _, err := p.Classify(ctx); return err }},
		{StageRankings, func(ctx context.Context) error { _, err := p.ApplyRankings(ctx); return err }},
	}

	for _, s := range stages {
		if err := p.RunStage(ctx, s.name, s.run); err != nil {
			return err
		}
	}

	return nil
}

// RunStage runs one stage with timing and logging.
func (p *Pipeline) RunStage(ctx context.Context, name string, run func(context.Context) error) error {
	start := time.Now()

	p.logger.Info().Str("stage", name).Msg("stage started")

	err := run(ctx)

	observability.StageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if err != nil {
		return fmt.Errorf("stage %s: %w", name, err)
	}

	p.logger.Info().Str("stage", name).Dur("elapsed", time.Since(start)).Msg("stage finished")

	return nil
}

func recordMerge(table string, r MergeReport) {
	observability.SnapshotRecords.WithLabelValues(table).Set(float64(r.Snapshot))
	observability.IdentityRejections.WithLabelValues(table).Add(float64(len(r.Rejected)))
	observability.MergeOutcomes.WithLabelValues(table, "seen").Add(float64(r.Seen))
	observability.MergeOutcomes.WithLabelValues(table, "unseen").Add(float64(r.Unseen))
	observability.MergeOutcomes.WithLabelValues(table, "added").Add(float64(r.Added))
	observability.MergeOutcomes.WithLabelValues(table, "unkeyed").Add(float64(r.Unkeyed))
	observability.MergeOutcomes.WithLabelValues(table, "snapshot_duplicate").Add(float64(r.SnapshotDuplicates))
	observability.DuplicatesDropped.WithLabelValues(table).Add(float64(r.DuplicatesDropped))
	observability.TableRows.WithLabelValues(table, "active").Set(float64(r.Active))
	observability.TableRows.WithLabelValues(table, "inactive").Set(float64(r.Inactive))
}
