package classify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/faculty-research-sync/internal/core/domain"
	"github.com/lueurxax/faculty-research-sync/internal/core/llm"
	"github.com/lueurxax/faculty-research-sync/internal/platform/observability"
	"github.com/lueurxax/faculty-research-sync/internal/platform/retry"
	"github.com/lueurxax/faculty-research-sync/internal/platform/worker"
)

// Metric outcome labels.
const (
	outcomePropagated = "propagated"
	outcomeReconciled = "reconciled"
	outcomeClassified = "classified"
	outcomeFallback   = "fallback"

	statusSuccess = "success"
	statusError   = "error"
)

const defaultCheckpointEvery = 25

// CheckpointFunc persists the outputs table. Run calls it with the same slice
// it is mutating.
type CheckpointFunc func(ctx context.Context, rows []domain.ResearchOutput) error

// Config controls the classifier call loop.
type Config struct {
	// Delay separates consecutive classifier calls.
	Delay time.Duration
	// Policy bounds the attempts of one group's call.
	Policy retry.Policy
	// RetryFallback re-sends groups whose classification is a fallback.
	RetryFallback bool
	// CheckpointEvery is the number of resolved groups between checkpoints.
	CheckpointEvery int
}

// Stats summarizes one Run.
type Stats struct {
	PropagationStats

	Pending    int
	Classified int
	FellBack   int
}

// Propagator resolves the classification of every article group.
type Propagator struct {
	oracle llm.ClassifierClient
	cfg    Config
	wait   func(ctx context.Context, d time.Duration) error
	logger *zerolog.Logger
}

// New creates a propagator calling oracle for groups that cannot be resolved
// from the table itself.
func New(oracle llm.ClassifierClient, cfg Config, logger *zerolog.Logger) *Propagator {
	if cfg.CheckpointEvery <= 0 {
		cfg.CheckpointEvery = defaultCheckpointEvery
	}

	return &Propagator{
		oracle: oracle,
		cfg:    cfg,
		wait:   worker.Wait,
		logger: logger,
	}
}

// Run propagates known classifications, then classifies each pending group in
// table order. Every row of a group is written in one step, either with the
// verdict or with the fallback classification once the retry budget is spent.
// rows is modified in place. Only context cancellation and checkpoint errors
// are returned.
func (p *Propagator) Run(ctx context.Context, rows []domain.ResearchOutput, checkpoint CheckpointFunc) (Stats, error) {
	stats := Stats{PropagationStats: Propagate(rows)}

	observability.ClassificationGroups.WithLabelValues(outcomePropagated).Add(float64(stats.Propagated))
	observability.ClassificationGroups.WithLabelValues(outcomeReconciled).Add(float64(stats.Reconciled))

	if stats.Reconciled > 0 {
		p.logger.Warn().Int("groups", stats.Reconciled).Msg("article groups had conflicting classifications")
	}

	pending := Pending(rows, p.cfg.RetryFallback)
	stats.Pending = len(pending)
	observability.ClassificationPending.Set(float64(len(pending)))

	p.logger.Info().
		Int("groups", stats.Groups).
		Int("propagated", stats.Propagated).
		Int("reconciled", stats.Reconciled).
		Int("pending", stats.Pending).
		Int("ungrouped_rows", stats.Ungrouped).
		Msg("classification propagation done")

	sinceCheckpoint := 0

	for n, g := range pending {
		if n > 0 {
			if err := p.wait(ctx, p.cfg.Delay); err != nil {
				return stats, fmt.Errorf("waiting between classifier calls: %w", err)
			}
		}

		c, err := p.classify(ctx, g, rows)
		if err != nil {
			return stats, err
		}

		g.assign(rows, c)

		if c.Source == domain.SourceOracle {
			stats.Classified++
			observability.ClassificationGroups.WithLabelValues(outcomeClassified).Inc()
		} else {
			stats.FellBack++
			observability.ClassificationGroups.WithLabelValues(outcomeFallback).Inc()
		}

		observability.ClassificationPending.Set(float64(len(pending) - n - 1))

		sinceCheckpoint++
		if sinceCheckpoint == p.cfg.CheckpointEvery {
			if err := runCheckpoint(ctx, checkpoint, rows); err != nil {
				return stats, err
			}

			sinceCheckpoint = 0
		}
	}

	if err := runCheckpoint(ctx, checkpoint, rows); err != nil {
		return stats, err
	}

	p.logger.Info().
		Int("classified", stats.Classified).
		Int("fallback", stats.FellBack).
		Msg("classification done")

	return stats, nil
}

// classify asks the oracle about one group. A failure after the retry budget
// yields the fallback classification; only context errors are returned.
func (p *Propagator) classify(ctx context.Context, g Group, rows []domain.ResearchOutput) (domain.Classification, error) {
	groupArticles := g.articles(rows)

	input := make([]llm.Article, 0, len(groupArticles))
	for _, a := range groupArticles {
		input = append(input, llm.Article{Title: a.title, Abstract: a.abstract})
	}

	policy := p.cfg.Policy
	next := policy.OnRetry
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		p.logger.Warn().
			Err(err).
			Str("article_id", g.ArticleID).
			Int("attempt", attempt).
			Dur("backoff", delay).
			Msg("classifier call failed, retrying")

		if next != nil {
			next(attempt, delay, err)
		}
	}

	var verdict llm.Verdict

	err := retry.Do(ctx, policy, func(ctx context.Context) error {
		v, err := p.oracle.Classify(ctx, input)
		if err != nil {
			observability.OracleAttempts.WithLabelValues(statusError).Inc()

			return err
		}

		observability.OracleAttempts.WithLabelValues(statusSuccess).Inc()

		verdict = v

		return nil
	})
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return domain.Classification{}, fmt.Errorf("classifying article %s: %w", g.ArticleID, err)
		}

		p.logger.Warn().
			Err(err).
			Str("article_id", g.ArticleID).
			Int("rows", len(g.Rows)).
			Msg("classifier failed, writing fallback classification")

		return domain.FallbackClassification(), nil
	}

	goals := verdict.Goals
	if !verdict.IsSustain {
		goals = nil
	}

	return domain.NewClassification(verdict.IsSustain, goals, domain.SourceOracle), nil
}

func runCheckpoint(ctx context.Context, checkpoint CheckpointFunc, rows []domain.ResearchOutput) error {
	if checkpoint == nil {
		return nil
	}

	if err := checkpoint(ctx, rows); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}

	return nil
}
