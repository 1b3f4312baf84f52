// Package app provides the application bootstrap and runtime orchestration.
//
// The App type wires together all dependencies and exposes methods to run
// the operational modes:
//
//   - Stage modes: faculty, research, classify or rankings run once
//   - All mode: every stage in order
//   - Index mode: (re)builds the goal embedding index
//   - Daemon mode: runs all stages every SYNC_INTERVAL and serves health and
//     metrics
//
// Every run gets a fresh run_id that tags all of its log lines.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lueurxax/faculty-research-sync/internal/core/embeddings"
	apperrors "github.com/lueurxax/faculty-research-sync/internal/core/errors"
	"github.com/lueurxax/faculty-research-sync/internal/core/llm"
	"github.com/lueurxax/faculty-research-sync/internal/ingest"
	"github.com/lueurxax/faculty-research-sync/internal/ingest/directory"
	"github.com/lueurxax/faculty-research-sync/internal/ingest/profiles"
	"github.com/lueurxax/faculty-research-sync/internal/platform/config"
	"github.com/lueurxax/faculty-research-sync/internal/platform/observability"
	"github.com/lueurxax/faculty-research-sync/internal/platform/retry"
	"github.com/lueurxax/faculty-research-sync/internal/platform/worker"
	"github.com/lueurxax/faculty-research-sync/internal/process/classify"
	"github.com/lueurxax/faculty-research-sync/internal/process/pipeline"
	db "github.com/lueurxax/faculty-research-sync/internal/storage"
	"github.com/lueurxax/faculty-research-sync/internal/storage/blob"
)

// Modes accepted by Run besides the stage names.
const (
	ModeAll    = "all"
	ModeIndex  = "index"
	ModeDaemon = "daemon"
)

const (
	logFieldRunID = "run_id"
	logFieldMode  = "mode"
	daemonWorker  = "sync"
)

// ErrUnknownMode is returned for a mode Run does not know.
var ErrUnknownMode = errors.New("unknown mode")

// App holds the application dependencies and provides methods to run different modes.
type App struct {
	cfg      *config.Config
	store    blob.Store
	database *db.DB
	tables   db.TableStore
	logger   *zerolog.Logger
}

// New creates a new App instance. database may be nil when no configured
// driver uses PostgreSQL.
func New(cfg *config.Config, store blob.Store, database *db.DB, logger *zerolog.Logger) *App {
	var tables db.TableStore = db.NewBlobTables(store, cfg.FacultyTable, cfg.OutputsTable, logger)
	if cfg.StoreDriver == config.StoreDriverPostgres && database != nil {
		tables = db.NewPostgresTables(database)
	}

	return &App{
		cfg:      cfg,
		store:    store,
		database: database,
		tables:   tables,
		logger:   logger,
	}
}

// Run runs one mode to completion. Daemon mode returns when ctx is done.
func (a *App) Run(ctx context.Context, mode string) error {
	switch mode {
	case pipeline.StageFaculty, pipeline.StageResearch, pipeline.StageClassify, pipeline.StageRankings:
		return a.RunStage(ctx, mode)
	case ModeAll:
		return a.RunAll(ctx)
	case ModeIndex:
		return a.RunIndex(ctx)
	case ModeDaemon:
		return a.RunDaemon(ctx)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}

// RunStage runs a single pipeline stage.
func (a *App) RunStage(ctx context.Context, stage string) error {
	logger := a.runLogger(stage)

	p, err := a.newPipeline(ctx, stage == pipeline.StageClassify, logger)
	if err != nil {
		return err
	}

	return p.RunStage(ctx, stage, func(ctx context.Context) error {
		switch stage {
		case pipeline.StageFaculty:
			_, err := p.SyncFaculty(ctx)
			return err
		case pipeline.StageResearch:
			_, err := p.SyncResearch(ctx)
			return err
		case pipeline.StageClassify:
			_, err := p.Classify(ctx)
			return err
		default:
			_, err := p.ApplyRankings(ctx)
			return err
		}
	})
}

// RunAll runs every stage once.
func (a *App) RunAll(ctx context.Context) error {
	logger := a.runLogger(ModeAll)

	p, err := a.newPipeline(ctx, true, logger)
	if err != nil {
		return err
	}

	return p.RunAll(ctx)
}

// RunIndex rebuilds the goal embedding index for the configured driver.
func (a *App) RunIndex(ctx context.Context) error {
	logger := a.runLogger(ModeIndex)
	client := a.newEmbeddingClient(ctx, logger)

	if a.cfg.IndexDriver == config.IndexDriverPGVector {
		if a.database == nil {
			return fmt.Errorf("%w: pgvector index needs a database", apperrors.ErrInvalidInput)
		}

		return embeddings.NewPgVectorIndex(a.database.Pool, client, logger).Build(ctx)
	}

	idx, err := embeddings.BuildMemoryIndex(ctx, client, logger)
	if err != nil {
		return err
	}

	return idx.Save(ctx, a.store, a.cfg.GoalIndexKey)
}

// RunDaemon serves health and metrics and runs all stages every
// SYNC_INTERVAL. A failed run is logged and retried at the next tick.
func (a *App) RunDaemon(ctx context.Context) error {
	if err := observability.NewServer(a.readinessProbe(), a.cfg.HealthPort, a.logger).Start(ctx); err != nil {
		return fmt.Errorf("start health server: %w", err)
	}

	a.logger.Info().Int("port", a.cfg.HealthPort).Dur("interval", a.cfg.SyncInterval).Msg("sync daemon started")

	return worker.Loop(ctx, worker.Config{
		Name:     daemonWorker,
		Interval: a.cfg.SyncInterval,
		Process:  a.RunAll,
		OnError: func(err error) bool {
			a.logger.Error().Err(err).Msg("sync run failed, waiting for next interval")

			return true
		},
		Logger: a.logger,
	})
}

func (a *App) readinessProbe() observability.Pinger {
	if a.cfg.StoreDriver == config.StoreDriverPostgres && a.database != nil {
		return a.database
	}

	return a.store
}

func (a *App) runLogger(mode string) *zerolog.Logger {
	l := a.logger.With().Str(logFieldRunID, uuid.NewString()).Str(logFieldMode, mode).Logger()

	return &l
}

func (a *App) newPipeline(ctx context.Context, withClassifier bool, logger *zerolog.Logger) (*pipeline.Pipeline, error) {
	source := a.newSource(logger)

	deps := pipeline.Deps{
		Tables:      a.tables,
		Faculty:     source,
		Outputs:     source,
		Lookup:      a.store,
		RankingsKey: a.cfg.JournalRankingsKey,
	}

	if withClassifier {
		propagator, err := a.newPropagator(ctx, logger)
		if err != nil {
			return nil, err
		}

		deps.Classifier = propagator
	}

	return pipeline.New(deps, logger), nil
}

func (a *App) newSource(logger *zerolog.Logger) *ingest.Source {
	dir := directory.New(directory.Config{
		BaseURL:           a.cfg.DirectoryBaseURL,
		APIKey:            a.cfg.DirectoryAPIKey,
		OrgIdentifiers:    a.cfg.DirectoryOrgIdentifiers,
		OrgPageSize:       a.cfg.DirectoryOrgPageSize,
		PersonPageSize:    a.cfg.DirectoryPersonPageSize,
		OutputPageSize:    a.cfg.DirectoryOutputPageSize,
		Timeout:           a.cfg.DirectoryTimeout,
		RequestsPerSecond: a.cfg.DirectoryRPS,
	}, logger)

	if !a.cfg.ProfilesEnabled {
		return ingest.New(dir, nil, logger)
	}

	scraper := profiles.New(profiles.Config{
		URL:         a.cfg.ProfilesURL,
		Headless:    a.cfg.ProfilesHeadless,
		BrowserBin:  a.cfg.ProfilesBrowserBin,
		Timeout:     a.cfg.ProfilesTimeout,
		SettleDelay: a.cfg.ProfilesSettleDelay,
	}, logger)

	return ingest.New(dir, scraper, logger)
}

func (a *App) newPropagator(ctx context.Context, logger *zerolog.Logger) (*classify.Propagator, error) {
	retriever, err := a.newGoalRetriever(ctx, logger)
	if err != nil {
		return nil, err
	}

	oracle, err := llm.New(ctx, a.cfg, retriever, logger)
	if err != nil {
		return nil, fmt.Errorf("classifier init: %w", err)
	}

	policy := retry.DefaultPolicy()
	policy.MaxAttempts = a.cfg.ClassifyMaxAttempts
	policy.InitialDelay = a.cfg.ClassifyBackoffMin
	policy.MaxDelay = a.cfg.ClassifyBackoffMax

	return classify.New(oracle, classify.Config{
		Delay:           a.cfg.ClassifyDelay,
		Policy:          policy,
		RetryFallback:   a.cfg.ClassifyRetryFallback,
		CheckpointEvery: a.cfg.ClassifyCheckpointEvery,
	}, logger), nil
}

func (a *App) newGoalRetriever(ctx context.Context, logger *zerolog.Logger) (llm.GoalRetriever, error) {
	client := a.newEmbeddingClient(ctx, logger)

	if a.cfg.IndexDriver == config.IndexDriverPGVector {
		if a.database == nil {
			return nil, fmt.Errorf("%w: pgvector index needs a database", apperrors.ErrInvalidInput)
		}

		idx := embeddings.NewPgVectorIndex(a.database.Pool, client, logger)
		if err := idx.EnsureBuilt(ctx); err != nil {
			return nil, fmt.Errorf("goal index: %w", err)
		}

		return idx, nil
	}

	idx, err := embeddings.LoadOrBuildMemoryIndex(ctx, a.store, a.cfg.GoalIndexKey, client, logger)
	if err != nil {
		return nil, fmt.Errorf("goal index: %w", err)
	}

	return idx, nil
}

func (a *App) newEmbeddingClient(ctx context.Context, logger *zerolog.Logger) embeddings.Client {
	return embeddings.NewClient(ctx, embeddings.Config{
		OpenAIAPIKey:     a.cfg.LLMAPIKey,
		OpenAIBaseURL:    a.cfg.LLMBaseURL,
		OpenAIModel:      a.cfg.EmbeddingModel,
		OpenAIDimensions: a.cfg.EmbeddingDimensions,
		OpenAIRateLimit:  a.cfg.RateLimitRPS,
		GoogleAPIKey:     a.cfg.GoogleAPIKey,
		GoogleModel:      a.cfg.GoogleEmbeddingModel,
		GoogleRateLimit:  a.cfg.RateLimitRPS,
		CircuitBreakerConfig: embeddings.CircuitBreakerConfig{
			Threshold:  a.cfg.CircuitBreakerThreshold,
			ResetAfter: a.cfg.CircuitBreakerResetAfter,
		},
		TargetDimensions: a.cfg.EmbeddingDimensions,
	}, logger)
}
