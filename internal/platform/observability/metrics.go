package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SnapshotRecords = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "research_sync_snapshot_records",
		Help: "Number of records in the latest fetched snapshot",
	}, []string{"table"})

	IdentityRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "research_sync_identity_rejections_total",
		Help: "Total number of records excluded for lacking a usable identity",
	}, []string{"table"})

	MergeOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "research_sync_merge_rows_total",
		Help: "Merged rows by outcome (seen, unseen, added, unkeyed, snapshot_duplicate)",
	}, []string{"table", "outcome"})

	TableRows = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "research_sync_table_rows",
		Help: "Rows in the persisted table by lifecycle status",
	}, []string{"table", "status"})

	DuplicatesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "research_sync_duplicates_dropped_total",
		Help: "Rows dropped by identity deduplication",
	}, []string{"table"})

	ReferentialWarnings = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "research_sync_orphan_outputs",
		Help: "Research outputs whose person_id is missing from the faculty table in the last run",
	})

	ClassificationGroups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "research_sync_classification_groups_total",
		Help: "Article groups by propagation outcome (propagated, reconciled, classified, fallback)",
	}, []string{"outcome"})

	ClassificationPending = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "research_sync_classification_pending",
		Help: "Article groups still waiting for the classifier",
	})

	OracleAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "research_sync_oracle_attempts_total",
		Help: "Classifier calls by status",
	}, []string{"status"})

	JournalsMatched = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "research_sync_journals",
		Help: "Unique journals in the outputs table by ranking match",
	}, []string{"matched"})

	DirectoryRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "research_sync_directory_requests_total",
		Help: "Directory API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	DirectoryRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "research_sync_directory_request_duration_seconds",
		Help:    "Duration of directory API requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	ProfilesScraped = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "research_sync_profiles_scraped",
		Help: "Profiles parsed from the public faculty page in the last scrape",
	})

	StoreOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "research_sync_store_operations_total",
		Help: "Table store operations by driver, operation and status",
	}, []string{"driver", "op", "status"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "research_sync_stage_duration_seconds",
		Help:    "Duration of pipeline stages",
		Buckets: []float64{1, 5, 15, 30, 60, 300, 900, 1800, 3600, 7200},
	}, []string{"stage"})

	Runs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "research_sync_runs_total",
		Help: "Pipeline runs by status",
	}, []string{"status"})

	LastSuccessfulRun = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "research_sync_last_success_timestamp_seconds",
		Help: "Unix time of the last successful run",
	})

	// LLM token usage
	LLMTokensPrompt = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "research_sync_llm_tokens_prompt_total",
		Help: "Total number of prompt tokens used",
	}, []string{"provider", "model", "task"})

	LLMTokensCompletion = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "research_sync_llm_tokens_completion_total",
		Help: "Total number of completion tokens used",
	}, []string{"provider", "model", "task"})

	LLMRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "research_sync_llm_requests_total",
		Help: "Total number of LLM requests",
	}, []string{"provider", "model", "task", "status"})

	// LLM fallback and circuit breaker metrics
	LLMFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "research_sync_llm_fallbacks_total",
		Help: "Total number of LLM fallback events",
	}, []string{"from_provider", "to_provider", "task"})

	LLMCircuitBreakerOpens = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "research_sync_llm_circuit_breaker_opens_total",
		Help: "Total number of times LLM circuit breaker opened",
	}, []string{"provider"})

	LLMRequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "research_sync_llm_request_latency_seconds",
		Help:    "Latency of LLM requests by provider and task",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"provider", "model", "task"})

	LLMProviderAvailable = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "research_sync_llm_provider_available",
		Help: "Whether LLM provider is currently available (0=no, 1=yes)",
	}, []string{"provider"})

	// Embedding metrics
	EmbeddingRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "research_sync_embedding_requests_total",
		Help: "Total number of embedding requests",
	}, []string{"provider", "model", "status"})

	EmbeddingTokens = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "research_sync_embedding_tokens_total",
		Help: "Estimated tokens sent to embedding providers",
	}, []string{"provider", "model"})

	EmbeddingLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "research_sync_embedding_latency_seconds",
		Help:    "Latency of embedding requests",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"provider", "model"})

	EmbeddingProviderAvailable = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "research_sync_embedding_provider_available",
		Help: "Whether embedding provider is currently available (0=no, 1=yes)",
	}, []string{"provider"})

	EmbeddingFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "research_sync_embedding_fallbacks_total",
		Help: "Total number of embedding provider fallback events",
	}, []string{"from_provider", "to_provider"})

	GoalIndexSearches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "research_sync_goal_index_searches_total",
		Help: "Candidate goal searches by index driver and status",
	}, []string{"driver", "status"})
)
