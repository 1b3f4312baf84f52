package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	apperrors "github.com/lueurxax/faculty-research-sync/internal/core/errors"
)

// Storage drivers.
const (
	StoreDriverFS       = "fs"
	StoreDriverS3       = "s3"
	StoreDriverMemory   = "memory"
	StoreDriverPostgres = "postgres"
)

// Goal index drivers.
const (
	IndexDriverMemory   = "memory"
	IndexDriverPGVector = "pgvector"
)

type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"local"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Table store
	StoreDriver        string `env:"STORE_DRIVER" envDefault:"fs"`
	StoreRoot          string `env:"STORE_ROOT" envDefault:"."`
	FacultyTable       string `env:"FACULTY_TABLE" envDefault:"merged_output.csv"`
	OutputsTable       string `env:"OUTPUTS_TABLE" envDefault:"person_research_outputs.csv"`
	JournalRankingsKey string `env:"JOURNAL_RANKINGS_KEY" envDefault:"journals.xlsx"`
	GoalIndexKey       string `env:"GOAL_INDEX_KEY" envDefault:"sdg_goal_index.json"`

	// S3-compatible object storage
	S3Bucket    string `env:"S3_BUCKET"`
	S3Region    string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Endpoint  string `env:"S3_ENDPOINT"`
	S3PathStyle bool   `env:"S3_PATH_STYLE" envDefault:"false"`
	S3Prefix    string `env:"S3_PREFIX"`

	// PostgreSQL tables and pgvector goal index
	PostgresDSN         string        `env:"POSTGRES_DSN"`
	DBMaxConnections    int32         `env:"DB_MAX_CONNECTIONS" envDefault:"10"`
	DBMinConnections    int32         `env:"DB_MIN_CONNECTIONS" envDefault:"1"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// Research directory API
	DirectoryBaseURL        string        `env:"DIRECTORY_BASE_URL" envDefault:"https://experts.illinois.edu/ws/api/524"`
	DirectoryAPIKey         string        `env:"DIRECTORY_API_KEY"`
	DirectoryOrgIdentifiers []string      `env:"DIRECTORY_ORG_IDENTIFIERS" envSeparator:"," envDefault:"gies-college-of-business,college-of-business,finance,accountancy,business-administration"`
	DirectoryOrgPageSize    int           `env:"DIRECTORY_ORG_PAGE_SIZE" envDefault:"1000"`
	DirectoryPersonPageSize int           `env:"DIRECTORY_PERSON_PAGE_SIZE" envDefault:"500"`
	DirectoryOutputPageSize int           `env:"DIRECTORY_OUTPUT_PAGE_SIZE" envDefault:"1000"`
	DirectoryTimeout        time.Duration `env:"DIRECTORY_TIMEOUT" envDefault:"30s"`
	DirectoryRPS            float64       `env:"DIRECTORY_RPS" envDefault:"5"`

	// Public faculty profile page
	ProfilesEnabled     bool          `env:"PROFILES_ENABLED" envDefault:"true"`
	ProfilesURL         string        `env:"PROFILES_URL" envDefault:"https://giesbusiness.illinois.edu/faculty-research/faculty-profiles#page-1"`
	ProfilesHeadless    bool          `env:"PROFILES_HEADLESS" envDefault:"true"`
	ProfilesBrowserBin  string        `env:"PROFILES_BROWSER_BIN"`
	ProfilesTimeout     time.Duration `env:"PROFILES_TIMEOUT" envDefault:"60s"`
	ProfilesSettleDelay time.Duration `env:"PROFILES_SETTLE_DELAY" envDefault:"5s"`

	// Classification oracle
	LLMAPIKey       string `env:"LLM_API_KEY"`
	LLMBaseURL      string `env:"LLM_BASE_URL"`
	LLMModel        string `env:"LLM_MODEL" envDefault:"o3-mini"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	AnthropicModel  string `env:"ANTHROPIC_MODEL"`
	GoogleAPIKey    string `env:"GOOGLE_API_KEY"`
	GoogleModel     string `env:"GOOGLE_MODEL"`
	RateLimitRPS    int    `env:"RATE_LIMIT_RPS" envDefault:"1"`

	CircuitBreakerThreshold  int           `env:"CIRCUIT_BREAKER_THRESHOLD" envDefault:"5"`
	CircuitBreakerResetAfter time.Duration `env:"CIRCUIT_BREAKER_RESET_AFTER" envDefault:"1m"`

	// Goal retrieval
	EmbeddingModel       string `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-large"`
	EmbeddingDimensions  int    `env:"EMBEDDING_DIMENSIONS" envDefault:"1536"`
	GoogleEmbeddingModel string `env:"GOOGLE_EMBEDDING_MODEL"`
	IndexDriver          string `env:"INDEX_DRIVER" envDefault:"memory"`
	GoalCandidates       int    `env:"GOAL_CANDIDATES" envDefault:"5"`

	// Classification propagator
	ClassifyDelay           time.Duration `env:"CLASSIFY_DELAY" envDefault:"1s"`
	ClassifyMaxAttempts     int           `env:"CLASSIFY_MAX_ATTEMPTS" envDefault:"3"`
	ClassifyBackoffMin      time.Duration `env:"CLASSIFY_BACKOFF_MIN" envDefault:"4s"`
	ClassifyBackoffMax      time.Duration `env:"CLASSIFY_BACKOFF_MAX" envDefault:"10s"`
	ClassifyRetryFallback   bool          `env:"CLASSIFY_RETRY_FALLBACK" envDefault:"true"`
	ClassifyCheckpointEvery int           `env:"CLASSIFY_CHECKPOINT_EVERY" envDefault:"25"`

	// Daemon
	SyncInterval time.Duration `env:"SYNC_INTERVAL" envDefault:"24h"`
	HealthPort   int           `env:"HEALTH_PORT" envDefault:"8080"`
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	applyAliases(cfg)

	return cfg, nil
}

// Validate checks cross-field constraints env tags cannot express.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverFS, StoreDriverMemory:
	case StoreDriverS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("%w: S3_BUCKET is required for store driver %q", apperrors.ErrInvalidInput, c.StoreDriver)
		}
	case StoreDriverPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("%w: POSTGRES_DSN is required for store driver %q", apperrors.ErrInvalidInput, c.StoreDriver)
		}
	default:
		return fmt.Errorf("%w: store %q", apperrors.ErrUnsupportedDriver, c.StoreDriver)
	}

	switch c.IndexDriver {
	case IndexDriverMemory:
	case IndexDriverPGVector:
		if c.PostgresDSN == "" {
			return fmt.Errorf("%w: POSTGRES_DSN is required for index driver %q", apperrors.ErrInvalidInput, c.IndexDriver)
		}
	default:
		return fmt.Errorf("%w: index %q", apperrors.ErrUnsupportedDriver, c.IndexDriver)
	}

	if c.ClassifyMaxAttempts < 1 {
		return fmt.Errorf("%w: CLASSIFY_MAX_ATTEMPTS must be at least 1", apperrors.ErrInvalidInput)
	}

	if c.ClassifyBackoffMax < c.ClassifyBackoffMin {
		return fmt.Errorf("%w: CLASSIFY_BACKOFF_MAX is below CLASSIFY_BACKOFF_MIN", apperrors.ErrInvalidInput)
	}

	if c.GoalCandidates < 1 {
		return fmt.Errorf("%w: GOAL_CANDIDATES must be at least 1", apperrors.ErrInvalidInput)
	}

	return nil
}

// NeedsPostgres reports whether any configured driver uses PostgreSQL.
func (c *Config) NeedsPostgres() bool {
	return c.StoreDriver == StoreDriverPostgres || c.IndexDriver == IndexDriverPGVector
}

func applyAliases(cfg *Config) {
	if !hasEnv("LLM_API_KEY") {
		setStringFromEnv("OPENAI_API_KEY", &cfg.LLMAPIKey)
	}

	if !hasEnv("DIRECTORY_API_KEY") {
		setStringFromEnv("PURE_API_KEY", &cfg.DirectoryAPIKey)
	}

	if !hasEnv("STORE_ROOT") {
		setStringFromEnv("DATA_DIR", &cfg.StoreRoot)
	}
}

func hasEnv(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}

func setStringFromEnv(key string, target *string) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	val = strings.TrimSpace(val)
	if val == "" {
		return
	}

	*target = val
}
