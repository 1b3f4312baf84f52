package llm

// Error message templates
const (
	errRateLimiter       = "rate limiter error: %w"
	errParseResponse     = "failed to parse response: %w"
	errFmtEmptyResponse  = "%w from %s"
	errFmtProviderFailed = "%s completion: %w"
)

const llmAPIKeyMock = "mock"

// Log message strings
const (
	logMsgCircuitBreakerOpen = "skipping provider - circuit breaker open"
)

// Log key strings
const (
	logKeyTask     = "task"
	logKeyModel    = "model"
	logKeyProvider = "provider"
)

// Tasks
const (
	TaskRelevance = "sdg_relevance"
	TaskGoals     = "sdg_goals"
)

// Metric status values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Metric gauge values
const (
	MetricValueAvailable   = 1.0
	MetricValueUnavailable = 0.0
)

// Numeric constants
const (
	rateLimiterBurst  = 5
	maxResponseTokens = 512
)
