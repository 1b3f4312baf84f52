package embeddings

import (
	"time"

	"github.com/lueurxax/faculty-research-sync/internal/platform/observability"
)

const (
	statusSuccess = "success"
	statusError   = "error"

	// Rough token estimate used for the usage counter.
	charsPerToken = 4
)

func recordRequest(provider ProviderName, model string, success bool) {
	observability.EmbeddingRequests.WithLabelValues(string(provider), model, statusLabel(success)).Inc()
}

func recordTokens(provider ProviderName, model, text string) {
	if tokens := (len(text) + charsPerToken - 1) / charsPerToken; tokens > 0 {
		observability.EmbeddingTokens.WithLabelValues(string(provider), model).Add(float64(tokens))
	}
}

func recordLatency(provider ProviderName, model string, d time.Duration) {
	observability.EmbeddingLatency.WithLabelValues(string(provider), model).Observe(d.Seconds())
}

func recordFallback(from, to ProviderName) {
	observability.EmbeddingFallbacks.WithLabelValues(string(from), string(to)).Inc()
}

func setProviderAvailable(provider ProviderName, available bool) {
	value := 0.0
	if available {
		value = 1
	}

	observability.EmbeddingProviderAvailable.WithLabelValues(string(provider)).Set(value)
}

func recordIndexSearch(driver string, success bool) {
	observability.GoalIndexSearches.WithLabelValues(driver, statusLabel(success)).Inc()
}

func statusLabel(success bool) string {
	if success {
		return statusSuccess
	}

	return statusError
}
