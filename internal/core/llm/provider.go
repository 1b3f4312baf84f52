package llm

import "context"

// ProviderName identifies an LLM provider.
type ProviderName string

// Provider name constants.
const (
	ProviderOpenAI    ProviderName = "openai"
	ProviderAnthropic ProviderName = "anthropic"
	ProviderGoogle    ProviderName = "google"
	ProviderMock      ProviderName = "mock"
)

// Request is one JSON-mode chat completion.
type Request struct {
	// Task labels metrics and logs.
	Task   string
	System string
	Prompt string
}

// Provider is one chat backend. The registry tries providers in the order
// they were registered.
type Provider interface {
	// Name returns the provider identifier.
	Name() ProviderName

	// IsAvailable returns true if the provider is configured and available.
	IsAvailable() bool

	// Model returns the model the provider sends requests to.
	Model() string

	// CompleteJSON returns the raw completion text for a prompt that asks for
	// a JSON object.
	CompleteJSON(ctx context.Context, req Request) (string, error)
}

// Completer runs a request against whichever provider is healthy.
type Completer interface {
	CompleteJSON(ctx context.Context, req Request) (string, error)
}
