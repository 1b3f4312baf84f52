package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	apperrors "github.com/lueurxax/faculty-research-sync/internal/core/errors"
)

// DefaultOpenAIModel is the reasoning model the classifier was tuned on.
const DefaultOpenAIModel = "o3-mini"

// OpenAIConfig holds configuration for the OpenAI provider.
type OpenAIConfig struct {
	APIKey string
	// BaseURL points the client at an OpenAI-compatible endpoint.
	BaseURL   string
	Model     string
	RateLimit int // Requests per second
}

type openaiProvider struct {
	client      *openai.Client
	model       string
	available   bool
	rateLimiter *rate.Limiter
	logger      *zerolog.Logger
}

// NewOpenAIProvider creates a new OpenAI chat provider.
func NewOpenAIProvider(cfg OpenAIConfig, logger *zerolog.Logger) *openaiProvider {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}

	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 1
	}

	return &openaiProvider{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		available:   cfg.APIKey != "" && cfg.APIKey != llmAPIKeyMock,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(cfg.RateLimit)), rateLimiterBurst),
		logger:      logger,
	}
}

func (p *openaiProvider) Name() ProviderName { return ProviderOpenAI }

func (p *openaiProvider) IsAvailable() bool { return p.available }

func (p *openaiProvider) Model() string { return p.model }

// CompleteJSON sends a system and user message in JSON-object response mode.
func (p *openaiProvider) CompleteJSON(ctx context.Context, req Request) (string, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf(errRateLimiter, err)
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		RecordTokenUsage(ProviderOpenAI, p.model, req.Task, 0, 0, false)

		return "", fmt.Errorf(errFmtProviderFailed, ProviderOpenAI, err)
	}

	RecordTokenUsage(ProviderOpenAI, p.model, req.Task, resp.Usage.PromptTokens, resp.Usage.CompletionTokens, true)

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf(errFmtEmptyResponse, apperrors.ErrEmptyResponse, ProviderOpenAI)
	}

	return resp.Choices[0].Message.Content, nil
}
