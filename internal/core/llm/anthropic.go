package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	apperrors "github.com/lueurxax/faculty-research-sync/internal/core/errors"
)

// Anthropic model constants.
const (
	ModelClaudeHaiku = "claude-haiku-4.5"

	defaultAnthropicModel = ModelClaudeHaiku

	contentTypeText = "text"
)

// AnthropicConfig holds configuration for the Anthropic provider.
type AnthropicConfig struct {
	APIKey    string
	Model     string
	RateLimit int // Requests per second
}

type anthropicProvider struct {
	client      anthropic.Client
	model       string
	available   bool
	rateLimiter *rate.Limiter
	logger      *zerolog.Logger
}

// NewAnthropicProvider creates a new Anthropic Claude provider.
func NewAnthropicProvider(cfg AnthropicConfig, logger *zerolog.Logger) *anthropicProvider {
	if cfg.Model == "" {
		cfg.Model = defaultAnthropicModel
	}

	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 1
	}

	return &anthropicProvider{
		client:      anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:       cfg.Model,
		available:   cfg.APIKey != "",
		rateLimiter: rate.NewLimiter(rate.Limit(float64(cfg.RateLimit)), rateLimiterBurst),
		logger:      logger,
	}
}

func (p *anthropicProvider) Name() ProviderName { return ProviderAnthropic }

func (p *anthropicProvider) IsAvailable() bool { return p.available }

func (p *anthropicProvider) Model() string { return p.model }

// CompleteJSON sends the prompt with the system text as the system block.
// Claude has no JSON mode; the prompt asks for JSON only and the caller
// extracts the object from the reply.
func (p *anthropicProvider) CompleteJSON(ctx context.Context, req Request) (string, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf(errRateLimiter, err)
	}

	resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: maxResponseTokens,
		System:    []anthropic.TextBlockParam{{Text: req.System}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	})
	if err != nil {
		RecordTokenUsage(ProviderAnthropic, p.model, req.Task, 0, 0, false)

		return "", fmt.Errorf(errFmtProviderFailed, ProviderAnthropic, err)
	}

	RecordTokenUsage(ProviderAnthropic, p.model, req.Task, int(resp.Usage.InputTokens), int(resp.Usage.OutputTokens), true)

	text := strings.TrimSpace(extractTextFromResponse(resp))
	if text == "" {
		return "", fmt.Errorf(errFmtEmptyResponse, apperrors.ErrEmptyResponse, ProviderAnthropic)
	}

	return text, nil
}

func extractTextFromResponse(resp *anthropic.Message) string {
	var result strings.Builder

	for _, block := range resp.Content {
		if block.Type == contentTypeText {
			result.WriteString(block.Text)
		}
	}

	return result.String()
}
