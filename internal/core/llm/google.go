package llm

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	apperrors "github.com/lueurxax/faculty-research-sync/internal/core/errors"
)

// Google model constants.
const (
	// ModelGeminiFlashLite is the cheapest/fastest Google model.
	ModelGeminiFlashLite = "gemini-2.5-flash-lite"

	defaultGoogleModel = ModelGeminiFlashLite

	mimeTypeJSON = "application/json"
)

// GoogleConfig holds configuration for the Google provider.
type GoogleConfig struct {
	APIKey    string
	Model     string
	RateLimit int // Requests per second
}

type googleProvider struct {
	client      *genai.Client
	model       string
	rateLimiter *rate.Limiter
	logger      *zerolog.Logger
}

// NewGoogleProvider creates a new Google Gemini provider.
func NewGoogleProvider(ctx context.Context, cfg GoogleConfig, logger *zerolog.Logger) (*googleProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("creating google genai client: %w", err)
	}

	if cfg.Model == "" {
		cfg.Model = defaultGoogleModel
	}

	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 1
	}

	return &googleProvider{
		client:      client,
		model:       cfg.Model,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(cfg.RateLimit)), rateLimiterBurst),
		logger:      logger,
	}, nil
}

// Close closes the Google client.
func (p *googleProvider) Close() error {
	if err := p.client.Close(); err != nil {
		return fmt.Errorf("closing google genai client: %w", err)
	}

	return nil
}

func (p *googleProvider) Name() ProviderName { return ProviderGoogle }

func (p *googleProvider) IsAvailable() bool { return p.client != nil }

func (p *googleProvider) Model() string { return p.model }

// CompleteJSON sends the prompt with a JSON response MIME type.
func (p *googleProvider) CompleteJSON(ctx context.Context, req Request) (string, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf(errRateLimiter, err)
	}

	genModel := p.client.GenerativeModel(p.model)
	genModel.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(sanitizeUTF8(req.System))}}
	genModel.ResponseMIMEType = mimeTypeJSON

	resp, err := genModel.GenerateContent(ctx, genai.Text(sanitizeUTF8(req.Prompt)))
	if err != nil {
		RecordTokenUsage(ProviderGoogle, p.model, req.Task, 0, 0, false)

		return "", fmt.Errorf(errFmtProviderFailed, ProviderGoogle, err)
	}

	promptTokens, completionTokens := 0, 0
	if resp.UsageMetadata != nil {
		promptTokens = int(resp.UsageMetadata.PromptTokenCount)
		completionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	RecordTokenUsage(ProviderGoogle, p.model, req.Task, promptTokens, completionTokens, true)

	text := strings.TrimSpace(extractGoogleResponseText(resp))
	if text == "" {
		return "", fmt.Errorf(errFmtEmptyResponse, apperrors.ErrEmptyResponse, ProviderGoogle)
	}

	return text, nil
}

func extractGoogleResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var sb strings.Builder

	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}

		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}

		break
	}

	return sb.String()
}

// sanitizeUTF8 replaces invalid UTF-8 sequences. Google's protobuf API
// requires valid UTF-8 and scraped abstracts occasionally contain bad bytes.
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}

	return strings.ToValidUTF8(s, string(utf8.RuneError))
}
