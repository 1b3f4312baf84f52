package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lueurxax/faculty-research-sync/internal/core/domain"
	apperrors "github.com/lueurxax/faculty-research-sync/internal/core/errors"
)

// DefaultGoalCandidates is the number of goals offered to the ranking step.
const DefaultGoalCandidates = 5

// Classifier answers the two-step sustainability question: is the article
// relevant at all, and if so which goals does it serve.
type Classifier struct {
	completer  Completer
	retriever  GoalRetriever
	candidates int
	logger     *zerolog.Logger
}

var _ ClassifierClient = (*Classifier)(nil)

// NewClassifier creates a classifier. A nil retriever offers every goal to
// the ranking step.
func NewClassifier(completer Completer, retriever GoalRetriever, candidates int, logger *zerolog.Logger) *Classifier {
	if candidates <= 0 {
		candidates = DefaultGoalCandidates
	}

	return &Classifier{
		completer:  completer,
		retriever:  retriever,
		candidates: candidates,
		logger:     logger,
	}
}

// Classify judges one article group. Any malformed response is returned as an
// error so the caller can retry the whole group.
func (c *Classifier) Classify(ctx context.Context, articles []Article) (Verdict, error) {
	if len(articles) == 0 {
		return Verdict{}, fmt.Errorf("%w: no articles to classify", apperrors.ErrInvalidInput)
	}

	text := researchText(articles)

	raw, err := c.completer.CompleteJSON(ctx, Request{
		Task:   TaskRelevance,
		System: relevanceSystemPrompt,
		Prompt: buildRelevancePrompt(text),
	})
	if err != nil {
		return Verdict{}, fmt.Errorf("relevance: %w", err)
	}

	relevant, err := parseRelevance(raw)
	if err != nil {
		return Verdict{}, fmt.Errorf("relevance: %w", err)
	}

	if !relevant {
		return Verdict{}, nil
	}

	candidates, err := c.candidateGoals(ctx, text)
	if err != nil {
		return Verdict{}, err
	}

	raw, err = c.completer.CompleteJSON(ctx, Request{
		Task:   TaskGoals,
		System: goalsSystemPrompt,
		Prompt: buildGoalsPrompt(text, candidates),
	})
	if err != nil {
		return Verdict{}, fmt.Errorf("goals: %w", err)
	}

	goals, err := parseGoals(raw)
	if err != nil {
		return Verdict{}, fmt.Errorf("goals: %w", err)
	}

	c.logger.Debug().
		Int("articles", len(articles)).
		Int("candidates", len(candidates)).
		Interface("goals", goals).
		Msg("article classified as sustainability related")

	return Verdict{IsSustain: true, Goals: goals}, nil
}

func (c *Classifier) candidateGoals(ctx context.Context, text string) ([]domain.GoalInfo, error) {
	if c.retriever == nil {
		return domain.Goals(), nil
	}

	candidates, err := c.retriever.Search(ctx, text, c.candidates)
	if err != nil {
		return nil, fmt.Errorf("retrieving candidate goals: %w", err)
	}

	if len(candidates) == 0 {
		return domain.Goals(), nil
	}

	return candidates, nil
}

func decodeObject(raw string) (map[string]json.RawMessage, error) {
	obj, ok := extractJSON(raw)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object in %q", apperrors.ErrInvalidResponse, truncate(raw))
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(obj), &fields); err != nil {
		return nil, fmt.Errorf(errParseResponse, err)
	}

	return fields, nil
}

// parseRelevance reads {"result": 1|0}. Booleans and quoted digits are
// accepted as well.
func parseRelevance(raw string) (bool, error) {
	fields, err := decodeObject(raw)
	if err != nil {
		return false, err
	}

	value, ok := fields["result"]
	if !ok {
		return false, fmt.Errorf("%w: missing result key", apperrors.ErrInvalidResponse)
	}

	var v any
	if err := json.Unmarshal(value, &v); err != nil {
		return false, fmt.Errorf(errParseResponse, err)
	}

	switch t := v.(type) {
	case bool:
		return t, nil
	case float64:
		return t != 0, nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return false, fmt.Errorf("%w: result %q", apperrors.ErrInvalidResponse, t)
		}

		return n != 0, nil
	default:
		return false, fmt.Errorf("%w: result %s", apperrors.ErrInvalidResponse, string(value))
	}
}

// parseGoals reads {"goals": [..]}. Entries may be numbers or strings such as
// "Goal 7"; entries outside 1..17 and repeats are dropped and at most three
// are kept.
func parseGoals(raw string) ([]domain.Goal, error) {
	fields, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}

	value, ok := fields["goals"]
	if !ok {
		return nil, fmt.Errorf("%w: missing goals key", apperrors.ErrInvalidResponse)
	}

	var entries []any
	if err := json.Unmarshal(value, &entries); err != nil {
		return nil, fmt.Errorf("%w: goals is not a list: %w", apperrors.ErrInvalidResponse, err)
	}

	goals := make([]domain.Goal, 0, domain.MaxRankedGoals)
	seen := make(map[domain.Goal]bool, domain.MaxRankedGoals)

	for _, e := range entries {
		g, ok := goalFromEntry(e)
		if !ok || seen[g] {
			continue
		}

		seen[g] = true
		goals = append(goals, g)

		if len(goals) == domain.MaxRankedGoals {
			break
		}
	}

	return goals, nil
}

func goalFromEntry(e any) (domain.Goal, bool) {
	var n int

	switch t := e.(type) {
	case float64:
		if t != float64(int(t)) {
			return domain.GoalNone, false
		}

		n = int(t)
	case string:
		digits := strings.TrimFunc(t, func(r rune) bool { return r < '0' || r > '9' })

		parsed, err := strconv.Atoi(digits)
		if err != nil {
			return domain.GoalNone, false
		}

		n = parsed
	default:
		return domain.GoalNone, false
	}

	g := domain.Goal(n)

	return g, g.Valid()
}

func truncate(s string) string {
	const limit = 120

	if len(s) <= limit {
		return s
	}

	return s[:limit] + "..."
}
