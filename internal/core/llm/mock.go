package llm

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

const mockModel = "mock"

// sustainabilityKeywords drive the mock relevance verdict.
var sustainabilityKeywords = []string{
	"sustainab", "climate", "poverty", "inequality", "renewable", "emission",
	"health", "education", "gender", "water", "biodiversity", "circular economy",
}

var candidateGoalPattern = regexp.MustCompile(`(?m)^Goal (\d+):`)

// mockProvider answers deterministically without network access. It is used
// for dry runs and tests.
type mockProvider struct{}

// NewMockProvider creates the deterministic mock provider.
func NewMockProvider() *mockProvider {
	return &mockProvider{}
}

func (p *mockProvider) Name() ProviderName { return ProviderMock }

func (p *mockProvider) IsAvailable() bool { return true }

func (p *mockProvider) Model() string { return mockModel }

// CompleteJSON marks research relevant when it mentions a sustainability
// keyword and ranks the first three candidate goals in prompt order.
func (p *mockProvider) CompleteJSON(_ context.Context, req Request) (string, error) {
	switch req.Task {
	case TaskGoals:
		matches := candidateGoalPattern.FindAllStringSubmatch(req.Prompt, -1)

		goals := make([]string, 0, len(matches))
		for _, m := range matches {
			goals = append(goals, m[1])

			if len(goals) == maxMockGoals {
				break
			}
		}

		return fmt.Sprintf(`{"goals": [%s]}`, strings.Join(goals, ", ")), nil
	default:
		research := strings.ToLower(researchSection(req.Prompt))
		for _, kw := range sustainabilityKeywords {
			if strings.Contains(research, kw) {
				return `{"result": 1}`, nil
			}
		}

		return `{"result": 0}`, nil
	}
}

const maxMockGoals = 3

// researchSection cuts the research text out of a relevance prompt so the
// goal catalog does not trigger the keyword match.
func researchSection(prompt string) string {
	const marker = "Research:\n"

	start := strings.Index(prompt, marker)
	if start < 0 {
		return prompt
	}

	body := prompt[start+len(marker):]
	if end := strings.Index(body, "\n\nJudge"); end >= 0 {
		body = body[:end]
	}

	return body
}
