package llm

import (
	"fmt"
	"strings"

	"github.com/lueurxax/faculty-research-sync/internal/core/domain"
)

const relevanceSystemPrompt = "You are a sustainability expert who assesses whether research relates to the " +
	"United Nations Sustainable Development Goals. You are given research titles and abstracts and answer " +
	"in the JSON format requested."

const relevancePromptTemplate = `Decide whether the research below relates directly to any of the 17 United Nations Sustainable Development Goals.
Research is relevant when it contributes substantially to a goal, either through direct application or through foundational insights, tools or frameworks that support it.

The goals are:
%s

Research:
%s

Judge direct contributions to sustainability. Do not exclude research too strictly, but keep the relevance meaningful.
Give no reasoning. Answer with exactly one JSON object:
{"result": 1} when the research is relevant to any goal
{"result": 0} when it is not`

const goalsSystemPrompt = "You are a sustainability expert. Given a research article and candidate Sustainable " +
	"Development Goals, rank the goals that are relevant to the article by importance."

const goalsPromptTemplate = `Given the research article and the candidate United Nations Sustainable Development Goals below, decide which candidates are truly relevant to the research.
List the most relevant goal first, then the second and third most relevant. List fewer than three when fewer apply.
Answer with one JSON object whose "goals" key maps to the goal numbers, for example {"goals": [1, 10, 12]}. Give no explanation.

Research:
%s

Candidate goals:
%s`

// researchText renders the article group as the classifier sees it.
func researchText(articles []Article) string {
	parts := make([]string, 0, len(articles))

	for _, a := range articles {
		parts = append(parts, fmt.Sprintf("title: %s\nabstract: %s", a.Title, a.Abstract))
	}

	return strings.Join(parts, "\n\n")
}

func goalCatalogText() string {
	goals := domain.Goals()
	lines := make([]string, 0, len(goals))

	for _, g := range goals {
		lines = append(lines, fmt.Sprintf("%d. %s: %s", g.Goal, g.Title, g.Description))
	}

	return strings.Join(lines, "\n")
}

func candidateGoalsText(candidates []domain.GoalInfo) string {
	entries := make([]string, 0, len(candidates))

	for _, g := range candidates {
		entries = append(entries, fmt.Sprintf("Goal %d: %s. %s", g.Goal, g.Title, g.Description))
	}

	return strings.Join(entries, "\n\n")
}

func buildRelevancePrompt(text string) string {
	return fmt.Sprintf(relevancePromptTemplate, goalCatalogText(), text)
}

func buildGoalsPrompt(text string, candidates []domain.GoalInfo) string {
	return fmt.Sprintf(goalsPromptTemplate, text, candidateGoalsText(candidates))
}
