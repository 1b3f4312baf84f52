package domain

import "fmt"

// Goal is a UN Sustainable Development Goal number. GoalNone marks an empty rank.
type Goal int

const (
	GoalNone Goal = 0
	GoalMin  Goal = 1
	GoalMax  Goal = 17
)

// MaxRankedGoals is the number of ranked label slots stored per article.
const MaxRankedGoals = 3

// Valid reports whether g names one of the 17 goals.
func (g Goal) Valid() bool {
	return g >= GoalMin && g <= GoalMax
}

// ClassificationSource records how a classification was produced.
type ClassificationSource string

const (
	// SourceOracle marks values returned by a successful classifier call.
	SourceOracle ClassificationSource = "oracle"
	// SourceFallback marks the conservative default written after the
	// classifier kept failing.
	SourceFallback ClassificationSource = "fallback"
)

// Classification is the article-level verdict shared by every row of an
// article group.
type Classification struct {
	IsSustain bool
	Goals     [MaxRankedGoals]Goal
	Source    ClassificationSource
}

// NewClassification builds a classification from ranked goals. Invalid and
// repeated goals are skipped and missing ranks are left as GoalNone.
func NewClassification(isSustain bool, ranked []Goal, source ClassificationSource) Classification {
	c := Classification{IsSustain: isSustain, Source: source}

	seen := make(map[Goal]bool, MaxRankedGoals)
	slot := 0

	for _, g := range ranked {
		if slot == MaxRankedGoals {
			break
		}

		if !g.Valid() || seen[g] {
			continue
		}

		seen[g] = true
		c.Goals[slot] = g
		slot++
	}

	return c
}

// FallbackClassification is written when the classifier could not produce a
// verdict within its retry budget.
func FallbackClassification() Classification {
	return Classification{IsSustain: false, Source: SourceFallback}
}

// Equal compares verdict values including the source tag.
func (c Classification) Equal(other Classification) bool {
	return c.IsSustain == other.IsSustain && c.Goals == other.Goals && c.Source == other.Source
}

func (c Classification) String() string {
	return fmt.Sprintf("is_sustain=%t goals=%v source=%s", c.IsSustain, c.Goals, c.Source)
}
