// Package identity computes the canonical identity keys used to recognise the
// same real-world entity across snapshots.
package identity

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lueurxax/faculty-research-sync/internal/core/domain"
	apperrors "github.com/lueurxax/faculty-research-sync/internal/core/errors"
)

// KeyFunc returns the identity key of a record or an error when the record
// cannot participate in identity-based reconciliation.
type KeyFunc[K comparable, R any] func(R) (K, error)

// FacultyKey is a normalized email address.
type FacultyKey string

// OutputKey identifies one authorship relationship.
type OutputKey struct {
	ArticleID string
	PersonID  string
}

func (k OutputKey) String() string {
	return k.ArticleID + "/" + k.PersonID
}

// Keyed pairs a record with its resolved key.
type Keyed[K comparable, R any] struct {
	Key    K
	Record R
}

// Rejection describes a record excluded from reconciliation.
type Rejection struct {
	Index  int
	Reason error
	Record string
}

func (r Rejection) String() string {
	return fmt.Sprintf("#%d %s: %v", r.Index, r.Record, r.Reason)
}

var emailPlaceholders = map[string]bool{
	"":                  true,
	"n/a":               true,
	"contact not found": true,
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FacultyKeyOf resolves the identity of a faculty record.
func FacultyKeyOf(f domain.Faculty) (FacultyKey, error) {
	email := NormalizeEmail(f.Email)
	if emailPlaceholders[email] || !strings.Contains(email, "@") {
		return "", fmt.Errorf("%w: %q", apperrors.ErrMissingEmail, f.Email)
	}

	return FacultyKey(email), nil
}

// OutputKeyOf resolves the identity of a research output row.
func OutputKeyOf(o domain.ResearchOutput) (OutputKey, error) {
	articleID := strings.TrimSpace(o.ArticleID)
	if articleID == "" {
		return OutputKey{}, apperrors.ErrMissingArticleID
	}

	personID := strings.TrimSpace(o.PersonID)
	if personID == "" {
		return OutputKey{}, fmt.Errorf("%w: article %s", apperrors.ErrMissingPersonID, articleID)
	}

	return OutputKey{ArticleID: articleID, PersonID: personID}, nil
}

// ArticleKeyOf returns the article identity shared by an article group.
func ArticleKeyOf(o domain.ResearchOutput) string {
	return strings.TrimSpace(o.ArticleID)
}

// Resolve keys every record, returning the keyed records in input order and a
// rejection for each record without a usable key.
func Resolve[K comparable, R any](records []R, keyOf KeyFunc[K, R]) ([]Keyed[K, R], []Rejection) {
	keyed := make([]Keyed[K, R], 0, len(records))

	var rejected []Rejection

	for i, r := range records {
		k, err := keyOf(r)
		if err != nil {
			rejected = append(rejected, Rejection{Index: i, Reason: err, Record: describe(r)})

			continue
		}

		keyed = append(keyed, Keyed[K, R]{Key: k, Record: r})
	}

	return keyed, rejected
}

// LogRejections writes one warning per rejected record.
func LogRejections(logger *zerolog.Logger, table string, rejected []Rejection) {
	for _, r := range rejected {
		logger.Warn().
			Str("table", table).
			Int("index", r.Index).
			Str("record", r.Record).
			Err(r.Reason).
			Msg("record rejected: no usable identity")
	}
}

func describe(r any) string {
	switch v := r.(type) {
	case domain.Faculty:
		return fmt.Sprintf("faculty person_id=%q name=%q", v.PersonID, v.Name)
	case domain.ResearchOutput:
		return fmt.Sprintf("output person_id=%q title=%q", v.PersonID, v.Title)
	default:
		return fmt.Sprintf("%v", v)
	}
}
