package identity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/faculty-research-sync/internal/core/domain"
	apperrors "github.com/lueurxax/faculty-research-sync/internal/core/errors"
)

func TestFacultyKeyOf(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		want    FacultyKey
		wantErr error
	}{
		{name: "lower-cased and trimmed", email: "  Jane.Doe@Illinois.EDU ", want: "jane.doe@illinois.edu"},
		{name: "empty", email: "", wantErr: apperrors.ErrMissingEmail},
		{name: "whitespace only", email: "   ", wantErr: apperrors.ErrMissingEmail},
		{name: "directory placeholder", email: "N/A", wantErr: apperrors.ErrMissingEmail},
		{name: "scrape placeholder", email: "Contact not found", wantErr: apperrors.ErrMissingEmail},
		{name: "no at sign", email: "jdoe", wantErr: apperrors.ErrMissingEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FacultyKeyOf(domain.Faculty{Email: tt.email})
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOutputKeyOf(t *testing.T) {
	key, err := OutputKeyOf(domain.ResearchOutput{ArticleID: " a1 ", PersonID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, OutputKey{ArticleID: "a1", PersonID: "p1"}, key)

	_, err = OutputKeyOf(domain.ResearchOutput{PersonID: "p1"})
	assert.ErrorIs(t, err, apperrors.ErrMissingArticleID)

	_, err = OutputKeyOf(domain.ResearchOutput{ArticleID: "a1"})
	assert.ErrorIs(t, err, apperrors.ErrMissingPersonID)
}

func TestOutputKeyDistinguishesAuthors(t *testing.T) {
	a, err := OutputKeyOf(domain.ResearchOutput{ArticleID: "a1", PersonID: "p1"})
	require.NoError(t, err)

	b, err := OutputKeyOf(domain.ResearchOutput{ArticleID: "a1", PersonID: "p2"})
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Equal(t, "a1/p1", a.String())
}

func TestResolve(t *testing.T) {
	records := []domain.Faculty{
		{PersonID: "p1", Email: "A@x.edu"},
		{PersonID: "p2", Email: ""},
		{PersonID: "p3", Email: "c@x.edu"},
	}

	keyed, rejected := Resolve(records, FacultyKeyOf)

	require.Len(t, keyed, 2)
	assert.Equal(t, FacultyKey("a@x.edu"), keyed[0].Key)
	assert.Equal(t, "p3", keyed[1].Record.PersonID)

	require.Len(t, rejected, 1)
	assert.Equal(t, 1, rejected[0].Index)
	assert.ErrorIs(t, rejected[0].Reason, apperrors.ErrMissingEmail)
	assert.Contains(t, rejected[0].Record, "p2")
}
