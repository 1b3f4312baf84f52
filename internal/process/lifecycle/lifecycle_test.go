package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/faculty-research-sync/internal/core/domain"
	apperrors "github.com/lueurxax/faculty-research-sync/internal/core/errors"
	"github.com/lueurxax/faculty-research-sync/internal/process/merge"
)

func TestFaculty_OverwritesPriorStatus(t *testing.T) {
	rows := []merge.Row[domain.Faculty]{
		{Record: domain.Faculty{Email: "a@x.edu", Active: false}, Seen: true, Keyed: true},
		{Record: domain.Faculty{Email: "b@x.edu", Active: true}, Seen: false, Keyed: true},
		{Record: domain.Faculty{Email: "", Active: true}},
	}

	got := Faculty(rows)

	require.Len(t, got, 3)
	assert.True(t, got[0].Active)
	assert.False(t, got[1].Active)
	assert.False(t, got[2].Active)
}

func TestInherit(t *testing.T) {
	status := NewStatusIndex([]domain.Faculty{
		{PersonID: "p1", Active: true},
		{PersonID: "p2", Active: false},
	})

	rows := []domain.ResearchOutput{
		{PersonID: "p1", ArticleID: "a1", Active: false},
		{PersonID: "p2", ArticleID: "a2", Active: true},
		{PersonID: "ghost", ArticleID: "a3", Active: true},
	}

	got, orphans := Inherit(rows, status)

	require.Len(t, got, 3)
	assert.True(t, got[0].Active)
	assert.False(t, got[1].Active)
	assert.False(t, got[2].Active, "unknown person defaults to inactive")

	require.Len(t, orphans, 1)
	assert.Equal(t, "ghost", orphans[0].PersonID)
	assert.ErrorIs(t, orphans[0], apperrors.ErrUnknownPerson)

	assert.True(t, rows[1].Active, "input is not mutated")
}

func TestStatusIndex_AnyActiveWins(t *testing.T) {
	status := NewStatusIndex([]domain.Faculty{
		{PersonID: "p1", Active: false},
		{PersonID: " p1 ", Active: true},
		{PersonID: "", Active: true},
	})

	active, known := status.Lookup("p1")
	assert.True(t, known)
	assert.True(t, active)

	_, known = status.Lookup("")
	assert.False(t, known)
}
