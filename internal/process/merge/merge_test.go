package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/faculty-research-sync/internal/core/domain"
	"github.com/lueurxax/faculty-research-sync/internal/core/identity"
)

var updateFaculty = NewFacultyUpdate(nil)

func TestSnapshot_EmptyStored(t *testing.T) {
	snapshot := []domain.Faculty{
		{PersonID: "p1", Email: "a@x.edu", Name: "A"},
		{PersonID: "p2", Email: "b@x.edu", Name: "B"},
	}

	res := Snapshot(nil, snapshot, identity.FacultyKeyOf, updateFaculty)

	require.Len(t, res.Rows, 2)
	assert.Equal(t, 2, res.Added)
	assert.Zero(t, res.Seen)

	for _, row := range res.Rows {
		assert.True(t, row.Seen)
		assert.True(t, row.New)
	}

	assert.Equal(t, snapshot, res.Records())
}

func TestSnapshot_OverwritesSeenAndKeepsUnseen(t *testing.T) {
	stored := []domain.Faculty{
		{PersonID: "p1", Email: "a@x.edu", Name: "A", Department: "Finance", Active: true},
		{PersonID: "p2", Email: "b@x.edu", Name: "B", Department: "Accountancy", Active: true},
	}
	snapshot := []domain.Faculty{
		{PersonID: "p1", Email: "A@X.edu", Name: "A. Smith", Department: "Business Administration"},
		{PersonID: "p3", Email: "c@x.edu", Name: "C"},
	}

	res := Snapshot(stored, snapshot, identity.FacultyKeyOf, updateFaculty)

	require.Len(t, res.Rows, 3)
	assert.Equal(t, 1, res.Seen)
	assert.Equal(t, 1, res.Unseen)
	assert.Equal(t, 1, res.Added)

	assert.Equal(t, "A. Smith", res.Rows[0].Record.Name)
	assert.Equal(t, "Business Administration", res.Rows[0].Record.Department)
	assert.Equal(t, "a@x.edu", res.Rows[0].Record.Email, "stored email is kept")
	assert.True(t, res.Rows[0].Seen)

	assert.Equal(t, stored[1], res.Rows[1].Record, "unseen row is not modified")
	assert.False(t, res.Rows[1].Seen)

	assert.Equal(t, "p3", res.Rows[2].Record.PersonID)
	assert.True(t, res.Rows[2].New)
}

func TestSnapshot_RejectsAndDuplicates(t *testing.T) {
	stored := []domain.Faculty{
		{PersonID: "legacy", Email: "", Name: "No Email"},
	}
	snapshot := []domain.Faculty{
		{PersonID: "p1", Email: "a@x.edu", Name: "First"},
		{PersonID: "p1", Email: "a@x.edu", Name: "Second"},
		{PersonID: "p9", Email: "N/A", Name: "Rejected"},
	}

	res := Snapshot(stored, snapshot, identity.FacultyKeyOf, updateFaculty)

	require.Len(t, res.Rows, 2)
	assert.Equal(t, 1, res.Unkeyed)
	assert.False(t, res.Rows[0].Keyed)
	assert.Equal(t, "legacy", res.Rows[0].Record.PersonID)

	assert.Equal(t, "First", res.Rows[1].Record.Name)
	assert.Equal(t, 1, res.SnapshotDuplicates)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, 2, res.Rejected[0].Index)
}

func TestSnapshot_NeverDropsStoredRows(t *testing.T) {
	stored := []domain.Faculty{
		{PersonID: "p1", Email: "a@x.edu"},
		{PersonID: "p2", Email: "b@x.edu"},
		{PersonID: "p3", Email: "c@x.edu"},
	}

	res := Snapshot(stored, nil, identity.FacultyKeyOf, updateFaculty)

	assert.Equal(t, stored, res.Records())
	assert.Equal(t, 3, res.Unseen)
}

func TestNewFacultyUpdate_PersonIDImmutable(t *testing.T) {
	var conflicts int

	update := NewFacultyUpdate(func(_, _ domain.Faculty) { conflicts++ })

	got := update(
		domain.Faculty{PersonID: "p1", Email: "a@x.edu", Name: "A"},
		domain.Faculty{PersonID: "p-other", Email: "a@x.edu", Name: "A2"},
	)

	assert.Equal(t, "p1", got.PersonID)
	assert.Equal(t, "A2", got.Name)
	assert.Equal(t, 1, conflicts)

	got = update(domain.Faculty{Email: "a@x.edu"}, domain.Faculty{PersonID: "p5", Email: "a@x.edu"})
	assert.Equal(t, "p5", got.PersonID, "missing person_id is filled from the first observation")
}

func TestUpdateOutput_KeepsAnnotations(t *testing.T) {
	cls := domain.NewClassification(true, []domain.Goal{3}, domain.SourceOracle)
	stored := domain.ResearchOutput{
		PersonID:       "p1",
		ArticleID:      "a1",
		Title:          "Old",
		Active:         true,
		Classification: &cls,
		Rankings:       domain.JournalRankings{FinancialTimes: 1},
	}
	observed := domain.ResearchOutput{
		PersonID:     "p1",
		ArticleID:    "a1",
		Title:        "New",
		DOI:          "10.1/x",
		JournalTitle: "Journal of Finance",
	}

	got := UpdateOutput(stored, observed)

	assert.Equal(t, "New", got.Title)
	assert.Equal(t, "10.1/x", got.DOI)
	assert.Equal(t, "Journal of Finance", got.JournalTitle)
	require.NotNil(t, got.Classification)
	assert.True(t, got.Classification.IsSustain)
	assert.Equal(t, 1, got.Rankings.FinancialTimes)
	assert.True(t, got.Active)
}

func TestSnapshot_Outputs(t *testing.T) {
	stored := []domain.ResearchOutput{
		{PersonID: "p1", ArticleID: "a1", Title: "T1"},
	}
	snapshot := []domain.ResearchOutput{
		{PersonID: "p1", ArticleID: "a1", Title: "T1 revised"},
		{PersonID: "p2", ArticleID: "a1", Title: "T1 revised"},
		{PersonID: "p2", ArticleID: "", Title: "broken"},
	}

	res := Snapshot(stored, snapshot, identity.OutputKeyOf, UpdateOutput)

	require.Len(t, res.Rows, 2)
	assert.Equal(t, "T1 revised", res.Rows[0].Record.Title)
	assert.Equal(t, "p2", res.Rows[1].Record.PersonID)
	assert.Len(t, res.Rejected, 1)
}
