package db

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/faculty-research-sync/internal/core/domain"
	apperrors "github.com/lueurxax/faculty-research-sync/internal/core/errors"
)

func TestFoldColumn(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "person_id", want: ColumnPersonID},
		{in: "uuid", want: ColumnPersonID},
		{in: "person_uuid", want: ColumnPersonID},
		{in: "article_uuid", want: ColumnArticleID},
		{in: "top 1", want: "top_1"},
		{in: " Top_2 ", want: "top_2"},
		{in: "Financial Times", want: "financial_times"},
		{in: "\ufeffperson_id", want: ColumnPersonID},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, foldColumn(tt.in))
		})
	}
}

func TestParseBool(t *testing.T) {
	for _, in := range []string{"True", "true", "1", "1.0", "yes"} {
		got, err := parseBool(in)
		require.NoError(t, err, in)
		assert.True(t, got, in)
	}

	for _, in := range []string{"False", "0", "0.0", "", "nan"} {
		got, err := parseBool(in)
		require.NoError(t, err, in)
		assert.False(t, got, in)
	}

	_, err := parseBool("maybe")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "3", want: 3},
		{in: "3.0", want: 3},
		{in: "", want: 0},
		{in: "NaN", want: 0},
		{in: "2.5", wantErr: true},
		{in: "x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseInt(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeFaculty_LegacyHeader(t *testing.T) {
	in := "name,department,uuid,email,active\n" +
		"Jane Doe,Finance,p1,jane@illinois.edu,True\n" +
		"John Roe,Accountancy,p2,john@illinois.edu,False\n"

	rows, err := DecodeFaculty(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, []domain.Faculty{
		{PersonID: "p1", Name: "Jane Doe", Email: "jane@illinois.edu", Department: "Finance", Active: true},
		{PersonID: "p2", Name: "John Roe", Email: "john@illinois.edu", Department: "Accountancy"},
	}, rows)
}

func TestDecodeFaculty_Empty(t *testing.T) {
	rows, err := DecodeFaculty(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestFaculty_EncodeDecode(t *testing.T) {
	rows := []domain.Faculty{
		{PersonID: "p1", Name: "Doe, Jane", Email: "jane@illinois.edu", Department: "Finance", Active: true},
		{PersonID: "", Name: "Legacy", Email: "", Department: "", Active: false},
	}

	data, err := EncodeFaculty(rows)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "person_id,name,email,department,active\n"))

	got, err := DecodeFaculty(strings.NewReader(string(data)))
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestDecodeOutputs_LegacyPandasTable(t *testing.T) {
	in := "person_uuid,name,email,department,active,article_uuid,title,publication_year,doi,abstract," +
		"journal_title,journal_issn,is_sustain,top 1,top 2,top 3,Financial Times,UT Dallas,General Business\n" +
		"p1,Jane,jane@x.edu,Finance,True,a1,Green bonds,2021.0,10.1/x,Abstract,Journal of Finance,N/A,1.0,7.0,13.0,0.0,1.0,1,0\n" +
		"p2,John,john@x.edu,Finance,False,a2,Options,2019,No DOI,N/A,N/A,N/A,,,,,,,\n"

	rows, err := DecodeOutputs(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	first := rows[0]
	assert.Equal(t, "p1", first.PersonID)
	assert.Equal(t, "a1", first.ArticleID)
	assert.Equal(t, "2021", first.PublicationYear)
	assert.True(t, first.Active)
	require.NotNil(t, first.Classification)
	assert.True(t, first.Classification.IsSustain)
	assert.Equal(t, [domain.MaxRankedGoals]domain.Goal{7, 13, domain.GoalNone}, first.Classification.Goals)
	assert.Equal(t, domain.SourceOracle, first.Classification.Source)
	assert.Equal(t, domain.JournalRankings{FinancialTimes: 1, UTDallas: 1}, first.Rankings)

	second := rows[1]
	assert.False(t, second.Active)
	assert.Nil(t, second.Classification)
	assert.Equal(t, domain.NoDOI, second.DOI)
}

func TestOutputs_EncodeDecode(t *testing.T) {
	oracle := domain.NewClassification(true, []domain.Goal{3, 8}, domain.SourceOracle)
	fallback := domain.FallbackClassification()

	rows := []domain.ResearchOutput{
		{
			PersonID: "p1", ArticleID: "a1", Title: "Title: with \"quotes\"", PublicationYear: "2020",
			DOI: "10.1/x", Abstract: "Line one\nline two", JournalTitle: "Journal of Finance",
			JournalISSN: "0022-1082", Active: true, Classification: &oracle,
			Rankings: domain.JournalRankings{FinancialTimes: 1, UTDallas: 1, GeneralBusiness: 1},
		},
		{PersonID: "p2", ArticleID: "a2", Title: "Unclassified", PublicationYear: domain.NotAvailable},
		{PersonID: "p3", ArticleID: "a3", Title: "Fell back", Classification: &fallback},
	}

	data, err := EncodeOutputs(rows)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), strings.Join(OutputColumns, ",")+"\n"))

	got, err := DecodeOutputs(strings.NewReader(string(data)))
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestDecodeOutputs_InvalidCell(t *testing.T) {
	in := "person_id,article_id,is_sustain\np1,a1,perhaps\n"

	_, err := DecodeOutputs(strings.NewReader(in))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Contains(t, err.Error(), "line 2")
}
