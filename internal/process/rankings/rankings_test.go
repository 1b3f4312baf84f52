package rankings

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/lueurxax/faculty-research-sync/internal/core/domain"
	apperrors "github.com/lueurxax/faculty-research-sync/internal/core/errors"
)

const lookupCSV = "\ufeffjournal_title,Financial Times,UT Dallas,General Business\n" +
	"Journal of Finance,1,1,0\n" +
	"  The Accounting   Review ,1.0,1,\n" +
	"Management Science,0,1,1\n" +
	",1,1,1\n"

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Journal of Finance", "journal of finance"},
		{"  The  Accounting\tReview ", "the accounting review"},
		{"STRASSE", "strasse"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.in))
		})
	}
}

func TestParse(t *testing.T) {
	table, err := ParseCSV(strings.NewReader(lookupCSV))
	require.NoError(t, err)

	require.Len(t, table, 3)
	assert.Equal(t, domain.JournalRankings{FinancialTimes: 1, UTDallas: 1}, table["journal of finance"])
	assert.Equal(t, domain.JournalRankings{FinancialTimes: 1, UTDallas: 1}, table["the accounting review"])
	assert.Equal(t, domain.JournalRankings{UTDallas: 1, GeneralBusiness: 1}, table["management science"])
}

func TestParse_SnakeCaseHeaders(t *testing.T) {
	table, err := ParseCSV(strings.NewReader("Journal_Title,financial_times,ut_dallas\nJ,2,3\n"))
	require.NoError(t, err)
	assert.Equal(t, domain.JournalRankings{FinancialTimes: 2, UTDallas: 3}, table["j"])
}

func TestParse_Errors(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("name,Financial Times\nJ,1\n"))
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = ParseCSV(strings.NewReader("journal_title,UT Dallas\nJ,high\n"))
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	table, err := ParseCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, table)
}

func TestApply(t *testing.T) {
	table, err := ParseCSV(strings.NewReader(lookupCSV))
	require.NoError(t, err)

	rows := []domain.ResearchOutput{
		{ArticleID: "a1", JournalTitle: "JOURNAL OF FINANCE"},
		{ArticleID: "a2", JournalTitle: "Unknown Quarterly", Rankings: domain.JournalRankings{FinancialTimes: 9}},
		{ArticleID: "a3", JournalTitle: "journal of finance"},
		{ArticleID: "a4", JournalTitle: ""},
		{ArticleID: "a5", JournalTitle: "Management  Science"},
	}

	report := Apply(rows, table)

	assert.Equal(t, Report{Journals: 3, Matched: 2, Rows: 3}, report)
	assert.Equal(t, 1, rows[0].Rankings.FinancialTimes)
	assert.Equal(t, domain.JournalRankings{}, rows[1].Rankings, "stale scores are reset")
	assert.Equal(t, rows[0].Rankings, rows[2].Rankings)
	assert.Equal(t, 1, rows[4].Rankings.GeneralBusiness)
}

func lookupWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)

	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cellRef, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	return buf.Bytes()
}

func TestParse_Workbook(t *testing.T) {
	data := lookupWorkbook(t, [][]any{
		{"journal_title", "Financial Times", "UT Dallas", "General Business"},
		{"Journal of Finance", 1, 1, 0},
		{"Management Science", 0, 1.0, 1},
		{"Review of Finance", 1},
	})

	tests := []struct {
		name string
		key  string
	}{
		{name: "xlsx", key: "journals.xlsx"},
		{name: "upper case extension", key: "lookups/JOURNALS.XLSX"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := Parse(tt.key, bytes.NewReader(data))
			require.NoError(t, err)

			require.Len(t, table, 3)
			assert.Equal(t, domain.JournalRankings{FinancialTimes: 1, UTDallas: 1}, table["journal of finance"])
			assert.Equal(t, domain.JournalRankings{UTDallas: 1, GeneralBusiness: 1}, table["management science"])
			assert.Equal(t, domain.JournalRankings{FinancialTimes: 1}, table["review of finance"], "short rows score zero")
		})
	}
}

func TestParse_ByExtension(t *testing.T) {
	table, err := Parse("journals.csv", strings.NewReader(lookupCSV))
	require.NoError(t, err)
	assert.Len(t, table, 3)

	_, err = Parse("journals.xlsx", strings.NewReader(lookupCSV))
	assert.Error(t, err, "a CSV body is not a workbook")

	data := lookupWorkbook(t, [][]any{{"name", "UT Dallas"}, {"J", 1}})

	_, err = Parse("journals.xlsx", bytes.NewReader(data))
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
