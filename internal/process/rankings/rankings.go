// Package rankings joins journal ranking scores onto research outputs by
// normalized journal name.
package rankings

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"path"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"

	"github.com/lueurxax/faculty-research-sync/internal/core/domain"
	apperrors "github.com/lueurxax/faculty-research-sync/internal/core/errors"
)

// Lookup column names. Matching is case and separator insensitive, so
// "financial_times" and "Financial Times" are the same column.
const (
	ColumnJournalTitle    = "journal_title"
	ColumnFinancialTimes  = "Financial Times"
	ColumnUTDallas        = "UT Dallas"
	ColumnGeneralBusiness = "General Business"
)

const extXLSX = ".xlsx"

// Table maps a normalized journal name to its scores.
type Table map[string]domain.JournalRankings

// Report describes one Apply.
type Report struct {
	// Journals is the number of distinct non-empty journal names in the outputs.
	Journals int
	// Matched is how many of them the lookup table knows.
	Matched int
	// Rows is the number of rows that received non-zero scores.
	Rows int
}

// NormalizeName folds case, trims and collapses inner whitespace.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(cases.Fold().String(name)), " ")
}

// Parse reads the lookup named key. Keys ending in .xlsx are read as Excel
// workbooks, anything else as CSV.
func Parse(key string, r io.Reader) (Table, error) {
	if strings.EqualFold(path.Ext(key), extXLSX) {
		return ParseXLSX(r)
	}

	return ParseCSV(r)
}

// ParseCSV reads a CSV lookup.
func ParseCSV(r io.Reader) (Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading rankings csv: %w", err)
	}

	return fromRecords(records)
}

// ParseXLSX reads the first sheet of an Excel workbook.
func ParseXLSX(r io.Reader) (Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening rankings workbook: %w", err)
	}

	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, nil
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading rankings sheet %q: %w", sheets[0], err)
	}

	return fromRecords(records)
}

// fromRecords builds the table from a header row and data rows. Missing score
// cells are zero; the last row wins when a journal is listed twice.
func fromRecords(records [][]string) (Table, error) {
	if len(records) == 0 {
		return Table{}, nil
	}

	cols := columnIndex(records[0])

	titleCol, ok := cols[columnKey(ColumnJournalTitle)]
	if !ok {
		return nil, fmt.Errorf("%w: rankings lookup has no %s column", apperrors.ErrInvalidInput, ColumnJournalTitle)
	}

	table := make(Table)

	for n, record := range records[1:] {
		line := n + 2

		name := NormalizeName(cell(record, titleCol))
		if name == "" {
			continue
		}

		var scores domain.JournalRankings

		for column, target := range map[string]*int{
			ColumnFinancialTimes:  &scores.FinancialTimes,
			ColumnUTDallas:        &scores.UTDallas,
			ColumnGeneralBusiness: &scores.GeneralBusiness,
		} {
			i, ok := cols[columnKey(column)]
			if !ok {
				continue
			}

			v, err := parseScore(cell(record, i))
			if err != nil {
				return nil, fmt.Errorf("rankings line %d, %s: %w", line, column, err)
			}

			*target = v
		}

		table[name] = scores
	}

	return table, nil
}

// Apply resets the scores of every row and fills in the scores of rows whose
// journal is in the table.
func Apply(rows []domain.ResearchOutput, table Table) Report {
	var report Report

	journals := make(map[string]bool)

	for i := range rows {
		rows[i].Rankings = domain.JournalRankings{}

		name := NormalizeName(rows[i].JournalTitle)
		if name == "" {
			continue
		}

		scores, ok := table[name]
		if _, counted := journals[name]; !counted {
			journals[name] = ok
		}

		if !ok {
			continue
		}

		rows[i].Rankings = scores

		if scores != (domain.JournalRankings{}) {
			report.Rows++
		}
	}

	report.Journals = len(journals)

	for _, matched := range journals {
		if matched {
			report.Matched++
		}
	}

	return report
}

func columnIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))

	for i, h := range header {
		key := columnKey(h)
		if _, dup := cols[key]; !dup {
			cols[key] = i
		}
	}

	return cols
}

// columnKey folds a header so "UT Dallas", "ut_dallas" and "UT-Dallas" match.
func columnKey(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")

	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-':
			return -1
		default:
			return r
		}
	}, cases.Fold().String(strings.TrimSpace(h)))
}

func cell(record []string, i int) string {
	if i >= len(record) {
		return ""
	}

	return strings.TrimSpace(record[i])
}

// parseScore accepts integers and spreadsheet floats such as "3.0".
func parseScore(s string) (int, error) {
	if s == "" {
		return 0, nil
	}

	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0, fmt.Errorf("%w: score %q", apperrors.ErrInvalidInput, s)
	}

	return int(math.Round(f)), nil
}
