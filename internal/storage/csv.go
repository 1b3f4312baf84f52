package db

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/lueurxax/faculty-research-sync/internal/core/domain"
	apperrors "github.com/lueurxax/faculty-research-sync/internal/core/errors"
)

// Faculty table columns.
const (
	ColumnPersonID   = "person_id"
	ColumnName       = "name"
	ColumnEmail      = "email"
	ColumnDepartment = "department"
	ColumnActive     = "active"
)

// Research output table columns. The ranking columns keep the spelling of the
// journal lookup file.
const (
	ColumnArticleID            = "article_id"
	ColumnTitle                = "title"
	ColumnPublicationYear      = "publication_year"
	ColumnDOI                  = "doi"
	ColumnAbstract             = "abstract"
	ColumnJournalTitle         = "journal_title"
	ColumnJournalISSN          = "journal_issn"
	ColumnIsSustain            = "is_sustain"
	ColumnTop1                 = "top_1"
	ColumnTop2                 = "top_2"
	ColumnTop3                 = "top_3"
	ColumnClassificationSource = "classification_source"
	ColumnFinancialTimes       = "Financial Times"
	ColumnUTDallas             = "UT Dallas"
	ColumnGeneralBusiness      = "General Business"
)

// FacultyColumns is the header written for the faculty table.
var FacultyColumns = []string{ColumnPersonID, ColumnName, ColumnEmail, ColumnDepartment, ColumnActive}

// OutputColumns is the header written for the research output table.
var OutputColumns = []string{
	ColumnPersonID, ColumnArticleID, ColumnTitle, ColumnPublicationYear, ColumnDOI, ColumnAbstract,
	ColumnJournalTitle, ColumnJournalISSN, ColumnActive, ColumnIsSustain, ColumnTop1, ColumnTop2, ColumnTop3,
	ColumnClassificationSource, ColumnFinancialTimes, ColumnUTDallas, ColumnGeneralBusiness,
}

var topColumns = [domain.MaxRankedGoals]string{ColumnTop1, ColumnTop2, ColumnTop3}

// Header names written by earlier versions of the sync, after folding.
var legacyColumns = map[string]string{
	"uuid":         ColumnPersonID,
	"person_uuid":  ColumnPersonID,
	"article_uuid": ColumnArticleID,
}

// foldColumn maps a header cell to its canonical lookup form:
// "Top 1" and "top_1" both become "top_1".
func foldColumn(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.Join(strings.FieldsFunc(name, func(r rune) bool {
		return r == ' ' || r == '_' || r == '-'
	}), "_")

	if canonical, ok := legacyColumns[name]; ok {
		return canonical
	}

	return name
}

// row gives access to one CSV record by column name.
type row struct {
	index  map[string]int
	record []string
}

func (r row) get(column string) string {
	i, ok := r.index[foldColumn(column)]
	if !ok || i >= len(r.record) {
		return ""
	}

	return strings.TrimSpace(r.record[i])
}

// readTable reads every record of a CSV table and calls fn for each one.
// An empty input is an empty table.
func readTable(r io.Reader, fn func(row) error) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}

		return fmt.Errorf("reading header: %w", err)
	}

	index := make(map[string]int, len(header))

	for i, name := range header {
		key := foldColumn(name)
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}

	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return fmt.Errorf("reading line %d: %w", line, err)
		}

		if err := fn(row{index: index, record: record}); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
}

func writeTable(header []string, n int, record func(i int) []string) ([]byte, error) {
	var buf bytes.Buffer

	w := csv.NewWriter(&buf)

	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}

	for i := 0; i < n; i++ {
		if err := w.Write(record(i)); err != nil {
			return nil, fmt.Errorf("writing row %d: %w", i, err)
		}
	}

	w.Flush()

	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing csv: %w", err)
	}

	return buf.Bytes(), nil
}

// DecodeFaculty reads a faculty table.
func DecodeFaculty(r io.Reader) ([]domain.Faculty, error) {
	var out []domain.Faculty

	err := readTable(r, func(rec row) error {
		active, err := parseBool(rec.get(ColumnActive))
		if err != nil {
			return fmt.Errorf("%s: %w", ColumnActive, err)
		}

		out = append(out, domain.Faculty{
			PersonID:   rec.get(ColumnPersonID),
			Name:       rec.get(ColumnName),
			Email:      rec.get(ColumnEmail),
			Department: rec.get(ColumnDepartment),
			Active:     active,
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("decoding faculty table: %w", err)
	}

	return out, nil
}

// EncodeFaculty renders a faculty table.
func EncodeFaculty(rows []domain.Faculty) ([]byte, error) {
	return writeTable(FacultyColumns, len(rows), func(i int) []string {
		f := rows[i]

		return []string{f.PersonID, f.Name, f.Email, f.Department, formatBool(f.Active)}
	})
}

// DecodeOutputs reads a research output table. A row carries a
// classification when its is_sustain cell is set; rows written before the
// classification_source column existed are treated as oracle verdicts.
func DecodeOutputs(r io.Reader) ([]domain.ResearchOutput, error) {
	var out []domain.ResearchOutput

	err := readTable(r, func(rec row) error {
		o, err := decodeOutput(rec)
		if err != nil {
			return err
		}

		out = append(out, o)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("decoding research output table: %w", err)
	}

	return out, nil
}

func decodeOutput(rec row) (domain.ResearchOutput, error) {
	active, err := parseBool(rec.get(ColumnActive))
	if err != nil {
		return domain.ResearchOutput{}, fmt.Errorf("%s: %w", ColumnActive, err)
	}

	o := domain.ResearchOutput{
		PersonID:        rec.get(ColumnPersonID),
		ArticleID:       rec.get(ColumnArticleID),
		Title:           rec.get(ColumnTitle),
		PublicationYear: normalizeYear(rec.get(ColumnPublicationYear)),
		DOI:             rec.get(ColumnDOI),
		Abstract:        rec.get(ColumnAbstract),
		JournalTitle:    rec.get(ColumnJournalTitle),
		JournalISSN:     rec.get(ColumnJournalISSN),
		Active:          active,
	}

	if o.Classification, err = decodeClassification(rec); err != nil {
		return domain.ResearchOutput{}, err
	}

	scores := [...]struct {
		column string
		dst    *int
	}{
		{ColumnFinancialTimes, &o.Rankings.FinancialTimes},
		{ColumnUTDallas, &o.Rankings.UTDallas},
		{ColumnGeneralBusiness, &o.Rankings.GeneralBusiness},
	}

	for _, s := range scores {
		if *s.dst, err = parseInt(rec.get(s.column)); err != nil {
			return domain.ResearchOutput{}, fmt.Errorf("%s: %w", s.column, err)
		}
	}

	return o, nil
}

func decodeClassification(rec row) (*domain.Classification, error) {
	cell := rec.get(ColumnIsSustain)
	if isBlank(cell) {
		return nil, nil //nolint:nilnil // unclassified row
	}

	isSustain, err := parseBool(cell)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ColumnIsSustain, err)
	}

	ranked := make([]domain.Goal, 0, domain.MaxRankedGoals)

	for _, column := range topColumns {
		g, err := parseInt(rec.get(column))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", column, err)
		}

		ranked = append(ranked, domain.Goal(g))
	}

	source := domain.ClassificationSource(rec.get(ColumnClassificationSource))
	if source != domain.SourceFallback {
		source = domain.SourceOracle
	}

	c := domain.NewClassification(isSustain, ranked, source)

	return &c, nil
}

// EncodeOutputs renders a research output table. Unclassified rows leave the
// classification cells empty.
func EncodeOutputs(rows []domain.ResearchOutput) ([]byte, error) {
	return writeTable(OutputColumns, len(rows), func(i int) []string {
		o := rows[i]

		record := []string{
			o.PersonID, o.ArticleID, o.Title, o.PublicationYear, o.DOI, o.Abstract,
			o.JournalTitle, o.JournalISSN, formatBool(o.Active),
			"", "", "", "", "",
			strconv.Itoa(o.Rankings.FinancialTimes),
			strconv.Itoa(o.Rankings.UTDallas),
			strconv.Itoa(o.Rankings.GeneralBusiness),
		}

		if c := o.Classification; c != nil {
			record[9] = formatFlag(c.IsSustain)

			for slot, g := range c.Goals {
				record[10+slot] = strconv.Itoa(int(g))
			}

			record[13] = string(c.Source)
		}

		return record
	})
}

func isBlank(s string) bool {
	switch strings.ToLower(s) {
	case "", "nan", "none", "null":
		return true
	default:
		return false
	}
}

// parseBool accepts the spellings pandas and spreadsheets produce.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "", "nan", "none", "null", "false", "f", "no", "0", "0.0":
		return false, nil
	case "true", "t", "yes", "1", "1.0":
		return true, nil
	default:
		return false, fmt.Errorf("%w: boolean %q", apperrors.ErrInvalidInput, s)
	}
}

// parseInt accepts integers and integral floats such as "3.0". Blank cells
// are zero.
func parseInt(s string) (int, error) {
	if isBlank(s) {
		return 0, nil
	}

	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: integer %q", apperrors.ErrInvalidInput, s)
	}

	return int(f), nil
}

// normalizeYear turns a float-typed year such as "2021.0" back into "2021".
func normalizeYear(s string) string {
	if n, err := parseInt(s); err == nil && n != 0 {
		return strconv.Itoa(n)
	}

	return s
}

func formatBool(b bool) string {
	if b {
		return "True"
	}

	return "False"
}

func formatFlag(b bool) string {
	if b {
		return "1"
	}

	return "0"
}
