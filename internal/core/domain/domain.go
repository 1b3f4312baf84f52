// Package domain holds the record types shared by the reconciliation engine,
// the table stores and the ingest adapters.
package domain

// Faculty is one row of the faculty roster table.
//
// Email is the identity key. PersonID is assigned by the upstream directory and
// is never reassigned once observed. Active is derived from presence in the
// latest snapshot and is never set by callers directly.
type Faculty struct {
	PersonID   string
	Name       string
	Email      string
	Department string
	Active     bool
}

// ResearchOutput is one authorship row: an article linked to one faculty member.
// The same article authored by two tracked faculty members yields two rows.
type ResearchOutput struct {
	PersonID        string
	ArticleID       string
	Title           string
	PublicationYear string
	DOI             string
	Abstract        string
	JournalTitle    string
	JournalISSN     string
	Active          bool

	// Classification is a property of the article, nil while unclassified.
	Classification *Classification

	Rankings JournalRankings
}

// Classified reports whether the row carries a classification.
func (o ResearchOutput) Classified() bool {
	return o.Classification != nil
}

// JournalRankings are the lookup-table scores of the journal an article
// appeared in. Zero means the journal is not ranked by that list.
type JournalRankings struct {
	FinancialTimes  int
	UTDallas        int
	GeneralBusiness int
}

// Placeholder values the directory uses for missing fields.
const (
	NotAvailable = "N/A"
	NoDOI        = "No DOI"
	NoTitle      = "No Title"
)
