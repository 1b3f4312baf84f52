package directory

import (
	"strings"

	"github.com/lueurxax/faculty-research-sync/internal/core/domain"
	"github.com/lueurxax/faculty-research-sync/internal/platform/htmlutils"
)

// normalizeOutput turns a directory research output into a table row for
// personID. Placeholders replace missing fields so the stored table matches
// what earlier syncs wrote.
func normalizeOutput(item outputItem, personID string) domain.ResearchOutput {
	return domain.ResearchOutput{
		PersonID:        personID,
		ArticleID:       strings.TrimSpace(item.UUID),
		Title:           fullTitle(item.Title.Value, item.SubTitle.Value),
		PublicationYear: publicationYear(item),
		DOI:             firstDOI(item),
		Abstract:        orPlaceholder(htmlutils.StripHTMLTags(item.Abstract.first()), domain.NotAvailable),
		JournalTitle:    orPlaceholder(item.JournalAssociation.Title.Value, domain.NotAvailable),
		JournalISSN:     orPlaceholder(item.JournalAssociation.ISSN.Value, domain.NotAvailable),
	}
}

// fullTitle appends the subtitle as "title: subtitle" when there is one.
func fullTitle(title, subtitle string) string {
	title = orPlaceholder(htmlutils.CollapseWhitespace(title), domain.NoTitle)
	subtitle = htmlutils.CollapseWhitespace(subtitle)

	if subtitle == "" || subtitle == domain.NotAvailable {
		return title
	}

	return title + ": " + subtitle
}

func publicationYear(item outputItem) string {
	for _, status := range item.PublicationStatuses {
		if year := status.PublicationDate.Year.String(); year != "" {
			return year
		}
	}

	return domain.NotAvailable
}

func firstDOI(item outputItem) string {
	for _, ev := range item.ElectronicVersions {
		if doi := strings.TrimSpace(ev.DOI); doi != "" {
			return doi
		}
	}

	return domain.NoDOI
}

func normalizePerson(item personItem) Person {
	p := Person{
		PersonID: strings.TrimSpace(item.UUID),
		Email:    strings.TrimSpace(item.ExternalID),
		Name:     strings.TrimSpace(item.Name.FirstName + " " + item.Name.LastName),
		About:    domain.NotAvailable,
	}

	seen := make(map[string]bool, len(item.StaffOrganisationAssociations))

	for _, assoc := range item.StaffOrganisationAssociations {
		if assoc.OrganisationalUnit == nil {
			continue
		}

		name := orPlaceholder(assoc.OrganisationalUnit.Name.first(), domain.NotAvailable)
		if seen[name] {
			continue
		}

		seen[name] = true
		p.Units = append(p.Units, name)
	}

	if len(item.ProfileInformations) > 0 {
		p.About = orPlaceholder(htmlutils.StripHTMLTags(item.ProfileInformations[0].Value.first()), domain.NotAvailable)
	}

	return p
}

func orPlaceholder(s, placeholder string) string {
	if s = strings.TrimSpace(s); s == "" {
		return placeholder
	}

	return s
}
