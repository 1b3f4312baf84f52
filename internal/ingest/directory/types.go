package directory

import "encoding/json"

// Person is a staff member as reported by the directory.
type Person struct {
	PersonID string
	// Email is the directory's external id, which is the campus email.
	Email string
	Name  string
	// Units are the names of the organisational units the person is
	// associated with, in directory order without repeats.
	Units []string
	About string
}

// OrgUnit is one organisational unit.
type OrgUnit struct {
	UUID        string
	Name        string
	Identifiers []string
}

type page[T any] struct {
	Count int `json:"count"`
	Items []T `json:"items"`
}

type localizedText struct {
	Value string `json:"value"`
}

type textValue struct {
	Text []localizedText `json:"text"`
}

func (t textValue) first() string {
	for _, v := range t.Text {
		if v.Value != "" {
			return v.Value
		}
	}

	return ""
}

type orgUnitItem struct {
	UUID string    `json:"uuid"`
	Name textValue `json:"name"`
	Info struct {
		PrettyURLIdentifiers []string `json:"prettyURLIdentifiers"` //nolint:tagliatelle // directory API uses camelCase
	} `json:"info"`
}

type personItem struct {
	UUID       string `json:"uuid"`
	ExternalID string `json:"externalId"` //nolint:tagliatelle // directory API uses camelCase
	Name       struct {
		FirstName string `json:"firstName"` //nolint:tagliatelle // directory API uses camelCase
		LastName  string `json:"lastName"`  //nolint:tagliatelle // directory API uses camelCase
	} `json:"name"`
	StaffOrganisationAssociations []struct { //nolint:tagliatelle // directory API uses camelCase
		OrganisationalUnit *struct { //nolint:tagliatelle // directory API uses camelCase
			UUID string    `json:"uuid"`
			Name textValue `json:"name"`
		} `json:"organisationalUnit"`
	} `json:"staffOrganisationAssociations"`
	ProfileInformations []struct { //nolint:tagliatelle // directory API uses camelCase
		Value textValue `json:"value"`
	} `json:"profileInformations"`
}

type outputItem struct {
	UUID                string        `json:"uuid"`
	Title               localizedText `json:"title"`
	SubTitle            localizedText `json:"subTitle"`            //nolint:tagliatelle // directory API uses camelCase
	PublicationStatuses []struct {    //nolint:tagliatelle // directory API uses camelCase
		PublicationDate struct { //nolint:tagliatelle // directory API uses camelCase
			Year json.Number `json:"year"`
		} `json:"publicationDate"`
	} `json:"publicationStatuses"`
	ElectronicVersions []struct { //nolint:tagliatelle // directory API uses camelCase
		DOI string `json:"doi"`
	} `json:"electronicVersions"`
	Abstract           textValue `json:"abstract"`
	JournalAssociation struct {  //nolint:tagliatelle // directory API uses camelCase
		Title localizedText `json:"title"`
		ISSN  localizedText `json:"issn"`
	} `json:"journalAssociation"`
}
