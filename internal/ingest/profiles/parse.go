package profiles

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/lueurxax/faculty-research-sync/internal/platform/htmlutils"
)

// Placeholders for cells the page leaves empty.
const (
	ContactNotFound     = "Contact not found"
	DescriptionNotFound = "Description not found"
	URLNotFound         = "URL not found"
)

const minColumns = 4

// Profile is one row of the public faculty listing.
type Profile struct {
	Name        string
	Department  string
	Description string
	Email       string
	URL         string
}

// Parse extracts the rows of the first table.results in the list view of the
// profiles page. Rows with fewer than four cells are skipped.
func Parse(r io.Reader) ([]Profile, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse profiles page: %w", err)
	}

	table := find(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.Table && hasClass(n, "results")
	})
	if table == nil {
		return nil, nil
	}

	var profiles []Profile

	for _, tr := range rows(table) {
		cells := children(tr, atom.Td)
		if len(cells) < minColumns {
			continue
		}

		profiles = append(profiles, parseRow(cells))
	}

	return profiles, nil
}

func parseRow(cells []*html.Node) Profile {
	p := Profile{
		Description: DescriptionNotFound,
		Email:       ContactNotFound,
		URL:         URLNotFound,
		Department:  htmlutils.CollapseWhitespace(text(cells[1])),
	}

	parts := textParts(cells[0])
	if len(parts) > 0 {
		p.Name = parts[0]
	}

	if len(parts) > 1 {
		p.Description = parts[1]
	}

	if a := find(cells[0], isAnchor); a != nil {
		if href, ok := attr(a, "href"); ok {
			p.URL = strings.TrimSpace(href)
		}
	}

	if a := find(cells[3], isAnchor); a != nil {
		if email := htmlutils.CollapseWhitespace(text(a)); email != "" {
			p.Email = email
		}
	}

	return p
}

// rows returns the data rows of a table: rows inside tbody, or direct rows
// when the markup has none. A leading header row is dropped.
func rows(table *html.Node) []*html.Node {
	var out []*html.Node

	for c := table.FirstChild; c != nil; c = c.NextSibling {
		switch c.DataAtom {
		case atom.Tbody:
			out = append(out, children(c, atom.Tr)...)
		case atom.Tr:
			out = append(out, c)
		}
	}

	if len(out) > 0 && len(children(out[0], atom.Th)) > 0 {
		out = out[1:]
	}

	return out
}

func children(n *html.Node, a atom.Atom) []*html.Node {
	var out []*html.Node

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			out = append(out, c)
		}
	}

	return out
}

func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, match); found != nil {
			return found
		}
	}

	return nil
}

func isAnchor(n *html.Node) bool {
	return n.DataAtom == atom.A
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}

	return "", false
}

func hasClass(n *html.Node, class string) bool {
	v, ok := attr(n, "class")
	if !ok {
		return false
	}

	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}

	return false
}

func text(n *html.Node) string {
	var sb strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)

	return sb.String()
}

// textParts returns the non-blank text nodes under n in document order.
func textParts(n *html.Node) []string {
	var parts []string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if s := htmlutils.CollapseWhitespace(n.Data); s != "" {
				parts = append(parts, s)
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)

	return parts
}
