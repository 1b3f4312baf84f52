// Package htmlutils converts HTML fragments from upstream sources to plain text.
//
// The research directory returns abstracts as HTML fragments (paragraphs,
// inline formatting, entities). Stored abstracts and classifier prompts use
// the plain text only.
package htmlutils

import (
	"html"
	"io"
	"regexp"
	"strings"

	xhtml "golang.org/x/net/html"
)

var tagRegex = regexp.MustCompile(`<(/?)([a-zA-Z0-9-]+)([^>]*)>`)

// blockTags separate their text from the neighbouring text.
var blockTags = map[string]bool{
	"p":          true,
	"br":         true,
	"div":        true,
	"li":         true,
	"h1":         true,
	"h2":         true,
	"h3":         true,
	"h4":         true,
	"blockquote": true,
	"tr":         true,
	"td":         true,
}

// StripHTMLTags removes tags and decodes entities. Text from separate block
// elements is joined by a single space and runs of whitespace are collapsed.
func StripHTMLTags(text string) string {
	if !strings.ContainsAny(text, "<&") {
		return CollapseWhitespace(text)
	}

	var sb strings.Builder

	z := xhtml.NewTokenizer(strings.NewReader(text))

	for {
		switch z.Next() {
		case xhtml.ErrorToken:
			if z.Err() != io.EOF {
				return stripWithRegex(text)
			}

			return CollapseWhitespace(sb.String())
		case xhtml.TextToken:
			sb.Write(z.Text())
		case xhtml.StartTagToken, xhtml.EndTagToken, xhtml.SelfClosingTagToken:
			name, _ := z.TagName()
			if blockTags[string(name)] {
				sb.WriteByte(' ')
			}
		case xhtml.CommentToken, xhtml.DoctypeToken:
		}
	}
}

func stripWithRegex(text string) string {
	result := tagRegex.ReplaceAllString(text, " ")
	result = html.UnescapeString(result)

	return CollapseWhitespace(result)
}

// CollapseWhitespace trims s and replaces every whitespace run with one space.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
