// Package render prepares fetched bodies for a terminal.
package render

import (
	"html"
	"strings"
)

// Text drops everything between '<' and '>' and decodes HTML entities in what is left.
// It knows nothing about tag structure, so a '>' outside a tag is dropped too.
func Text(body string) string {
	b := new(strings.Builder)
	b.Grow(len(body))

	inTag := false
	for _, r := range body {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}

	return html.UnescapeString(b.String())
}
