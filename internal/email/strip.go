package email

import (
	"strings"

	"golang.org/x/net/html"
)

// StripTags removes every tag, comment and doctype from s and keeps the text
// in between untouched, entities included. A string without markup comes
// back unchanged.
func StripTags(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF, or unterminated markup at the end of input which is dropped.
			return b.String()
		case html.TextToken:
			b.Write(z.Raw())
		}
	}
}
