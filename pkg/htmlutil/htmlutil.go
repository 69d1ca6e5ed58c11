// Package htmlutil cleans up text and links read from html documents.
package htmlutil

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

var innerWhitespace = regexp.MustCompile(`\s+`)

// NormalizeText drops non printable characters, trims the ends and
// collapses inner whitespace into a single space, close to what a browser
// would render for the text.
func NormalizeText(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		if !unicode.IsPrint(r) {
			return -1
		}
		return r
	}, s)
	s = innerWhitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// ResolveHref resolves href against base, returns false if href is empty
// or unparsable.
func ResolveHref(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}
	link, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if base != nil {
		link = base.ResolveReference(link)
	}
	return link.String(), true
}
