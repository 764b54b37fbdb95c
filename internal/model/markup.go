package model

import (
	"regexp"
	"strings"
)

var (
	tagPattern = regexp.MustCompile(`<[^>]+>`)

	lineBreaks = strings.NewReplacer("<br>", "\n", "<br/>", "\n", "<br />", "\n")
	entities   = strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", "\"",
		"&apos;", "'",
	)
)

// StripMarkup converts body markup to plain text.
// Line breaks become newlines, other tags are dropped and basic entities are decoded.
func StripMarkup(s string) string {
	s = lineBreaks.Replace(s)
	s = tagPattern.ReplaceAllString(s, "")
	return entities.Replace(s)
}
