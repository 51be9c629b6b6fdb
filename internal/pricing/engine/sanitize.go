package engine

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Policies are safe for concurrent use once built.
var strictPolicy = bluemonday.StrictPolicy()

// SanitizeDescription strips all markup from organizer text and returns it as
// plain text. Entity-encoded tags decode into markup, so text that still holds
// a '<' after decoding is stripped once more.
func SanitizeDescription(description string) string {
	if description == "" {
		return ""
	}
	text := plainText(description)
	if strings.Contains(text, "<") {
		text = plainText(text)
	}
	return strings.TrimSpace(text)
}

func plainText(s string) string {
	return html.UnescapeString(strictPolicy.Sanitize(s))
}
