// Package format converts between Telegram HTML message text and plain text.
package format

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxAlertLength is the longest text Telegram accepts in a callback alert.
const MaxAlertLength = 200

var tagRe = regexp.MustCompile(`</?[a-zA-Z][a-zA-Z0-9-]*(\s[^<>]*)?>`)

// EscapeHTML escapes user-supplied text for the HTML parse mode.
func EscapeHTML(s string) string {
	return html.EscapeString(s)
}

// PlainText drops HTML tags and unescapes entities, for surfaces without
// markup such as callback alerts.
func PlainText(s string) string {
	return html.UnescapeString(tagRe.ReplaceAllString(s, ""))
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n-1])) + "…"
}

// AlertText prepares engine text for a callback alert.
func AlertText(s string) string {
	return Truncate(PlainText(s), MaxAlertLength)
}
