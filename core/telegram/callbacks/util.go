// Package callbacks decodes inline button data produced by telebot markups.
package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Parse splits telebot's "\f<unique>|<payload>" encoding. When telebot has
// already routed the callback to a unique handler, Unique and Data hold the
// decoded parts.
func Parse(cb *tele.Callback) (key, payload string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	raw := strings.TrimPrefix(cb.Data, "\f")
	key, payload, _ = strings.Cut(raw, "|")
	return strings.TrimSpace(key), payload
}

// Tag renders the callback as "key" or "key:payload", the form conversation
// events carry.
func Tag(cb *tele.Callback) string {
	key, payload := Parse(cb)
	if payload == "" {
		return key
	}
	return key + ":" + payload
}
