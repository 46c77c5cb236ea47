package format

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestPlainText(t *testing.T) {
	in := "🎉 Benar! Jawabannya <code>56</code> &amp; <b>1 percobaan</b>."
	want := "🎉 Benar! Jawabannya 56 & 1 percobaan."
	if got := PlainText(in); got != want {
		t.Fatalf("PlainText = %q, want %q", got, want)
	}
	if got := PlainText("2 < 3"); got != "2 < 3" {
		t.Fatalf("bare comparison mangled: %q", got)
	}
}

func TestAlertTextIsBounded(t *testing.T) {
	got := AlertText("<b>" + strings.Repeat("z", 500) + "</b>")
	if n := utf8.RuneCountInString(got); n != MaxAlertLength {
		t.Fatalf("alert length = %d", n)
	}
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("missing ellipsis: %q", got[len(got)-8:])
	}
}

func TestEscapeHTML(t *testing.T) {
	if got := EscapeHTML("<b>Tom & Jerry</b>"); got != "&lt;b&gt;Tom &amp; Jerry&lt;/b&gt;" {
		t.Fatalf("EscapeHTML = %q", got)
	}
}
