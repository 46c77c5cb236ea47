package logger

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	coreconfig "github.com/ranggaxyy/deplot-bot/core/config"
)

func newTestHandler(buf *bytes.Buffer, format logFormat) (*structuredHandler, *asyncWriter) {
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	return newStructuredHandler(handlerConfig{
		level:    slog.LevelInfo,
		writer:   aw,
		format:   format,
		keyOrder: append([]string(nil), defaultKeyOrder...),
	}), aw
}

func closeWriter(t *testing.T, aw *asyncWriter) {
	t.Helper()
	if err := aw.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := aw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, aw := newTestHandler(buf, formatKV)
	ctx := WithRID(Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)

	log := slog.New(handler).With("component", "engine.quiz")
	LogEvent(ctx, log, slog.LevelInfo, "game.start",
		slog.String("status", "ok"),
		slog.String("category", "math"),
	)
	closeWriter(t, aw)

	line := strings.TrimSpace(buf.String())
	tokens := strings.Split(line, " ")
	expected := []string{"ts=", "level=INFO", "component=engine.quiz", "event=game.start", "status=ok", "rid=rid-123", "update_id=42", "user_id=7", "chat_id=9"}
	if len(tokens) < len(expected) {
		t.Fatalf("unexpected token count: %d (%s)", len(tokens), line)
	}
	for i, prefix := range expected {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, expected prefix %s", i, tokens[i], prefix)
		}
	}
}

func TestStructuredHandlerJSONOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, aw := newTestHandler(buf, formatJSON)
	ctx := WithRID(Background(), "rid-json")

	log := slog.New(handler).With("component", "engine.survey")
	LogEvent(ctx, log, slog.LevelError, "survey.save",
		slog.String("status", "fail"),
		slog.String("err", "boom"),
	)
	closeWriter(t, aw)

	line := strings.TrimSpace(buf.String())
	prefixes := []string{`{"ts":`, `"level":"ERROR"`, `"component":"engine.survey"`, `"event":"survey.save"`, `"status":"fail"`, `"rid":"rid-json"`}
	pos := -1
	for _, pref := range prefixes {
		idx := strings.Index(line, pref)
		if idx == -1 || idx < pos {
			t.Fatalf("prefix %s not found in order within %s", pref, line)
		}
		pos = idx
	}
}

func TestStructuredHandlerCompactRID(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, aw := newTestHandler(buf, formatJSON)
	rawRID := "12:34:56"
	LogEvent(WithRID(Background(), rawRID), slog.New(handler), slog.LevelInfo, "rid.test")
	closeWriter(t, aw)

	line := buf.String()
	if !strings.Contains(line, `"rid":"`+CompactRID(rawRID)+`"`) {
		t.Fatalf("expected compact rid in JSON, got %s", line)
	}
	if strings.Contains(line, rawRID) {
		t.Fatalf("raw rid should not be logged, got %s", line)
	}
	if !strings.Contains(line, `"component":"app"`) {
		t.Fatalf("expected default component, got %s", line)
	}
}

func TestStructuredHandlerDurationAndOutcome(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, aw := newTestHandler(buf, formatKV)
	LogEvent(Background(), slog.New(handler), slog.LevelInfo, "game.finish",
		slog.Duration("duration", 1500000000),
		slog.String("outcome", "SOLVED"),
		slog.String("reason", ""),
	)
	closeWriter(t, aw)

	line := buf.String()
	if !strings.Contains(line, "duration_ms=1500") {
		t.Fatalf("expected duration_ms, got %s", line)
	}
	if !strings.Contains(line, "outcome=solved") {
		t.Fatalf("expected normalized outcome, got %s", line)
	}
	if strings.Contains(line, "reason=") {
		t.Fatalf("empty values should be pruned, got %s", line)
	}
}

func TestStructuredHandlerGroupsAndErrors(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, aw := newTestHandler(buf, formatKV)
	log := slog.New(handler).WithGroup("db")
	log.Info("db.query",
		slog.Int("rows", 3),
		slog.Any("err", errors.New("no such table")),
		slog.Group("pool", slog.Bool("idle", true)),
	)
	closeWriter(t, aw)

	line := buf.String()
	for _, want := range []string{"event=db.query", "db.rows=3", `db.err="no such table"`, "db.pool.idle=true"} {
		if !strings.Contains(line, want) {
			t.Fatalf("missing %s in %s", want, line)
		}
	}
}

func TestParseRatio(t *testing.T) {
	cases := map[string][2]int{
		"1/10": {1, 10},
		"25":   {1, 25},
		"0":    {0, 0},
		"x/y":  {0, 0},
		"":     {0, 0},
	}
	for in, want := range cases {
		n, d := parseRatio(in)
		if n != want[0] || d != want[1] {
			t.Fatalf("parseRatio(%q) = %d/%d, want %d/%d", in, n, d, want[0], want[1])
		}
	}
}

func TestSanitizeLimit(t *testing.T) {
	if got := SanitizeLimit("ab\x00c\u200bdef", 4); got != "abcd" {
		t.Fatalf("SanitizeLimit = %q", got)
	}
}

func TestSettingsFrom(t *testing.T) {
	s := settingsFrom(nil)
	if s.level != slog.LevelInfo || s.format != formatJSON || s.sampleDen != 50 || s.filePath != "" {
		t.Fatalf("nil config settings = %+v", s)
	}

	s = settingsFrom(&coreconfig.Config{Logging: coreconfig.LoggingConfig{
		Level:       "WARNING",
		Profile:     "Dev",
		KeysOrder:   "event, ,user_id",
		DebugSample: "0",
		Dir:         "/var/log/bot",
		File:        "bot.log",
	}})
	if s.level != slog.LevelWarn || s.format != formatKV || s.profile != "dev" {
		t.Fatalf("settings = %+v", s)
	}
	if strings.Join(s.keyOrder, ",") != "event,user_id" {
		t.Fatalf("key order = %v", s.keyOrder)
	}
	if s.sampleNum != 0 || s.sampleDen != 0 {
		t.Fatalf("debug_sample 0 should disable sampling, got %d/%d", s.sampleNum, s.sampleDen)
	}
	if s.filePath != "/var/log/bot/bot.log" {
		t.Fatalf("file path = %q", s.filePath)
	}

	s = settingsFrom(&coreconfig.Config{Logging: coreconfig.LoggingConfig{Format: "json", Profile: "debug"}})
	if s.format != formatJSON {
		t.Fatalf("explicit format must win over profile")
	}
}
