package logger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"
)

type logFormat string

const (
	formatJSON logFormat = "json"
	formatKV   logFormat = "kv"

	timeFormatMillis = "2006-01-02T15:04:05.000Z07:00"
)

var errNoWriter = errors.New("logger: writer not initialized")

type handlerConfig struct {
	level    slog.Leveler
	writer   *asyncWriter
	format   logFormat
	keyOrder []string
}

// fields is one log line before encoding. Values are string, bool, int64,
// float64 or fmt.Sprint output.
type fields map[string]any

func (f fields) str(key string) string {
	s, _ := f[key].(string)
	return s
}

func (f fields) setDefault(key string, val any) {
	if _, ok := f[key]; !ok {
		f[key] = val
	}
}

// encoder turns ordered fields into one line without the trailing newline.
type encoder func(f fields, keys []string) ([]byte, error)

// structuredHandler writes flat lines with a stable key order: the known keys
// first, the rest alphabetically.
type structuredHandler struct {
	cfg    handlerConfig
	encode encoder
	attrs  []slog.Attr
	prefix string
}

func newStructuredHandler(cfg handlerConfig) *structuredHandler {
	if cfg.level == nil {
		cfg.level = slog.LevelInfo
	}
	if cfg.keyOrder == nil {
		cfg.keyOrder = append([]string(nil), defaultKeyOrder...)
	}
	enc := encodeKV
	if cfg.format == formatJSON {
		enc = encodeJSON
	}
	return &structuredHandler{cfg: cfg, encode: enc}
}

func (h *structuredHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.cfg.level.Level()
}

func (h *structuredHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.cfg.writer == nil {
		return errNoWriter
	}

	f := make(fields, 16)
	f["ts"] = r.Time.UTC().Truncate(time.Millisecond).Format(timeFormatMillis)
	f["level"] = normalizeLevel(r.Level.String())
	for _, a := range h.attrs {
		h.add(f, h.prefix, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.add(f, h.prefix, a)
		return true
	})
	addContextFields(ctx, f)

	if rid := f.str("rid"); rid != "" {
		f["rid"] = CompactRID(rid)
	}
	if f.str("event") == "" {
		f["event"] = cmpOr(r.Message, "unknown")
	}
	if f.str("component") == "" {
		f["component"] = "app"
	}
	normalizeEnums(f)

	line, err := h.encode(f, orderedKeys(f, h.cfg.keyOrder))
	if err != nil {
		return err
	}
	return h.cfg.writer.Write(append(line, '\n'))
}

func (h *structuredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	clone.attrs = append(append(clone.attrs, h.attrs...), attrs...)
	return &clone
}

// WithGroup prefixes later keys with "name.".
func (h *structuredHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = joinKey(h.prefix, name)
	return &clone
}

// add flattens groups into dotted keys and drops empty values.
func (h *structuredHandler) add(f fields, prefix string, a slog.Attr) {
	val := a.Value.Resolve()
	key := joinKey(prefix, a.Key)
	if val.Kind() == slog.KindGroup {
		for _, child := range val.Group() {
			h.add(f, key, child)
		}
		return
	}
	if key == "" {
		return
	}
	switch val.Kind() {
	case slog.KindString:
		if s := strings.TrimSpace(val.String()); s != "" {
			f[key] = s
		}
	case slog.KindDuration:
		f[msKey(key)] = RoundMS(val.Duration()).Milliseconds()
	case slog.KindTime:
		f[key] = val.Time().UTC().Format(time.RFC3339Nano)
	case slog.KindBool, slog.KindInt64, slog.KindFloat64:
		f[key] = val.Any()
	case slog.KindUint64:
		f[key] = int64(val.Uint64())
	default:
		switch x := val.Any().(type) {
		case nil:
		case error:
			f[key] = x.Error()
		default:
			if s := fmt.Sprint(x); s != "" {
				f[key] = s
			}
		}
	}
}

func joinKey(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	}
	return prefix + "." + key
}

// msKey turns "duration" into "duration_ms" and "x" into "x_ms".
func msKey(key string) string {
	if key == "duration" {
		return "duration_ms"
	}
	if strings.HasSuffix(key, "_ms") {
		return key
	}
	return key + "_ms"
}

func cmpOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// normalizeEnums lowercases status and outcome. Unknown outcomes are dropped;
// unknown statuses are kept as written.
func normalizeEnums(f fields) {
	if s := f.str("status"); s != "" {
		f["status"], _ = normalizeEnum(s, knownStatus)
	}
	if o := f.str("outcome"); o != "" {
		if v, ok := normalizeEnum(o, knownOutcome); ok {
			f["outcome"] = v
		} else {
			delete(f, "outcome")
		}
	}
}

func orderedKeys(f fields, order []string) []string {
	keys := make([]string, 0, len(f))
	seen := make(map[string]bool, len(f))
	for _, key := range order {
		if _, ok := f[key]; ok && !seen[key] {
			keys = append(keys, key)
			seen[key] = true
		}
	}
	rest := len(keys)
	for key := range f {
		if !seen[key] {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys[rest:])
	return keys
}

func encodeJSON(f fields, keys []string) ([]byte, error) {
	buf := make([]byte, 0, 256)
	buf = append(buf, '{')
	for i, key := range keys {
		val, err := json.Marshal(f[key])
		if err != nil {
			return nil, fmt.Errorf("logger: encode %s: %w", key, err)
		}
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendQuote(buf, key)
		buf = append(buf, ':')
		buf = append(buf, val...)
	}
	return append(buf, '}'), nil
}

func encodeKV(f fields, keys []string) ([]byte, error) {
	buf := make([]byte, 0, 256)
	for i, key := range keys {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = append(buf, key...)
		buf = append(buf, '=')
		buf = appendKVValue(buf, f[key])
	}
	return buf, nil
}

func appendKVValue(buf []byte, val any) []byte {
	switch v := val.(type) {
	case bool:
		return strconv.AppendBool(buf, v)
	case int64:
		return strconv.AppendInt(buf, v, 10)
	case int:
		return strconv.AppendInt(buf, int64(v), 10)
	}
	s := fmt.Sprint(val)
	if strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.AppendQuote(buf, s)
	}
	return append(buf, s...)
}

// addContextFields copies request metadata from ctx unless the record set it.
func addContextFields(ctx context.Context, f fields) {
	if ctx == nil {
		return
	}
	if rid := RIDFrom(ctx); rid != "" {
		f.setDefault("rid", rid)
	}
	if id := UpdateIDFrom(ctx); id != 0 {
		f.setDefault("update_id", int64(id))
	}
	if id := UserIDFrom(ctx); id != 0 {
		f.setDefault("user_id", id)
	}
	if id := ChatIDFrom(ctx); id != 0 {
		f.setDefault("chat_id", id)
	}
	if handler := HandlerFrom(ctx); handler != "" {
		f.setDefault("handler", handler)
	}
}
