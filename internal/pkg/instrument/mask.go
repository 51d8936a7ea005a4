package instrument

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
)

const maskedValue = "***"

// defaultMaskFields are always redacted; they carry passcodes and bearer tokens.
var defaultMaskFields = []string{"otp", "code", "passcode", "token", "authorization"}

// masker is a case-insensitive set of attribute keys whose values are redacted.
type masker map[string]struct{}

func newMasker(fields ...string) masker {
	m := make(masker, len(fields))
	for _, field := range fields {
		if field = strings.ToLower(strings.TrimSpace(field)); field != "" {
			m[field] = struct{}{}
		}
	}
	return m
}

func (m masker) hides(key string) bool {
	_, ok := m[strings.ToLower(key)]
	return ok
}

func (m masker) attr(a slog.Attr) slog.Attr {
	if m.hides(a.Key) {
		return slog.String(a.Key, maskedValue)
	}

	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindGroup:
		group := v.Group()
		out := make([]slog.Attr, len(group))
		for i := range group {
			out[i] = m.attr(group[i])
		}
		a.Value = slog.GroupValue(out...)
	case slog.KindString:
		if s, ok := m.json([]byte(v.String())); ok {
			a.Value = slog.StringValue(s)
		}
	case slog.KindAny:
		switch raw := v.Any().(type) {
		case map[string]any, []any:
			a.Value = slog.AnyValue(m.walk(raw))
		case map[string]string:
			conv := make(map[string]any, len(raw))
			for k, s := range raw {
				conv[k] = s
			}
			a.Value = slog.AnyValue(m.walk(conv))
		case []byte:
			if s, ok := m.json(raw); ok {
				a.Value = slog.StringValue(s)
			}
		}
	}
	return a
}

// json redacts payloads that look like a JSON object or array. Anything else
// is reported as not handled so the caller keeps the original value.
func (m masker) json(payload []byte) (string, bool) {
	if len(payload) == 0 || (payload[0] != '{' && payload[0] != '[') {
		return "", false
	}
	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return "", false
	}
	out, err := json.Marshal(m.walk(doc))
	if err != nil {
		return "", false
	}
	return string(out), true
}

func (m masker) walk(v any) any {
	switch node := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(node))
		for k, child := range node {
			if m.hides(k) {
				out[k] = maskedValue
				continue
			}
			out[k] = m.walk(child)
		}
		return out
	case []any:
		out := make([]any, len(node))
		for i, child := range node {
			out[i] = m.walk(child)
		}
		return out
	default:
		return v
	}
}

// maskHandler rewrites record attributes through a masker before handing the
// record to next.
type maskHandler struct {
	next   slog.Handler
	masker masker
}

func (h *maskHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *maskHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.masker.attr(a))
		return true
	})
	return h.next.Handle(ctx, out)
}

func (h *maskHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, len(attrs))
	for i := range attrs {
		masked[i] = h.masker.attr(attrs[i])
	}
	return &maskHandler{next: h.next.WithAttrs(masked), masker: h.masker}
}

func (h *maskHandler) WithGroup(name string) slog.Handler {
	return &maskHandler{next: h.next.WithGroup(name), masker: h.masker}
}
