package instrument

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// ParseLevel maps debug, info, warn and error to slog levels. Unknown or empty
// values fall back to info.
func ParseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// newLogHandler assembles the handler chain used as the process default:
// correlation attrs, then masking, then stdout JSON plus the OTLP bridge when
// a logger provider is present.
func newLogHandler(w io.Writer, cfg *Config, lp *sdklog.LoggerProvider) slog.Handler {
	sinks := fanout{slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       ParseLevel(cfg.LogLevel),
		AddSource:   true,
		ReplaceAttr: renameStdAttrs,
	})}
	if lp != nil {
		sinks = append(sinks, otelslog.NewHandler(cfg.ServiceName, otelslog.WithLoggerProvider(lp)))
	}

	var sink slog.Handler = sinks
	if len(sinks) == 1 {
		sink = sinks[0]
	}

	fields := append(append([]string{}, defaultMaskFields...), cfg.MaskFields...)
	return &contextHandler{
		Handler: &maskHandler{next: sink, masker: newMasker(fields...)},
		service: cfg.ServiceName,
	}
}

func initLogging(cfg *Config, lp *sdklog.LoggerProvider) {
	slog.SetDefault(slog.New(newLogHandler(os.Stdout, cfg, lp)))
}

// renameStdAttrs shortens the built-in keys and reports the source as a
// repo-relative file:line. Frames outside internal/ are dropped.
func renameStdAttrs(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}
	switch a.Key {
	case slog.TimeKey:
		a.Key = "ts"
	case slog.LevelKey:
		a.Key = "severity"
	case slog.SourceKey:
		src, ok := a.Value.Any().(*slog.Source)
		if !ok {
			return a
		}
		idx := strings.LastIndex(src.File, "/internal/")
		if idx < 0 {
			return slog.Attr{}
		}
		return slog.String("file", src.File[idx+1:]+":"+strconv.Itoa(src.Line))
	}
	return a
}

// contextHandler stamps every record with the service name and, when the
// context carries one, the request correlation id.
type contextHandler struct {
	slog.Handler
	service string
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if cID := GetCorrelationID(ctx); cID != "" {
		r.AddAttrs(slog.String("_cID", cID))
	}
	r.AddAttrs(slog.String("service", h.service))
	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs), service: h.service}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name), service: h.service}
}

// fanout delivers each record to every sink that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
