package router

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/edubite/internal/pkg/config"
	"github.com/shandysiswandi/edubite/internal/pkg/instrument"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const maxLoggedBodyBytes = 8 * 1024

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
	err    error
}

func (w *statusRecorder) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

// SetError keeps the handler error for the span.
func (w *statusRecorder) SetError(err error) {
	w.err = err
}

func (w *statusRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusRecorder) statusCode() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func matchedRoutePath(r *http.Request) string {
	if pattern := httprouter.ParamsFromContext(r.Context()).MatchedRoutePath(); pattern != "" {
		return pattern
	}
	return r.URL.Path
}

type httpObserver struct {
	tracer   trace.Tracer
	requests metric.Int64Counter
	duration metric.Float64Histogram
	maskKeys map[string]struct{}
}

func middlewareObservability(cfg config.Config, ins instrument.Instrumentation) Middleware {
	o := &httpObserver{
		tracer:   ins.Tracer("http.server"),
		maskKeys: map[string]struct{}{},
	}

	meter := ins.Meter("http.server")
	var err error
	if o.requests, err = meter.Int64Counter("http.server.requests",
		metric.WithDescription("Number of HTTP requests received")); err != nil {
		slog.Error("failed to create http request counter", "error", err)
	}
	if o.duration, err = meter.Float64Histogram("http.server.duration",
		metric.WithDescription("HTTP request duration in milliseconds"), metric.WithUnit("ms")); err != nil {
		slog.Error("failed to create http duration histogram", "error", err)
	}

	if cfg != nil {
		for _, field := range cfg.GetArray("instrument.log_mask_fields") {
			if field = strings.ToLower(strings.TrimSpace(field)); field != "" {
				o.maskKeys[field] = struct{}{}
			}
		}
	}

	return o.wrap
}

func (o *httpObserver) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := matchedRoutePath(r)
		start := time.Now()

		ctx, span := o.tracer.Start(r.Context(), r.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.HTTPRouteKey.String(route),
			),
		)
		defer span.End()

		slog.InfoContext(ctx, "request received",
			"method", r.Method,
			"path", route,
			"ip", r.RemoteAddr,
			"body", o.maskBody(r.Header.Get("Content-Type"), peekBody(r)),
		)

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r.WithContext(ctx))

		status := rec.statusCode()
		elapsed := time.Since(start)
		attrs := []attribute.KeyValue{
			semconv.HTTPRequestMethodKey.String(r.Method),
			semconv.HTTPRouteKey.String(route),
			semconv.HTTPResponseStatusCodeKey.Int(status),
		}

		span.SetAttributes(attrs...)
		span.SetAttributes(
			semconv.UserAgentOriginal(r.UserAgent()),
			attribute.Int("http.response_content_length", rec.bytes),
		)
		if rec.err != nil {
			span.RecordError(rec.err)
		}
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}

		if o.requests != nil {
			o.requests.Add(ctx, 1, metric.WithAttributes(attrs...))
		}
		if o.duration != nil {
			o.duration.Record(ctx, float64(elapsed.Milliseconds()), metric.WithAttributes(attrs...))
		}

		slog.InfoContext(ctx, "response sent",
			"method", r.Method,
			"path", route,
			"status", status,
			"bytes", rec.bytes,
			"latency_ms", elapsed.Milliseconds(),
		)
	})
}

// peekBody reads up to maxLoggedBodyBytes and restores r.Body.
func peekBody(r *http.Request) []byte {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}

	head, _ := io.ReadAll(io.LimitReader(r.Body, maxLoggedBodyBytes))
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(head), r.Body), r.Body}
	return head
}

func (o *httpObserver) maskBody(contentType string, body []byte) any {
	if len(body) == 0 {
		return nil
	}

	var v any
	if strings.HasPrefix(strings.ToLower(contentType), "application/json") && json.Unmarshal(body, &v) == nil {
		return o.mask(v)
	}
	if !utf8.Valid(body) {
		return "<binary body omitted>"
	}
	return "<non-json body omitted>"
}

func (o *httpObserver) mask(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			if _, hit := o.maskKeys[strings.ToLower(k)]; hit {
				out[k] = "***"
				continue
			}
			out[k] = o.mask(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = o.mask(inner)
		}
		return out
	default:
		return v
	}
}
