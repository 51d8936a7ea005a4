package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/shandysiswandi/edubite/internal/pkg/clock"
	"github.com/shandysiswandi/edubite/internal/pkg/instrument"
	"github.com/shandysiswandi/edubite/internal/pkg/kvstore"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DefaultTimeout bounds a single store call made by Increment.
const DefaultTimeout = 2 * time.Second

var (
	// ErrUnavailable is returned when the store fails and the policy fails closed.
	ErrUnavailable = errors.New("ratelimit: store unavailable")
	// ErrScopeRequired is returned for an empty scope key.
	ErrScopeRequired = errors.New("ratelimit: scope key is required")
)

// Policy describes one class of limited action.
type Policy struct {
	// Name is part of every counter key.
	Name string
	// Window is the fixed window length.
	Window time.Duration
	// MaxRequests is the number of actions allowed per window.
	MaxRequests int64
	// FailOpen allows the action when the store cannot be reached.
	FailOpen bool
}

// Result describes the counter after one increment.
type Result struct {
	Allowed   bool
	Limit     int64
	TotalHits int64
	Remaining int64
	ResetAt   time.Time
	// RetryAfter is set only when Allowed is false.
	RetryAfter time.Duration
	// Degraded is true when the store failed and the policy failed open.
	Degraded bool
}

// RetryAfterSeconds returns RetryAfter rounded up to whole seconds.
func (r Result) RetryAfterSeconds() int64 {
	return ceilSeconds(r.RetryAfter)
}

// ResetSeconds returns the whole seconds from now until the window resets.
func (r Result) ResetSeconds(now time.Time) int64 {
	return ceilSeconds(r.ResetAt.Sub(now))
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source.
func WithClock(c clock.Clocker) Option {
	return func(l *Limiter) { l.clock = c }
}

// WithTimeout overrides the per-call store timeout.
func WithTimeout(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// WithInstrument records rejections on the "ratelimit.rejected" counter.
func WithInstrument(ins instrument.Instrumentation) Option {
	return func(l *Limiter) {
		counter, err := ins.Meter("ratelimit").Int64Counter("ratelimit.rejected",
			metric.WithDescription("Number of actions rejected by a rate limit policy"))
		if err != nil {
			slog.Error("failed to create ratelimit rejected counter", "error", err)
			return
		}
		l.rejected = counter
	}
}

// Limiter enforces one Policy.
type Limiter struct {
	store    kvstore.Store
	policy   Policy
	clock    clock.Clocker
	timeout  time.Duration
	rejected metric.Int64Counter
}

// New returns a Limiter for policy backed by store.
func New(store kvstore.Store, policy Policy, opts ...Option) *Limiter {
	l := &Limiter{
		store:   store,
		policy:  policy,
		clock:   clock.New(),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Policy returns the policy enforced by l.
func (l *Limiter) Policy() Policy {
	return l.policy
}

// Key returns the counter key used for scope.
func (l *Limiter) Key(scope string) string {
	return "ratelimit:" + l.policy.Name + ":" + scope
}

// Increment records one action for scope and reports whether it is allowed.
func (l *Limiter) Increment(ctx context.Context, scope string) (Result, error) {
	if scope == "" {
		return Result{}, ErrScopeRequired
	}

	callCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	now := l.clock.Now()
	w, err := l.store.Hit(callCtx, l.Key(scope), l.policy.Window)
	if err != nil {
		if !l.policy.FailOpen {
			return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}

		slog.WarnContext(ctx, "rate limit store failed, allowing action", "policy", l.policy.Name, "error", err)
		return Result{
			Allowed:   true,
			Limit:     l.policy.MaxRequests,
			Remaining: l.policy.MaxRequests,
			ResetAt:   now.Add(l.policy.Window),
			Degraded:  true,
		}, nil
	}

	res := Result{
		Allowed:   w.Count <= l.policy.MaxRequests,
		Limit:     l.policy.MaxRequests,
		TotalHits: w.Count,
		Remaining: max(l.policy.MaxRequests-w.Count, 0),
		ResetAt:   w.ResetAt,
	}

	if !res.Allowed {
		res.RetryAfter = max(w.ResetAt.Sub(now), time.Second)
		if l.rejected != nil {
			l.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("policy", l.policy.Name)))
		}
	}

	return res, nil
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64(math.Ceil(d.Seconds()))
}
