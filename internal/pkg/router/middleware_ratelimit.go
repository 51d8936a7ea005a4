package router

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/shandysiswandi/edubite/internal/pkg/jwt"
	"github.com/shandysiswandi/edubite/internal/pkg/ratelimit"
)

// Rate limit response headers.
const (
	HeaderRateLimitLimit     = "RateLimit-Limit"
	HeaderRateLimitRemaining = "RateLimit-Remaining"
	HeaderRateLimitReset     = "RateLimit-Reset"
	HeaderRetryAfter         = "Retry-After"
)

// RateLimitRule binds a limiter to the request attribute it counts by.
type RateLimitRule struct {
	Limiter *ratelimit.Limiter
	// Key returns the scope for r. An empty scope skips the rule.
	Key func(r *http.Request) string
	// SkipPaths lists route patterns the rule never applies to.
	SkipPaths []string
}

// ClientIP scopes a rule by the resolved client address.
func ClientIP(r *http.Request) string {
	return r.RemoteAddr
}

// AnonymousIP scopes a rule by client address for requests without valid
// authentication.
func AnonymousIP(r *http.Request) string {
	if jwt.GetAuth(r.Context()) != nil {
		return ""
	}
	return r.RemoteAddr
}

// AuthenticatedUser scopes a rule by the authenticated user id.
func AuthenticatedUser(r *http.Request) string {
	clm := jwt.GetAuth(r.Context())
	if clm == nil {
		return ""
	}
	return "user:" + strconv.FormatInt(clm.UserID, 10)
}

// RateLimit counts each request against every applicable rule. It writes the
// RateLimit-* headers of the last applied rule and rejects with 429 and
// Retry-After as soon as one rule is exceeded.
func RateLimit(rules ...RateLimitRule) Middleware {
	skips := make([]map[string]struct{}, len(rules))
	for i, rule := range rules {
		skips[i] = make(map[string]struct{}, len(rule.SkipPaths))
		for _, p := range rule.SkipPaths {
			skips[i][p] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := matchedRoutePath(r)

			for i, rule := range rules {
				if rule.Limiter == nil || rule.Key == nil {
					continue
				}
				if _, skip := skips[i][route]; skip {
					continue
				}
				scope := rule.Key(r)
				if scope == "" {
					continue
				}

				res, err := rule.Limiter.Increment(r.Context(), scope)
				if err != nil {
					slog.ErrorContext(r.Context(), "rate limit check failed", "policy", rule.Limiter.Policy().Name, "error", err)
					writeJSON(w, envelope{Message: "Service temporarily unavailable"}, http.StatusServiceUnavailable)
					return
				}

				setRateLimitHeaders(w, res)
				if !res.Allowed {
					secs := res.RetryAfterSeconds()
					w.Header().Set(HeaderRetryAfter, strconv.FormatInt(secs, 10))
					writeJSON(w, envelope{
						Message: "Too many requests, please try again later",
						Data:    map[string]any{"retryAfterSeconds": secs},
					}, http.StatusTooManyRequests)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func setRateLimitHeaders(w http.ResponseWriter, res ratelimit.Result) {
	h := w.Header()
	h.Set(HeaderRateLimitLimit, strconv.FormatInt(res.Limit, 10))
	h.Set(HeaderRateLimitRemaining, strconv.FormatInt(res.Remaining, 10))
	h.Set(HeaderRateLimitReset, strconv.FormatInt(res.ResetSeconds(time.Now()), 10))
}
