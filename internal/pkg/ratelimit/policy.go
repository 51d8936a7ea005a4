package ratelimit

import (
	"time"

	"github.com/shandysiswandi/edubite/internal/pkg/config"
)

// Named policies.
const (
	PolicyOTP              = "otp"
	PolicyAuth             = "auth"
	PolicyAPIAnonymous     = "api_anonymous"
	PolicyAPIAuthenticated = "api_authenticated"
	PolicyUpload           = "upload"
)

// DefaultPolicies returns the built-in limits keyed by policy name.
func DefaultPolicies() map[string]Policy {
	return map[string]Policy{
		PolicyOTP:              {Name: PolicyOTP, Window: 15 * time.Minute, MaxRequests: 3, FailOpen: true},
		PolicyAuth:             {Name: PolicyAuth, Window: 15 * time.Minute, MaxRequests: 5, FailOpen: true},
		PolicyAPIAnonymous:     {Name: PolicyAPIAnonymous, Window: 15 * time.Minute, MaxRequests: 100, FailOpen: true},
		PolicyAPIAuthenticated: {Name: PolicyAPIAuthenticated, Window: 15 * time.Minute, MaxRequests: 1000, FailOpen: true},
		PolicyUpload:           {Name: PolicyUpload, Window: time.Minute, MaxRequests: 10, FailOpen: true},
	}
}

// PoliciesFromConfig overlays "ratelimit.<name>.*" keys onto DefaultPolicies.
// Zero or missing values keep the default.
func PoliciesFromConfig(cfg config.Config) map[string]Policy {
	policies := DefaultPolicies()
	if cfg == nil {
		return policies
	}

	for name, p := range policies {
		prefix := "ratelimit." + name + "."
		if w := cfg.GetSecond(prefix + "window_seconds"); w > 0 {
			p.Window = w
		}
		if n := cfg.GetInt64(prefix + "max_requests"); n > 0 {
			p.MaxRequests = n
		}
		if cfg.IsSet(prefix + "fail_open") {
			p.FailOpen = cfg.GetBool(prefix + "fail_open")
		}
		policies[name] = p
	}

	return policies
}
