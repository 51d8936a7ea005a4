package router

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/edubite/internal/pkg/config"
)

// maintenanceAll closes every route except the health probe.
const maintenanceAll = "*"

// middlewareMaintenance answers 503 for the route patterns listed in
// "app.maintenance.endpoints", e.g. "/api/v1/otp/send". The list is re-read on
// each request so a config reload takes effect without a restart.
func middlewareMaintenance(cfg config.Config) Middleware {
	return func(next http.Handler) http.Handler {
		if cfg == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if underMaintenance(cfg.GetArray("app.maintenance.endpoints"), matchedRoutePath(r)) {
				writeJSON(w, envelope{Message: "Service is under maintenance"}, http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func underMaintenance(endpoints []string, route string) bool {
	for _, e := range endpoints {
		switch e = strings.TrimSpace(e); {
		case e == route && e != "":
			return true
		case e == maintenanceAll && route != "/health":
			return true
		}
	}
	return false
}
