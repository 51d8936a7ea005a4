package app

import (
	"log/slog"

	"github.com/shandysiswandi/edubite/internal/pkg/goerror"
	"github.com/shandysiswandi/edubite/internal/pkg/router"
)

type healthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
}

func (healthResponse) Message() string {
	return "Service is healthy"
}

func (a *App) health(r *router.Request) (any, error) {
	if err := a.kv.Ping(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "health check failed", "component", "kvstore", "error", err)
		return nil, goerror.NewServerWithMsg(err, "Store unavailable")
	}

	return healthResponse{Status: "ok", Store: "ok"}, nil
}
