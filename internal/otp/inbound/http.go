package inbound

import (
	"context"

	"github.com/shandysiswandi/edubite/internal/otp/usecase"
	"github.com/shandysiswandi/edubite/internal/pkg/router"
)

type uc interface {
	Send(ctx context.Context, in usecase.SendInput) (*usecase.SendOutput, error)
	Verify(ctx context.Context, in usecase.VerifyInput) (*usecase.VerifyOutput, error)
	Resend(ctx context.Context, in usecase.ResendInput) (*usecase.SendOutput, error)
	Status(ctx context.Context, in usecase.StatusInput) (*usecase.StatusOutput, error)
	Cancel(ctx context.Context, in usecase.CancelInput) error
}

// RegisterHTTPEndpoint mounts the OTP routes. verifyMws run only on the
// verify route, after the router-wide chain.
func RegisterHTTPEndpoint(r *router.Router, uc uc, verifyMws ...router.Middleware) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/v1/otp/send", end.Send)
	r.POST("/api/v1/otp/verify", end.Verify, verifyMws...)
	r.POST("/api/v1/otp/resend", end.Resend)
	r.GET("/api/v1/otp/status", end.Status)
	r.DELETE("/api/v1/otp/cancel", end.Cancel)
}
