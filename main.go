package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shandysiswandi/edubite/internal/app"
)

// @title           Edubite OTP API
// @version         1.0
// @description     Edubite issues, delivers and verifies one-time passcodes for account verification, login and password reset.
// @contact.name    Contact Support
// @contact.email   support@edubite.id
// @license.name    MIT
// @server          http://localhost:8080
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	if err := app.New().Run(ctx); err != nil {
		slog.Error("application stopped with error", "error", err)
		os.Exit(1)
	}
}
