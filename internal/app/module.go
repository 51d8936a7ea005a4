package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/edubite/internal/otp"
	"github.com/shandysiswandi/edubite/internal/pkg/ratelimit"
)

func (a *App) initModules() {
	a.router.GET("/health", a.health)

	if a.config.GetBool("modules.otp.enabled") {
		if err := otp.New(otp.Dependency{
			Ctx:         a.ctx,
			DBConn:      a.dbConn,
			KVStore:     a.kv,
			Router:      a.router,
			Messaging:   a.messaging,
			Mail:        a.mail,
			SMS:         a.sms,
			OTPLimiter:  a.limiters[ratelimit.PolicyOTP],
			AuthLimiter: a.limiters[ratelimit.PolicyAuth],
			Config:      a.config,
			Instrument:  a.ins,
			UID:         a.uid,
			HMAC:        a.hmac,
			Clock:       a.clock,
			Validator:   a.validator,
			JWT:         a.jwt,
		}); err != nil {
			slog.Error("failed to init module otp", "error", err)
			os.Exit(1)
		}
	}
}
