package otp

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/edubite/internal/otp/inbound"
	"github.com/shandysiswandi/edubite/internal/otp/outbound/db"
	"github.com/shandysiswandi/edubite/internal/otp/outbound/delivery"
	"github.com/shandysiswandi/edubite/internal/otp/outbound/mq"
	"github.com/shandysiswandi/edubite/internal/otp/outbound/store"
	"github.com/shandysiswandi/edubite/internal/otp/usecase"
	"github.com/shandysiswandi/edubite/internal/pkg/clock"
	"github.com/shandysiswandi/edubite/internal/pkg/config"
	"github.com/shandysiswandi/edubite/internal/pkg/hash"
	"github.com/shandysiswandi/edubite/internal/pkg/instrument"
	"github.com/shandysiswandi/edubite/internal/pkg/jwt"
	"github.com/shandysiswandi/edubite/internal/pkg/kvstore"
	"github.com/shandysiswandi/edubite/internal/pkg/mail"
	"github.com/shandysiswandi/edubite/internal/pkg/messaging"
	"github.com/shandysiswandi/edubite/internal/pkg/passcode"
	"github.com/shandysiswandi/edubite/internal/pkg/ratelimit"
	"github.com/shandysiswandi/edubite/internal/pkg/router"
	"github.com/shandysiswandi/edubite/internal/pkg/sms"
	"github.com/shandysiswandi/edubite/internal/pkg/uid"
	"github.com/shandysiswandi/edubite/internal/pkg/validator"
)

type Dependency struct {
	Ctx        context.Context            `validate:"required"`
	DBConn     *pgxpool.Pool              `validate:"required"`
	KVStore    kvstore.Store              `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Messaging  messaging.Publisher        `validate:"required"`
	Mail       mail.Mail                  `validate:"required"`
	SMS        sms.SMS                    `validate:"required"`
	OTPLimiter *ratelimit.Limiter         `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	HMAC       hash.Hash                  `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	JWT        jwt.JWT                    `validate:"required"`

	// AuthLimiter guards verify by client address; nil disables it.
	AuthLimiter *ratelimit.Limiter
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	codes, err := passcode.New(dep.Config.GetInt("modules.otp.code_length"))
	if err != nil {
		return err
	}

	dbOTP := db.NewDB(dep.DBConn, dep.Instrument, dep.Config.GetSecond("modules.otp.db_timeout_seconds"))
	if dep.Config.GetBool("modules.otp.auto_migrate") {
		if err := dbOTP.Migrate(dep.Ctx); err != nil {
			return err
		}
	}

	storeOTP := store.NewStore(dep.KVStore, dep.Instrument, dep.Config.GetSecond("modules.otp.store_timeout_seconds"))
	repoMsg := mq.NewMessaging(dep.Messaging, dep.Instrument)
	dispatcher := delivery.NewDispatcher(dep.Mail, dep.SMS, dep.Instrument, delivery.Config{
		AppName: dep.Config.GetString("app.name"),
		Timeout: dep.Config.GetSecond("modules.otp.delivery_timeout_seconds"),
	})

	uc := usecase.New(usecase.Dependency{
		RepoDB:        dbOTP,
		RepoStore:     storeOTP,
		RepoMessaging: repoMsg,
		Dispatcher:    dispatcher,
		Limiter:       dep.OTPLimiter,
		Validator:     dep.Validator,
		Config:        dep.Config,
		HMAC:          dep.HMAC,
		Passcode:      codes,
		UID:           dep.UID,
		Clock:         dep.Clock,
		JWT:           dep.JWT,
		Instrument:    dep.Instrument,
	})

	var verifyMws []router.Middleware
	if dep.AuthLimiter != nil {
		verifyMws = append(verifyMws, router.RateLimit(router.RateLimitRule{
			Limiter: dep.AuthLimiter,
			Key:     router.ClientIP,
		}))
	}

	inbound.RegisterHTTPEndpoint(dep.Router, uc, verifyMws...)

	return nil
}
