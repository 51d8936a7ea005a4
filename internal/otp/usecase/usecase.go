package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/edubite/internal/otp/entity"
	"github.com/shandysiswandi/edubite/internal/pkg/clock"
	"github.com/shandysiswandi/edubite/internal/pkg/config"
	"github.com/shandysiswandi/edubite/internal/pkg/hash"
	"github.com/shandysiswandi/edubite/internal/pkg/instrument"
	"github.com/shandysiswandi/edubite/internal/pkg/jwt"
	"github.com/shandysiswandi/edubite/internal/pkg/passcode"
	"github.com/shandysiswandi/edubite/internal/pkg/ratelimit"
	"github.com/shandysiswandi/edubite/internal/pkg/uid"
	"github.com/shandysiswandi/edubite/internal/pkg/validator"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultValidity       = 10 * time.Minute
	DefaultMaxAttempts    = 5
	DefaultResendCooldown = time.Minute
	DefaultRetention      = time.Hour
	DefaultBonusPoints    = 25

	publishTimeout = 5 * time.Second
)

type OTPEvent struct {
	ID               int64
	Type             string
	MaskedIdentifier string
	SubjectKey       string
	Purpose          entity.Purpose
	Channel          entity.Channel
	Fallback         bool
	UserID           int64
	Timestamp        time.Time
}

type repoMessaging interface {
	PublishOTPEvent(ctx context.Context, msg OTPEvent) error
}

type repoDB interface {
	GetUserByIdentifier(ctx context.Context, identifier string, ch entity.Channel) (*entity.User, error)
	SaveOTPMirror(ctx context.Context, userID int64, codeHash string, expiresAt time.Time) error
	ClearOTPMirror(ctx context.Context, userID int64) error
	MarkVerified(ctx context.Context, userID int64, ch entity.Channel, bonus int64) (bool, error)
}

type repoStore interface {
	SaveRecord(ctx context.Context, p entity.Purpose, identifier string, rec entity.Record, ttl time.Duration) error
	GetRecord(ctx context.Context, p entity.Purpose, identifier string) (*entity.Record, error)
	DeleteRecord(ctx context.Context, p entity.Purpose, identifier string) (bool, error)
	UpdateRecord(ctx context.Context, p entity.Purpose, identifier string, fn func(*entity.Record) (*entity.Record, error)) error
	SetCooldown(ctx context.Context, identifier string, d time.Duration) error
	CooldownRemaining(ctx context.Context, identifier string) (time.Duration, error)
}

type dispatcher interface {
	Send(ctx context.Context, req entity.DeliveryRequest) (entity.DeliveryResult, error)
}

type limiter interface {
	Increment(ctx context.Context, scope string) (ratelimit.Result, error)
}

type Usecase struct {
	repoDB        repoDB
	repoStore     repoStore
	repoMessaging repoMessaging
	dispatcher    dispatcher
	limiter       limiter
	validator     validator.Validator
	cfg           config.Config
	hmac          hash.Hash
	passcode      passcode.Generator
	uid           uid.NumberID
	clock         clock.Clocker
	jwt           jwt.JWT
	ins           instrument.Instrumentation

	issued           metric.Int64Counter
	verified         metric.Int64Counter
	failedAttempts   metric.Int64Counter
	deliveryFailures metric.Int64Counter
}

type Dependency struct {
	RepoDB        repoDB
	RepoStore     repoStore
	RepoMessaging repoMessaging
	Dispatcher    dispatcher
	Limiter       limiter
	Validator     validator.Validator
	Config        config.Config
	HMAC          hash.Hash
	Passcode      passcode.Generator
	UID           uid.NumberID
	Clock         clock.Clocker
	JWT           jwt.JWT
	Instrument    instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	s := &Usecase{
		repoDB:        dep.RepoDB,
		repoStore:     dep.RepoStore,
		repoMessaging: dep.RepoMessaging,
		dispatcher:    dep.Dispatcher,
		limiter:       dep.Limiter,
		validator:     dep.Validator,
		cfg:           dep.Config,
		hmac:          dep.HMAC,
		passcode:      dep.Passcode,
		uid:           dep.UID,
		clock:         dep.Clock,
		jwt:           dep.JWT,
		ins:           dep.Instrument,
	}

	meter := s.ins.Meter("otp.usecase")
	s.issued = s.counter(meter, "otp.issued", "Number of codes delivered")
	s.verified = s.counter(meter, "otp.verified", "Number of successful verifications")
	s.failedAttempts = s.counter(meter, "otp.failed_attempts", "Number of wrong codes submitted")
	s.deliveryFailures = s.counter(meter, "otp.delivery_failures", "Number of issues rolled back after delivery failed")

	return s
}

func (s *Usecase) counter(meter metric.Meter, name, desc string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		slog.Error("failed to create counter", "name", name, "error", err)
		return nil
	}
	return c
}

func (s *Usecase) add(ctx context.Context, c metric.Int64Counter, opts ...metric.AddOption) {
	if c != nil {
		c.Add(ctx, 1, opts...)
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("otp.usecase").Start(ctx, name)
}

type settings struct {
	validity    time.Duration
	cooldown    time.Duration
	retention   time.Duration
	maxAttempts int
	bonus       int64
}

// settings reads on every call so config reloads apply to the next request.
func (s *Usecase) settings() settings {
	st := settings{
		validity:    s.cfg.GetSecond("modules.otp.validity_seconds"),
		cooldown:    s.cfg.GetSecond("modules.otp.resend_cooldown_seconds"),
		retention:   s.cfg.GetSecond("modules.otp.retention_seconds"),
		maxAttempts: s.cfg.GetInt("modules.otp.max_attempts"),
		bonus:       s.cfg.GetInt64("modules.otp.bonus_points"),
	}
	if st.validity <= 0 {
		st.validity = DefaultValidity
	}
	if st.cooldown <= 0 {
		st.cooldown = DefaultResendCooldown
	}
	if !s.cfg.IsSet("modules.otp.retention_seconds") {
		st.retention = DefaultRetention
	}
	if st.maxAttempts <= 0 {
		st.maxAttempts = DefaultMaxAttempts
	}
	if !s.cfg.IsSet("modules.otp.bonus_points") {
		st.bonus = DefaultBonusPoints
	}
	return st
}

func (s *Usecase) subjectKey(p entity.Purpose, identifier string) string {
	b, err := s.hmac.Hash(p.String() + ":" + identifier)
	if err != nil {
		return ""
	}
	return string(b)
}

// publish sends ev before the request returns so events for one subject reach
// the broker in the order they happened. A failed publish is logged and never
// fails the request.
func (s *Usecase) publish(ctx context.Context, ev OTPEvent) {
	ev.ID = s.uid.Generate()
	ev.Timestamp = s.clock.Now()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.repoMessaging.PublishOTPEvent(ctx, ev); err != nil {
		slog.WarnContext(ctx, "failed to publish otp event", "type", ev.Type, "error", err)
	}
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64((d + time.Second - 1) / time.Second)
}
