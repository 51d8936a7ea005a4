package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shandysiswandi/edubite/internal/otp/entity"
	"github.com/shandysiswandi/edubite/internal/pkg/instrument"
	"github.com/shandysiswandi/edubite/internal/pkg/mail"
	"github.com/shandysiswandi/edubite/internal/pkg/sms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

// DefaultTimeout bounds one channel send.
const DefaultTimeout = 10 * time.Second

type Config struct {
	AppName string
	Timeout time.Duration
}

// Dispatcher sends codes over email or SMS with one fallback to the user's
// other registered channel. There is no retry loop.
type Dispatcher struct {
	mail    mail.Mail
	sms     sms.SMS
	ins     instrument.Instrumentation
	appName string
	timeout time.Duration
}

func NewDispatcher(m mail.Mail, s sms.SMS, ins instrument.Instrumentation, cfg Config) *Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.AppName == "" {
		cfg.AppName = "EduBite"
	}
	return &Dispatcher{mail: m, sms: s, ins: ins, appName: cfg.AppName, timeout: cfg.Timeout}
}

type target struct {
	channel entity.Channel
	address string
}

// Send delivers req and reports the channel that succeeded.
func (d *Dispatcher) Send(ctx context.Context, req entity.DeliveryRequest) (entity.DeliveryResult, error) {
	ctx, span := d.ins.Tracer("otp.outbound.delivery").Start(ctx, "Send")
	defer span.End()

	res, err := d.send(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return res, err
	}

	span.SetAttributes(attribute.String("channel", res.Channel.String()), attribute.Bool("fallback", res.Fallback))
	return res, nil
}

func (d *Dispatcher) send(ctx context.Context, req entity.DeliveryRequest) (entity.DeliveryResult, error) {
	idChannel, err := entity.ClassifyIdentifier(req.Identifier)
	if err != nil {
		return entity.DeliveryResult{}, fmt.Errorf("%w: %v", entity.ErrNoChannel, err)
	}

	if req.Method == entity.MethodBoth {
		return d.sendBoth(ctx, req)
	}

	primary, err := resolve(req, idChannel)
	if err != nil {
		return entity.DeliveryResult{}, err
	}

	primaryErr := d.deliver(ctx, primary, req)
	if primaryErr == nil {
		return entity.DeliveryResult{Channel: primary.channel}, nil
	}

	slog.WarnContext(ctx, "primary delivery channel failed",
		"channel", primary.channel.String(),
		"identifier", entity.MaskIdentifier(req.Identifier),
		"error", primaryErr)

	other := primary.channel.Other()
	addr := req.User.Address(other)
	if addr == "" {
		return entity.DeliveryResult{}, fmt.Errorf("%w: %w", entity.ErrDeliveryFailed, primaryErr)
	}

	if err := d.deliver(ctx, target{channel: other, address: addr}, req); err != nil {
		return entity.DeliveryResult{}, fmt.Errorf("%w: %w", entity.ErrDeliveryFailed, errors.Join(primaryErr, err))
	}

	return entity.DeliveryResult{Channel: other, Fallback: true}, nil
}

// resolve picks the primary target. An explicit method that does not match
// the identifier's shape uses the user's registered address for that channel.
func resolve(req entity.DeliveryRequest, idChannel entity.Channel) (target, error) {
	want := idChannel
	switch req.Method {
	case entity.MethodEmail:
		want = entity.ChannelEmail
	case entity.MethodSMS:
		want = entity.ChannelSMS
	}

	if want == idChannel {
		return target{channel: want, address: req.Identifier}, nil
	}

	if addr := req.User.Address(want); addr != "" {
		return target{channel: want, address: addr}, nil
	}

	return target{}, fmt.Errorf("%w: %s is not registered", entity.ErrNoChannel, want)
}

func (d *Dispatcher) sendBoth(ctx context.Context, req entity.DeliveryRequest) (entity.DeliveryResult, error) {
	if !req.User.HasEmail() || !req.User.HasPhone() {
		return entity.DeliveryResult{}, fmt.Errorf("%w: both channels must be registered", entity.ErrNoChannel)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return d.deliver(gctx, target{channel: entity.ChannelEmail, address: req.User.Email}, req)
	})
	g.Go(func() error {
		return d.deliver(gctx, target{channel: entity.ChannelSMS, address: req.User.Phone}, req)
	})

	if err := g.Wait(); err != nil {
		return entity.DeliveryResult{}, fmt.Errorf("%w: %w", entity.ErrDeliveryFailed, err)
	}

	return entity.DeliveryResult{Channel: entity.ChannelBoth}, nil
}

func (d *Dispatcher) deliver(ctx context.Context, t target, req entity.DeliveryRequest) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	subject, text, err := render(req.Purpose, templateData{
		AppName: d.appName,
		Code:    req.Code,
		Minutes: int(req.ExpiresIn.Minutes()),
	})
	if err != nil {
		return err
	}

	switch t.channel {
	case entity.ChannelEmail:
		return d.mail.Send(ctx, mail.Message{
			To:       []string{t.address},
			Subject:  subject,
			TextBody: text + footer,
		})
	case entity.ChannelSMS:
		return d.sms.Send(ctx, sms.Message{To: t.address, Body: text})
	default:
		return entity.ErrNoChannel
	}
}
