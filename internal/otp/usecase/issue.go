package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/edubite/internal/otp/entity"
	"github.com/shandysiswandi/edubite/internal/pkg/goerror"
	"github.com/shandysiswandi/edubite/internal/shared/event"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type SendOutput struct {
	Identifier     string
	ExpiresIn      int64
	DeliveryMethod string
	CanResendAfter int64
}

type subject struct {
	identifier string
	channel    entity.Channel
	purpose    entity.Purpose
}

func newSubject(identifier, typ string) (subject, error) {
	p, ok := entity.ParsePurpose(typ)
	if !ok {
		return subject{}, goerror.NewInvalidInput(nil, "type", "Type is not supported")
	}

	ch, err := entity.ClassifyIdentifier(identifier)
	if err != nil {
		return subject{}, goerror.NewInvalidInput(nil, "identifier", "Identifier must be a valid email or phone number")
	}

	return subject{identifier: identifier, channel: ch, purpose: p}, nil
}

func (s *Usecase) checkIssueLimit(ctx context.Context, sub subject) error {
	res, err := s.limiter.Increment(ctx, sub.identifier)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check otp rate limit", "identifier", entity.MaskIdentifier(sub.identifier), "error", err)
		return goerror.NewServer(err)
	}

	if !res.Allowed {
		slog.WarnContext(ctx, "otp issue rate limited", "identifier", entity.MaskIdentifier(sub.identifier), "hits", res.TotalHits)
		return goerror.NewTooManyRequest("Too many OTP requests, please try again later", res.RetryAfter, map[string]any{
			"retryAfterSeconds": res.RetryAfterSeconds(),
		})
	}

	return nil
}

// lookupUser returns a nil user without error when the purpose does not need
// an account and none exists.
func (s *Usecase) lookupUser(ctx context.Context, sub subject) (*entity.User, error) {
	user, err := s.repoDB.GetUserByIdentifier(ctx, sub.identifier, sub.channel)
	if errors.Is(err, goerror.ErrNotFound) {
		if sub.purpose.RequiresAccount() {
			slog.WarnContext(ctx, "account not found for otp", "identifier", entity.MaskIdentifier(sub.identifier), "purpose", sub.purpose.String())
			return nil, goerror.NewBusiness("User not found", goerror.CodeNotFound)
		}
		return nil, nil
	}
	if err != nil {
		if sub.purpose.RequiresAccount() {
			slog.ErrorContext(ctx, "failed to repo get user by identifier", "identifier", entity.MaskIdentifier(sub.identifier), "error", err)
			return nil, goerror.NewServer(err)
		}
		slog.WarnContext(ctx, "failed to repo get user by identifier, continuing without account", "identifier", entity.MaskIdentifier(sub.identifier), "error", err)
		return nil, nil
	}

	return user, nil
}

// issue writes a fresh record, delivers it, and rolls the record back when
// delivery fails. The cooldown starts only after a confirmed delivery.
func (s *Usecase) issue(ctx context.Context, sub subject, method entity.Method, user *entity.User) (*SendOutput, error) {
	st := s.settings()
	masked := entity.MaskIdentifier(sub.identifier)

	code, err := s.passcode.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate otp code", "error", err)
		return nil, goerror.NewServer(err)
	}

	codeHash, err := s.hmac.Hash(code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash otp code", "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	rec := entity.Record{
		CodeHash:  string(codeHash),
		ExpiresAt: now.Add(st.validity),
		IssuedAt:  now,
	}

	if err := s.repoStore.SaveRecord(ctx, sub.purpose, sub.identifier, rec, st.validity+st.retention); err != nil {
		slog.ErrorContext(ctx, "failed to repo save otp record", "identifier", masked, "error", err)
		return nil, goerror.NewServer(err)
	}

	res, err := s.dispatcher.Send(ctx, entity.DeliveryRequest{
		Identifier: sub.identifier,
		Code:       code,
		Purpose:    sub.purpose,
		Method:     method,
		User:       user,
		ExpiresIn:  st.validity,
	})
	if err != nil {
		if _, dErr := s.repoStore.DeleteRecord(ctx, sub.purpose, sub.identifier); dErr != nil {
			slog.ErrorContext(ctx, "failed to repo delete otp record after delivery failure", "identifier", masked, "error", dErr)
		}

		s.add(ctx, s.deliveryFailures, metric.WithAttributes(attribute.String("purpose", sub.purpose.String())))
		s.publish(ctx, OTPEvent{
			Type:             event.OTPDeliveryFailed,
			MaskedIdentifier: masked,
			SubjectKey:       s.subjectKey(sub.purpose, sub.identifier),
			Purpose:          sub.purpose,
		})

		if errors.Is(err, entity.ErrNoChannel) {
			slog.WarnContext(ctx, "no delivery channel for otp", "identifier", masked, "method", method.String(), "error", err)
			return nil, goerror.NewBusiness("No delivery channel available for the requested method", goerror.CodeBadRequest)
		}

		slog.ErrorContext(ctx, "failed to deliver otp", "identifier", masked, "method", method.String(), "error", err)
		return nil, goerror.NewServerWithMsg(err, "Failed to send OTP")
	}

	if err := s.repoStore.SetCooldown(ctx, sub.identifier, st.cooldown); err != nil {
		slog.WarnContext(ctx, "failed to repo set resend cooldown", "identifier", masked, "error", err)
	}

	if err := s.repoStore.UpdateRecord(ctx, sub.purpose, sub.identifier, func(r *entity.Record) (*entity.Record, error) {
		r.Channel = res.Channel
		return r, nil
	}); err != nil {
		slog.WarnContext(ctx, "failed to repo record delivery channel", "identifier", masked, "error", err)
	}

	var userID int64
	if user != nil {
		userID = user.ID
		if err := s.repoDB.SaveOTPMirror(ctx, user.ID, rec.CodeHash, rec.ExpiresAt); err != nil {
			slog.WarnContext(ctx, "failed to repo save otp mirror", "user_id", user.ID, "error", err)
		}
	}

	s.add(ctx, s.issued, metric.WithAttributes(
		attribute.String("purpose", sub.purpose.String()),
		attribute.String("channel", res.Channel.String()),
	))
	s.publish(ctx, OTPEvent{
		Type:             event.OTPIssued,
		MaskedIdentifier: masked,
		SubjectKey:       s.subjectKey(sub.purpose, sub.identifier),
		Purpose:          sub.purpose,
		Channel:          res.Channel,
		Fallback:         res.Fallback,
		UserID:           userID,
	})

	return &SendOutput{
		Identifier:     masked,
		ExpiresIn:      ceilSeconds(st.validity),
		DeliveryMethod: res.Channel.String(),
		CanResendAfter: ceilSeconds(st.cooldown),
	}, nil
}
