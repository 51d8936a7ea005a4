package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/edubite/internal/otp/entity"
	"github.com/shandysiswandi/edubite/internal/pkg/goerror"
	"github.com/shandysiswandi/edubite/internal/pkg/jwt"
	"github.com/shandysiswandi/edubite/internal/shared/event"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type VerifyInput struct {
	Identifier string `validate:"required,max=254,identifier"`
	OTP        string `validate:"required,otpcode"`
	Type       string `validate:"omitempty,oneof=verification login password_reset phone_verification"`
}

type VerifyOutput struct {
	Verified     bool
	Type         string
	User         *entity.User
	BonusAwarded bool
	AccessToken  string
}

// Verify checks in.OTP against the stored record inside one atomic update, so
// concurrent submissions cannot push attempts past the cap.
func (s *Usecase) Verify(ctx context.Context, in VerifyInput) (*VerifyOutput, error) {
	ctx, span := s.startSpan(ctx, "Verify")
	defer span.End()

	in.Identifier = entity.NormalizeIdentifier(in.Identifier)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	sub, err := newSubject(in.Identifier, in.Type)
	if err != nil {
		return nil, err
	}

	st := s.settings()
	masked := entity.MaskIdentifier(sub.identifier)

	var (
		outcome      error
		attemptsLeft int
		channel      entity.Channel
	)
	err = s.repoStore.UpdateRecord(ctx, sub.purpose, sub.identifier, func(r *entity.Record) (*entity.Record, error) {
		now := s.clock.Now()
		switch {
		case r.Verified:
			return nil, entity.ErrAlreadyUsed
		case r.Expired(now):
			outcome = entity.ErrExpired
			return nil, nil
		case r.Blocked(st.maxAttempts):
			outcome = entity.ErrTooManyAttempts
			return nil, nil
		}

		if !s.hmac.Verify(r.CodeHash, in.OTP) {
			r.Attempts++
			attemptsLeft = max(st.maxAttempts-r.Attempts, 0)
			if r.Attempts >= st.maxAttempts {
				outcome = entity.ErrTooManyAttempts
				return nil, nil
			}
			outcome = entity.ErrCodeMismatch
			return r, nil
		}

		// Sensitive records are deleted only after the follow-up steps
		// succeed; until then verified=true keeps the code from being reused.
		channel = r.Channel
		r.Verified = true
		return r, nil
	})
	switch {
	case errors.Is(err, goerror.ErrNotFound):
		return nil, goerror.NewBusiness("OTP not found or expired", goerror.CodeNotFound)
	case errors.Is(err, entity.ErrAlreadyUsed):
		return nil, goerror.NewBusiness("OTP already used", goerror.CodeBadRequest)
	case err != nil:
		slog.ErrorContext(ctx, "failed to repo update otp record", "identifier", masked, "error", err)
		return nil, goerror.NewServer(err)
	}

	switch {
	case errors.Is(outcome, entity.ErrExpired):
		return nil, goerror.NewBusiness("OTP expired", goerror.CodeBadRequest)

	case errors.Is(outcome, entity.ErrTooManyAttempts):
		s.add(ctx, s.failedAttempts, metric.WithAttributes(attribute.String("purpose", sub.purpose.String())))
		s.publish(ctx, OTPEvent{
			Type:             event.OTPBlocked,
			MaskedIdentifier: masked,
			SubjectKey:       s.subjectKey(sub.purpose, sub.identifier),
			Purpose:          sub.purpose,
		})
		slog.WarnContext(ctx, "otp blocked after too many attempts", "identifier", masked, "purpose", sub.purpose.String())
		return nil, goerror.NewBusinessWithData("Too many attempts", goerror.CodeBadRequest, map[string]any{
			"attemptsLeft": 0,
		})

	case errors.Is(outcome, entity.ErrCodeMismatch):
		s.add(ctx, s.failedAttempts, metric.WithAttributes(attribute.String("purpose", sub.purpose.String())))
		return nil, goerror.NewBusinessWithData("Invalid OTP", goerror.CodeBadRequest, map[string]any{
			"attemptsLeft": attemptsLeft,
		})
	}

	out := &VerifyOutput{Verified: true, Type: sub.purpose.String()}

	if err := s.completeVerification(ctx, sub, st, out); err != nil {
		return nil, err
	}

	if sub.purpose.Sensitive() {
		if _, err := s.repoStore.DeleteRecord(ctx, sub.purpose, sub.identifier); err != nil {
			slog.WarnContext(ctx, "failed to repo delete consumed otp record", "identifier", masked, "error", err)
		}
	}

	var userID int64
	if out.User != nil {
		userID = out.User.ID
	}

	s.add(ctx, s.verified, metric.WithAttributes(attribute.String("purpose", sub.purpose.String())))
	s.publish(ctx, OTPEvent{
		Type:             event.OTPVerified,
		MaskedIdentifier: masked,
		SubjectKey:       s.subjectKey(sub.purpose, sub.identifier),
		Purpose:          sub.purpose,
		Channel:          channel,
		UserID:           userID,
	})

	return out, nil
}

func (s *Usecase) completeVerification(ctx context.Context, sub subject, st settings, out *VerifyOutput) error {
	user, err := s.repoDB.GetUserByIdentifier(ctx, sub.identifier, sub.channel)
	if errors.Is(err, goerror.ErrNotFound) {
		if sub.purpose.RequiresAccount() {
			slog.WarnContext(ctx, "account removed before otp verify", "identifier", entity.MaskIdentifier(sub.identifier))
			// The code can never complete without the account.
			if _, err := s.repoStore.DeleteRecord(ctx, sub.purpose, sub.identifier); err != nil {
				slog.ErrorContext(ctx, "failed to repo delete orphaned otp record", "identifier", entity.MaskIdentifier(sub.identifier), "error", err)
				s.revertVerified(ctx, sub)
			}
			return goerror.NewBusiness("User not found", goerror.CodeNotFound)
		}
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by identifier", "identifier", entity.MaskIdentifier(sub.identifier), "error", err)
		s.revertVerified(ctx, sub)
		return goerror.NewServer(err)
	}

	out.User = user

	if sub.purpose.MarksVerified() {
		// Only the channel the identifier addresses is marked verified.
		awarded, err := s.repoDB.MarkVerified(ctx, user.ID, sub.channel, st.bonus)
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo mark user verified", "user_id", user.ID, "error", err)
			s.revertVerified(ctx, sub)
			return goerror.NewServer(err)
		}

		user.IsVerified = true
		if sub.channel == entity.ChannelEmail {
			user.EmailVerified = true
		} else {
			user.PhoneVerified = true
		}
		if awarded {
			user.Points += st.bonus
		}
		out.BonusAwarded = awarded

		if err := s.repoDB.ClearOTPMirror(ctx, user.ID); err != nil {
			slog.WarnContext(ctx, "failed to repo clear otp mirror", "user_id", user.ID, "error", err)
		}
	}

	if sub.purpose == entity.PurposeLogin {
		token, err := s.jwt.Generate(jwt.Subject{
			UserID:  user.ID,
			Email:   user.Email,
			Phone:   user.Phone,
			Channel: sub.channel.String(),
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to generate access token", "user_id", user.ID, "error", err)
			s.revertVerified(ctx, sub)
			return goerror.NewServer(err)
		}
		out.AccessToken = token
	}

	return nil
}

// revertVerified undoes the verified flag after a downstream failure so the
// caller can retry with the same code.
func (s *Usecase) revertVerified(ctx context.Context, sub subject) {
	if err := s.repoStore.UpdateRecord(ctx, sub.purpose, sub.identifier, func(r *entity.Record) (*entity.Record, error) {
		r.Verified = false
		return r, nil
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo revert otp record", "identifier", entity.MaskIdentifier(sub.identifier), "error", err)
	}
}
