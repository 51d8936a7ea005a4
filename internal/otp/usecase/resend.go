package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/edubite/internal/otp/entity"
	"github.com/shandysiswandi/edubite/internal/pkg/goerror"
)

type ResendInput struct {
	Identifier string `validate:"required,max=254,identifier"`
	Type       string `validate:"omitempty,oneof=verification login password_reset phone_verification"`
	Method     string `validate:"omitempty,oneof=auto email sms both"`
}

// Resend reissues a code for an existing record, expired ones included. It
// keeps the purpose and, unless Method is given, the channel used last time.
func (s *Usecase) Resend(ctx context.Context, in ResendInput) (*SendOutput, error) {
	ctx, span := s.startSpan(ctx, "Resend")
	defer span.End()

	in.Identifier = entity.NormalizeIdentifier(in.Identifier)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	sub, err := newSubject(in.Identifier, in.Type)
	if err != nil {
		return nil, err
	}

	masked := entity.MaskIdentifier(sub.identifier)

	rec, err := s.repoStore.GetRecord(ctx, sub.purpose, sub.identifier)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewBusiness("No OTP request found, please request a new OTP", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get otp record", "identifier", masked, "error", err)
		return nil, goerror.NewServer(err)
	}

	if rec.Verified {
		return nil, goerror.NewBusiness("OTP already used", goerror.CodeBadRequest)
	}

	remaining, err := s.repoStore.CooldownRemaining(ctx, sub.identifier)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get resend cooldown", "identifier", masked, "error", err)
		return nil, goerror.NewServer(err)
	}
	if remaining > 0 {
		return nil, goerror.NewTooManyRequest("Please wait before requesting a new OTP", remaining, map[string]any{
			"cooldownRemaining": ceilSeconds(remaining),
		})
	}

	method, ok := entity.ParseMethod(in.Method)
	if !ok {
		return nil, goerror.NewInvalidInput(nil, "method", "Method is not supported")
	}
	if in.Method == "" {
		method = methodFor(rec.Channel)
	}

	if err := s.checkIssueLimit(ctx, sub); err != nil {
		return nil, err
	}

	user, err := s.lookupUser(ctx, sub)
	if err != nil {
		return nil, err
	}

	return s.issue(ctx, sub, method, user)
}

func methodFor(ch entity.Channel) entity.Method {
	switch ch {
	case entity.ChannelEmail:
		return entity.MethodEmail
	case entity.ChannelSMS:
		return entity.MethodSMS
	case entity.ChannelBoth:
		return entity.MethodBoth
	default:
		return entity.MethodAuto
	}
}
