package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/edubite/internal/otp/entity"
	"github.com/shandysiswandi/edubite/internal/pkg/goerror"
)

type StatusInput struct {
	Identifier string `validate:"required,max=254,identifier"`
	Type       string `validate:"omitempty,oneof=verification login password_reset phone_verification"`
}

type StatusOutput struct {
	Status        string
	TimeRemaining int64
	AttemptsLeft  int
	IsVerified    bool
	CanResend     bool
}

// Status projects the record without changing it.
func (s *Usecase) Status(ctx context.Context, in StatusInput) (*StatusOutput, error) {
	ctx, span := s.startSpan(ctx, "Status")
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
		return &StatusOutput{Status: entity.StatusNotRequested.String()}, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get otp record", "identifier", masked, "error", err)
		return nil, goerror.NewServer(err)
	}

	st := s.settings()
	now := s.clock.Now()
	status := rec.Status(now, st.maxAttempts)

	out := &StatusOutput{
		Status:       status.String(),
		AttemptsLeft: max(st.maxAttempts-rec.Attempts, 0),
		IsVerified:   rec.Verified,
	}
	if status == entity.StatusActive {
		out.TimeRemaining = ceilSeconds(rec.ExpiresAt.Sub(now))
	}

	if status != entity.StatusVerified {
		remaining, err := s.repoStore.CooldownRemaining(ctx, sub.identifier)
		if err != nil {
			slog.WarnContext(ctx, "failed to repo get resend cooldown", "identifier", masked, "error", err)
		}
		out.CanResend = err == nil && remaining <= 0
	}

	return out, nil
}
