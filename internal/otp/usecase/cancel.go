package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/edubite/internal/otp/entity"
	"github.com/shandysiswandi/edubite/internal/pkg/goerror"
	"github.com/shandysiswandi/edubite/internal/shared/event"
)

type CancelInput struct {
	Identifier string `validate:"required,max=254,identifier"`
	Type       string `validate:"omitempty,oneof=verification login password_reset phone_verification"`
}

func (s *Usecase) Cancel(ctx context.Context, in CancelInput) error {
	ctx, span := s.startSpan(ctx, "Cancel")
	defer span.End()

	in.Identifier = entity.NormalizeIdentifier(in.Identifier)

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	sub, err := newSubject(in.Identifier, in.Type)
	if err != nil {
		return err
	}

	masked := entity.MaskIdentifier(sub.identifier)

	deleted, err := s.repoStore.DeleteRecord(ctx, sub.purpose, sub.identifier)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo delete otp record", "identifier", masked, "error", err)
		return goerror.NewServer(err)
	}
	if !deleted {
		return goerror.NewBusiness("No active OTP found", goerror.CodeNotFound)
	}

	s.publish(ctx, OTPEvent{
		Type:             event.OTPCancelled,
		MaskedIdentifier: masked,
		SubjectKey:       s.subjectKey(sub.purpose, sub.identifier),
		Purpose:          sub.purpose,
	})

	return nil
}
