package usecase

import (
	"context"

	"github.com/shandysiswandi/edubite/internal/otp/entity"
	"github.com/shandysiswandi/edubite/internal/pkg/goerror"
)

type SendInput struct {
	Identifier string `validate:"required,max=254,identifier"`
	Type       string `validate:"omitempty,oneof=verification login password_reset phone_verification"`
	Method     string `validate:"omitempty,oneof=auto email sms both"`
}

func (s *Usecase) Send(ctx context.Context, in SendInput) (*SendOutput, error) {
	ctx, span := s.startSpan(ctx, "Send")
	defer span.End()

	in.Identifier = entity.NormalizeIdentifier(in.Identifier)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	sub, err := newSubject(in.Identifier, in.Type)
	if err != nil {
		return nil, err
	}

	method, ok := entity.ParseMethod(in.Method)
	if !ok {
		return nil, goerror.NewInvalidInput(nil, "method", "Method is not supported")
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
