package mq

import (
	"context"
	"encoding/json"

	"github.com/shandysiswandi/edubite/internal/otp/usecase"
	"github.com/shandysiswandi/edubite/internal/pkg/instrument"
	"github.com/shandysiswandi/edubite/internal/pkg/messaging"
	"github.com/shandysiswandi/edubite/internal/shared/event"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishOTPEvent(ctx context.Context, msg usecase.OTPEvent) error {
	ctx, span := m.ins.Tracer("otp.outbound.mq").Start(ctx, "PublishOTPEvent")
	defer span.End()

	span.SetAttributes(attribute.String("event.type", msg.Type))

	body, err := json.Marshal(event.OTPMessage{
		ID:         msg.ID,
		Type:       msg.Type,
		Identifier: msg.MaskedIdentifier,
		Purpose:    msg.Purpose.String(),
		Channel:    msg.Channel.String(),
		Fallback:   msg.Fallback,
		UserID:     msg.UserID,
		Timestamp:  msg.Timestamp,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, event.OTPEventsDestination, messaging.OutgoingMessage{
		Body:    body,
		Key:     []byte(msg.SubjectKey),
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
