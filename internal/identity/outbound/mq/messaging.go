package mq

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/shandysiswandi/otpkeeper/internal/identity/usecase"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/clock"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/instrument"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/messaging"
	"github.com/shandysiswandi/otpkeeper/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

type Messaging struct {
	client messaging.Publisher
	clock  clock.Clocker
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, clk clock.Clocker, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, clock: clk, ins: ins}
}

func (m *Messaging) PublishUserRegistered(ctx context.Context, msg usecase.UserRegisteredEvent) error {
	return m.publish(ctx, "PublishUserRegistered", event.UserRegisteredDestination, msg.UserID, event.UserRegisteredMessage{
		UserID:     msg.UserID,
		Email:      msg.Email,
		Name:       msg.Name,
		OccurredAt: m.clock.Now(),
	})
}

func (m *Messaging) PublishTokenIssued(ctx context.Context, msg usecase.TokenIssuedEvent) error {
	return m.publish(ctx, "PublishTokenIssued", event.TokenIssuedDestination, msg.UserID, event.TokenIssuedMessage{
		UserID:     msg.UserID,
		TokenID:    msg.TokenID,
		ExpiresAt:  msg.ExpiresAt,
		OccurredAt: m.clock.Now(),
	})
}

func (m *Messaging) PublishTokenRevoked(ctx context.Context, msg usecase.TokenRevokedEvent) error {
	return m.publish(ctx, "PublishTokenRevoked", event.TokenRevokedDestination, msg.UserID, event.TokenRevokedMessage{
		UserID:     msg.UserID,
		OccurredAt: m.clock.Now(),
	})
}

// publish keys every message by user so brokers that partition keep one user's events in order.
func (m *Messaging) publish(ctx context.Context, op, destination string, userID int64, payload any) error {
	ctx, span := m.ins.Tracer("identity.outbound.mq").Start(ctx, op)
	defer span.End()

	body, err := json.Marshal(payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if _, err := m.client.Publish(ctx, destination, messaging.OutgoingMessage{
		Body:    body,
		Key:     []byte(strconv.FormatInt(userID, 10)),
		Headers: map[string]string{event.HeaderCorrelationID: instrument.GetCorrelationID(ctx)},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
