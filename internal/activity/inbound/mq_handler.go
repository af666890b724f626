package inbound

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/shandysiswandi/otpkeeper/internal/activity/entity"
	"github.com/shandysiswandi/otpkeeper/internal/activity/usecase"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/instrument"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/messaging"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/uid"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/valueobject"
	"github.com/shandysiswandi/otpkeeper/internal/shared/event"
)

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

// envelope holds the fields every security event carries.
type envelope struct {
	UserID     int64     `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, msg messaging.Message) context.Context {
	if cID := msg.Header(event.HeaderCorrelationID); cID != "" {
		return instrument.SetCorrelationID(ctx, cID)
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

// Record returns the handler storing events of kind. Undecodable bodies are
// acked and dropped; only storage failures ask the broker to redeliver.
func (h *MQHandler) Record(kind entity.Kind) messaging.Handler {
	return func(ctx context.Context, msg messaging.Message) error {
		ctx = h.ensureCorrelationID(ctx, msg)

		ctx, span := h.ins.Tracer("activity.inbound.mq").Start(ctx, "Record")
		defer span.End()

		body := msg.Body()
		slog.DebugContext(ctx, "consume: security event", "kind", kind, "topic", msg.Topic())

		var env envelope
		if err := json.Unmarshal(body, &env); err != nil {
			slog.ErrorContext(ctx, "failed to parse message body of security event", "kind", kind, "error", err)
			return nil
		}

		data := valueobject.JSONMap{}
		if err := json.Unmarshal(body, &data); err != nil {
			slog.ErrorContext(ctx, "failed to parse message body of security event", "kind", kind, "error", err)
			return nil
		}
		delete(data, "user_id")
		delete(data, "occurred_at")

		if err := h.uc.Record(ctx, usecase.RecordInput{
			UserID:     env.UserID,
			Kind:       kind,
			Data:       data,
			OccurredAt: env.OccurredAt,
		}); err != nil {
			slog.ErrorContext(ctx, "failed to consume security event", "kind", kind, "error", err)
			return err
		}

		return nil
	}
}
