package inbound

import (
	"context"
	"log/slog"
	"slices"

	"github.com/shandysiswandi/otpkeeper/internal/activity/entity"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/config"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/instrument"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/messaging"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/uid"
	"github.com/shandysiswandi/otpkeeper/internal/shared/event"
)

// kinds maps every consumed destination to the activity it records.
var kinds = map[string]entity.Kind{
	event.UserRegisteredDestination: entity.KindUserRegistered,
	event.TokenIssuedDestination:    entity.KindTokenIssued,
	event.TokenRevokedDestination:   entity.KindTokenRevoked,
	event.ExportCreatedDestination:  entity.KindExportCreated,
}

// RegisterMQConsumer starts one consumer per destination. With
// modules.activity.consumer_names set only the listed destinations are consumed.
func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Consumer,
	uuid uid.StringID,
	uc uc,
	ins instrument.Instrumentation,
) {
	mqHandler := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	enabled := cfg.GetArray("modules.activity.consumer_names")

	for _, destination := range event.Destinations {
		if len(enabled) > 0 && !slices.Contains(enabled, destination) {
			continue
		}

		handler := mqHandler.Record(kinds[destination])
		routine.Go(ctx, func(pCtx context.Context) error {
			slog.InfoContext(ctx, "Running job for handling consumer", "consumer", destination)
			return messenger.Consume(pCtx,
				destination,
				handler,
				messaging.WithGroup(event.ActivityConsumerGroup),
				messaging.WithAutoAck(true),
				messaging.WithConcurrency(4),
				messaging.WithMaxInFlight(10),
			)
		})
	}
}
