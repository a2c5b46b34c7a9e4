package logistics

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/logistics/internal/logger"
	"github.com/Additional-Code/logistics/internal/messaging"
	service "github.com/Additional-Code/logistics/internal/service/logistics"
	"github.com/Additional-Code/logistics/internal/worker"
)

var workerTracer = otel.Tracer("github.com/Additional-Code/logistics/worker/logistics")

// Module registers the created-event handlers.
var Module = fx.Module("worker_logistics",
	fx.Provide(
		fx.Annotate(
			NewCreatedHandlers,
			fx.ResultTags(`group:"worker.handlers,flatten"`),
		),
	),
)

// NewCreatedHandlers returns one audit handler per created-event type.
func NewCreatedHandlers(log *zap.Logger) []worker.HandlerRegistration {
	log = logger.Component(log, "worker.logistics")
	types := []string{service.EventSupplierCreated, service.EventItemCreated, service.EventShipmentCreated}

	regs := make([]worker.HandlerRegistration, 0, len(types))
	for _, eventType := range types {
		regs = append(regs, worker.HandlerRegistration{
			EventType: eventType,
			Handler:   auditCreated(log, eventType),
		})
	}
	return regs
}

func auditCreated(log *zap.Logger, eventType string) messaging.Handler {
	return func(ctx context.Context, msg messaging.Message) error {
		_, span := workerTracer.Start(ctx, "worker.logistics.created", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
			attribute.String("event.type", eventType),
		))
		defer span.End()

		var event service.CreatedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("failed to decode created event", zap.String("type", eventType), zap.Error(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return fmt.Errorf("decode %s: %w", eventType, err)
		}
		if event.Type != "" && event.Type != eventType {
			log.Warn("event type mismatch", zap.String("header", eventType), zap.String("payload", event.Type))
		}

		span.SetAttributes(attribute.Int64("entity.id", event.ID))
		log.Info("entity created",
			zap.String("type", eventType),
			zap.Int64("id", event.ID),
			zap.String("name", event.Name),
			zap.Time("created_at", event.CreatedAt),
		)
		return nil
	}
}
