package logistics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Additional-Code/logistics/internal/messaging"
)

// Event types published after a successful create.
const (
	EventSupplierCreated = "logistics.supplier.created"
	EventItemCreated     = "logistics.item.created"
	EventShipmentCreated = "logistics.shipment.created"
)

// CreatedEvent is emitted when a supplier, item or shipment is persisted.
type CreatedEvent struct {
	Type      string    `json:"type"`
	ID        int64     `json:"id"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Service) publishCreated(ctx context.Context, eventType string, id int64, name string) {
	if !s.messaging.enabled || s.publisher == nil {
		return
	}
	event := CreatedEvent{
		Type:      eventType,
		ID:        id,
		Name:      name,
		CreatedAt: s.now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal created event", zap.String("type", eventType), zap.Error(err))
		return
	}
	key := []byte(fmt.Sprintf("%s-%d", eventType, id))
	headers := map[string]string{messaging.HeaderEventType: eventType}
	if err := s.publisher.Publish(ctx, key, payload, headers); err != nil {
		s.logger.Error("publish created event", zap.String("type", eventType), zap.Int64("id", id), zap.Error(err))
	}
}
