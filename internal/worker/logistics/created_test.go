package logistics

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Additional-Code/logistics/internal/messaging"
	service "github.com/Additional-Code/logistics/internal/service/logistics"
	"github.com/Additional-Code/logistics/internal/worker"
)

func TestCreatedHandlersAuditEachEventType(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	regs := NewCreatedHandlers(zap.New(core))
	require.Len(t, regs, 3)

	engine := worker.NewEngine(worker.Params{
		Client:        messaging.NewNoop("logistics.events"),
		Logger:        zap.NewNop(),
		Registrations: regs,
	})

	created := time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC)
	payload, err := json.Marshal(service.CreatedEvent{Type: service.EventItemCreated, ID: 7, Name: "Pallet", CreatedAt: created})
	require.NoError(t, err)

	require.NoError(t, engine.Dispatch(context.Background(), messaging.Message{
		Topic:   "logistics.events",
		Value:   payload,
		Headers: map[string]string{messaging.HeaderEventType: service.EventItemCreated},
	}))

	entries := logs.FilterMessage("entity created").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, service.EventItemCreated, fields["type"])
	assert.Equal(t, int64(7), fields["id"])
	assert.Equal(t, "Pallet", fields["name"])
}

func TestCreatedHandlerRejectsMalformedPayload(t *testing.T) {
	regs := NewCreatedHandlers(zap.NewNop())

	for _, reg := range regs {
		err := reg.Handler(context.Background(), messaging.Message{Value: []byte("{")})
		assert.ErrorContains(t, err, reg.EventType)
	}
}
