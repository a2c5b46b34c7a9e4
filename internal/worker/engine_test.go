package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/logistics/internal/config"
	"github.com/Additional-Code/logistics/internal/messaging"
)

// feedClient delivers a fixed batch of messages, then blocks until cancelled.
type feedClient struct {
	messaging.Client
	once     sync.Once
	messages []messaging.Message
}

func (f *feedClient) Consume(ctx context.Context, handler messaging.Handler) error {
	f.once.Do(func() {
		for _, msg := range f.messages {
			_ = handler(ctx, msg)
		}
	})
	<-ctx.Done()
	return ctx.Err()
}

func enabledConfig() config.Config {
	return config.Config{Messaging: config.Messaging{
		Enabled: true,
		Workers: config.Worker{Enabled: true, Concurrency: 1},
	}}
}

func message(eventType string) messaging.Message {
	return messaging.Message{Topic: "logistics.events", Headers: map[string]string{messaging.HeaderEventType: eventType}}
}

func TestDispatchRoutesByEventType(t *testing.T) {
	var got []string
	record := func(name string) messaging.Handler {
		return func(context.Context, messaging.Message) error {
			got = append(got, name)
			return nil
		}
	}
	engine := NewEngine(Params{
		Client: messaging.NewNoop("logistics.events"),
		Logger: zap.NewNop(),
		Registrations: []HandlerRegistration{
			{EventType: "a", Handler: record("a")},
			{EventType: "b", Handler: record("b")},
			{EventType: "", Handler: record("blank")},
			{EventType: "c"},
		},
	})

	ctx := context.Background()
	require.NoError(t, engine.Dispatch(ctx, message("b")))
	require.NoError(t, engine.Dispatch(ctx, message("a")))
	require.NoError(t, engine.Dispatch(ctx, message("c")))
	require.NoError(t, engine.Dispatch(ctx, messaging.Message{}))

	assert.Equal(t, []string{"b", "a"}, got)
}

func TestDispatchReturnsHandlerError(t *testing.T) {
	boom := errors.New("boom")
	engine := NewEngine(Params{
		Client: messaging.NewNoop("t"),
		Logger: zap.NewNop(),
		Registrations: []HandlerRegistration{{
			EventType: "a",
			Handler:   func(context.Context, messaging.Message) error { return boom },
		}},
	})

	assert.ErrorIs(t, engine.Dispatch(context.Background(), message("a")), boom)
}

func TestEngineConsumesUntilStopped(t *testing.T) {
	delivered := make(chan string, 2)
	client := &feedClient{
		Client:   messaging.NewNoop("logistics.events"),
		messages: []messaging.Message{message("a"), message("unknown"), message("a")},
	}
	engine := NewEngine(Params{
		Client: client,
		Logger: zap.NewNop(),
		Config: enabledConfig(),
		Registrations: []HandlerRegistration{{
			EventType: "a",
			Handler: func(_ context.Context, msg messaging.Message) error {
				delivered <- msg.Headers[messaging.HeaderEventType]
				return nil
			},
		}},
	})

	require.NoError(t, engine.Start(context.Background()))
	for i := 0; i < 2; i++ {
		select {
		case eventType := <-delivered:
			assert.Equal(t, "a", eventType)
		case <-time.After(5 * time.Second):
			t.Fatal("message not delivered")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, engine.Stop(ctx))
}

func TestEngineDisabledDoesNotConsume(t *testing.T) {
	engine := NewEngine(Params{
		Client:        &feedClient{Client: messaging.NewNoop("t")},
		Logger:        zap.NewNop(),
		Config:        config.Config{},
		Registrations: []HandlerRegistration{{EventType: "a", Handler: func(context.Context, messaging.Message) error { return nil }}},
	})

	require.NoError(t, engine.Start(context.Background()))
	assert.Nil(t, engine.cancel)
	assert.NoError(t, engine.Stop(context.Background()))
}
