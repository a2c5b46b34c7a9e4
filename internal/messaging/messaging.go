package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/logistics/internal/config"
	"github.com/Additional-Code/logistics/internal/logger"
)

// HeaderEventType names the header carrying the event type of a message.
const HeaderEventType = "event-type"

const fetchRetryDelay = time.Second

// Message represents a message consumed from the bus.
type Message struct {
	Topic   string
	Key     []byte
	Value   []byte
	Headers map[string]string
	Offset  int64
	Time    time.Time
}

// Handler processes an inbound message. A non-nil error leaves the message
// uncommitted.
type Handler func(context.Context, Message) error

// Client publishes to and consumes from the event topic.
type Client interface {
	Publish(ctx context.Context, key []byte, value []byte, headers map[string]string) error
	Consume(ctx context.Context, handler Handler) error
	Topic() string
}

// Module wires the messaging client.
var Module = fx.Provide(NewClient)

// NewClient builds the kafka client, or a noop client when messaging is disabled.
func NewClient(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (Client, error) {
	log = logger.Component(log, "messaging")
	if !cfg.Messaging.Enabled || cfg.Messaging.Driver == "noop" {
		log.Info("messaging disabled; using noop client")
		return NewNoop(cfg.Messaging.Kafka.Topic), nil
	}

	switch cfg.Messaging.Driver {
	case "kafka":
		client := newKafkaClient(cfg.Messaging, log)
		lc.Append(fx.Hook{OnStop: func(context.Context) error { return client.Close() }})
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported messaging driver: %s", cfg.Messaging.Driver)
	}
}

// NewNoop returns a client that drops published messages and blocks on Consume.
func NewNoop(topic string) Client {
	return noopClient{topic: topic}
}

type noopClient struct {
	topic string
}

func (n noopClient) Publish(context.Context, []byte, []byte, map[string]string) error { return nil }

func (n noopClient) Consume(ctx context.Context, _ Handler) error {
	<-ctx.Done()
	return ctx.Err()
}

func (n noopClient) Topic() string { return n.topic }

type kafkaClient struct {
	writer *kafka.Writer
	topic  string
	logger *zap.Logger

	// The reader joins the consumer group when built, so it only exists once
	// something consumes.
	readerConfig kafka.ReaderConfig
	readerOnce   sync.Once
	readerMu     sync.Mutex
	reader       *kafka.Reader
}

func newKafkaClient(cfg config.Messaging, log *zap.Logger) *kafkaClient {
	k := cfg.Kafka
	return &kafkaClient{
		// Topic lives on the writer only; kafka-go rejects messages that set it too.
		writer: &kafka.Writer{
			Addr:         kafka.TCP(k.Brokers...),
			Topic:        k.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Logger:       kafkaLogger{log},
			ErrorLogger:  kafkaLogger{log},
		},
		readerConfig: kafka.ReaderConfig{
			Brokers:        k.Brokers,
			GroupID:        cfg.ConsumerGroup,
			Topic:          k.Topic,
			MinBytes:       k.MinBytes,
			MaxBytes:       k.MaxBytes,
			CommitInterval: k.CommitInterval,
			Dialer: &kafka.Dialer{
				Timeout:  k.ConnectTimeout,
				ClientID: k.ClientID,
			},
		},
		topic:  k.Topic,
		logger: log,
	}
}

// Publish writes one message, carrying the caller's trace context in its headers.
func (k *kafkaClient) Publish(ctx context.Context, key []byte, value []byte, headers map[string]string) error {
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:     key,
		Value:   value,
		Headers: toKafkaHeaders(ctx, headers),
	})
}

// Consume fetches messages until ctx ends. Each handler runs under the trace
// context extracted from the message headers.
func (k *kafkaClient) Consume(ctx context.Context, handler Handler) error {
	reader := k.consumer()
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			k.logger.Error("kafka fetch failed", zap.Error(err))
			select {
			case <-time.After(fetchRetryDelay):
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		wrapped := fromKafkaMessage(msg)
		msgCtx := otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(wrapped.Headers))
		if err := handler(msgCtx, wrapped); err != nil {
			k.logger.Error("message handler failed", zap.Int64("offset", msg.Offset), zap.Error(err))
			continue
		}
		if err := reader.CommitMessages(ctx, msg); err != nil {
			k.logger.Warn("commit failed", zap.Int64("offset", msg.Offset), zap.Error(err))
		}
	}
}

func (k *kafkaClient) consumer() *kafka.Reader {
	k.readerOnce.Do(func() {
		k.logger.Info("joining consumer group", zap.String("group", k.readerConfig.GroupID))
		k.readerMu.Lock()
		k.reader = kafka.NewReader(k.readerConfig)
		k.readerMu.Unlock()
	})
	return k.reader
}

// joined reports whether the client has joined the consumer group.
func (k *kafkaClient) joined() bool {
	k.readerMu.Lock()
	defer k.readerMu.Unlock()
	return k.reader != nil
}

func (k *kafkaClient) Topic() string { return k.topic }

// Close flushes the writer and, if consuming started, leaves the consumer group.
func (k *kafkaClient) Close() error {
	k.logger.Info("closing kafka client")
	err := k.writer.Close()
	k.readerMu.Lock()
	defer k.readerMu.Unlock()
	if k.reader != nil {
		err = errors.Join(err, k.reader.Close())
	}
	return err
}

func toKafkaHeaders(ctx context.Context, headers map[string]string) []kafka.Header {
	carrier := propagation.MapCarrier{}
	for name, v := range headers {
		carrier[name] = v
	}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	out := make([]kafka.Header, 0, len(carrier))
	for name, v := range carrier {
		out = append(out, kafka.Header{Key: name, Value: []byte(v)})
	}
	return out
}

func fromKafkaMessage(msg kafka.Message) Message {
	var headers map[string]string
	if len(msg.Headers) > 0 {
		headers = make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
	}
	return Message{
		Topic:   msg.Topic,
		Key:     append([]byte(nil), msg.Key...),
		Value:   append([]byte(nil), msg.Value...),
		Headers: headers,
		Offset:  msg.Offset,
		Time:    msg.Time,
	}
}

type kafkaLogger struct {
	logger *zap.Logger
}

func (k kafkaLogger) Printf(msg string, args ...any) {
	k.logger.Sugar().Debugf(msg, args...)
}
