package events

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/spec-kit/booking-service/internal/config"
)

// KafkaBridge forwards domain events to a Kafka topic for external
// consumers. Delivery is best effort: write failures are logged, never
// surfaced to the operation that produced the event.
type KafkaBridge struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewKafkaBridge builds the bridge, or nil when Kafka is not configured.
func NewKafkaBridge(cfg config.KafkaConfig, logger *zap.Logger) *KafkaBridge {
	if !cfg.Enabled() {
		return nil
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
	}
	return &KafkaBridge{writer: writer, logger: logger}
}

// Register subscribes the bridge to the full event stream.
func (b *KafkaBridge) Register(dispatcher Dispatcher) {
	if b == nil {
		return
	}
	for _, eventType := range AllTypes() {
		dispatcher.Subscribe(eventType, b.publish)
	}
}

func (b *KafkaBridge) publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(event.AppointmentID),
		Value: payload,
	}
	if err := b.writer.WriteMessages(ctx, msg); err != nil {
		b.logger.Warn("kafka publish failed",
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
	}
	return nil
}

// Close flushes and releases the writer.
func (b *KafkaBridge) Close() {
	if b != nil && b.writer != nil {
		_ = b.writer.Close()
	}
}
