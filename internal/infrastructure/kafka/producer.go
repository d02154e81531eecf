package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/example/ec-shop-api/internal/events"
)

// Producer publishes event envelopes to a single topic. Messages are keyed
// by aggregate id so events for one order stay on one partition.
type Producer struct {
	writer *kafka.Writer
	logger *zap.Logger
}

func NewProducer(brokers []string, topic string, logger *zap.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Producer{writer: writer, logger: logger.Named("kafka")}
}

func (p *Producer) Publish(ctx context.Context, e *events.Envelope) error {
	msg, err := encode(e)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}

	p.logger.Debug("event published",
		zap.String("type", e.Type),
		zap.String("aggregate_id", e.AggregateID),
		zap.String("event_id", e.ID),
	)
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

func encode(e *events.Envelope) (kafka.Message, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal %s: %w", e.Type, err)
	}
	return kafka.Message{
		Key:   []byte(e.AggregateID),
		Value: data,
		Time:  e.Timestamp,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(e.Type)},
		},
	}, nil
}

var _ events.Publisher = (*Producer)(nil)
