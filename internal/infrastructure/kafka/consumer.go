package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/example/ec-shop-api/internal/events"
)

// EnvelopeHandler processes one decoded event.
type EnvelopeHandler func(ctx context.Context, e *events.Envelope) error

const (
	fetchRetryMin = 200 * time.Millisecond
	fetchRetryMax = 10 * time.Second
)

// messageReader is the part of *kafka.Reader the consumer uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	reader messageReader
	logger *zap.Logger
	wait   func(ctx context.Context, d time.Duration) error
}

func NewConsumer(brokers []string, topic, groupID string, logger *zap.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader, logger: logger.Named("kafka"), wait: sleep}
}

// Consume reads until ctx is cancelled. Offsets are committed after the
// handler runs, whether or not it succeeded; a poison message is logged
// and skipped rather than blocking the partition. Fetch failures are
// retried with exponential backoff.
func (c *Consumer) Consume(ctx context.Context, handler EnvelopeHandler) error {
	var backoff time.Duration
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			backoff = nextBackoff(backoff)
			c.logger.Error("fetch message", zap.Error(err), zap.Duration("retry_in", backoff))
			if err := c.wait(ctx, backoff); err != nil {
				return err
			}
			continue
		}
		backoff = 0

		log := c.logger.With(
			zap.Int("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
		)

		if e, err := decode(msg); err != nil {
			log.Warn("skipping undecodable message", zap.Error(err))
		} else if err := handler(ctx, e); err != nil {
			log.Error("handle event",
				zap.String("type", e.Type),
				zap.String("event_id", e.ID),
				zap.Error(err),
			)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error("commit offset", zap.Error(err))
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

func nextBackoff(d time.Duration) time.Duration {
	if d <= 0 {
		return fetchRetryMin
	}
	return min(d*2, fetchRetryMax)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func decode(msg kafka.Message) (*events.Envelope, error) {
	var e events.Envelope
	if err := json.Unmarshal(msg.Value, &e); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if e.Type == "" {
		return nil, errors.New("envelope has no type")
	}
	return &e, nil
}
