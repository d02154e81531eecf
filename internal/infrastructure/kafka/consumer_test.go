package kafka

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/ec-shop-api/internal/events"
)

type fetchResult struct {
	msg kafka.Message
	err error
}

// scriptedReader replays results in order, then reports io.EOF.
type scriptedReader struct {
	results   []fetchResult
	committed []kafka.Message
}

func (r *scriptedReader) FetchMessage(context.Context) (kafka.Message, error) {
	if len(r.results) == 0 {
		return kafka.Message{}, io.EOF
	}
	next := r.results[0]
	r.results = r.results[1:]
	return next.msg, next.err
}

func (r *scriptedReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *scriptedReader) Close() error { return nil }

func TestConsume_BacksOffOnFetchErrors(t *testing.T) {
	env, err := events.New(events.TypeOrderPlaced, "order-1", events.OrderPlaced{OrderID: "order-1"})
	require.NoError(t, err)
	msg, err := encode(env)
	require.NoError(t, err)

	brokerDown := errors.New("dial tcp: connection refused")
	reader := &scriptedReader{results: []fetchResult{
		{err: brokerDown},
		{err: brokerDown},
		{err: brokerDown},
		{msg: msg},
		{err: brokerDown},
	}}

	var waits []time.Duration
	c := &Consumer{reader: reader, logger: zap.NewNop(), wait: func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}}

	var handled []string
	err = c.Consume(context.Background(), func(_ context.Context, e *events.Envelope) error {
		handled = append(handled, e.ID)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []time.Duration{200 * time.Millisecond, 400 * time.Millisecond, 800 * time.Millisecond, 200 * time.Millisecond}, waits)
	assert.Equal(t, []string{env.ID}, handled)
	assert.Len(t, reader.committed, 1)
}

func TestConsume_StopsWhileWaiting(t *testing.T) {
	reader := &scriptedReader{results: []fetchResult{{err: errors.New("broker unavailable")}}}
	c := &Consumer{reader: reader, logger: zap.NewNop(), wait: func(context.Context, time.Duration) error {
		return context.Canceled
	}}

	err := c.Consume(context.Background(), func(context.Context, *events.Envelope) error { return nil })

	assert.ErrorIs(t, err, context.Canceled)
}

func TestNextBackoff(t *testing.T) {
	assert.Equal(t, fetchRetryMin, nextBackoff(0))
	assert.Equal(t, 2*fetchRetryMin, nextBackoff(fetchRetryMin))
	assert.Equal(t, fetchRetryMax, nextBackoff(fetchRetryMax))
	assert.Equal(t, fetchRetryMax, nextBackoff(fetchRetryMax-time.Millisecond))
}

func TestSleep_ReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, sleep(ctx, time.Hour), context.Canceled)
	assert.NoError(t, sleep(context.Background(), time.Millisecond))
}
