package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

func TestMessage_RecordRoundTrip(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	msg := &Message{
		Topic:     "booking-events",
		Key:       []byte("b-1"),
		Value:     []byte(`{"x":1}`),
		Headers:   map[string]string{"event_type": "booking.expired"},
		Timestamp: ts,
	}

	rec := msg.toRecord()
	assert.Equal(t, "booking-events", rec.Topic)
	assert.Equal(t, []byte("b-1"), rec.Key)
	require.Len(t, rec.Headers, 1)
	assert.Equal(t, kgo.RecordHeader{Key: "event_type", Value: []byte("booking.expired")}, rec.Headers[0])

	rec.Partition = 2
	rec.Offset = 42
	back := messageFromRecord(rec)
	assert.Equal(t, "booking.expired", back.Header("event_type"))
	assert.Equal(t, "", back.Header("missing"))
	assert.Equal(t, int32(2), back.Partition)
	assert.Equal(t, int64(42), back.Offset)
	assert.Equal(t, ts, back.Timestamp)
}

func TestMessage_HeaderOnNilMap(t *testing.T) {
	assert.Equal(t, "", (&Message{}).Header("k"))
}

func TestNewProducer_RequiresBrokers(t *testing.T) {
	_, err := NewProducer(context.Background(), &ProducerConfig{})
	assert.Error(t, err)
}

func TestNewConsumer_Validation(t *testing.T) {
	ctx := context.Background()

	_, err := NewConsumer(ctx, &ConsumerConfig{GroupID: "g", Topics: []string{"t"}})
	assert.Error(t, err)

	_, err = NewConsumer(ctx, &ConsumerConfig{Brokers: []string{"localhost:9092"}, Topics: []string{"t"}})
	assert.Error(t, err)

	_, err = NewConsumer(ctx, &ConsumerConfig{Brokers: []string{"localhost:9092"}, GroupID: "g"})
	assert.Error(t, err)
}

func TestProducer_ProduceAfterClose(t *testing.T) {
	p := &Producer{closed: true}
	err := p.Produce(context.Background(), &Message{Topic: "t"})
	assert.ErrorIs(t, err, ErrProducerClosed)
}
