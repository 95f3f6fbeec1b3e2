package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/JideOgun/Pro-Dj-sub004/backend-booking/internal/domain"
	"github.com/JideOgun/Pro-Dj-sub004/pkg/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockMarker struct {
	calls      []string
	actors     []domain.Actor
	MarkPaidFn func(ctx context.Context, actor domain.Actor, bookingID string) (*domain.Booking, error)
}

func (m *mockMarker) MarkPaid(ctx context.Context, actor domain.Actor, bookingID string) (*domain.Booking, error) {
	m.calls = append(m.calls, bookingID)
	m.actors = append(m.actors, actor)
	if m.MarkPaidFn != nil {
		return m.MarkPaidFn(ctx, actor, bookingID)
	}
	return &domain.Booking{ID: bookingID, Status: domain.BookingStatusConfirmed, IsPaid: true}, nil
}

// chanSource feeds queued messages to the handler until ctx is cancelled
type chanSource struct {
	messages []*kafka.Message
	results  chan error
	onError  kafka.ErrorHandlerFunc
	closed   bool
}

func (s *chanSource) Run(ctx context.Context, handler kafka.HandlerFunc) error {
	for _, msg := range s.messages {
		s.results <- handler(ctx, msg)
	}
	<-ctx.Done()
	return nil
}

func (s *chanSource) OnError(fn kafka.ErrorHandlerFunc) { s.onError = fn }
func (s *chanSource) Close()                            { s.closed = true }

func paymentMessage(t *testing.T, event domain.PaymentEvent) *kafka.Message {
	t.Helper()
	b, err := json.Marshal(event)
	require.NoError(t, err)
	return &kafka.Message{Topic: "payment-events", Value: b}
}

func TestPaymentEventConsumer_HandleMessage(t *testing.T) {
	tests := []struct {
		name      string
		msg       func(t *testing.T) *kafka.Message
		markErr   error
		wantCalls int
		wantErr   bool
	}{
		{
			name: "payment succeeded marks paid",
			msg: func(t *testing.T) *kafka.Message {
				return paymentMessage(t, domain.PaymentEvent{EventType: domain.PaymentEventSucceeded, BookingID: "b-1", PaymentID: "pay-1"})
			},
			wantCalls: 1,
		},
		{
			name: "event type from header",
			msg: func(t *testing.T) *kafka.Message {
				m := paymentMessage(t, domain.PaymentEvent{BookingID: "b-1"})
				m.Headers = map[string]string{"event_type": domain.PaymentEventSucceeded}
				return m
			},
			wantCalls: 1,
		},
		{
			name: "other event types ignored",
			msg: func(t *testing.T) *kafka.Message {
				return paymentMessage(t, domain.PaymentEvent{EventType: "payment.failed", BookingID: "b-1"})
			},
		},
		{
			name: "malformed payload committed",
			msg: func(t *testing.T) *kafka.Message {
				return &kafka.Message{Value: []byte("{oops")}
			},
		},
		{
			name: "missing booking id committed",
			msg: func(t *testing.T) *kafka.Message {
				return paymentMessage(t, domain.PaymentEvent{EventType: domain.PaymentEventSucceeded})
			},
		},
		{
			name: "unknown booking committed",
			msg: func(t *testing.T) *kafka.Message {
				return paymentMessage(t, domain.PaymentEvent{EventType: domain.PaymentEventSucceeded, BookingID: "b-404"})
			},
			markErr:   domain.ErrBookingNotFound,
			wantCalls: 1,
		},
		{
			name: "not payable committed",
			msg: func(t *testing.T) *kafka.Message {
				return paymentMessage(t, domain.PaymentEvent{EventType: domain.PaymentEventSucceeded, BookingID: "b-2"})
			},
			markErr:   domain.ErrNotPayable,
			wantCalls: 1,
		},
		{
			name: "transient failure returned",
			msg: func(t *testing.T) *kafka.Message {
				return paymentMessage(t, domain.PaymentEvent{EventType: domain.PaymentEventSucceeded, BookingID: "b-3"})
			},
			markErr:   errors.New("connection reset"),
			wantCalls: 1,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			marker := &mockMarker{}
			if tt.markErr != nil {
				marker.MarkPaidFn = func(ctx context.Context, actor domain.Actor, bookingID string) (*domain.Booking, error) {
					return nil, tt.markErr
				}
			}
			c := NewPaymentEventConsumer(&chanSource{}, marker)

			err := c.HandleMessage(context.Background(), tt.msg(t))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Len(t, marker.calls, tt.wantCalls)
			for _, a := range marker.actors {
				assert.True(t, a.IsSystem())
			}
		})
	}
}

func TestPaymentEventConsumer_StartStop(t *testing.T) {
	source := &chanSource{
		messages: []*kafka.Message{
			paymentMessage(t, domain.PaymentEvent{EventType: domain.PaymentEventSucceeded, BookingID: "b-1"}),
		},
		results: make(chan error, 1),
	}
	marker := &mockMarker{}
	c := NewPaymentEventConsumer(source, marker)
	require.NotNil(t, source.onError)

	c.Start(context.Background())

	select {
	case err := <-source.results:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("message was not handled")
	}

	c.Stop()
	assert.True(t, source.closed)
	assert.Equal(t, []string{"b-1"}, marker.calls)
}
