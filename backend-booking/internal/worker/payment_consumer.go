package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/JideOgun/Pro-Dj-sub004/backend-booking/internal/domain"
	"github.com/JideOgun/Pro-Dj-sub004/pkg/kafka"
	"github.com/JideOgun/Pro-Dj-sub004/pkg/logger"
	"go.uber.org/zap"
)

// PaymentMarker confirms a booking once its payment succeeded
type PaymentMarker interface {
	MarkPaid(ctx context.Context, actor domain.Actor, bookingID string) (*domain.Booking, error)
}

// MessageSource is a consumer group subscription; *kafka.Consumer implements it
type MessageSource interface {
	Run(ctx context.Context, handler kafka.HandlerFunc) error
	OnError(fn kafka.ErrorHandlerFunc)
	Close()
}

// PaymentEventConsumer marks bookings paid from payment.succeeded events
type PaymentEventConsumer struct {
	source MessageSource
	marker PaymentMarker
	log    *logger.Logger
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewPaymentEventConsumer creates a consumer over an already joined source
func NewPaymentEventConsumer(source MessageSource, marker PaymentMarker) *PaymentEventConsumer {
	c := &PaymentEventConsumer{
		source: source,
		marker: marker,
		log:    logger.Get(),
	}
	source.OnError(func(msg *kafka.Message, err error) {
		fields := []zap.Field{zap.Error(err)}
		if msg != nil {
			fields = append(fields,
				zap.String("topic", msg.Topic),
				zap.Int32("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
			)
		}
		c.log.Error("Payment event consumer error", fields...)
	})
	return c
}

// Start consumes in the background until Stop
func (c *PaymentEventConsumer) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)

	c.log.Info("Starting payment event consumer")
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.source.Run(ctx, c.HandleMessage); err != nil {
			c.log.Error("Payment event consumer stopped", zap.Error(err))
		}
	}()
}

// Stop cancels the poll loop and leaves the group
func (c *PaymentEventConsumer) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.source.Close()
	c.wg.Wait()
	c.log.Info("Payment event consumer stopped")
}

// HandleMessage applies one payment event. Only transient failures are
// returned; malformed, unknown and already settled events are committed.
func (c *PaymentEventConsumer) HandleMessage(ctx context.Context, msg *kafka.Message) error {
	var event domain.PaymentEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.log.Warn("Dropping malformed payment event",
			zap.Int64("offset", msg.Offset),
			zap.Error(err),
		)
		return nil
	}

	eventType := event.EventType
	if eventType == "" {
		eventType = msg.Header("event_type")
	}
	if eventType != domain.PaymentEventSucceeded {
		return nil
	}

	if event.BookingID == "" {
		c.log.Warn("Payment event without booking_id", zap.String("payment_id", event.PaymentID))
		return nil
	}

	booking, err := c.marker.MarkPaid(ctx, domain.SystemActor, event.BookingID)
	switch {
	case err == nil:
		c.log.Info("Booking paid via payment event",
			zap.String("booking_id", booking.ID),
			zap.String("payment_id", event.PaymentID),
		)
		return nil
	case domain.IsNotFoundError(err), domain.IsConflictError(err), domain.IsValidationError(err):
		c.log.Warn("Payment event not applied",
			zap.String("booking_id", event.BookingID),
			zap.String("payment_id", event.PaymentID),
			zap.Error(err),
		)
		return nil
	default:
		return fmt.Errorf("mark booking %s paid: %w", event.BookingID, err)
	}
}
