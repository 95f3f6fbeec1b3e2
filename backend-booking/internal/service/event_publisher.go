package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/JideOgun/Pro-Dj-sub004/backend-booking/internal/domain"
	"github.com/JideOgun/Pro-Dj-sub004/pkg/kafka"
	"github.com/JideOgun/Pro-Dj-sub004/pkg/telemetry"
	"github.com/google/uuid"
)

// EventPublisher defines the interface for publishing booking events
type EventPublisher interface {
	// PublishOutbox relays an outbox message as-is
	PublishOutbox(ctx context.Context, msg *domain.OutboxMessage) error

	// PublishRecoveryRequested publishes a booking.recovery_requested event
	PublishRecoveryRequested(ctx context.Context, event *domain.RecoveryRequestedEvent) error

	// Close closes the event publisher
	Close() error
}

// KafkaEventPublisher implements EventPublisher using Kafka
type KafkaEventPublisher struct {
	producer    *kafka.Producer
	topic       string
	serviceName string
}

// EventPublisherConfig contains configuration for the event publisher
type EventPublisherConfig struct {
	Brokers     []string
	Topic       string
	ServiceName string
	ClientID    string
}

// NewKafkaEventPublisher creates a new Kafka event publisher
func NewKafkaEventPublisher(ctx context.Context, cfg *EventPublisherConfig) (*KafkaEventPublisher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("event publisher config is required")
	}

	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}

	topic := cfg.Topic
	if topic == "" {
		topic = "booking-events"
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "prodj-booking"
	}

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = serviceName + "-producer"
	}

	producer, err := kafka.NewProducer(ctx, &kafka.ProducerConfig{
		Brokers:       cfg.Brokers,
		ClientID:      clientID,
		MaxRetries:    3,
		RetryInterval: 2 * time.Second,
		BatchSize:     100,
		LingerMs:      10,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return &KafkaEventPublisher{
		producer:    producer,
		topic:       topic,
		serviceName: serviceName,
	}, nil
}

// PublishOutbox relays an outbox message to its topic
func (p *KafkaEventPublisher) PublishOutbox(ctx context.Context, msg *domain.OutboxMessage) error {
	topic := msg.Topic
	if topic == "" {
		topic = p.topic
	}
	return p.produce(ctx, topic, msg.PartitionKey, msg.EventType, msg.ID, msg.Payload)
}

// PublishRecoveryRequested publishes a recovery request for a cancelled booking
func (p *KafkaEventPublisher) PublishRecoveryRequested(ctx context.Context, event *domain.RecoveryRequestedEvent) error {
	if event.EventID == "" {
		event.EventID = uuid.New().String()
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return p.produce(ctx, p.topic, event.BookingID, string(event.EventType), event.EventID, value)
}

// Close closes the event publisher
func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		p.producer.Close()
	}
	return nil
}

func (p *KafkaEventPublisher) produce(ctx context.Context, topic, key, eventType, eventID string, value []byte) error {
	headers := map[string]string{
		"event_type":   eventType,
		"event_id":     eventID,
		"source":       p.serviceName,
		"content_type": "application/json",
	}
	telemetry.InjectHeaders(ctx, headers)

	msg := &kafka.Message{
		Topic:     topic,
		Key:       []byte(key),
		Value:     value,
		Headers:   headers,
		Timestamp: time.Now(),
	}

	if err := p.producer.Produce(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}
	return nil
}

// NoOpEventPublisher is used when Kafka is not configured
type NoOpEventPublisher struct{}

// NewNoOpEventPublisher creates a new no-op event publisher
func NewNoOpEventPublisher() *NoOpEventPublisher {
	return &NoOpEventPublisher{}
}

// PublishOutbox is a no-op
func (p *NoOpEventPublisher) PublishOutbox(ctx context.Context, msg *domain.OutboxMessage) error {
	return nil
}

// PublishRecoveryRequested is a no-op
func (p *NoOpEventPublisher) PublishRecoveryRequested(ctx context.Context, event *domain.RecoveryRequestedEvent) error {
	return nil
}

// Close is a no-op
func (p *NoOpEventPublisher) Close() error {
	return nil
}

var (
	_ EventPublisher = (*KafkaEventPublisher)(nil)
	_ EventPublisher = (*NoOpEventPublisher)(nil)
)
