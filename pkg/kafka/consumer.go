package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// HandlerFunc processes one consumed message. A returned error leaves the
// record uncommitted for this poll; the consumer decides whether to skip it.
type HandlerFunc func(ctx context.Context, msg *Message) error

// ErrorHandlerFunc is called for fetch errors and handler failures
type ErrorHandlerFunc func(msg *Message, err error)

// ConsumerConfig holds consumer group configuration
type ConsumerConfig struct {
	Brokers          []string
	GroupID          string
	Topics           []string
	ClientID         string
	SessionTimeout   time.Duration
	RebalanceTimeout time.Duration
}

// DefaultConsumerConfig returns default consumer configuration
func DefaultConsumerConfig() *ConsumerConfig {
	return &ConsumerConfig{
		Brokers:          []string{"localhost:9092"},
		GroupID:          "prodj-booking",
		ClientID:         "prodj-booking-consumer",
		SessionTimeout:   30 * time.Second,
		RebalanceTimeout: 60 * time.Second,
	}
}

// Consumer is a consumer group member with manual commits
type Consumer struct {
	client  *kgo.Client
	config  *ConsumerConfig
	onError ErrorHandlerFunc
}

// NewConsumer joins the group and pings the brokers
func NewConsumer(ctx context.Context, cfg *ConsumerConfig) (*Consumer, error) {
	if cfg == nil {
		cfg = DefaultConsumerConfig()
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	if cfg.GroupID == "" {
		return nil, fmt.Errorf("kafka consumer group is required")
	}
	if len(cfg.Topics) == 0 {
		return nil, fmt.Errorf("kafka topics are required")
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.GroupID),
		kgo.ConsumeTopics(cfg.Topics...),
		kgo.ClientID(cfg.ClientID),
		kgo.DisableAutoCommit(),
	}
	if cfg.SessionTimeout > 0 {
		opts = append(opts, kgo.SessionTimeout(cfg.SessionTimeout))
	}
	if cfg.RebalanceTimeout > 0 {
		opts = append(opts, kgo.RebalanceTimeout(cfg.RebalanceTimeout))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}

	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping kafka: %w", err)
	}

	return &Consumer{client: client, config: cfg}, nil
}

// OnError registers a callback for fetch and handler errors
func (c *Consumer) OnError(fn ErrorHandlerFunc) {
	c.onError = fn
}

// Run polls until ctx is done or the client is closed. Records whose
// handler returns nil are committed after each poll.
func (c *Consumer) Run(ctx context.Context, handler HandlerFunc) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}

		for _, fe := range fetches.Errors() {
			if errors.Is(fe.Err, context.Canceled) || errors.Is(fe.Err, context.DeadlineExceeded) {
				return nil
			}
			c.reportError(&Message{Topic: fe.Topic, Partition: fe.Partition},
				fmt.Errorf("fetch error: %w", fe.Err))
		}

		var done []*kgo.Record
		fetches.EachRecord(func(r *kgo.Record) {
			msg := messageFromRecord(r)
			if err := handler(ctx, msg); err != nil {
				c.reportError(msg, err)
				return
			}
			done = append(done, r)
		})

		if len(done) > 0 {
			if err := c.client.CommitRecords(ctx, done...); err != nil {
				c.reportError(nil, fmt.Errorf("commit failed: %w", err))
			}
		}
	}
}

func (c *Consumer) reportError(msg *Message, err error) {
	if c.onError != nil {
		c.onError(msg, err)
	}
}

// Close leaves the group and closes the client
func (c *Consumer) Close() {
	if c.client != nil {
		c.client.Close()
	}
}
