package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// DefaultFailureBackoff is how long a consumer pauses after a failed event.
const DefaultFailureBackoff = time.Second

// Handler processes a single event. Handlers are synchronous and easy to test.
type Handler[T any] func(ctx context.Context, event *T) error

// Consumer subscribes to a topic and processes messages one at a time with a
// typed handler.
//
// Messages are never requeued: a message that cannot be decoded, or whose
// handler fails, is logged and acked. After a handler failure the consumer
// pauses for the failure backoff before taking the next message.
type Consumer[T any] struct {
	subscriber message.Subscriber
	topic      string
	handler    Handler[T]
	logger     *zap.Logger
	backoff    time.Duration
	cancel     context.CancelFunc
	done       chan struct{}
}

// ConsumerOption configures a Consumer.
type ConsumerOption func(*consumerOptions)

type consumerOptions struct {
	backoff time.Duration
}

// WithFailureBackoff overrides DefaultFailureBackoff.
func WithFailureBackoff(d time.Duration) ConsumerOption {
	return func(o *consumerOptions) {
		o.backoff = d
	}
}

// NewConsumer creates a new generic consumer for a specific event type.
func NewConsumer[T any](
	subscriber message.Subscriber,
	topic string,
	handler Handler[T],
	logger *zap.Logger,
	opts ...ConsumerOption,
) *Consumer[T] {
	o := consumerOptions{backoff: DefaultFailureBackoff}
	for _, opt := range opts {
		opt(&o)
	}

	return &Consumer[T]{
		subscriber: subscriber,
		topic:      topic,
		handler:    handler,
		logger:     logger,
		backoff:    o.backoff,
		done:       make(chan struct{}),
	}
}

// Topic returns the topic this consumer subscribes to.
func (c *Consumer[T]) Topic() string {
	return c.topic
}

// Start begins consuming messages from the topic.
func (c *Consumer[T]) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)

	msgs, err := c.subscriber.Subscribe(ctx, c.topic)
	if err != nil {
		c.cancel()
		c.cancel = nil

		return err
	}

	go c.consumeLoop(ctx, msgs)

	return nil
}

func (c *Consumer[T]) consumeLoop(ctx context.Context, msgs <-chan *message.Message) {
	defer close(c.done)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}

			if err := c.handleMessage(ctx, msg); err != nil {
				c.pause(ctx)
			}
		}
	}
}

func (c *Consumer[T]) handleMessage(ctx context.Context, msg *message.Message) (err error) {
	defer msg.Ack()

	var event T
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		c.logger.Error("dropping undecodable event",
			zap.String("topic", c.topic),
			zap.String("message_id", msg.UUID),
			zap.Error(err),
		)

		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
			c.logger.Error("event handler panicked",
				zap.String("topic", c.topic),
				zap.Any("panic", r),
			)
		}
	}()

	if err := c.handler(ctx, &event); err != nil {
		c.logger.Error("failed to handle event",
			zap.String("topic", c.topic),
			zap.String("message_id", msg.UUID),
			zap.Error(err),
		)

		return err
	}

	c.logger.Debug("processed event",
		zap.String("topic", c.topic),
	)

	return nil
}

func (c *Consumer[T]) pause(ctx context.Context) {
	if c.backoff <= 0 {
		return
	}

	timer := time.NewTimer(c.backoff)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// Shutdown stops the consumer and waits for the in-flight message to complete.
func (c *Consumer[T]) Shutdown() error {
	if c.cancel == nil {
		return nil
	}

	c.cancel()

	<-c.done

	return nil
}
