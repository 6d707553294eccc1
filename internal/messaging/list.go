package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ListPublisher publishes messages by appending their payload to the Redis
// list named after the topic (RPUSH). Metadata is not carried.
type ListPublisher struct {
	client redis.UniversalClient
}

// NewListPublisher creates a new Redis list publisher.
func NewListPublisher(client redis.UniversalClient) *ListPublisher {
	return &ListPublisher{client: client}
}

func (p *ListPublisher) Publish(topic string, msgs ...*message.Message) error {
	for _, msg := range msgs {
		if err := p.client.RPush(msg.Context(), topic, msg.Payload).Err(); err != nil {
			return fmt.Errorf("rpush %s: %w", topic, err)
		}
	}

	return nil
}

// Close is a no-op; the Redis client is managed externally.
func (p *ListPublisher) Close() error {
	return nil
}

// ListSubscriber pops messages from the head of a Redis list with BLPOP.
//
// A popped element is gone from the list, so there is no redelivery: Ack and
// Nack only release the subscriber to pop the next element. Each subscription
// delivers one message at a time.
type ListSubscriber struct {
	client       redis.UniversalClient
	blockTimeout time.Duration
	retryDelay   time.Duration
	logger       *zap.Logger

	closing   chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewListSubscriber creates a new Redis list subscriber. blockTimeout bounds
// each BLPOP call so that Close is observed promptly.
func NewListSubscriber(client redis.UniversalClient, blockTimeout time.Duration, logger *zap.Logger) *ListSubscriber {
	return &ListSubscriber{
		client:       client,
		blockTimeout: blockTimeout,
		retryDelay:   time.Second,
		logger:       logger,
		closing:      make(chan struct{}),
	}
}

func (s *ListSubscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	select {
	case <-s.closing:
		return nil, errors.New("subscriber closed")
	default:
	}

	out := make(chan *message.Message)

	s.wg.Add(1)

	go s.receive(ctx, topic, out)

	return out, nil
}

func (s *ListSubscriber) receive(ctx context.Context, topic string, out chan<- *message.Message) {
	defer s.wg.Done()
	defer close(out)

	for {
		if s.stopped(ctx) {
			return
		}

		result, err := s.client.BLPop(ctx, s.blockTimeout, topic).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}

		if err != nil {
			if s.stopped(ctx) {
				return
			}

			s.logger.Error("blpop failed", zap.String("topic", topic), zap.Error(err))
			s.wait(ctx, s.retryDelay)

			continue
		}

		// BLPOP replies with [list, element].
		msg := message.NewMessage(watermill.NewUUID(), []byte(result[1]))
		msg.SetContext(ctx)

		select {
		case out <- msg:
		case <-ctx.Done():
			s.restore(topic, result[1])

			return
		case <-s.closing:
			s.restore(topic, result[1])

			return
		}

		select {
		case <-msg.Acked():
		case <-msg.Nacked():
			s.logger.Warn("list messages cannot be requeued, dropping",
				zap.String("topic", topic),
				zap.String("message_id", msg.UUID),
			)
		case <-ctx.Done():
			return
		case <-s.closing:
			return
		}
	}
}

// restore puts an element that was popped but never delivered back at the head.
func (s *ListSubscriber) restore(topic, element string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.client.LPush(ctx, topic, element).Err(); err != nil {
		s.logger.Error("failed to restore undelivered element",
			zap.String("topic", topic),
			zap.Error(err),
		)
	}
}

func (s *ListSubscriber) stopped(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	case <-s.closing:
		return true
	default:
		return false
	}
}

func (s *ListSubscriber) wait(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-s.closing:
	case <-timer.C:
	}
}

// Close stops all subscriptions and waits for them to exit.
func (s *ListSubscriber) Close() error {
	s.closeOnce.Do(func() {
		close(s.closing)
	})

	s.wg.Wait()

	return nil
}

// Compile-time checks.
var (
	_ message.Publisher  = (*ListPublisher)(nil)
	_ message.Subscriber = (*ListSubscriber)(nil)
)
