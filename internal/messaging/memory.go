package messaging

import (
	"context"
	"errors"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// DefaultMemoryQueueSize is the per-topic buffer of a MemoryQueue.
const DefaultMemoryQueueSize = 1024

// ErrQueueClosed is returned when publishing to or subscribing on a closed queue.
var ErrQueueClosed = errors.New("queue closed")

// MemoryQueue is an in-process FIFO queue implementing both message.Publisher
// and message.Subscriber.
//
// Each topic is a bounded channel. Publish blocks while the topic is full,
// until the message context is done. Subscribers of the same topic compete for
// messages, and each subscription holds one message at a time until it is
// acked or nacked, so a single subscriber sees messages in publish order. Like
// the list transport, nothing is redelivered.
type MemoryQueue struct {
	size   int
	logger *zap.Logger

	mu     sync.Mutex
	topics map[string]chan *message.Message

	closing   chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewMemoryQueue creates an in-process queue holding up to size messages per topic.
func NewMemoryQueue(size int, logger *zap.Logger) *MemoryQueue {
	if size <= 0 {
		size = DefaultMemoryQueueSize
	}

	return &MemoryQueue{
		size:    size,
		logger:  logger,
		topics:  make(map[string]chan *message.Message),
		closing: make(chan struct{}),
	}
}

func (q *MemoryQueue) topic(name string) chan *message.Message {
	q.mu.Lock()
	defer q.mu.Unlock()

	ch, ok := q.topics[name]
	if !ok {
		ch = make(chan *message.Message, q.size)
		q.topics[name] = ch
	}

	return ch
}

func (q *MemoryQueue) Publish(topic string, msgs ...*message.Message) error {
	ch := q.topic(topic)

	for _, msg := range msgs {
		select {
		case <-q.closing:
			return ErrQueueClosed
		default:
		}

		// Ack state belongs to the delivered copy, not the caller's message.
		queued := msg.Copy()

		select {
		case ch <- queued:
		case <-msg.Context().Done():
			return msg.Context().Err()
		case <-q.closing:
			return ErrQueueClosed
		}
	}

	return nil
}

func (q *MemoryQueue) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	select {
	case <-q.closing:
		return nil, ErrQueueClosed
	default:
	}

	out := make(chan *message.Message)

	q.wg.Add(1)

	go q.deliver(ctx, topic, q.topic(topic), out)

	return out, nil
}

func (q *MemoryQueue) deliver(ctx context.Context, topic string, in <-chan *message.Message, out chan<- *message.Message) {
	defer q.wg.Done()
	defer close(out)

	for {
		var msg *message.Message

		select {
		case <-ctx.Done():
			return
		case <-q.closing:
			return
		case msg = <-in:
		}

		msg.SetContext(ctx)

		select {
		case out <- msg:
		case <-ctx.Done():
			q.dropped(topic, msg)

			return
		case <-q.closing:
			q.dropped(topic, msg)

			return
		}

		select {
		case <-msg.Acked():
		case <-msg.Nacked():
			q.logger.Warn("memory queue messages cannot be requeued, dropping",
				zap.String("topic", topic),
				zap.String("message_id", msg.UUID),
			)
		case <-ctx.Done():
			return
		case <-q.closing:
			return
		}
	}
}

func (q *MemoryQueue) dropped(topic string, msg *message.Message) {
	q.logger.Warn("dropping undelivered message on shutdown",
		zap.String("topic", topic),
		zap.String("message_id", msg.UUID),
	)
}

// Close stops all subscriptions and waits for them to exit. Messages still
// queued are discarded. Close is idempotent.
func (q *MemoryQueue) Close() error {
	q.closeOnce.Do(func() {
		close(q.closing)
	})

	q.wg.Wait()

	return nil
}

// Compile-time checks.
var (
	_ message.Publisher  = (*MemoryQueue)(nil)
	_ message.Subscriber = (*MemoryQueue)(nil)
)
