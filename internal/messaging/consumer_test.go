package messaging_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/serroba/scaleurl/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type visitEvent struct {
	ShortCode string `json:"shortCode"`
	Timestamp int64  `json:"timestamp"`
}

type mockSubscriber struct {
	msgChan      chan *message.Message
	subscribeErr error
	mu           sync.Mutex
	closed       bool
}

func newMockSubscriber() *mockSubscriber {
	return &mockSubscriber{
		msgChan: make(chan *message.Message, 10),
	}
}

func (m *mockSubscriber) Subscribe(_ context.Context, _ string) (<-chan *message.Message, error) {
	if m.subscribeErr != nil {
		return nil, m.subscribeErr
	}

	return m.msgChan, nil
}

func (m *mockSubscriber) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.msgChan)
	}

	return nil
}

func newVisitMessage(t *testing.T, code string) *message.Message {
	t.Helper()

	payload, err := json.Marshal(&visitEvent{ShortCode: code, Timestamp: time.Now().UnixMilli()})
	require.NoError(t, err)

	return message.NewMessage(uuid.NewString(), payload)
}

func waitAcked(t *testing.T, msg *message.Message) {
	t.Helper()

	select {
	case <-msg.Acked():
	case <-msg.Nacked():
		t.Fatal("message was nacked")
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for ack")
	}
}

func TestConsumer_Start(t *testing.T) {
	t.Run("starts successfully", func(t *testing.T) {
		sub := newMockSubscriber()
		consumer := messaging.NewConsumer(
			sub,
			"visitQueue",
			func(_ context.Context, _ *visitEvent) error { return nil },
			zap.NewNop(),
		)

		err := consumer.Start(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "visitQueue", consumer.Topic())

		_ = consumer.Shutdown()
	})

	t.Run("returns error when subscribe fails", func(t *testing.T) {
		sub := &mockSubscriber{subscribeErr: errors.New("subscribe error")}
		consumer := messaging.NewConsumer(
			sub,
			"visitQueue",
			func(_ context.Context, _ *visitEvent) error { return nil },
			zap.NewNop(),
		)

		err := consumer.Start(context.Background())

		require.Error(t, err)
		assert.NoError(t, consumer.Shutdown(), "shutdown after failed start must not block")
	})
}

func TestConsumer_HandleMessage(t *testing.T) {
	t.Run("acks on successful handling", func(t *testing.T) {
		sub := newMockSubscriber()

		received := make(chan *visitEvent, 1)

		consumer := messaging.NewConsumer(
			sub,
			"visitQueue",
			func(_ context.Context, event *visitEvent) error {
				received <- event

				return nil
			},
			zap.NewNop(),
		)

		require.NoError(t, consumer.Start(context.Background()))

		msg := newVisitMessage(t, "abc1")
		sub.msgChan <- msg

		waitAcked(t, msg)

		event := <-received
		assert.Equal(t, "abc1", event.ShortCode)
		assert.NotZero(t, event.Timestamp)

		_ = consumer.Shutdown()
	})

	t.Run("drops undecodable payloads without requeueing", func(t *testing.T) {
		sub := newMockSubscriber()

		var calls atomic.Int32

		consumer := messaging.NewConsumer(
			sub,
			"visitQueue",
			func(_ context.Context, _ *visitEvent) error {
				calls.Add(1)

				return nil
			},
			zap.NewNop(),
		)

		require.NoError(t, consumer.Start(context.Background()))

		msg := message.NewMessage(uuid.NewString(), []byte("invalid json"))
		sub.msgChan <- msg

		waitAcked(t, msg)
		assert.Zero(t, calls.Load())

		_ = consumer.Shutdown()
	})

	t.Run("acks failed events and keeps consuming after the backoff", func(t *testing.T) {
		sub := newMockSubscriber()

		var calls atomic.Int32

		consumer := messaging.NewConsumer(
			sub,
			"visitQueue",
			func(_ context.Context, event *visitEvent) error {
				calls.Add(1)

				if event.ShortCode == "bad" {
					return errors.New("store unreachable")
				}

				return nil
			},
			zap.NewNop(),
			messaging.WithFailureBackoff(50*time.Millisecond),
		)

		require.NoError(t, consumer.Start(context.Background()))

		failed := newVisitMessage(t, "bad")
		next := newVisitMessage(t, "good")

		start := time.Now()
		sub.msgChan <- failed
		sub.msgChan <- next

		waitAcked(t, failed)
		waitAcked(t, next)

		assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond, "next event waits for the backoff")
		assert.Equal(t, int32(2), calls.Load())

		_ = consumer.Shutdown()
	})

	t.Run("survives a panicking handler", func(t *testing.T) {
		sub := newMockSubscriber()

		consumer := messaging.NewConsumer(
			sub,
			"visitQueue",
			func(_ context.Context, event *visitEvent) error {
				if event.ShortCode == "boom" {
					panic("boom")
				}

				return nil
			},
			zap.NewNop(),
			messaging.WithFailureBackoff(0),
		)

		require.NoError(t, consumer.Start(context.Background()))

		panicking := newVisitMessage(t, "boom")
		next := newVisitMessage(t, "abc1")

		sub.msgChan <- panicking
		sub.msgChan <- next

		waitAcked(t, panicking)
		waitAcked(t, next)

		_ = consumer.Shutdown()
	})
}

func TestConsumer_Shutdown(t *testing.T) {
	t.Run("shuts down gracefully", func(t *testing.T) {
		sub := newMockSubscriber()
		consumer := messaging.NewConsumer(
			sub,
			"visitQueue",
			func(_ context.Context, _ *visitEvent) error { return nil },
			zap.NewNop(),
		)

		require.NoError(t, consumer.Start(context.Background()))

		err := consumer.Shutdown()

		require.NoError(t, err)
	})

	t.Run("interrupts a pending backoff", func(t *testing.T) {
		sub := newMockSubscriber()
		consumer := messaging.NewConsumer(
			sub,
			"visitQueue",
			func(_ context.Context, _ *visitEvent) error { return errors.New("fail") },
			zap.NewNop(),
			messaging.WithFailureBackoff(time.Hour),
		)

		require.NoError(t, consumer.Start(context.Background()))

		msg := newVisitMessage(t, "abc1")
		sub.msgChan <- msg
		waitAcked(t, msg)

		done := make(chan struct{})

		go func() {
			_ = consumer.Shutdown()

			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("shutdown blocked on backoff")
		}
	})
}

func TestConsumer_MemoryQueue(t *testing.T) {
	queue := messaging.NewMemoryQueue(100, zap.NewNop())

	var mu sync.Mutex

	var order []string

	done := make(chan struct{})

	consumer := messaging.NewConsumer(
		queue,
		"visitQueue",
		func(_ context.Context, event *visitEvent) error {
			mu.Lock()
			defer mu.Unlock()

			order = append(order, event.ShortCode)
			if len(order) == 50 {
				close(done)
			}

			return nil
		},
		zap.NewNop(),
	)

	publish := messaging.NewPublishFunc[visitEvent](queue, "visitQueue", time.Second)

	want := make([]string, 0, 50)

	for i := range 50 {
		code := fmt.Sprintf("%02d", i)
		want = append(want, code)

		require.NoError(t, publish(&visitEvent{ShortCode: code, Timestamp: time.Now().UnixMilli()}))

		// Start mid-stream so delivery covers both queued and live messages.
		if i == 24 {
			require.NoError(t, consumer.Start(context.Background()))
		}
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for events")
	}

	mu.Lock()
	assert.Equal(t, want, order)
	mu.Unlock()

	_ = consumer.Shutdown()
	_ = queue.Close()
}
