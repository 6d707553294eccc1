package messaging_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/serroba/scaleurl/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockRunnable struct {
	started     bool
	shutdown    bool
	startErr    error
	shutdownErr error
}

func (m *mockRunnable) Start(_ context.Context) error {
	if m.startErr != nil {
		return m.startErr
	}

	m.started = true

	return nil
}

func (m *mockRunnable) Shutdown() error {
	m.shutdown = true

	return m.shutdownErr
}

type topicRunnable struct {
	mockRunnable
}

func (t *topicRunnable) Topic() string { return "visitQueue" }

func TestConsumerGroup_Start(t *testing.T) {
	t.Run("starts all consumers", func(t *testing.T) {
		group := messaging.NewConsumerGroup(newMockSubscriber(), zap.NewNop())
		consumer1 := &mockRunnable{}
		consumer2 := &mockRunnable{}

		group.Add(consumer1)
		group.Add(consumer2)

		err := group.Start(context.Background())

		require.NoError(t, err)
		assert.True(t, consumer1.started)
		assert.True(t, consumer2.started)
	})

	t.Run("rolls back on failure and names the topic", func(t *testing.T) {
		group := messaging.NewConsumerGroup(newMockSubscriber(), zap.NewNop())
		consumer1 := &mockRunnable{}
		consumer2 := &topicRunnable{mockRunnable{startErr: errors.New("start error")}}

		group.Add(consumer1)
		group.Add(consumer2)

		err := group.Start(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "visitQueue")
		assert.True(t, consumer1.shutdown)
		assert.False(t, consumer2.started)
	})
}

func TestConsumerGroup_Run(t *testing.T) {
	sub := newMockSubscriber()
	group := messaging.NewConsumerGroup(sub, zap.NewNop())
	consumer := &mockRunnable{}
	group.Add(consumer)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)

	go func() { errCh <- group.Run(ctx) }()

	cancel()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("run did not return after cancel")
	}

	assert.True(t, consumer.shutdown)
	assert.True(t, sub.closed)
}

func TestConsumerGroup_Shutdown(t *testing.T) {
	t.Run("returns first error but shuts down all", func(t *testing.T) {
		group := messaging.NewConsumerGroup(newMockSubscriber(), zap.NewNop())
		consumer1 := &mockRunnable{shutdownErr: errors.New("shutdown error 1")}
		consumer2 := &mockRunnable{shutdownErr: errors.New("shutdown error 2")}

		group.Add(consumer1)
		group.Add(consumer2)
		_ = group.Start(context.Background())

		err := group.Shutdown()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "shutdown error 1")
		assert.True(t, consumer2.shutdown)
	})
}
