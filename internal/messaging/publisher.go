package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// DefaultPublishTimeout bounds a single publish call.
const DefaultPublishTimeout = 2 * time.Second

// Publish is a function that publishes a typed event.
type Publish[T any] func(event *T) error

// NewPublishFunc creates a typed publish function for a specific topic.
//
// Publishing runs under its own timeout rather than a caller context, so an
// event is never withdrawn because the request that produced it went away.
func NewPublishFunc[T any](publisher message.Publisher, topic string, timeout time.Duration) Publish[T] {
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}

	return func(event *T) error {
		payload, err := json.Marshal(event)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		msg := message.NewMessage(watermill.NewUUID(), payload)
		msg.SetContext(ctx)

		return publisher.Publish(topic, msg)
	}
}

// PublisherGroup manages the underlying publisher lifecycle.
type PublisherGroup struct {
	publisher message.Publisher
}

// NewPublisherGroup creates a new publisher group.
func NewPublisherGroup(publisher message.Publisher) *PublisherGroup {
	return &PublisherGroup{publisher: publisher}
}

// Publisher returns the underlying message publisher for creating typed publish functions.
func (g *PublisherGroup) Publisher() message.Publisher {
	return g.publisher
}

// Shutdown closes the underlying publisher.
func (g *PublisherGroup) Shutdown() error {
	return g.publisher.Close()
}
