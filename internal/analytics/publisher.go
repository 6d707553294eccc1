package analytics

import (
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/scaleurl/internal/messaging"
)

// NewVisitPublisher returns a publish function that enqueues visit events on TopicVisits.
func NewVisitPublisher(publisher message.Publisher, timeout time.Duration) messaging.Publish[VisitEvent] {
	return messaging.NewPublishFunc[VisitEvent](publisher, TopicVisits, timeout)
}
