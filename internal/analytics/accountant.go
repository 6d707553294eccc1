package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/scaleurl/internal/messaging"
	"github.com/serroba/scaleurl/internal/shortener"
	"go.uber.org/zap"
)

// Accountant folds visit events into the visit counters of the Code Store.
type Accountant struct {
	counter Counter
	logger  *zap.Logger
}

// NewAccountant creates a new visit accountant.
func NewAccountant(counter Counter, logger *zap.Logger) *Accountant {
	return &Accountant{counter: counter, logger: logger}
}

// Handle increments the counter of the visited code.
//
// A code without a record is logged and dropped, returning nil. Any other
// failure is returned so the consumer backs off; the event is not retried.
func (a *Accountant) Handle(ctx context.Context, event *VisitEvent) error {
	if event.ShortCode == "" {
		a.logger.Warn("dropping visit event without short code")

		return nil
	}

	err := a.counter.IncrementVisits(ctx, shortener.Code(event.ShortCode))
	if err == nil {
		return nil
	}

	if errors.Is(err, shortener.ErrNotFound) {
		a.logger.Warn("dropping visit for unknown code",
			zap.String("code", event.ShortCode),
			zap.Time("visited_at", event.VisitedAt()),
			zap.Error(shortener.ErrStaleTarget),
		)

		return nil
	}

	return fmt.Errorf("increment visits for %s: %w", event.ShortCode, err)
}

// NewVisitConsumer wires an Accountant to the visit queue.
func NewVisitConsumer(
	subscriber message.Subscriber,
	accountant *Accountant,
	logger *zap.Logger,
	backoff time.Duration,
) *messaging.Consumer[VisitEvent] {
	return messaging.NewConsumer[VisitEvent](
		subscriber,
		TopicVisits,
		accountant.Handle,
		logger,
		messaging.WithFailureBackoff(backoff),
	)
}
