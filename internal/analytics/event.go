package analytics

import "time"

// TopicVisits is the queue that carries visit events from the redirect path
// to the accounting consumer.
const TopicVisits = "visitQueue"

// VisitEvent records one successful redirect. Timestamp is in Unix milliseconds.
type VisitEvent struct {
	ShortCode string `json:"shortCode"`
	Timestamp int64  `json:"timestamp"`
}

// NewVisitEvent creates a visit event for code at the given time.
func NewVisitEvent(code string, at time.Time) *VisitEvent {
	return &VisitEvent{
		ShortCode: code,
		Timestamp: at.UnixMilli(),
	}
}

// VisitedAt returns the event timestamp as a time.Time.
func (e *VisitEvent) VisitedAt() time.Time {
	return time.UnixMilli(e.Timestamp)
}
