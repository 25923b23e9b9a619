package outbox

import "context"

// Repository persists outbox events. Save and SaveAll are expected to run
// inside the same MongoDB transaction as the state change that produced the
// events; the remaining methods serve the polling publisher.
type Repository interface {
	// Save stores a single outbox event
	Save(ctx context.Context, event *OutboxEvent) error

	// SaveAll stores a batch of outbox events in one write
	SaveAll(ctx context.Context, events []*OutboxEvent) error

	// FindUnpublished returns events awaiting publication, oldest first
	FindUnpublished(ctx context.Context, limit int) ([]*OutboxEvent, error)

	// MarkPublished records that an event reached the broker
	MarkPublished(ctx context.Context, eventID string) error

	// IncrementRetry bumps the retry count and records the publish error
	IncrementRetry(ctx context.Context, eventID string, errorMsg string) error
}
