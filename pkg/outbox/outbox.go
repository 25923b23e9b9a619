package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/cellarworks/cellar-service/pkg/cloudevents"
)

// defaultMaxRetries caps how often the publisher retries a failing event
// before it is left for manual inspection.
const defaultMaxRetries = 10

// OutboxEvent is an event row awaiting reliable delivery to Kafka. It is
// written in the same transaction as the state change that produced it and
// published asynchronously by the polling publisher.
type OutboxEvent struct {
	ID            string          `bson:"_id" json:"id"`
	AggregateID   string          `bson:"aggregateId" json:"aggregateId"`
	AggregateType string          `bson:"aggregateType" json:"aggregateType"`
	EventType     string          `bson:"eventType" json:"eventType"`
	Topic         string          `bson:"topic" json:"topic"`
	Payload       json.RawMessage `bson:"payload" json:"payload"`
	CreatedAt     time.Time       `bson:"createdAt" json:"createdAt"`
	PublishedAt   *time.Time      `bson:"publishedAt,omitempty" json:"publishedAt,omitempty"`
	RetryCount    int             `bson:"retryCount" json:"retryCount"`
	LastError     string          `bson:"lastError,omitempty" json:"lastError,omitempty"`
	MaxRetries    int             `bson:"maxRetries" json:"maxRetries"`
}

// DomainEvent is the minimal shape an event must expose to enter the outbox
type DomainEvent interface {
	EventType() string
}

func newEvent(aggregateID, aggregateType, topic, eventType string, payload json.RawMessage) *OutboxEvent {
	return &OutboxEvent{
		ID:            uuid.New().String(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Topic:         topic,
		Payload:       payload,
		CreatedAt:     time.Now(),
		RetryCount:    0,
		MaxRetries:    defaultMaxRetries,
	}
}

// NewOutboxEvent wraps a domain event for outbox delivery
func NewOutboxEvent(aggregateID, aggregateType, topic string, event DomainEvent) (*OutboxEvent, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return newEvent(aggregateID, aggregateType, topic, event.EventType(), payload), nil
}

// NewOutboxEventFromCloudEvent wraps an already-built CloudEvent envelope
// for outbox delivery
func NewOutboxEventFromCloudEvent(aggregateID, aggregateType, topic string, cloudEvent *cloudevents.CellarCloudEvent) (*OutboxEvent, error) {
	payload, err := json.Marshal(cloudEvent)
	if err != nil {
		return nil, err
	}
	return newEvent(aggregateID, aggregateType, topic, cloudEvent.Type, payload), nil
}

// IsPublished reports whether the event already reached the broker
func (e *OutboxEvent) IsPublished() bool {
	return e.PublishedAt != nil
}

// ShouldRetry reports whether the publisher should attempt this event again
func (e *OutboxEvent) ShouldRetry() bool {
	return !e.IsPublished() && e.RetryCount < e.MaxRetries
}

// ToCloudEvent decodes the stored payload back into a CloudEvent envelope
func (e *OutboxEvent) ToCloudEvent() (*cloudevents.CellarCloudEvent, error) {
	var cloudEvent cloudevents.CellarCloudEvent
	if err := json.Unmarshal(e.Payload, &cloudEvent); err != nil {
		return nil, err
	}
	return &cloudEvent, nil
}
