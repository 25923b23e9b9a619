package outbox

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellarworks/cellar-service/pkg/cloudevents"
)

type stubEvent struct {
	PlanID string `json:"planId"`
}

func (e *stubEvent) EventType() string { return "cellar.layout.plan-executed" }

func TestNewOutboxEvent(t *testing.T) {
	event, err := NewOutboxEvent("PLAN-1", "ReorgPlan", "cellar.layout.events", &stubEvent{PlanID: "PLAN-1"})
	require.NoError(t, err)

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "PLAN-1", event.AggregateID)
	assert.Equal(t, "ReorgPlan", event.AggregateType)
	assert.Equal(t, "cellar.layout.plan-executed", event.EventType)
	assert.Equal(t, "cellar.layout.events", event.Topic)
	assert.Equal(t, 0, event.RetryCount)
	assert.Equal(t, 10, event.MaxRetries)
	assert.False(t, event.IsPublished())

	var payload stubEvent
	require.NoError(t, json.Unmarshal(event.Payload, &payload))
	assert.Equal(t, "PLAN-1", payload.PlanID)
}

func TestNewOutboxEventFromCloudEvent_RoundTrip(t *testing.T) {
	factory := cloudevents.NewEventFactory(cloudevents.SourceCellarService)
	cloudEvent := factory.CreateSortPlanComputedEvent(context.Background(), "PLAN-7", 5, 2, 1, 0, 4, 1)

	event, err := NewOutboxEventFromCloudEvent("PLAN-7", "ReorgPlan", "cellar.layout.events", cloudEvent)
	require.NoError(t, err)

	assert.Equal(t, cloudevents.SortPlanComputed, event.EventType)

	restored, err := event.ToCloudEvent()
	require.NoError(t, err)
	assert.Equal(t, cloudEvent.ID, restored.ID)
	assert.Equal(t, cloudEvent.Type, restored.Type)
	assert.Equal(t, "PLAN-7", restored.PlanID)
	assert.Equal(t, "plan/PLAN-7", restored.Subject)
}

func TestOutboxEvent_ShouldRetry(t *testing.T) {
	event, err := NewOutboxEvent("F1", "Slot", "cellar.layout.events", &stubEvent{})
	require.NoError(t, err)

	assert.True(t, event.ShouldRetry())

	event.RetryCount = event.MaxRetries
	assert.False(t, event.ShouldRetry())

	event.RetryCount = 1
	now := time.Now()
	event.PublishedAt = &now
	assert.True(t, event.IsPublished())
	assert.False(t, event.ShouldRetry())
}
