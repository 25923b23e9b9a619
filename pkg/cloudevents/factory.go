package cloudevents

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventFactory creates CloudEvents for cellar domain events
type EventFactory struct {
	source string
}

// NewEventFactory creates a new EventFactory for a specific source
func NewEventFactory(source string) *EventFactory {
	return &EventFactory{source: source}
}

// CreateEvent creates a new CellarCloudEvent with the given parameters
func (f *EventFactory) CreateEvent(
	ctx context.Context,
	eventType string,
	subject string,
	data interface{},
) *CellarCloudEvent {
	return &CellarCloudEvent{
		SpecVersion:     "1.0",
		Type:            eventType,
		Source:          f.source,
		Subject:         subject,
		ID:              uuid.New().String(),
		Time:            time.Now().UTC(),
		DataContentType: "application/json",
		Data:            data,
	}
}

// CreateEventWithCorrelation creates an event with correlation tracking
func (f *EventFactory) CreateEventWithCorrelation(
	ctx context.Context,
	eventType string,
	subject string,
	data interface{},
	correlationID string,
) *CellarCloudEvent {
	event := f.CreateEvent(ctx, eventType, subject, data)
	event.CorrelationID = correlationID
	return event
}

// CreateSlotAssignedEvent creates a SlotAssigned event
func (f *EventFactory) CreateSlotAssignedEvent(
	ctx context.Context,
	slotCode string,
	zone string,
	wineID string,
	wineName string,
	colour string,
) *CellarCloudEvent {
	data := SlotAssignedData{
		SlotCode: slotCode,
		Zone:     zone,
		WineID:   wineID,
		WineName: wineName,
		Colour:   colour,
	}
	event := f.CreateEvent(ctx, SlotAssigned, "slot/"+slotCode, data)
	event.Zone = zone
	return event
}

// CreateSlotClearedEvent creates a SlotCleared event
func (f *EventFactory) CreateSlotClearedEvent(
	ctx context.Context,
	slotCode string,
	zone string,
	wineID string,
) *CellarCloudEvent {
	data := SlotClearedData{
		SlotCode: slotCode,
		Zone:     zone,
		WineID:   wineID,
	}
	event := f.CreateEvent(ctx, SlotCleared, "slot/"+slotCode, data)
	event.Zone = zone
	return event
}

// CreateSortPlanComputedEvent creates a SortPlanComputed event
func (f *EventFactory) CreateSortPlanComputedEvent(
	ctx context.Context,
	planID string,
	stayInPlace, directMoves, swaps, cycles, totalMoves, unresolved int,
) *CellarCloudEvent {
	data := SortPlanComputedData{
		PlanID:            planID,
		StayInPlace:       stayInPlace,
		DirectMoves:       directMoves,
		Swaps:             swaps,
		Cycles:            cycles,
		TotalMoves:        totalMoves,
		UnresolvedTargets: unresolved,
	}
	event := f.CreateEvent(ctx, SortPlanComputed, "plan/"+planID, data)
	event.PlanID = planID
	return event
}

// CreatePlanExecutedEvent creates a PlanExecuted event
func (f *EventFactory) CreatePlanExecutedEvent(
	ctx context.Context,
	planID string,
	movesApplied, slotsCleared, slotsFilled int,
	executedAt time.Time,
) *CellarCloudEvent {
	data := PlanExecutedData{
		PlanID:        planID,
		MovesApplied:  movesApplied,
		SlotsCleared:  slotsCleared,
		SlotsFilled:   slotsFilled,
		ExecutedAtUTC: executedAt.UTC().Format(time.RFC3339),
	}
	event := f.CreateEvent(ctx, PlanExecuted, "plan/"+planID, data)
	event.PlanID = planID
	return event
}
