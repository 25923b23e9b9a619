package cloudevents

import (
	"time"
)

// EventType constants for cellar domain events
const (
	// Layout events
	SlotAssigned = "cellar.layout.slot-assigned"
	SlotCleared  = "cellar.layout.slot-cleared"

	// Plan events
	SortPlanComputed = "cellar.layout.sort-plan-computed"
	PlanExecuted     = "cellar.layout.plan-executed"
	PlanDiscarded    = "cellar.layout.plan-discarded"
)

// Source constants for event sources
const (
	SourceCellarService = "/cellar/cellar-service"
)

// CellarCloudEvent represents a CloudEvents v1.0 compliant event
type CellarCloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	Type            string      `json:"type"`
	Source          string      `json:"source"`
	Subject         string      `json:"subject,omitempty"`
	ID              string      `json:"id"`
	Time            time.Time   `json:"time"`
	DataContentType string      `json:"datacontenttype"`
	Data            interface{} `json:"data"`

	// Cellar-specific extensions
	CorrelationID string `json:"cellarcorrelationid,omitempty"`
	PlanID        string `json:"cellarplanid,omitempty"`
	Zone          string `json:"cellarzone,omitempty"`

	// W3C Trace Context
	TraceParent string `json:"traceparent,omitempty"`
	TraceState  string `json:"tracestate,omitempty"`
}

// SlotAssignedData represents the data payload for SlotAssigned events
type SlotAssignedData struct {
	SlotCode string `json:"slotCode"`
	Zone     string `json:"zone"`
	WineID   string `json:"wineId"`
	WineName string `json:"wineName,omitempty"`
	Colour   string `json:"colour,omitempty"`
}

// SlotClearedData represents the data payload for SlotCleared events
type SlotClearedData struct {
	SlotCode string `json:"slotCode"`
	Zone     string `json:"zone"`
	WineID   string `json:"wineId,omitempty"`
}

// SortPlanComputedData represents the data payload for SortPlanComputed events
type SortPlanComputedData struct {
	PlanID            string `json:"planId"`
	StayInPlace       int    `json:"stayInPlace"`
	DirectMoves       int    `json:"directMoves"`
	Swaps             int    `json:"swaps"`
	Cycles            int    `json:"cycles"`
	TotalMoves        int    `json:"totalMoves"`
	UnresolvedTargets int    `json:"unresolvedTargets"`
}

// PlanExecutedData represents the data payload for PlanExecuted events
type PlanExecutedData struct {
	PlanID        string `json:"planId"`
	MovesApplied  int    `json:"movesApplied"`
	SlotsCleared  int    `json:"slotsCleared"`
	SlotsFilled   int    `json:"slotsFilled"`
	ExecutedAtUTC string `json:"executedAt"`
}
