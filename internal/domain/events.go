package domain

import "time"

// DomainEvent represents a domain event interface
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

// SortPlanComputedEvent is emitted when a reorganization plan is computed
// and saved as a draft
type SortPlanComputedEvent struct {
	PlanID      string    `json:"planId"`
	TotalMoves  int       `json:"totalMoves"`
	StayInPlace int       `json:"stayInPlace"`
	Swaps       int       `json:"swaps"`
	Cycles      int       `json:"cycles"`
	Unresolved  int       `json:"unresolved"`
	ComputedAt  time.Time `json:"computedAt"`
}

func (e *SortPlanComputedEvent) EventType() string     { return "cellar.layout.sort-plan-computed" }
func (e *SortPlanComputedEvent) OccurredAt() time.Time { return e.ComputedAt }

// PlanExecutedEvent is emitted when every move of a plan has been applied
type PlanExecutedEvent struct {
	PlanID     string    `json:"planId"`
	TotalMoves int       `json:"totalMoves"`
	ExecutedAt time.Time `json:"executedAt"`
}

func (e *PlanExecutedEvent) EventType() string     { return "cellar.layout.plan-executed" }
func (e *PlanExecutedEvent) OccurredAt() time.Time { return e.ExecutedAt }

// PlanDiscardedEvent is emitted when a draft plan is discarded unexecuted
type PlanDiscardedEvent struct {
	PlanID      string    `json:"planId"`
	DiscardedAt time.Time `json:"discardedAt"`
}

func (e *PlanDiscardedEvent) EventType() string     { return "cellar.layout.plan-discarded" }
func (e *PlanDiscardedEvent) OccurredAt() time.Time { return e.DiscardedAt }
