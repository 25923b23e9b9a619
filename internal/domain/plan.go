package domain

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Cellar layout errors
var (
	ErrPlanAlreadyExecuted = errors.New("reorg plan already executed")
	ErrPlanDiscarded       = errors.New("reorg plan already discarded")
	ErrSlotNotFound        = errors.New("slot not found")
	ErrInvalidSlotCode     = errors.New("invalid slot code")
)

// PlanStatus represents the lifecycle status of a reorg plan
type PlanStatus string

const (
	PlanStatusDraft     PlanStatus = "draft"
	PlanStatusExecuted  PlanStatus = "executed"
	PlanStatusDiscarded PlanStatus = "discarded"
)

// IsValid checks if the status is valid
func (s PlanStatus) IsValid() bool {
	switch s {
	case PlanStatusDraft, PlanStatusExecuted, PlanStatusDiscarded:
		return true
	default:
		return false
	}
}

// ReorgPlan is the aggregate root for a persisted reorganization plan.
// A plan is computed as a draft, then either executed in full (all moves
// applied in one transaction) or discarded; executed and discarded plans
// are terminal.
type ReorgPlan struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PlanID       string             `bson:"planId" json:"planId"`
	Moves        []Move             `bson:"moves" json:"moves"`
	Stats        PlanStats          `bson:"stats" json:"stats"`
	Unresolved   int                `bson:"unresolved" json:"unresolved"`
	TargetSlots  int                `bson:"targetSlots" json:"targetSlots"`
	Status       PlanStatus         `bson:"status" json:"status"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
	ExecutedAt   *time.Time         `bson:"executedAt,omitempty" json:"executedAt,omitempty"`
	DomainEvents []DomainEvent      `bson:"-" json:"-"`
}

// NewReorgPlan creates a draft plan from a computed sort plan
func NewReorgPlan(planID string, sortPlan *SortPlan, targetSlots int) *ReorgPlan {
	now := time.Now().UTC()
	plan := &ReorgPlan{
		ID:           primitive.NewObjectID(),
		PlanID:       planID,
		Moves:        sortPlan.Moves,
		Stats:        sortPlan.Stats,
		Unresolved:   targetSlots - sortPlan.Stats.StayInPlace - sortPlan.Stats.TotalMoves,
		TargetSlots:  targetSlots,
		Status:       PlanStatusDraft,
		CreatedAt:    now,
		UpdatedAt:    now,
		DomainEvents: make([]DomainEvent, 0),
	}

	plan.addDomainEvent(&SortPlanComputedEvent{
		PlanID:      planID,
		TotalMoves:  sortPlan.Stats.TotalMoves,
		StayInPlace: sortPlan.Stats.StayInPlace,
		Swaps:       sortPlan.Stats.Swaps,
		Cycles:      sortPlan.Stats.Cycles,
		Unresolved:  plan.Unresolved,
		ComputedAt:  now,
	})

	return plan
}

// Execute marks the plan as executed. The caller is responsible for
// having applied every move transactionally first.
func (p *ReorgPlan) Execute() error {
	switch p.Status {
	case PlanStatusExecuted:
		return ErrPlanAlreadyExecuted
	case PlanStatusDiscarded:
		return ErrPlanDiscarded
	}

	now := time.Now().UTC()
	p.Status = PlanStatusExecuted
	p.ExecutedAt = &now
	p.UpdatedAt = now

	p.addDomainEvent(&PlanExecutedEvent{
		PlanID:     p.PlanID,
		TotalMoves: p.Stats.TotalMoves,
		ExecutedAt: now,
	})

	return nil
}

// Discard marks the plan as discarded
func (p *ReorgPlan) Discard() error {
	switch p.Status {
	case PlanStatusExecuted:
		return ErrPlanAlreadyExecuted
	case PlanStatusDiscarded:
		return ErrPlanDiscarded
	}

	now := time.Now().UTC()
	p.Status = PlanStatusDiscarded
	p.UpdatedAt = now

	p.addDomainEvent(&PlanDiscardedEvent{
		PlanID:      p.PlanID,
		DiscardedAt: now,
	})

	return nil
}

// IsExecutable checks if the plan can still be executed
func (p *ReorgPlan) IsExecutable() bool {
	return p.Status == PlanStatusDraft
}

// addDomainEvent adds a domain event
func (p *ReorgPlan) addDomainEvent(event DomainEvent) {
	p.DomainEvents = append(p.DomainEvents, event)
}

// GetDomainEvents returns all domain events
func (p *ReorgPlan) GetDomainEvents() []DomainEvent {
	return p.DomainEvents
}

// ClearDomainEvents clears all domain events
func (p *ReorgPlan) ClearDomainEvents() {
	p.DomainEvents = make([]DomainEvent, 0)
}
