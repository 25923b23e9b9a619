package domain

import (
	"context"
)

// SlotRepository defines the interface for slot persistence
type SlotRepository interface {
	// FindByCode retrieves a slot by its location code
	FindByCode(ctx context.Context, code string) (*Slot, error)

	// FindAll retrieves every slot of the grid in row/column order
	FindAll(ctx context.Context) ([]Slot, error)

	// FindByZone retrieves the slots of one zone
	FindByZone(ctx context.Context, zone Zone) ([]Slot, error)

	// CurrentLayout builds the occupied-slot map fed to the planner
	CurrentLayout(ctx context.Context) (CurrentLayout, error)

	// Assign places a wine in a slot
	Assign(ctx context.Context, code string, occupant SlotOccupant) error

	// Clear empties a slot and returns its previous occupant
	Clear(ctx context.Context, code string) (*SlotOccupant, error)

	// ApplyPlan applies every move of a plan in one transaction: all
	// source slots cleared before any target slot is written
	ApplyPlan(ctx context.Context, plan *ReorgPlan) error

	// OccupiedCountByZone counts occupied slots per zone
	OccupiedCountByZone(ctx context.Context) (map[Zone]int, error)

	// EnsureGrid inserts any missing physical slots
	EnsureGrid(ctx context.Context) error
}

// ReorgPlanRepository defines the interface for reorg plan persistence
type ReorgPlanRepository interface {
	// Save persists a plan (upsert by PlanID)
	Save(ctx context.Context, plan *ReorgPlan) error

	// FindByID retrieves a plan by its PlanID
	FindByID(ctx context.Context, planID string) (*ReorgPlan, error)

	// FindRecent retrieves the most recently created plans
	FindRecent(ctx context.Context, limit int) ([]*ReorgPlan, error)

	// FindByStatus retrieves plans by status
	FindByStatus(ctx context.Context, status PlanStatus, limit int) ([]*ReorgPlan, error)
}
