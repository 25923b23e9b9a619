package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cellarworks/cellar-service/internal/domain"
	"github.com/cellarworks/cellar-service/internal/planner"
	"github.com/cellarworks/cellar-service/pkg/errors"
	"github.com/cellarworks/cellar-service/pkg/logging"
	"github.com/cellarworks/cellar-service/pkg/metrics"
)

// ReorgService implements the application layer for cellar layout and
// reorganization operations
type ReorgService struct {
	slotRepo domain.SlotRepository
	planRepo domain.ReorgPlanRepository
	logger   *logging.Logger
	metrics  *metrics.Metrics
}

// NewReorgService creates a new ReorgService
func NewReorgService(
	slotRepo domain.SlotRepository,
	planRepo domain.ReorgPlanRepository,
	logger *logging.Logger,
	m *metrics.Metrics,
) *ReorgService {
	return &ReorgService{
		slotRepo: slotRepo,
		planRepo: planRepo,
		logger:   logger,
		metrics:  m,
	}
}

// LayoutView is the current grid with occupancy counts per zone
type LayoutView struct {
	Slots    []domain.Slot       `json:"slots"`
	Occupied map[domain.Zone]int `json:"occupied"`
}

// GetLayout returns every slot of the grid with its current occupant
func (s *ReorgService) GetLayout(ctx context.Context) (*LayoutView, error) {
	slots, err := s.slotRepo.FindAll(ctx)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to load layout")
		return nil, errors.ErrInternal("failed to load layout").Wrap(err)
	}

	occupied, err := s.slotRepo.OccupiedCountByZone(ctx)
	if err != nil {
		return nil, errors.ErrInternal("failed to count occupied slots").Wrap(err)
	}

	if s.metrics != nil {
		for zone, count := range occupied {
			s.metrics.SetSlotsOccupied(string(zone), count)
		}
	}

	return &LayoutView{Slots: slots, Occupied: occupied}, nil
}

// AssignSlotCommand represents the command to place a wine in a slot
type AssignSlotCommand struct {
	LocationCode string
	WineID       int
	WineName     string
	Colour       string
	ZoneID       string
}

// AssignSlot places a wine in a slot
func (s *ReorgService) AssignSlot(ctx context.Context, cmd AssignSlotCommand) (*domain.Slot, error) {
	if _, _, _, err := domain.ParseSlotCode(cmd.LocationCode); err != nil {
		return nil, errors.ErrValidation(err.Error())
	}

	occupant := domain.SlotOccupant{
		WineID:   cmd.WineID,
		WineName: cmd.WineName,
		Colour:   domain.NormaliseColour(cmd.Colour),
		ZoneID:   cmd.ZoneID,
	}

	if err := s.slotRepo.Assign(ctx, cmd.LocationCode, occupant); err != nil {
		return nil, errors.MapDomainError(err)
	}

	s.logger.WithContext(ctx).Info("Assigned wine to slot",
		"locationCode", cmd.LocationCode,
		"wineId", cmd.WineID,
	)

	slot, err := s.slotRepo.FindByCode(ctx, cmd.LocationCode)
	if err != nil {
		return nil, errors.MapDomainError(err)
	}
	return slot, nil
}

// ClearSlot empties a slot and returns its previous occupant
func (s *ReorgService) ClearSlot(ctx context.Context, code string) (*domain.SlotOccupant, error) {
	if _, _, _, err := domain.ParseSlotCode(code); err != nil {
		return nil, errors.ErrValidation(err.Error())
	}

	occupant, err := s.slotRepo.Clear(ctx, code)
	if err != nil {
		return nil, errors.MapDomainError(err)
	}

	s.logger.WithContext(ctx).Info("Cleared slot", "locationCode", code)
	return occupant, nil
}

// ComputePlanCommand carries the target layout a plan is computed against
type ComputePlanCommand struct {
	Target domain.TargetLayout
}

// PlanResult is the outcome of a plan computation
type PlanResult struct {
	PlanID          string           `json:"planId,omitempty"`
	Moves           []domain.Move    `json:"moves"`
	Stats           domain.PlanStats `json:"stats"`
	Unresolved      int              `json:"unresolved"`
	HasDependencies bool             `json:"hasDependencies"`
}

// PreviewPlan computes a sort plan against the live layout without
// persisting anything
func (s *ReorgService) PreviewPlan(ctx context.Context, cmd ComputePlanCommand) (*PlanResult, error) {
	result, _, err := s.computePlan(ctx, cmd, false)
	return result, err
}

// ComputePlan computes a sort plan and persists it as a draft ReorgPlan
func (s *ReorgService) ComputePlan(ctx context.Context, cmd ComputePlanCommand) (*PlanResult, error) {
	result, plan, err := s.computePlan(ctx, cmd, true)
	if err != nil {
		return nil, err
	}

	if err := s.planRepo.Save(ctx, plan); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to save reorg plan", "planId", plan.PlanID)
		return nil, errors.ErrInternal("failed to save plan").Wrap(err)
	}

	result.PlanID = plan.PlanID
	return result, nil
}

func (s *ReorgService) computePlan(ctx context.Context, cmd ComputePlanCommand, persist bool) (*PlanResult, *domain.ReorgPlan, error) {
	start := time.Now()

	current, err := s.slotRepo.CurrentLayout(ctx)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to build current layout")
		return nil, nil, errors.ErrInternal("failed to build current layout").Wrap(err)
	}

	sortPlan := planner.ComputeSortPlan(current, cmd.Target)
	unresolved := sortPlan.Unresolved(cmd.Target)

	planID := ""
	var plan *domain.ReorgPlan
	if persist {
		planID = fmt.Sprintf("PLAN-%s", uuid.New().String()[:8])
		plan = domain.NewReorgPlan(planID, sortPlan, len(cmd.Target))
	}

	if s.metrics != nil {
		s.metrics.RecordSortPlanComputed(persist)
		s.metrics.RecordMovesPlanned(string(domain.MoveTypeDirect), sortPlan.Stats.DirectMoves)
		s.metrics.RecordMovesPlanned(string(domain.MoveTypeSwap), sortPlan.Stats.Swaps*2)
		s.metrics.RecordMovesPlanned(string(domain.MoveTypeCycle),
			sortPlan.Stats.TotalMoves-sortPlan.Stats.DirectMoves-sortPlan.Stats.Swaps*2)
		if unresolved > 0 {
			s.metrics.RecordUnresolvedTargets(unresolved)
		}
	}

	// Unresolved targets mean a wanted wine is not in the cellar. That
	// is an audit signal, never a failure.
	if unresolved > 0 {
		s.logger.WithContext(ctx).Warn("Target slots without a resolvable source",
			"unresolved", unresolved,
			"targetSlots", len(cmd.Target),
		)
	}

	s.logger.PlanComputed(ctx, planID, sortPlan.Stats.TotalMoves, sortPlan.Stats.StayInPlace, unresolved, time.Since(start))

	return &PlanResult{
		Moves:           sortPlan.Moves,
		Stats:           sortPlan.Stats,
		Unresolved:      unresolved,
		HasDependencies: planner.HasMoveDependencies(sortPlan.Moves),
	}, plan, nil
}

// GetPlan retrieves a persisted plan
func (s *ReorgService) GetPlan(ctx context.Context, planID string) (*domain.ReorgPlan, error) {
	plan, err := s.planRepo.FindByID(ctx, planID)
	if err != nil {
		return nil, errors.ErrInternal("failed to load plan").Wrap(err)
	}
	if plan == nil {
		return nil, errors.ErrNotFoundWithID("reorg plan", planID)
	}
	return plan, nil
}

// ListPlans retrieves the most recent plans
func (s *ReorgService) ListPlans(ctx context.Context, limit int) ([]*domain.ReorgPlan, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	plans, err := s.planRepo.FindRecent(ctx, limit)
	if err != nil {
		return nil, errors.ErrInternal("failed to list plans").Wrap(err)
	}
	return plans, nil
}

// ExecutePlan applies every move of a draft plan in one transaction and
// marks the plan executed
func (s *ReorgService) ExecutePlan(ctx context.Context, planID string) (*domain.ReorgPlan, error) {
	plan, err := s.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	if err := plan.Execute(); err != nil {
		if s.metrics != nil {
			s.metrics.RecordPlanExecution("rejected")
		}
		switch err {
		case domain.ErrPlanAlreadyExecuted, domain.ErrPlanDiscarded:
			return nil, errors.ErrConflict(err.Error())
		default:
			return nil, errors.MapDomainError(err)
		}
	}

	if err := s.slotRepo.ApplyPlan(ctx, plan); err != nil {
		if s.metrics != nil {
			s.metrics.RecordPlanExecution("failed")
		}
		s.logger.WithContext(ctx).WithError(err).Error("Failed to apply plan", "planId", planID)
		return nil, errors.ErrInternal("failed to apply plan").Wrap(err)
	}

	if s.metrics != nil {
		s.metrics.RecordPlanExecution("executed")
	}

	s.logger.WithContext(ctx).Info("Executed reorg plan",
		"planId", planID,
		"totalMoves", plan.Stats.TotalMoves,
	)

	return plan, nil
}

// DiscardPlan marks a draft plan as discarded
func (s *ReorgService) DiscardPlan(ctx context.Context, planID string) (*domain.ReorgPlan, error) {
	plan, err := s.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	if err := plan.Discard(); err != nil {
		return nil, errors.ErrConflict(err.Error())
	}

	if err := s.planRepo.Save(ctx, plan); err != nil {
		return nil, errors.ErrInternal("failed to save plan").Wrap(err)
	}

	if s.metrics != nil {
		s.metrics.RecordPlanExecution("discarded")
	}

	return plan, nil
}

// AnalyzeMovesCommand carries an arbitrary move list for analysis
type AnalyzeMovesCommand struct {
	Moves      []domain.Move
	TypeFilter domain.MoveType
}

// MoveAnalysis reports swap pairs and staging requirements for a move
// list. Moves paired as swaps are presented together in UIs; a
// dependency means the executor must clear all sources before filling
// any target.
type MoveAnalysis struct {
	SwapPairs       map[int]int `json:"swapPairs"`
	HasDependencies bool        `json:"hasDependencies"`
}

// AnalyzeMoves inspects an arbitrary move list, which need not come
// from the planner
func (s *ReorgService) AnalyzeMoves(ctx context.Context, cmd AnalyzeMovesCommand) (*MoveAnalysis, error) {
	if cmd.TypeFilter != "" && !cmd.TypeFilter.IsValid() {
		return nil, errors.ErrValidation(fmt.Sprintf("invalid move type filter: %s", cmd.TypeFilter))
	}

	return &MoveAnalysis{
		SwapPairs:       planner.DetectSwapPairs(cmd.Moves, planner.SwapPairOptions{TypeFilter: cmd.TypeFilter}),
		HasDependencies: planner.HasMoveDependencies(cmd.Moves),
	}, nil
}
