package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellarworks/cellar-service/internal/domain"
	"github.com/cellarworks/cellar-service/pkg/errors"
	"github.com/cellarworks/cellar-service/pkg/logging"
)

// fakeSlotRepository keeps the grid in memory and applies plans with
// the same clear-then-fill discipline as the MongoDB implementation.
type fakeSlotRepository struct {
	slots map[string]*domain.Slot
}

func newFakeSlotRepository() *fakeSlotRepository {
	repo := &fakeSlotRepository{slots: make(map[string]*domain.Slot)}
	for _, slot := range domain.GenerateGrid() {
		s := slot
		repo.slots[s.Code] = &s
	}
	return repo
}

func (f *fakeSlotRepository) FindByCode(ctx context.Context, code string) (*domain.Slot, error) {
	slot, ok := f.slots[code]
	if !ok {
		return nil, domain.ErrSlotNotFound
	}
	return slot, nil
}

func (f *fakeSlotRepository) FindAll(ctx context.Context) ([]domain.Slot, error) {
	slots := make([]domain.Slot, 0, len(f.slots))
	for _, s := range f.slots {
		slots = append(slots, *s)
	}
	return slots, nil
}

func (f *fakeSlotRepository) FindByZone(ctx context.Context, zone domain.Zone) ([]domain.Slot, error) {
	var slots []domain.Slot
	for _, s := range f.slots {
		if s.Zone == zone {
			slots = append(slots, *s)
		}
	}
	return slots, nil
}

func (f *fakeSlotRepository) CurrentLayout(ctx context.Context) (domain.CurrentLayout, error) {
	layout := make(domain.CurrentLayout)
	for code, s := range f.slots {
		if s.Occupant != nil {
			layout[code] = *s.Occupant
		}
	}
	return layout, nil
}

func (f *fakeSlotRepository) Assign(ctx context.Context, code string, occupant domain.SlotOccupant) error {
	slot, ok := f.slots[code]
	if !ok {
		return domain.ErrSlotNotFound
	}
	slot.Occupant = &occupant
	return nil
}

func (f *fakeSlotRepository) Clear(ctx context.Context, code string) (*domain.SlotOccupant, error) {
	slot, ok := f.slots[code]
	if !ok {
		return nil, domain.ErrSlotNotFound
	}
	occupant := slot.Occupant
	slot.Occupant = nil
	return occupant, nil
}

func (f *fakeSlotRepository) ApplyPlan(ctx context.Context, plan *domain.ReorgPlan) error {
	for _, m := range plan.Moves {
		f.slots[m.From].Occupant = nil
	}
	for _, m := range plan.Moves {
		f.slots[m.To].Occupant = &domain.SlotOccupant{
			WineID:   m.WineID,
			WineName: m.WineName,
			ZoneID:   m.ZoneID,
		}
	}
	plan.ClearDomainEvents()
	return nil
}

func (f *fakeSlotRepository) OccupiedCountByZone(ctx context.Context) (map[domain.Zone]int, error) {
	counts := map[domain.Zone]int{domain.ZoneFridge: 0, domain.ZoneCellar: 0}
	for _, s := range f.slots {
		if s.Occupant != nil {
			counts[s.Zone]++
		}
	}
	return counts, nil
}

func (f *fakeSlotRepository) EnsureGrid(ctx context.Context) error { return nil }

type fakePlanRepository struct {
	plans map[string]*domain.ReorgPlan
}

func newFakePlanRepository() *fakePlanRepository {
	return &fakePlanRepository{plans: make(map[string]*domain.ReorgPlan)}
}

func (f *fakePlanRepository) Save(ctx context.Context, plan *domain.ReorgPlan) error {
	plan.ClearDomainEvents()
	f.plans[plan.PlanID] = plan
	return nil
}

func (f *fakePlanRepository) FindByID(ctx context.Context, planID string) (*domain.ReorgPlan, error) {
	return f.plans[planID], nil
}

func (f *fakePlanRepository) FindRecent(ctx context.Context, limit int) ([]*domain.ReorgPlan, error) {
	plans := make([]*domain.ReorgPlan, 0, len(f.plans))
	for _, p := range f.plans {
		plans = append(plans, p)
	}
	return plans, nil
}

func (f *fakePlanRepository) FindByStatus(ctx context.Context, status domain.PlanStatus, limit int) ([]*domain.ReorgPlan, error) {
	var plans []*domain.ReorgPlan
	for _, p := range f.plans {
		if p.Status == status {
			plans = append(plans, p)
		}
	}
	return plans, nil
}

func newTestService(t *testing.T) (*ReorgService, *fakeSlotRepository, *fakePlanRepository) {
	t.Helper()
	slotRepo := newFakeSlotRepository()
	planRepo := newFakePlanRepository()
	logger := logging.New(logging.DefaultConfig("cellar-service-test"))
	return NewReorgService(slotRepo, planRepo, logger, nil), slotRepo, planRepo
}

func TestAssignAndClearSlot(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	slot, err := svc.AssignSlot(ctx, AssignSlotCommand{
		LocationCode: "R3C2",
		WineID:       12,
		WineName:     "Barolo 2018",
		Colour:       "Red",
	})
	require.NoError(t, err)
	require.NotNil(t, slot.Occupant)
	assert.Equal(t, 12, slot.Occupant.WineID)
	assert.Equal(t, domain.ColourRed, slot.Occupant.Colour)

	occupant, err := svc.ClearSlot(ctx, "R3C2")
	require.NoError(t, err)
	require.NotNil(t, occupant)
	assert.Equal(t, 12, occupant.WineID)
}

func TestAssignSlot_InvalidCode(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.AssignSlot(context.Background(), AssignSlotCommand{LocationCode: "R1C9", WineID: 1})

	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeValidationError, appErr.Code)
}

func TestPreviewPlan_DoesNotPersist(t *testing.T) {
	svc, _, planRepo := newTestService(t)
	ctx := context.Background()

	_, err := svc.AssignSlot(ctx, AssignSlotCommand{LocationCode: "R2C1", WineID: 1})
	require.NoError(t, err)
	_, err = svc.AssignSlot(ctx, AssignSlotCommand{LocationCode: "R2C2", WineID: 2})
	require.NoError(t, err)

	result, err := svc.PreviewPlan(ctx, ComputePlanCommand{
		Target: domain.TargetLayout{
			"R2C1": {WineID: 2},
			"R2C2": {WineID: 1},
		},
	})
	require.NoError(t, err)

	assert.Empty(t, result.PlanID)
	assert.Equal(t, 1, result.Stats.Swaps)
	assert.Equal(t, 2, result.Stats.TotalMoves)
	assert.True(t, result.HasDependencies)
	assert.Empty(t, planRepo.plans)
}

func TestComputePlan_PersistsDraft(t *testing.T) {
	svc, _, planRepo := newTestService(t)
	ctx := context.Background()

	_, err := svc.AssignSlot(ctx, AssignSlotCommand{LocationCode: "F1", WineID: 7})
	require.NoError(t, err)

	result, err := svc.ComputePlan(ctx, ComputePlanCommand{
		Target: domain.TargetLayout{"F2": {WineID: 7}},
	})
	require.NoError(t, err)

	require.NotEmpty(t, result.PlanID)
	saved := planRepo.plans[result.PlanID]
	require.NotNil(t, saved)
	assert.Equal(t, domain.PlanStatusDraft, saved.Status)
	assert.Equal(t, 1, saved.Stats.TotalMoves)
}

func TestComputePlan_ReportsUnresolved(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AssignSlot(ctx, AssignSlotCommand{LocationCode: "F1", WineID: 7})
	require.NoError(t, err)

	// Wine 99 is not in the cellar; its target slot is dropped, not an
	// error.
	result, err := svc.ComputePlan(ctx, ComputePlanCommand{
		Target: domain.TargetLayout{
			"F2": {WineID: 7},
			"F3": {WineID: 99},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Unresolved)
	assert.Equal(t, 1, result.Stats.TotalMoves)
}

func TestExecutePlan(t *testing.T) {
	svc, slotRepo, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AssignSlot(ctx, AssignSlotCommand{LocationCode: "R2C1", WineID: 1})
	require.NoError(t, err)
	_, err = svc.AssignSlot(ctx, AssignSlotCommand{LocationCode: "R2C2", WineID: 2})
	require.NoError(t, err)

	target := domain.TargetLayout{
		"R2C1": {WineID: 2},
		"R2C2": {WineID: 1},
	}

	result, err := svc.ComputePlan(ctx, ComputePlanCommand{Target: target})
	require.NoError(t, err)

	plan, err := svc.ExecutePlan(ctx, result.PlanID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanStatusExecuted, plan.Status)

	// The layout now matches the target; replanning finds nothing to do.
	replay, err := svc.PreviewPlan(ctx, ComputePlanCommand{Target: target})
	require.NoError(t, err)
	assert.Empty(t, replay.Moves)
	assert.Equal(t, 2, replay.Stats.StayInPlace)

	layout, err := slotRepo.CurrentLayout(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, layout["R2C1"].WineID)
	assert.Equal(t, 1, layout["R2C2"].WineID)
}

func TestExecutePlan_Twice(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AssignSlot(ctx, AssignSlotCommand{LocationCode: "F1", WineID: 7})
	require.NoError(t, err)

	result, err := svc.ComputePlan(ctx, ComputePlanCommand{
		Target: domain.TargetLayout{"F2": {WineID: 7}},
	})
	require.NoError(t, err)

	_, err = svc.ExecutePlan(ctx, result.PlanID)
	require.NoError(t, err)

	_, err = svc.ExecutePlan(ctx, result.PlanID)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeConflict, appErr.Code)
}

func TestExecutePlan_Unknown(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.ExecutePlan(context.Background(), "PLAN-missing")

	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeNotFound, appErr.Code)
}

func TestDiscardPlan(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AssignSlot(ctx, AssignSlotCommand{LocationCode: "F1", WineID: 7})
	require.NoError(t, err)

	result, err := svc.ComputePlan(ctx, ComputePlanCommand{
		Target: domain.TargetLayout{"F2": {WineID: 7}},
	})
	require.NoError(t, err)

	plan, err := svc.DiscardPlan(ctx, result.PlanID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanStatusDiscarded, plan.Status)

	_, err = svc.ExecutePlan(ctx, result.PlanID)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeConflict, appErr.Code)
}

func TestAnalyzeMoves(t *testing.T) {
	svc, _, _ := newTestService(t)

	analysis, err := svc.AnalyzeMoves(context.Background(), AnalyzeMovesCommand{
		Moves: []domain.Move{
			{From: "A", To: "B", Type: domain.MoveTypeSwap},
			{From: "B", To: "A", Type: domain.MoveTypeSwap},
			{From: "C", To: "D", Type: domain.MoveTypeDirect},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, map[int]int{0: 1, 1: 0}, analysis.SwapPairs)
	assert.True(t, analysis.HasDependencies)
}

func TestAnalyzeMoves_InvalidFilter(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.AnalyzeMoves(context.Background(), AnalyzeMovesCommand{
		TypeFilter: domain.MoveType("teleport"),
	})

	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeValidationError, appErr.Code)
}

func TestGetLayout(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AssignSlot(ctx, AssignSlotCommand{LocationCode: "F1", WineID: 1})
	require.NoError(t, err)
	_, err = svc.AssignSlot(ctx, AssignSlotCommand{LocationCode: "R5C5", WineID: 2})
	require.NoError(t, err)

	view, err := svc.GetLayout(ctx)
	require.NoError(t, err)

	assert.Len(t, view.Slots, 9+7+18*9)
	assert.Equal(t, 1, view.Occupied[domain.ZoneFridge])
	assert.Equal(t, 1, view.Occupied[domain.ZoneCellar])
}
