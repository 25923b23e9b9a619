package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draftPlan(t *testing.T) *ReorgPlan {
	t.Helper()
	sortPlan := &SortPlan{
		Moves: []Move{
			{WineID: 1, From: "A", To: "B", Type: MoveTypeSwap},
			{WineID: 2, From: "B", To: "A", Type: MoveTypeSwap},
		},
		Stats: PlanStats{Swaps: 1, TotalMoves: 2},
	}
	return NewReorgPlan("plan-123", sortPlan, 3)
}

func TestNewReorgPlan(t *testing.T) {
	plan := draftPlan(t)

	assert.Equal(t, PlanStatusDraft, plan.Status)
	assert.Equal(t, "plan-123", plan.PlanID)
	assert.Equal(t, 1, plan.Unresolved) // 3 targets, 0 in place, 2 moved
	assert.True(t, plan.IsExecutable())

	events := plan.GetDomainEvents()
	require.Len(t, events, 1)
	computed, ok := events[0].(*SortPlanComputedEvent)
	require.True(t, ok)
	assert.Equal(t, "plan-123", computed.PlanID)
	assert.Equal(t, 2, computed.TotalMoves)
	assert.Equal(t, 1, computed.Unresolved)
	assert.Equal(t, "cellar.layout.sort-plan-computed", computed.EventType())
}

func TestReorgPlan_Execute(t *testing.T) {
	plan := draftPlan(t)
	plan.ClearDomainEvents()

	require.NoError(t, plan.Execute())

	assert.Equal(t, PlanStatusExecuted, plan.Status)
	require.NotNil(t, plan.ExecutedAt)
	assert.False(t, plan.IsExecutable())

	events := plan.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "cellar.layout.plan-executed", events[0].EventType())
}

func TestReorgPlan_ExecuteTwice(t *testing.T) {
	plan := draftPlan(t)

	require.NoError(t, plan.Execute())
	assert.ErrorIs(t, plan.Execute(), ErrPlanAlreadyExecuted)
}

func TestReorgPlan_ExecuteDiscarded(t *testing.T) {
	plan := draftPlan(t)

	require.NoError(t, plan.Discard())
	assert.ErrorIs(t, plan.Execute(), ErrPlanDiscarded)
}

func TestReorgPlan_Discard(t *testing.T) {
	plan := draftPlan(t)
	plan.ClearDomainEvents()

	require.NoError(t, plan.Discard())

	assert.Equal(t, PlanStatusDiscarded, plan.Status)
	assert.False(t, plan.IsExecutable())

	events := plan.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "cellar.layout.plan-discarded", events[0].EventType())
}

func TestReorgPlan_DiscardExecuted(t *testing.T) {
	plan := draftPlan(t)

	require.NoError(t, plan.Execute())
	assert.ErrorIs(t, plan.Discard(), ErrPlanAlreadyExecuted)
}

func TestPlanStatusIsValid(t *testing.T) {
	assert.True(t, PlanStatusDraft.IsValid())
	assert.True(t, PlanStatusExecuted.IsValid())
	assert.True(t, PlanStatusDiscarded.IsValid())
	assert.False(t, PlanStatus("pending").IsValid())
}
