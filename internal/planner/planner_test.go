package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellarworks/cellar-service/internal/domain"
)

func occ(wineID int) domain.SlotOccupant {
	return domain.SlotOccupant{WineID: wineID}
}

func tgt(wineID int) domain.TargetSlot {
	return domain.TargetSlot{WineID: wineID}
}

// applyMoves plays a plan back onto a layout: every source slot is
// cleared before any target slot is written.
func applyMoves(current domain.CurrentLayout, moves []domain.Move) domain.CurrentLayout {
	next := make(domain.CurrentLayout, len(current))
	for code, o := range current {
		next[code] = o
	}
	for _, m := range moves {
		delete(next, m.From)
	}
	for _, m := range moves {
		next[m.To] = domain.SlotOccupant{WineID: m.WineID, WineName: m.WineName, ZoneID: m.ZoneID}
	}
	return next
}

func TestComputeSortPlan_EmptyInputs(t *testing.T) {
	plan := ComputeSortPlan(domain.CurrentLayout{}, domain.TargetLayout{})

	assert.Empty(t, plan.Moves)
	assert.Equal(t, domain.PlanStats{}, plan.Stats)
}

func TestComputeSortPlan_NoOp(t *testing.T) {
	current := domain.CurrentLayout{
		"R2C1": occ(1),
		"R2C2": occ(2),
		"F3":   occ(3),
	}
	target := domain.TargetLayout{
		"R2C1": tgt(1),
		"R2C2": tgt(2),
		"F3":   tgt(3),
	}

	plan := ComputeSortPlan(current, target)

	assert.Empty(t, plan.Moves)
	assert.Equal(t, 3, plan.Stats.StayInPlace)
	assert.Equal(t, 0, plan.Stats.TotalMoves)
}

func TestComputeSortPlan_DirectMove(t *testing.T) {
	current := domain.CurrentLayout{
		"R5C1": occ(7),
	}
	target := domain.TargetLayout{
		"F2": tgt(7),
	}

	plan := ComputeSortPlan(current, target)

	require.Len(t, plan.Moves, 1)
	assert.Equal(t, domain.Move{WineID: 7, From: "R5C1", To: "F2", Type: domain.MoveTypeDirect}, plan.Moves[0])
	assert.Equal(t, domain.PlanStats{DirectMoves: 1, TotalMoves: 1}, plan.Stats)
}

func TestComputeSortPlan_Swap(t *testing.T) {
	current := domain.CurrentLayout{
		"A": occ(1),
		"B": occ(2),
	}
	target := domain.TargetLayout{
		"A": tgt(2),
		"B": tgt(1),
	}

	plan := ComputeSortPlan(current, target)

	require.Len(t, plan.Moves, 2)
	byTo := map[string]domain.Move{}
	for _, m := range plan.Moves {
		assert.Equal(t, domain.MoveTypeSwap, m.Type)
		byTo[m.To] = m
	}
	assert.Equal(t, 2, byTo["A"].WineID)
	assert.Equal(t, "B", byTo["A"].From)
	assert.Equal(t, 1, byTo["B"].WineID)
	assert.Equal(t, "A", byTo["B"].From)
	assert.Equal(t, domain.PlanStats{Swaps: 1, TotalMoves: 2}, plan.Stats)
}

func TestComputeSortPlan_ThreeCycle(t *testing.T) {
	current := domain.CurrentLayout{
		"A": occ(1),
		"B": occ(2),
		"C": occ(3),
	}
	target := domain.TargetLayout{
		"A": tgt(2),
		"B": tgt(3),
		"C": tgt(1),
	}

	plan := ComputeSortPlan(current, target)

	require.Len(t, plan.Moves, 3)
	for _, m := range plan.Moves {
		assert.Equal(t, domain.MoveTypeCycle, m.Type)
	}
	assert.Equal(t, 1, plan.Stats.Cycles)
	assert.Equal(t, 3, plan.Stats.TotalMoves)
	assert.Equal(t, 0, plan.Stats.Swaps)
	assert.Equal(t, 0, plan.Stats.DirectMoves)
}

func TestComputeSortPlan_CycleMembersContiguous(t *testing.T) {
	// A 3-cycle plus an unrelated direct move; the cycle's moves must
	// sit next to each other in the output.
	current := domain.CurrentLayout{
		"A": occ(1),
		"B": occ(2),
		"C": occ(3),
		"Z": occ(9),
	}
	target := domain.TargetLayout{
		"A": tgt(2),
		"B": tgt(3),
		"C": tgt(1),
		"Y": tgt(9),
	}

	plan := ComputeSortPlan(current, target)

	require.Len(t, plan.Moves, 4)
	firstCycle := -1
	lastCycle := -1
	for i, m := range plan.Moves {
		if m.Type == domain.MoveTypeCycle {
			if firstCycle == -1 {
				firstCycle = i
			}
			lastCycle = i
		}
	}
	assert.Equal(t, 2, lastCycle-firstCycle)
}

func TestComputeSortPlan_UnresolvableTargetDropped(t *testing.T) {
	current := domain.CurrentLayout{
		"A": occ(1),
	}
	target := domain.TargetLayout{
		"B": tgt(1),
		"C": tgt(42), // wine 42 is nowhere in the cellar
	}

	plan := ComputeSortPlan(current, target)

	require.Len(t, plan.Moves, 1)
	assert.Equal(t, "B", plan.Moves[0].To)
	assert.Equal(t, 1, plan.Stats.TotalMoves)
	assert.Equal(t, 1, plan.Unresolved(target))
}

func TestComputeSortPlan_DuplicateWineSources(t *testing.T) {
	// The same wine sits in two slots; each occurrence is claimed at
	// most once, in slot code order.
	current := domain.CurrentLayout{
		"A": occ(5),
		"B": occ(5),
	}
	target := domain.TargetLayout{
		"C": tgt(5),
		"D": tgt(5),
	}

	plan := ComputeSortPlan(current, target)

	require.Len(t, plan.Moves, 2)
	froms := map[string]bool{}
	for _, m := range plan.Moves {
		assert.Equal(t, 5, m.WineID)
		froms[m.From] = true
	}
	assert.True(t, froms["A"])
	assert.True(t, froms["B"])
}

func TestComputeSortPlan_StayInPlaceNotUsedAsSource(t *testing.T) {
	// Wine 1 sits in A and B; the target keeps it in A and adds a copy
	// in C. A is staying put, so only B may be vacated.
	current := domain.CurrentLayout{
		"A": occ(1),
		"B": occ(1),
	}
	target := domain.TargetLayout{
		"A": tgt(1),
		"C": tgt(1),
	}

	plan := ComputeSortPlan(current, target)

	require.Len(t, plan.Moves, 1)
	assert.Equal(t, "B", plan.Moves[0].From)
	assert.Equal(t, "C", plan.Moves[0].To)
	assert.Equal(t, 1, plan.Stats.StayInPlace)

	next := applyMoves(current, plan.Moves)
	replay := ComputeSortPlan(next, target)

	assert.Empty(t, replay.Moves)
	assert.Equal(t, len(target), replay.Stats.StayInPlace)
}

func TestComputeSortPlan_ChainTerminatesAtStationarySlot(t *testing.T) {
	// B's wine goes to A, C's wine goes to B, and C then stays empty:
	// an open chain, emitted as direct moves.
	current := domain.CurrentLayout{
		"A": occ(1),
		"B": occ(2),
		"C": occ(3),
	}
	target := domain.TargetLayout{
		"A": tgt(2),
		"B": tgt(3),
	}

	plan := ComputeSortPlan(current, target)

	require.Len(t, plan.Moves, 2)
	for _, m := range plan.Moves {
		assert.Equal(t, domain.MoveTypeDirect, m.Type)
	}
	assert.Equal(t, domain.PlanStats{DirectMoves: 2, TotalMoves: 2}, plan.Stats)
}

func TestComputeSortPlan_Disjointness(t *testing.T) {
	current := domain.CurrentLayout{
		"A": occ(1), "B": occ(2), "C": occ(3), "D": occ(4), "E": occ(5),
	}
	target := domain.TargetLayout{
		"A": tgt(2), "B": tgt(1), "C": tgt(4), "D": tgt(5), "E": tgt(3),
	}

	plan := ComputeSortPlan(current, target)

	froms := map[string]int{}
	tos := map[string]int{}
	for _, m := range plan.Moves {
		froms[m.From]++
		tos[m.To]++
	}
	for code, n := range froms {
		assert.Equal(t, 1, n, "slot %s vacated more than once", code)
	}
	for code, n := range tos {
		assert.Equal(t, 1, n, "slot %s filled more than once", code)
	}
}

func TestComputeSortPlan_Idempotence(t *testing.T) {
	current := domain.CurrentLayout{
		"A": occ(1), "B": occ(2), "C": occ(3), "D": occ(4), "E": occ(7),
	}
	target := domain.TargetLayout{
		"A": tgt(2), "B": tgt(3), "C": tgt(1), "D": tgt(4), "F": tgt(7),
	}

	plan := ComputeSortPlan(current, target)
	require.NotEmpty(t, plan.Moves)

	next := applyMoves(current, plan.Moves)
	replay := ComputeSortPlan(next, target)

	assert.Empty(t, replay.Moves)
	assert.Equal(t, len(target), replay.Stats.StayInPlace)
}

func TestComputeSortPlan_Conservation(t *testing.T) {
	current := domain.CurrentLayout{
		"A": occ(1), "B": occ(2), "C": occ(3),
	}
	target := domain.TargetLayout{
		"A": tgt(3), "B": tgt(2), "C": tgt(1), "D": tgt(99),
	}

	plan := ComputeSortPlan(current, target)

	moved := map[int]bool{}
	for _, m := range plan.Moves {
		moved[m.WineID] = true
	}
	// Wines 1 and 3 swap, wine 2 stays, wine 99 is absent.
	assert.Equal(t, map[int]bool{1: true, 3: true}, moved)
	assert.Equal(t, 1, plan.Stats.StayInPlace)
}

func TestComputeSortPlan_Deterministic(t *testing.T) {
	current := domain.CurrentLayout{
		"A": occ(5), "B": occ(5), "C": occ(5),
	}
	target := domain.TargetLayout{
		"X": tgt(5), "Y": tgt(5),
	}

	first := ComputeSortPlan(current, target)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, ComputeSortPlan(current, target))
	}
}

func TestComputeSortPlan_CarriesTargetMetadata(t *testing.T) {
	current := domain.CurrentLayout{
		"R3C1": occ(11),
	}
	target := domain.TargetLayout{
		"F1": {WineID: 11, WineName: "Chablis 2019", ZoneID: "fridge", Confidence: domain.ConfidenceHigh},
	}

	plan := ComputeSortPlan(current, target)

	require.Len(t, plan.Moves, 1)
	m := plan.Moves[0]
	assert.Equal(t, "Chablis 2019", m.WineName)
	assert.Equal(t, "fridge", m.ZoneID)
	assert.Equal(t, domain.ConfidenceHigh, m.Confidence)
}
