package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMoveTypeIsValid(t *testing.T) {
	assert.True(t, MoveTypeDirect.IsValid())
	assert.True(t, MoveTypeSwap.IsValid())
	assert.True(t, MoveTypeCycle.IsValid())
	assert.False(t, MoveType("teleport").IsValid())
	assert.False(t, MoveType("").IsValid())
}

func TestConfidenceIsValid(t *testing.T) {
	assert.True(t, Confidence("").IsValid())
	assert.True(t, ConfidenceHigh.IsValid())
	assert.True(t, ConfidenceMedium.IsValid())
	assert.True(t, ConfidenceLow.IsValid())
	assert.False(t, Confidence("certain").IsValid())
}

func TestSortPlanUnresolved(t *testing.T) {
	plan := &SortPlan{
		Stats: PlanStats{StayInPlace: 2, TotalMoves: 3},
	}
	target := TargetLayout{
		"A": {WineID: 1}, "B": {WineID: 2}, "C": {WineID: 3},
		"D": {WineID: 4}, "E": {WineID: 5}, "F": {WineID: 6},
	}

	assert.Equal(t, 1, plan.Unresolved(target))
}

func TestSortPlanSourcesAndDestinations(t *testing.T) {
	plan := &SortPlan{
		Moves: []Move{
			{From: "A", To: "B"},
			{From: "B", To: "C"},
		},
	}

	assert.Equal(t, map[string]struct{}{"A": {}, "B": {}}, plan.Sources())
	assert.Equal(t, map[string]struct{}{"B": {}, "C": {}}, plan.Destinations())
}
