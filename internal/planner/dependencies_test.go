package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cellarworks/cellar-service/internal/domain"
)

func mv(from, to string, moveType domain.MoveType) domain.Move {
	return domain.Move{From: from, To: to, Type: moveType}
}

func TestDetectSwapPairs_SinglePair(t *testing.T) {
	moves := []domain.Move{
		mv("A", "B", domain.MoveTypeSwap),
		mv("B", "A", domain.MoveTypeSwap),
	}

	pairs := DetectSwapPairs(moves, SwapPairOptions{})

	assert.Equal(t, map[int]int{0: 1, 1: 0}, pairs)
}

func TestDetectSwapPairs_NoPairs(t *testing.T) {
	moves := []domain.Move{
		mv("A", "B", domain.MoveTypeDirect),
		mv("C", "D", domain.MoveTypeDirect),
	}

	pairs := DetectSwapPairs(moves, SwapPairOptions{})

	assert.Empty(t, pairs)
}

func TestDetectSwapPairs_FirstMatchWins(t *testing.T) {
	// Index 0 could pair with either 1 or 2; the lower index wins and
	// index 2 stays unpaired.
	moves := []domain.Move{
		mv("A", "B", domain.MoveTypeSwap),
		mv("B", "A", domain.MoveTypeSwap),
		mv("B", "A", domain.MoveTypeSwap),
	}

	pairs := DetectSwapPairs(moves, SwapPairOptions{})

	assert.Equal(t, map[int]int{0: 1, 1: 0}, pairs)
	_, paired := pairs[2]
	assert.False(t, paired)
}

func TestDetectSwapPairs_TypeFilter(t *testing.T) {
	moves := []domain.Move{
		mv("A", "B", domain.MoveTypeDirect),
		mv("B", "A", domain.MoveTypeSwap),
		mv("C", "D", domain.MoveTypeSwap),
		mv("D", "C", domain.MoveTypeSwap),
	}

	pairs := DetectSwapPairs(moves, SwapPairOptions{TypeFilter: domain.MoveTypeSwap})

	// Moves 0 and 1 mirror each other but 0 is filtered out.
	assert.Equal(t, map[int]int{2: 3, 3: 2}, pairs)
}

func TestDetectSwapPairs_MultiplePairs(t *testing.T) {
	moves := []domain.Move{
		mv("A", "B", domain.MoveTypeSwap),
		mv("C", "D", domain.MoveTypeSwap),
		mv("B", "A", domain.MoveTypeSwap),
		mv("D", "C", domain.MoveTypeSwap),
	}

	pairs := DetectSwapPairs(moves, SwapPairOptions{})

	assert.Equal(t, map[int]int{0: 2, 2: 0, 1: 3, 3: 1}, pairs)
}

func TestHasMoveDependencies_Chain(t *testing.T) {
	moves := []domain.Move{
		mv("A", "B", domain.MoveTypeDirect),
		mv("B", "C", domain.MoveTypeDirect),
	}

	assert.True(t, HasMoveDependencies(moves))
}

func TestHasMoveDependencies_Independent(t *testing.T) {
	moves := []domain.Move{
		mv("A", "B", domain.MoveTypeDirect),
		mv("C", "D", domain.MoveTypeDirect),
	}

	assert.False(t, HasMoveDependencies(moves))
}

func TestHasMoveDependencies_Swap(t *testing.T) {
	moves := []domain.Move{
		mv("A", "B", domain.MoveTypeSwap),
		mv("B", "A", domain.MoveTypeSwap),
	}

	assert.True(t, HasMoveDependencies(moves))
}

func TestHasMoveDependencies_Empty(t *testing.T) {
	assert.False(t, HasMoveDependencies(nil))
}

func TestHasMoveDependencies_PlannerOutput(t *testing.T) {
	// A plan containing a cycle always needs the two-phase discipline.
	current := domain.CurrentLayout{"A": occ(1), "B": occ(2), "C": occ(3)}
	target := domain.TargetLayout{"A": tgt(2), "B": tgt(3), "C": tgt(1)}

	plan := ComputeSortPlan(current, target)

	assert.True(t, HasMoveDependencies(plan.Moves))
}
