package planner

import (
	"github.com/cellarworks/cellar-service/internal/domain"
)

// SwapPairOptions configures swap-pair detection. When TypeFilter is
// set, only moves of that type are considered for pairing.
type SwapPairOptions struct {
	TypeFilter domain.MoveType
}

// DetectSwapPairs finds pairs of moves that exchange two slots, where
// one move's source is the other's destination and vice versa. It
// returns a mapping from move index to partner index, recorded in both
// directions. Each index joins at most one pair; pairing is first-match
// in ascending index order. The move list need not come from
// ComputeSortPlan.
func DetectSwapPairs(moves []domain.Move, opts SwapPairOptions) map[int]int {
	pairs := make(map[int]int)

	eligible := func(m domain.Move) bool {
		return opts.TypeFilter == "" || m.Type == opts.TypeFilter
	}

	for i := 0; i < len(moves); i++ {
		if _, paired := pairs[i]; paired || !eligible(moves[i]) {
			continue
		}
		for j := i + 1; j < len(moves); j++ {
			if _, paired := pairs[j]; paired || !eligible(moves[j]) {
				continue
			}
			if moves[i].From == moves[j].To && moves[i].To == moves[j].From {
				pairs[i] = j
				pairs[j] = i
				break
			}
		}
	}

	return pairs
}

// HasMoveDependencies reports whether any move's source slot is another
// move's destination slot. When true, the moves cannot be applied in an
// arbitrary order; the executor must clear every source before writing
// any destination.
func HasMoveDependencies(moves []domain.Move) bool {
	destinations := make(map[string]struct{}, len(moves))
	for _, m := range moves {
		destinations[m.To] = struct{}{}
	}

	for i, m := range moves {
		if _, conflict := destinations[m.From]; !conflict {
			continue
		}
		// A move whose own destination equals its source does not force
		// staging on its own; check it conflicts with a different move.
		for j, other := range moves {
			if i != j && other.To == m.From {
				return true
			}
		}
	}

	return false
}
