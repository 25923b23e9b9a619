// Package planner computes cellar reorganization plans. Given the
// current slot occupancy and a desired target occupancy it derives the
// minimal set of physical moves, grouped into direct moves, two-way
// swaps and longer rotation cycles. All functions are pure and safe for
// concurrent use.
package planner

import (
	"sort"

	"github.com/cellarworks/cellar-service/internal/domain"
)

// arena interns slot codes to dense integer indices so the permutation
// walk runs on flat arrays instead of string-keyed maps.
type arena struct {
	index map[string]int
	codes []string
}

func newArena(current domain.CurrentLayout, target domain.TargetLayout) *arena {
	seen := make(map[string]struct{}, len(current)+len(target))
	for code := range current {
		seen[code] = struct{}{}
	}
	for code := range target {
		seen[code] = struct{}{}
	}

	codes := make([]string, 0, len(seen))
	for code := range seen {
		codes = append(codes, code)
	}
	// Map iteration is unordered; sorting fixes the claim order so plans
	// are deterministic for identical inputs.
	sort.Strings(codes)

	index := make(map[string]int, len(codes))
	for i, code := range codes {
		index[code] = i
	}

	return &arena{index: index, codes: codes}
}

func (a *arena) size() int { return len(a.codes) }

// ComputeSortPlan compares the current layout against the target layout
// and returns the moves that transform one into the other.
//
// Target slots already holding the desired wine count as stay-in-place
// and their occupants are withheld from the source pool. Each remaining
// target slot claims the first unclaimed slot currently holding its
// wine; a wine present in several slots offers each movable occurrence
// as an independent candidate. Target slots whose wine is
// absent from the cellar produce no move and no error. The claimed
// source-to-target assignment is decomposed into disjoint chains: a
// closed chain of two is a swap, a closed chain of three or more is a
// cycle, and everything else is emitted as direct moves.
func ComputeSortPlan(current domain.CurrentLayout, target domain.TargetLayout) *domain.SortPlan {
	plan := &domain.SortPlan{Moves: []domain.Move{}}

	if len(target) == 0 {
		return plan
	}

	slots := newArena(current, target)
	n := slots.size()

	const none = -1

	wantWine := make([]int, n)
	isDisplaced := make([]bool, n)
	sourceOf := make([]int, n)
	claimed := make([]bool, n)
	visited := make([]bool, n)
	for i := range sourceOf {
		wantWine[i] = none
		sourceOf[i] = none
	}

	displaced := make([]int, 0, len(target))
	for _, code := range slots.codes {
		want, ok := target[code]
		if !ok {
			continue
		}
		if occ, occupied := current[code]; occupied && occ.WineID == want.WineID {
			plan.Stats.StayInPlace++
			// The occupant stays put, so it is not available as a source
			// for another slot wanting the same wine.
			claimed[slots.index[code]] = true
			continue
		}
		idx := slots.index[code]
		wantWine[idx] = want.WineID
		isDisplaced[idx] = true
		displaced = append(displaced, idx)
	}

	// Every current occurrence of a wine is a candidate source, in slot
	// code order.
	candidates := make(map[int][]int, len(current))
	for _, code := range slots.codes {
		if occ, ok := current[code]; ok {
			candidates[occ.WineID] = append(candidates[occ.WineID], slots.index[code])
		}
	}

	for _, t := range displaced {
		for _, s := range candidates[wantWine[t]] {
			if !claimed[s] {
				claimed[s] = true
				sourceOf[t] = s
				break
			}
		}
	}

	makeMove := func(t int, moveType domain.MoveType) domain.Move {
		to := slots.codes[t]
		want := target[to]
		return domain.Move{
			WineID:     want.WineID,
			WineName:   want.WineName,
			From:       slots.codes[sourceOf[t]],
			To:         to,
			ZoneID:     want.ZoneID,
			Confidence: want.Confidence,
			Type:       moveType,
		}
	}

	for _, start := range displaced {
		if visited[start] || sourceOf[start] == none {
			continue
		}

		// Walk target -> source; a source slot that is itself a pending
		// displacement continues the chain.
		chain := []int{start}
		visited[start] = true
		closed := false
		cur := start
		for {
			s := sourceOf[cur]
			if s == start {
				closed = true
				break
			}
			if !isDisplaced[s] || sourceOf[s] == none || visited[s] {
				break
			}
			visited[s] = true
			chain = append(chain, s)
			cur = s
		}

		switch {
		case closed && len(chain) == 2:
			plan.Stats.Swaps++
			for _, t := range chain {
				plan.Moves = append(plan.Moves, makeMove(t, domain.MoveTypeSwap))
			}
		case closed && len(chain) >= 3:
			plan.Stats.Cycles++
			for _, t := range chain {
				plan.Moves = append(plan.Moves, makeMove(t, domain.MoveTypeCycle))
			}
		default:
			// Open chains terminate at a slot that stays put or has no
			// source; every gathered step is an ordinary move.
			plan.Stats.DirectMoves += len(chain)
			for _, t := range chain {
				plan.Moves = append(plan.Moves, makeMove(t, domain.MoveTypeDirect))
			}
		}
	}

	plan.Stats.TotalMoves = len(plan.Moves)
	return plan
}
