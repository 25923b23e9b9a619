package domain

// MoveType classifies how a move relates to the rest of its plan. It is
// descriptive metadata only; every move is executed through the same
// two-phase clear-then-fill discipline regardless of type.
type MoveType string

const (
	// MoveTypeDirect is a move into a slot nothing else needs to vacate
	MoveTypeDirect MoveType = "direct"
	// MoveTypeSwap is one half of a two-way exchange between slots
	MoveTypeSwap MoveType = "swap"
	// MoveTypeCycle is one step of an N-way rotation, N >= 3
	MoveTypeCycle MoveType = "cycle"
)

// IsValid checks if the move type is valid
func (t MoveType) IsValid() bool {
	switch t {
	case MoveTypeDirect, MoveTypeSwap, MoveTypeCycle:
		return true
	default:
		return false
	}
}

// Confidence grades how certain the target assignment is about a slot
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// IsValid checks if the confidence is valid. Empty is allowed since the
// target side may omit it.
func (c Confidence) IsValid() bool {
	switch c {
	case "", ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	default:
		return false
	}
}

// Move is one atomic relocation of a wine between two slots. It is a
// value object handed to the plan executor, never persisted on its own.
type Move struct {
	WineID     int        `bson:"wineId" json:"wineId"`
	WineName   string     `bson:"wineName,omitempty" json:"wineName,omitempty"`
	From       string     `bson:"from" json:"from"`
	To         string     `bson:"to" json:"to"`
	ZoneID     string     `bson:"zoneId,omitempty" json:"zoneId,omitempty"`
	Confidence Confidence `bson:"confidence,omitempty" json:"confidence,omitempty"`
	Type       MoveType   `bson:"moveType" json:"moveType"`
}

// PlanStats summarises a computed sort plan. Cycles counts distinct
// rotations of length three or more, not the moves inside them.
type PlanStats struct {
	StayInPlace int `bson:"stayInPlace" json:"stayInPlace"`
	DirectMoves int `bson:"directMoves" json:"directMoves"`
	Swaps       int `bson:"swaps" json:"swaps"`
	Cycles      int `bson:"cycles" json:"cycles"`
	TotalMoves  int `bson:"totalMoves" json:"totalMoves"`
}

// SortPlan is the one-shot output of the sort planner: an ordered move
// list (cycle members grouped contiguously) plus summary statistics.
type SortPlan struct {
	Moves []Move    `bson:"moves" json:"moves"`
	Stats PlanStats `bson:"stats" json:"stats"`
}

// Unresolved reports how many target slots produced neither a move nor a
// stay-in-place, meaning the desired wine is not in the cellar. Callers
// audit this count; the planner itself drops such slots silently.
func (p *SortPlan) Unresolved(target TargetLayout) int {
	return len(target) - p.Stats.StayInPlace - p.Stats.TotalMoves
}

// Sources returns the set of slot codes vacated by the plan
func (p *SortPlan) Sources() map[string]struct{} {
	sources := make(map[string]struct{}, len(p.Moves))
	for _, m := range p.Moves {
		sources[m.From] = struct{}{}
	}
	return sources
}

// Destinations returns the set of slot codes filled by the plan
func (p *SortPlan) Destinations() map[string]struct{} {
	dests := make(map[string]struct{}, len(p.Moves))
	for _, m := range p.Moves {
		dests[m.To] = struct{}{}
	}
	return dests
}
