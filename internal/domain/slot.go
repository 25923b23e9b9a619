package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Zone identifies a physical storage area of the cellar
type Zone string

const (
	ZoneFridge Zone = "fridge"
	ZoneCellar Zone = "cellar"
)

// IsValid checks if the zone is valid
func (z Zone) IsValid() bool {
	return z == ZoneFridge || z == ZoneCellar
}

// Wine colours as stored on slot occupants
const (
	ColourRed       = "red"
	ColourWhite     = "white"
	ColourRose      = "rose"
	ColourSparkling = "sparkling"
)

// SlotOccupant describes the wine physically present in a slot right now
type SlotOccupant struct {
	WineID   int    `bson:"wineId" json:"wineId"`
	WineName string `bson:"wineName,omitempty" json:"wineName,omitempty"`
	Colour   string `bson:"colour,omitempty" json:"colour,omitempty"`
	ZoneID   string `bson:"zoneId,omitempty" json:"zoneId,omitempty"`
}

// TargetSlot describes the wine that should occupy a slot after reorganization
type TargetSlot struct {
	WineID     int        `bson:"wineId" json:"wineId"`
	WineName   string     `bson:"wineName,omitempty" json:"wineName,omitempty"`
	ZoneID     string     `bson:"zoneId,omitempty" json:"zoneId,omitempty"`
	Confidence Confidence `bson:"confidence,omitempty" json:"confidence,omitempty"`
}

// CurrentLayout maps a slot location code to its current occupant.
// Slots that are empty are simply absent from the map.
type CurrentLayout map[string]SlotOccupant

// TargetLayout maps a slot location code to its desired occupant
type TargetLayout map[string]TargetSlot

// Slot is one physical storage position in the cellar grid
type Slot struct {
	Zone     Zone          `bson:"zone" json:"zone"`
	Code     string        `bson:"locationCode" json:"locationCode"`
	Row      int           `bson:"rowNum" json:"rowNum"`
	Col      int           `bson:"colNum" json:"colNum"`
	Occupant *SlotOccupant `bson:"occupant,omitempty" json:"occupant,omitempty"`
}

// IsOccupied checks if the slot currently holds a wine
func (s *Slot) IsOccupied() bool {
	return s.Occupant != nil
}

var cellarCodeRe = regexp.MustCompile(`^R(\d+)C(\d+)$`)

// ParseSlotCode parses a location code like "F7" or "R12C4" into its
// zone, row and column. Fridge slots F1-F4 sit on row 1, F5-F9 on row 2.
func ParseSlotCode(code string) (Zone, int, int, error) {
	if strings.HasPrefix(code, "F") {
		n, err := strconv.Atoi(code[1:])
		if err != nil || n < 1 || n > 9 {
			return "", 0, 0, fmt.Errorf("%w: %s", ErrInvalidSlotCode, code)
		}
		row := 1
		if n > 4 {
			row = 2
		}
		return ZoneFridge, row, n, nil
	}

	m := cellarCodeRe.FindStringSubmatch(code)
	if m == nil {
		return "", 0, 0, fmt.Errorf("%w: %s", ErrInvalidSlotCode, code)
	}

	row, _ := strconv.Atoi(m[1])
	col, _ := strconv.Atoi(m[2])
	if row < 1 || row > 19 {
		return "", 0, 0, fmt.Errorf("%w: cellar row out of range: %s", ErrInvalidSlotCode, code)
	}
	maxCol := 9
	if row == 1 {
		maxCol = 7
	}
	if col < 1 || col > maxCol {
		return "", 0, 0, fmt.Errorf("%w: cellar column out of range: %s", ErrInvalidSlotCode, code)
	}

	return ZoneCellar, row, col, nil
}

// ExpandSlotRange expands a location range like R10C1..R10C3 into the
// individual location codes it covers. A missing or empty end yields just
// the start. Fridge ranges span slot numbers; cellar ranges span columns
// within one row. Ranges across cellar rows are not expanded and return
// only the start code.
func ExpandSlotRange(start, end string) []string {
	if end == "" || start == end {
		return []string{start}
	}

	if strings.HasPrefix(start, "F") && strings.HasPrefix(end, "F") {
		from, err1 := strconv.Atoi(start[1:])
		to, err2 := strconv.Atoi(end[1:])
		if err1 != nil || err2 != nil || to < from {
			return []string{start}
		}
		codes := make([]string, 0, to-from+1)
		for i := from; i <= to; i++ {
			codes = append(codes, fmt.Sprintf("F%d", i))
		}
		return codes
	}

	sm := cellarCodeRe.FindStringSubmatch(start)
	em := cellarCodeRe.FindStringSubmatch(end)
	if sm == nil || em == nil {
		return []string{start}
	}

	startRow, _ := strconv.Atoi(sm[1])
	startCol, _ := strconv.Atoi(sm[2])
	endRow, _ := strconv.Atoi(em[1])
	endCol, _ := strconv.Atoi(em[2])

	if startRow != endRow || endCol < startCol {
		return []string{start}
	}

	codes := make([]string, 0, endCol-startCol+1)
	for col := startCol; col <= endCol; col++ {
		codes = append(codes, fmt.Sprintf("R%dC%d", startRow, col))
	}
	return codes
}

// GenerateGrid produces every physical slot of the cellar, unoccupied.
// Fridge: F1-F9 across two rows. Cellar: rows 1-19 where row 1 has
// 7 columns and the rest have 9.
func GenerateGrid() []Slot {
	slots := make([]Slot, 0, 9+7+18*9)

	for i := 1; i <= 9; i++ {
		row := 1
		if i > 4 {
			row = 2
		}
		slots = append(slots, Slot{
			Zone: ZoneFridge,
			Code: fmt.Sprintf("F%d", i),
			Row:  row,
			Col:  i,
		})
	}

	for row := 1; row <= 19; row++ {
		maxCol := 9
		if row == 1 {
			maxCol = 7
		}
		for col := 1; col <= maxCol; col++ {
			slots = append(slots, Slot{
				Zone: ZoneCellar,
				Code: fmt.Sprintf("R%dC%d", row, col),
				Row:  row,
				Col:  col,
			})
		}
	}

	return slots
}

// NormaliseColour maps free-form colour values onto the four stored
// colours. Sparkling catches prosecco and champagne labels; anything
// unrecognised defaults to white.
func NormaliseColour(colour string) string {
	c := strings.ToLower(strings.TrimSpace(colour))
	switch {
	case c == "red":
		return ColourRed
	case c == "white":
		return ColourWhite
	case c == "rose" || c == "rosé":
		return ColourRose
	case strings.Contains(c, "sparkl") || strings.Contains(c, "prosecco") || strings.Contains(c, "champagne"):
		return ColourSparkling
	default:
		return ColourWhite
	}
}
