package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSlotCode(t *testing.T) {
	tests := []struct {
		code    string
		zone    Zone
		row     int
		col     int
		wantErr bool
	}{
		{code: "F1", zone: ZoneFridge, row: 1, col: 1},
		{code: "F4", zone: ZoneFridge, row: 1, col: 4},
		{code: "F5", zone: ZoneFridge, row: 2, col: 5},
		{code: "F9", zone: ZoneFridge, row: 2, col: 9},
		{code: "R1C1", zone: ZoneCellar, row: 1, col: 1},
		{code: "R1C7", zone: ZoneCellar, row: 1, col: 7},
		{code: "R12C4", zone: ZoneCellar, row: 12, col: 4},
		{code: "R19C9", zone: ZoneCellar, row: 19, col: 9},
		{code: "F0", wantErr: true},
		{code: "F10", wantErr: true},
		{code: "R1C8", wantErr: true}, // row 1 only has 7 columns
		{code: "R20C1", wantErr: true},
		{code: "R5C10", wantErr: true},
		{code: "X3", wantErr: true},
		{code: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			zone, row, col, err := ParseSlotCode(tt.code)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSlotCode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.zone, zone)
			assert.Equal(t, tt.row, row)
			assert.Equal(t, tt.col, col)
		})
	}
}

func TestExpandSlotRange(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
		want  []string
	}{
		{name: "no end", start: "R10C1", end: "", want: []string{"R10C1"}},
		{name: "same slot", start: "F3", end: "F3", want: []string{"F3"}},
		{name: "cellar span", start: "R10C1", end: "R10C3", want: []string{"R10C1", "R10C2", "R10C3"}},
		{name: "fridge span", start: "F2", end: "F5", want: []string{"F2", "F3", "F4", "F5"}},
		{name: "cross row not expanded", start: "R10C8", end: "R11C2", want: []string{"R10C8"}},
		{name: "reversed span", start: "R10C5", end: "R10C2", want: []string{"R10C5"}},
		{name: "garbage end", start: "R10C1", end: "banana", want: []string{"R10C1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandSlotRange(tt.start, tt.end))
		})
	}
}

func TestGenerateGrid(t *testing.T) {
	slots := GenerateGrid()

	// 9 fridge slots, 7 in cellar row 1, 9 in each of rows 2-19.
	assert.Len(t, slots, 9+7+18*9)

	byZone := map[Zone]int{}
	byCode := map[string]Slot{}
	for _, s := range slots {
		byZone[s.Zone]++
		byCode[s.Code] = s
		assert.False(t, s.IsOccupied())
	}
	assert.Equal(t, 9, byZone[ZoneFridge])
	assert.Equal(t, 7+18*9, byZone[ZoneCellar])

	assert.Equal(t, 1, byCode["F4"].Row)
	assert.Equal(t, 2, byCode["F5"].Row)
	_, hasR1C8 := byCode["R1C8"]
	assert.False(t, hasR1C8)

	// Every generated code parses back to the same position.
	for _, s := range slots {
		zone, row, col, err := ParseSlotCode(s.Code)
		require.NoError(t, err)
		assert.Equal(t, s.Zone, zone)
		assert.Equal(t, s.Row, row)
		assert.Equal(t, s.Col, col)
	}
}

func TestNormaliseColour(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"red", ColourRed},
		{"Red ", ColourRed},
		{"white", ColourWhite},
		{"rose", ColourRose},
		{"rosé", ColourRose},
		{"sparkling", ColourSparkling},
		{"Prosecco", ColourSparkling},
		{"champagne", ColourSparkling},
		{"orange", ColourWhite},
		{"", ColourWhite},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormaliseColour(tt.in), "input %q", tt.in)
	}
}

func TestZoneIsValid(t *testing.T) {
	assert.True(t, ZoneFridge.IsValid())
	assert.True(t, ZoneCellar.IsValid())
	assert.False(t, Zone("attic").IsValid())
}
