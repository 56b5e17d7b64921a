package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/revpilot/revpilot/internal/config"
)

func TestSlidingScaleDiscount_Brackets(t *testing.T) {
	s := config.DefaultSettings()
	standard := ModeForState(MarketNeutral, s) // base 0.10, max 0.20

	testCases := []struct {
		daysOut     string
		days        int
		wantBracket string
		wantMult    float64
	}{
		{"same_day", 0, "0-3", 2.0},
		{"bracket_edge_3", 3, "0-3", 2.0},
		{"bracket_edge_4", 4, "4-7", 1.5},
		{"one_week", 7, "4-7", 1.5},
		{"two_weeks", 14, "8-14", 1.25},
		{"one_month", 30, "15-30", 1.0},
		{"far_out", 31, "31+", 0.75},
		{"very_far_out", 120, "31+", 0.75},
	}

	for _, tc := range testCases {
		t.Run(tc.daysOut, func(t *testing.T) {
			result := SlidingScaleDiscount(tc.days, standard, s)
			assert.Equal(t, tc.wantBracket, result.Bracket)
			assert.InDelta(t, tc.wantMult, result.Multiplier, 1e-9)
		})
	}
}

func TestSlidingScaleDiscount_CapBinds(t *testing.T) {
	s := config.DefaultSettings()

	// Standard: 0.10 * 2.0 = 0.20 raw, max 0.20; cap touched but not exceeded.
	standard := ModeForState(MarketNeutral, s)
	result := SlidingScaleDiscount(0, standard, s)
	assert.InDelta(t, 0.20, result.Discount, 1e-9)
	assert.False(t, result.CappedByMax)

	// Defensive: 0.15 * 2.0 = 0.30 raw, max 0.30, exactly at the boundary.
	defensive := ModeForState(MarketCold, s)
	result = SlidingScaleDiscount(2, defensive, s)
	assert.InDelta(t, 0.30, result.Discount, 1e-9)
	assert.False(t, result.CappedByMax)

	// Aggressive: 0.05 * 2.0 = 0.10, well under the 0.15 max.
	aggressive := ModeForState(MarketHot, s)
	result = SlidingScaleDiscount(1, aggressive, s)
	assert.InDelta(t, 0.10, result.Discount, 1e-9)
	assert.False(t, result.CappedByMax)

	// Force the cap to bind with a hotter base.
	wide := OperatingMode{Name: "Test", BaseDiscount: 0.18, MaxDiscount: 0.25}
	result = SlidingScaleDiscount(0, wide, s)
	assert.InDelta(t, 0.25, result.Discount, 1e-9)
	assert.True(t, result.CappedByMax)
}
