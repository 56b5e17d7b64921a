// Package config holds the tunable numeric settings for the revenue decision
// engine. Settings are loaded once at construction time; there is no runtime
// reconfiguration.
package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// ModeSettings is the discount posture for one operating mode.
type ModeSettings struct {
	BaseDiscount       float64 `yaml:"base_discount"`
	MaxDiscount        float64 `yaml:"max_discount"`
	OccupancyThreshold float64 `yaml:"occupancy_threshold"`
}

// DiscountBracket maps a days-out range to a multiplier on the mode's base
// discount. MaxDays < 0 means open-ended.
type DiscountBracket struct {
	Label      string  `yaml:"label"`
	MinDays    int     `yaml:"min_days"`
	MaxDays    int     `yaml:"max_days"`
	Multiplier float64 `yaml:"multiplier"`
}

// Settings is the full threshold table for the engine. Immutable after load.
type Settings struct {
	// Adaptive Performance Score bounds and smoothing.
	APSMin           float64 `yaml:"aps_min"`
	APSMax           float64 `yaml:"aps_max"`
	APSHistoryWeight float64 `yaml:"aps_history_weight"`

	// Price bounds.
	PeakPriceMultiplier float64 `yaml:"peak_price_multiplier"`

	// Comparable selection.
	MinComps int `yaml:"min_comps"`

	// Denominator floors for undefined-safe ratios.
	MinOccupancyThreshold float64 `yaml:"min_occupancy_threshold"`
	MinRevPARThreshold    float64 `yaml:"min_revpar_threshold"`
	MinADRThreshold       float64 `yaml:"min_adr_threshold"`

	// Monthly diagnosis decision tree.
	UnderpricingOccMult    float64 `yaml:"underpricing_occ_mult"`
	MispricingRevPARMult   float64 `yaml:"mispricing_revpar_mult"`
	OverpricingOccMult     float64 `yaml:"overpricing_occ_mult"`
	OverpricingCorrection  float64 `yaml:"overpricing_correction"`
	MaxIncreaseMultiplier  float64 `yaml:"max_increase_multiplier"`
	MaxDecreaseMultiplier  float64 `yaml:"max_decrease_multiplier"`

	// Weekly bell-curve scheduler.
	AuditLookaheadDays    int     `yaml:"audit_lookahead_days"`
	ForwardBookingWindow  int     `yaml:"forward_booking_window"`
	DecayWindowPercentage float64 `yaml:"decay_window_percentage"`
	DecayFloor            float64 `yaml:"decay_floor"`

	// Market state thresholds.
	HotOccupancy  float64 `yaml:"hot_occupancy"`
	HotPaceRatio  float64 `yaml:"hot_pace_ratio"`
	ColdOccupancy float64 `yaml:"cold_occupancy"`
	ColdPaceRatio float64 `yaml:"cold_pace_ratio"`

	// Back-half early-demand rule.
	EarlyDemandMultiplier    float64 `yaml:"early_demand_multiplier"`
	EarlyDemandMaxMultiplier float64 `yaml:"early_demand_max_multiplier"`
	EarlyDemandBasePct       float64 `yaml:"early_demand_base_pct"`
	EarlyDemandMaxPct        float64 `yaml:"early_demand_max_pct"`

	// Front-half lagging-occupancy rule.
	LaggingOccupancyGap   float64 `yaml:"lagging_occupancy_gap"`
	MaxJustifiablePremium float64 `yaml:"max_justifiable_premium"`

	// Promotion scanner.
	VelocityGapThreshold    float64 `yaml:"velocity_gap_threshold"`
	VelocityGapDiscount     float64 `yaml:"velocity_gap_discount"`
	LastMinuteDaysOut       int     `yaml:"last_minute_days_out"`
	LastMinuteOccupancy     float64 `yaml:"last_minute_occupancy"`
	LastMinuteDiscount      float64 `yaml:"last_minute_discount"`
	ExtendedStayPropertyMax float64 `yaml:"extended_stay_property_max"`
	ExtendedStayMarketMin   float64 `yaml:"extended_stay_market_min"`
	ExtendedStayDiscount    float64 `yaml:"extended_stay_discount"`
	ExtendedStayMinNights   int     `yaml:"extended_stay_min_nights"`

	// Operating modes keyed by market state.
	Aggressive ModeSettings `yaml:"aggressive"`
	Standard   ModeSettings `yaml:"standard"`
	Defensive  ModeSettings `yaml:"defensive"`

	// Sliding-scale discount brackets, ascending by day range.
	Brackets []DiscountBracket `yaml:"brackets"`
}

// DecayWindow returns the day offset at which the booking phase flips and
// front-half APS decay begins.
func (s Settings) DecayWindow() int {
	return int(math.Round(float64(s.ForwardBookingWindow) * s.DecayWindowPercentage))
}

// DefaultSettings returns the production threshold table.
func DefaultSettings() Settings {
	return Settings{
		APSMin:           0.80,
		APSMax:           1.60,
		APSHistoryWeight: 0.70,

		PeakPriceMultiplier: 1.25,

		MinComps: 10,

		MinOccupancyThreshold: 0.01,
		MinRevPARThreshold:    1.0,
		MinADRThreshold:       1.0,

		UnderpricingOccMult:   1.5,
		MispricingRevPARMult:  0.8,
		OverpricingOccMult:    0.7,
		OverpricingCorrection: 0.90,
		MaxIncreaseMultiplier: 1.50,
		MaxDecreaseMultiplier: 0.80,

		AuditLookaheadDays:    14,
		ForwardBookingWindow:  90,
		DecayWindowPercentage: 0.30,
		DecayFloor:            0.70,

		HotOccupancy:  0.75,
		HotPaceRatio:  1.10,
		ColdOccupancy: 0.45,
		ColdPaceRatio: 0.90,

		EarlyDemandMultiplier:    2.5,
		EarlyDemandMaxMultiplier: 5.0,
		EarlyDemandBasePct:       0.20,
		EarlyDemandMaxPct:        0.25,

		LaggingOccupancyGap:   0.20,
		MaxJustifiablePremium: 1.10,

		VelocityGapThreshold:    0.15,
		VelocityGapDiscount:     0.15,
		LastMinuteDaysOut:       7,
		LastMinuteOccupancy:     0.50,
		LastMinuteDiscount:      0.20,
		ExtendedStayPropertyMax: 3,
		ExtendedStayMarketMin:   4,
		ExtendedStayDiscount:    0.10,
		ExtendedStayMinNights:   5,

		Aggressive: ModeSettings{BaseDiscount: 0.05, MaxDiscount: 0.15, OccupancyThreshold: 0.80},
		Standard:   ModeSettings{BaseDiscount: 0.10, MaxDiscount: 0.20, OccupancyThreshold: 0.60},
		Defensive:  ModeSettings{BaseDiscount: 0.15, MaxDiscount: 0.30, OccupancyThreshold: 0.40},

		Brackets: []DiscountBracket{
			{Label: "0-3", MinDays: 0, MaxDays: 3, Multiplier: 2.0},
			{Label: "4-7", MinDays: 4, MaxDays: 7, Multiplier: 1.5},
			{Label: "8-14", MinDays: 8, MaxDays: 14, Multiplier: 1.25},
			{Label: "15-30", MinDays: 15, MaxDays: 30, Multiplier: 1.0},
			{Label: "31+", MinDays: 31, MaxDays: -1, Multiplier: 0.75},
		},
	}
}

// LoadSettings reads a YAML overlay on top of the defaults. An empty path
// returns the defaults unchanged.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()
	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return settings, fmt.Errorf("failed to read settings file: %w", err)
	}
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("failed to parse settings file: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return settings, fmt.Errorf("invalid settings: %w", err)
	}
	return settings, nil
}

// Validate rejects threshold tables that would break engine invariants.
func (s Settings) Validate() error {
	if s.APSMin <= 0 || s.APSMax <= s.APSMin {
		return fmt.Errorf("APS bounds must satisfy 0 < min < max, got [%.2f, %.2f]", s.APSMin, s.APSMax)
	}
	if s.APSHistoryWeight < 0 || s.APSHistoryWeight > 1 {
		return fmt.Errorf("APS history weight %.2f outside [0, 1]", s.APSHistoryWeight)
	}
	if s.MinComps <= 0 {
		return fmt.Errorf("min comps must be positive, got %d", s.MinComps)
	}
	if s.AuditLookaheadDays <= 0 {
		return fmt.Errorf("audit lookahead must be positive, got %d", s.AuditLookaheadDays)
	}
	if s.MaxIncreaseMultiplier < 1.0 {
		return fmt.Errorf("max increase multiplier %.2f below 1.0", s.MaxIncreaseMultiplier)
	}
	if s.MaxDecreaseMultiplier <= 0 || s.MaxDecreaseMultiplier > 1.0 {
		return fmt.Errorf("max decrease multiplier %.2f outside (0, 1]", s.MaxDecreaseMultiplier)
	}
	if len(s.Brackets) == 0 {
		return fmt.Errorf("at least one discount bracket required")
	}
	for i, b := range s.Brackets {
		if b.MaxDays >= 0 && b.MaxDays < b.MinDays {
			return fmt.Errorf("bracket %d (%s) has max_days %d below min_days %d", i, b.Label, b.MaxDays, b.MinDays)
		}
	}
	for _, mode := range []ModeSettings{s.Aggressive, s.Standard, s.Defensive} {
		if mode.BaseDiscount < 0 || mode.MaxDiscount < mode.BaseDiscount {
			return fmt.Errorf("mode discounts must satisfy 0 <= base <= max, got base %.2f max %.2f",
				mode.BaseDiscount, mode.MaxDiscount)
		}
	}
	return nil
}
