package engine

import (
	"fmt"
	"time"

	"github.com/revpilot/revpilot/internal/config"
)

// PacingInputs are the forward-looking demand signals for the weekly audit.
type PacingInputs struct {
	ForwardOccupancy float64 `json:"forward_occupancy"` // booked share of the forward window
	HistoricalPace   float64 `json:"historical_pace"`   // same-window occupancy pace from prior years
	MarketOccupancy  float64 `json:"market_occupancy"`  // comp set forward occupancy
	OurOccupancy     float64 `json:"our_occupancy"`     // property forward occupancy
	FairMarketPrice  float64 `json:"fair_market_price"` // comp set rate for the audited stay dates
	OurCurrentPrice  float64 `json:"our_current_price"` // property's listed nightly rate
}

// ClassifyPhase splits the booking window at the decay transition point.
// The transition day itself belongs to the back half: only days strictly
// inside the window decay.
func ClassifyPhase(daysToArrival int, s config.Settings) BookingPhase {
	if daysToArrival >= s.DecayWindow() {
		return PhaseBackHalf
	}
	return PhaseFrontHalf
}

// ClassifyMarketState buckets forward demand pace once per run.
func ClassifyMarketState(forwardOcc, historicalPace float64, s config.Settings) MarketState {
	paceRatio := 1.0
	if historicalPace > 0 {
		paceRatio = forwardOcc / historicalPace
	}

	switch {
	case forwardOcc >= s.HotOccupancy || paceRatio >= s.HotPaceRatio:
		return MarketHot
	case forwardOcc <= s.ColdOccupancy || paceRatio <= s.ColdPaceRatio:
		return MarketCold
	default:
		return MarketNeutral
	}
}

// ModeForState maps a market state to its discount posture.
func ModeForState(state MarketState, s config.Settings) OperatingMode {
	switch state {
	case MarketHot:
		return OperatingMode{Name: "Aggressive", BaseDiscount: s.Aggressive.BaseDiscount,
			MaxDiscount: s.Aggressive.MaxDiscount, OccupancyThreshold: s.Aggressive.OccupancyThreshold}
	case MarketCold:
		return OperatingMode{Name: "Defensive", BaseDiscount: s.Defensive.BaseDiscount,
			MaxDiscount: s.Defensive.MaxDiscount, OccupancyThreshold: s.Defensive.OccupancyThreshold}
	default:
		return OperatingMode{Name: "Standard", BaseDiscount: s.Standard.BaseDiscount,
			MaxDiscount: s.Standard.MaxDiscount, OccupancyThreshold: s.Standard.OccupancyThreshold}
	}
}

// EffectiveAPS applies linear front-half decay: full APS influence at the
// transition point tapering to the decay floor at arrival day, so close-in
// dates trade rate ambition for fill-rate.
func EffectiveAPS(fullAPS float64, daysToArrival int, s config.Settings) float64 {
	window := s.DecayWindow()
	if daysToArrival >= window || window <= 0 {
		return fullAPS
	}
	progress := float64(window-daysToArrival) / float64(window)
	multiplier := 1.0 - progress*(1.0-s.DecayFloor)
	return fullAPS * multiplier
}

// dayContext carries the per-run inputs each audited day is judged against.
type dayContext struct {
	today    time.Time
	pacing   PacingInputs
	fullAPS  float64
	state    MarketState
	mode     OperatingMode
	settings config.Settings
}

// AuditDay classifies one day of the lookahead window and returns its
// recommendation, or ok=false when no rule fires. Days without a match are
// omitted from the schedule entirely.
func AuditDay(daysToArrival int, ctx dayContext) (Recommendation, bool) {
	phase := ClassifyPhase(daysToArrival, ctx.settings)
	if phase == PhaseBackHalf {
		return auditBackHalf(daysToArrival, ctx)
	}
	return auditFrontHalf(daysToArrival, ctx)
}

// auditBackHalf applies the early-demand rule: when the property is booking
// far ahead of market, rate headroom exists.
func auditBackHalf(daysToArrival int, ctx dayContext) (Recommendation, bool) {
	s := ctx.settings

	marketOcc := ctx.pacing.MarketOccupancy
	if marketOcc < s.MinOccupancyThreshold {
		marketOcc = s.MinOccupancyThreshold
	}
	demandMultiplier := ctx.pacing.OurOccupancy / marketOcc
	if demandMultiplier <= s.EarlyDemandMultiplier {
		return Recommendation{}, false
	}

	span := s.EarlyDemandMaxMultiplier - s.EarlyDemandMultiplier
	strength := (demandMultiplier - s.EarlyDemandMultiplier) / span
	if strength > 1.0 {
		strength = 1.0
	}
	pct := s.EarlyDemandBasePct + strength*(s.EarlyDemandMaxPct-s.EarlyDemandBasePct)

	current := ctx.pacing.OurCurrentPrice
	return Recommendation{
		Date:           ctx.today.AddDate(0, 0, daysToArrival),
		DaysToArrival:  daysToArrival,
		Type:           RecRateIncrease,
		CurrentPrice:   current,
		SuggestedPrice: current * (1.0 + pct),
		Phase:          PhaseBackHalf,
		MarketState:    ctx.state,
		OperatingMode:  ctx.mode.Name,
		Rationale: fmt.Sprintf(
			"demand pacing %.1fx market this far out; raise rate %.0f%% to capture ADR",
			demandMultiplier, pct*100),
	}, true
}

// auditFrontHalf applies the lagging-occupancy rule: when the property trails
// market fill, either the rate is above what its APS justifies (drop it) or
// the rate is fair and a promotion should close the gap.
func auditFrontHalf(daysToArrival int, ctx dayContext) (Recommendation, bool) {
	s := ctx.settings

	lagging := ctx.pacing.OurOccupancy < ctx.pacing.MarketOccupancy*(1.0-s.LaggingOccupancyGap)
	if !lagging {
		return Recommendation{}, false
	}

	effective := EffectiveAPS(ctx.fullAPS, daysToArrival, s)
	apsAdjustedPrice := ctx.pacing.FairMarketPrice * effective
	maxJustifiable := apsAdjustedPrice * s.MaxJustifiablePremium
	current := ctx.pacing.OurCurrentPrice

	date := ctx.today.AddDate(0, 0, daysToArrival)

	if current > maxJustifiable {
		return Recommendation{
			Date:           date,
			DaysToArrival:  daysToArrival,
			Type:           RecPriceDrop,
			CurrentPrice:   current,
			SuggestedPrice: apsAdjustedPrice,
			Phase:          PhaseFrontHalf,
			MarketState:    ctx.state,
			OperatingMode:  ctx.mode.Name,
			Rationale: fmt.Sprintf(
				"occupancy lagging market and rate %.0f above APS-justified ceiling %.0f; realign to market",
				current, maxJustifiable),
		}, true
	}

	discount := SlidingScaleDiscount(daysToArrival, ctx.mode, s)
	return Recommendation{
		Date:           date,
		DaysToArrival:  daysToArrival,
		Type:           RecApplyPromo,
		CurrentPrice:   current,
		SuggestedPrice: current * (1.0 - discount.Discount),
		Phase:          PhaseFrontHalf,
		MarketState:    ctx.state,
		OperatingMode:  ctx.mode.Name,
		Rationale: fmt.Sprintf(
			"occupancy lagging market at a fair rate; promote %.0f%% (%s bracket, %s mode)",
			discount.Discount*100, discount.Bracket, ctx.mode.Name),
	}, true
}

// BuildSchedule audits every day of the lookahead window in order and
// collects the recommendations that fired.
func BuildSchedule(input RunInput, fullAPS float64, pacing PacingInputs, s config.Settings) ([]Recommendation, MarketState, OperatingMode, ScheduleSummary) {
	state := ClassifyMarketState(pacing.ForwardOccupancy, pacing.HistoricalPace, s)
	mode := ModeForState(state, s)

	ctx := dayContext{
		today:    input.Today,
		pacing:   pacing,
		fullAPS:  fullAPS,
		state:    state,
		mode:     mode,
		settings: s,
	}

	schedule := make([]Recommendation, 0, s.AuditLookaheadDays)
	for day := 0; day < s.AuditLookaheadDays; day++ {
		if rec, ok := AuditDay(day, ctx); ok {
			schedule = append(schedule, rec)
		}
	}

	summary := ScheduleSummary{
		DaysAudited:    s.AuditLookaheadDays,
		DaysWithAction: len(schedule),
		ByType:         make(map[RecommendationType]int),
	}
	for _, rec := range schedule {
		summary.ByType[rec.Type]++
	}

	return schedule, state, mode, summary
}
