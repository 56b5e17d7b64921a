// Package engine is the revenue decision core: a pure calculation pipeline
// that turns property metrics, market metrics, and a threshold table into a
// performance score, a mispricing diagnosis, a corrected target rent, and a
// day-by-day pricing schedule. It performs no I/O and holds no state between
// runs, so concurrent runs over independent inputs need no locking.
package engine

import (
	"time"

	"github.com/revpilot/revpilot/internal/config"
)

// Engine evaluates one property snapshot against its comparable market.
// Construct once with a settled threshold table and reuse across runs.
type Engine struct {
	settings config.Settings
}

// New creates an engine bound to an immutable settings table.
func New(settings config.Settings) *Engine {
	return &Engine{settings: settings}
}

// Settings exposes the threshold table the engine was built with.
func (e *Engine) Settings() config.Settings {
	return e.settings
}

// Run executes the full pipeline for one input snapshot: core formulas,
// monthly diagnosis and correction, the weekly bell-curve schedule, and the
// promotion scan. The result carries everything a report needs.
func (e *Engine) Run(input RunInput) RunResult {
	s := e.settings
	if input.Today.IsZero() {
		input.Today = time.Now()
	}

	formulas := ComputeFormulas(input.Property, input.Market, input.PreviousAPS, s)

	monthly := MonthlyInputs{
		OurOccupancy:       input.Property.Occupancy,
		OurRevPAR:          input.Property.RevPAR,
		CompOccupancy:      input.Market.Occupancy,
		CompRevPAR:         input.Market.RevPAR,
		MarketAnnualRevPAR: input.Market.AnnualRevPAR,
	}
	multipliers := ComputeMultipliers(monthly, s)
	diagnosis := Diagnose(multipliers, s)
	correction := ApplyCorrection(diagnosis, input.CurrentTargetRent,
		input.Market.AnnualRevPAR, formulas.NewAPS, s)

	pacing := e.pacingFor(input)
	schedule, state, mode, summary := BuildSchedule(input, formulas.NewAPS, pacing, s)

	promotions := ScanPromotions(input, formulas.DynamicCentroid, s)

	return RunResult{
		Formulas:   formulas,
		Diagnosis:  diagnosis,
		Correction: correction,
		State:      state,
		Mode:       mode,
		Schedule:   schedule,
		Summary:    summary,
		Promotions: promotions,
	}
}

// pacingFor derives the scheduler's demand signals from the run snapshot.
// Historical pace falls back to market occupancy when the caller has no
// prior-year pacing, which makes the pace ratio neutral-ish rather than
// degenerate.
func (e *Engine) pacingFor(input RunInput) PacingInputs {
	pacing := input.Pacing
	if pacing.ForwardOccupancy == 0 {
		pacing.ForwardOccupancy = input.Property.Occupancy
	}
	if pacing.HistoricalPace == 0 {
		pacing.HistoricalPace = input.Market.Occupancy
	}
	if pacing.MarketOccupancy == 0 {
		pacing.MarketOccupancy = input.Market.Occupancy
	}
	if pacing.OurOccupancy == 0 {
		pacing.OurOccupancy = input.Property.Occupancy
	}
	if pacing.FairMarketPrice == 0 {
		pacing.FairMarketPrice = input.Market.AvgFutureADR
	}
	if pacing.OurCurrentPrice == 0 {
		pacing.OurCurrentPrice = input.Property.CurrentPrice
	}
	return pacing
}
