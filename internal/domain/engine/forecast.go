package engine

import (
	"fmt"

	"github.com/revpilot/revpilot/internal/config"
)

// MonthlyInputs are the trailing-period metrics for the monthly forecast.
type MonthlyInputs struct {
	OurOccupancy       float64
	OurRevPAR          float64
	CompOccupancy      float64
	CompRevPAR         float64
	MarketAnnualRevPAR float64
}

// DeriveADR recovers an average daily rate from RevPAR and occupancy. A
// non-positive occupancy returns the RevPAR unchanged; downstream ratios
// depend on this fallback staying put.
func DeriveADR(revPAR, occupancy float64) float64 {
	if occupancy <= 0 {
		return revPAR
	}
	return revPAR / occupancy
}

// ComputeMultipliers produces the property/market ratio triple with each comp
// denominator floored so degenerate markets yield extreme but defined ratios.
func ComputeMultipliers(in MonthlyInputs, s config.Settings) PerformanceMultipliers {
	ourADR := DeriveADR(in.OurRevPAR, in.OurOccupancy)
	compADR := DeriveADR(in.CompRevPAR, in.CompOccupancy)

	return PerformanceMultipliers{
		Occupancy: flooredRatio(in.OurOccupancy, in.CompOccupancy, s.MinOccupancyThreshold),
		RevPAR:    flooredRatio(in.OurRevPAR, in.CompRevPAR, s.MinRevPARThreshold),
		ADR:       flooredRatio(ourADR, compADR, s.MinADRThreshold),
	}
}

// Diagnose runs the mispricing decision tree over the multiplier triple.
// Evaluation order matters: underpricing is checked first and boundary values
// are inclusive, so occupancy exactly at the threshold classifies as
// underpricing.
func Diagnose(m PerformanceMultipliers, s config.Settings) Diagnosis {
	switch {
	case m.Occupancy >= s.UnderpricingOccMult && m.RevPAR <= s.MispricingRevPARMult:
		priceError := m.ADR
		correction := 2.0
		if priceError > 0 {
			correction = 1.0 / priceError
		}
		return Diagnosis{
			Type:             DiagnosisUnderpricing,
			PriceErrorFactor: priceError,
			CorrectionFactor: correction,
			Multipliers:      m,
			Explanation: fmt.Sprintf(
				"occupancy %.2fx market with RevPAR only %.2fx: rooms are selling out because rates are too low",
				m.Occupancy, m.RevPAR),
		}

	case m.Occupancy <= s.OverpricingOccMult && m.RevPAR <= s.MispricingRevPARMult:
		return Diagnosis{
			Type:             DiagnosisOverpricing,
			PriceErrorFactor: m.ADR,
			CorrectionFactor: s.OverpricingCorrection,
			Multipliers:      m,
			Explanation: fmt.Sprintf(
				"occupancy %.2fx market and RevPAR %.2fx: rates are scaring off bookings",
				m.Occupancy, m.RevPAR),
		}

	default:
		return Diagnosis{
			Type:             DiagnosisAcceptable,
			PriceErrorFactor: m.ADR,
			CorrectionFactor: 1.0,
			Multipliers:      m,
			Explanation: fmt.Sprintf(
				"occupancy %.2fx and RevPAR %.2fx market: performance within acceptable band",
				m.Occupancy, m.RevPAR),
		}
	}
}

// ApplyCorrection turns a diagnosis into a smoothed target-rent correction.
// Increases are halved and capped at +50%; decreases are floored at -20%.
// The target bootstraps from marketAnnualRevPAR x currentAPS when no prior
// target exists.
func ApplyCorrection(d Diagnosis, currentTargetRent, marketAnnualRevPAR, currentAPS float64, s config.Settings) CorrectionResult {
	effectiveTarget := currentTargetRent
	if effectiveTarget <= 0 {
		effectiveTarget = marketAnnualRevPAR * currentAPS
	}

	var multiplier float64
	var adjustment AdjustmentType

	switch d.Type {
	case DiagnosisUnderpricing:
		multiplier = 1.0 + (d.CorrectionFactor-1.0)/2.0
		if multiplier > s.MaxIncreaseMultiplier {
			multiplier = s.MaxIncreaseMultiplier
		}
		adjustment = AdjustIncrease
	case DiagnosisOverpricing:
		multiplier = d.CorrectionFactor
		if multiplier < s.MaxDecreaseMultiplier {
			multiplier = s.MaxDecreaseMultiplier
		}
		adjustment = AdjustDecrease
	default:
		multiplier = 1.0
		adjustment = AdjustNoChange
	}

	newTarget := effectiveTarget * multiplier
	result := CorrectionResult{
		PreviousTargetRent: effectiveTarget,
		NewTargetRent:      newTarget,
		AppliedMultiplier:  multiplier,
		AdjustmentType:     adjustment,
		AdjustmentAmount:   newTarget - effectiveTarget,
	}
	if effectiveTarget > 0 {
		result.AdjustmentPercent = (multiplier - 1.0) * 100.0
	}
	return result
}
