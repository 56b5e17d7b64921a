package engine

import "github.com/revpilot/revpilot/internal/config"

// PerformanceIndex is the property's RevPAR relative to market. A market
// RevPAR of zero yields a neutral 1.0 rather than a division fault.
func PerformanceIndex(myRevPAR, marketRevPAR float64) float64 {
	if marketRevPAR <= 0 {
		return 1.0
	}
	return myRevPAR / marketRevPAR
}

// NextAPS blends the previous Adaptive Performance Score with the current
// performance index (history-weighted) and clamps the result so a single
// strong or weak period can never run pricing away.
func NextAPS(previousAPS, performanceIndex float64, s config.Settings) float64 {
	next := previousAPS*s.APSHistoryWeight + performanceIndex*(1.0-s.APSHistoryWeight)
	return clamp(next, s.APSMin, s.APSMax)
}

// AnnualTarget scales the whole-market annual RevPAR by the property's APS.
func AnnualTarget(marketAnnualRevPAR, aps float64) float64 {
	return marketAnnualRevPAR * aps
}

// MinPrice is the nightly floor: never below the market's 20th percentile
// ADR nor below the property's own lowest sold rate last year.
func MinPrice(market20thPctlADR, lastYearLowestSold float64) float64 {
	if market20thPctlADR > lastYearLowestSold {
		return market20thPctlADR
	}
	return lastYearLowestSold
}

// MaxPrice is the nightly ceiling: peak future market ADR scaled by APS and
// the fixed peak-demand multiplier.
func MaxPrice(peakFutureADR, aps float64, s config.Settings) float64 {
	return peakFutureADR * aps * s.PeakPriceMultiplier
}

// DynamicCentroid is the APS-adjusted average future market rate, the anchor
// price for promotion discounts.
func DynamicCentroid(avgFutureMarketADR, aps float64) float64 {
	return avgFutureMarketADR * aps
}

// BasePrice is the APS-adjusted average market ADR.
func BasePrice(avgADR, aps float64) float64 {
	return avgADR * aps
}

// ComputeFormulas evaluates the full core-formula block for one run.
func ComputeFormulas(property PropertyData, market MarketData, previousAPS float64, s config.Settings) FormulaOutputs {
	index := PerformanceIndex(property.RevPAR, market.RevPAR)
	aps := NextAPS(previousAPS, index, s)

	return FormulaOutputs{
		PerformanceIndex: index,
		NewAPS:           aps,
		AnnualTarget:     AnnualTarget(market.AnnualRevPAR, aps),
		MinPrice:         MinPrice(market.ADR20thPctl, property.LastYearLowestSold),
		MaxPrice:         MaxPrice(market.PeakFutureADR, aps, s),
		DynamicCentroid:  DynamicCentroid(market.AvgFutureADR, aps),
		BasePrice:        BasePrice(market.AvgADR, aps),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// flooredRatio divides with the denominator floored to a minimum threshold,
// keeping degenerate inputs defined rather than faulting.
func flooredRatio(numerator, denominator, floor float64) float64 {
	if denominator < floor {
		denominator = floor
	}
	return numerator / denominator
}
