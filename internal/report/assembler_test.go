package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/revpilot/revpilot/internal/domain/comps"
	"github.com/revpilot/revpilot/internal/domain/engine"
)

func sampleReport() RunReport {
	r := RunReport{
		PropertyID: "prop-lakehouse-12",
		MarketID:   "austin-tx",
		RanAt:      time.Date(2026, 8, 1, 6, 0, 0, 0, time.UTC),
		Comps:      comps.Result{Tier: comps.TierStandard, SampleSize: 17},
	}
	r.Result.Formulas = engine.FormulaOutputs{
		PerformanceIndex: 1.15,
		NewAPS:           1.045,
		AnnualTarget:     50160,
		MinPrice:         120,
		MaxPrice:         391.875,
		DynamicCentroid:  209,
		BasePrice:        177.65,
	}
	r.Result.Diagnosis = engine.Diagnosis{
		Type:        engine.DiagnosisUnderpricing,
		Explanation: "occupancy 1.80x market with RevPAR only 0.73x",
	}
	r.Result.Correction = engine.CorrectionResult{
		PreviousTargetRent: 48000,
		NewTargetRent:      57600,
		AppliedMultiplier:  1.2,
		AdjustmentType:     engine.AdjustIncrease,
		AdjustmentPercent:  20,
	}
	r.Result.State = engine.MarketHot
	r.Result.Mode = engine.OperatingMode{Name: "Aggressive", BaseDiscount: 0.05, MaxDiscount: 0.15}
	r.Result.Summary = engine.ScheduleSummary{DaysAudited: 14, DaysWithAction: 1}
	r.Result.Schedule = []engine.Recommendation{{
		Date:           time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC),
		DaysToArrival:  4,
		Type:           engine.RecApplyPromo,
		CurrentPrice:   220,
		SuggestedPrice: 203.5,
		Rationale:      "occupancy lagging market at a fair rate",
	}}
	r.Result.Promotions = []engine.Recommendation{{
		Type:           engine.RecLastMinute,
		CurrentPrice:   220,
		SuggestedPrice: 167.2,
		Rationale:      "5 days out at 40% occupancy",
	}}
	return r
}

func TestFormat_ContainsAllSections(t *testing.T) {
	text := Format(sampleReport())

	assert.Contains(t, text, "prop-lakehouse-12")
	assert.Contains(t, text, "standard tier, 17 listings")
	assert.Contains(t, text, "APS 1.045")
	assert.Contains(t, text, "CLASSIC_UNDERPRICING")
	assert.Contains(t, text, "48000 -> 57600")
	assert.Contains(t, text, "HOT (Aggressive mode")
	assert.Contains(t, text, "1 of 14 audited days")
	assert.Contains(t, text, "APPLY_PROMOTION")
	assert.Contains(t, text, "LAST_MINUTE_DEAL")
}

func TestFormat_NoChangeAndNoPromotions(t *testing.T) {
	r := sampleReport()
	r.Result.Correction = engine.CorrectionResult{
		PreviousTargetRent: 48000,
		NewTargetRent:      48000,
		AppliedMultiplier:  1.0,
		AdjustmentType:     engine.AdjustNoChange,
	}
	r.Result.Promotions = nil

	text := Format(r)
	assert.Contains(t, text, "target rent unchanged at 48000")
	assert.NotContains(t, text, "Promotions")
}

func TestSummary_OneLine(t *testing.T) {
	line := Summary(sampleReport())
	assert.False(t, strings.Contains(line, "\n"))
	assert.Contains(t, line, "prop-lakehouse-12")
	assert.Contains(t, line, "standard/17")
	assert.Contains(t, line, "1 day actions, 1 promotions")
}
