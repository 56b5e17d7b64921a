// Package report renders engine run results as operator-facing text.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/revpilot/revpilot/internal/domain/comps"
	"github.com/revpilot/revpilot/internal/domain/engine"
)

// RunReport carries everything the text renderer needs for one run.
type RunReport struct {
	PropertyID string
	MarketID   string
	RanAt      time.Time
	Comps      comps.Result
	Result     engine.RunResult
}

// Format renders the full audit report.
func Format(r RunReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "RevPilot audit: property %s, market %s\n", r.PropertyID, r.MarketID)
	fmt.Fprintf(&b, "Run at %s\n", r.RanAt.Format(time.RFC1123))
	fmt.Fprintf(&b, "Comparables: %s tier, %d listings\n\n", r.Comps.Tier, r.Comps.SampleSize)

	f := r.Result.Formulas
	fmt.Fprintf(&b, "Performance\n")
	fmt.Fprintf(&b, "  index %.3f | APS %.3f | annual target %.0f\n", f.PerformanceIndex, f.NewAPS, f.AnnualTarget)
	fmt.Fprintf(&b, "  price band %.0f - %.0f | centroid %.0f | base %.0f\n\n",
		f.MinPrice, f.MaxPrice, f.DynamicCentroid, f.BasePrice)

	d := r.Result.Diagnosis
	fmt.Fprintf(&b, "Diagnosis: %s\n", d.Type)
	fmt.Fprintf(&b, "  %s\n", d.Explanation)

	c := r.Result.Correction
	switch c.AdjustmentType {
	case engine.AdjustNoChange:
		fmt.Fprintf(&b, "  target rent unchanged at %.0f\n\n", c.NewTargetRent)
	default:
		fmt.Fprintf(&b, "  target rent %.0f -> %.0f (%s %+.1f%%)\n\n",
			c.PreviousTargetRent, c.NewTargetRent, c.AdjustmentType, c.AdjustmentPercent)
	}

	fmt.Fprintf(&b, "Market: %s (%s mode, base %.0f%% / max %.0f%% discount)\n",
		r.Result.State, r.Result.Mode.Name,
		r.Result.Mode.BaseDiscount*100, r.Result.Mode.MaxDiscount*100)

	fmt.Fprintf(&b, "\nSchedule: %d of %d audited days need action\n",
		r.Result.Summary.DaysWithAction, r.Result.Summary.DaysAudited)
	for _, rec := range r.Result.Schedule {
		fmt.Fprintf(&b, "  %s (d+%d) %-23s %.0f -> %.0f  %s\n",
			rec.Date.Format("Jan 02"), rec.DaysToArrival, rec.Type,
			rec.CurrentPrice, rec.SuggestedPrice, rec.Rationale)
	}

	if len(r.Result.Promotions) > 0 {
		fmt.Fprintf(&b, "\nPromotions\n")
		for _, promo := range r.Result.Promotions {
			fmt.Fprintf(&b, "  %-23s %.0f -> %.0f  %s\n",
				promo.Type, promo.CurrentPrice, promo.SuggestedPrice, promo.Rationale)
		}
	}

	return b.String()
}

// Summary renders the one-paragraph version used for chat alerts.
func Summary(r RunReport) string {
	c := r.Result.Correction
	return fmt.Sprintf(
		"%s: %s | APS %.3f | %s market | target rent %.0f (%s) | %d day actions, %d promotions | comps: %s/%d",
		r.PropertyID, r.Result.Diagnosis.Type, r.Result.Formulas.NewAPS, r.Result.State,
		c.NewTargetRent, c.AdjustmentType,
		r.Result.Summary.DaysWithAction, len(r.Result.Promotions),
		r.Comps.Tier, r.Comps.SampleSize)
}
