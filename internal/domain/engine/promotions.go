package engine

import (
	"fmt"

	"github.com/revpilot/revpilot/internal/config"
)

// ScanPromotions evaluates the supplemental promotion rules against today.
// Rules are independent of the day-by-day schedule and of each other: every
// applicable rule fires, so the result may hold zero, one, or several
// recommendations.
func ScanPromotions(input RunInput, centroid float64, s config.Settings) []Recommendation {
	var promos []Recommendation

	property := input.Property
	market := input.Market

	// Velocity gap: market is filling and we are not, while priced above the
	// APS-adjusted market centroid.
	if market.Occupancy-property.Occupancy > s.VelocityGapThreshold && property.CurrentPrice > centroid {
		promos = append(promos, Recommendation{
			Date:           input.Today,
			Type:           RecApplyPromo,
			CurrentPrice:   property.CurrentPrice,
			SuggestedPrice: centroid * (1.0 - s.VelocityGapDiscount),
			Rationale: fmt.Sprintf(
				"market occupancy leads ours by %.0f points while priced above the %.0f centroid",
				(market.Occupancy-property.Occupancy)*100, centroid),
		})
	}

	// Last minute: close-in window with weak fill.
	if input.DaysOut <= s.LastMinuteDaysOut && property.Occupancy < s.LastMinuteOccupancy {
		promos = append(promos, Recommendation{
			Date:           input.Today,
			Type:           RecLastMinute,
			CurrentPrice:   property.CurrentPrice,
			SuggestedPrice: centroid * (1.0 - s.LastMinuteDiscount),
			Rationale: fmt.Sprintf(
				"%d days out at %.0f%% occupancy; discount to fill remaining nights",
				input.DaysOut, property.Occupancy*100),
		})
	}

	// Extended stay: market books longer stays than we do; incentivize 5+
	// night bookings off the listed rate rather than the centroid.
	if property.AvgBookingLength > 0 && market.AvgBookingLength > 0 &&
		property.AvgBookingLength < s.ExtendedStayPropertyMax &&
		market.AvgBookingLength >= s.ExtendedStayMarketMin {
		promos = append(promos, Recommendation{
			Date:           input.Today,
			Type:           RecExtendedStay,
			CurrentPrice:   property.CurrentPrice,
			SuggestedPrice: property.CurrentPrice * (1.0 - s.ExtendedStayDiscount),
			Rationale: fmt.Sprintf(
				"avg stay %.1f nights vs market %.1f; offer %.0f%% off %d+ night stays",
				property.AvgBookingLength, market.AvgBookingLength,
				s.ExtendedStayDiscount*100, s.ExtendedStayMinNights),
		})
	}

	return promos
}
