package engine

import "github.com/revpilot/revpilot/internal/config"

// SlidingScaleDiscount resolves the promotion depth for a stay this many
// days out. Brackets are scanned in ascending day order and the first
// inclusive match wins; the final discount never exceeds the mode's cap.
func SlidingScaleDiscount(daysOut int, mode OperatingMode, s config.Settings) DiscountResult {
	multiplier := 1.0
	label := "unbracketed"
	for _, bracket := range s.Brackets {
		if daysOut < bracket.MinDays {
			continue
		}
		if bracket.MaxDays >= 0 && daysOut > bracket.MaxDays {
			continue
		}
		multiplier = bracket.Multiplier
		label = bracket.Label
		break
	}

	raw := mode.BaseDiscount * multiplier
	capped := raw > mode.MaxDiscount
	discount := raw
	if capped {
		discount = mode.MaxDiscount
	}

	return DiscountResult{
		Discount:    discount,
		Bracket:     label,
		Multiplier:  multiplier,
		CappedByMax: capped,
	}
}
