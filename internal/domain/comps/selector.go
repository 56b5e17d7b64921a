// Package comps selects the comparable market dataset that feeds the
// revenue engine, relaxing attribute filters tier by tier until a minimum
// sample size is met.
package comps

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/revpilot/revpilot/internal/domain/engine"
)

// Filters narrows the comparable market by property attributes. A nil
// Filters means whole-market.
type Filters struct {
	Bedrooms     int      `json:"bedrooms" yaml:"bedrooms"`
	PropertyType string   `json:"property_type" yaml:"property_type"`
	MinSleeps    int      `json:"min_sleeps" yaml:"min_sleeps"`
	Amenities    []string `json:"amenities" yaml:"amenities"`
}

// Tier labels one rung of the fallback ladder, strictest first.
type Tier string

const (
	TierStrict      Tier = "strict"       // bedrooms + type + sleeps + amenities
	TierStandard    Tier = "standard"     // bedrooms + sleeps
	TierBroad       Tier = "broad"        // bedrooms only
	TierWholeMarket Tier = "whole_market" // no filter
)

// tierOrder is fixed: never skipped, never reordered.
var tierOrder = []Tier{TierStrict, TierStandard, TierBroad, TierWholeMarket}

// filtersForTier derives the relaxed filter set for a rung of the ladder.
func filtersForTier(tier Tier, full Filters) *Filters {
	switch tier {
	case TierStrict:
		f := full
		return &f
	case TierStandard:
		return &Filters{Bedrooms: full.Bedrooms, MinSleeps: full.MinSleeps}
	case TierBroad:
		return &Filters{Bedrooms: full.Bedrooms}
	default:
		return nil
	}
}

// MarketFetcher returns aggregated comparable metrics and the sample size
// behind them for a market, optionally narrowed by filters.
type MarketFetcher interface {
	FetchMarketData(ctx context.Context, marketID string, filters *Filters) (engine.MarketData, int, error)
}

// Result is the chosen dataset plus the transparency fields reports lead with.
type Result struct {
	Tier       Tier              `json:"tier"`
	Market     engine.MarketData `json:"market"`
	SampleSize int               `json:"sample_size"`
}

// Selector walks the fallback ladder against a market data source.
type Selector struct {
	fetcher  MarketFetcher
	minComps int
}

// NewSelector builds a selector that stops at the first tier returning at
// least minComps comparables.
func NewSelector(fetcher MarketFetcher, minComps int) *Selector {
	return &Selector{fetcher: fetcher, minComps: minComps}
}

// Select fetches tier by tier, strictest first, stopping at the first tier
// meeting the sample threshold. Exhausting the ladder is not an error: the
// whole-market result is used with whatever sample it returned. Each fetch
// must complete before the next tier is tried; this is a linear fallback,
// not a retry loop.
func (s *Selector) Select(ctx context.Context, marketID string, full Filters) (Result, error) {
	var last Result

	for i, tier := range tierOrder {
		market, sampleSize, err := s.fetcher.FetchMarketData(ctx, marketID, filtersForTier(tier, full))
		if err != nil {
			return Result{}, fmt.Errorf("market fetch at %s tier failed: %w", tier, err)
		}

		last = Result{Tier: tier, Market: market, SampleSize: sampleSize}
		if sampleSize >= s.minComps {
			return last, nil
		}

		if i < len(tierOrder)-1 {
			log.Info().
				Str("market", marketID).
				Str("tier", string(tier)).
				Int("sample_size", sampleSize).
				Int("min_comps", s.minComps).
				Str("next_tier", string(tierOrder[i+1])).
				Msg("Comparable sample too small, relaxing filter tier")
		}
	}

	log.Warn().
		Str("market", marketID).
		Int("sample_size", last.SampleSize).
		Msg("Filter tiers exhausted, proceeding with whole-market sample")
	return last, nil
}
