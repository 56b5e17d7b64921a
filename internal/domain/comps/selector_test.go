package comps

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revpilot/revpilot/internal/domain/engine"
)

// tierFetcher scripts per-tier sample sizes and records the fetch order.
type tierFetcher struct {
	samples map[Tier]int
	calls   []Tier
	failAt  Tier
}

func (f *tierFetcher) FetchMarketData(_ context.Context, _ string, filters *Filters) (engine.MarketData, int, error) {
	tier := tierFor(filters)
	f.calls = append(f.calls, tier)
	if f.failAt != "" && tier == f.failAt {
		return engine.MarketData{}, 0, errors.New("upstream unavailable")
	}
	return engine.MarketData{RevPAR: 100}, f.samples[tier], nil
}

func tierFor(filters *Filters) Tier {
	switch {
	case filters == nil:
		return TierWholeMarket
	case filters.PropertyType != "" || len(filters.Amenities) > 0:
		return TierStrict
	case filters.MinSleeps > 0:
		return TierStandard
	default:
		return TierBroad
	}
}

func fullFilters() Filters {
	return Filters{Bedrooms: 3, PropertyType: "house", MinSleeps: 6, Amenities: []string{"pool"}}
}

func TestSelect_StopsAtFirstSufficientTier(t *testing.T) {
	testCases := []struct {
		name      string
		samples   map[Tier]int
		wantTier  Tier
		wantCalls []Tier
	}{
		{
			name:      "strict_sufficient",
			samples:   map[Tier]int{TierStrict: 12},
			wantTier:  TierStrict,
			wantCalls: []Tier{TierStrict},
		},
		{
			name:      "relax_to_standard",
			samples:   map[Tier]int{TierStrict: 4, TierStandard: 10},
			wantTier:  TierStandard,
			wantCalls: []Tier{TierStrict, TierStandard},
		},
		{
			name:      "relax_to_broad",
			samples:   map[Tier]int{TierStrict: 1, TierStandard: 5, TierBroad: 25},
			wantTier:  TierBroad,
			wantCalls: []Tier{TierStrict, TierStandard, TierBroad},
		},
		{
			name:      "exactly_at_threshold_stops",
			samples:   map[Tier]int{TierStrict: 10},
			wantTier:  TierStrict,
			wantCalls: []Tier{TierStrict},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fetcher := &tierFetcher{samples: tc.samples}
			selector := NewSelector(fetcher, 10)

			result, err := selector.Select(context.Background(), "austin-tx", fullFilters())
			require.NoError(t, err)
			assert.Equal(t, tc.wantTier, result.Tier)
			assert.Equal(t, tc.wantCalls, fetcher.calls, "tier order is fixed and sequential")
			assert.Equal(t, tc.samples[tc.wantTier], result.SampleSize)
		})
	}
}

func TestSelect_ExhaustionDegradesToWholeMarket(t *testing.T) {
	fetcher := &tierFetcher{samples: map[Tier]int{
		TierStrict: 1, TierStandard: 2, TierBroad: 3, TierWholeMarket: 7,
	}}
	selector := NewSelector(fetcher, 10)

	result, err := selector.Select(context.Background(), "austin-tx", fullFilters())
	require.NoError(t, err, "exhaustion is a designed degradation, not an error")
	assert.Equal(t, TierWholeMarket, result.Tier)
	assert.Equal(t, 7, result.SampleSize)
	assert.Equal(t, []Tier{TierStrict, TierStandard, TierBroad, TierWholeMarket}, fetcher.calls)
}

func TestSelect_FetchErrorPropagates(t *testing.T) {
	fetcher := &tierFetcher{samples: map[Tier]int{TierStrict: 2}, failAt: TierStandard}
	selector := NewSelector(fetcher, 10)

	_, err := selector.Select(context.Background(), "austin-tx", fullFilters())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "standard tier")
}

func TestFiltersForTier_Relaxation(t *testing.T) {
	full := fullFilters()

	strict := filtersForTier(TierStrict, full)
	require.NotNil(t, strict)
	assert.Equal(t, full, *strict)

	standard := filtersForTier(TierStandard, full)
	require.NotNil(t, standard)
	assert.Equal(t, Filters{Bedrooms: 3, MinSleeps: 6}, *standard)

	broad := filtersForTier(TierBroad, full)
	require.NotNil(t, broad)
	assert.Equal(t, Filters{Bedrooms: 3}, *broad)

	assert.Nil(t, filtersForTier(TierWholeMarket, full))
}
