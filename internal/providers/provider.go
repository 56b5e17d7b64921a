// Package providers fetches property and market records from the comps data
// API. The engine never sees a fetch failure: callers substitute the
// configured fallback records when a provider errors out.
package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/revpilot/revpilot/internal/domain/comps"
	"github.com/revpilot/revpilot/internal/domain/engine"
)

// ErrMissingMarket is returned when no market identifier can be resolved for
// a property. Runs must short-circuit before invoking the engine.
var ErrMissingMarket = errors.New("no market identifier resolvable for property")

// ErrorCode classifies provider failures for logs and metrics.
type ErrorCode string

const (
	ErrCodeHTTP        ErrorCode = "http_error"
	ErrCodeDecode      ErrorCode = "decode_error"
	ErrCodeRateLimited ErrorCode = "rate_limited"
	ErrCodeCircuitOpen ErrorCode = "circuit_open"
)

// ProviderError wraps a failed fetch with its classification.
type ProviderError struct {
	Code ErrorCode
	Op   string
	Err  error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s (%s): %v", e.Op, e.Code, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// RequestRecorder receives provider request and cache outcome observations.
// Implemented by the metrics registry; a nil recorder disables observation.
type RequestRecorder interface {
	RecordProviderRequest(endpoint, result string, seconds float64)
	RecordCacheHit(record string)
	RecordCacheMiss(record string)
}

// MarketDataProvider returns aggregated comparable metrics plus the sample
// size, optionally narrowed by attribute filters.
type MarketDataProvider interface {
	comps.MarketFetcher
}

// PropertyDataProvider returns the subject property's own metrics.
type PropertyDataProvider interface {
	FetchPropertyData(ctx context.Context, propertyID string) (engine.PropertyData, error)
}

// FallbackMarketData is the fixed record callers substitute when every
// market fetch fails. Values are deliberately neutral so a degraded run
// recommends nothing drastic.
func FallbackMarketData() engine.MarketData {
	return engine.MarketData{
		RevPAR:        100,
		Occupancy:     0.60,
		ADR20thPctl:   95,
		PeakFutureADR: 250,
		AvgFutureADR:  165,
		AnnualRevPAR:  36500,
		AvgADR:        165,
	}
}

// FallbackPropertyData is the fixed record substituted when the property
// fetch fails.
func FallbackPropertyData() engine.PropertyData {
	return engine.PropertyData{
		RevPAR:             100,
		Occupancy:          0.60,
		LastYearLowestSold: 90,
		CurrentPrice:       165,
	}
}
