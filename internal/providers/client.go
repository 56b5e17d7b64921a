package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/revpilot/revpilot/internal/cache"
	"github.com/revpilot/revpilot/internal/config"
	"github.com/revpilot/revpilot/internal/domain/comps"
	"github.com/revpilot/revpilot/internal/domain/engine"
)

// Client talks to the comps data API with rate limiting, circuit breaking,
// and response caching. It implements both provider interfaces.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	cache      *cache.ResponseCache
	metrics    RequestRecorder
}

// NewClient wires the provider stack from config. The cache and recorder may
// be nil.
func NewClient(cfg config.ProviderConfig, responseCache *cache.ResponseCache, recorder RequestRecorder) *Client {
	settings := gobreaker.Settings{
		Name:        "comps-api",
		MaxRequests: cfg.Circuit.MaxRequests,
		Interval:    time.Duration(cfg.Circuit.IntervalSecs) * time.Second,
		Timeout:     time.Duration(cfg.Circuit.TimeoutSecs) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.Circuit.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Provider circuit state changed")
		},
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: time.Duration(cfg.TimeoutSecs) * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		breaker:    gobreaker.NewCircuitBreaker(settings),
		cache:      responseCache,
		metrics:    recorder,
	}
}

// marketResponse is the wire shape of the aggregated comps endpoint.
type marketResponse struct {
	RevPAR           float64 `json:"revpar"`
	Occupancy        float64 `json:"occupancy"`
	ADR20thPctl      float64 `json:"adr_20th_percentile"`
	PeakFutureADR    float64 `json:"peak_future_adr"`
	AvgFutureADR     float64 `json:"avg_future_adr"`
	AnnualRevPAR     float64 `json:"annual_revpar"`
	AvgADR           float64 `json:"avg_adr"`
	AvgBookingLength float64 `json:"avg_booking_length"`
	SampleSize       int     `json:"sample_size"`
}

// propertyResponse is the wire shape of the property metrics endpoint.
type propertyResponse struct {
	RevPAR             float64 `json:"revpar"`
	Occupancy          float64 `json:"occupancy"`
	LastYearLowestSold float64 `json:"last_year_lowest_sold"`
	CurrentPrice       float64 `json:"current_price"`
	ADR                float64 `json:"adr"`
	AvgBookingLength   float64 `json:"avg_booking_length"`
}

// FetchMarketData retrieves aggregated comparable metrics for a market,
// optionally narrowed by filters. Cached per market+filter signature.
func (c *Client) FetchMarketData(ctx context.Context, marketID string, filters *comps.Filters) (engine.MarketData, int, error) {
	cacheKey := "market:" + marketID + ":" + filterSignature(filters)

	var cached marketResponse
	if hit, err := c.cache.Get(ctx, cacheKey, &cached); err != nil {
		log.Warn().Err(err).Str("key", cacheKey).Msg("Cache lookup failed, fetching live")
	} else if hit {
		c.recordCacheOutcome("market", true)
		return cached.toMarketData(), cached.SampleSize, nil
	} else {
		c.recordCacheOutcome("market", false)
	}

	query := url.Values{"market_id": {marketID}}
	if filters != nil {
		if filters.Bedrooms > 0 {
			query.Set("bedrooms", strconv.Itoa(filters.Bedrooms))
		}
		if filters.PropertyType != "" {
			query.Set("property_type", filters.PropertyType)
		}
		if filters.MinSleeps > 0 {
			query.Set("min_sleeps", strconv.Itoa(filters.MinSleeps))
		}
		if len(filters.Amenities) > 0 {
			query.Set("amenities", strings.Join(filters.Amenities, ","))
		}
	}

	var resp marketResponse
	if err := c.getJSON(ctx, "/markets/aggregate", query, &resp); err != nil {
		return engine.MarketData{}, 0, err
	}

	if err := c.cache.Set(ctx, cacheKey, resp); err != nil {
		log.Warn().Err(err).Str("key", cacheKey).Msg("Failed to cache market response")
	}
	return resp.toMarketData(), resp.SampleSize, nil
}

// FetchPropertyData retrieves the subject property's own metrics.
func (c *Client) FetchPropertyData(ctx context.Context, propertyID string) (engine.PropertyData, error) {
	cacheKey := "property:" + propertyID

	var cached propertyResponse
	if hit, err := c.cache.Get(ctx, cacheKey, &cached); err != nil {
		log.Warn().Err(err).Str("key", cacheKey).Msg("Cache lookup failed, fetching live")
	} else if hit {
		c.recordCacheOutcome("property", true)
		return cached.toPropertyData(), nil
	} else {
		c.recordCacheOutcome("property", false)
	}

	var resp propertyResponse
	query := url.Values{"property_id": {propertyID}}
	if err := c.getJSON(ctx, "/properties/metrics", query, &resp); err != nil {
		return engine.PropertyData{}, err
	}

	if err := c.cache.Set(ctx, cacheKey, resp); err != nil {
		log.Warn().Err(err).Str("key", cacheKey).Msg("Failed to cache property response")
	}
	return resp.toPropertyData(), nil
}

// getJSON performs one rate-limited, breaker-guarded GET and decodes the
// body. Every attempt is recorded with its outcome classification.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, dest interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		if c.metrics != nil {
			c.metrics.RecordProviderRequest(path, string(ErrCodeRateLimited), 0)
		}
		return &ProviderError{Code: ErrCodeRateLimited, Op: path, Err: err}
	}

	start := time.Now()
	_, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			c.baseURL+path+"?"+query.Encode(), nil)
		if err != nil {
			return nil, err
		}
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return nil, &ProviderError{Code: ErrCodeDecode, Op: path, Err: err}
		}
		return nil, nil
	})

	log.Debug().
		Str("path", path).
		Dur("elapsed", time.Since(start)).
		Bool("success", err == nil).
		Msg("Comps API request")

	var perr *ProviderError
	if err != nil {
		switch {
		case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
			perr = &ProviderError{Code: ErrCodeCircuitOpen, Op: path, Err: err}
		case errors.As(err, &perr):
		default:
			perr = &ProviderError{Code: ErrCodeHTTP, Op: path, Err: err}
		}
	}

	if c.metrics != nil {
		result := "success"
		if perr != nil {
			result = string(perr.Code)
		}
		c.metrics.RecordProviderRequest(path, result, time.Since(start).Seconds())
	}

	if perr != nil {
		return perr
	}
	return nil
}

// recordCacheOutcome counts a hit or miss, skipping disabled caches so the
// ratio gauge only reflects lookups that could have hit.
func (c *Client) recordCacheOutcome(record string, hit bool) {
	if c.metrics == nil || !c.cache.Enabled() {
		return
	}
	if hit {
		c.metrics.RecordCacheHit(record)
	} else {
		c.metrics.RecordCacheMiss(record)
	}
}

// filterSignature renders a stable cache-key suffix for a filter set.
func filterSignature(filters *comps.Filters) string {
	if filters == nil {
		return "whole"
	}
	parts := []string{
		strconv.Itoa(filters.Bedrooms),
		filters.PropertyType,
		strconv.Itoa(filters.MinSleeps),
		strings.Join(filters.Amenities, "+"),
	}
	return strings.Join(parts, ":")
}

func (m marketResponse) toMarketData() engine.MarketData {
	return engine.MarketData{
		RevPAR:           m.RevPAR,
		Occupancy:        m.Occupancy,
		ADR20thPctl:      m.ADR20thPctl,
		PeakFutureADR:    m.PeakFutureADR,
		AvgFutureADR:     m.AvgFutureADR,
		AnnualRevPAR:     m.AnnualRevPAR,
		AvgADR:           m.AvgADR,
		AvgBookingLength: m.AvgBookingLength,
	}
}

func (p propertyResponse) toPropertyData() engine.PropertyData {
	return engine.PropertyData{
		RevPAR:             p.RevPAR,
		Occupancy:          p.Occupancy,
		LastYearLowestSold: p.LastYearLowestSold,
		CurrentPrice:       p.CurrentPrice,
		ADR:                p.ADR,
		AvgBookingLength:   p.AvgBookingLength,
	}
}
