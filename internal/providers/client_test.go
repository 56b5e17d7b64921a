package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revpilot/revpilot/internal/cache"
	"github.com/revpilot/revpilot/internal/config"
	"github.com/revpilot/revpilot/internal/domain/comps"
)

func testClientConfig(baseURL string) config.ProviderConfig {
	return config.ProviderConfig{
		BaseURL:     baseURL,
		RPS:         1000,
		Burst:       1000,
		TimeoutSecs: 2,
		Circuit: config.CircuitConfig{
			MaxRequests:      1,
			IntervalSecs:     60,
			TimeoutSecs:      60,
			FailureThreshold: 3,
		},
	}
}

func TestFetchMarketData_DecodesAndFilters(t *testing.T) {
	var gotQuery map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/markets/aggregate", r.URL.Path)
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"revpar":105.5,"occupancy":0.66,"adr_20th_percentile":120,
			"peak_future_adr":310,"avg_future_adr":210,"annual_revpar":41000,
			"avg_adr":175,"sample_size":14}`))
	}))
	defer server.Close()

	client := NewClient(testClientConfig(server.URL), nil, nil)
	filters := &comps.Filters{Bedrooms: 3, PropertyType: "house", MinSleeps: 6, Amenities: []string{"pool", "ev_charger"}}

	market, sampleSize, err := client.FetchMarketData(context.Background(), "austin-tx", filters)
	require.NoError(t, err)

	assert.Equal(t, 14, sampleSize)
	assert.InDelta(t, 105.5, market.RevPAR, 1e-9)
	assert.InDelta(t, 120.0, market.ADR20thPctl, 1e-9)

	assert.Equal(t, []string{"austin-tx"}, gotQuery["market_id"])
	assert.Equal(t, []string{"3"}, gotQuery["bedrooms"])
	assert.Equal(t, []string{"house"}, gotQuery["property_type"])
	assert.Equal(t, []string{"6"}, gotQuery["min_sleeps"])
	assert.Equal(t, []string{"pool,ev_charger"}, gotQuery["amenities"])
}

func TestFetchMarketData_WholeMarketOmitsFilterParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, r.URL.Query().Has("bedrooms"))
		assert.False(t, r.URL.Query().Has("amenities"))
		w.Write([]byte(`{"revpar":98,"sample_size":200}`))
	}))
	defer server.Close()

	client := NewClient(testClientConfig(server.URL), nil, nil)
	_, sampleSize, err := client.FetchMarketData(context.Background(), "austin-tx", nil)
	require.NoError(t, err)
	assert.Equal(t, 200, sampleSize)
}

func TestFetchPropertyData_AuthHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Write([]byte(`{"revpar":115,"occupancy":0.72,"last_year_lowest_sold":110,"current_price":220}`))
	}))
	defer server.Close()

	cfg := testClientConfig(server.URL)
	cfg.APIKey = "test-key"
	client := NewClient(cfg, nil, nil)

	property, err := client.FetchPropertyData(context.Background(), "prop-123")
	require.NoError(t, err)
	assert.InDelta(t, 115.0, property.RevPAR, 1e-9)
	assert.InDelta(t, 220.0, property.CurrentPrice, 1e-9)
}

func TestFetch_HTTPErrorClassified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(testClientConfig(server.URL), nil, nil)
	_, err := client.FetchPropertyData(context.Background(), "prop-123")
	require.Error(t, err)

	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, ErrCodeHTTP, perr.Code)
}

func TestFetch_CircuitOpensAfterConsecutiveFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(testClientConfig(server.URL), nil, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := client.FetchPropertyData(ctx, "prop-123")
		require.Error(t, err)
	}

	_, err := client.FetchPropertyData(ctx, "prop-123")
	require.Error(t, err)

	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, ErrCodeCircuitOpen, perr.Code, "breaker trips after three consecutive failures")
}

// countingRecorder captures observation calls without a live registry.
type countingRecorder struct {
	requests []string
	hits     int
	misses   int
}

func (r *countingRecorder) RecordProviderRequest(endpoint, result string, _ float64) {
	r.requests = append(r.requests, endpoint+" "+result)
}
func (r *countingRecorder) RecordCacheHit(string)  { r.hits++ }
func (r *countingRecorder) RecordCacheMiss(string) { r.misses++ }

func TestFetchPropertyData_RecordsCacheAndRequestOutcomes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"revpar":115,"occupancy":0.72,"last_year_lowest_sold":110,"current_price":220}`))
	}))
	defer server.Close()

	redisClient, mock := redismock.NewClientMock()
	recorder := &countingRecorder{}
	client := NewClient(testClientConfig(server.URL),
		cache.New(redisClient, time.Minute), recorder)
	ctx := context.Background()

	// First fetch: cache miss, live request, response stored.
	mock.ExpectGet("property:prop-123").RedisNil()
	mock.Regexp().ExpectSet("property:prop-123", `.*`, time.Minute).SetVal("OK")
	_, err := client.FetchPropertyData(ctx, "prop-123")
	require.NoError(t, err)

	assert.Equal(t, 1, recorder.misses)
	assert.Zero(t, recorder.hits)
	assert.Equal(t, []string{"/properties/metrics success"}, recorder.requests)

	// Second fetch: cache hit, no live request recorded.
	mock.ExpectGet("property:prop-123").
		SetVal(`{"revpar":115,"occupancy":0.72,"last_year_lowest_sold":110,"current_price":220}`)
	_, err = client.FetchPropertyData(ctx, "prop-123")
	require.NoError(t, err)

	assert.Equal(t, 1, recorder.hits)
	assert.Equal(t, 1, recorder.misses)
	assert.Len(t, recorder.requests, 1, "cache hits must not reach the API")
}

func TestFetch_FailureOutcomeRecordedWithCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	recorder := &countingRecorder{}
	client := NewClient(testClientConfig(server.URL), nil, recorder)

	_, err := client.FetchPropertyData(context.Background(), "prop-123")
	require.Error(t, err)

	require.Len(t, recorder.requests, 1)
	assert.Equal(t, "/properties/metrics http_error", recorder.requests[0])
	assert.Zero(t, recorder.misses, "disabled cache must not count as misses")
}
