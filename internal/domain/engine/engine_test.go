package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revpilot/revpilot/internal/config"
)

func runFixture() RunInput {
	return RunInput{
		Property: PropertyData{
			RevPAR:             115,
			Occupancy:          0.72,
			LastYearLowestSold: 110,
			CurrentPrice:       220,
		},
		Market: MarketData{
			RevPAR:        100,
			Occupancy:     0.65,
			ADR20thPctl:   120,
			PeakFutureADR: 300,
			AvgFutureADR:  200,
			AnnualRevPAR:  48000,
			AvgADR:        170,
		},
		PreviousAPS:       1.0,
		CurrentTargetRent: 50000,
		DaysOut:           20,
		Today:             time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestEngineRun_BundlesAllOutputs(t *testing.T) {
	eng := New(config.DefaultSettings())
	result := eng.Run(runFixture())

	assert.InDelta(t, 1.045, result.Formulas.NewAPS, 1e-9)
	assert.Equal(t, 120.0, result.Formulas.MinPrice)
	assert.InDelta(t, 391.875, result.Formulas.MaxPrice, 1e-9)

	// 0.72/0.65 occupancy and 1.15 RevPAR: healthy on both axes.
	assert.Equal(t, DiagnosisAcceptable, result.Diagnosis.Type)
	assert.Equal(t, AdjustNoChange, result.Correction.AdjustmentType)
	assert.InDelta(t, 50000.0, result.Correction.NewTargetRent, 1e-9)

	assert.NotEmpty(t, result.Mode.Name)
	assert.Equal(t, eng.Settings().AuditLookaheadDays, result.Summary.DaysAudited)

	// Correction invariant holds on every run.
	assert.InDelta(t,
		result.Correction.PreviousTargetRent*result.Correction.AppliedMultiplier,
		result.Correction.NewTargetRent, 1e-9)
}

func TestEngineRun_UnderpricedProperty(t *testing.T) {
	eng := New(config.DefaultSettings())

	input := runFixture()
	input.Property.Occupancy = 0.90
	input.Property.RevPAR = 80
	input.Market.Occupancy = 0.50
	input.Market.RevPAR = 110

	result := eng.Run(input)
	require.Equal(t, DiagnosisUnderpricing, result.Diagnosis.Type)
	assert.Equal(t, AdjustIncrease, result.Correction.AdjustmentType)
	assert.Greater(t, result.Correction.NewTargetRent, result.Correction.PreviousTargetRent)
	assert.LessOrEqual(t, result.Correction.AppliedMultiplier, 1.50)
}

func TestEngineRun_DefaultsTodayWhenZero(t *testing.T) {
	eng := New(config.DefaultSettings())

	input := runFixture()
	input.Today = time.Time{}
	result := eng.Run(input)
	for _, rec := range result.Schedule {
		assert.False(t, rec.Date.IsZero())
	}
}

func TestEngineRun_ConcurrentRunsIndependent(t *testing.T) {
	eng := New(config.DefaultSettings())

	var wg sync.WaitGroup
	results := make([]RunResult, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = eng.Run(runFixture())
		}(i)
	}
	wg.Wait()

	for _, r := range results[1:] {
		assert.Equal(t, results[0].Formulas, r.Formulas)
		assert.Equal(t, results[0].Summary, r.Summary)
	}
}
