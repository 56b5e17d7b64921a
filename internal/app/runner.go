// Package app wires providers, the comparable selector, the engine, and the
// delivery surfaces into one run pipeline.
package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/revpilot/revpilot/internal/alerts"
	"github.com/revpilot/revpilot/internal/config"
	"github.com/revpilot/revpilot/internal/domain/comps"
	"github.com/revpilot/revpilot/internal/domain/engine"
	httpiface "github.com/revpilot/revpilot/internal/interfaces/http"
	"github.com/revpilot/revpilot/internal/persistence/postgres"
	"github.com/revpilot/revpilot/internal/providers"
	"github.com/revpilot/revpilot/internal/report"
)

// RunRequest identifies one property audit.
type RunRequest struct {
	PropertyID string
	MarketID   string
	Filters    comps.Filters
	Job        string // "audit" or "forecast", for metrics and logs
	DaysOut    int
}

// Runner executes engine runs end to end.
type Runner struct {
	engine   *engine.Engine
	selector *comps.Selector
	property providers.PropertyDataProvider
	repo     postgres.RunsRepo // nil disables archiving
	notifier *alerts.Notifier
	metrics  *httpiface.MetricsRegistry
}

// NewRunner assembles the pipeline. repo and metrics may be nil.
func NewRunner(settings config.Settings, market providers.MarketDataProvider,
	property providers.PropertyDataProvider, repo postgres.RunsRepo,
	notifier *alerts.Notifier, metrics *httpiface.MetricsRegistry) *Runner {
	return &Runner{
		engine:   engine.New(settings),
		selector: comps.NewSelector(market, settings.MinComps),
		property: property,
		repo:     repo,
		notifier: notifier,
		metrics:  metrics,
	}
}

// Run executes one audit: concurrent data fetches, tier selection, the
// engine pipeline, archiving, and alert delivery. A missing market ID is
// fatal for the run; fetch failures degrade to the fixed fallback records.
func (r *Runner) Run(ctx context.Context, req RunRequest) (report.RunReport, error) {
	if req.MarketID == "" {
		return report.RunReport{}, providers.ErrMissingMarket
	}

	start := time.Now()
	if r.metrics != nil {
		r.metrics.ActiveRuns.Inc()
		defer r.metrics.ActiveRuns.Dec()
	}

	// The property fetch and the sequential market tier walk are
	// independent; issue them together and await both.
	type propertyResult struct {
		data engine.PropertyData
		err  error
	}
	propertyCh := make(chan propertyResult, 1)
	go func() {
		data, err := r.property.FetchPropertyData(ctx, req.PropertyID)
		propertyCh <- propertyResult{data: data, err: err}
	}()

	compsResult, err := r.selector.Select(ctx, req.MarketID, req.Filters)
	if err != nil {
		log.Warn().Err(err).Str("market", req.MarketID).
			Msg("Market fetch failed, using fallback record")
		compsResult = comps.Result{
			Tier:   comps.TierWholeMarket,
			Market: providers.FallbackMarketData(),
		}
	}

	propRes := <-propertyCh
	property := propRes.data
	if propRes.err != nil {
		log.Warn().Err(propRes.err).Str("property", req.PropertyID).
			Msg("Property fetch failed, using fallback record")
		property = providers.FallbackPropertyData()
	}

	previousAPS, currentTarget := r.priorState(ctx, req.PropertyID)

	result := r.engine.Run(engine.RunInput{
		Property:          property,
		Market:            compsResult.Market,
		PreviousAPS:       previousAPS,
		CurrentTargetRent: currentTarget,
		DaysOut:           req.DaysOut,
		Today:             start,
	})

	runReport := report.RunReport{
		PropertyID: req.PropertyID,
		MarketID:   req.MarketID,
		RanAt:      start,
		Comps:      compsResult,
		Result:     result,
	}

	r.archive(ctx, req, runReport)

	if r.metrics != nil {
		r.metrics.RecordTier(string(compsResult.Tier), compsResult.SampleSize)
		r.metrics.RecordRun(req.Job, "success", time.Since(start).Seconds())
	}
	if r.notifier != nil {
		r.notifier.Send(ctx, report.Summary(runReport))
	}

	log.Info().
		Str("property", req.PropertyID).
		Str("market", req.MarketID).
		Str("tier", string(compsResult.Tier)).
		Str("diagnosis", string(result.Diagnosis.Type)).
		Int("day_actions", result.Summary.DaysWithAction).
		Int("promotions", len(result.Promotions)).
		Dur("elapsed", time.Since(start)).
		Msg("Engine run complete")

	return runReport, nil
}

// priorState loads the previous APS and target rent from the archive,
// defaulting to a neutral score and no target on the first run.
func (r *Runner) priorState(ctx context.Context, propertyID string) (float64, float64) {
	if r.repo == nil {
		return 1.0, 0
	}
	latest, err := r.repo.Latest(ctx, propertyID)
	if err != nil {
		if !errors.Is(err, postgres.ErrNoRuns) {
			log.Warn().Err(err).Str("property", propertyID).
				Msg("Failed to load prior run, starting neutral")
		}
		return 1.0, 0
	}
	return latest.Result.Formulas.NewAPS, latest.Result.Correction.NewTargetRent
}

func (r *Runner) archive(ctx context.Context, req RunRequest, runReport report.RunReport) {
	if r.repo == nil {
		return
	}
	snapshot := postgres.RunSnapshot{
		RunID:      uuid.NewString(),
		PropertyID: req.PropertyID,
		MarketID:   req.MarketID,
		Tier:       runReport.Comps.Tier,
		SampleSize: runReport.Comps.SampleSize,
		RanAt:      runReport.RanAt,
		Result:     runReport.Result,
	}
	if err := r.repo.Save(ctx, snapshot); err != nil {
		log.Error().Err(err).Str("run_id", snapshot.RunID).Msg("Failed to archive run")
	}
}
