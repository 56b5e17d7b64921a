package main

import (
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/revpilot/revpilot/internal/alerts"
	"github.com/revpilot/revpilot/internal/app"
	"github.com/revpilot/revpilot/internal/cache"
	"github.com/revpilot/revpilot/internal/config"
	httpiface "github.com/revpilot/revpilot/internal/interfaces/http"
	"github.com/revpilot/revpilot/internal/persistence/postgres"
	"github.com/revpilot/revpilot/internal/providers"
)

// deps is everything a command needs, assembled from config.
type deps struct {
	settings config.Settings
	appCfg   config.AppConfig
	runner   *app.Runner
	repo     postgres.RunsRepo
	metrics  *httpiface.MetricsRegistry
}

// buildDeps wires the full pipeline from the root command's config flags.
// withMetrics is false for one-shot commands so repeated CLI invocations do
// not fight over Prometheus registration.
func buildDeps(cmd *cobra.Command, withMetrics bool) (*deps, error) {
	settingsPath, _ := cmd.Flags().GetString("settings")
	configPath, _ := cmd.Flags().GetString("config")

	settings, err := config.LoadSettings(settingsPath)
	if err != nil {
		return nil, err
	}
	appCfg, err := config.LoadAppConfig(configPath)
	if err != nil {
		return nil, err
	}

	var redisClient redis.Cmdable
	if appCfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     appCfg.Redis.Addr,
			Password: appCfg.Redis.Password,
			DB:       appCfg.Redis.DB,
		})
	}
	responseCache := cache.New(redisClient,
		time.Duration(appCfg.Provider.CacheTTLSecs)*time.Second)

	var metrics *httpiface.MetricsRegistry
	var recorder providers.RequestRecorder
	if withMetrics {
		metrics = httpiface.NewMetricsRegistry()
		recorder = metrics
	}

	client := providers.NewClient(appCfg.Provider, responseCache, recorder)

	var repo postgres.RunsRepo
	if appCfg.Postgres.DSN != "" {
		db, err := postgres.Open(appCfg.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("postgres connection failed: %w", err)
		}
		repo = postgres.NewRunsRepo(db, time.Duration(appCfg.Postgres.TimeoutSecs)*time.Second)
	} else {
		log.Debug().Msg("No postgres DSN configured, run archiving disabled")
	}

	notifier := alerts.NewNotifier(appCfg.Alerts)
	runner := app.NewRunner(settings, client, client, repo, notifier, metrics)

	return &deps{
		settings: settings,
		appCfg:   appCfg,
		runner:   runner,
		repo:     repo,
		metrics:  metrics,
	}, nil
}
