// Package scheduler triggers recurring engine runs (weekly audits, monthly
// forecasts) from a YAML job table.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/revpilot/revpilot/internal/app"
	"github.com/revpilot/revpilot/internal/domain/comps"
)

// Job is one scheduled engine run configuration.
type Job struct {
	Name       string        `yaml:"name"`
	Every      string        `yaml:"every"` // Go duration, e.g. 168h for weekly
	Type       string        `yaml:"type"`  // "audit" or "forecast"
	Enabled    bool          `yaml:"enabled"`
	PropertyID string        `yaml:"property_id"`
	MarketID   string        `yaml:"market_id"`
	DaysOut    int           `yaml:"days_out"`
	Filters    comps.Filters `yaml:"filters"`

	// Interval is parsed from Every at load time.
	Interval time.Duration `yaml:"-"`
}

// Config is the scheduler job table.
type Config struct {
	Jobs []Job `yaml:"jobs"`
}

// JobResult records one job execution.
type JobResult struct {
	JobName   string        `yaml:"job_name"`
	StartTime time.Time     `yaml:"start_time"`
	Duration  time.Duration `yaml:"duration"`
	Success   bool          `yaml:"success"`
	Error     string        `yaml:"error,omitempty"`
}

// Scheduler drives the job table against the run pipeline.
type Scheduler struct {
	config    Config
	runner    *app.Runner
	startTime time.Time

	mu      sync.Mutex
	running bool
	results []JobResult
}

// New creates a scheduler from a YAML job table.
func New(configPath string, runner *app.Runner) (*Scheduler, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load scheduler config: %w", err)
	}
	return &Scheduler{config: config, runner: runner}, nil
}

func loadConfig(configPath string) (Config, error) {
	var config Config

	data, err := os.ReadFile(configPath)
	if err != nil {
		return config, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("failed to parse config file: %w", err)
	}

	for i, job := range config.Jobs {
		interval, err := time.ParseDuration(job.Every)
		if err != nil || interval <= 0 {
			return config, fmt.Errorf("job %q has invalid interval %q", job.Name, job.Every)
		}
		job.Interval = interval
		if job.Type != "audit" && job.Type != "forecast" {
			return config, fmt.Errorf("job %q has unknown type %q", job.Name, job.Type)
		}
		if job.PropertyID == "" {
			return config, fmt.Errorf("job %q has no property_id", job.Name)
		}
		config.Jobs[i] = job
	}
	return config, nil
}

// Jobs returns the configured job table.
func (s *Scheduler) Jobs() []Job {
	return s.config.Jobs
}

// Start runs every enabled job on its interval until the context is
// cancelled. Each job fires once immediately on start.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	s.running = true
	s.startTime = time.Now()
	s.mu.Unlock()

	var wg sync.WaitGroup
	enabled := 0
	for _, job := range s.config.Jobs {
		if !job.Enabled {
			continue
		}
		enabled++
		wg.Add(1)
		go func(job Job) {
			defer wg.Done()
			s.runLoop(ctx, job)
		}(job)
	}

	log.Info().Int("enabled_jobs", enabled).Msg("Scheduler started")
	wg.Wait()

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	return ctx.Err()
}

func (s *Scheduler) runLoop(ctx context.Context, job Job) {
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	s.execute(ctx, job)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.execute(ctx, job)
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, job Job) {
	start := time.Now()
	_, err := s.runner.Run(ctx, app.RunRequest{
		PropertyID: job.PropertyID,
		MarketID:   job.MarketID,
		Filters:    job.Filters,
		Job:        job.Type,
		DaysOut:    job.DaysOut,
	})

	result := JobResult{
		JobName:   job.Name,
		StartTime: start,
		Duration:  time.Since(start),
		Success:   err == nil,
	}
	if err != nil {
		result.Error = err.Error()
		log.Error().Err(err).Str("job", job.Name).Msg("Scheduled run failed")
	}

	s.mu.Lock()
	s.results = append(s.results, result)
	if len(s.results) > 100 {
		s.results = s.results[len(s.results)-100:]
	}
	s.mu.Unlock()
}

// StatusSnapshot reports scheduler state for the /status endpoint.
func (s *Scheduler) StatusSnapshot() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	enabled, disabled := 0, 0
	for _, job := range s.config.Jobs {
		if job.Enabled {
			enabled++
		} else {
			disabled++
		}
	}

	snapshot := map[string]interface{}{
		"running":       s.running,
		"enabled_jobs":  enabled,
		"disabled_jobs": disabled,
		"runs_recorded": len(s.results),
	}
	if s.running {
		snapshot["uptime"] = time.Since(s.startTime).String()
	}
	if len(s.results) > 0 {
		last := s.results[len(s.results)-1]
		snapshot["last_job"] = last.JobName
		snapshot["last_run"] = last.StartTime.Format(time.RFC3339)
		snapshot["last_success"] = last.Success
	}
	return snapshot
}
