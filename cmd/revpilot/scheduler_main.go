package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/revpilot/revpilot/internal/config"
	httpiface "github.com/revpilot/revpilot/internal/interfaces/http"
	"github.com/revpilot/revpilot/internal/scheduler"
)

func runScheduleStart(cmd *cobra.Command, _ []string) error {
	jobsPath, _ := cmd.Flags().GetString("jobs")

	d, err := buildDeps(cmd, true)
	if err != nil {
		return err
	}

	sched, err := scheduler.New(jobsPath, d.runner)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := httpiface.NewServer(d.appCfg.Monitor.ListenAddr, d.metrics, sched)
	go func() {
		if err := server.ListenAndServe(); err != nil {
			log.Warn().Err(err).Msg("Monitor server stopped")
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Monitor shutdown failed")
		}
	}()

	if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info().Msg("Scheduler stopped")
	return nil
}

func runScheduleList(cmd *cobra.Command, _ []string) error {
	jobsPath, _ := cmd.Flags().GetString("jobs")

	d, err := buildDeps(cmd, false)
	if err != nil {
		return err
	}
	sched, err := scheduler.New(jobsPath, d.runner)
	if err != nil {
		return err
	}

	for _, job := range sched.Jobs() {
		state := "disabled"
		if job.Enabled {
			state = "enabled"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-24s %-9s every %-8s property=%s market=%s [%s]\n",
			job.Name, job.Type, job.Every, job.PropertyID, job.MarketID, state)
	}
	return nil
}

func runScheduleStatus(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	appCfg, err := config.LoadAppConfig(configPath)
	if err != nil {
		return err
	}

	addr := appCfg.Monitor.ListenAddr
	if len(addr) > 0 && addr[0] == ':' {
		addr = "localhost" + addr
	}

	httpClient := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, "http://"+addr+"/status", nil)
	if err != nil {
		return err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("scheduler not reachable at %s: %w", addr, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(body))
	return nil
}

func runMonitor(cmd *cobra.Command, _ []string) error {
	d, err := buildDeps(cmd, true)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := httpiface.NewServer(d.appCfg.Monitor.ListenAddr, d.metrics, nil)
	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
