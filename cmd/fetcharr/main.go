// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/autobrr/fetcharr/internal/api"
	"github.com/autobrr/fetcharr/internal/buildinfo"
	"github.com/autobrr/fetcharr/internal/config"
	"github.com/autobrr/fetcharr/internal/database"
	"github.com/autobrr/fetcharr/internal/health"
	"github.com/autobrr/fetcharr/internal/logger"
	"github.com/autobrr/fetcharr/internal/metrics"
	"github.com/autobrr/fetcharr/internal/models"
	"github.com/autobrr/fetcharr/internal/services/search"
	"github.com/autobrr/fetcharr/internal/services/specifications"
)

func main() {
	root := &cobra.Command{
		Use:   "fetcharr",
		Short: "Release evaluation and monitoring decision engine",
	}

	var configDir string
	root.PersistentFlags().StringVar(&configDir, "config-dir", defaultConfigDir(), "directory holding config.toml and the database")

	root.AddCommand(runServeCommand(&configDir))
	root.AddCommand(runVersionCommand())
	root.AddCommand(runDBCommand(&configDir))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + "/fetcharr"
	}
	return "."
}

func runVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println(buildinfo.String())
		},
	}
}

func runDBCommand(configDir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database operations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and exit",
		RunE: func(_ *cobra.Command, _ []string) error {
			appCfg, err := config.New(*configDir, buildinfo.Version)
			if err != nil {
				return err
			}
			db, err := database.New(appCfg.Config.DataDir + "/fetcharr.db")
			if err != nil {
				return err
			}
			return db.Close()
		},
	})
	return cmd
}

func runServeCommand(configDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), *configDir)
		},
	}
}

func serve(ctx context.Context, configDir string) error {
	appCfg, err := config.New(configDir, buildinfo.Version)
	if err != nil {
		return err
	}
	cfg := appCfg.Config

	logger.Init(cfg)
	appCfg.WatchConfig()
	log.Info().Str("version", buildinfo.Version).Msg("starting fetcharr")

	db, err := database.New(cfg.DataDir + "/fetcharr.db")
	if err != nil {
		return err
	}
	defer db.Close()

	formatStore := models.NewCustomFormatStore(db)
	profileStore := models.NewScoringProfileStore(db)
	mediaStore := models.NewMediaStore(db)
	providerStore := models.NewProviderStore(db)
	taskStore := models.NewTaskRunStore(db)

	// Running markers from a previous process are never trusted across
	// restarts.
	if _, err := taskStore.ReconcileStale(ctx); err != nil {
		return fmt.Errorf("reconcile stale task runs: %w", err)
	}

	breaker := health.NewRegistry(health.Config{
		FailureThreshold: cfg.BreakerFailThreshold,
		Cooldown:         cfg.BreakerCooldown(),
	})

	var collector *metrics.EngineCollector
	var metricsSrv *http.Server
	if cfg.MetricsEnabled {
		manager := metrics.NewManager()
		collector = manager.Engine()
		breaker.OnStateChange(collector.ObserveBreakerState)

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(manager.GetRegistry(), promhttp.HandlerOpts{}))
		metricsSrv = &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.MetricsHost, cfg.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			log.Info().Str("addr", metricsSrv.Addr).Msg("metrics: listening")
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("metrics: server failed")
			}
		}()
	}

	specEngine := specifications.NewEngine(mediaStore)
	searchService := search.NewService(mediaStore, profileStore, formatStore, taskStore, nil, breaker, collector, search.Config{
		SeasonPackThreshold: cfg.SeasonPackThreshold,
		RetryAttempts:       cfg.SearchRetryAttempts,
		ProviderTimeout:     cfg.ProviderTimeout(),
	})

	server := api.NewServer(api.Deps{
		Config:        cfg,
		FormatStore:   formatStore,
		ProfileStore:  profileStore,
		ProviderStore: providerStore,
		SpecEngine:    specEngine,
		SearchService: searchService,
		Breaker:       breaker,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if metricsSrv != nil {
		metricsSrv.Shutdown(shutdownCtx)
	}
	return server.Shutdown(shutdownCtx)
}
