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

	"github.com/avoylenko/jira-asset-sync/internal/config"
	"github.com/avoylenko/jira-asset-sync/internal/logging"
	"github.com/avoylenko/jira-asset-sync/internal/reconciler"
	"github.com/avoylenko/jira-asset-sync/pkg/assets"
	"github.com/avoylenko/jira-asset-sync/pkg/jira"
)

// Version information (set at build time with -ldflags)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var runOnce bool

var rootCmd = &cobra.Command{
	Use:     "assetsync",
	Short:   "assetsync - Jira Assets update reconciler",
	Long:    `assetsync keeps an asset catalog and its remediation issues in sync: every asset whose update is overdue or imminent gets exactly one active remediation issue, and drifting issues are commented and transitioned.`,
	Version: Version,
	Run: func(cmd *cobra.Command, args []string) {
		runDaemon()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("assetsync %s\n", Version)
		if BuildTime != "unknown" {
			fmt.Printf("Built: %s\n", BuildTime)
		}
		if GitCommit != "unknown" {
			fmt.Printf("Commit: %s\n", GitCommit)
		}
	},
}

func init() {
	rootCmd.Flags().BoolVar(&runOnce, "once", false, "run a single reconciliation pass and exit")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runDaemon() {
	// Baseline logger for early startup output.
	logging.Init(logging.Config{Format: "auto", Level: "info", Component: "assetsync"})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	logging.Init(logging.Config{Format: cfg.LogFormat, Level: cfg.LogLevel, Component: "assetsync"})
	log.Info().Str("version", Version).Dur("poll_interval", cfg.PollInterval).Msg("Starting assetsync")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	issueClient, err := jira.NewClient(jira.ClientConfig{
		BaseURL:  cfg.JiraURL,
		Email:    cfg.JiraEmail,
		APIToken: cfg.JiraAPIToken,
		Timeout:  cfg.ConnectionTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Jira client")
	}

	assetClient, err := assets.NewClient(assets.ClientConfig{
		BaseURL:     cfg.JiraURL,
		Email:       cfg.JiraEmail,
		APIToken:    cfg.JiraAPIToken,
		WorkspaceID: cfg.WorkspaceID,
		Timeout:     cfg.ConnectionTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Assets client")
	}

	mappings, err := config.LoadMappings(ctx, cfg, assetClient)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load mapping files")
	}

	if watcher, err := config.NewMappingsWatcher(mappings); err != nil {
		log.Warn().Err(err).Msg("Mapping file watcher unavailable, edits require a restart")
	} else if err := watcher.Start(); err != nil {
		log.Warn().Err(err).Msg("Mapping file watcher failed to start, edits require a restart")
	} else {
		defer watcher.Stop()
	}

	if cfg.MetricsListenAddr != "" {
		go serveMetrics(cfg.MetricsListenAddr)
	}

	rec := reconciler.New(issueClient, assetClient, mappings, cfg)

	runPass := func() {
		if err := rec.RunPass(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("Reconciliation pass failed")
		}
	}

	runPass()
	if runOnce {
		log.Info().Msg("Single pass complete, exiting")
		return
	}

	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Shutting down")
			return
		case <-ticker.C:
			runPass()
		}
	}
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	log.Info().Str("addr", addr).Msg("Metrics listener started")
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("Metrics listener failed")
	}
}
