package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"mercator-hq/janus/pkg/cli"
	"mercator-hq/janus/pkg/config"
)

var runFlags struct {
	logLevel string
	dryRun   bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Janus decision engine",
	Long: `Start the Janus decision engine with the specified configuration.

The engine loads its policy rules, opens the trust, knowledge, and
provenance stores, and keeps running until interrupted. When rule
watching is enabled, rule changes are picked up without a restart; when
a decay schedule is configured, trust accumulators are swept on that
schedule.

Examples:
  # Start with default config
  janus run

  # Start with custom config
  janus run --config /etc/janus/config.yaml

  # Validate config without starting
  janus run --dry-run`,
	RunE: runEngine,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting")
}

func runEngine(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()

	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	fmt.Printf("Janus v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)

	a, err := newApp(cfg)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer a.Close()

	fmt.Printf("✓ Policy rules loaded (mode: %s)\n", cfg.Policy.Mode)
	fmt.Printf("✓ Trust store ready (backend: %s)\n", cfg.Trust.Backend)
	fmt.Printf("✓ Knowledge ledger ready (backend: %s)\n", cfg.Knowledge.Backend)
	fmt.Printf("✓ Provenance ledger ready (backend: %s)\n", cfg.Provenance.Backend)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Policy.Watch || cfg.Policy.Mode == "git" {
		if err := a.evaluator.Start(ctx); err != nil {
			slog.Warn("failed to start rule watching", "error", err)
		} else {
			fmt.Println("✓ Rule watching active")
		}
	}

	if a.scheduler != nil {
		if err := a.scheduler.Start(ctx); err != nil {
			slog.Warn("failed to start decay scheduler", "error", err)
		} else if next := a.scheduler.NextRun(); next != nil {
			fmt.Printf("✓ Decay scheduler active (next sweep: %s)\n", next.Format(time.RFC3339))
		}
	}

	if cfg.Telemetry.Metrics.Enabled && cfg.Telemetry.Metrics.ListenAddress != "" {
		if err := a.metricsSrv.Start(); err != nil {
			return cli.NewCommandError("run", fmt.Errorf("metrics server: %w", err))
		}
		fmt.Printf("✓ Metrics endpoint: http://%s%s\n",
			cfg.Telemetry.Metrics.ListenAddress, cfg.Telemetry.Metrics.Path)
	}

	fmt.Println("\nPress Ctrl+C to stop")

	sig := <-cli.WaitForShutdown()
	fmt.Printf("\nReceived signal %s, shutting down gracefully...\n", sig)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := a.metricsSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("metrics shutdown failed", "error", err)
	}

	fmt.Println("✓ Engine stopped")
	return nil
}
