package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"mercator-hq/janus/pkg/cli"
	"mercator-hq/janus/pkg/config"
)

var decayCmd = &cobra.Command{
	Use:   "decay",
	Short: "Run a trust decay sweep once and exit",
	Long: `Run one trust decay sweep over the configured trust store.

The sweep applies the configured retention factor to every stored trust
profile whose accumulators have not been decayed recently. Use this for
manual maintenance or from an external scheduler instead of the built-in
cron schedule.

Examples:
  # Sweep the store configured in config.yaml
  janus decay

  # Sweep a specific deployment's store
  janus decay --config /etc/janus/config.yaml`,
	RunE: runDecay,
}

func init() {
	rootCmd.AddCommand(decayCmd)
}

func runDecay(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	a, err := newApp(config.GetConfig())
	if err != nil {
		return cli.NewCommandError("decay", err)
	}
	defer a.Close()

	stats, err := a.sweeper.Sweep(cli.SetupSignalHandler())
	if err != nil {
		return cli.NewCommandError("decay", err)
	}

	fmt.Printf("Sweep complete in %s\n", stats.Duration)
	fmt.Printf("  Scanned: %d\n", stats.Scanned)
	fmt.Printf("  Decayed: %d\n", stats.Decayed)
	fmt.Printf("  Skipped: %d\n", stats.Skipped)
	if stats.Errors > 0 {
		fmt.Printf("  Errors:  %d\n", stats.Errors)
		return cli.NewCommandError("decay", fmt.Errorf("%d profile update(s) failed", stats.Errors))
	}
	return nil
}
