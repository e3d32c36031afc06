package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "janus",
	Short: "Janus - disclosure-decision engine",
	Long: `Janus is a disclosure-decision engine for conversational agents.

It decides what an agent may reveal, to whom, and under which safeguards:
  - Policy rule tables with per-domain allow, verify, and redaction rules
  - Accumulated caller trust with time decay
  - Mutual-knowledge estimation against a knowledge ledger
  - Strict-truth provenance verification
  - Risk assessment with response-strategy planning

Every evaluation produces an auditable decision with machine-readable
reason codes.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
