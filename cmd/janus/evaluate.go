package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"mercator-hq/janus/pkg/cli"
	"mercator-hq/janus/pkg/config"
	"mercator-hq/janus/pkg/decision"
)

var evaluateFlags struct {
	caller         string
	domain         string
	utterance      string
	scope          string
	classification string
	strictTruth    bool
	sensitive      bool
	timeout        time.Duration
	format         string
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a single disclosure request",
	Long: `Evaluate a single disclosure request and print the decision.

The engine is wired from the configuration file, the request is run
through the full decision pipeline, and the resulting decision is
printed with its outcome, reason codes, and scores.

Examples:
  # Evaluate a family-domain request
  janus evaluate --caller spouse-1 --domain family --utterance "how did the visit go"

  # Require verifiable provenance and print JSON
  janus evaluate --caller colleague-2 --domain work \
    --utterance "what was decided in the review" --strict-truth --format json

  # Evaluate against classified information
  janus evaluate --caller friend-3 --domain finance \
    --utterance "how much is in the account" --classification secret --sensitive`,
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringVar(&evaluateFlags.caller, "caller", "", "caller identifier (required)")
	evaluateCmd.Flags().StringVar(&evaluateFlags.domain, "domain", "", "topic domain (required)")
	evaluateCmd.Flags().StringVar(&evaluateFlags.utterance, "utterance", "", "request text (required)")
	evaluateCmd.Flags().StringVar(&evaluateFlags.scope, "scope", "", "optional scope within the domain")
	evaluateCmd.Flags().StringVar(&evaluateFlags.classification, "classification", "", "security label (general, secret, c2c3, ultra)")
	evaluateCmd.Flags().BoolVar(&evaluateFlags.strictTruth, "strict-truth", false, "require verifiable provenance")
	evaluateCmd.Flags().BoolVar(&evaluateFlags.sensitive, "sensitive", false, "force a risk review")
	evaluateCmd.Flags().DurationVar(&evaluateFlags.timeout, "timeout", 5*time.Second, "evaluation deadline")
	evaluateCmd.Flags().StringVarP(&evaluateFlags.format, "format", "f", "text", "output format (text, json)")

	evaluateCmd.MarkFlagRequired("caller")
	evaluateCmd.MarkFlagRequired("domain")
	evaluateCmd.MarkFlagRequired("utterance")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	rc := decision.RequestContext{
		CallerID:    evaluateFlags.caller,
		Utterance:   evaluateFlags.utterance,
		Domain:      decision.ParseDomain(evaluateFlags.domain),
		Scope:       evaluateFlags.scope,
		StrictTruth: evaluateFlags.strictTruth,
		Sensitive:   evaluateFlags.sensitive,
	}
	if evaluateFlags.classification != "" {
		class, err := decision.ParseClassification(evaluateFlags.classification)
		if err != nil {
			return cli.NewCommandError("evaluate", err)
		}
		rc.Classification = class
	}

	a, err := newApp(config.GetConfig())
	if err != nil {
		return cli.NewCommandError("evaluate", err)
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), evaluateFlags.timeout)
	defer cancel()

	d, err := a.engine.Evaluate(ctx, rc)
	if err != nil {
		return cli.NewCommandError("evaluate", err)
	}

	if cli.OutputFormat(evaluateFlags.format) == cli.FormatJSON {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, d)
	}
	printDecision(d)
	return nil
}

func printDecision(d *decision.Decision) {
	fmt.Printf("Decision:   %s\n", d.ID)
	fmt.Printf("Outcome:    %s\n", d.Outcome)
	fmt.Printf("Confidence: %.2f\n", d.Confidence)
	fmt.Printf("Reasons:    %s\n", joinReasons(d.Reasons))
	fmt.Printf("MKE score:  %.2f\n", d.MKEScore)
	fmt.Printf("Trust:      %.2f (%s, threshold %.2f)\n", d.TrustScore, d.TrustBand, d.TrustThreshold)
	if d.NeedsVerification {
		fmt.Println("Verification required before disclosure")
	}
	for _, p := range d.Prompts {
		fmt.Printf("Prompt:     %s\n", p)
	}
	for _, r := range d.Redactions {
		fmt.Printf("Redact:     %s\n", r)
	}
	fmt.Printf("Evaluated in %s\n", d.EvaluationTime)
}

func joinReasons(reasons []decision.ReasonCode) string {
	parts := make([]string, len(reasons))
	for i, r := range reasons {
		parts[i] = string(r)
	}
	return strings.Join(parts, ", ")
}
