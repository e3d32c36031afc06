package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"mercator-hq/janus/pkg/decision"
	"mercator-hq/janus/pkg/policy"
)

var lintFlags struct {
	file   string
	dir    string
	strict bool
	format string
}

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Validate rule files",
	Long: `Validate Janus rule files for syntax and semantic errors.

The lint command parses rule files and performs full validation:
  - YAML syntax validation
  - Domain keys restricted to the closed domain set
  - Redaction and verification settings checked per rule
  - Warnings for known domains without an explicit rule

Examples:
  # Lint single file
  janus lint --file rules.yaml

  # Lint directory
  janus lint --dir rules/

  # Strict mode (warnings as errors)
  janus lint --file rules.yaml --strict

  # JSON output for CI/CD
  janus lint --file rules.yaml --format json`,
	RunE: lintRules,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().StringVarP(&lintFlags.file, "file", "f", "", "rule file to validate")
	lintCmd.Flags().StringVarP(&lintFlags.dir, "dir", "d", "", "directory of rule files")
	lintCmd.Flags().BoolVar(&lintFlags.strict, "strict", false, "treat warnings as errors")
	lintCmd.Flags().StringVar(&lintFlags.format, "format", "text", "output format: text, json")
}

// ValidationResult is the validation outcome for a single rule file.
type ValidationResult struct {
	File     string   `json:"file"`
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func lintRules(cmd *cobra.Command, args []string) error {
	if lintFlags.file == "" && lintFlags.dir == "" {
		return fmt.Errorf("either --file or --dir must be specified")
	}

	var files []string
	if lintFlags.file != "" {
		files = append(files, lintFlags.file)
	}
	if lintFlags.dir != "" {
		for _, pattern := range []string{"*.yaml", "*.yml"} {
			matches, err := filepath.Glob(filepath.Join(lintFlags.dir, pattern))
			if err != nil {
				return fmt.Errorf("failed to list rule files: %w", err)
			}
			files = append(files, matches...)
		}
	}
	if len(files) == 0 {
		return fmt.Errorf("no rule files found")
	}

	results := make([]ValidationResult, 0, len(files))
	for _, file := range files {
		results = append(results, validateRuleFile(file))
	}

	if lintFlags.format == "json" {
		return outputJSON(results)
	}
	return outputText(results, lintFlags.strict)
}

func validateRuleFile(path string) ValidationResult {
	result := ValidationResult{File: path, Valid: true}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	rules, err := policy.ParseRules(data, path)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	// Known domains without a rule fall through to the permissive
	// default, which is usually an oversight.
	missing := make([]string, 0)
	for _, d := range []decision.Domain{
		decision.DomainFinance, decision.DomainHealth, decision.DomainLegal,
		decision.DomainWork, decision.DomainFamily, decision.DomainMemories,
	} {
		if _, ok := rules.Domains[d]; !ok {
			missing = append(missing, string(d))
		}
	}
	sort.Strings(missing)
	for _, d := range missing {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("domain %q has no rule and defaults to allow", d))
	}
	return result
}

func outputText(results []ValidationResult, strict bool) error {
	totalErrors := 0
	totalWarnings := 0

	for _, result := range results {
		fmt.Printf("Validating %s...\n", result.File)

		if len(result.Errors) == 0 && len(result.Warnings) == 0 {
			fmt.Println("✓ Syntax valid")
			fmt.Println("✓ All domain rules valid")
		}
		for _, msg := range result.Errors {
			fmt.Printf("✗ Error: %s\n", msg)
			totalErrors++
		}
		for _, msg := range result.Warnings {
			fmt.Printf("⚠ Warning: %s\n", msg)
			totalWarnings++
		}
		fmt.Println()
	}

	fmt.Printf("Checked %d file(s): %d error(s), %d warning(s)\n",
		len(results), totalErrors, totalWarnings)

	if totalErrors > 0 {
		return fmt.Errorf("validation failed")
	}
	if strict && totalWarnings > 0 {
		return fmt.Errorf("validation failed (strict mode)")
	}
	return nil
}

func outputJSON(results []ValidationResult) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(results); err != nil {
		return err
	}
	for _, result := range results {
		if !result.Valid {
			return fmt.Errorf("validation failed")
		}
	}
	return nil
}
