// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/knowledge-engine/internal/validation"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Re-run validation on a cached research result",
	Long: `Validate loads a cached result and scores it against the quality rules
for its research type: structural minimums, confidence, source
credibility, and topic completeness.`,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	key, err := keyFromFlags(cmd)
	if err != nil {
		return err
	}

	resultCache, err := openCache(cmd)
	if err != nil {
		return err
	}
	defer resultCache.Close()

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	result, ok, err := resultCache.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no live cached result for key %s", key)
	}

	report := validation.NewResearchValidator().Validate(result)

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Printf("Query: %s\n", result.Query)
	fmt.Printf("Valid: %t\n", report.Valid)
	fmt.Printf("Score: %.2f\n", report.Score)
	for name, score := range report.Checks {
		fmt.Printf("  %-13s %.2f\n", name+":", score)
	}
	if len(report.Warnings) > 0 {
		fmt.Println("Warnings:")
		for _, w := range report.Warnings {
			fmt.Printf("  - %s\n", w)
		}
	}
	if len(report.Suggestions) > 0 {
		fmt.Println("Suggestions:")
		for _, s := range report.Suggestions {
			fmt.Printf("  - %s\n", s)
		}
	}
	if !report.Valid {
		return fmt.Errorf("result failed validation")
	}
	return nil
}

func init() {
	validateCmd.Flags().String("key", "", "cache key to validate")
	validateCmd.Flags().String("query", "", "query to derive the key from")
	validateCmd.Flags().String("type", "technical", "research type used with --query")
	validateCmd.Flags().Bool("json", false, "output the report as JSON")

	rootCmd.AddCommand(validateCmd)
}
