// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/knowledge-engine/internal/analyze"
	"github.com/pdiddy/knowledge-engine/internal/cache"
	"github.com/pdiddy/knowledge-engine/internal/collect"
	"github.com/pdiddy/knowledge-engine/internal/engine"
	"github.com/pdiddy/knowledge-engine/internal/synthesis"
	"github.com/pdiddy/knowledge-engine/pkg/types"
)

var researchCmd = &cobra.Command{
	Use:   "research",
	Short: "Conduct and inspect research runs",
	Long: `Research drives the pipeline. "conduct" runs a query through
collection, analysis, synthesis, and validation; the other subcommands
inspect results already in the cache.`,
}

// --- conduct subcommand ---

var researchConductCmd = &cobra.Command{
	Use:   "conduct",
	Short: "Run a research query through the full pipeline",
	Long: `Conduct collects sources for the query, analyzes them with the agent
roster, synthesizes the analyses into one result, validates it, and
caches it. A repeated query of the same type on the same day is served
from cache unless --force-refresh is given.`,
	RunE: runResearchConduct,
}

func runResearchConduct(cmd *cobra.Command, args []string) error {
	query, _ := cmd.Flags().GetString("query")
	typeName, _ := cmd.Flags().GetString("type")
	forceRefresh, _ := cmd.Flags().GetBool("force-refresh")
	if query == "" {
		return fmt.Errorf("--query is required")
	}
	rt := types.ResearchType(typeName)
	if !types.KnownResearchType(rt) {
		return fmt.Errorf("unknown research type %q (known: %v)", typeName, types.KnownResearchTypes)
	}

	cfg := engineConfig()
	if maxSources, _ := cmd.Flags().GetInt("max-sources"); maxSources > 0 {
		cfg.Collect.MaxSources = maxSources
	}

	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	resultCache, err := cache.Open(cfg.Cache, log)
	if err != nil {
		return err
	}
	defer resultCache.Close()

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	eng := buildEngine(cfg, rt, resultCache, log)
	result, err := eng.Conduct(ctx, query, rt, forceRefresh)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return printResult(result, jsonOutput)
}

// buildEngine assembles the pipeline. The backend roster is simulated
// unless a search endpoint is configured, in which case an HTTP backend
// is added alongside the simulated ones. The agent roster is model-backed
// when an Anthropic API key was loaded, simulated otherwise.
func buildEngine(cfg types.EngineConfig, rt types.ResearchType, resultCache *cache.ResearchCache, log *zap.Logger) *engine.Engine {
	backends := collect.NewSimulatedBackends(rt)
	if cfg.Collect.SearchEndpoint != "" {
		backends = append(backends, collect.NewHTTPBackend("web-live", cfg.Collect.SearchEndpoint, cfg.Collect.HTTPConfig))
	}
	collector := collect.New(backends, cfg.Collect, log.Named("collect"))

	agents := analyze.NewSimulatedAgents()
	if key := cfg.Analyze.APIKeys["anthropic-api-key"]; key != "" {
		agents = analyze.NewClaudeAgents(key, cfg.Analyze.Model)
	}
	registry := analyze.NewRegistry()
	for _, agent := range agents {
		registry.Register(agent)
	}
	analyzer := analyze.New(registry, cfg.Analyze, log.Named("analyze"))

	return engine.New(collector, analyzer, synthesis.New(log.Named("synthesis")), resultCache, cfg, log.Named("engine"))
}

func printResult(result *types.ResearchResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Printf("Query:        %s\n", result.Query)
	fmt.Printf("Type:         %s\n", result.ResearchType)
	fmt.Printf("Status:       %s\n", result.Status)
	fmt.Printf("Sources:      %d\n", len(result.Sources))
	fmt.Printf("Analyses:     %d\n", len(result.Analyses))
	fmt.Printf("Confidence:   %.2f\n", result.ConfidenceScore)
	fmt.Printf("Completeness: %.2f\n", result.CompletenessScore)
	fmt.Printf("Quality:      %.2f (%s)\n", result.QualityScore, result.Metadata["quality_level"])
	fmt.Println()
	fmt.Println("Summary:")
	fmt.Println(wrapIndent(result.SynthesizedSummary, "  "))
	if len(result.KeyInsights) > 0 {
		fmt.Println("\nKey insights:")
		for _, in := range result.KeyInsights {
			fmt.Printf("  - %s\n", in)
		}
	}
	if len(result.Recommendations) > 0 {
		fmt.Println("\nRecommendations:")
		for _, r := range result.Recommendations {
			fmt.Printf("  - %s\n", r)
		}
	}
	return nil
}

func wrapIndent(text, indent string) string {
	return indent + strings.ReplaceAll(text, "\n", "\n"+indent)
}

// --- status subcommand ---

var researchStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a query has a live cached result",
	RunE:  runResearchStatus,
}

func runResearchStatus(cmd *cobra.Command, args []string) error {
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
		fmt.Printf("%s: no live cached result\n", key)
		return nil
	}
	fmt.Printf("%s: %s (%q, %s, updated %s)\n",
		key, result.Status, result.Query, result.ResearchType,
		result.UpdatedAt.Format(time.RFC3339))
	return nil
}

// --- history subcommand ---

var researchHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent cached research results",
	RunE:  runResearchHistory,
}

func runResearchHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	resultCache, err := openCache(cmd)
	if err != nil {
		return err
	}
	defer resultCache.Close()

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	hits, err := resultCache.Recent(ctx, limit)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Println("No cached results.")
		return nil
	}
	printHits(hits, false)
	return nil
}

// --- search subcommand ---

var researchSearchCmd = &cobra.Command{
	Use:   "search <text>",
	Short: "Search cached results by query text",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runResearchSearch,
}

func runResearchSearch(cmd *cobra.Command, args []string) error {
	resultCache, err := openCache(cmd)
	if err != nil {
		return err
	}
	defer resultCache.Close()

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	hits, err := resultCache.Search(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	printHits(hits, true)
	return nil
}

func printHits(hits []cache.SearchHit, withScore bool) {
	if withScore {
		fmt.Printf("%-34s  %-5s  %-12s  %s\n", "Key", "Score", "Type", "Query")
	} else {
		fmt.Printf("%-34s  %-12s  %s\n", "Key", "Type", "Query")
	}
	fmt.Println(strings.Repeat("-", 80))
	for _, h := range hits {
		if withScore {
			fmt.Printf("%-34s  %.2f   %-12s  %s\n", h.Key, h.Score, h.Result.ResearchType, h.Query)
		} else {
			fmt.Printf("%-34s  %-12s  %s\n", h.Key, h.Result.ResearchType, h.Query)
		}
	}
}

// --- export subcommand ---

var researchExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a cached result to a YAML file",
	RunE:  runResearchExport,
}

func runResearchExport(cmd *cobra.Command, args []string) error {
	key, err := keyFromFlags(cmd)
	if err != nil {
		return err
	}
	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		return fmt.Errorf("--out is required")
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

	data, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	fmt.Printf("Exported %s to %s\n", key, out)
	return nil
}

// --- shared helpers ---

// keyFromFlags resolves the cache key: either --key directly or derived
// from --query and --type.
func keyFromFlags(cmd *cobra.Command) (string, error) {
	key, _ := cmd.Flags().GetString("key")
	if key != "" {
		return key, nil
	}
	query, _ := cmd.Flags().GetString("query")
	typeName, _ := cmd.Flags().GetString("type")
	if query == "" {
		return "", fmt.Errorf("provide --key, or --query and --type")
	}
	rt := types.ResearchType(typeName)
	if !types.KnownResearchType(rt) {
		return "", fmt.Errorf("unknown research type %q (known: %v)", typeName, types.KnownResearchTypes)
	}

	resultCache, err := openCache(cmd)
	if err != nil {
		return "", err
	}
	defer resultCache.Close()
	return resultCache.Key(query, rt), nil
}

func openCache(cmd *cobra.Command) (*cache.ResearchCache, error) {
	log, err := newLogger(cmd)
	if err != nil {
		return nil, err
	}
	return cache.Open(engineConfig().Cache, log)
}

func init() {
	researchConductCmd.Flags().String("query", "", "research question to investigate")
	researchConductCmd.Flags().String("type", "technical", "research type: technical, methodology, or competitive")
	researchConductCmd.Flags().Int("max-sources", 0, "override the configured source budget")
	researchConductCmd.Flags().Bool("force-refresh", false, "ignore any cached result and re-run the pipeline")
	researchConductCmd.Flags().Bool("json", false, "output the result as JSON")

	researchStatusCmd.Flags().String("key", "", "cache key to inspect")
	researchStatusCmd.Flags().String("query", "", "query to derive the key from")
	researchStatusCmd.Flags().String("type", "technical", "research type used with --query")

	researchHistoryCmd.Flags().Int("limit", 10, "maximum entries to list")

	researchExportCmd.Flags().String("key", "", "cache key to export")
	researchExportCmd.Flags().String("query", "", "query to derive the key from")
	researchExportCmd.Flags().String("type", "technical", "research type used with --query")
	researchExportCmd.Flags().String("out", "", "output YAML file path")

	researchCmd.AddCommand(researchConductCmd)
	researchCmd.AddCommand(researchStatusCmd)
	researchCmd.AddCommand(researchHistoryCmd)
	researchCmd.AddCommand(researchSearchCmd)
	researchCmd.AddCommand(researchExportCmd)
	rootCmd.AddCommand(researchCmd)
}
