// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the result cache (stats, cleanup, clear, invalidate)",
	Long: `Cache operates directly on the SQLite result cache. The pipeline
maintains the cache itself; these commands are for inspection and manual
maintenance.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache usage counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		resultCache, err := openCache(cmd)
		if err != nil {
			return err
		}
		defer resultCache.Close()

		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		stats, err := resultCache.Stats(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Entries:      %d\n", stats.Entries)
		fmt.Printf("Hits:         %d\n", stats.Hits)
		fmt.Printf("Misses:       %d\n", stats.Misses)
		fmt.Printf("Hit rate:     %.2f\n", stats.HitRate())
		if stats.LastCleanup.IsZero() {
			fmt.Println("Last cleanup: never")
		} else {
			fmt.Printf("Last cleanup: %s\n", stats.LastCleanup.Format(time.RFC3339))
		}
		return nil
	},
}

var cacheCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove expired entries and enforce the entry cap",
	RunE: func(cmd *cobra.Command, args []string) error {
		resultCache, err := openCache(cmd)
		if err != nil {
			return err
		}
		defer resultCache.Close()

		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		removed, err := resultCache.Cleanup(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d entries\n", removed)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached result and reset the counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		resultCache, err := openCache(cmd)
		if err != nil {
			return err
		}
		defer resultCache.Close()

		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		if err := resultCache.Clear(ctx); err != nil {
			return err
		}
		fmt.Println("Cache cleared")
		return nil
	},
}

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate",
	Short: "Remove a single cached result",
	RunE: func(cmd *cobra.Command, args []string) error {
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

		if err := resultCache.Invalidate(ctx, key); err != nil {
			return err
		}
		fmt.Printf("Invalidated %s\n", key)
		return nil
	},
}

func init() {
	cacheInvalidateCmd.Flags().String("key", "", "cache key to remove")
	cacheInvalidateCmd.Flags().String("query", "", "query to derive the key from")
	cacheInvalidateCmd.Flags().String("type", "technical", "research type used with --query")

	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheCleanupCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheInvalidateCmd)
	rootCmd.AddCommand(cacheCmd)
}
