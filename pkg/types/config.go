// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by backends that make network
// requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "knowledge-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// CollectConfig holds settings for the source-collection stage.
type CollectConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxSources is the default maximum number of sources to return
	// (default 10).
	MaxSources int `json:"max_sources" yaml:"max_sources"`

	// MaxInFlight bounds concurrent backend calls (default 5).
	MaxInFlight int `json:"max_in_flight" yaml:"max_in_flight"`

	// Seed primes the relevance jitter. Zero means seed from the clock;
	// tests set it for reproducible ranking.
	Seed int64 `json:"seed,omitempty" yaml:"seed,omitempty"`

	// SearchEndpoint optionally enables the HTTP backend against a JSON
	// search API. Empty disables it.
	SearchEndpoint string `json:"search_endpoint,omitempty" yaml:"search_endpoint,omitempty"`
}

// AnalyzeConfig holds settings for the analysis stage.
type AnalyzeConfig struct {
	// MaxInFlight bounds concurrent agent calls (default 5).
	MaxInFlight int `json:"max_in_flight" yaml:"max_in_flight"`

	// PromptSources is the number of top sources included in the agent
	// prompt (default 5).
	PromptSources int `json:"prompt_sources" yaml:"prompt_sources"`

	// Model names the model used by model-backed agents
	// (default "claude-sonnet-4-20250514").
	Model string `json:"model" yaml:"model"`

	// APIKeys maps secret names to values for model-backed strategies.
	// Simulated strategies ignore them.
	APIKeys map[string]string `json:"-" yaml:"-"`
}

// CacheConfig holds settings for the research cache. One cache instance is
// constructed from this at startup; there is no process-wide singleton.
type CacheConfig struct {
	// Directory is where the cache database lives
	// (default ".knowledge-cache").
	Directory string `json:"directory" yaml:"directory"`

	// TTL is the entry lifetime (default 24h). Entries older than TTL are
	// misses and are purged by the next cleanup.
	TTL time.Duration `json:"ttl" yaml:"ttl"`

	// MaxEntries bounds the number of live entries (default 1000). Cleanup
	// evicts oldest-by-last-write entries beyond the bound.
	MaxEntries int `json:"max_entries" yaml:"max_entries"`
}

// EngineConfig groups the stage configurations for the pipeline.
type EngineConfig struct {
	Collect CollectConfig `json:"collect" yaml:"collect"`
	Analyze AnalyzeConfig `json:"analyze" yaml:"analyze"`
	Cache   CacheConfig   `json:"cache" yaml:"cache"`
}
