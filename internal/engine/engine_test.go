// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/knowledge-engine/internal/analyze"
	"github.com/pdiddy/knowledge-engine/internal/cache"
	"github.com/pdiddy/knowledge-engine/internal/collect"
	"github.com/pdiddy/knowledge-engine/internal/synthesis"
	"github.com/pdiddy/knowledge-engine/pkg/types"
)

type failingAgent struct{}

func (failingAgent) Name() string       { return "failing" }
func (failingAgent) Capability() string { return "technical_analysis" }
func (failingAgent) Analyze(context.Context, analyze.Request) (types.Analysis, error) {
	return types.Analysis{}, fmt.Errorf("agent offline")
}

type blockingAgent struct{ started chan struct{} }

func (blockingAgent) Name() string       { return "blocking" }
func (blockingAgent) Capability() string { return "technical_analysis" }
func (b blockingAgent) Analyze(ctx context.Context, _ analyze.Request) (types.Analysis, error) {
	close(b.started)
	<-ctx.Done()
	return types.Analysis{}, ctx.Err()
}

func testConfig(t *testing.T) types.EngineConfig {
	t.Helper()
	return types.EngineConfig{
		Collect: types.CollectConfig{MaxSources: 10, Seed: 42},
		Cache:   types.CacheConfig{Directory: t.TempDir(), TTL: 24 * time.Hour, MaxEntries: 100},
	}
}

func newTestEngine(t *testing.T, cfg types.EngineConfig, agents []analyze.Agent) (*Engine, *cache.ResearchCache) {
	t.Helper()

	resultCache, err := cache.Open(cfg.Cache, nil)
	require.NoError(t, err)
	t.Cleanup(func() { resultCache.Close() })

	registry := analyze.NewRegistry()
	for _, a := range agents {
		registry.Register(a)
	}

	collector := collect.New(collect.NewSimulatedBackends(types.ResearchTypeTechnical), cfg.Collect, nil)
	analyzer := analyze.New(registry, cfg.Analyze, nil)

	return New(collector, analyzer, synthesis.New(nil), resultCache, cfg, nil), resultCache
}

func TestConductEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	e, _ := newTestEngine(t, cfg, analyze.NewSimulatedAgents())

	result, err := e.Conduct(context.Background(), "go concurrency patterns", types.ResearchTypeTechnical, false)
	require.NoError(t, err)

	assert.Equal(t, types.StatusCompleted, result.Status, "a successful run always finishes completed")
	assert.NotEmpty(t, result.Sources)
	assert.Len(t, result.Analyses, 4)
	assert.NotEmpty(t, result.SynthesizedSummary)
	assert.NotEmpty(t, result.KeyInsights)
	assert.NotEmpty(t, result.Recommendations)
	assert.Greater(t, result.ConfidenceScore, 0.0)
	assert.LessOrEqual(t, result.ConfidenceScore, 1.0)
	assert.Greater(t, result.CompletenessScore, 0.0)
	assert.LessOrEqual(t, result.CompletenessScore, 1.0)
	assert.Greater(t, result.QualityScore, 0.0, "quality score is the validator's overall score")
	assert.LessOrEqual(t, result.QualityScore, 1.0)
	assert.NotEmpty(t, result.Metadata["run_id"])
	assert.NotEmpty(t, result.Metadata["validated"])

	assert.Empty(t, e.Active(), "finished run must be deregistered")
	history := e.History()
	require.Len(t, history, 1)
	assert.Equal(t, result.Metadata["run_id"], history[0].ID)
}

func TestConductSecondCallHitsCache(t *testing.T) {
	cfg := testConfig(t)
	e, resultCache := newTestEngine(t, cfg, analyze.NewSimulatedAgents())
	ctx := context.Background()

	first, err := e.Conduct(ctx, "raft consensus", types.ResearchTypeTechnical, false)
	require.NoError(t, err)

	second, err := e.Conduct(ctx, "raft consensus", types.ResearchTypeTechnical, false)
	require.NoError(t, err)
	assert.Equal(t, first.SynthesizedSummary, second.SynthesizedSummary)
	assert.Equal(t, first.Metadata["run_id"], second.Metadata["run_id"], "cache hit must return the original run")

	stats, err := resultCache.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.Hits)

	history := e.History()
	require.Len(t, history, 2)
	assert.True(t, history[0].CacheHit, "most recent history entry must be the cache hit")
	assert.False(t, history[1].CacheHit)
}

func TestConductFailedRunNotCached(t *testing.T) {
	cfg := testConfig(t)
	e, resultCache := newTestEngine(t, cfg, analyze.NewSimulatedAgents())
	ctx := context.Background()

	// No backends makes the collection phase fail outright.
	e.collector = collect.New(nil, cfg.Collect, nil)

	result, err := e.Conduct(ctx, "doomed query", types.ResearchTypeTechnical, false)
	require.Error(t, err)
	require.NotNil(t, result)
	assert.Equal(t, types.StatusFailed, result.Status)
	assert.Contains(t, result.Metadata["error"], "collection phase")

	stats, err := resultCache.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Entries, "failed runs must not be cached")
	assert.Empty(t, e.Active())

	history := e.History()
	require.Len(t, history, 1)
	assert.Equal(t, types.StatusFailed, history[0].Status)
	assert.NotEmpty(t, history[0].Error)
}

func TestConductAllAgentsFailStillCompletes(t *testing.T) {
	cfg := testConfig(t)
	e, resultCache := newTestEngine(t, cfg, []analyze.Agent{failingAgent{}})
	ctx := context.Background()

	result, err := e.Conduct(ctx, "sparse query", types.ResearchTypeTechnical, false)
	require.NoError(t, err, "agent failures are not fatal")
	assert.Equal(t, types.StatusCompleted, result.Status)
	assert.Empty(t, result.Analyses)
	assert.Empty(t, result.SynthesizedSummary)
	assert.Zero(t, result.ConfidenceScore)
	assert.Equal(t, "false", result.Metadata["validated"])

	stats, err := resultCache.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Entries, "a completed run is cached even with an empty synthesis")
}

func TestConductForceRefresh(t *testing.T) {
	cfg := testConfig(t)
	e, _ := newTestEngine(t, cfg, analyze.NewSimulatedAgents())
	ctx := context.Background()

	first, err := e.Conduct(ctx, "vector databases", types.ResearchTypeTechnical, false)
	require.NoError(t, err)

	refreshed, err := e.Conduct(ctx, "vector databases", types.ResearchTypeTechnical, true)
	require.NoError(t, err)
	assert.NotEqual(t, first.Metadata["run_id"], refreshed.Metadata["run_id"], "force refresh must recompute")

	// A failed refresh leaves the last good result in place.
	e.collector = collect.New(nil, cfg.Collect, nil)
	_, err = e.Conduct(ctx, "vector databases", types.ResearchTypeTechnical, true)
	require.Error(t, err)

	cached, err := e.Conduct(ctx, "vector databases", types.ResearchTypeTechnical, false)
	require.NoError(t, err)
	assert.Equal(t, refreshed.Metadata["run_id"], cached.Metadata["run_id"], "failed refresh must not evict the stored result")
}

func TestConductRejectsBadInput(t *testing.T) {
	cfg := testConfig(t)
	e, _ := newTestEngine(t, cfg, analyze.NewSimulatedAgents())
	ctx := context.Background()

	_, err := e.Conduct(ctx, "", types.ResearchTypeTechnical, false)
	assert.Error(t, err, "empty query")

	_, err = e.Conduct(ctx, "query", types.ResearchType("astrology"), false)
	assert.Error(t, err, "unknown research type")
}

func TestCancelActiveRun(t *testing.T) {
	cfg := testConfig(t)
	started := make(chan struct{})
	e, _ := newTestEngine(t, cfg, []analyze.Agent{blockingAgent{started: started}})

	done := make(chan error, 1)
	go func() {
		_, err := e.Conduct(context.Background(), "long running query", types.ResearchTypeTechnical, false)
		done <- err
	}()

	<-started
	runs := e.Active()
	require.Len(t, runs, 1)
	assert.Equal(t, types.StatusInProgress, runs[0].Status)

	snapshot, ok := e.Status(runs[0].ID)
	require.True(t, ok)
	assert.Equal(t, "long running query", snapshot.Query)

	require.True(t, e.Cancel(runs[0].ID))

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled run did not finish")
	}
	assert.Empty(t, e.Active())

	assert.False(t, e.Cancel("no-such-run"))
}

func TestReapStale(t *testing.T) {
	cfg := testConfig(t)
	e, _ := newTestEngine(t, cfg, analyze.NewSimulatedAgents())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e.register("stuck-run", "stuck query", types.ResearchTypeTechnical, cancel)

	assert.Equal(t, 0, e.ReapStale(time.Hour), "young runs are not reaped")

	e.mu.Lock()
	e.active["stuck-run"].run.StartedAt = time.Now().Add(-2 * time.Hour)
	e.mu.Unlock()

	assert.Equal(t, 1, e.ReapStale(time.Hour))
	assert.Empty(t, e.Active())

	select {
	case <-ctx.Done():
	default:
		t.Error("reaping must cancel the run's context")
	}
}

func TestCompleteness(t *testing.T) {
	tests := []struct {
		got, want int
		expect    float64
	}{
		{10, 10, 1.0},
		{5, 10, 0.5},
		{15, 10, 1.0},
		{0, 10, 0.0},
		{3, 0, 0.0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.expect, completeness(tt.got, tt.want), 1e-9,
			"completeness(%d, %d)", tt.got, tt.want)
	}
}

func TestHistoryIsBounded(t *testing.T) {
	cfg := testConfig(t)
	e, _ := newTestEngine(t, cfg, analyze.NewSimulatedAgents())

	for i := 0; i < historyLimit+10; i++ {
		e.recordHistory(Run{ID: fmt.Sprintf("run-%d", i)})
	}
	history := e.History()
	assert.Len(t, history, historyLimit)
	assert.Equal(t, fmt.Sprintf("run-%d", historyLimit+9), history[0].ID, "most recent first")
}
