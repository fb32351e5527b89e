// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engine orchestrates the research pipeline: source collection,
// multi-agent analysis, synthesis, and validation, with a write-through
// result cache in front of the whole run.
package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/knowledge-engine/internal/analyze"
	"github.com/pdiddy/knowledge-engine/internal/cache"
	"github.com/pdiddy/knowledge-engine/internal/collect"
	"github.com/pdiddy/knowledge-engine/internal/synthesis"
	"github.com/pdiddy/knowledge-engine/internal/validation"
	"github.com/pdiddy/knowledge-engine/pkg/types"
)

const historyLimit = 50

// Run is a snapshot of one research run, active or finished.
type Run struct {
	ID         string               `json:"id"`
	Query      string               `json:"query"`
	Type       types.ResearchType   `json:"research_type"`
	Status     types.ResearchStatus `json:"status"`
	StartedAt  time.Time            `json:"started_at"`
	FinishedAt time.Time            `json:"finished_at,omitempty"`
	CacheHit   bool                 `json:"cache_hit"`
	Error      string               `json:"error,omitempty"`
}

type activeRun struct {
	run    Run
	cancel context.CancelFunc
}

// Engine wires the pipeline stages together.
type Engine struct {
	collector   *collect.Collector
	analyzer    *analyze.Analyzer
	synthesizer *synthesis.Synthesizer
	validator   *validation.ResearchValidator
	cache       *cache.ResearchCache
	cfg         types.EngineConfig
	log         *zap.Logger

	mu       sync.Mutex
	active   map[string]*activeRun
	keyLocks map[string]*sync.Mutex
	history  []Run

	now func() time.Time
}

// New assembles an engine from its stages. A nil logger disables logging.
func New(collector *collect.Collector, analyzer *analyze.Analyzer, synthesizer *synthesis.Synthesizer, resultCache *cache.ResearchCache, cfg types.EngineConfig, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		collector:   collector,
		analyzer:    analyzer,
		synthesizer: synthesizer,
		validator:   validation.NewResearchValidator(),
		cache:       resultCache,
		cfg:         cfg,
		log:         log,
		active:      map[string]*activeRun{},
		keyLocks:    map[string]*sync.Mutex{},
		now:         time.Now,
	}
}

// Conduct runs the full pipeline for a query. Identical queries of the
// same research type on the same day share a cache key: a second call
// waits for the first and is served from cache. forceRefresh skips the
// cache read and recomputes; the stored entry is only replaced when the
// fresh run succeeds, so a failed refresh never loses a good result.
// Failed runs are returned with a failed status and are never cached.
func (e *Engine) Conduct(ctx context.Context, query string, rt types.ResearchType, forceRefresh bool) (*types.ResearchResult, error) {
	if query == "" {
		return nil, fmt.Errorf("empty query")
	}
	if !types.KnownResearchType(rt) {
		return nil, fmt.Errorf("unknown research type %q", rt)
	}

	key := e.cache.Key(query, rt)

	// Serialize runs per cache key so concurrent identical queries do
	// the work once.
	lock := e.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	if cached, ok, err := e.lookup(ctx, key, forceRefresh); err != nil {
		return nil, err
	} else if ok {
		e.log.Debug("cache hit", zap.String("query", query), zap.String("key", key))
		e.recordHistory(Run{
			ID:         uuid.NewString(),
			Query:      query,
			Type:       rt,
			Status:     cached.Status,
			StartedAt:  e.now(),
			FinishedAt: e.now(),
			CacheHit:   true,
		})
		return cached, nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	runID := uuid.NewString()
	e.register(runID, query, rt, cancel)

	result, err := e.pipeline(runCtx, runID, query, rt)

	finished := Run{
		ID:         runID,
		Query:      query,
		Type:       rt,
		Status:     result.Status,
		StartedAt:  e.startedAt(runID),
		FinishedAt: e.now(),
	}
	if err != nil {
		finished.Error = err.Error()
	}
	e.deregister(runID)
	e.recordHistory(finished)

	if err != nil {
		return result, err
	}
	if cacheErr := e.cache.Put(ctx, key, result); cacheErr != nil {
		e.log.Warn("caching result failed", zap.String("key", key), zap.Error(cacheErr))
	}
	return result, nil
}

// lookup reads the cache unless the caller asked for a forced refresh.
func (e *Engine) lookup(ctx context.Context, key string, forceRefresh bool) (*types.ResearchResult, bool, error) {
	if forceRefresh {
		return nil, false, nil
	}
	return e.cache.Get(ctx, key)
}

// pipeline executes the four phases. The returned result is always
// non-nil; on error its status is failed and the error is recorded in
// its metadata.
func (e *Engine) pipeline(ctx context.Context, runID, query string, rt types.ResearchType) (*types.ResearchResult, error) {
	started := e.now()
	result := &types.ResearchResult{
		Query:        query,
		ResearchType: rt,
		Status:       types.StatusInProgress,
		CreatedAt:    started,
		UpdatedAt:    started,
		Metadata:     map[string]string{"run_id": runID},
	}

	fail := func(phase string, err error) (*types.ResearchResult, error) {
		wrapped := fmt.Errorf("%s phase: %w", phase, err)
		result.Status = types.StatusFailed
		result.Metadata["error"] = wrapped.Error()
		result.UpdatedAt = e.now()
		e.setStatus(runID, types.StatusFailed)
		e.log.Warn("research run failed",
			zap.String("run_id", runID),
			zap.String("phase", phase),
			zap.Error(err))
		return result, wrapped
	}

	maxSources := e.cfg.Collect.MaxSources
	if maxSources <= 0 {
		maxSources = 10
	}

	sources, err := e.collector.Search(ctx, query, rt, maxSources)
	if err != nil {
		return fail("collection", err)
	}
	// Backends and agents swallow cancellation as a per-worker failure,
	// so a cancelled run must be caught between phases.
	if err := ctx.Err(); err != nil {
		return fail("collection", err)
	}
	result.Sources = sources

	analyses, err := e.analyzer.Run(ctx, query, rt, sources)
	if err != nil {
		return fail("analysis", err)
	}
	if err := ctx.Err(); err != nil {
		return fail("analysis", err)
	}
	result.Analyses = analyses

	synth := e.synthesizer.Synthesize(query, rt, analyses, sources)
	result.SynthesizedSummary = synth.Summary
	result.KeyInsights = synth.KeyInsights
	result.Recommendations = synth.Recommendations
	result.ConfidenceScore = synth.Confidence
	result.CompletenessScore = completeness(len(sources), maxSources)
	result.Metadata["quality_level"] = synth.Quality.Level
	result.Metadata["synthesis_quality"] = fmt.Sprintf("%.4f", synth.Quality.Overall)
	result.QualityScore = synth.Quality.Overall

	// Validation is a post-hoc tag on a completed run, never a status
	// transition. It reads the synthesis quality score off the result and
	// then replaces it with the validator's overall score.
	result.Status = types.StatusCompleted
	report := e.validator.Validate(result)
	result.QualityScore = report.Score
	result.Metadata["validated"] = fmt.Sprintf("%t", report.Valid)
	if !report.Valid {
		e.log.Info("run completed below validation thresholds",
			zap.String("run_id", runID),
			zap.Strings("warnings", report.Warnings))
	}

	result.UpdatedAt = e.now()
	return result, nil
}

// Status returns a snapshot of an active run.
func (e *Engine) Status(runID string) (Run, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if a, ok := e.active[runID]; ok {
		return a.run, true
	}
	return Run{}, false
}

// Active lists the currently running research runs, oldest first.
func (e *Engine) Active() []Run {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Run, 0, len(e.active))
	for _, a := range e.active {
		out = append(out, a.run)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

// Cancel stops an active run. The run's pipeline observes the
// cancellation at its next blocking call.
func (e *Engine) Cancel(runID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	a, ok := e.active[runID]
	if !ok {
		return false
	}
	a.cancel()
	return true
}

// ReapStale cancels and removes active runs older than maxAge. It
// returns the number of runs reaped.
func (e *Engine) ReapStale(maxAge time.Duration) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	cutoff := e.now().Add(-maxAge)
	reaped := 0
	for id, a := range e.active {
		if a.run.StartedAt.Before(cutoff) {
			a.cancel()
			delete(e.active, id)
			reaped++
			e.log.Warn("reaped stale run",
				zap.String("run_id", id),
				zap.String("query", a.run.Query))
		}
	}
	return reaped
}

// History returns finished runs, most recent first.
func (e *Engine) History() []Run {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Run, len(e.history))
	for i, r := range e.history {
		out[len(e.history)-1-i] = r
	}
	return out
}

func (e *Engine) keyLock(key string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	if l, ok := e.keyLocks[key]; ok {
		return l
	}
	l := &sync.Mutex{}
	e.keyLocks[key] = l
	return l
}

func (e *Engine) register(runID, query string, rt types.ResearchType, cancel context.CancelFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active[runID] = &activeRun{
		run: Run{
			ID:        runID,
			Query:     query,
			Type:      rt,
			Status:    types.StatusInProgress,
			StartedAt: e.now(),
		},
		cancel: cancel,
	}
}

func (e *Engine) setStatus(runID string, status types.ResearchStatus) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if a, ok := e.active[runID]; ok {
		a.run.Status = status
	}
}

func (e *Engine) startedAt(runID string) time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	if a, ok := e.active[runID]; ok {
		return a.run.StartedAt
	}
	return e.now()
}

func (e *Engine) deregister(runID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.active, runID)
}

func (e *Engine) recordHistory(r Run) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history = append(e.history, r)
	if len(e.history) > historyLimit {
		e.history = e.history[len(e.history)-historyLimit:]
	}
}

// completeness is the fraction of the requested source budget the
// collection phase actually filled.
func completeness(got, want int) float64 {
	if want <= 0 {
		return 0
	}
	f := float64(got) / float64(want)
	if f > 1 {
		return 1
	}
	return f
}
