// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analyze runs a roster of analysis agents over collected sources.
// Each agent produces an independent Analysis from its own perspective;
// the roster is fanned out concurrently with a bounded limit, and agents
// that fail are skipped rather than failing the run.
package analyze

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/knowledge-engine/pkg/types"
)

const defaultMaxInFlight = 4

// Request is the input handed to every agent in a run.
type Request struct {
	Query        string
	ResearchType types.ResearchType
	Sources      []types.Source
	Prompt       string
}

// Agent is one analysis perspective. Implementations must be safe for
// concurrent use; the analyzer calls them from multiple goroutines.
type Agent interface {
	Name() string
	Capability() string
	Analyze(ctx context.Context, req Request) (types.Analysis, error)
}

// Registry holds the available agents keyed by capability so rosters can
// be assembled per research type.
type Registry struct {
	mu     sync.RWMutex
	agents []Agent
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds an agent. Registering a second agent with the same name
// replaces the first.
func (r *Registry) Register(agent Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, a := range r.agents {
		if a.Name() == agent.Name() {
			r.agents[i] = agent
			return
		}
	}
	r.agents = append(r.agents, agent)
}

// capabilitiesByType maps a research type to the capabilities its roster
// should include, in priority order.
var capabilitiesByType = map[types.ResearchType][]string{
	types.ResearchTypeTechnical:   {"technical_analysis", "domain_expertise", "trend_analysis", "recommendations"},
	types.ResearchTypeMethodology: {"domain_expertise", "technical_analysis", "recommendations", "trend_analysis"},
	types.ResearchTypeCompetitive: {"trend_analysis", "domain_expertise", "recommendations", "technical_analysis"},
}

// ForType returns the agents whose capability appears in the roster for
// the research type, in roster order. Unknown types get every agent.
func (r *Registry) ForType(rt types.ResearchType) []Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	caps, ok := capabilitiesByType[rt]
	if !ok {
		out := make([]Agent, len(r.agents))
		copy(out, r.agents)
		return out
	}
	var out []Agent
	for _, c := range caps {
		for _, a := range r.agents {
			if a.Capability() == c {
				out = append(out, a)
			}
		}
	}
	return out
}

// Analyzer fans a request out to a roster of agents.
type Analyzer struct {
	registry *Registry
	cfg      types.AnalyzeConfig
	log      *zap.Logger
}

// New returns an analyzer over the given registry. A nil logger disables
// logging.
func New(registry *Registry, cfg types.AnalyzeConfig, log *zap.Logger) *Analyzer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Analyzer{registry: registry, cfg: cfg, log: log}
}

// Run executes every agent in the roster for the research type against the
// sources. Agent failures are logged and skipped; zero successful agents
// yields an empty slice, not an error, so a run with no usable sources
// still completes with an empty synthesis downstream.
func (a *Analyzer) Run(ctx context.Context, query string, rt types.ResearchType, sources []types.Source) ([]types.Analysis, error) {
	if query == "" {
		return nil, fmt.Errorf("empty query")
	}
	agents := a.registry.ForType(rt)
	if len(agents) == 0 {
		return nil, fmt.Errorf("no agents registered for research type %q", rt)
	}

	prompt := BuildPrompt(query, rt, sources, a.promptSources())
	req := Request{Query: query, ResearchType: rt, Sources: sources, Prompt: prompt}

	limit := a.cfg.MaxInFlight
	if limit <= 0 {
		limit = defaultMaxInFlight
	}

	var mu sync.Mutex
	analyses := make([]types.Analysis, 0, len(agents))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, agent := range agents {
		agent := agent
		g.Go(func() error {
			an, err := agent.Analyze(gctx, req)
			if err != nil {
				a.log.Warn("analysis agent failed",
					zap.String("agent", agent.Name()),
					zap.String("capability", agent.Capability()),
					zap.Error(err))
				return nil
			}
			if an.Metadata == nil {
				an.Metadata = map[string]string{}
			}
			an.Metadata["prompt_length"] = fmt.Sprintf("%d", len(prompt))
			an.Metadata["sources_analyzed"] = fmt.Sprintf("%d", len(sources))
			mu.Lock()
			analyses = append(analyses, an)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(analyses) == 0 {
		a.log.Warn("no agent produced an analysis",
			zap.Int("agents", len(agents)),
			zap.String("query", query))
	}

	// Fan-out completion order is nondeterministic; keep output stable.
	sort.SliceStable(analyses, func(i, j int) bool { return analyses[i].AgentName < analyses[j].AgentName })
	return analyses, nil
}

func (a *Analyzer) promptSources() int {
	if a.cfg.PromptSources > 0 {
		return a.cfg.PromptSources
	}
	return 5
}
