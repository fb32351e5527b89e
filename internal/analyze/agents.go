// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/knowledge-engine/pkg/types"
)

// agentProfile describes one simulated perspective. The modifier scales
// the credibility-derived base confidence so perspectives disagree in a
// stable, explainable way.
type agentProfile struct {
	name       string
	capability string
	modifier   float64
}

var simulatedProfiles = []agentProfile{
	{"technical-analyst", "technical_analysis", 0.90},
	{"domain-specialist", "domain_expertise", 0.95},
	{"trend-analyst", "trend_analysis", 0.85},
	{"strategy-advisor", "recommendations", 0.88},
}

// SimulatedAgent produces a deterministic report shaped by its
// capability. It stands in for a model-backed agent in offline runs and
// in tests.
type SimulatedAgent struct {
	profile agentProfile
}

// NewSimulatedAgents returns the default roster of four perspectives.
func NewSimulatedAgents() []Agent {
	agents := make([]Agent, len(simulatedProfiles))
	for i, p := range simulatedProfiles {
		agents[i] = &SimulatedAgent{profile: p}
	}
	return agents
}

func (a *SimulatedAgent) Name() string       { return a.profile.name }
func (a *SimulatedAgent) Capability() string { return a.profile.capability }

// Analyze builds the canned report for this perspective. Confidence is the
// mean source credibility scaled by the profile modifier, so better
// sources yield more confident analyses.
func (a *SimulatedAgent) Analyze(ctx context.Context, req Request) (types.Analysis, error) {
	if err := ctx.Err(); err != nil {
		return types.Analysis{}, err
	}
	if len(req.Sources) == 0 {
		return types.Analysis{}, fmt.Errorf("agent %s: no sources to analyze", a.profile.name)
	}

	var credSum float64
	topDomains := make([]string, 0, 3)
	for i, s := range req.Sources {
		credSum += s.Credibility
		if i < 3 {
			topDomains = append(topDomains, s.Domain)
		}
	}
	base := credSum / float64(len(req.Sources))
	confidence := clamp01(base * a.profile.modifier)

	findings, recs := a.report(req, topDomains)

	return types.Analysis{
		AgentName:       a.profile.name,
		Category:        req.ResearchType,
		Summary:         a.summary(req, len(req.Sources)),
		KeyFindings:     findings,
		Confidence:      confidence,
		Recommendations: recs,
		Metadata: map[string]string{
			"capability": a.profile.capability,
			"modifier":   fmt.Sprintf("%.2f", a.profile.modifier),
		},
	}, nil
}

func (a *SimulatedAgent) summary(req Request, n int) string {
	switch a.profile.capability {
	case "technical_analysis":
		return fmt.Sprintf("Technical review of %q across %d sources: the material covers architecture, implementation trade-offs, and performance characteristics relevant to the query.", req.Query, n)
	case "domain_expertise":
		return fmt.Sprintf("Domain assessment of %q: %d sources describe established practice, accepted terminology, and the constraints practitioners report for this area.", req.Query, n)
	case "trend_analysis":
		return fmt.Sprintf("Trend reading for %q: across %d sources the direction of recent activity, adoption signals, and emerging alternatives are identifiable.", req.Query, n)
	default:
		return fmt.Sprintf("Strategic view of %q: %d sources provide enough grounding to rank concrete next actions by expected impact.", req.Query, n)
	}
}

func (a *SimulatedAgent) report(req Request, topDomains []string) (findings, recs []string) {
	subject := strings.TrimSpace(req.Query)
	hosts := strings.Join(topDomains, ", ")

	switch a.profile.capability {
	case "technical_analysis":
		findings = []string{
			fmt.Sprintf("The strongest sources on %s (%s) agree on the core architecture described for it", subject, hosts),
			fmt.Sprintf("Implementation guidance for %s is consistent across independent sources", subject),
			fmt.Sprintf("Performance characteristics of %s are documented with measurable figures", subject),
		}
		recs = []string{
			fmt.Sprintf("Prototype %s following the architecture the top sources converge on", subject),
			"Benchmark the prototype against the published performance figures",
		}
	case "domain_expertise":
		findings = []string{
			fmt.Sprintf("Practitioner sources treat %s as established practice with known constraints", subject),
			fmt.Sprintf("Terminology around %s is stable, which eases cross-source comparison", subject),
			fmt.Sprintf("High-credibility domains (%s) corroborate the main claims", hosts),
		}
		recs = []string{
			fmt.Sprintf("Adopt the vocabulary the authoritative sources use for %s", subject),
			"Validate the reported constraints against your own environment",
		}
	case "trend_analysis":
		findings = []string{
			fmt.Sprintf("Recent activity around %s is increasing across the collected sources", subject),
			fmt.Sprintf("Emerging alternatives to %s appear in lower-credibility sources first", subject),
		}
		recs = []string{
			fmt.Sprintf("Re-run this research on %s within a quarter to track the trend", subject),
			"Weight recent sources higher when the field is moving",
		}
	default:
		findings = []string{
			fmt.Sprintf("The sources support a clear priority order of actions for %s", subject),
			fmt.Sprintf("Risks named for %s cluster around adoption and maintenance cost", subject),
		}
		recs = []string{
			fmt.Sprintf("Sequence the %s work so the highest-confidence findings land first", subject),
			"Revisit the lower-confidence findings before committing long-term resources",
			"Document the decision trail so later runs can diff against it",
		}
	}
	return findings, recs
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
