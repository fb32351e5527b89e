// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strconv"
	"strings"

	"github.com/pdiddy/knowledge-engine/pkg/types"
)

// SimulatedBackend produces deterministic candidates without network access.
// It stands in for a real search API: candidates are fabricated from the
// query against a per-category domain pool, so the scoring, filtering, and
// ranking downstream behave as they would on real hits.
type SimulatedBackend struct {
	name         string
	researchType types.ResearchType
	perQuery     int
}

// simulatedDomains is the per-category domain pool the simulated backends
// draw from.
var simulatedDomains = map[types.ResearchType][]string{
	types.ResearchTypeTechnical: {
		"github.com", "stackoverflow.com", "docs.python.org",
		"developer.mozilla.org", "nodejs.org", "kubernetes.io",
	},
	types.ResearchTypeMethodology: {
		"medium.com", "dev.to", "freecodecamp.org",
		"atlassian.com", "realpython.com", "hashnode.com",
	},
	types.ResearchTypeCompetitive: {
		"crunchbase.com", "techcrunch.com", "venturebeat.com",
		"forbes.com", "wired.com", "arstechnica.com",
	},
}

// NewSimulatedBackends returns the default backend roster. Each backend
// serves every query; the research type only steers which domain pool the
// fabricated candidates come from.
func NewSimulatedBackends(rt types.ResearchType) []Backend {
	names := []string{"web-alpha", "web-beta", "community-qa", "code-hosting", "dev-news"}
	backends := make([]Backend, 0, len(names))
	for _, n := range names {
		backends = append(backends, &SimulatedBackend{
			name:         n,
			researchType: rt,
			perQuery:     3,
		})
	}
	return backends
}

// Name implements Backend.
func (b *SimulatedBackend) Name() string { return b.name }

// Search implements Backend. It never fails and honors context cancellation.
func (b *SimulatedBackend) Search(ctx context.Context, query string) ([]RawCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	domains, ok := simulatedDomains[b.researchType]
	if !ok {
		domains = simulatedDomains[types.ResearchTypeTechnical]
	}

	cands := make([]RawCandidate, 0, b.perQuery)
	for i := 0; i < b.perQuery; i++ {
		domain := domains[i%len(domains)]
		slug := fmt.Sprintf("%x", sha256.Sum256([]byte(b.name+"_"+query+"_"+strconv.Itoa(i))))[:8]
		cands = append(cands, RawCandidate{
			URL:     fmt.Sprintf("https://%s/article/%s", domain, slug),
			Title:   fmt.Sprintf("%s: %s overview and guide (%s)", upperFirst(query), b.researchType, slug),
			Domain:  domain,
			Content: simulatedContent(query, b.researchType),
			Metadata: map[string]string{
				"freshness":    strconv.FormatFloat(0.8+float64(i)*0.02, 'f', 2, 64),
				"result_index": strconv.Itoa(i),
			},
		})
	}
	return cands, nil
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// simulatedContent fabricates category-appropriate body text so the keyword
// scorers downstream have something realistic to chew on.
func simulatedContent(query string, rt types.ResearchType) string {
	switch rt {
	case types.ResearchTypeMethodology:
		return fmt.Sprintf("Methodology overview for %s covering process steps, best practice "+
			"guidance, workflow design, team requirements, and success factors. This guide "+
			"provides a practical framework and common pitfalls to avoid.", query)
	case types.ResearchTypeCompetitive:
		return fmt.Sprintf("Competitive analysis of the %s market landscape: key players, "+
			"positioning strategies, pricing, feature comparison, and industry trends. The "+
			"review highlights competitive advantages and market opportunities.", query)
	default:
		return fmt.Sprintf("Technical analysis of %s including implementation details, code "+
			"examples, API usage, performance characteristics, security considerations, and "+
			"best practices. This documentation covers integration patterns and reference material.", query)
	}
}
