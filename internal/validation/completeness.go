// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/knowledge-engine/pkg/types"
)

// CompletenessAssessor measures how much of the expected topic surface
// a research result actually covers, and how thoroughly it covers it.
type CompletenessAssessor struct{}

// CompletenessResult reports coverage per expected area plus overall
// thoroughness.
type CompletenessResult struct {
	Overall      float64            `json:"overall"`
	Coverage     float64            `json:"coverage"`
	Thoroughness float64            `json:"thoroughness"`
	Areas        map[string]float64 `json:"areas"`
	MissingAreas []string           `json:"missing_areas"`
	Suggestions  []string           `json:"suggestions"`
}

// topicAreas lists, per research type, the areas a complete result is
// expected to touch along with the keywords that count as touching.
var topicAreas = map[types.ResearchType]map[string][]string{
	types.ResearchTypeTechnical: {
		"architecture":   {"architecture", "design", "structure", "component", "module", "layer"},
		"implementation": {"implementation", "code", "build", "develop", "library", "framework"},
		"performance":    {"performance", "latency", "throughput", "benchmark", "speed", "efficient"},
		"scalability":    {"scalability", "scale", "load", "horizontal", "vertical", "capacity"},
		"security":       {"security", "vulnerability", "authentication", "encryption", "audit"},
		"testing":        {"test", "testing", "coverage", "quality assurance", "validation"},
		"maintenance":    {"maintenance", "maintainability", "documentation", "upgrade", "debt"},
	},
	types.ResearchTypeMethodology: {
		"process":       {"process", "workflow", "procedure", "step", "phase", "stage"},
		"practices":     {"practice", "best practice", "convention", "standard", "guideline"},
		"tooling":       {"tool", "tooling", "automation", "pipeline", "integration"},
		"team":          {"team", "collaboration", "communication", "role", "responsibility"},
		"measurement":   {"metric", "measure", "kpi", "indicator", "tracking", "monitor"},
		"adoption":      {"adoption", "rollout", "transition", "training", "onboarding"},
		"effectiveness": {"effective", "outcome", "result", "improvement", "success"},
	},
	types.ResearchTypeCompetitive: {
		"market":          {"market", "industry", "sector", "segment", "demand"},
		"competitors":     {"competitor", "rival", "alternative", "player", "vendor"},
		"features":        {"feature", "capability", "functionality", "offering", "product"},
		"pricing":         {"pricing", "price", "cost", "subscription", "tier", "plan"},
		"positioning":     {"positioning", "differentiation", "advantage", "unique", "brand"},
		"trends":          {"trend", "growth", "emerging", "shift", "forecast", "future"},
		"strengths_gaps":  {"strength", "weakness", "gap", "opportunity", "threat"},
	},
}

// Coverage of an area counts when at least this share of its keywords
// appears in the result text.
const areaHitRatio = 0.3

// thoroughnessDimensions score how thoroughly the result treats its
// material, by counting indicator words in the result text. Each
// dimension rates the count against its own thresholds.
var thoroughnessDimensions = []struct {
	name       string
	weight     float64
	indicators []string
	excellent  int
	good       int
	fair       int
}{
	{"depth", 0.30, []string{"detailed", "comprehensive", "in-depth", "thorough", "extensive"}, 5, 3, 2},
	{"breadth", 0.25, []string{"multiple", "various", "different", "range", "spectrum"}, 4, 3, 2},
	{"accuracy", 0.20, []string{"accurate", "precise", "correct", "validated", "verified"}, 4, 3, 2},
	{"relevance", 0.15, []string{"relevant", "applicable", "pertinent", "appropriate", "suitable"}, 4, 3, 2},
	{"actionability", 0.10, []string{"actionable", "practical", "implementable", "usable", "applicable"}, 4, 3, 2},
}

// NewCompletenessAssessor returns an assessor.
func NewCompletenessAssessor() *CompletenessAssessor {
	return &CompletenessAssessor{}
}

// Assess scores a research result against the topic areas expected
// for its research type. Unknown types borrow the technical areas.
func (a *CompletenessAssessor) Assess(result *types.ResearchResult) CompletenessResult {
	areas, ok := topicAreas[result.ResearchType]
	if !ok {
		areas = topicAreas[types.ResearchTypeTechnical]
	}

	text := strings.ToLower(resultText(result))

	areaScores := make(map[string]float64, len(areas))
	var missing []string
	covered := 0
	for area, keywords := range areas {
		hits := 0
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				hits++
			}
		}
		ratio := float64(hits) / float64(len(keywords))
		areaScores[area] = ratio
		if ratio >= areaHitRatio {
			covered++
		} else {
			missing = append(missing, area)
		}
	}
	sort.Strings(missing)
	coverage := float64(covered) / float64(len(areas))

	thoroughness := a.thoroughness(text)
	overall := clamp01(0.6*coverage + 0.4*thoroughness)

	res := CompletenessResult{
		Overall:      overall,
		Coverage:     coverage,
		Thoroughness: thoroughness,
		Areas:        areaScores,
		MissingAreas: missing,
	}
	res.Suggestions = completenessSuggestions(res)
	return res
}

// thoroughness rates how thoroughly the result text treats its
// material, independent of which areas it covers. The text must
// already be lowercased.
func (a *CompletenessAssessor) thoroughness(text string) float64 {
	var weighted, total float64
	for _, dim := range thoroughnessDimensions {
		hits := 0
		for _, indicator := range dim.indicators {
			if strings.Contains(text, indicator) {
				hits++
			}
		}
		weighted += RateCount(hits, dim.excellent, dim.good, dim.fair).Score() * dim.weight
		total += dim.weight
	}
	return clamp01(weighted / total)
}

// resultText flattens every text-bearing field of a result into one
// searchable blob.
func resultText(result *types.ResearchResult) string {
	var b strings.Builder
	b.WriteString(result.Query)
	b.WriteByte(' ')
	b.WriteString(result.SynthesizedSummary)
	for _, s := range result.Sources {
		b.WriteByte(' ')
		b.WriteString(s.Title)
		b.WriteByte(' ')
		b.WriteString(s.Content)
	}
	for _, an := range result.Analyses {
		b.WriteByte(' ')
		b.WriteString(an.Summary)
		for _, f := range an.KeyFindings {
			b.WriteByte(' ')
			b.WriteString(f)
		}
		for _, r := range an.Recommendations {
			b.WriteByte(' ')
			b.WriteString(r)
		}
	}
	for _, in := range result.KeyInsights {
		b.WriteByte(' ')
		b.WriteString(in)
	}
	for _, r := range result.Recommendations {
		b.WriteByte(' ')
		b.WriteString(r)
	}
	return b.String()
}

func completenessSuggestions(res CompletenessResult) []string {
	var out []string
	for _, area := range res.MissingAreas {
		out = append(out, fmt.Sprintf("expand coverage of %s", strings.ReplaceAll(area, "_", " ")))
		if len(out) == 3 {
			break
		}
	}
	if res.Thoroughness < 0.5 {
		out = append(out, "gather more sources and deepen the synthesized summary")
	}
	return out
}
