// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesis

import "github.com/pdiddy/knowledge-engine/pkg/types"

// generalArea collects findings that match no focus area.
const generalArea = "general_insights"

// focusArea is one named theme findings are grouped under.
type focusArea struct {
	name     string
	keywords []string
}

// focusAreasByType lists the themes a synthesis organizes findings into,
// per research type.
var focusAreasByType = map[types.ResearchType][]focusArea{
	types.ResearchTypeTechnical: {
		{"architecture", []string{"architecture", "design", "structure", "component", "pattern"}},
		{"performance", []string{"performance", "latency", "throughput", "benchmark", "speed", "efficient"}},
		{"scalability", []string{"scalability", "scale", "load", "capacity", "horizontal"}},
		{"security", []string{"security", "vulnerability", "authentication", "encryption"}},
		{"implementation", []string{"implementation", "code", "library", "framework", "build", "prototype"}},
	},
	types.ResearchTypeMethodology: {
		{"process", []string{"process", "workflow", "procedure", "phase", "practice"}},
		{"tooling", []string{"tool", "automation", "pipeline", "integration"}},
		{"collaboration", []string{"team", "collaboration", "communication", "role"}},
		{"measurement", []string{"metric", "measure", "indicator", "tracking"}},
		{"adoption", []string{"adoption", "rollout", "training", "transition", "onboarding"}},
	},
	types.ResearchTypeCompetitive: {
		{"market", []string{"market", "industry", "segment", "demand"}},
		{"features", []string{"feature", "capability", "functionality", "product"}},
		{"pricing", []string{"pricing", "price", "cost", "subscription", "tier"}},
		{"positioning", []string{"positioning", "differentiation", "advantage", "brand"}},
		{"trends", []string{"trend", "growth", "emerging", "forecast", "adoption"}},
	},
}

// areasFor returns the focus areas for a research type, falling back to
// the technical set for unknown types.
func areasFor(rt types.ResearchType) []focusArea {
	if areas, ok := focusAreasByType[rt]; ok {
		return areas
	}
	return focusAreasByType[types.ResearchTypeTechnical]
}
