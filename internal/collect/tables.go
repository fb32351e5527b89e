// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import "github.com/pdiddy/knowledge-engine/pkg/types"

// domainCredibility maps known domains to credibility scores. Unknown
// domains score defaultCredibility.
var domainCredibility = map[string]float64{
	// High credibility.
	"github.com":            0.95,
	"stackoverflow.com":     0.90,
	"docs.python.org":       0.95,
	"developer.mozilla.org": 0.95,
	"nodejs.org":            0.95,
	"reactjs.org":           0.95,
	"vuejs.org":             0.95,
	"angular.io":            0.95,
	"aws.amazon.com":        0.90,
	"cloud.google.com":      0.90,
	"azure.microsoft.com":   0.90,
	"kubernetes.io":         0.95,
	"docker.com":            0.90,
	"redis.io":              0.90,
	"mongodb.com":           0.90,
	"postgresql.org":        0.95,
	"mysql.com":             0.90,
	"apache.org":            0.95,
	"nginx.org":             0.95,
	"elastic.co":            0.90,
	"grafana.com":           0.90,
	"prometheus.io":         0.90,
	"jenkins.io":            0.90,
	"gitlab.com":            0.90,
	"bitbucket.org":         0.85,
	"atlassian.com":         0.85,
	"python.org":            0.95,
	"pypi.org":              0.90,
	"npmjs.com":             0.85,
	"crates.io":             0.85,

	// Medium credibility.
	"medium.com":       0.70,
	"dev.to":           0.75,
	"hashnode.com":     0.70,
	"freecodecamp.org": 0.80,
	"codecademy.com":   0.75,
	"w3schools.com":    0.70,
	"geeksforgeeks.org": 0.75,
	"realpython.com":   0.80,
	"crunchbase.com":   0.75,
	"techcrunch.com":   0.80,
	"arstechnica.com":  0.85,
	"wired.com":        0.80,
	"forbes.com":       0.75,
	"venturebeat.com":  0.70,

	// Lower credibility.
	"blogspot.com":   0.50,
	"wordpress.com":  0.55,
	"tumblr.com":     0.40,
	"reddit.com":     0.60,
	"quora.com":      0.65,
	"youtube.com":    0.70,
	"slideshare.net": 0.60,
	"scribd.com":     0.55,
	"issuu.com":      0.50,
}

const defaultCredibility = 0.5

// categoryFilter holds the keyword lists used to score and filter
// candidates for one research type.
type categoryFilter struct {
	positive []string
	negative []string
}

// categoryFilters maps research types to their content filters. Unknown
// types use the technical filter.
var categoryFilters = map[types.ResearchType]categoryFilter{
	types.ResearchTypeTechnical: {
		positive: []string{
			"documentation", "api", "tutorial", "guide", "reference",
			"implementation", "example", "code", "syntax", "library",
			"framework", "tool", "utility", "package", "module",
		},
		negative: []string{
			"job", "career", "salary", "interview", "resume",
			"certification", "degree",
		},
	},
	types.ResearchTypeMethodology: {
		positive: []string{
			"methodology", "process", "framework", "approach", "practice",
			"best practice", "pattern", "principle", "guideline", "standard",
			"workflow", "pipeline", "strategy", "technique", "method",
		},
		negative: []string{
			"coding", "syntax error",
		},
	},
	types.ResearchTypeCompetitive: {
		positive: []string{
			"comparison", "vs", "alternative", "competitor", "competition",
			"market", "industry", "analysis", "review", "evaluation",
			"benchmark", "feature", "pricing", "solution", "platform",
		},
		negative: []string{
			"installation", "getting started",
		},
	},
}

// filterFor returns the category filter for rt, falling back to technical.
func filterFor(rt types.ResearchType) categoryFilter {
	if f, ok := categoryFilters[rt]; ok {
		return f
	}
	return categoryFilters[types.ResearchTypeTechnical]
}

// queryModifiers lists the category-tinged suffixes appended to the base
// query when expanding it into search variants.
var queryModifiers = map[types.ResearchType][]string{
	types.ResearchTypeTechnical: {
		"documentation", "tutorial", "implementation", "examples", "API reference",
	},
	types.ResearchTypeMethodology: {
		"methodology", "best practices", "framework", "approach", "process",
	},
	types.ResearchTypeCompetitive: {
		"vs alternatives", "comparison", "competitors", "market analysis", "review",
	},
}
