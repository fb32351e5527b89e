// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synthesis merges independent agent analyses into a single
// coherent result: findings are grouped by focus area, conflicting
// statements are resolved by supporter confidence, and the outcome is
// scored on completeness, consistency, credibility, and actionability.
package synthesis

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/knowledge-engine/pkg/types"
)

// Quality baselines. A complete synthesis is measured against the number
// of findings and recommendations a thorough run is expected to yield.
const (
	expectedFindings        = 15
	expectedRecommendations = 10
	maxKeyInsights          = 5
	maxRecommendations      = 5
	topAreasForInsights     = 3
	findingsPerArea         = 2
	maxGeneralInsights      = 2
)

// Quality dimension weights. They sum to 1.0.
const (
	weightCompleteness  = 0.30
	weightConsistency   = 0.25
	weightCredibility   = 0.25
	weightActionability = 0.20
)

// Finding is one agent statement tagged with its origin.
type Finding struct {
	Text       string  `json:"text"`
	Agent      string  `json:"agent"`
	Confidence float64 `json:"confidence"`
}

// Quality is the synthesis quality assessment.
type Quality struct {
	Overall    float64            `json:"overall"`
	Dimensions map[string]float64 `json:"dimensions"`
	Level      string             `json:"level"`
}

// Result is a completed synthesis.
type Result struct {
	Summary         string               `json:"summary"`
	KeyInsights     []string             `json:"key_insights"`
	Recommendations []string             `json:"recommendations"`
	Confidence      float64              `json:"confidence"`
	FocusAreas      map[string][]Finding `json:"focus_areas"`
	Conflicts       []Conflict           `json:"conflicts"`
	Quality         Quality              `json:"quality"`
}

// Synthesizer merges analyses. It is stateless; one instance serves
// concurrent runs.
type Synthesizer struct {
	log *zap.Logger
}

// New returns a synthesizer. A nil logger disables logging.
func New(log *zap.Logger) *Synthesizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Synthesizer{log: log}
}

// Synthesize merges the analyses into one result. Empty input yields a
// zeroed result rather than an error so a failed upstream phase still
// produces a well-formed record.
func (s *Synthesizer) Synthesize(query string, rt types.ResearchType, analyses []types.Analysis, sources []types.Source) Result {
	if len(analyses) == 0 {
		return Result{
			FocusAreas: map[string][]Finding{},
			Quality: Quality{
				Dimensions: map[string]float64{
					"completeness":  0,
					"consistency":   0,
					"credibility":   0,
					"actionability": 0,
				},
				Level: qualityLevel(0),
			},
		}
	}

	findings := collectFindings(analyses)
	conflicts := detectConflicts(findings)
	if len(conflicts) > 0 {
		s.log.Debug("resolved conflicting findings",
			zap.String("query", query),
			zap.Int("conflicts", len(conflicts)))
	}
	// Insights are drawn from the reconciled pool: losing statements are
	// gone and merged resolutions stand in for tied pairs.
	resolved := applyResolutions(findings, conflicts)
	areas := bucketFindings(resolved, rt)

	res := Result{
		Summary:         buildSummary(query, rt, analyses, areas, conflicts),
		KeyInsights:     keyInsights(areas),
		Recommendations: rankRecommendations(analyses),
		Confidence:      meanConfidence(analyses),
		FocusAreas:      areas,
		Conflicts:       conflicts,
	}
	res.Quality = assessQuality(resolved, analyses, res.Recommendations, sources)
	return res
}

func collectFindings(analyses []types.Analysis) []Finding {
	var out []Finding
	for _, an := range analyses {
		for _, f := range an.KeyFindings {
			if strings.TrimSpace(f) == "" {
				continue
			}
			out = append(out, Finding{Text: f, Agent: an.AgentName, Confidence: an.Confidence})
		}
	}
	return out
}

// bucketFindings assigns each finding to the first focus area whose
// keywords it mentions, or to the general bucket.
func bucketFindings(findings []Finding, rt types.ResearchType) map[string][]Finding {
	areas := areasFor(rt)
	out := make(map[string][]Finding, len(areas)+1)

	for _, f := range findings {
		lower := strings.ToLower(f.Text)
		placed := false
		for _, area := range areas {
			for _, kw := range area.keywords {
				if strings.Contains(lower, kw) {
					out[area.name] = append(out[area.name], f)
					placed = true
					break
				}
			}
			if placed {
				break
			}
		}
		if !placed {
			out[generalArea] = append(out[generalArea], f)
		}
	}
	return out
}

// keyInsights picks the strongest findings from the most populated areas:
// up to two findings from each of the top three areas, then up to two
// general findings, capped at five insights total.
func keyInsights(areas map[string][]Finding) []string {
	type rankedArea struct {
		name     string
		findings []Finding
	}
	var ranked []rankedArea
	for name, fs := range areas {
		if name == generalArea {
			continue
		}
		ranked = append(ranked, rankedArea{name, fs})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if len(ranked[i].findings) != len(ranked[j].findings) {
			return len(ranked[i].findings) > len(ranked[j].findings)
		}
		return ranked[i].name < ranked[j].name
	})
	if len(ranked) > topAreasForInsights {
		ranked = ranked[:topAreasForInsights]
	}

	var insights []string
	for _, area := range ranked {
		fs := append([]Finding(nil), area.findings...)
		sort.SliceStable(fs, func(i, j int) bool { return fs[i].Confidence > fs[j].Confidence })
		for i := 0; i < len(fs) && i < findingsPerArea; i++ {
			insights = append(insights, fmt.Sprintf("%s: %s", area.name, fs[i].Text))
		}
	}

	general := append([]Finding(nil), areas[generalArea]...)
	sort.SliceStable(general, func(i, j int) bool { return general[i].Confidence > general[j].Confidence })
	for i := 0; i < len(general) && i < maxGeneralInsights; i++ {
		insights = append(insights, general[i].Text)
	}

	if len(insights) > maxKeyInsights {
		insights = insights[:maxKeyInsights]
	}
	return insights
}

// rankRecommendations groups identical recommendations across agents and
// ranks them by frequency weighted by the mean confidence of the agents
// proposing them.
func rankRecommendations(analyses []types.Analysis) []string {
	type recStat struct {
		text    string
		count   int
		confSum float64
		order   int
	}
	stats := map[string]*recStat{}
	order := 0
	for _, an := range analyses {
		for _, rec := range an.Recommendations {
			key := strings.ToLower(strings.TrimSpace(rec))
			if key == "" {
				continue
			}
			st, ok := stats[key]
			if !ok {
				st = &recStat{text: rec, order: order}
				order++
				stats[key] = st
			}
			st.count++
			st.confSum += an.Confidence
		}
	}

	ranked := make([]*recStat, 0, len(stats))
	for _, st := range stats {
		ranked = append(ranked, st)
	}
	// frequency × mean confidence reduces to the confidence sum.
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].confSum != ranked[j].confSum {
			return ranked[i].confSum > ranked[j].confSum
		}
		return ranked[i].order < ranked[j].order
	})

	out := make([]string, 0, maxRecommendations)
	for _, st := range ranked {
		out = append(out, st.text)
		if len(out) == maxRecommendations {
			break
		}
	}
	return out
}

func buildSummary(query string, rt types.ResearchType, analyses []types.Analysis, areas map[string][]Finding, conflicts []Conflict) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Research on %q (%s) synthesized from %d agent analyses. ", query, rt, len(analyses))

	names := make([]string, 0, len(areas))
	for name, fs := range areas {
		if name != generalArea && len(fs) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if len(names) > 0 {
		fmt.Fprintf(&b, "Findings concentrate in %s. ", strings.Join(names, ", "))
	}

	for _, an := range analyses {
		b.WriteString(an.Summary)
		if !strings.HasSuffix(an.Summary, ".") {
			b.WriteByte('.')
		}
		b.WriteByte(' ')
	}

	if len(conflicts) > 0 {
		fmt.Fprintf(&b, "%d conflicting findings were resolved by agent consensus: ", len(conflicts))
		b.WriteString(conflicts[0].Resolution)
		if !strings.HasSuffix(conflicts[0].Resolution, ".") {
			b.WriteByte('.')
		}
	}
	return strings.TrimSpace(b.String())
}

func meanConfidence(analyses []types.Analysis) float64 {
	if len(analyses) == 0 {
		return 0
	}
	var sum float64
	for _, an := range analyses {
		sum += an.Confidence
	}
	return sum / float64(len(analyses))
}

// assessQuality scores the synthesis on four weighted dimensions.
// Consistency is the mean analysis confidence; credibility defaults to 0.5
// when no sources are available.
func assessQuality(findings []Finding, analyses []types.Analysis, recommendations []string, sources []types.Source) Quality {
	dims := map[string]float64{}

	completeness := float64(len(findings)) / expectedFindings
	if completeness > 1 {
		completeness = 1
	}
	dims["completeness"] = completeness

	consistency := meanConfidence(analyses)
	dims["consistency"] = consistency

	credibility := 0.5
	if len(sources) > 0 {
		var sum float64
		for i := range sources {
			sum += sources[i].Credibility
		}
		credibility = sum / float64(len(sources))
	}
	dims["credibility"] = credibility

	actionability := float64(len(recommendations)) / expectedRecommendations
	if actionability > 1 {
		actionability = 1
	}
	dims["actionability"] = actionability

	overall := completeness*weightCompleteness +
		consistency*weightConsistency +
		credibility*weightCredibility +
		actionability*weightActionability

	return Quality{Overall: overall, Dimensions: dims, Level: qualityLevel(overall)}
}

func qualityLevel(overall float64) string {
	switch {
	case overall >= 0.8:
		return "high"
	case overall >= 0.6:
		return "medium"
	default:
		return "low"
	}
}
