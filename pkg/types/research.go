// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the knowledge-engine
// pipeline: sources, agent analyses, research results, and the per-stage
// configuration structs. See docs in each type for field semantics.
package types

import "time"

// ResearchType categorizes a research query and selects scoring tables,
// focus areas, and validation rules.
type ResearchType string

const (
	ResearchTypeTechnical   ResearchType = "technical"
	ResearchTypeMethodology ResearchType = "methodology"
	ResearchTypeCompetitive ResearchType = "competitive"
)

// KnownResearchTypes lists the research types with dedicated rule tables.
// Unknown types fall back to technical everywhere a table is consulted.
var KnownResearchTypes = []ResearchType{
	ResearchTypeTechnical,
	ResearchTypeMethodology,
	ResearchTypeCompetitive,
}

// KnownResearchType reports whether rt has dedicated rule tables.
func KnownResearchType(rt ResearchType) bool {
	for _, k := range KnownResearchTypes {
		if rt == k {
			return true
		}
	}
	return false
}

// ResearchStatus tracks a result through the pipeline lifecycle:
// pending → in_progress → completed or failed. Validated is a post-hoc tag
// applied after a completed result passes validation.
type ResearchStatus string

const (
	StatusPending    ResearchStatus = "pending"
	StatusInProgress ResearchStatus = "in_progress"
	StatusCompleted  ResearchStatus = "completed"
	StatusFailed     ResearchStatus = "failed"
	StatusValidated  ResearchStatus = "validated"
)

// Source is one candidate piece of evidence feeding an analysis. Sources are
// produced by the collector and never mutated afterwards.
type Source struct {
	// URL locates the source document.
	URL string `json:"url" yaml:"url"`

	// Title is the document title as returned by the backend.
	Title string `json:"title" yaml:"title"`

	// Domain is the registrable host serving the document.
	Domain string `json:"domain" yaml:"domain"`

	// Content is the document text (or a backend-supplied excerpt).
	Content string `json:"content" yaml:"content"`

	// Credibility, Freshness, and Relevance are independent quality axes,
	// each in [0,1].
	Credibility float64 `json:"credibility_score" yaml:"credibility_score"`
	Freshness   float64 `json:"freshness_score" yaml:"freshness_score"`
	Relevance   float64 `json:"relevance_score" yaml:"relevance_score"`

	// AccessedAt records when the collector fetched the document.
	AccessedAt time.Time `json:"accessed_at" yaml:"accessed_at"`

	// Metadata carries backend name, search variant, rank position, and
	// similar provenance details.
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Analysis is one independent agent pass over a source set. Analyses are
// immutable once produced.
type Analysis struct {
	// AgentName is the human-readable name of the producing agent profile.
	AgentName string `json:"agent_name" yaml:"agent_name"`

	// Category is the research type the analysis was conducted under.
	Category ResearchType `json:"category" yaml:"category"`

	// Summary is the agent's prose summary of the sources.
	Summary string `json:"summary" yaml:"summary"`

	// KeyFindings are discrete factual findings.
	KeyFindings []string `json:"key_findings" yaml:"key_findings"`

	// Confidence is the agent's self-reported confidence in [0,1], already
	// scaled by the profile's confidence modifier.
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// Recommendations are discrete actionable suggestions.
	Recommendations []string `json:"recommendations" yaml:"recommendations"`

	// Metadata carries agent id, prompt length, and sources analyzed.
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// ResearchResult is the complete output of one pipeline run. It is mutated
// in place as phases complete and is logically frozen once Status reaches
// completed or failed.
type ResearchResult struct {
	Query        string         `json:"query" yaml:"query"`
	ResearchType ResearchType   `json:"research_type" yaml:"research_type"`
	Status       ResearchStatus `json:"status" yaml:"status"`

	Sources  []Source   `json:"sources" yaml:"sources"`
	Analyses []Analysis `json:"ai_analyses" yaml:"ai_analyses"`

	SynthesizedSummary string   `json:"synthesized_summary" yaml:"synthesized_summary"`
	KeyInsights        []string `json:"key_insights" yaml:"key_insights"`
	Recommendations    []string `json:"recommendations" yaml:"recommendations"`

	// ConfidenceScore is the mean of analysis confidences, 0 when there are
	// no analyses. CompletenessScore is |sources|/maxSources capped at 1.
	// QualityScore is the validator's overall score. All in [0,1].
	ConfidenceScore   float64 `json:"confidence_score" yaml:"confidence_score"`
	CompletenessScore float64 `json:"completeness_score" yaml:"completeness_score"`
	QualityScore      float64 `json:"quality_score" yaml:"quality_score"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`

	// Metadata carries run id, error text for failed runs, and validation
	// details.
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}
