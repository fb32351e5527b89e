// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validation

import (
	"fmt"

	"github.com/pdiddy/knowledge-engine/pkg/types"
)

// ResearchValidator applies per-research-type quality rules to a
// finished result. Structural shortfalls (too few sources or
// analyses) make the result invalid; everything else surfaces as a
// warning with a suggestion attached.
type ResearchValidator struct {
	completeness *CompletenessAssessor
	source       *SourceValidator
}

// ValidationReport is the outcome of validating a research result.
type ValidationReport struct {
	Valid       bool               `json:"valid"`
	Score       float64            `json:"score"`
	Checks      map[string]float64 `json:"checks"`
	Warnings    []string           `json:"warnings"`
	Suggestions []string           `json:"suggestions"`
}

// validationRules holds the thresholds a result of a given research
// type must meet.
type validationRules struct {
	minSources       int
	minAnalyses      int
	minSummaryLength int
	minInsights      int
	minRecs          int
	minConfidence    float64
	minCompleteness  float64
	minQuality       float64
}

var rulesByType = map[types.ResearchType]validationRules{
	types.ResearchTypeTechnical: {
		minSources: 3, minAnalyses: 2, minSummaryLength: 200,
		minInsights: 3, minRecs: 2,
		minConfidence: 0.6, minCompleteness: 0.7, minQuality: 0.6,
	},
	types.ResearchTypeMethodology: {
		minSources: 4, minAnalyses: 3, minSummaryLength: 300,
		minInsights: 4, minRecs: 3,
		minConfidence: 0.65, minCompleteness: 0.75, minQuality: 0.65,
	},
	types.ResearchTypeCompetitive: {
		minSources: 5, minAnalyses: 3, minSummaryLength: 400,
		minInsights: 5, minRecs: 4,
		minConfidence: 0.7, minCompleteness: 0.8, minQuality: 0.7,
	},
}

// NewResearchValidator returns a validator.
func NewResearchValidator() *ResearchValidator {
	return &ResearchValidator{
		completeness: NewCompletenessAssessor(),
		source:       NewSourceValidator(),
	}
}

// Validate checks a result against the rules for its research type.
// Unknown types fall back to the technical rules. The four dimension
// checks (structure, confidence, completeness, quality) carry equal
// weight in the final score. The quality check reads the score the
// synthesis phase left on the result; callers that re-validate a
// stored result re-check the score the previous validation assigned.
func (v *ResearchValidator) Validate(result *types.ResearchResult) ValidationReport {
	rules, ok := rulesByType[result.ResearchType]
	if !ok {
		rules = rulesByType[types.ResearchTypeTechnical]
	}

	report := ValidationReport{Valid: true, Checks: make(map[string]float64, 4)}

	for i := range result.Sources {
		sr := v.source.Validate(&result.Sources[i])
		for _, f := range sr.Flags {
			report.Warnings = append(report.Warnings, fmt.Sprintf("source %d: %s", i+1, f))
		}
	}

	report.Checks["structure"] = v.structureCheck(result, rules, &report)
	report.Checks["confidence"] = v.confidenceCheck(result, rules, &report)
	report.Checks["completeness"] = v.completenessCheck(result, rules, &report)
	report.Checks["quality"] = v.qualityCheck(result, rules, &report)

	var sum float64
	for _, c := range report.Checks {
		sum += c
	}
	report.Score = clamp01(sum / float64(len(report.Checks)))
	return report
}

// structureCheck enforces the hard minimums. Missing sources or
// analyses invalidate the result outright; thin summaries, insights,
// or recommendations only warn.
func (v *ResearchValidator) structureCheck(result *types.ResearchResult, rules validationRules, report *ValidationReport) float64 {
	parts := 5
	met := 0

	if len(result.Sources) >= rules.minSources {
		met++
	} else {
		report.Valid = false
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("only %d sources, need at least %d", len(result.Sources), rules.minSources))
		report.Suggestions = append(report.Suggestions, "broaden the query or raise the source limit")
	}
	if len(result.Analyses) >= rules.minAnalyses {
		met++
	} else {
		report.Valid = false
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("only %d analyses, need at least %d", len(result.Analyses), rules.minAnalyses))
		report.Suggestions = append(report.Suggestions, "enable more analysis agents for this research type")
	}
	if len(result.SynthesizedSummary) >= rules.minSummaryLength {
		met++
	} else {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("summary is %d characters, expected at least %d", len(result.SynthesizedSummary), rules.minSummaryLength))
	}
	if len(result.KeyInsights) >= rules.minInsights {
		met++
	} else {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("only %d key insights, expected at least %d", len(result.KeyInsights), rules.minInsights))
	}
	if len(result.Recommendations) >= rules.minRecs {
		met++
	} else {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("only %d recommendations, expected at least %d", len(result.Recommendations), rules.minRecs))
	}

	return float64(met) / float64(parts)
}

func (v *ResearchValidator) confidenceCheck(result *types.ResearchResult, rules validationRules, report *ValidationReport) float64 {
	if result.ConfidenceScore >= rules.minConfidence {
		return 1.0
	}
	report.Warnings = append(report.Warnings,
		fmt.Sprintf("confidence %.2f below threshold %.2f", result.ConfidenceScore, rules.minConfidence))
	report.Suggestions = append(report.Suggestions, "collect higher-credibility sources to raise agent confidence")
	if rules.minConfidence == 0 {
		return 1.0
	}
	return clamp01(result.ConfidenceScore / rules.minConfidence)
}

func (v *ResearchValidator) qualityCheck(result *types.ResearchResult, rules validationRules, report *ValidationReport) float64 {
	if result.QualityScore >= rules.minQuality {
		return 1.0
	}
	report.Warnings = append(report.Warnings,
		fmt.Sprintf("quality %.2f below threshold %.2f", result.QualityScore, rules.minQuality))
	report.Suggestions = append(report.Suggestions, "raise synthesis quality with more consistent analyses")
	if rules.minQuality == 0 {
		return 1.0
	}
	return clamp01(result.QualityScore / rules.minQuality)
}

func (v *ResearchValidator) completenessCheck(result *types.ResearchResult, rules validationRules, report *ValidationReport) float64 {
	assessment := v.completeness.Assess(result)
	if assessment.Overall >= rules.minCompleteness {
		return 1.0
	}
	report.Warnings = append(report.Warnings,
		fmt.Sprintf("completeness %.2f below threshold %.2f", assessment.Overall, rules.minCompleteness))
	report.Suggestions = append(report.Suggestions, assessment.Suggestions...)
	return clamp01(assessment.Overall / rules.minCompleteness)
}
