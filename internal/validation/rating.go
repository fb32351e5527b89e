// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validation provides the independent quality axes used across the
// pipeline: credibility, freshness, and completeness scoring for sources
// and results, per-source sanity validation, and the rule-table validator
// for completed research results. All scores are in [0,1].
package validation

// Rating is the closed qualitative scale shared by every assessor. A single
// lookup table maps ratings to numeric scores so qualitative judgments stay
// consistent across the toolkit.
type Rating string

const (
	RatingExcellent Rating = "excellent"
	RatingVeryGood  Rating = "very_good"
	RatingGood      Rating = "good"
	RatingFair      Rating = "fair"
	RatingPoor      Rating = "poor"
)

// ratingScores is the one place qualitative ratings become numbers.
var ratingScores = map[Rating]float64{
	RatingExcellent: 1.0,
	RatingVeryGood:  0.85,
	RatingGood:      0.75,
	RatingFair:      0.5,
	RatingPoor:      0.25,
}

// Score returns the numeric value of the rating, 0 for unknown ratings.
func (r Rating) Score() float64 {
	return ratingScores[r]
}

// RateCount converts an indicator-match count into a Rating using the given
// thresholds (matches ≥ excellent ⇒ excellent, ≥ good ⇒ good, ≥ fair ⇒ fair,
// otherwise poor).
func RateCount(matches, excellent, good, fair int) Rating {
	switch {
	case matches >= excellent:
		return RatingExcellent
	case matches >= good:
		return RatingGood
	case matches >= fair:
		return RatingFair
	default:
		return RatingPoor
	}
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
