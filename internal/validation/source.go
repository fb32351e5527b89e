// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validation

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/pdiddy/knowledge-engine/pkg/types"
)

// SourceValidator checks a single collected source for structural
// soundness and score plausibility before it is allowed to feed an
// analysis.
type SourceValidator struct{}

// SourceResult carries the validation verdict for one source.
type SourceResult struct {
	Valid  float64            `json:"score"`
	Checks map[string]float64 `json:"checks"`
	Flags  []string           `json:"flags"`
}

// Check weights. They sum to 1.0.
const (
	weightURLCheck         = 0.15
	weightDomainCheck      = 0.25
	weightContentCheck     = 0.25
	weightCredibilityCheck = 0.20
	weightFreshnessCheck   = 0.15
)

const minContentLength = 50

// NewSourceValidator returns a validator.
func NewSourceValidator() *SourceValidator {
	return &SourceValidator{}
}

// Validate scores the source and records a flag for every defect it
// finds. A source with a malformed URL or out-of-range scores still
// gets a result; the caller decides on a cutoff.
func (v *SourceValidator) Validate(src *types.Source) SourceResult {
	res := SourceResult{Checks: make(map[string]float64, 5)}

	res.Checks["url"] = v.urlCheck(src, &res)
	res.Checks["domain"] = DomainAuthority(src.Domain)
	res.Checks["content"] = v.contentCheck(src, &res)
	res.Checks["credibility"] = v.rangeCheck("credibility_score", src.Credibility, &res)
	res.Checks["freshness"] = v.rangeCheck("freshness_score", src.Freshness, &res)

	res.Valid = clamp01(res.Checks["url"]*weightURLCheck +
		res.Checks["domain"]*weightDomainCheck +
		res.Checks["content"]*weightContentCheck +
		res.Checks["credibility"]*weightCredibilityCheck +
		res.Checks["freshness"]*weightFreshnessCheck)
	return res
}

func (v *SourceValidator) urlCheck(src *types.Source, res *SourceResult) float64 {
	u, err := url.Parse(src.URL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		res.Flags = append(res.Flags, "malformed url")
		return 0
	}
	score := 0.7
	if u.Scheme == "https" {
		score += 0.2
	}
	if strings.EqualFold(u.Hostname(), src.Domain) ||
		strings.HasSuffix(strings.ToLower(u.Hostname()), "."+strings.ToLower(src.Domain)) {
		score += 0.1
	} else if src.Domain != "" {
		res.Flags = append(res.Flags, "domain does not match url host")
	}
	return clamp01(score)
}

func (v *SourceValidator) contentCheck(src *types.Source, res *SourceResult) float64 {
	n := len(strings.TrimSpace(src.Content))
	switch {
	case n == 0:
		res.Flags = append(res.Flags, "empty content")
		return 0
	case n < minContentLength:
		res.Flags = append(res.Flags, "content shorter than minimum")
		return 0.3
	case n < 200:
		return 0.6
	case n < 1000:
		return 0.85
	default:
		return 1.0
	}
}

func (v *SourceValidator) rangeCheck(name string, score float64, res *SourceResult) float64 {
	if score < 0 || score > 1 {
		res.Flags = append(res.Flags, fmt.Sprintf("%s out of range: %.2f", name, score))
		return 0
	}
	return score
}
