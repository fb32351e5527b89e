// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validation

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// FreshnessChecker estimates how recent a piece of content is. It extracts
// the highest-confidence date from six pattern families and converts the
// resulting age into a score through five banded buckets; when no date is
// found it falls back to counting recency keywords.
type FreshnessChecker struct {
	patterns []datePattern
}

// DetectedDate is one date candidate found in the text.
type DetectedDate struct {
	Date       time.Time
	Text       string
	Pattern    string
	Source     string // "content", "url", or "title"
	Confidence float64
}

// FreshnessResult holds the assessment output.
type FreshnessResult struct {
	Score       float64
	Category    string // very_fresh, fresh, moderately_fresh, stale, very_stale
	Confidence  float64
	Dates       []DetectedDate
	Suggestions []string
}

type datePattern struct {
	name       string
	re         *regexp.Regexp
	confidence float64
	parse      func(m []string, ref time.Time) (time.Time, bool)
}

var monthNumbers = map[string]time.Month{
	"january": 1, "jan": 1, "february": 2, "feb": 2, "march": 3, "mar": 3,
	"april": 4, "apr": 4, "may": 5, "june": 6, "jun": 6, "july": 7, "jul": 7,
	"august": 8, "aug": 8, "september": 9, "sep": 9, "october": 10, "oct": 10,
	"november": 11, "nov": 11, "december": 12, "dec": 12,
}

// NewFreshnessChecker builds a checker with the six pattern families. Base
// confidences: ISO 0.95, US slash 0.90, EU slash 0.85, month-name 0.80,
// abbreviated month 0.75, year-only 0.60.
func NewFreshnessChecker() *FreshnessChecker {
	return &FreshnessChecker{patterns: []datePattern{
		{
			name:       "iso_date",
			re:         regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`),
			confidence: 0.95,
			parse: func(m []string, _ time.Time) (time.Time, bool) {
				return parseYMD(m[1], m[2], m[3])
			},
		},
		{
			name:       "us_date",
			re:         regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`),
			confidence: 0.90,
			parse: func(m []string, _ time.Time) (time.Time, bool) {
				// month/day/year
				return parseYMD(m[3], m[1], m[2])
			},
		},
		{
			name:       "european_date",
			re:         regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`),
			confidence: 0.85,
			parse: func(m []string, _ time.Time) (time.Time, bool) {
				// day/month/year; only meaningful when the US parse fails
				// (first field > 12).
				first, _ := strconv.Atoi(m[1])
				if first <= 12 {
					return time.Time{}, false
				}
				return parseYMD(m[3], m[2], m[1])
			},
		},
		{
			name: "month_year",
			re: regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|` +
				`september|october|november|december)\s+(\d{4})\b`),
			confidence: 0.80,
			parse:      parseMonthYear,
		},
		{
			name:       "abbreviated_month",
			re:         regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)\s+(\d{4})\b`),
			confidence: 0.75,
			parse:      parseMonthYear,
		},
		{
			name:       "year_only",
			re:         regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`),
			confidence: 0.60,
			parse: func(m []string, _ time.Time) (time.Time, bool) {
				year, err := strconv.Atoi(m[1])
				if err != nil {
					return time.Time{}, false
				}
				return time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC), true
			},
		},
	}}
}

// freshnessBucket maps an age ceiling to a score band; scores interpolate
// linearly inside the band.
type freshnessBucket struct {
	maxAgeDays float64
	minScore   float64
	maxScore   float64
	category   string
}

var freshnessBuckets = []freshnessBucket{
	{7, 0.9, 1.0, "very_fresh"},
	{30, 0.7, 0.9, "fresh"},
	{90, 0.5, 0.7, "moderately_fresh"},
	{365, 0.3, 0.5, "stale"},
}

// Check assesses the freshness of content relative to ref, also mining the
// URL and title for dates.
func (c *FreshnessChecker) Check(content, url, title string, ref time.Time) FreshnessResult {
	if ref.IsZero() {
		ref = time.Now()
	}

	var dates []DetectedDate
	dates = append(dates, c.extract(content, "content", ref)...)
	dates = append(dates, c.extract(url, "url", ref)...)
	dates = append(dates, c.extract(title, "title", ref)...)
	sort.SliceStable(dates, func(i, j int) bool { return dates[i].Confidence > dates[j].Confidence })

	res := FreshnessResult{Dates: dates}
	if len(dates) > 0 {
		best := dates[0]
		res.Score = ageScore(ref.Sub(best.Date), best.Confidence)
		res.Confidence = c.dateConfidence(dates, content)
	} else {
		res.Score = recencyKeywordScore(content)
		res.Confidence = 0.3
	}
	res.Category = categorizeAge(res.Score)
	res.Suggestions = freshnessSuggestions(res)
	return res
}

// extract runs every pattern family over the text and applies the
// plausibility adjustments to each hit's confidence.
func (c *FreshnessChecker) extract(text, source string, ref time.Time) []DetectedDate {
	if text == "" {
		return nil
	}
	var dates []DetectedDate
	for _, p := range c.patterns {
		for _, m := range p.re.FindAllStringSubmatch(text, -1) {
			d, ok := p.parse(m, ref)
			if !ok {
				continue
			}
			conf := p.confidence
			switch {
			case d.Year() > ref.Year()+1:
				conf *= 0.5 // implausible future date
			case d.Year() < 1990:
				conf *= 0.7
			case d.Year() >= ref.Year()-2:
				conf = math.Min(1.0, conf*1.1)
			}
			dates = append(dates, DetectedDate{
				Date:       d,
				Text:       m[0],
				Pattern:    p.name,
				Source:     source,
				Confidence: conf,
			})
		}
	}
	return dates
}

// ageScore converts an age into a banded score, interpolated linearly
// inside the bucket and blended toward 0.5 by date confidence.
func ageScore(age time.Duration, confidence float64) float64 {
	days := age.Hours() / 24
	if days < 0 {
		days = 0
	}

	var raw float64
	matched := false
	for _, b := range freshnessBuckets {
		if days <= b.maxAgeDays {
			ratio := days / b.maxAgeDays
			raw = b.maxScore - ratio*(b.maxScore-b.minScore)
			matched = true
			break
		}
	}
	if !matched {
		raw = 0.0 // over a year: floor of the 0.0–0.3 band
	}
	return clamp01(raw*confidence + 0.5*(1-confidence))
}

// recencyKeywords backs the no-date fallback.
var recencyKeywords = map[string][]string{
	"very_recent": {"today", "yesterday", "this week", "recently", "just released", "latest", "newest", "up to date"},
	"recent":      {"this month", "last month", "recently updated", "latest version", "updated", "modern"},
	"moderate":    {"this year", "last year", "release", "published", "announced"},
	"old":         {"legacy", "deprecated", "outdated", "obsolete", "old version", "archived"},
}

func recencyKeywordScore(content string) float64 {
	text := strings.ToLower(content)
	score := 0.5
	if containsAny(text, recencyKeywords["very_recent"]) {
		score += 0.3
	}
	if containsAny(text, recencyKeywords["recent"]) {
		score += 0.2
	}
	if containsAny(text, recencyKeywords["moderate"]) {
		score += 0.1
	}
	if containsAny(text, recencyKeywords["old"]) {
		score -= 0.2
	}
	return clamp01(score)
}

// dateConfidence grows with the number of distinct date sources and the
// quality of the matched patterns.
func (c *FreshnessChecker) dateConfidence(dates []DetectedDate, content string) float64 {
	sources := map[string]bool{}
	highQuality := false
	for _, d := range dates {
		sources[d.Source] = true
		if d.Pattern == "iso_date" || d.Pattern == "us_date" {
			highQuality = true
		}
	}
	conf := 0.4 + float64(len(sources))*0.2
	if highQuality {
		conf += 0.2
	}
	text := strings.ToLower(content)
	for _, kws := range recencyKeywords {
		if containsAny(text, kws) {
			conf += 0.1
			break
		}
	}
	return math.Min(1.0, conf)
}

func categorizeAge(score float64) string {
	switch {
	case score >= 0.9:
		return "very_fresh"
	case score >= 0.7:
		return "fresh"
	case score >= 0.5:
		return "moderately_fresh"
	case score >= 0.3:
		return "stale"
	default:
		return "very_stale"
	}
}

func freshnessSuggestions(res FreshnessResult) []string {
	var out []string
	if res.Category == "stale" || res.Category == "very_stale" {
		out = append(out, "content is dated; prefer more recent sources")
	}
	if res.Confidence < 0.6 {
		out = append(out, "freshness assessment has low confidence; manual review recommended")
	}
	if len(res.Dates) == 0 {
		out = append(out, "no explicit dates found; prefer sources with timestamps")
	}
	return out
}

func parseYMD(y, m, d string) (time.Time, bool) {
	year, err1 := strconv.Atoi(y)
	month, err2 := strconv.Atoi(m)
	day, err3 := strconv.Atoi(d)
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

func parseMonthYear(m []string, _ time.Time) (time.Time, bool) {
	month, ok := monthNumbers[strings.ToLower(m[1])]
	if !ok {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(m[2])
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC), true
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}
