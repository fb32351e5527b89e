// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesis

import (
	"fmt"
	"strings"
	"unicode"
)

// Polarity keyword sets. Two findings on the same topic with opposite
// polarity are treated as a conflict.
var (
	negationKeywords = []string{"not", "avoid", "don't", "shouldn't", "never", "impossible", "unable"}
	positiveKeywords = []string{"should", "recommend", "best", "good", "effective", "successful"}
)

// Findings must share at least this word-level overlap to be considered
// statements about the same topic.
const conflictTopicOverlap = 0.4

// Conflict is a pair of findings that disagree, with its resolution.
type Conflict struct {
	First      Finding `json:"first"`
	Second     Finding `json:"second"`
	Resolution string  `json:"resolution"`
	Winner     string  `json:"winner"` // "first", "second", or "merged"
}

// polarity classifies a finding as positive (+1), negative (-1), or
// neutral (0). Negation wins when both kinds of keyword appear.
func polarity(text string) int {
	words := wordSet(text)
	for _, kw := range negationKeywords {
		if words[kw] {
			return -1
		}
	}
	for _, kw := range positiveKeywords {
		if words[kw] {
			return 1
		}
	}
	return 0
}

// detectConflicts scans findings pairwise for same-topic statements with
// opposite polarity.
func detectConflicts(findings []Finding) []Conflict {
	var conflicts []Conflict
	for i := 0; i < len(findings); i++ {
		for j := i + 1; j < len(findings); j++ {
			pi, pj := polarity(findings[i].Text), polarity(findings[j].Text)
			if pi == 0 || pj == 0 || pi == pj {
				continue
			}
			if topicOverlap(findings[i].Text, findings[j].Text) < conflictTopicOverlap {
				continue
			}
			conflicts = append(conflicts, resolveConflict(findings[i], findings[j], findings))
		}
	}
	return conflicts
}

// resolveConflict picks a winner by summing the confidence of every
// finding that lexically supports each side. A strict winner's text
// becomes the resolution; a tie keeps both statements.
func resolveConflict(a, b Finding, all []Finding) Conflict {
	supportA := supporterConfidence(a, all)
	supportB := supporterConfidence(b, all)

	c := Conflict{First: a, Second: b}
	switch {
	case supportA > supportB:
		c.Resolution = a.Text
		c.Winner = "first"
	case supportB > supportA:
		c.Resolution = b.Text
		c.Winner = "second"
	default:
		c.Resolution = fmt.Sprintf("%s. However, %s.", strings.TrimRight(a.Text, "."), lowerFirst(strings.TrimRight(b.Text, ".")))
		c.Winner = "merged"
	}
	return c
}

// supporterConfidence sums the confidence of every agent with at least one
// finding that overlaps the given one, the finding's own agent included.
// Each agent counts once no matter how many of its findings overlap.
func supporterConfidence(f Finding, all []Finding) float64 {
	seen := map[string]bool{}
	var sum float64
	for _, other := range all {
		if seen[other.Agent] {
			continue
		}
		if other.Text == f.Text || topicOverlap(f.Text, other.Text) >= conflictTopicOverlap {
			if polarity(other.Text) == polarity(f.Text) {
				sum += other.Confidence
				seen[other.Agent] = true
			}
		}
	}
	return sum
}

// applyResolutions rewrites the findings pool per the detected conflicts:
// the losing side of each resolved pair is dropped, and a merged
// resolution replaces both sides of a tie.
func applyResolutions(findings []Finding, conflicts []Conflict) []Finding {
	if len(conflicts) == 0 {
		return findings
	}
	drop := map[string]bool{}
	var merged []Finding
	for _, c := range conflicts {
		switch c.Winner {
		case "first":
			drop[c.Second.Text] = true
		case "second":
			drop[c.First.Text] = true
		default:
			drop[c.First.Text] = true
			drop[c.Second.Text] = true
			conf := c.First.Confidence
			if c.Second.Confidence > conf {
				conf = c.Second.Confidence
			}
			merged = append(merged, Finding{Text: c.Resolution, Agent: c.First.Agent, Confidence: conf})
		}
	}
	out := make([]Finding, 0, len(findings)+len(merged))
	for _, f := range findings {
		if !drop[f.Text] {
			out = append(out, f)
		}
	}
	return append(out, merged...)
}

// topicOverlap is the Jaccard similarity of the two findings' word sets
// with polarity keywords excluded, so disagreement about the same topic
// still registers as the same topic.
func topicOverlap(a, b string) float64 {
	wa, wb := topicWords(a), topicWords(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}
	inter := 0
	for w := range wa {
		if wb[w] {
			inter++
		}
	}
	union := len(wa) + len(wb) - inter
	return float64(inter) / float64(union)
}

func topicWords(text string) map[string]bool {
	words := wordSet(text)
	for _, kw := range negationKeywords {
		delete(words, kw)
	}
	for _, kw := range positiveKeywords {
		delete(words, kw)
	}
	return words
}

func wordSet(text string) map[string]bool {
	out := map[string]bool{}
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\''
	}) {
		out[w] = true
	}
	return out
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}
