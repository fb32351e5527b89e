// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package collect gathers candidate sources for a research query. Backends
// return raw candidates; the collector scores them on relevance,
// credibility, and freshness, filters out weak candidates, deduplicates by
// URL and title similarity, and ranks the survivors.
package collect

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/knowledge-engine/internal/validation"
	"github.com/pdiddy/knowledge-engine/pkg/types"
)

// RawCandidate is one backend hit before scoring. Backends fill what they
// know; the collector supplies the quality axes.
type RawCandidate struct {
	URL      string
	Title    string
	Domain   string
	Content  string
	Metadata map[string]string
}

// Backend searches a single candidate provider. Each backend implements
// this interface per the Strategy pattern; a failing backend is skipped,
// never fatal.
type Backend interface {
	Name() string
	Search(ctx context.Context, query string) ([]RawCandidate, error)
}

// Quality thresholds below which a candidate is discarded.
const (
	minRelevance   = 0.3
	minCredibility = 0.4
	minFreshness   = 0.5
)

// Ranking weights. Domain bonus is added on top for high-credibility hosts.
const (
	relevanceWeight   = 0.4
	credibilityWeight = 0.3
	freshnessWeight   = 0.2
)

const (
	variantsPerBackend = 3
	titleJaccardDupe   = 0.8
	defaultMaxInFlight = 5
)

// Collector turns a query into a ranked source list.
type Collector struct {
	backends  []Backend
	cfg       types.CollectConfig
	freshness *validation.FreshnessChecker
	log       *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand

	now func() time.Time
}

// New builds a Collector over the given backends. A nil logger disables
// logging. CollectConfig.Seed primes the relevance jitter; zero seeds from
// the clock.
func New(backends []Backend, cfg types.CollectConfig, log *zap.Logger) *Collector {
	if log == nil {
		log = zap.NewNop()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Collector{
		backends:  backends,
		cfg:       cfg,
		freshness: validation.NewFreshnessChecker(),
		log:       log,
		rng:       rand.New(rand.NewSource(seed)),
		now:       time.Now,
	}
}

// Search expands the query into category-tinged variants, fans them out to
// all backends under a bounded limiter, then scores, filters, deduplicates,
// and ranks the hits. Zero results is a valid outcome; only an empty query
// or an empty backend list is an error.
func (c *Collector) Search(ctx context.Context, query string, rt types.ResearchType, maxResults int) ([]types.Source, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query is empty")
	}
	if len(c.backends) == 0 {
		return nil, fmt.Errorf("no search backends configured")
	}
	if maxResults <= 0 {
		maxResults = c.cfg.MaxSources
	}
	if maxResults <= 0 {
		maxResults = 10
	}

	variants := expandQuery(query, rt)

	type hit struct {
		cand    RawCandidate
		backend string
		variant string
	}

	limit := c.cfg.MaxInFlight
	if limit <= 0 {
		limit = defaultMaxInFlight
	}

	var (
		hitsMu sync.Mutex
		hits   []hit
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, b := range c.backends {
		for _, v := range variants[:min(len(variants), variantsPerBackend)] {
			b, v := b, v
			g.Go(func() error {
				cands, err := b.Search(gctx, v)
				if err != nil {
					// Per-backend failures contribute zero sources.
					c.log.Warn("backend failed, skipping",
						zap.String("backend", b.Name()),
						zap.String("variant", v),
						zap.Error(err))
					return nil
				}
				hitsMu.Lock()
				for _, cand := range cands {
					hits = append(hits, hit{cand: cand, backend: b.Name(), variant: v})
				}
				hitsMu.Unlock()
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	accessed := c.now()
	filter := filterFor(rt)
	queryWords := wordSet(query)

	var sources []types.Source
	for _, h := range hits {
		s, ok := c.scoreCandidate(h.cand, filter, queryWords, accessed)
		if !ok {
			continue
		}
		if s.Metadata == nil {
			s.Metadata = map[string]string{}
		}
		s.Metadata["backend"] = h.backend
		s.Metadata["search_variant"] = h.variant
		sources = append(sources, s)
	}

	sources = deduplicate(sources)
	rank(sources)

	if len(sources) > maxResults {
		sources = sources[:maxResults]
	}
	for i := range sources {
		sources[i].Metadata["rank_position"] = strconv.Itoa(i + 1)
	}

	c.log.Debug("collection complete",
		zap.Int("hits", len(hits)),
		zap.Int("sources", len(sources)))
	return sources, nil
}

// scoreCandidate assigns the three quality axes and applies the category
// filter. It returns false when the candidate is dropped.
func (c *Collector) scoreCandidate(cand RawCandidate, filter categoryFilter, queryWords map[string]bool, accessed time.Time) (types.Source, bool) {
	text := strings.ToLower(cand.Title + " " + cand.Content)

	// Negative keywords disqualify outright.
	for _, neg := range filter.negative {
		if strings.Contains(text, neg) {
			return types.Source{}, false
		}
	}

	relevance := c.relevance(queryWords, filter, text)
	credibility := credibilityFor(cand.Domain)
	freshness := c.freshnessFor(cand)

	if relevance < minRelevance || credibility < minCredibility || freshness < minFreshness {
		return types.Source{}, false
	}

	meta := map[string]string{}
	for k, v := range cand.Metadata {
		meta[k] = v
	}
	return types.Source{
		URL:         cand.URL,
		Title:       cand.Title,
		Domain:      cand.Domain,
		Content:     cand.Content,
		Credibility: credibility,
		Freshness:   freshness,
		Relevance:   relevance,
		AccessedAt:  accessed,
		Metadata:    meta,
	}, true
}

// relevance blends query-word overlap with positive-keyword density, plus a
// small jitter to break ties between near-identical candidates.
func (c *Collector) relevance(queryWords map[string]bool, filter categoryFilter, text string) float64 {
	overlap := 0
	for w := range queryWords {
		if strings.Contains(text, w) {
			overlap++
		}
	}
	base := 0.5
	if len(queryWords) > 0 {
		base = 0.3 + 0.5*float64(overlap)/float64(len(queryWords))
	}

	for _, pos := range filter.positive {
		if strings.Contains(text, pos) {
			base += 0.05
		}
	}

	c.mu.Lock()
	jitter := (c.rng.Float64() - 0.5) * 0.1
	c.mu.Unlock()

	return clamp01(base + jitter)
}

// freshnessFor prefers a backend-supplied freshness value and otherwise
// derives one from dates found in the candidate text.
func (c *Collector) freshnessFor(cand RawCandidate) float64 {
	if v, ok := cand.Metadata["freshness"]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return clamp01(f)
		}
	}
	res := c.freshness.Check(cand.Content, cand.URL, cand.Title, c.now())
	return res.Score
}

// credibilityFor looks up the domain table, walking up subdomains, with a
// default for unknown hosts.
func credibilityFor(domain string) float64 {
	if domain == "" {
		return defaultCredibility
	}
	parts := strings.Split(domain, ".")
	for i := 0; i < len(parts)-1; i++ {
		if score, ok := domainCredibility[strings.Join(parts[i:], ".")]; ok {
			if i > 0 {
				return score * 0.9 // subdomain penalty
			}
			return score
		}
	}
	return defaultCredibility
}

// deduplicate removes exact-URL duplicates and titles whose token Jaccard
// similarity reaches the duplicate threshold.
func deduplicate(sources []types.Source) []types.Source {
	seenURL := make(map[string]bool)
	var kept []types.Source
	var keptTitles []map[string]bool

	for _, s := range sources {
		if seenURL[s.URL] {
			continue
		}
		tokens := wordSet(strings.ToLower(s.Title))
		dupe := false
		for _, prev := range keptTitles {
			if jaccard(tokens, prev) >= titleJaccardDupe {
				dupe = true
				break
			}
		}
		if dupe {
			continue
		}
		seenURL[s.URL] = true
		kept = append(kept, s)
		keptTitles = append(keptTitles, tokens)
	}
	return kept
}

// rank orders sources by the weighted score, best first, and records the
// score in metadata.
func rank(sources []types.Source) {
	score := func(s types.Source) float64 {
		v := s.Relevance*relevanceWeight +
			s.Credibility*credibilityWeight +
			s.Freshness*freshnessWeight
		switch {
		case s.Credibility >= 0.8:
			v += 0.1
		case s.Credibility >= 0.6:
			v += 0.05
		}
		return v
	}
	sort.SliceStable(sources, func(i, j int) bool {
		return score(sources[i]) > score(sources[j])
	})
	for i := range sources {
		if sources[i].Metadata == nil {
			sources[i].Metadata = map[string]string{}
		}
		sources[i].Metadata["rank_score"] = strconv.FormatFloat(score(sources[i]), 'f', 4, 64)
	}
}

// expandQuery returns the base query plus category-tinged variants,
// duplicates removed, base query first.
func expandQuery(query string, rt types.ResearchType) []string {
	mods, ok := queryModifiers[rt]
	if !ok {
		mods = queryModifiers[types.ResearchTypeTechnical]
	}
	variants := []string{query}
	seen := map[string]bool{strings.ToLower(query): true}
	for _, m := range mods {
		v := query + " " + m
		key := strings.ToLower(v)
		if !seen[key] {
			seen[key] = true
			variants = append(variants, v)
		}
	}
	return variants
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[w] = true
	}
	return set
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if b[w] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
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
