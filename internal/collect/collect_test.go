// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pdiddy/knowledge-engine/pkg/types"
)

var testNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

// mockBackend records the queries it receives and serves canned candidates.
type mockBackend struct {
	name  string
	cands []RawCandidate
	err   error

	mu      sync.Mutex
	queries []string
}

func (m *mockBackend) Name() string { return m.name }

func (m *mockBackend) Search(_ context.Context, query string) ([]RawCandidate, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.cands, nil
}

func (m *mockBackend) seen() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]string(nil), m.queries...)
	sort.Strings(out)
	return out
}

func newTestCollector(backends []Backend, cfg types.CollectConfig) *Collector {
	if cfg.Seed == 0 {
		cfg.Seed = 1
	}
	c := New(backends, cfg, nil)
	c.now = func() time.Time { return testNow }
	return c
}

// cand builds a candidate whose text contains the query, so relevance stays
// comfortably above the filter threshold regardless of jitter.
func cand(query, domain, title string) RawCandidate {
	return RawCandidate{
		URL:      fmt.Sprintf("https://%s/%s", domain, strings.ReplaceAll(strings.ToLower(title), " ", "-")),
		Title:    title,
		Domain:   domain,
		Content:  query + " documentation and implementation guide for " + title,
		Metadata: map[string]string{"freshness": "0.9"},
	}
}

func TestSearchInputErrors(t *testing.T) {
	backend := &mockBackend{name: "mock"}
	c := newTestCollector([]Backend{backend}, types.CollectConfig{MaxSources: 10})

	if _, err := c.Search(context.Background(), "  ", types.ResearchTypeTechnical, 5); err == nil {
		t.Fatal("expected error for empty query")
	}

	empty := newTestCollector(nil, types.CollectConfig{MaxSources: 10})
	if _, err := empty.Search(context.Background(), "go generics", types.ResearchTypeTechnical, 5); err == nil {
		t.Fatal("expected error for no backends")
	}
}

func TestSearchSkipsFailingBackend(t *testing.T) {
	good := &mockBackend{
		name:  "good",
		cands: []RawCandidate{cand("go generics", "github.com", "Go generics deep dive")},
	}
	bad := &mockBackend{name: "bad", err: fmt.Errorf("upstream down")}

	c := newTestCollector([]Backend{good, bad}, types.CollectConfig{MaxSources: 10})
	sources, err := c.Search(context.Background(), "go generics", types.ResearchTypeTechnical, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(sources) != 1 {
		t.Fatalf("got %d sources, want 1", len(sources))
	}
	if got := sources[0].Metadata["backend"]; got != "good" {
		t.Errorf("backend metadata = %q, want %q", got, "good")
	}
}

func TestSearchFiltersWeakCandidates(t *testing.T) {
	const query = "go generics"

	negative := cand(query, "github.com", "Go generics salary negotiation tips")
	lowCred := cand(query, "blog.tumblr.com", "Go generics hot take") // 0.40 * 0.9
	stale := cand(query, "github.com", "Go generics archive")
	stale.Metadata = map[string]string{"freshness": "0.3"}
	kept := cand(query, "github.com", "Go generics deep dive")

	backend := &mockBackend{name: "mock", cands: []RawCandidate{negative, lowCred, stale, kept}}
	c := newTestCollector([]Backend{backend}, types.CollectConfig{MaxSources: 10})

	sources, err := c.Search(context.Background(), query, types.ResearchTypeTechnical, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(sources) != 1 {
		t.Fatalf("got %d sources, want 1: %+v", len(sources), sources)
	}
	s := sources[0]
	if s.Title != kept.Title {
		t.Errorf("kept %q, want %q", s.Title, kept.Title)
	}
	if s.Credibility != 0.95 {
		t.Errorf("credibility = %v, want 0.95", s.Credibility)
	}
	if s.Freshness != 0.9 {
		t.Errorf("freshness = %v, want 0.9", s.Freshness)
	}
	if !s.AccessedAt.Equal(testNow) {
		t.Errorf("accessed at = %v, want %v", s.AccessedAt, testNow)
	}
}

func TestSearchRankAndTruncate(t *testing.T) {
	const query = "service mesh"
	backend := &mockBackend{
		name: "mock",
		cands: []RawCandidate{
			cand(query, "medium.com", "Alpha mesh routing primer"),
			cand(query, "github.com", "Beta sidecar proxy internals"),
			cand(query, "tumblr.com", "Gamma traffic splitting notes"),
			cand(query, "kubernetes.io", "Delta control plane walkthrough"),
		},
	}
	c := newTestCollector([]Backend{backend}, types.CollectConfig{MaxSources: 10})

	sources, err := c.Search(context.Background(), query, types.ResearchTypeTechnical, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(sources) != 3 {
		t.Fatalf("got %d sources, want 3", len(sources))
	}
	// The 0.95-credibility domains carry the 0.1 bonus and must lead.
	for i, s := range sources[:2] {
		if s.Credibility != 0.95 {
			t.Errorf("rank %d credibility = %v, want 0.95 (title %q)", i+1, s.Credibility, s.Title)
		}
	}
	for i, s := range sources {
		if got := s.Metadata["rank_position"]; got != fmt.Sprint(i+1) {
			t.Errorf("rank_position = %q, want %d", got, i+1)
		}
		if s.Metadata["rank_score"] == "" {
			t.Errorf("rank %d missing rank_score", i+1)
		}
		if s.Metadata["search_variant"] == "" {
			t.Errorf("rank %d missing search_variant", i+1)
		}
	}
}

func TestSearchFansOutVariants(t *testing.T) {
	backend := &mockBackend{name: "mock"}
	c := newTestCollector([]Backend{backend}, types.CollectConfig{MaxSources: 10})

	if _, err := c.Search(context.Background(), "go generics", types.ResearchTypeTechnical, 10); err != nil {
		t.Fatalf("Search: %v", err)
	}
	seen := backend.seen()
	if len(seen) != variantsPerBackend {
		t.Fatalf("backend saw %d queries, want %d: %v", len(seen), variantsPerBackend, seen)
	}
	found := false
	for _, q := range seen {
		if q == "go generics" {
			found = true
		}
		if !strings.HasPrefix(q, "go generics") {
			t.Errorf("variant %q does not extend the base query", q)
		}
	}
	if !found {
		t.Error("base query was not searched")
	}
}

func TestRelevanceBands(t *testing.T) {
	c := newTestCollector([]Backend{&mockBackend{name: "mock"}}, types.CollectConfig{})
	filter := filterFor(types.ResearchTypeTechnical)
	queryWords := wordSet("go generics")

	full := c.relevance(queryWords, filter, "go generics documentation with code examples")
	if full < 0.7 {
		t.Errorf("full-overlap relevance = %v, want >= 0.7", full)
	}
	none := c.relevance(queryWords, filter, "unrelated cooking recipes")
	if none > 0.4 {
		t.Errorf("no-overlap relevance = %v, want <= 0.4", none)
	}
}

func TestDeduplicate(t *testing.T) {
	src := func(url, title string) types.Source {
		return types.Source{URL: url, Title: title}
	}
	in := []types.Source{
		src("https://a.example/1", "Go concurrency patterns guide"),
		src("https://a.example/1", "Different title, same URL"),
		src("https://a.example/2", "Go concurrency patterns guide 2026"), // jaccard 0.8
		src("https://a.example/3", "Scheduling goroutines under load"),
	}
	out := deduplicate(in)
	if len(out) != 2 {
		t.Fatalf("got %d sources, want 2: %+v", len(out), out)
	}
	if out[0].URL != "https://a.example/1" || out[1].URL != "https://a.example/3" {
		t.Errorf("unexpected survivors: %+v", out)
	}
}

func TestRankOrderAndScore(t *testing.T) {
	src := func(rel, cred, fresh float64) types.Source {
		return types.Source{Relevance: rel, Credibility: cred, Freshness: fresh}
	}
	sources := []types.Source{
		src(0.9, 0.5, 0.9),  // 0.690, no bonus
		src(0.8, 0.95, 0.9), // 0.785 + 0.1 = 0.885
		src(0.8, 0.7, 0.9),  // 0.710 + 0.05 = 0.760
	}
	rank(sources)

	wantCred := []float64{0.95, 0.7, 0.5}
	for i, s := range sources {
		if s.Credibility != wantCred[i] {
			t.Errorf("rank %d credibility = %v, want %v", i+1, s.Credibility, wantCred[i])
		}
	}
	if got := sources[0].Metadata["rank_score"]; got != "0.8850" {
		t.Errorf("top rank_score = %q, want %q", got, "0.8850")
	}
}

func TestExpandQuery(t *testing.T) {
	variants := expandQuery("kafka streams", types.ResearchTypeMethodology)
	if variants[0] != "kafka streams" {
		t.Fatalf("first variant = %q, want base query", variants[0])
	}
	if len(variants) != len(queryModifiers[types.ResearchTypeMethodology])+1 {
		t.Errorf("got %d variants, want %d", len(variants), len(queryModifiers[types.ResearchTypeMethodology])+1)
	}

	// Unknown types fall back to the technical modifiers.
	fallback := expandQuery("kafka streams", types.ResearchType("mystery"))
	if len(fallback) != len(queryModifiers[types.ResearchTypeTechnical])+1 {
		t.Errorf("fallback got %d variants, want %d", len(fallback), len(queryModifiers[types.ResearchTypeTechnical])+1)
	}
}

func TestCredibilityFor(t *testing.T) {
	tests := []struct {
		domain string
		want   float64
	}{
		{"github.com", 0.95},
		{"api.github.com", 0.95 * 0.9},
		{"docs.internal.github.com", 0.95 * 0.9},
		{"unknown-site.example", defaultCredibility},
		{"", defaultCredibility},
	}
	for _, tt := range tests {
		if got := credibilityFor(tt.domain); got != tt.want {
			t.Errorf("credibilityFor(%q) = %v, want %v", tt.domain, got, tt.want)
		}
	}
}

func TestJaccard(t *testing.T) {
	a := wordSet("go concurrency patterns guide")
	b := wordSet("go concurrency patterns guide 2026")
	if got := jaccard(a, b); got != 0.8 {
		t.Errorf("jaccard = %v, want 0.8", got)
	}
	if got := jaccard(nil, nil); got != 0 {
		t.Errorf("jaccard(nil, nil) = %v, want 0", got)
	}
}

func TestSimulatedBackendsDeterministic(t *testing.T) {
	backends := NewSimulatedBackends(types.ResearchTypeTechnical)
	if len(backends) != 5 {
		t.Fatalf("got %d backends, want 5", len(backends))
	}
	b := backends[0]
	first, err := b.Search(context.Background(), "go generics")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	second, err := b.Search(context.Background(), "go generics")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("got %d and %d candidates, want 3 each", len(first), len(second))
	}
	for i := range first {
		if first[i].URL != second[i].URL {
			t.Errorf("candidate %d URL changed between identical searches", i)
		}
	}
}
