// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pdiddy/knowledge-engine/pkg/types"
)

// --- mock agent ---

type mockAgent struct {
	name       string
	capability string
	analysis   types.Analysis
	err        error
}

func (m *mockAgent) Name() string       { return m.name }
func (m *mockAgent) Capability() string { return m.capability }

func (m *mockAgent) Analyze(_ context.Context, _ Request) (types.Analysis, error) {
	return m.analysis, m.err
}

func testSources(n int) []types.Source {
	sources := make([]types.Source, n)
	for i := range sources {
		sources[i] = types.Source{
			URL:         fmt.Sprintf("https://example.com/doc-%d", i),
			Title:       fmt.Sprintf("Document %d", i),
			Domain:      "example.com",
			Content:     strings.Repeat("content ", 20),
			Credibility: 0.8,
			Freshness:   0.7,
			Relevance:   0.6,
		}
	}
	return sources
}

// --- Registry ---

func TestRegistryForType(t *testing.T) {
	r := NewRegistry()
	for _, a := range NewSimulatedAgents() {
		r.Register(a)
	}

	tech := r.ForType(types.ResearchTypeTechnical)
	if len(tech) != 4 {
		t.Fatalf("technical roster has %d agents, want 4", len(tech))
	}
	if tech[0].Capability() != "technical_analysis" {
		t.Errorf("technical roster leads with %q, want technical_analysis", tech[0].Capability())
	}

	comp := r.ForType(types.ResearchTypeCompetitive)
	if comp[0].Capability() != "trend_analysis" {
		t.Errorf("competitive roster leads with %q, want trend_analysis", comp[0].Capability())
	}

	unknown := r.ForType(types.ResearchType("exotic"))
	if len(unknown) != 4 {
		t.Errorf("unknown type roster has %d agents, want all 4", len(unknown))
	}
}

func TestRegistryRegisterReplaces(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockAgent{name: "a", capability: "technical_analysis"})
	r.Register(&mockAgent{name: "a", capability: "technical_analysis", analysis: types.Analysis{Summary: "v2"}})

	agents := r.ForType(types.ResearchTypeTechnical)
	if len(agents) != 1 {
		t.Fatalf("got %d agents after re-register, want 1", len(agents))
	}
	an, _ := agents[0].Analyze(context.Background(), Request{})
	if an.Summary != "v2" {
		t.Errorf("re-registered agent not replaced, summary = %q", an.Summary)
	}
}

// --- Analyzer.Run ---

func TestRunSkipsFailingAgents(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockAgent{name: "ok", capability: "technical_analysis",
		analysis: types.Analysis{AgentName: "ok", Summary: "fine", Confidence: 0.8}})
	r.Register(&mockAgent{name: "broken", capability: "domain_expertise",
		err: fmt.Errorf("model unavailable")})

	a := New(r, types.AnalyzeConfig{}, nil)
	analyses, err := a.Run(context.Background(), "query", types.ResearchTypeTechnical, testSources(3))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(analyses) != 1 {
		t.Fatalf("got %d analyses, want 1 (failing agent skipped)", len(analyses))
	}
	if analyses[0].AgentName != "ok" {
		t.Errorf("surviving analysis from %q, want ok", analyses[0].AgentName)
	}
	if analyses[0].Metadata["sources_analyzed"] != "3" {
		t.Errorf("sources_analyzed = %q, want 3", analyses[0].Metadata["sources_analyzed"])
	}
	if analyses[0].Metadata["prompt_length"] == "" {
		t.Error("prompt_length metadata missing")
	}
}

func TestRunAllAgentsFail(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockAgent{name: "a", capability: "technical_analysis", err: fmt.Errorf("down")})
	r.Register(&mockAgent{name: "b", capability: "domain_expertise", err: fmt.Errorf("down")})

	a := New(r, types.AnalyzeConfig{}, nil)
	analyses, err := a.Run(context.Background(), "query", types.ResearchTypeTechnical, testSources(2))
	if err != nil {
		t.Fatalf("Run() error = %v, want nil when every agent fails", err)
	}
	if len(analyses) != 0 {
		t.Fatalf("got %d analyses, want 0", len(analyses))
	}
}

func TestRunNoSources(t *testing.T) {
	r := NewRegistry()
	for _, a := range NewSimulatedAgents() {
		r.Register(a)
	}
	a := New(r, types.AnalyzeConfig{}, nil)
	analyses, err := a.Run(context.Background(), "query", types.ResearchTypeTechnical, nil)
	if err != nil {
		t.Fatalf("Run() error = %v, want nil with zero sources", err)
	}
	if len(analyses) != 0 {
		t.Fatalf("got %d analyses, want 0 with zero sources", len(analyses))
	}
}

func TestRunEmptyQuery(t *testing.T) {
	a := New(NewRegistry(), types.AnalyzeConfig{}, nil)
	if _, err := a.Run(context.Background(), "", types.ResearchTypeTechnical, nil); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestRunOutputIsSorted(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mike"} {
		r.Register(&mockAgent{name: name, capability: "technical_analysis",
			analysis: types.Analysis{AgentName: name, Confidence: 0.5}})
	}
	a := New(r, types.AnalyzeConfig{MaxInFlight: 2}, nil)
	analyses, err := a.Run(context.Background(), "query", types.ResearchTypeTechnical, testSources(1))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := []string{"alpha", "mike", "zeta"}
	for i, an := range analyses {
		if an.AgentName != want[i] {
			t.Errorf("analyses[%d] = %q, want %q", i, an.AgentName, want[i])
		}
	}
}

// --- SimulatedAgent ---

func TestSimulatedAgentConfidence(t *testing.T) {
	sources := testSources(4) // credibility 0.8 each
	req := Request{Query: "go concurrency patterns", ResearchType: types.ResearchTypeTechnical, Sources: sources}

	for _, agent := range NewSimulatedAgents() {
		sim := agent.(*SimulatedAgent)
		an, err := agent.Analyze(context.Background(), req)
		if err != nil {
			t.Fatalf("%s: Analyze() error = %v", agent.Name(), err)
		}
		want := 0.8 * sim.profile.modifier
		if math.Abs(an.Confidence-want) > 1e-9 {
			t.Errorf("%s confidence = %v, want %v", agent.Name(), an.Confidence, want)
		}
		if an.Summary == "" || len(an.KeyFindings) == 0 || len(an.Recommendations) == 0 {
			t.Errorf("%s produced an empty report", agent.Name())
		}
		if an.Category != types.ResearchTypeTechnical {
			t.Errorf("%s category = %q, want %q", agent.Name(), an.Category, types.ResearchTypeTechnical)
		}
	}
}

func TestSimulatedAgentNoSources(t *testing.T) {
	agent := NewSimulatedAgents()[0]
	if _, err := agent.Analyze(context.Background(), Request{Query: "q"}); err == nil {
		t.Fatal("expected error with no sources")
	}
}

// --- BuildPrompt ---

func TestBuildPrompt(t *testing.T) {
	sources := testSources(8)
	sources[5].Credibility = 0.99
	sources[5].Title = "The definitive reference"
	sources[2].Content = strings.Repeat("x", 2000)

	prompt := BuildPrompt("raft consensus", types.ResearchTypeTechnical, sources, 5)

	if !strings.Contains(prompt, "raft consensus") {
		t.Error("prompt missing query")
	}
	if !strings.Contains(prompt, "The definitive reference") {
		t.Error("prompt missing the highest-credibility source")
	}
	if strings.Count(prompt, "--- Source") != 5 {
		t.Errorf("prompt has %d sources, want 5", strings.Count(prompt, "--- Source"))
	}
	if strings.Contains(prompt, strings.Repeat("x", excerptLimit+100)) {
		t.Error("long content not truncated to excerpt limit")
	}
}

// --- ClaudeAgent ---

func TestClaudeAgentAnalyze(t *testing.T) {
	report := modelReport{
		Summary:         "the sources agree",
		KeyFindings:     []string{"f1", "f2"},
		Recommendations: []string{"r1"},
		Confidence:      0.8,
	}
	reportJSON, _ := json.Marshal(report)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(claudeResponse{
			Content: []claudeContent{{Type: "text", Text: string(reportJSON)}},
		})
	}))
	defer srv.Close()

	orig := claudeAPIURL
	claudeAPIURL = srv.URL
	defer func() { claudeAPIURL = orig }()

	agent := &ClaudeAgent{
		AgentName: "claude-technical",
		Role:      "technical_analysis",
		APIKey:    "test-key",
		Model:     "claude-sonnet-4-20250514",
		Modifier:  0.9,
	}
	an, err := agent.Analyze(context.Background(), Request{Prompt: "analyze this", ResearchType: types.ResearchTypeMethodology})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if an.Summary != "the sources agree" {
		t.Errorf("summary = %q", an.Summary)
	}
	if an.Category != types.ResearchTypeMethodology {
		t.Errorf("category = %q, want %q", an.Category, types.ResearchTypeMethodology)
	}
	if math.Abs(an.Confidence-0.72) > 1e-9 {
		t.Errorf("confidence = %v, want 0.72 (0.8 scaled by 0.9)", an.Confidence)
	}
}

func TestNewClaudeAgentsRoster(t *testing.T) {
	agents := NewClaudeAgents("key", "model-x")
	if len(agents) != 4 {
		t.Fatalf("got %d agents, want 4", len(agents))
	}
	caps := map[string]bool{}
	for _, a := range agents {
		ca := a.(*ClaudeAgent)
		if ca.APIKey != "key" || ca.Model != "model-x" {
			t.Errorf("%s: key/model not propagated: %+v", a.Name(), ca)
		}
		if ca.Modifier <= 0 {
			t.Errorf("%s: modifier not set", a.Name())
		}
		caps[a.Capability()] = true
	}
	for _, c := range []string{"technical_analysis", "domain_expertise", "trend_analysis", "recommendations"} {
		if !caps[c] {
			t.Errorf("roster missing capability %q", c)
		}
	}
}

func TestClaudeAgentHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	orig := claudeAPIURL
	claudeAPIURL = srv.URL
	defer func() { claudeAPIURL = orig }()

	agent := &ClaudeAgent{AgentName: "claude", Role: "technical_analysis", APIKey: "k", Model: "m"}
	if _, err := agent.Analyze(context.Background(), Request{Prompt: "p"}); err == nil {
		t.Fatal("expected error on HTTP 500")
	}
}
