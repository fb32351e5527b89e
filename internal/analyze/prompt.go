// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"bytes"
	"sort"
	"text/template"

	"github.com/pdiddy/knowledge-engine/pkg/types"
)

// analysisPromptTmpl is the prompt every agent receives. It carries the
// query, the research type, and excerpts from the highest-credibility
// sources.
var analysisPromptTmpl = template.Must(template.New("analysis").Parse(`You are a research analysis agent. Analyze the following sources for the query below and produce a structured report.

Query: {{.Query}}
Research type: {{.ResearchType}}

For your report, provide:
- summary: a concise synthesis of what the sources say about the query
- key_findings: the distinct factual findings, one per line
- recommendations: concrete actions the findings support
- confidence: a float between 0.0 and 1.0 for how well the sources support your report

Sources:
{{range $i, $s := .Sources}}
--- Source {{$s.Rank}} ({{$s.Domain}}, credibility {{printf "%.2f" $s.Credibility}}) ---
Title: {{$s.Title}}
{{$s.Excerpt}}
{{end}}`))

type promptSource struct {
	Rank        int
	Domain      string
	Title       string
	Credibility float64
	Excerpt     string
}

const excerptLimit = 600

// BuildPrompt renders the analysis prompt from the top sources by
// credibility. At most maxSources sources are included, each truncated to
// a fixed excerpt length.
func BuildPrompt(query string, rt types.ResearchType, sources []types.Source, maxSources int) string {
	picked := make([]types.Source, len(sources))
	copy(picked, sources)
	sort.SliceStable(picked, func(i, j int) bool { return picked[i].Credibility > picked[j].Credibility })
	if maxSources > 0 && len(picked) > maxSources {
		picked = picked[:maxSources]
	}

	ps := make([]promptSource, len(picked))
	for i, s := range picked {
		excerpt := s.Content
		if len(excerpt) > excerptLimit {
			excerpt = excerpt[:excerptLimit] + "…"
		}
		ps[i] = promptSource{
			Rank:        i + 1,
			Domain:      s.Domain,
			Title:       s.Title,
			Credibility: s.Credibility,
			Excerpt:     excerpt,
		}
	}

	var buf bytes.Buffer
	if err := analysisPromptTmpl.Execute(&buf, struct {
		Query        string
		ResearchType types.ResearchType
		Sources      []promptSource
	}{query, rt, ps}); err != nil {
		// The template is static and the data plain; execution cannot fail
		// except on a writer error, which bytes.Buffer never returns.
		return query
	}
	return buf.String()
}
