// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pdiddy/knowledge-engine/internal/httputil"
	"github.com/pdiddy/knowledge-engine/pkg/types"
)

// claudeAPIURL is the Claude API endpoint. Package-level var for test
// substitution.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

// ClaudeAgent runs the analysis prompt through the Claude API and parses
// the model's JSON report into an Analysis.
type ClaudeAgent struct {
	AgentName string
	Role      string
	APIKey    string
	Model     string
	Client    *http.Client
	Modifier  float64
}

// claudeRequest is the request body for the Claude Messages API.
type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

// claudeMessage is a single message in the Claude API conversation.
type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// claudeResponse is the response body from the Claude Messages API.
type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

// claudeContent is a content block in the Claude API response.
type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// modelReport is the JSON shape the prompt asks the model to return.
type modelReport struct {
	Summary         string   `json:"summary"`
	KeyFindings     []string `json:"key_findings"`
	Recommendations []string `json:"recommendations"`
	Confidence      float64  `json:"confidence"`
}

// NewClaudeAgents returns a model-backed roster mirroring the simulated
// profiles: one agent per capability with the same confidence modifier.
func NewClaudeAgents(apiKey, model string) []Agent {
	agents := make([]Agent, len(simulatedProfiles))
	for i, p := range simulatedProfiles {
		agents[i] = &ClaudeAgent{
			AgentName: "claude-" + p.name,
			Role:      p.capability,
			APIKey:    apiKey,
			Model:     model,
			Modifier:  p.modifier,
		}
	}
	return agents
}

func (c *ClaudeAgent) Name() string       { return c.AgentName }
func (c *ClaudeAgent) Capability() string { return c.Role }

// Analyze sends the request prompt to the Claude API and converts the
// model report into an Analysis. Rate-limited calls are retried with
// backoff.
func (c *ClaudeAgent) Analyze(ctx context.Context, req Request) (types.Analysis, error) {
	reqBody := claudeRequest{
		Model:     c.Model,
		MaxTokens: 4096,
		Messages: []claudeMessage{
			{Role: "user", Content: req.Prompt},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return types.Analysis{}, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, claudeAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return types.Analysis{}, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.APIKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	client := c.Client
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}

	retrying := &httputil.RetryClient{Client: client}
	resp, err := retrying.Do(ctx, httpReq)
	if err != nil {
		return types.Analysis{}, fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return types.Analysis{}, fmt.Errorf("Claude API returned %d: %s", resp.StatusCode, string(body))
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return types.Analysis{}, fmt.Errorf("decoding Claude response: %w", err)
	}

	for _, block := range cResp.Content {
		if block.Type != "text" {
			continue
		}
		var report modelReport
		if err := json.Unmarshal([]byte(block.Text), &report); err != nil {
			return types.Analysis{}, fmt.Errorf("parsing model report JSON: %w", err)
		}
		modifier := c.Modifier
		if modifier <= 0 {
			modifier = 1.0
		}
		return types.Analysis{
			AgentName:       c.AgentName,
			Category:        req.ResearchType,
			Summary:         report.Summary,
			KeyFindings:     report.KeyFindings,
			Confidence:      clamp01(report.Confidence * modifier),
			Recommendations: report.Recommendations,
			Metadata: map[string]string{
				"capability": c.Role,
				"model":      c.Model,
			},
		}, nil
	}

	return types.Analysis{}, fmt.Errorf("no text content in Claude API response")
}
