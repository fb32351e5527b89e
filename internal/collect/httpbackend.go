// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pdiddy/knowledge-engine/internal/httputil"
	"github.com/pdiddy/knowledge-engine/pkg/types"
)

// HTTPBackend queries a JSON search endpoint. The endpoint receives the
// query in the "q" parameter and responds with a JSON array of candidates:
//
//	[{"url": ..., "title": ..., "domain": ..., "content": ..., "metadata": {...}}, ...]
//
// Rate-limited responses are retried with exponential backoff.
type HTTPBackend struct {
	name     string
	endpoint string
	client   *httputil.RetryClient
	cfg      types.HTTPConfig
}

// NewHTTPBackend builds a backend against endpoint. The zero Timeout
// defaults to 30s.
func NewHTTPBackend(name, endpoint string, cfg types.HTTPConfig) *HTTPBackend {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPBackend{
		name:     name,
		endpoint: endpoint,
		client:   &httputil.RetryClient{Client: &http.Client{Timeout: timeout}},
		cfg:      cfg,
	}
}

// Name implements Backend.
func (b *HTTPBackend) Name() string { return b.name }

// Search implements Backend.
func (b *HTTPBackend) Search(ctx context.Context, query string) ([]RawCandidate, error) {
	u, err := url.Parse(b.endpoint)
	if err != nil {
		return nil, fmt.Errorf("parsing endpoint: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if b.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", b.cfg.UserAgent)
	}

	resp, err := b.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", b.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("searching %s: unexpected status %d", b.name, resp.StatusCode)
	}

	var raw []struct {
		URL      string            `json:"url"`
		Title    string            `json:"title"`
		Domain   string            `json:"domain"`
		Content  string            `json:"content"`
		Metadata map[string]string `json:"metadata"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", b.name, err)
	}

	cands := make([]RawCandidate, 0, len(raw))
	for _, r := range raw {
		if r.URL == "" {
			continue
		}
		domain := r.Domain
		if domain == "" {
			if parsed, err := url.Parse(r.URL); err == nil {
				domain = parsed.Hostname()
			}
		}
		cands = append(cands, RawCandidate{
			URL:      r.URL,
			Title:    r.Title,
			Domain:   domain,
			Content:  r.Content,
			Metadata: r.Metadata,
		})
	}
	return cands, nil
}
