package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// SearXNG implements the Engine interface for a self-hosted SearXNG
// instance. SearXNG has no API key; the credential env var holds the
// instance base URL instead, so an unconfigured instance fails the same
// way a missing key does.
type SearXNG struct {
	*BaseEngine
	cfg Config
}

// NewSearXNG creates a new SearXNG engine.
func NewSearXNG(cfg Config) *SearXNG {
	return &SearXNG{
		BaseEngine: NewBaseEngine(),
		cfg:        cfg,
	}
}

// Metadata returns static engine information.
func (e *SearXNG) Metadata() Metadata {
	name := e.cfg.Name
	if name == "" {
		name = "SearXNG"
	}
	return Metadata{
		ID:          e.cfg.ID,
		DisplayName: name,
		DocsURL:     "https://docs.searxng.org",
	}
}

// Search performs one search call against the SearXNG JSON API.
func (e *SearXNG) Search(ctx context.Context, q *Query) (*Response, error) {
	base := e.cfg.BaseURL
	if base == "" {
		instance, err := credential(e.cfg.CredentialEnv)
		if err != nil {
			return nil, err
		}
		base = strings.TrimRight(instance, "/")
	}

	params := url.Values{}
	params.Set("q", q.Text)
	params.Set("format", "json")

	start := time.Now()
	raw, err := e.doGet(ctx, base+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Results []struct {
			Title   string   `json:"title"`
			URL     string   `json:"url"`
			Content string   `json:"content"`
			Score   *float64 `json:"score"`
		} `json:"results"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	// SearXNG ignores a count parameter on the JSON API; trim locally to
	// honor the requested limit.
	entries := parsed.Results
	if limit := q.ResolvedLimit(); limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	items := make([]rawItem, 0, len(entries))
	for _, r := range entries {
		items = append(items, rawItem{
			title:   r.Title,
			url:     r.URL,
			content: r.Content,
			score:   r.Score,
		})
	}

	results := normalizeItems(e.cfg.ID, items)
	if len(results) == 0 {
		return nil, ErrEmptyResult
	}

	resp := &Response{
		EngineID: e.cfg.ID,
		Results:  results,
		TookMs:   time.Since(start).Milliseconds(),
	}
	if q.IncludeRaw {
		resp.Raw = json.RawMessage(raw)
	}
	return resp, nil
}
