package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const tavilyBaseURL = "https://api.tavily.com"

// Tavily implements the Engine interface for the Tavily search API.
type Tavily struct {
	*BaseEngine
	cfg Config
}

// NewTavily creates a new Tavily engine.
func NewTavily(cfg Config) *Tavily {
	return &Tavily{
		BaseEngine: NewBaseEngine(),
		cfg:        cfg,
	}
}

// Metadata returns static engine information.
func (e *Tavily) Metadata() Metadata {
	name := e.cfg.Name
	if name == "" {
		name = "Tavily"
	}
	return Metadata{
		ID:          e.cfg.ID,
		DisplayName: name,
		DocsURL:     "https://docs.tavily.com",
	}
}

// Search performs one search call against the Tavily API.
func (e *Tavily) Search(ctx context.Context, q *Query) (*Response, error) {
	apiKey, err := credential(e.cfg.CredentialEnv)
	if err != nil {
		return nil, err
	}

	base := e.cfg.BaseURL
	if base == "" {
		base = tavilyBaseURL
	}

	body := map[string]any{
		"query":       q.Text,
		"max_results": q.ResolvedLimit(),
	}
	headers := map[string]string{
		"Authorization": "Bearer " + apiKey,
	}

	start := time.Now()
	raw, err := e.doPost(ctx, base+"/search", headers, body)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Results []struct {
			Title   string   `json:"title"`
			URL     string   `json:"url"`
			Content string   `json:"content"`
			Snippet string   `json:"snippet"`
			Score   *float64 `json:"score"`
		} `json:"results"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	items := make([]rawItem, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		items = append(items, rawItem{
			title:   r.Title,
			url:     r.URL,
			content: r.Content,
			snippet: r.Snippet,
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
