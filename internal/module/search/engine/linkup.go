package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const linkupBaseURL = "https://api.linkup.so"

// Linkup implements the Engine interface for the Linkup search API.
type Linkup struct {
	*BaseEngine
	cfg Config
}

// NewLinkup creates a new Linkup engine.
func NewLinkup(cfg Config) *Linkup {
	return &Linkup{
		BaseEngine: NewBaseEngine(),
		cfg:        cfg,
	}
}

// Metadata returns static engine information.
func (e *Linkup) Metadata() Metadata {
	name := e.cfg.Name
	if name == "" {
		name = "Linkup"
	}
	return Metadata{
		ID:          e.cfg.ID,
		DisplayName: name,
		DocsURL:     "https://docs.linkup.so",
	}
}

// Search performs one search call against the Linkup API.
func (e *Linkup) Search(ctx context.Context, q *Query) (*Response, error) {
	apiKey, err := credential(e.cfg.CredentialEnv)
	if err != nil {
		return nil, err
	}

	base := e.cfg.BaseURL
	if base == "" {
		base = linkupBaseURL
	}

	body := map[string]any{
		"q":          q.Text,
		"depth":      "standard",
		"outputType": "searchResults",
	}
	headers := map[string]string{
		"Authorization": "Bearer " + apiKey,
	}

	start := time.Now()
	raw, err := e.doPost(ctx, base+"/v1/search", headers, body)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Results []struct {
			// Linkup names its title field "name".
			Name    string `json:"name"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	entries := parsed.Results
	if limit := q.ResolvedLimit(); limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	items := make([]rawItem, 0, len(entries))
	for _, r := range entries {
		items = append(items, rawItem{
			title:   r.Name,
			url:     r.URL,
			content: r.Content,
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
