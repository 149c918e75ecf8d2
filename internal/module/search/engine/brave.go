package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

const braveBaseURL = "https://api.search.brave.com"

// Brave implements the Engine interface for the Brave Search API.
type Brave struct {
	*BaseEngine
	cfg Config
}

// NewBrave creates a new Brave engine.
func NewBrave(cfg Config) *Brave {
	return &Brave{
		BaseEngine: NewBaseEngine(),
		cfg:        cfg,
	}
}

// Metadata returns static engine information.
func (e *Brave) Metadata() Metadata {
	name := e.cfg.Name
	if name == "" {
		name = "Brave Search"
	}
	return Metadata{
		ID:          e.cfg.ID,
		DisplayName: name,
		DocsURL:     "https://api-dashboard.search.brave.com/app/documentation",
	}
}

// Search performs one search call against the Brave Search API.
func (e *Brave) Search(ctx context.Context, q *Query) (*Response, error) {
	apiKey, err := credential(e.cfg.CredentialEnv)
	if err != nil {
		return nil, err
	}

	base := e.cfg.BaseURL
	if base == "" {
		base = braveBaseURL
	}

	params := url.Values{}
	params.Set("q", q.Text)
	params.Set("count", strconv.Itoa(q.ResolvedLimit()))

	headers := map[string]string{
		"X-Subscription-Token": apiKey,
	}

	start := time.Now()
	raw, err := e.doGet(ctx, base+"/res/v1/web/search?"+params.Encode(), headers)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Web struct {
			Results []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Description string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	items := make([]rawItem, 0, len(parsed.Web.Results))
	for _, r := range parsed.Web.Results {
		// Brave reports no relevance score; description is its snippet.
		items = append(items, rawItem{
			title:   r.Title,
			url:     r.URL,
			snippet: r.Description,
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
