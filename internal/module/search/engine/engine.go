// Package engine contains the search backend abstraction: one Engine per
// third-party provider, a normalized query/result shape, and the shared
// HTTP plumbing that maps heterogeneous backend failures onto a common
// error taxonomy.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ID identifies a configured search engine.
type ID string

// Config describes one configured search engine.
type Config struct {
	// ID is the unique engine identifier (e.g. "tavily").
	ID ID

	// Type selects the engine implementation. Defaults to ID.
	Type string

	// Name is the human-readable engine name.
	Name string

	// MonthlyQuota is the engine's monthly credit budget.
	MonthlyQuota int

	// CreditCost is the number of credits one search consumes.
	CreditCost int

	// CredentialEnv names the environment variable holding the backend
	// credential. It is read at call time, not at construction time.
	CredentialEnv string

	// BaseURL overrides the backend endpoint (used in tests).
	BaseURL string
}

// EngineType returns the implementation type for the config.
func (c Config) EngineType() string {
	if c.Type != "" {
		return c.Type
	}
	return string(c.ID)
}

// Query is the normalized search query passed to every engine.
type Query struct {
	Text string `json:"text"`

	// Limit is the requested result count. A nil limit means the backend
	// default (5). Zero and negative values are forwarded verbatim.
	Limit *int `json:"limit,omitempty"`

	// IncludeRaw requests the raw backend response body in the Response.
	IncludeRaw bool `json:"include_raw,omitempty"`
}

// defaultLimit is the result count used when the query has no limit.
const defaultLimit = 5

// ResolvedLimit returns the limit forwarded to the backend.
func (q *Query) ResolvedLimit() int {
	if q.Limit == nil {
		return defaultLimit
	}
	return *q.Limit
}

// Result is one normalized search result.
type Result struct {
	Title        string   `json:"title"`
	URL          string   `json:"url"`
	Snippet      string   `json:"snippet"`
	Score        *float64 `json:"score,omitempty"`
	SourceEngine ID       `json:"source_engine"`
}

// Response is the normalized output of one engine search.
type Response struct {
	EngineID ID              `json:"engine_id"`
	Results  []Result        `json:"results"`
	TookMs   int64           `json:"took_ms"`
	Raw      json.RawMessage `json:"raw,omitempty"`
}

// Metadata is static engine information, independent of any network call.
type Metadata struct {
	ID          ID     `json:"id"`
	DisplayName string `json:"display_name"`
	DocsURL     string `json:"docs_url"`
}

// Engine is the capability every search backend implements.
type Engine interface {
	// Metadata returns static engine information.
	Metadata() Metadata

	// Search performs exactly one backend call and normalizes the result.
	// Retries, if any, belong to a policy layer above this interface.
	Search(ctx context.Context, q *Query) (*Response, error)
}

// BaseEngine provides the shared HTTP plumbing for engines.
type BaseEngine struct {
	client *http.Client
}

// NewBaseEngine creates a BaseEngine with the default HTTP client.
func NewBaseEngine() *BaseEngine {
	return &BaseEngine{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// doPost performs a JSON POST and returns the raw response body.
func (b *BaseEngine) doPost(ctx context.Context, url string, headers map[string]string, body any) ([]byte, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return b.do(req)
}

// doGet performs a GET and returns the raw response body.
func (b *BaseEngine) doGet(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return b.do(req)
}

// do executes the request and maps failures onto the error taxonomy.
func (b *BaseEngine) do(req *http.Request) ([]byte, error) {
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &BackendError{
			StatusCode: resp.StatusCode,
			Reason:     reasonPhrase(resp),
		}
	}

	return body, nil
}

// reasonPhrase extracts the reason phrase from the status line.
func reasonPhrase(resp *http.Response) string {
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}
	return reason
}
