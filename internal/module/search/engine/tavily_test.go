package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tavilyConfig(t *testing.T, baseURL string) Config {
	t.Helper()
	t.Setenv("TEST_TAVILY_KEY", "tvly-secret")
	return Config{
		ID:            "tavily",
		CredentialEnv: "TEST_TAVILY_KEY",
		BaseURL:       baseURL,
	}
}

func TestTavilySearch(t *testing.T) {
	t.Run("normalizes results", func(t *testing.T) {
		var gotBody map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/search", r.URL.Path)
			assert.Equal(t, "Bearer tvly-secret", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"results":[
				{"title":"Go","url":"https://go.dev","content":"The Go site","snippet":"ignored","score":0.97},
				{"url":"https://pkg.go.dev","content":"Package docs"},
				{"title":"no url, skipped"}
			]}`))
		}))
		defer srv.Close()

		e := NewTavily(tavilyConfig(t, srv.URL))
		resp, err := e.Search(context.Background(), &Query{Text: "golang"})
		require.NoError(t, err)

		assert.Equal(t, "golang", gotBody["query"])
		assert.EqualValues(t, 5, gotBody["max_results"])

		require.Len(t, resp.Results, 2)
		first := resp.Results[0]
		assert.Equal(t, "Go", first.Title)
		assert.Equal(t, "The Go site", first.Snippet)
		require.NotNil(t, first.Score)
		assert.InDelta(t, 0.97, *first.Score, 1e-9)
		assert.Equal(t, ID("tavily"), first.SourceEngine)

		// Missing title falls back to the URL; missing score stays nil.
		second := resp.Results[1]
		assert.Equal(t, "https://pkg.go.dev", second.Title)
		assert.Nil(t, second.Score)

		assert.Equal(t, ID("tavily"), resp.EngineID)
		assert.Nil(t, resp.Raw)
	})

	t.Run("forwards an explicit limit", func(t *testing.T) {
		var gotBody map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			_, _ = w.Write([]byte(`{"results":[{"title":"x","url":"https://x"}]}`))
		}))
		defer srv.Close()

		e := NewTavily(tavilyConfig(t, srv.URL))
		limit := 2
		_, err := e.Search(context.Background(), &Query{Text: "q", Limit: &limit})
		require.NoError(t, err)
		assert.EqualValues(t, 2, gotBody["max_results"])
	})

	t.Run("includes raw body on request", func(t *testing.T) {
		body := `{"results":[{"title":"x","url":"https://x"}]}`
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))
		defer srv.Close()

		e := NewTavily(tavilyConfig(t, srv.URL))
		resp, err := e.Search(context.Background(), &Query{Text: "q", IncludeRaw: true})
		require.NoError(t, err)
		assert.JSONEq(t, body, string(resp.Raw))
	})

	t.Run("zero usable results", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"results":[{"title":"no url"}]}`))
		}))
		defer srv.Close()

		e := NewTavily(tavilyConfig(t, srv.URL))
		_, err := e.Search(context.Background(), &Query{Text: "q"})
		assert.ErrorIs(t, err, ErrEmptyResult)
	})

	t.Run("backend error carries the status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "slow down", http.StatusTooManyRequests)
		}))
		defer srv.Close()

		e := NewTavily(tavilyConfig(t, srv.URL))
		_, err := e.Search(context.Background(), &Query{Text: "q"})

		var backendErr *BackendError
		require.ErrorAs(t, err, &backendErr)
		assert.Equal(t, http.StatusTooManyRequests, backendErr.StatusCode)
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>not json</html>`))
		}))
		defer srv.Close()

		e := NewTavily(tavilyConfig(t, srv.URL))
		_, err := e.Search(context.Background(), &Query{Text: "q"})
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})

	t.Run("missing credential fails before any network call", func(t *testing.T) {
		called := false
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		defer srv.Close()

		t.Setenv("TEST_TAVILY_KEY", "")
		e := NewTavily(Config{ID: "tavily", CredentialEnv: "TEST_TAVILY_KEY", BaseURL: srv.URL})
		_, err := e.Search(context.Background(), &Query{Text: "q"})

		assert.ErrorIs(t, err, ErrMissingCredential)
		assert.False(t, called)
	})

	t.Run("unreachable backend", func(t *testing.T) {
		e := NewTavily(tavilyConfig(t, "http://127.0.0.1:1"))
		_, err := e.Search(context.Background(), &Query{Text: "q"})
		assert.ErrorIs(t, err, ErrTransport)
	})
}

func TestTavilyMetadata(t *testing.T) {
	e := NewTavily(Config{ID: "tavily"})
	md := e.Metadata()
	assert.Equal(t, ID("tavily"), md.ID)
	assert.Equal(t, "Tavily", md.DisplayName)

	named := NewTavily(Config{ID: "tavily", Name: "Tavily EU"})
	assert.Equal(t, "Tavily EU", named.Metadata().DisplayName)
}

func TestQueryResolvedLimit(t *testing.T) {
	assert.Equal(t, 5, (&Query{}).ResolvedLimit())

	zero := 0
	assert.Equal(t, 0, (&Query{Limit: &zero}).ResolvedLimit())

	neg := -1
	assert.Equal(t, -1, (&Query{Limit: &neg}).ResolvedLimit())
}
