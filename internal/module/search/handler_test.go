package search

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/searchmux/server/internal/module/search/credit"
)

func newTestRouter(t *testing.T, f *serviceFixture) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	handler := NewHandler(f.service, f.credits, f.service.registry, f.history)
	r := gin.New()
	handler.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandlerSearch(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := newServiceFixture(t, defaultConfigs(), nil)
		r := newTestRouter(t, f)

		w := doRequest(r, http.MethodPost, "/api/v1/search", `{"query":"golang"}`)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			EngineID string `json:"engine_id"`
			Results  []struct {
				Title string `json:"title"`
				URL   string `json:"url"`
			} `json:"results"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "alpha", resp.EngineID)
		require.Len(t, resp.Results, 1)
	})

	t.Run("empty query", func(t *testing.T) {
		f := newServiceFixture(t, defaultConfigs(), nil)
		r := newTestRouter(t, f)

		w := doRequest(r, http.MethodPost, "/api/v1/search", `{"query":""}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "EMPTY_QUERY")
	})

	t.Run("malformed body", func(t *testing.T) {
		f := newServiceFixture(t, defaultConfigs(), nil)
		r := newTestRouter(t, f)

		w := doRequest(r, http.MethodPost, "/api/v1/search", `{"query":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown explicit engine", func(t *testing.T) {
		f := newServiceFixture(t, defaultConfigs(), nil)
		r := newTestRouter(t, f)

		w := doRequest(r, http.MethodPost, "/api/v1/search", `{"query":"x","engine":"gamma"}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "UNKNOWN_ENGINE")
	})

	t.Run("unknown policy", func(t *testing.T) {
		f := newServiceFixture(t, defaultConfigs(), nil)
		r := newTestRouter(t, f)

		w := doRequest(r, http.MethodPost, "/api/v1/search", `{"query":"x","policy":"fastest"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "UNKNOWN_POLICY")
	})

	t.Run("no eligible engine", func(t *testing.T) {
		now := time.Now().UTC()
		f := newServiceFixture(t, defaultConfigs(), credit.State{
			"alpha": {Used: 100, LastReset: now},
			"beta":  {Used: 50, LastReset: now},
		})
		r := newTestRouter(t, f)

		w := doRequest(r, http.MethodPost, "/api/v1/search", `{"query":"x"}`)
		assert.Equal(t, http.StatusPaymentRequired, w.Code)
		assert.Contains(t, w.Body.String(), "NO_ELIGIBLE_ENGINE")
	})
}

func TestHandlerEngines(t *testing.T) {
	f := newServiceFixture(t, defaultConfigs(), nil)
	r := newTestRouter(t, f)

	w := doRequest(r, http.MethodGet, "/api/v1/engines", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Engines []struct {
			ID          string `json:"id"`
			DisplayName string `json:"display_name"`
		} `json:"engines"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Engines, 2)
	assert.Equal(t, "alpha", resp.Engines[0].ID)
}

func TestHandlerCredits(t *testing.T) {
	now := time.Now().UTC()
	f := newServiceFixture(t, defaultConfigs(), credit.State{
		"alpha": {Used: 30, LastReset: now},
	})
	r := newTestRouter(t, f)

	t.Run("list", func(t *testing.T) {
		w := doRequest(r, http.MethodGet, "/api/v1/credits", "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Credits []credit.Snapshot `json:"credits"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Credits, 2)
		assert.Equal(t, 70, resp.Credits[0].Remaining)
	})

	t.Run("single engine", func(t *testing.T) {
		w := doRequest(r, http.MethodGet, "/api/v1/credits/alpha", "")
		require.Equal(t, http.StatusOK, w.Code)

		var snap credit.Snapshot
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
		assert.Equal(t, 30, snap.Used)
	})

	t.Run("unknown engine", func(t *testing.T) {
		w := doRequest(r, http.MethodGet, "/api/v1/credits/gamma", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("save on demand", func(t *testing.T) {
		before := f.provider.saves
		w := doRequest(r, http.MethodPost, "/api/v1/credits/save", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, before+1, f.provider.saves)
	})
}

func TestHandlerHistory(t *testing.T) {
	f := newServiceFixture(t, defaultConfigs(), nil)
	r := newTestRouter(t, f)

	w := doRequest(r, http.MethodPost, "/api/v1/search", `{"query":"golang"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, http.MethodGet, "/api/v1/history", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		History []struct {
			EngineID string `json:"engine_id"`
			Query    string `json:"query"`
			Success  bool   `json:"success"`
		} `json:"history"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.History, 1)
	assert.Equal(t, "golang", resp.History[0].Query)
	assert.True(t, resp.History[0].Success)
}

func TestHandlerHistoryDisabled(t *testing.T) {
	f := newServiceFixture(t, defaultConfigs(), nil)
	gin.SetMode(gin.TestMode)

	handler := NewHandler(f.service, f.credits, f.service.registry, nil)
	r := gin.New()
	handler.RegisterRoutes(r.Group("/api/v1"))

	w := doRequest(r, http.MethodGet, "/api/v1/history", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
