package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func searchRouter(proxy *SearchProxy) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/search", proxy.Handle)
	return r
}

func TestSearchMissingQuery(t *testing.T) {
	r := searchRouter(NewSearchProxy("http://unused", "key"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/search", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Missing query"}`, w.Body.String())
}

func TestSearchMissingKey(t *testing.T) {
	r := searchRouter(NewSearchProxy("http://unused", ""))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/search?q=test", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestSearchMapsUpstreamResults(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "snippet", r.URL.Query().Get("part"))
		assert.Equal(t, "lofi", r.URL.Query().Get("q"))
		assert.Equal(t, "video", r.URL.Query().Get("type"))
		assert.Equal(t, "secret", r.URL.Query().Get("key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"items": [
				{
					"id": {"videoId": "dQw4w9WgXcQ"},
					"snippet": {
						"title": "Never Gonna Give You Up",
						"channelTitle": "Rick Astley",
						"thumbnails": {"default": {"url": "http://img/1.jpg"}}
					}
				}
			]
		}`))
	}))
	defer upstream.Close()

	r := searchRouter(NewSearchProxy(upstream.URL, "secret"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/search?q=lofi", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var results []SearchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "dQw4w9WgXcQ", results[0].ID)
	assert.Equal(t, "Never Gonna Give You Up", results[0].Title)
	assert.Equal(t, "Rick Astley", results[0].AttributionText)
	assert.Equal(t, "http://img/1.jpg", results[0].ThumbnailURL)
}

func TestSearchUpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer upstream.Close()

	r := searchRouter(NewSearchProxy(upstream.URL, "secret"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/search?q=lofi", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Search API error", body["error"])
	assert.NotEmpty(t, body["details"])
}
