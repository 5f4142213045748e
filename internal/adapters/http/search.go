package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// SearchProxy bridges /search to the external catalog search API. Stateless:
// no room state is touched and upstream failures stay on this request.
type SearchProxy struct {
	apiURL string
	apiKey string
	client *http.Client
}

func NewSearchProxy(apiURL, apiKey string) *SearchProxy {
	return &SearchProxy{
		apiURL: apiURL,
		apiKey: apiKey,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type SearchResult struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	AttributionText string `json:"attributionText"`
	ThumbnailURL    string `json:"thumbnailUrl"`
}

// searchResponse mirrors the fields of the YouTube Data API v3 search
// response this proxy actually reads.
type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
			Thumbnails   struct {
				Default struct {
					URL string `json:"url"`
				} `json:"default"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

func (s *SearchProxy) Handle(c *gin.Context) {
	var q struct {
		Q string `form:"q" binding:"required"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing query"})
		return
	}
	if s.apiKey == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Missing API key"})
		return
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", q.Q)
	params.Set("type", "video")
	params.Set("maxResults", "10")
	params.Set("key", s.apiKey)

	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, s.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search API error", "details": err.Error()})
		return
	}

	resp, err := s.client.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("module", "adapters.http").Msg("search upstream failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search API error", "details": err.Error()})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Str("module", "adapters.http").Msg("search upstream status")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search API error", "details": fmt.Sprintf("upstream status %d", resp.StatusCode)})
		return
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search API error", "details": err.Error()})
		return
	}

	results := make([]SearchResult, 0, len(body.Items))
	for _, item := range body.Items {
		results = append(results, SearchResult{
			ID:              item.ID.VideoID,
			Title:           item.Snippet.Title,
			AttributionText: item.Snippet.ChannelTitle,
			ThumbnailURL:    item.Snippet.Thumbnails.Default.URL,
		})
	}
	c.JSON(http.StatusOK, results)
}
