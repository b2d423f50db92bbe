package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/whalewatch/searchsync/configs"
	"github.com/whalewatch/searchsync/internal/search"
)

func testSearchConfig() configs.MeilisearchConfig {
	return configs.MeilisearchConfig{
		Host:                  "http://localhost:7700",
		RequestTimeoutSeconds: 1,
	}
}

func queryTestRouter(restricted func() *search.Client) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewSearchHandler(nil, nil, restricted)
	r.GET("/v1/search/query", h.Query)
	return r
}

func TestQueryBlockedWithoutRestrictedClient(t *testing.T) {
	r := queryTestRouter(func() *search.Client { return nil })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/search/query?index=market_data_index&q=btc", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code,
		"reads stay blocked rather than falling back to the admin credential")
}

func TestSearchParamsFromQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  search.SearchParams
	}{
		{
			"defaults",
			"",
			search.SearchParams{Limit: 20},
		},
		{
			"all parameters",
			"filter=network=ethereum&sort=timestamp:desc,usd_value:desc&limit=5&offset=10",
			search.SearchParams{
				Filter: "network=ethereum",
				Sort:   []string{"timestamp:desc", "usd_value:desc"},
				Limit:  5,
				Offset: 10,
			},
		},
		{
			"unparseable numbers fall back",
			"limit=abc&offset=-3",
			search.SearchParams{Limit: 20},
		},
		{
			"zero limit falls back",
			"limit=0",
			search.SearchParams{Limit: 20},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/v1/search/query?"+tt.query, nil)

			assert.Equal(t, tt.want, searchParamsFromQuery(c))
		})
	}
}

func TestQueryRequiresIndexParam(t *testing.T) {
	restricted, err := search.RestrictedClientWithKey(testSearchConfig(), "some-key")
	assert.NoError(t, err)
	r := queryTestRouter(func() *search.Client { return restricted })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/search/query?q=btc", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
